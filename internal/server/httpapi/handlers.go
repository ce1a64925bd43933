package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/solekta/cartsync/internal/api"
	"github.com/solekta/cartsync/internal/server/domain"
)

// CartService is the slice of the service layer the handlers consume.
type CartService interface {
	GetCart(ctx context.Context, customerID string) (*domain.Cart, error)
	AddProduct(ctx context.Context, customerID string, line domain.Line) error
	SetProductQuantity(ctx context.Context, customerID string, productID int64, quantity int) error
	RemoveProduct(ctx context.Context, customerID string, productID int64) error
	UpsertService(ctx context.Context, customerID string, line domain.Line) error
	RemoveService(ctx context.Context, customerID string, serviceID int64) error
	ClearCart(ctx context.Context, customerID string) error
}

type CartHandler struct {
	service CartService
	timeout time.Duration
}

func NewCartHandler(service CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{service: service, timeout: timeout}
}

// pathCustomer returns the customer id from the URL, refusing requests whose
// token belongs to someone else.
func (h *CartHandler) pathCustomer(w http.ResponseWriter, r *http.Request) (string, bool) {
	customerID := chi.URLParam(r, "customerID")
	if customerID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "missing customer id")
		return "", false
	}
	if customerID != customerIDFromContext(r.Context()) {
		respondError(w, http.StatusForbidden, "permission_denied", "cart belongs to another customer")
		return "", false
	}
	return customerID, true
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customerID, ok := h.pathCustomer(w, r)
	if !ok {
		return
	}

	cart, err := h.service.GetCart(ctx, customerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customerID, ok := h.pathCustomer(w, r)
	if !ok {
		return
	}

	var req api.AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId must be positive")
		return
	}
	if req.Quantity < 1 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	err := h.service.AddProduct(ctx, customerID, domain.Line{
		ProductID: req.ProductID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondCart(ctx, w, customerID, http.StatusCreated)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customerID, ok := h.pathCustomer(w, r)
	if !ok {
		return
	}

	var req api.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId must be positive")
		return
	}

	// Quantity zero or below removes the line.
	if err := h.service.SetProductQuantity(ctx, customerID, req.ProductID, req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondCart(ctx, w, customerID, http.StatusOK)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customerID, ok := h.pathCustomer(w, r)
	if !ok {
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId must be a positive integer")
		return
	}

	if err := h.service.RemoveProduct(ctx, customerID, productID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondCart(ctx, w, customerID, http.StatusOK)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customerID, ok := h.pathCustomer(w, r)
	if !ok {
		return
	}

	if err := h.service.ClearCart(ctx, customerID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondCart(ctx, w, customerID, http.StatusOK)
}

func (h *CartHandler) AddService(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	// The customer comes from the token on the service-rental routes.
	customerID := customerIDFromContext(r.Context())

	var req api.AddServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ServiceID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_service_id", "serviceId must be positive")
		return
	}
	if req.RentalPeriod < 1 {
		respondError(w, http.StatusBadRequest, "invalid_rental_period", "rentalPeriod must be at least 1")
		return
	}
	if req.RentalPeriodType != "HOURLY" && req.RentalPeriodType != "DAILY" {
		respondError(w, http.StatusBadRequest, "invalid_rental_period_type", "rentalPeriodType must be HOURLY or DAILY")
		return
	}

	err := h.service.UpsertService(ctx, customerID, domain.Line{
		ServiceID:        req.ServiceID,
		Name:             req.Name,
		RentalPeriod:     req.RentalPeriod,
		RentalPeriodType: req.RentalPeriodType,
		UnitPrice:        req.UnitPrice,
		TotalPrice:       req.UnitPrice * float64(req.RentalPeriod),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondCart(ctx, w, customerID, http.StatusCreated)
}

func (h *CartHandler) RemoveServiceFromCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customerID := customerIDFromContext(r.Context())

	serviceID, err := strconv.ParseInt(chi.URLParam(r, "serviceID"), 10, 64)
	if err != nil || serviceID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_service_id", "serviceId must be a positive integer")
		return
	}

	if err := h.service.RemoveService(ctx, customerID, serviceID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondCart(ctx, w, customerID, http.StatusOK)
}

// respondCart re-reads the cart so mutations answer with the fresh document.
func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, customerID string, status int) {
	cart, err := h.service.GetCart(ctx, customerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, status, cartResponse(cart))
}

func cartResponse(cart *domain.Cart) api.CartResponse {
	resp := api.CartResponse{CartItems: make([]api.CartItem, 0, len(cart.Items))}
	for _, line := range cart.Items {
		item := api.CartItem{UnitPrice: line.UnitPrice}
		switch line.Kind {
		case domain.LineKindService:
			item.ItemType = api.ItemTypeService
			item.ServiceID = line.ServiceID
			item.ServiceName = line.Name
			item.RentalPeriod = line.RentalPeriod
			item.RentalPeriodType = line.RentalPeriodType
			item.TotalPrice = line.TotalPrice
		default:
			item.ItemType = api.ItemTypeProduct
			item.ProductID = line.ProductID
			item.ProductName = line.Name
			item.Quantity = line.Quantity
		}
		resp.CartItems = append(resp.CartItems, item)
		resp.Total += line.Subtotal()
		resp.ItemCount += line.Units()
	}
	return resp
}
