package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solekta/cartsync/internal/api"
	"github.com/solekta/cartsync/internal/server/domain"
	"github.com/solekta/cartsync/internal/server/repository"
)

var testSecret = []byte("test-secret")

type serviceMock struct {
	cart *domain.Cart
	err  error

	added    []domain.Line
	removed  []int64
	services []domain.Line
	cleared  int
}

func (s *serviceMock) GetCart(_ context.Context, customerID string) (*domain.Cart, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.cart == nil {
		return &domain.Cart{CustomerID: customerID}, nil
	}
	return s.cart, nil
}

func (s *serviceMock) AddProduct(_ context.Context, _ string, line domain.Line) error {
	if s.err != nil {
		return s.err
	}
	s.added = append(s.added, line)
	return nil
}

func (s *serviceMock) SetProductQuantity(_ context.Context, _ string, productID int64, quantity int) error {
	return s.err
}

func (s *serviceMock) RemoveProduct(_ context.Context, _ string, productID int64) error {
	if s.err != nil {
		return s.err
	}
	s.removed = append(s.removed, productID)
	return nil
}

func (s *serviceMock) UpsertService(_ context.Context, _ string, line domain.Line) error {
	if s.err != nil {
		return s.err
	}
	s.services = append(s.services, line)
	return nil
}

func (s *serviceMock) RemoveService(_ context.Context, _ string, serviceID int64) error {
	if s.err != nil {
		return s.err
	}
	s.removed = append(s.removed, serviceID)
	return nil
}

func (s *serviceMock) ClearCart(context.Context, string) error {
	if s.err != nil {
		return s.err
	}
	s.cleared++
	return nil
}

func mintToken(t *testing.T, customerID string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": customerID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, svc CartService, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(svc, testSecret, 5*time.Second)

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetCart_ReturnsDerivedTotals(t *testing.T) {
	svc := &serviceMock{cart: &domain.Cart{
		CustomerID: "42",
		Items: []domain.Line{
			{Kind: domain.LineKindProduct, ProductID: 1, Name: "Laptop", UnitPrice: 50000, Quantity: 2},
			{Kind: domain.LineKindService, ServiceID: 7, Name: "Setup", RentalPeriod: 2, RentalPeriodType: "DAILY", UnitPrice: 3000, TotalPrice: 6000},
		},
	}}

	rec := doRequest(t, svc, http.MethodGet, "/api/cart/42", mintToken(t, "42"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.CartResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.CartItems, 2)
	assert.Equal(t, 106000.0, resp.Total)
	assert.Equal(t, 3, resp.ItemCount)
	assert.Equal(t, api.ItemTypeService, resp.CartItems[1].ItemType)
}

func TestGetCart_MissingToken(t *testing.T) {
	rec := doRequest(t, &serviceMock{}, http.MethodGet, "/api/cart/42", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetCart_WrongSignature(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "42",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	rec := doRequest(t, &serviceMock{}, http.MethodGet, "/api/cart/42", signed, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetCart_ForeignCustomerForbidden(t *testing.T) {
	rec := doRequest(t, &serviceMock{}, http.MethodGet, "/api/cart/99", mintToken(t, "42"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAddItem(t *testing.T) {
	svc := &serviceMock{}
	rec := doRequest(t, svc, http.MethodPost, "/api/cart/42/add", mintToken(t, "42"), api.AddItemRequest{
		ProductID: 1, Quantity: 2, UnitPrice: 50000,
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.added, 1)
	assert.Equal(t, int64(1), svc.added[0].ProductID)
	assert.Equal(t, 2, svc.added[0].Quantity)
}

func TestAddItem_RejectsBadQuantity(t *testing.T) {
	rec := doRequest(t, &serviceMock{}, http.MethodPost, "/api/cart/42/add", mintToken(t, "42"), api.AddItemRequest{
		ProductID: 1, Quantity: 0, UnitPrice: 50000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "invalid_quantity", resp.Code)
}

func TestRemoveItem_NotFound(t *testing.T) {
	svc := &serviceMock{err: repository.ErrItemNotFound}
	rec := doRequest(t, svc, http.MethodDelete, "/api/cart/42/remove/7", mintToken(t, "42"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearCart(t *testing.T) {
	svc := &serviceMock{}
	rec := doRequest(t, svc, http.MethodDelete, "/api/cart/42/clear", mintToken(t, "42"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.cleared)
}

func TestAddService_CustomerFromToken(t *testing.T) {
	svc := &serviceMock{}
	rec := doRequest(t, svc, http.MethodPost, "/api/cart/add-service", mintToken(t, "42"), api.AddServiceRequest{
		ServiceID: 7, RentalPeriod: 3, RentalPeriodType: "HOURLY", UnitPrice: 2000,
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.services, 1)
	assert.Equal(t, int64(7), svc.services[0].ServiceID)
	assert.Equal(t, 6000.0, svc.services[0].TotalPrice)
}

func TestAddService_RejectsBadPeriodType(t *testing.T) {
	rec := doRequest(t, &serviceMock{}, http.MethodPost, "/api/cart/add-service", mintToken(t, "42"), api.AddServiceRequest{
		ServiceID: 7, RentalPeriod: 3, RentalPeriodType: "WEEKLY", UnitPrice: 2000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveService(t *testing.T) {
	svc := &serviceMock{}
	rec := doRequest(t, svc, http.MethodDelete, "/api/cart/remove-service/7", mintToken(t, "42"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{7}, svc.removed)
}

func TestRequestID_Propagated(t *testing.T) {
	rec := doRequest(t, &serviceMock{}, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
