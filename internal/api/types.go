// Package api defines the JSON wire types of the cart REST surface, shared
// by the client and the reference server.
package api

import "github.com/solekta/cartsync/internal/cart"

// CartItem is one cart line on the wire. ItemType discriminates between
// product purchases and service rentals.
type CartItem struct {
	ItemType string `json:"itemType"`

	ProductID   int64  `json:"productId,omitempty"`
	ProductName string `json:"productName,omitempty"`
	Quantity    int    `json:"quantity,omitempty"`

	ServiceID        int64   `json:"serviceId,omitempty"`
	ServiceName      string  `json:"serviceName,omitempty"`
	RentalPeriod     int     `json:"rentalPeriod,omitempty"`
	RentalPeriodType string  `json:"rentalPeriodType,omitempty"`
	TotalPrice       float64 `json:"totalPrice,omitempty"`

	UnitPrice float64 `json:"unitPrice"`
}

// CartResponse is the payload of GET /cart/{customerId}.
type CartResponse struct {
	CartItems []CartItem `json:"cartItems"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"itemCount"`
}

// AddItemRequest is the body of POST /cart/{customerId}/add.
type AddItemRequest struct {
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Name      string  `json:"productName,omitempty"`
}

// UpdateItemRequest is the body of PUT /cart/{customerId}/update.
type UpdateItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// AddServiceRequest is the body of POST /cart/add-service.
type AddServiceRequest struct {
	ServiceID        int64   `json:"serviceId"`
	RentalPeriod     int     `json:"rentalPeriod"`
	RentalPeriodType string  `json:"rentalPeriodType"`
	UnitPrice        float64 `json:"unitPrice"`
	Name             string  `json:"serviceName,omitempty"`
}

// ErrorResponse is the error envelope returned on any non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

const (
	ItemTypeProduct = "PRODUCT"
	ItemTypeService = "SERVICE"
)

// ToLineItem translates a wire item to the local cart shape. Unknown item
// types come back as ok=false and are skipped by callers.
func (c CartItem) ToLineItem() (cart.LineItem, bool) {
	switch c.ItemType {
	case ItemTypeProduct:
		return cart.ProductLine{
			ProductID: c.ProductID,
			Name:      c.ProductName,
			UnitPrice: c.UnitPrice,
			Quantity:  c.Quantity,
		}, true
	case ItemTypeService:
		return cart.ServiceLine{
			ServiceID:        c.ServiceID,
			Name:             c.ServiceName,
			RentalPeriod:     c.RentalPeriod,
			RentalPeriodType: cart.RentalPeriodType(c.RentalPeriodType),
			UnitPrice:        c.UnitPrice,
			TotalPrice:       c.TotalPrice,
		}, true
	}
	return nil, false
}

// FromLineItem translates a local cart line to its wire shape.
func FromLineItem(line cart.LineItem) CartItem {
	switch l := line.(type) {
	case cart.ProductLine:
		return CartItem{
			ItemType:    ItemTypeProduct,
			ProductID:   l.ProductID,
			ProductName: l.Name,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
		}
	case cart.ServiceLine:
		return CartItem{
			ItemType:         ItemTypeService,
			ServiceID:        l.ServiceID,
			ServiceName:      l.Name,
			RentalPeriod:     l.RentalPeriod,
			RentalPeriodType: string(l.RentalPeriodType),
			UnitPrice:        l.UnitPrice,
			TotalPrice:       l.TotalPrice,
		}
	}
	return CartItem{}
}
