// Package domain holds the server-side cart document model.
package domain

import "time"

const (
	LineKindProduct = "PRODUCT"
	LineKindService = "SERVICE"
)

// Cart is one customer's cart document. A customer has at most one cart.
type Cart struct {
	ID         string    `bson:"_id,omitempty" json:"-"`
	CustomerID string    `bson:"customer_id" json:"customerId"`
	Items      []Line    `bson:"items" json:"items"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// Line is one cart entry, discriminated by Kind.
type Line struct {
	Kind string `bson:"kind" json:"kind"`

	ProductID int64 `bson:"product_id,omitempty" json:"productId,omitempty"`
	Quantity  int   `bson:"quantity,omitempty" json:"quantity,omitempty"`

	ServiceID        int64   `bson:"service_id,omitempty" json:"serviceId,omitempty"`
	RentalPeriod     int     `bson:"rental_period,omitempty" json:"rentalPeriod,omitempty"`
	RentalPeriodType string  `bson:"rental_period_type,omitempty" json:"rentalPeriodType,omitempty"`
	TotalPrice       float64 `bson:"total_price,omitempty" json:"totalPrice,omitempty"`

	Name      string    `bson:"name,omitempty" json:"name,omitempty"`
	UnitPrice float64   `bson:"unit_price" json:"unitPrice"`
	AddedAt   time.Time `bson:"added_at" json:"addedAt"`
}

// Subtotal is the line's contribution to the cart total.
func (l Line) Subtotal() float64 {
	if l.Kind == LineKindService {
		return l.TotalPrice
	}
	return l.UnitPrice * float64(l.Quantity)
}

// Units is the line's contribution to the item count; a service rental
// counts once regardless of duration.
func (l Line) Units() int {
	if l.Kind == LineKindService {
		return 1
	}
	return l.Quantity
}
