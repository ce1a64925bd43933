package repository

import (
	"context"
	"errors"

	"github.com/solekta/cartsync/internal/server/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
)

// CartRepository defines the cart persistence operations the service needs.
// Consumers define this interface, not the MongoDB implementation.
type CartRepository interface {
	GetCart(ctx context.Context, customerID string) (*domain.Cart, error)
	// AddProduct appends a product line, or increments the quantity of the
	// line with the same product id.
	AddProduct(ctx context.Context, customerID string, line domain.Line) error
	// SetProductQuantity overwrites an existing product line's quantity.
	SetProductQuantity(ctx context.Context, customerID string, productID int64, quantity int) error
	RemoveProduct(ctx context.Context, customerID string, productID int64) error
	// UpsertService appends a service line, or replaces the line with the
	// same service id.
	UpsertService(ctx context.Context, customerID string, line domain.Line) error
	RemoveService(ctx context.Context, customerID string, serviceID int64) error
	DeleteCart(ctx context.Context, customerID string) error
}
