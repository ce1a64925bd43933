// Package store persists serialized carts between sessions, the way the
// storefront keeps them in browser local storage.
package store

import "github.com/solekta/cartsync/internal/cart"

// Storage keys. The authenticated cart and the guest cart live side by side
// so an auth transition never destroys the other session's cart.
const (
	KeyCart      = "cart"
	KeyGuestCart = "guestCart"
)

// Store is a tiny keyed blob store for cart line items.
// Consumers define this interface; the file implementation is one of them.
type Store interface {
	// Load returns the items under key. A missing or corrupt blob loads as
	// an empty list, never as an error.
	Load(key string) cart.Items
	Save(key string, items cart.Items) error
	Delete(key string) error
}
