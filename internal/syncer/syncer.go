// Package syncer keeps the in-memory cart consistent with the remote cart
// service and the local fallback blobs across login/logout transitions.
//
// Mutations are optimistic: local state commits first, the remote call runs
// in the background, and a failed call is logged but never rolled back. The
// remote either catches up or the discrepancy is tolerated. This mirrors the
// storefront's documented eventual-consistency policy.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/solekta/cartsync/internal/api"
	"github.com/solekta/cartsync/internal/cart"
	"github.com/solekta/cartsync/internal/store"
	"github.com/solekta/cartsync/internal/token"
)

// ErrNotAuthenticated is returned by every mutation attempted without a
// valid session. Anonymous users can view a previous guest cart but never
// mutate it.
var ErrNotAuthenticated = errors.New("cart mutations require an authenticated session")

// Remote is the consumed slice of the cart service client.
type Remote interface {
	GetCartItems(ctx context.Context, customerID string) ([]api.CartItem, error)
	AddToCart(ctx context.Context, customerID string, productID int64, quantity int, unitPrice float64) error
	UpdateCartItem(ctx context.Context, customerID string, productID int64, quantity int) error
	RemoveFromCart(ctx context.Context, customerID string, productID int64) error
	ClearCart(ctx context.Context, customerID string) error
	AddServiceToCart(ctx context.Context, serviceID int64, rentalPeriod int, rentalPeriodType string, unitPrice float64) error
	RemoveServiceFromCart(ctx context.Context, serviceID int64) error
}

const remoteTimeout = 10 * time.Second

// Syncer owns the cart state. All transitions go through the reducer; every
// transition is persisted under the key matching the current auth state.
type Syncer struct {
	mu     sync.Mutex
	state  cart.State
	authed bool

	store  store.Store
	remote Remote
	auth   token.Source
	log    *zap.Logger

	wg sync.WaitGroup
}

func New(st store.Store, remote Remote, auth token.Source, log *zap.Logger) *Syncer {
	return &Syncer{
		state:  cart.Empty(),
		store:  st,
		remote: remote,
		auth:   auth,
		log:    log,
	}
}

// Init hydrates the cart once at startup. Failures fall back to local data
// and are never fatal.
func (s *Syncer) Init(ctx context.Context) {
	s.refresh(ctx)
}

// Close drains in-flight background replications.
func (s *Syncer) Close() {
	s.wg.Wait()
}

// State returns a snapshot of the current cart.
func (s *Syncer) State() cart.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make(cart.Items, len(s.state.Items))
	copy(items, s.state.Items)
	return cart.State{Items: items, Total: s.state.Total, ItemCount: s.state.ItemCount}
}

// OnAuthChange re-hydrates after a login or logout. Logout first copies the
// authenticated cart into the guest slot so its contents survive; the
// authenticated blob stays behind for the next login.
func (s *Syncer) OnAuthChange(ctx context.Context) {
	st := s.auth.Status()

	s.mu.Lock()
	was := s.authed
	items := make(cart.Items, len(s.state.Items))
	copy(items, s.state.Items)
	s.mu.Unlock()

	if was && !st.Authenticated {
		if err := s.store.Save(store.KeyGuestCart, items); err != nil {
			s.log.Warn("failed to preserve cart into guest slot", zap.Error(err))
		}
	}

	s.refresh(ctx)
}

// AddItem adds a product line, or increments an existing one.
func (s *Syncer) AddItem(line cart.ProductLine) error {
	st := s.auth.Status()
	if !st.Authenticated {
		return ErrNotAuthenticated
	}

	s.dispatch(cart.AddItem{Line: line})
	s.background("add item", func(ctx context.Context) error {
		return s.remote.AddToCart(ctx, st.CustomerID, line.ProductID, line.Quantity, line.UnitPrice)
	})
	return nil
}

// UpdateQuantity sets a product line's quantity; zero or less removes it.
func (s *Syncer) UpdateQuantity(productID int64, quantity int) error {
	st := s.auth.Status()
	if !st.Authenticated {
		return ErrNotAuthenticated
	}

	s.dispatch(cart.UpdateQuantity{ProductID: productID, Quantity: quantity})
	s.background("update quantity", func(ctx context.Context) error {
		if quantity <= 0 {
			return s.remote.RemoveFromCart(ctx, st.CustomerID, productID)
		}
		return s.remote.UpdateCartItem(ctx, st.CustomerID, productID, quantity)
	})
	return nil
}

// RemoveItem drops a product line.
func (s *Syncer) RemoveItem(productID int64) error {
	st := s.auth.Status()
	if !st.Authenticated {
		return ErrNotAuthenticated
	}

	s.dispatch(cart.RemoveItem{ProductID: productID})
	s.background("remove item", func(ctx context.Context) error {
		return s.remote.RemoveFromCart(ctx, st.CustomerID, productID)
	})
	return nil
}

// AddService adds a service rental line, replacing any line with the same id.
func (s *Syncer) AddService(line cart.ServiceLine) error {
	st := s.auth.Status()
	if !st.Authenticated {
		return ErrNotAuthenticated
	}

	s.dispatch(cart.AddService{Line: line})
	s.background("add service", func(ctx context.Context) error {
		return s.remote.AddServiceToCart(ctx, line.ServiceID, line.RentalPeriod, string(line.RentalPeriodType), line.UnitPrice)
	})
	return nil
}

// RemoveService drops a service rental line.
func (s *Syncer) RemoveService(serviceID int64) error {
	st := s.auth.Status()
	if !st.Authenticated {
		return ErrNotAuthenticated
	}

	s.dispatch(cart.RemoveService{ServiceID: serviceID})
	s.background("remove service", func(ctx context.Context) error {
		return s.remote.RemoveServiceFromCart(ctx, serviceID)
	})
	return nil
}

// Clear empties the cart.
func (s *Syncer) Clear() error {
	st := s.auth.Status()
	if !st.Authenticated {
		return ErrNotAuthenticated
	}

	s.dispatch(cart.Clear{})
	s.background("clear cart", func(ctx context.Context) error {
		return s.remote.ClearCart(ctx, st.CustomerID)
	})
	return nil
}

// refresh implements the hydration decision table: guests load the guest
// blob; authenticated sessions take the remote cart when it is non-empty,
// otherwise load the local blob optimistically and replay it to the remote;
// a failed remote fetch falls back to whatever local blob exists.
func (s *Syncer) refresh(ctx context.Context) {
	st := s.auth.Status()

	s.mu.Lock()
	s.authed = st.Authenticated
	s.mu.Unlock()

	if !st.Authenticated {
		s.dispatch(cart.Load{Items: s.store.Load(store.KeyGuestCart)})
		return
	}

	remoteItems, err := s.remote.GetCartItems(ctx, st.CustomerID)
	if err != nil {
		s.log.Warn("remote cart fetch failed, using local cart", zap.Error(err))
		s.dispatch(cart.Load{Items: s.localBlob()})
		return
	}

	if len(remoteItems) > 0 {
		// Remote is authoritative when non-empty.
		items := make(cart.Items, 0, len(remoteItems))
		for _, it := range remoteItems {
			if line, ok := it.ToLineItem(); ok {
				items = append(items, line)
			}
		}
		s.dispatch(cart.Load{Items: items})
		return
	}

	if local := s.localBlob(); len(local) > 0 {
		// Load locally first for responsiveness, then push each line to the
		// remote in the background.
		s.dispatch(cart.Load{Items: local})
		s.replay(st.CustomerID, local)
		return
	}

	s.dispatch(cart.Clear{})
}

// localBlob returns the previously-authenticated cart if present, else the
// guest cart.
func (s *Syncer) localBlob() cart.Items {
	if items := s.store.Load(store.KeyCart); len(items) > 0 {
		return items
	}
	return s.store.Load(store.KeyGuestCart)
}

// replay pushes local lines to the remote cart and clears the guest slot
// once every line landed. Failures are logged; the optimistic local load
// stands either way.
func (s *Syncer) replay(customerID string, items cart.Items) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()

		synced := true
		for _, it := range items {
			var err error
			switch l := it.(type) {
			case cart.ProductLine:
				err = s.remote.AddToCart(ctx, customerID, l.ProductID, l.Quantity, l.UnitPrice)
			case cart.ServiceLine:
				err = s.remote.AddServiceToCart(ctx, l.ServiceID, l.RentalPeriod, string(l.RentalPeriodType), l.UnitPrice)
			}
			if err != nil {
				synced = false
				s.log.Warn("failed to replay cart line", zap.String("customer_id", customerID), zap.Error(err))
			}
		}

		if synced {
			if err := s.store.Delete(store.KeyGuestCart); err != nil {
				s.log.Warn("failed to clear guest cart after sync", zap.Error(err))
			}
		}
	}()
}

// dispatch runs one reducer transition and persists the result under the key
// matching the current auth state.
func (s *Syncer) dispatch(a cart.Action) {
	s.mu.Lock()
	s.state = cart.Reduce(s.state, a)
	items := s.state.Items
	key := store.KeyGuestCart
	if s.authed {
		key = store.KeyCart
	}
	s.mu.Unlock()

	if err := s.store.Save(key, items); err != nil {
		s.log.Warn("failed to persist cart", zap.String("key", key), zap.Error(err))
	}
}

// background runs one remote mutation without blocking the caller.
func (s *Syncer) background(op string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			// Deliberately not rolled back; see package comment.
			s.log.Warn("remote cart call failed", zap.String("op", op), zap.Error(err))
		}
	}()
}
