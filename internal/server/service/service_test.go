package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solekta/cartsync/internal/server/cache"
	"github.com/solekta/cartsync/internal/server/domain"
	"github.com/solekta/cartsync/internal/server/repository"
)

type mockRepository struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockRepository) GetCart(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, repository.ErrCartNotFound
	}
	return m.cart, nil
}

func (m *mockRepository) AddProduct(_ context.Context, customerID string, line domain.Line) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	line.Kind = domain.LineKindProduct
	if m.cart == nil {
		m.cart = &domain.Cart{CustomerID: customerID}
	}
	for i := range m.cart.Items {
		if m.cart.Items[i].Kind == domain.LineKindProduct && m.cart.Items[i].ProductID == line.ProductID {
			m.cart.Items[i].Quantity += line.Quantity
			return nil
		}
	}
	m.cart.Items = append(m.cart.Items, line)
	return nil
}

func (m *mockRepository) SetProductQuantity(_ context.Context, _ string, productID int64, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.cart.Items {
		if m.cart.Items[i].ProductID == productID {
			m.cart.Items[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockRepository) RemoveProduct(_ context.Context, _ string, productID int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, it := range m.cart.Items {
		if it.Kind == domain.LineKindProduct && it.ProductID == productID {
			m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockRepository) UpsertService(_ context.Context, customerID string, line domain.Line) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	line.Kind = domain.LineKindService
	if m.cart == nil {
		m.cart = &domain.Cart{CustomerID: customerID}
	}
	for i := range m.cart.Items {
		if m.cart.Items[i].Kind == domain.LineKindService && m.cart.Items[i].ServiceID == line.ServiceID {
			m.cart.Items[i] = line
			return nil
		}
	}
	m.cart.Items = append(m.cart.Items, line)
	return nil
}

func (m *mockRepository) RemoveService(_ context.Context, _ string, serviceID int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, it := range m.cart.Items {
		if it.Kind == domain.LineKindService && it.ServiceID == serviceID {
			m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockRepository) DeleteCart(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.cart == nil {
		return repository.ErrCartNotFound
	}
	m.cart = nil
	return nil
}

type mockCache struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return m.err
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return m.err
}

func (m *mockCache) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

func newService(repo repository.CartRepository, c cache.CartCache) *CartService {
	return NewCartService(repo, c, zap.NewNop())
}

func TestGetCart_CacheHitSkipsRepository(t *testing.T) {
	cached := &domain.Cart{CustomerID: "42", Items: []domain.Line{{Kind: domain.LineKindProduct, ProductID: 1, Quantity: 2}}}
	repo := &mockRepository{err: errors.New("repo must not be hit")}
	mc := &mockCache{cart: cached}

	got, err := newService(repo, mc).GetCart(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, cached, got)
}

func TestGetCart_MissFallsThroughAndPopulatesCache(t *testing.T) {
	stored := &domain.Cart{CustomerID: "42", Items: []domain.Line{{Kind: domain.LineKindProduct, ProductID: 1, Quantity: 2}}}
	repo := &mockRepository{cart: stored}
	mc := &mockCache{}

	got, err := newService(repo, mc).GetCart(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	// Cache population is asynchronous.
	require.Eventually(t, func() bool {
		return mc.getCart() != nil
	}, time.Second, 10*time.Millisecond)
}

func TestGetCart_UnknownCustomerGetsEmptyCart(t *testing.T) {
	got, err := newService(&mockRepository{}, &mockCache{}).GetCart(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", got.CustomerID)
	assert.Empty(t, got.Items)
}

func TestGetCart_CacheErrorDegradesToRepository(t *testing.T) {
	stored := &domain.Cart{CustomerID: "42"}
	repo := &mockRepository{cart: stored}
	mc := &mockCache{err: errors.New("redis down")}

	got, err := newService(repo, mc).GetCart(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, stored, got)
}

func TestAddProduct_InvalidatesCache(t *testing.T) {
	repo := &mockRepository{}
	mc := &mockCache{cart: &domain.Cart{CustomerID: "42"}}
	sut := newService(repo, mc)

	require.NoError(t, sut.AddProduct(context.Background(), "42", domain.Line{ProductID: 1, Quantity: 2}))
	assert.Nil(t, mc.getCart())
}

func TestSetProductQuantity_ZeroRemovesLine(t *testing.T) {
	repo := &mockRepository{}
	sut := newService(repo, &mockCache{})
	ctx := context.Background()

	require.NoError(t, sut.AddProduct(ctx, "42", domain.Line{ProductID: 1, Quantity: 2}))
	require.NoError(t, sut.SetProductQuantity(ctx, "42", 1, 0))

	assert.Empty(t, repo.cart.Items)
}

func TestClearCart_AbsentCartSucceeds(t *testing.T) {
	sut := newService(&mockRepository{}, &mockCache{})
	require.NoError(t, sut.ClearCart(context.Background(), "42"))
}

func TestAddProduct_RepositoryErrorPropagates(t *testing.T) {
	boom := errors.New("mongo down")
	sut := newService(&mockRepository{err: boom}, &mockCache{})

	err := sut.AddProduct(context.Background(), "42", domain.Line{ProductID: 1, Quantity: 1})
	assert.ErrorIs(t, err, boom)
}
