// Package service orchestrates the cart repository and cache.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/solekta/cartsync/internal/server/cache"
	"github.com/solekta/cartsync/internal/server/domain"
	"github.com/solekta/cartsync/internal/server/repository"
)

type CartService struct {
	repo  repository.CartRepository
	cache cache.CartCache
	log   *zap.Logger
	sfg   singleflight.Group // collapses concurrent misses for the same customer
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, log *zap.Logger) *CartService {
	return &CartService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// GetCart returns the customer's cart, an empty cart when none exists yet.
func (s *CartService) GetCart(ctx context.Context, customerID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(customerID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, customerID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			// Cache trouble degrades to a repository read.
			s.log.Warn("cache get failed", zap.String("customer_id", customerID), zap.Error(err))
		}

		cart, errGet := s.repo.GetCart(ctx, customerID)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			return &domain.Cart{
				CustomerID: customerID,
				CreatedAt:  time.Now(),
				UpdatedAt:  time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if err := s.cache.Set(context.Background(), customerID, cart); err != nil {
				s.log.Warn("cache set failed", zap.String("customer_id", customerID), zap.Error(err))
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// AddProduct adds a product line or increments the existing one.
func (s *CartService) AddProduct(ctx context.Context, customerID string, line domain.Line) error {
	if err := s.repo.AddProduct(ctx, customerID, line); err != nil {
		return err
	}
	s.invalidate(customerID)
	return nil
}

// SetProductQuantity overwrites a product line's quantity; zero or less
// removes the line instead.
func (s *CartService) SetProductQuantity(ctx context.Context, customerID string, productID int64, quantity int) error {
	var err error
	if quantity <= 0 {
		err = s.repo.RemoveProduct(ctx, customerID, productID)
	} else {
		err = s.repo.SetProductQuantity(ctx, customerID, productID, quantity)
	}
	if err != nil {
		return err
	}
	s.invalidate(customerID)
	return nil
}

// RemoveProduct drops a product line.
func (s *CartService) RemoveProduct(ctx context.Context, customerID string, productID int64) error {
	if err := s.repo.RemoveProduct(ctx, customerID, productID); err != nil {
		return err
	}
	s.invalidate(customerID)
	return nil
}

// UpsertService adds or replaces a service rental line.
func (s *CartService) UpsertService(ctx context.Context, customerID string, line domain.Line) error {
	if err := s.repo.UpsertService(ctx, customerID, line); err != nil {
		return err
	}
	s.invalidate(customerID)
	return nil
}

// RemoveService drops a service rental line.
func (s *CartService) RemoveService(ctx context.Context, customerID string, serviceID int64) error {
	if err := s.repo.RemoveService(ctx, customerID, serviceID); err != nil {
		return err
	}
	s.invalidate(customerID)
	return nil
}

// ClearCart empties the customer's cart. Clearing an absent cart succeeds.
func (s *CartService) ClearCart(ctx context.Context, customerID string) error {
	err := s.repo.DeleteCart(ctx, customerID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		return err
	}
	s.invalidate(customerID)
	return nil
}

func (s *CartService) invalidate(customerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, customerID); err != nil {
		s.log.Warn("cache invalidate failed", zap.String("customer_id", customerID), zap.Error(err))
	}
}
