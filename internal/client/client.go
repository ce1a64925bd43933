// Package client talks to the remote cart REST service. Every call is a
// single attempt; there is no retry or backoff, only the circuit breaker
// keeping a dead backend from being hammered.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/solekta/cartsync/internal/api"
)

// DefaultBaseURL matches the development backend.
const DefaultBaseURL = "http://localhost:8081/api"

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a non-default backend.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.base = base }
}

// WithOn401 registers a hook fired when any request comes back 401, after
// the token has been evicted. The UI uses it to force the login view.
func WithOn401(fn func()) Option {
	return func(c *Client) { c.on401 = fn }
}

// WithHTTPClient swaps the underlying HTTP client, keeping the bearer
// transport. Mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Client is the remote cart service consumer.
type Client struct {
	base    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	on401   func()
}

func New(tokens TokenStore, opts ...Option) *Client {
	c := &Client{base: DefaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
	}
	c.http.Transport = &bearerTransport{
		base:   newBaseTransport(c.http.Transport),
		tokens: tokens,
		on401:  c.on401,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "cart-api",
		Timeout: 30 * time.Second,
	})
	return c
}

// GetCartItems fetches the authenticated customer's cart.
func (c *Client) GetCartItems(ctx context.Context, customerID string) ([]api.CartItem, error) {
	var resp api.CartResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/cart/%s", url.PathEscape(customerID)), nil, &resp)
	if err != nil {
		return nil, err
	}
	return resp.CartItems, nil
}

// AddToCart adds a product line, or increments an existing one.
func (c *Client) AddToCart(ctx context.Context, customerID string, productID int64, quantity int, unitPrice float64) error {
	body := map[string]any{
		"productId": productID,
		"quantity":  quantity,
		"unitPrice": unitPrice,
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/cart/%s/add", url.PathEscape(customerID)), body, nil)
}

// UpdateCartItem sets the quantity of an existing product line.
func (c *Client) UpdateCartItem(ctx context.Context, customerID string, productID int64, quantity int) error {
	body := map[string]any{
		"productId": productID,
		"quantity":  quantity,
	}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/cart/%s/update", url.PathEscape(customerID)), body, nil)
}

// RemoveFromCart drops a product line.
func (c *Client) RemoveFromCart(ctx context.Context, customerID string, productID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/%s/remove/%d", url.PathEscape(customerID), productID), nil, nil)
}

// ClearCart empties the customer's cart.
func (c *Client) ClearCart(ctx context.Context, customerID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/%s/clear", url.PathEscape(customerID)), nil, nil)
}

// AddServiceToCart adds a service rental line. The customer is taken from
// the bearer token server-side.
func (c *Client) AddServiceToCart(ctx context.Context, serviceID int64, rentalPeriod int, rentalPeriodType string, unitPrice float64) error {
	body := map[string]any{
		"serviceId":        serviceID,
		"rentalPeriod":     rentalPeriod,
		"rentalPeriodType": rentalPeriodType,
		"unitPrice":        unitPrice,
	}
	return c.do(ctx, http.MethodPost, "/cart/add-service", body, nil)
}

// RemoveServiceFromCart drops a service rental line.
func (c *Client) RemoveServiceFromCart(ctx context.Context, serviceID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/remove-service/%d", serviceID), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("marshal request failed: %w", err)
			}
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
		if err != nil {
			return nil, fmt.Errorf("build request failed: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response failed: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, remoteError(resp.StatusCode, raw)
		}
		return raw, nil
	})
	if err != nil {
		return err
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response failed: %w", err)
		}
	}
	return nil
}

// RemoteError is a non-2xx answer from the cart service.
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cart service returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("cart service returned %d", e.StatusCode)
}

func remoteError(status int, raw []byte) error {
	var envelope struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	_ = json.Unmarshal(raw, &envelope)
	return &RemoteError{StatusCode: status, Code: envelope.Code, Message: envelope.Error}
}
