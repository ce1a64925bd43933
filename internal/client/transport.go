package client

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TokenStore is what the transport needs from the token manager: the raw
// bearer token and the global 401 eviction hook.
type TokenStore interface {
	Token() string
	Clear()
}

// bearerTransport attaches the Authorization header to every outgoing
// request and evicts the token when the backend answers 401, so the whole
// application drops to the anonymous state at once.
type bearerTransport struct {
	base   http.RoundTripper
	tokens TokenStore
	on401  func()
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if tok := t.tokens.Token(); tok != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := t.base.RoundTrip(req)
	if err == nil && resp.StatusCode == http.StatusUnauthorized {
		t.tokens.Clear()
		if t.on401 != nil {
			t.on401()
		}
	}
	return resp, err
}

func newBaseTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return otelhttp.NewTransport(base)
}
