package apiclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TokenSource returns the bearer token to attach, or "" for none.
type TokenSource func() string

// StaticToken always returns token.
func StaticToken(token string) TokenSource {
	return func() string { return token }
}

type bearerTransport struct {
	next  http.RoundTripper
	token TokenSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.token()
	if token == "" || req.Header.Get("Authorization") != "" {
		return t.next.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+token)
	return t.next.RoundTrip(req)
}

// NewHTTPClient returns a traced HTTP client that authenticates every request
// with the current token. Queued requests are stored without credentials and
// pick up the token at replay time.
func NewHTTPClient(token TokenSource, timeout time.Duration) *http.Client {
	if token == nil {
		token = StaticToken("")
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &bearerTransport{
			next:  otelhttp.NewTransport(http.DefaultTransport),
			token: token,
		},
	}
}
