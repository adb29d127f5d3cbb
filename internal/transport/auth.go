package transport

import (
	"net/http"
)

// Authenticator applies credentials to outgoing requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a NoAuth) Apply(_ *http.Request) {}

// QueryAuth sends the key as a query parameter, as Geoapify expects.
type QueryAuth struct {
	Param string
	Key   string
}

// Apply implements the Authenticator interface for QueryAuth.
func (a QueryAuth) Apply(req *http.Request) {
	if req.URL == nil || a.Key == "" {
		return
	}
	query := req.URL.Query()
	query.Set(a.Param, a.Key)
	req.URL.RawQuery = query.Encode()
}
