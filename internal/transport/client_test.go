package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/logging"
)

func TestFetchBuildsURL(t *testing.T) {
	var gotPath, gotQuery, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	c := New("nfz", server.URL+"/app-umw-api/")
	body, err := c.Fetch(context.Background(), "agreements", url.Values{
		"page":        {"2"},
		"api-version": {"1.2"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok": true}`, string(body))
	assert.Equal(t, "/app-umw-api/agreements", gotPath)
	assert.Equal(t, "api-version=1.2&page=2", gotQuery)
	assert.Equal(t, "application/json", gotAccept)
}

func TestFetchAppliesQueryAuthWithoutLoggingIt(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("apiKey")
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	tl := logging.NewTestLogger(t)
	c := New("geoapify", server.URL, WithAuth(QueryAuth{Param: "apiKey", Key: "s3cret"}), WithLogger(tl.Logger))

	_, err := c.Fetch(context.Background(), "geocode/search", url.Values{"city": {"Łódź"}})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", gotKey)
	tl.AssertContains(t, "geocode/search")
	tl.AssertNotContains(t, "s3cret")
}

func TestFetchStatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		rateLimited bool
		unavailable bool
	}{
		{"not found", http.StatusNotFound, false, false},
		{"rate limited", http.StatusTooManyRequests, true, false},
		{"server error", http.StatusBadGateway, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
			}))
			defer server.Close()

			_, err := New("nfz", server.URL).Fetch(context.Background(), "providers", nil)
			require.Error(t, err)

			var te *errors.TransportError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.status, te.StatusCode)
			assert.Equal(t, "providers", te.Endpoint)
			assert.LessOrEqual(t, len(te.Message), maxErrorBody+3)
			assert.Equal(t, tt.rateLimited, errors.IsRateLimited(err))
			assert.Equal(t, tt.unavailable, errors.Is(err, errors.ErrUnavailable))
		})
	}
}

func TestFetchConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := server.URL
	server.Close()

	_, err := New("nfz", addr).Fetch(context.Background(), "agreements", nil)
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := New("nfz", server.URL, WithTimeout(20*time.Millisecond)).Fetch(context.Background(), "agreements", nil)
	assert.True(t, errors.IsTransport(err))
}

func TestFetchNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	_, err := New("nfz", server.URL).Fetch(context.Background(), "agreements", nil)
	assert.True(t, errors.IsValidationError(err))
	assert.False(t, errors.IsTransport(err))
}
