package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_Fetch(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, `{"base":"USD","date":"2024-05-06","rates":{"USD":1,"EUR":0.9234,"jpy":151.2,"XXX":0}}`)

	table, err := NewClient(srv.URL, time.Second, nil).Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "0.9234", table.Rate("EUR").String())
	assert.Equal(t, "151.2", table.Rate("JPY").String())
	assert.Equal(t, "1", table.Rate("USD").String())
	assert.False(t, table.Has("XXX"), "non-positive rates are dropped")
}

func TestClient_FetchUsesCache(t *testing.T) {
	srv, calls := serve(t, http.StatusOK, `{"base":"USD","rates":{"EUR":0.9}}`)
	c := NewClient(srv.URL, time.Second, nil)

	for i := 0; i < 3; i++ {
		_, err := c.Fetch(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.Cache().Size())
}

func TestClient_FetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{"server error", http.StatusInternalServerError, `oops`, ErrUnexpectedStatus},
		{"malformed body", http.StatusOK, `{"rates":`, nil},
		{"wrong base", http.StatusOK, `{"base":"EUR","rates":{"USD":1.08}}`, ErrBaseMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := serve(t, tt.status, tt.body)
			_, err := NewClient(srv.URL, time.Second, nil).Fetch(context.Background())
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestClient_FetchOrDefault(t *testing.T) {
	srv, _ := serve(t, http.StatusBadGateway, ``)

	table := NewClient(srv.URL, time.Second, nil).FetchOrDefault(context.Background())

	assert.Len(t, table, 1)
	assert.Equal(t, "1", table.Rate("USD").String())
	assert.Equal(t, "1", table.Rate("EUR").String(), "missing codes fall back to 1")
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	start := time.Now()
	table := NewClient(srv.URL, 50*time.Millisecond, nil).FetchOrDefault(context.Background())

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Len(t, table, 1)
}

func TestClient_CacheTTL(t *testing.T) {
	srv, calls := serve(t, http.StatusOK, `{"base":"USD","rates":{"EUR":0.9}}`)
	c := NewClient(srv.URL, time.Second, nil, WithCacheTTL(time.Nanosecond))

	_, err := c.Fetch(context.Background())
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = c.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}
