package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ovpnsync/internal/types"
)

func TestWebResolve(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("5.6.7.8"))
	}))
	defer srv.Close()

	r := NewWeb(Config{URL: srv.URL, Timeout: time.Second, UserAgent: "ovpnsync/test"})
	addr, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5.6.7.8", addr)
	assert.Equal(t, "ovpnsync/test", gotUA)
}

func TestWebResolveReturnsExactBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("5.6.7.8\n"))
	}))
	defer srv.Close()

	addr, err := NewWeb(Config{URL: srv.URL}).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5.6.7.8\n", addr)
}

func TestWebResolveDecodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=ISO-8859-1")
		_, _ = w.Write([]byte{'c', 'a', 'f', 0xe9})
	}))
	defer srv.Close()

	addr, err := NewWeb(Config{URL: srv.URL}).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "café", addr)
}

func TestWebResolveErrors(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := NewWeb(Config{URL: srv.URL}).Resolve(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrResolution)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("timeout", func(t *testing.T) {
		done := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-done:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(done)

		_, err := NewWeb(Config{URL: srv.URL, Timeout: 50 * time.Millisecond}).Resolve(context.Background())
		assert.Equal(t, types.KindResolution, types.KindOf(err))
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewWeb(Config{URL: url}).Resolve(context.Background())
		assert.ErrorIs(t, err, types.ErrResolution)
	})

	t.Run("oversized body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", maxBodySize+1)))
		}))
		defer srv.Close()

		_, err := NewWeb(Config{URL: srv.URL}).Resolve(context.Background())
		assert.ErrorIs(t, err, types.ErrResolution)
	})

	t.Run("unknown charset", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=klingon")
			_, _ = w.Write([]byte("5.6.7.8"))
		}))
		defer srv.Close()

		_, err := NewWeb(Config{URL: srv.URL}).Resolve(context.Background())
		assert.ErrorIs(t, err, types.ErrResolution)
	})
}

func TestFunc(t *testing.T) {
	var r Resolver = Func(func(ctx context.Context) (string, error) {
		return "10.0.0.1", nil
	})
	addr, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", addr)
}
