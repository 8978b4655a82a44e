package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	res, err := NewFetcher(DefaultConfig()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, srv.URL, res.URL)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "text/plain; charset=utf-8", res.ContentType)
	assert.Equal(t, "hello", res.Text)
}

func TestFetcher_FetchReportsErrorStatusAsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	res, err := NewFetcher(DefaultConfig()).Fetch(context.Background(), srv.URL+"/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Contains(t, res.Text, "404 page not found")
}

func TestFetcher_FetchLimitsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 10

	res, err := NewFetcher(cfg).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, res.Text, 10)
}

func TestFetcher_FetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewFetcher(DefaultConfig()).Fetch(context.Background(), url)
	assert.Error(t, err)
}

func TestHTTPPageLoader_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>new</p>"))
	}))
	defer srv.Close()

	loader := NewHTTPPageLoader(DefaultConfig())
	defer loader.Close()

	page, err := loader.Load(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/new", page.URL)
	assert.Equal(t, "<p>new</p>", page.HTML)
	assert.Equal(t, "text/html", page.ContentType)
}

func TestHTTPPageLoader_LoadFailsOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPPageLoader(DefaultConfig()).Load(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 500")
}
