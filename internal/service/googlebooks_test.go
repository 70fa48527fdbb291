package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const volumeJSON = `{
	"id": "abc123",
	"volumeInfo": {
		"title": "The Go Programming Language",
		"authors": ["Alan Donovan", "Brian Kernighan"],
		"description": "A book about Go.",
		"categories": ["Computers"],
		"imageLinks": {"thumbnail": "http://img.example/abc123.jpg"}
	}
}`

func TestCatalogSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		assert.Equal(t, "20", r.URL.Query().Get("maxResults"))
		assert.Equal(t, "k-123", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [` + volumeJSON + `]}`))
	}))
	defer srv.Close()

	c := NewGoogleBooksClient(srv.URL, "k-123")
	items, err := c.Search(context.Background(), "golang")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "abc123", items[0].ID)
	assert.Equal(t, "The Go Programming Language", items[0].Title)
	assert.Equal(t, []string{"Alan Donovan", "Brian Kernighan"}, items[0].Authors)
	assert.Equal(t, "http://img.example/abc123.jpg", items[0].Thumbnail)
}

func TestCatalogSearchEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewGoogleBooksClient(srv.URL, "")
	items, err := c.Search(context.Background(), "no such book")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCatalogGetByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/abc123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(volumeJSON))
	}))
	defer srv.Close()

	c := NewGoogleBooksClient(srv.URL, "")
	item, err := c.GetByID(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", item.ID)
	assert.Equal(t, []string{"Computers"}, item.Categories)
}

// The upstream API answers id lookups fuzzily at times; an id mismatch in
// the body must be treated as not found, not returned as a different book.
func TestCatalogGetByIDMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(volumeJSON))
	}))
	defer srv.Close()

	c := NewGoogleBooksClient(srv.URL, "")
	_, err := c.GetByID(context.Background(), "other-id")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestCatalogGetByIDNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewGoogleBooksClient(srv.URL, "")
	_, err := c.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestCatalogGetByIDRejectsEmptyAndNull(t *testing.T) {
	c := NewGoogleBooksClient("http://unused.invalid", "")

	_, err := c.GetByID(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = c.GetByID(context.Background(), "null")
	assert.ErrorIs(t, err, ErrValidation)
}
