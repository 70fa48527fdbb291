package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrBookNotFound is returned when the external catalog has no entry for
// the requested volume id.
var ErrBookNotFound = errors.New("book not found in catalog")

// CatalogItem is the flattened view of a Google Books volume the rest of
// the application works with.
type CatalogItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Description string   `json:"description"`
	Thumbnail   string   `json:"thumbnail"`
	Categories  []string `json:"categories"`
}

// googleVolume mirrors the wire shape of a Google Books volume; only the
// fields we map are declared.
type googleVolume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title       string   `json:"title"`
		Authors     []string `json:"authors"`
		Description string   `json:"description"`
		Categories  []string `json:"categories"`
		ImageLinks  struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

type googleVolumeList struct {
	Items []googleVolume `json:"items"`
}

// GoogleBooksClient is a thin HTTP client for the Google Books volumes API.
// It has no retry or caching logic of its own; the catalog routes sit
// behind the Redis response cache middleware instead.
type GoogleBooksClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewGoogleBooksClient(baseURL, apiKey string) *GoogleBooksClient {
	return &GoogleBooksClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Search queries the catalog and returns up to 20 flattened items. An
// empty result list is not an error.
func (c *GoogleBooksClient) Search(ctx context.Context, query string) ([]CatalogItem, error) {
	v := url.Values{}
	v.Set("q", query)
	v.Set("maxResults", "20")
	if c.APIKey != "" {
		v.Set("key", c.APIKey)
	}

	var list googleVolumeList
	if err := c.getJSON(ctx, c.BaseURL+"?"+v.Encode(), &list); err != nil {
		return nil, err
	}
	items := make([]CatalogItem, 0, len(list.Items))
	for _, vol := range list.Items {
		items = append(items, flattenVolume(vol))
	}
	return items, nil
}

// GetByID fetches a single volume. A missing volume or an id mismatch in
// the response both yield ErrBookNotFound.
func (c *GoogleBooksClient) GetByID(ctx context.Context, googleBookID string) (CatalogItem, error) {
	googleBookID = strings.TrimSpace(googleBookID)
	if googleBookID == "" || strings.EqualFold(googleBookID, "null") {
		return CatalogItem{}, fmt.Errorf("%w: empty volume id", ErrValidation)
	}

	u := c.BaseURL + "/" + url.PathEscape(googleBookID)
	if c.APIKey != "" {
		u += "?key=" + url.QueryEscape(c.APIKey)
	}
	var vol googleVolume
	if err := c.getJSON(ctx, u, &vol); err != nil {
		return CatalogItem{}, err
	}
	if vol.ID == "" || vol.ID != googleBookID {
		return CatalogItem{}, ErrBookNotFound
	}
	return flattenVolume(vol), nil
}

func (c *GoogleBooksClient) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrBookNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("catalog request: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func flattenVolume(v googleVolume) CatalogItem {
	return CatalogItem{
		ID:          v.ID,
		Title:       v.VolumeInfo.Title,
		Authors:     v.VolumeInfo.Authors,
		Description: v.VolumeInfo.Description,
		Thumbnail:   v.VolumeInfo.ImageLinks.Thumbnail,
		Categories:  v.VolumeInfo.Categories,
	}
}
