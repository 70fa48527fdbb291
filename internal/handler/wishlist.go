package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cristianml/tomevault/internal/middleware"
	"github.com/cristianml/tomevault/internal/model"
	"github.com/cristianml/tomevault/internal/repository"
	"github.com/cristianml/tomevault/internal/service"
)

// WishlistHandler exposes the want-to-read list. Like books, every route is
// scoped to the authenticated owner.
type WishlistHandler struct {
	Wishlist *repository.WishlistRepo
	Catalog  *service.GoogleBooksClient
}

func NewWishlistHandler(wishlist *repository.WishlistRepo, catalog *service.GoogleBooksClient) *WishlistHandler {
	return &WishlistHandler{Wishlist: wishlist, Catalog: catalog}
}

type wishlistRequest struct {
	GoogleBookID string   `json:"googleBookId"`
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	Description  string   `json:"description"`
	Thumbnail    string   `json:"thumbnail"`
	Tags         []string `json:"tags"`
}

type wishlistResponse struct {
	ID           uint64   `json:"id"`
	GoogleBookID string   `json:"googleBookId"`
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	Description  string   `json:"description"`
	Thumbnail    string   `json:"thumbnail"`
	Tags         []string `json:"tags"`
	AddedAt      string   `json:"addedAt"`
}

func toWishlistResponse(w *model.WishlistBook) wishlistResponse {
	resp := wishlistResponse{
		ID:           w.ID,
		GoogleBookID: w.GoogleBookID,
		Title:        w.Title,
		Author:       w.Author,
		Description:  w.Description,
		Thumbnail:    w.Thumbnail,
		Tags:         w.Tags,
		AddedAt:      w.AddedAt.Format(time.RFC3339),
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	return resp
}

// List handles GET /wishlist-books.
func (h *WishlistHandler) List(c echo.Context) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
	}
	page, size := parsePage(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, total, err := h.Wishlist.ListByUser(ctx, p.UserID, page*size, size)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]wishlistResponse, 0, len(items))
	for i := range items {
		out = append(out, toWishlistResponse(&items[i]))
	}
	return c.JSON(http.StatusOK, newPageResponse(out, page, size, total))
}

// Create handles POST /wishlist-books.
func (h *WishlistHandler) Create(c echo.Context) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
	}

	var req wishlistRequest
	if err := c.Bind(&req); err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid request body.", "validation_error")
	}
	if req.GoogleBookID == "" || req.Title == "" {
		return errBody(c, http.StatusBadRequest, "googleBookId and title are required.", "validation_error")
	}

	w := model.WishlistBook{
		GoogleBookID: req.GoogleBookID,
		Title:        req.Title,
		Author:       req.Author,
		Description:  req.Description,
		Thumbnail:    req.Thumbnail,
		Tags:         req.Tags,
		UserID:       p.UserID,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Wishlist.Create(ctx, &w); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toWishlistResponse(&w))
}

// CreateFromGoogle handles POST /wishlist-books/from-google/:googleBookId.
func (h *WishlistHandler) CreateFromGoogle(c echo.Context) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	item, err := h.Catalog.GetByID(ctx, c.Param("googleBookId"))
	if err != nil {
		return writeError(c, err)
	}

	w := model.WishlistBook{
		GoogleBookID: item.ID,
		Title:        item.Title,
		Author:       strings.Join(item.Authors, ", "),
		Description:  item.Description,
		Thumbnail:    item.Thumbnail,
		Tags:         item.Categories,
		UserID:       p.UserID,
	}
	if _, err := h.Wishlist.Create(ctx, &w); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toWishlistResponse(&w))
}

// Update handles PUT /wishlist-books/:id.
func (h *WishlistHandler) Update(c echo.Context) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid wishlist id.", "validation_error")
	}

	var req wishlistRequest
	if err := c.Bind(&req); err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid request body.", "validation_error")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	w, err := h.Wishlist.GetByID(ctx, p.UserID, id)
	if err != nil {
		return writeError(c, err)
	}
	if req.Title != "" {
		w.Title = req.Title
	}
	w.Author = req.Author
	w.Description = req.Description
	w.Thumbnail = req.Thumbnail
	if req.Tags != nil {
		w.Tags = req.Tags
	}

	if err := h.Wishlist.Update(ctx, &w); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toWishlistResponse(&w))
}

// Delete handles DELETE /wishlist-books/:id. Wishlist removal is a hard
// delete; there is no reading state worth keeping.
func (h *WishlistHandler) Delete(c echo.Context) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid wishlist id.", "validation_error")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Wishlist.Delete(ctx, p.UserID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Wishlist entry removed.", "status": true})
}

// MoveToBooks handles POST /wishlist-books/move-to-books/:wishlistId. The
// repository runs the insert and the delete in one transaction, so the
// entry never exists in both places or in neither.
func (h *WishlistHandler) MoveToBooks(c echo.Context) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
	}
	id, err := pathID(c, "wishlistId")
	if err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid wishlist id.", "validation_error")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Wishlist.MoveToBooks(ctx, p.UserID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookResponse(&b))
}
