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

// BookHandler exposes the personal collection plus the public catalog
// proxy. Collection routes are scoped to the authenticated owner; the
// catalog routes require no identity and sit behind the response cache.
type BookHandler struct {
	Books   *repository.BookRepo
	Catalog *service.GoogleBooksClient
}

func NewBookHandler(books *repository.BookRepo, catalog *service.GoogleBooksClient) *BookHandler {
	return &BookHandler{Books: books, Catalog: catalog}
}

type bookRequest struct {
	GoogleBookID string   `json:"googleBookId"`
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	Description  string   `json:"description"`
	Thumbnail    string   `json:"thumbnail"`
	Tags         []string `json:"tags"`
	FinishedAt   string   `json:"finishedAt"` // yyyy-mm-dd, optional
}

type bookResponse struct {
	ID           uint64   `json:"id"`
	GoogleBookID string   `json:"googleBookId"`
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	Description  string   `json:"description"`
	Thumbnail    string   `json:"thumbnail"`
	Tags         []string `json:"tags"`
	AddedAt      string   `json:"addedAt"`
	FinishedAt   string   `json:"finishedAt,omitempty"`
	ReadCount    int      `json:"readCount"`
	IsActive     bool     `json:"isActive"`
}

func toBookResponse(b *model.Book) bookResponse {
	resp := bookResponse{
		ID:           b.ID,
		GoogleBookID: b.GoogleBookID,
		Title:        b.Title,
		Author:       b.Author,
		Description:  b.Description,
		Thumbnail:    b.Thumbnail,
		Tags:         b.Tags,
		AddedAt:      b.AddedAt.Format(time.RFC3339),
		ReadCount:    b.ReadCount,
		IsActive:     b.IsActive,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if b.FinishedAt != nil {
		resp.FinishedAt = b.FinishedAt.Format("2006-01-02")
	}
	return resp
}

func toBookResponses(books []model.Book) []bookResponse {
	out := make([]bookResponse, 0, len(books))
	for i := range books {
		out = append(out, toBookResponse(&books[i]))
	}
	return out
}

// catalogItemToBook maps a flattened catalog volume onto a collection row
// owned by userID. Categories become tags.
func catalogItemToBook(item service.CatalogItem, userID uint64) model.Book {
	return model.Book{
		GoogleBookID: item.ID,
		Title:        item.Title,
		Author:       strings.Join(item.Authors, ", "),
		Description:  item.Description,
		Thumbnail:    item.Thumbnail,
		Tags:         item.Categories,
		UserID:       userID,
		IsActive:     true,
	}
}

// List handles GET /books: the caller's active books, paginated.
func (h *BookHandler) List(c echo.Context) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
	}
	page, size := parsePage(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	books, total, err := h.Books.ListByUser(ctx, p.UserID, page*size, size)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newPageResponse(toBookResponses(books), page, size, total))
}

// Get handles GET /books/:googleBookId.
func (h *BookHandler) Get(c echo.Context) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Books.GetByGoogleID(ctx, p.UserID, c.Param("googleBookId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toBookResponse(&b))
}

// Create handles POST /books with an explicit payload.
func (h *BookHandler) Create(c echo.Context) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
	}

	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid request body.", "validation_error")
	}
	if req.GoogleBookID == "" || req.Title == "" {
		return errBody(c, http.StatusBadRequest, "googleBookId and title are required.", "validation_error")
	}
	finished, err := parseDate(req.FinishedAt)
	if err != nil {
		return errBody(c, http.StatusBadRequest, "finishedAt must be in yyyy-mm-dd format.", "validation_error")
	}

	b := model.Book{
		GoogleBookID: req.GoogleBookID,
		Title:        req.Title,
		Author:       req.Author,
		Description:  req.Description,
		Thumbnail:    req.Thumbnail,
		Tags:         req.Tags,
		UserID:       p.UserID,
		FinishedAt:   finished,
		IsActive:     true,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Books.Create(ctx, &b); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookResponse(&b))
}

// CreateFromGoogle handles POST /books/from-google/:googleBookId: imports a
// catalog volume straight into the collection.
func (h *BookHandler) CreateFromGoogle(c echo.Context) error {
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

	b := catalogItemToBook(item, p.UserID)
	if _, err := h.Books.Create(ctx, &b); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookResponse(&b))
}

// Update handles PUT /books/:id.
func (h *BookHandler) Update(c echo.Context) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid book id.", "validation_error")
	}

	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid request body.", "validation_error")
	}
	finished, err := parseDate(req.FinishedAt)
	if err != nil {
		return errBody(c, http.StatusBadRequest, "finishedAt must be in yyyy-mm-dd format.", "validation_error")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Books.GetByID(ctx, p.UserID, id)
	if err != nil {
		return writeError(c, err)
	}
	if req.Title != "" {
		b.Title = req.Title
	}
	b.Author = req.Author
	b.Description = req.Description
	b.Thumbnail = req.Thumbnail
	if req.Tags != nil {
		b.Tags = req.Tags
	}
	if finished != nil {
		b.FinishedAt = finished
	}

	if err := h.Books.Update(ctx, &b); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toBookResponse(&b))
}

// Delete handles DELETE /books/:id. Removal is soft: the row survives with
// is_active cleared and can be reactivated later.
func (h *BookHandler) Delete(c echo.Context) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid book id.", "validation_error")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Books.SetActive(ctx, p.UserID, id, false); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Book removed from collection.", "status": true})
}

// Activate handles POST /books/activate/:googleBookId: restores a soft
// deleted book.
func (h *BookHandler) Activate(c echo.Context) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Books.GetByGoogleID(ctx, p.UserID, c.Param("googleBookId"))
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Books.SetActive(ctx, p.UserID, b.ID, true); err != nil {
		return writeError(c, err)
	}
	b.IsActive = true
	return c.JSON(http.StatusOK, toBookResponse(&b))
}

// Status handles GET /books/status/:googleBookId: tells the client whether
// the volume is already in the collection and whether it is active.
func (h *BookHandler) Status(c echo.Context) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Books.GetByGoogleID(ctx, p.UserID, c.Param("googleBookId"))
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusOK, echo.Map{"exists": false, "active": false})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"exists": true, "active": b.IsActive})
}

// AdjustReadCount handles POST /books/increment-read/:id and
// /books/decrement-read/:id. The count never drops below zero.
func (h *BookHandler) AdjustReadCount(delta int) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := middleware.CurrentPrincipal(c)
		if p == nil {
			return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
		}
		id, err := pathID(c, "id")
		if err != nil {
			return errBody(c, http.StatusBadRequest, "Invalid book id.", "validation_error")
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		count, err := h.Books.AdjustReadCount(ctx, p.UserID, id, delta)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"id": id, "readCount": count})
	}
}

// SearchGoogle handles GET /books/search-google?q=. Public: no identity is
// required and the Redis response cache fronts it.
func (h *BookHandler) SearchGoogle(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return errBody(c, http.StatusBadRequest, "Query parameter q is required.", "validation_error")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	items, err := h.Catalog.Search(ctx, query)
	if err != nil {
		return writeError(c, err)
	}
	if items == nil {
		items = []service.CatalogItem{}
	}
	return c.JSON(http.StatusOK, items)
}

// GetFromGoogle handles GET /books/google-api/:googleBookId. Public catalog
// lookup without touching the collection.
func (h *BookHandler) GetFromGoogle(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	item, err := h.Catalog.GetByID(ctx, c.Param("googleBookId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}
