package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cristianml/tomevault/internal/auth"
	"github.com/cristianml/tomevault/internal/repository"
	"github.com/cristianml/tomevault/internal/service"
	"github.com/cristianml/tomevault/internal/utils"
)

// errBody is the uniform JSON error shape: a human message plus a stable
// errorCode for client-side branching. No internal detail ever goes here.
func errBody(c echo.Context, status int, message, code string) error {
	return c.JSON(status, echo.Map{"message": message, "errorCode": code})
}

// writeError maps a typed domain error onto the HTTP taxonomy. Anything
// unrecognized becomes an opaque 500.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrBookNotFound):
		return errBody(c, http.StatusNotFound, "Resource not found.", "resource_not_found")
	case errors.Is(err, repository.ErrUsernameExists):
		return errBody(c, http.StatusBadRequest, "Username is already in use.", "data_integrity_violation")
	case errors.Is(err, repository.ErrEmailExists):
		return errBody(c, http.StatusBadRequest, "Email is already registered.", "data_integrity_violation")
	case errors.Is(err, repository.ErrDuplicateBook):
		return errBody(c, http.StatusConflict, "This book is already in your library.", "data_integrity_violation")
	case errors.Is(err, repository.ErrConflict):
		return errBody(c, http.StatusBadRequest, "The operation conflicts with the current state.", "conflict")
	case errors.Is(err, service.ErrValidation), errors.Is(err, utils.ErrWeakPassword):
		return errBody(c, http.StatusBadRequest, err.Error(), "validation_error")
	case errors.Is(err, auth.ErrAccessDenied):
		return errBody(c, http.StatusForbidden, "You do not have permission to perform this action.", "access_denied")
	}
	c.Logger().Errorf("internal error: %v", err)
	return errBody(c, http.StatusInternalServerError, "Internal server error.", "internal_error")
}

// pageResponse wraps a paginated listing the way the API has always
// presented pages: content plus page metadata.
type pageResponse struct {
	Content       interface{} `json:"content"`
	Page          int         `json:"page"`
	Size          int         `json:"size"`
	TotalElements int         `json:"totalElements"`
	TotalPages    int         `json:"totalPages"`
}

func newPageResponse(content interface{}, page, size, total int) pageResponse {
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	return pageResponse{Content: content, Page: page, Size: size, TotalElements: total, TotalPages: pages}
}

// parsePage reads ?page= and ?size= query parameters with defaults and a
// hard cap on the page size.
func parsePage(c echo.Context) (page, size int) {
	page, size = 0, 10
	if v := c.QueryParam("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			page = n
		}
	}
	if v := c.QueryParam("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			size = n
		}
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
