// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and services to distinguish between different failure
// scenarios: a missing row, a unique-key collision on registration, or a
// conflicting state change.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist. Handlers
// should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("resource not found")

// ErrUsernameExists is returned when an insert or update would violate the
// unique username constraint.
var ErrUsernameExists = errors.New("username already in use")

// ErrEmailExists is returned when an insert or update would violate the
// unique email constraint.
var ErrEmailExists = errors.New("email already in use")

// ErrDuplicateBook is returned when the user already has the same catalog
// entry in the target table (collection or wishlist).
var ErrDuplicateBook = errors.New("book already exists for this user")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as toggling the status of a soft-deleted user.
// Handlers should translate this into an HTTP 400/409 response.
var ErrConflict = errors.New("conflict")
