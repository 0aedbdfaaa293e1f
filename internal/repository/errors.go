// Package repository defines error types that are reused across the
// repository layer.  These sentinel values allow the handler layer to
// distinguish between failure scenarios without inspecting driver error
// strings itself.  For example, ErrEmailExists signals that an insert or
// update collided with the unique email index, while ErrUserNotFound
// signals that no row matched the requested identifier.
package repository

import "errors"

// ErrEmailExists is returned when an insert or update would violate the
// unique constraint on users.email.  Handlers translate this into an
// HTTP 400 response.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when no user row matches the requested id
// or email.  Handlers translate this into an HTTP 404 response (or a 401
// during login, where existence must not be revealed).
var ErrUserNotFound = errors.New("user not found")
