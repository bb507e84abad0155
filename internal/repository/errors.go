// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver-specific errors.
package repository

import "errors"

// ErrUsernameTaken is returned when registration collides with an
// existing username. Handlers should translate this into an HTTP 400
// response with a field-level message.
var ErrUsernameTaken = errors.New("username already exists")

// ErrNotFound is returned when a requested row does not exist or does
// not belong to the caller. Handlers should translate this into an
// HTTP 404 response.
var ErrNotFound = errors.New("not found")
