// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// service and handlers to distinguish between failure scenarios without
// inspecting driver errors.
package repository

import "errors"

// ErrReservaNotFound is returned when the target row or group does not
// exist.  Handlers should translate this into an HTTP 404 response.
var ErrReservaNotFound = errors.New("reserva not found")

// ErrConfigNotFound is returned when no enabled webhook configuration row
// exists.  The dispatcher treats this as a no-op, not a failure.
var ErrConfigNotFound = errors.New("webhook config not found")
