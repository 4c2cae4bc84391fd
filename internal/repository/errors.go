// Package repository defines error types that are reused across
// multiple repositories. These sentinel values allow higher layers
// such as handlers to distinguish between different failure scenarios
// without inspecting driver error strings themselves.
package repository

import "errors"

// ErrUserExists is returned when a create collides with an existing
// user id. Duplicate registration is the Admin Directory's problem to
// reject; the store merely reports the collision.
var ErrUserExists = errors.New("user id already exists")

// ErrProtectedUser is returned when a disable or delete targets an
// admin account. Admin accounts are exempt from both operations.
var ErrProtectedUser = errors.New("admin accounts cannot be disabled or deleted")

// ErrNotFound is returned when an update or delete matches no row.
var ErrNotFound = errors.New("record not found")
