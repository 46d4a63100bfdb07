// Package apperrors holds the sentinel errors every layer of the backend
// agrees on. Handlers map them to HTTP statuses; services wrap them with
// context via fmt.Errorf("...: %w", ...).
package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidInput       = errors.New("invalid input")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrConflict           = errors.New("conflict")
	ErrExpired            = errors.New("link expired")
	ErrWrongPassword      = errors.New("wrong password")
)
