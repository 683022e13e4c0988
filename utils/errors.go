package utils

import "errors"

var (
	// validation errors
	ErrInvalidInput = errors.New("invalid input")
	ErrWeakPassword = errors.New("weak password")

	// store errors
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// auth errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("rate limited")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
)
