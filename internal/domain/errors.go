package domain

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrAlreadyExists     = errors.New("record already exists")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("resource bound to another user")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrNoActiveTokens    = errors.New("device has no active push tokens")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("invalid request")
	ErrReceiptInvalid    = errors.New("receipt verification failed")
)
