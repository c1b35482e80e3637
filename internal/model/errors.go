package model

import "errors"

var (
	// Lookup errors
	ErrGroupNotFound     = errors.New("group not found")
	ErrVariableNotFound  = errors.New("variable not found")
	ErrTrashItemNotFound = errors.New("trash item not found")
	ErrDocumentNotFound  = errors.New("document not found")

	// Write errors
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("revision conflict")
	ErrReadOnly   = errors.New("read-only item")

	// Environment backend errors
	ErrPermissionDenied   = errors.New("permission denied")
	ErrBackendUnavailable = errors.New("environment backend unavailable")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
