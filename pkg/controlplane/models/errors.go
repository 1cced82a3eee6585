package models

import "errors"

// Common errors for settings and module operations.
var (
	// Module errors
	ErrUnknownModule = errors.New("unknown module")

	// Setting errors
	ErrSettingNotFound = errors.New("setting not found")
	ErrInvalidKey      = errors.New("invalid setting key")
)
