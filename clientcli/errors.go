package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// Errors for configuration validation.
var (
	ErrConfigRequired    = errors.New("config is required")
	ErrUnknownAuth       = errors.New("unknown auth scheme")
	ErrUsernameRequired  = errors.New("username is required")
	ErrTokenRequired     = errors.New("token is required")
	ErrAccessKeyRequired = errors.New("access key is required")
	ErrSecretKeyRequired = errors.New("secret key is required")
)

// Errors for input validation.
var (
	ErrNoIDs     = errors.New("no fragment ids provided")
	ErrEmptyID   = errors.New("fragment id is required")
	ErrEmptyPath = errors.New("path is required")
)
