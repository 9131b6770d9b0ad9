package service

import "errors"

var (
	ErrUnsupportedProvider      = errors.New("unsupported provider")
	ErrProfileNotFound          = errors.New("creator profile not found")
	ErrAccountNotFound          = errors.New("social account not found or disconnected")
	ErrReauthenticationRequired = errors.New("stored credentials are no longer valid, reconnect required")
)
