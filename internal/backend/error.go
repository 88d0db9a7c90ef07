package backend

import "errors"

// Error definitions for the backend package.
var (
	ErrNotFound                   = errors.New("backend not found in registry")
	ErrAlreadyRegistered          = errors.New("backend is already registered in the registry")
	ErrVoiceReferenceNotSupported = errors.New("backend does not support voice references")
	ErrEmptyText                  = errors.New("text is empty")
)
