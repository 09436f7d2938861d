package apperr

import "errors"

// Sentinel errors shared across services. Handlers map these to HTTP
// statuses; everything else is a 500.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrInvalidMessage = errors.New("message must have content or media")
	ErrUploadFailure  = errors.New("media upload failed")
)
