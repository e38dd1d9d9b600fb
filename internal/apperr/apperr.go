// Package apperr holds the sentinel errors shared by the service layer.
// Handlers map them to HTTP status codes with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("access denied")
	ErrExpired           = errors.New("share has expired")
	ErrDuplicateName     = errors.New("file with this name already exists")
	ErrInvalidRecipients = errors.New("some users not found")
	ErrViewOnly          = errors.New("viewers cannot download files")
	ErrNotAUserShare     = errors.New("this is not a user share")
	ErrUnauthenticated   = errors.New("unauthenticated")
)
