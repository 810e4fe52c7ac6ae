package service

import "errors"

const maxPasswordBytes = 72

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrNotProductOwner    = errors.New("you are not the seller of this product")
	ErrNotPurchased       = errors.New("product has not been purchased")
	ErrNoRelease          = errors.New("product has no release file")
	ErrInvalidPeer        = errors.New("invalid conversation peer")
	ErrPasswordTooLong    = errors.New("password longer than 72 bytes")
)

// Relay outcomes for frames that are dropped without a reply.
var (
	ErrMissingIdentity  = errors.New("auth frame without userId")
	ErrIdentityMismatch = errors.New("auth frame userId differs from token identity")
	ErrNotAuthenticated = errors.New("chat frame before auth")
	ErrMissingReceiver  = errors.New("chat frame without receiverId")
	ErrSessionClosed    = errors.New("frame on a closed connection")
)

// IsIgnoredFrame reports whether err marks a frame the relay drops silently.
func IsIgnoredFrame(err error) bool {
	return errors.Is(err, ErrMissingIdentity) ||
		errors.Is(err, ErrIdentityMismatch) ||
		errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrMissingReceiver) ||
		errors.Is(err, ErrSessionClosed)
}
