package errors

import (
	"errors"
	"fmt"
)

// Common error types shared across viserion components
var (
	// Provider errors
	ErrUnknownProvider = errors.New("unknown provider")
	ErrUnknownEntity   = errors.New("unknown entity kind for provider")
	ErrMissingClientID = errors.New("missing oauth client id")

	// Redirect errors
	ErrNotRedirect      = errors.New("not an oauth redirect")
	ErrExchangeInFlight = errors.New("token exchange already in flight for provider")
	ErrExchangeFailed   = errors.New("token exchange failed")

	// Token errors
	ErrNoAccessToken = errors.New("no access token in response")
	ErrNotLoggedIn   = errors.New("no stored access token")

	// Transport errors
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrMissingEnvelope  = errors.New("response envelope field missing")
	ErrFetchFailed      = errors.New("resource fetch failed")
	ErrPersistFailed    = errors.New("resource persist failed")

	// Storage errors
	ErrNotFound        = errors.New("not found")
	ErrInvalidKey      = errors.New("invalid key")
	ErrInvalidRecord   = errors.New("record has no id")
	ErrStoreClosed     = errors.New("store closed")
	ErrUnknownBackend  = errors.New("unknown store backend")
	ErrInvalidSchedule = errors.New("invalid sync schedule")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
