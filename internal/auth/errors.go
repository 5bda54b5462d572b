package auth

import "errors"

// ErrInvalidToken indicates the token failed validation.
var ErrInvalidToken = errors.New("invalid token")

// ErrUnauthorized is returned for bad credentials and unknown users.
var ErrUnauthorized = errors.New("Incorrect username or password")

// ErrLocked is returned when the account is deactivated or the session
// has been revoked.
var ErrLocked = errors.New("Inactive user")

// Registration errors carry the messages shown to the mobile client,
// which is Spanish-only.
var (
	ErrUnknownIdentity   = errors.New("Este carnet de identidad no existe")
	ErrAlreadyRegistered = errors.New("Este usuario ya existe")
	ErrPhoneMismatch     = errors.New("No coincide móvil con carnet")
	ErrUnknownHousehold  = errors.New("Núcleo no existe")
	ErrNotInHousehold    = errors.New("No existes en ese núcleo")
)

// IsRegistrationError reports whether err is a client-facing registration
// failure rather than an internal one.
func IsRegistrationError(err error) bool {
	switch {
	case errors.Is(err, ErrUnknownIdentity),
		errors.Is(err, ErrAlreadyRegistered),
		errors.Is(err, ErrPhoneMismatch),
		errors.Is(err, ErrUnknownHousehold),
		errors.Is(err, ErrNotInHousehold):
		return true
	}
	return false
}
