package auth

import "errors"

var (
	// ErrMissingField is returned when a required request field is empty.
	ErrMissingField = errors.New("required field is missing")

	// ErrInvalidIdentifier is returned on signup when the ID is neither a
	// valid email address nor a phone number.
	ErrInvalidIdentifier = errors.New("ID must be a valid email or phone number")

	// ErrUserExists is returned on signup when the ID is already taken.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials covers both unknown user and wrong password so
	// callers cannot probe which IDs exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRefreshToken is returned when a refresh token is unknown
	// or its stored expiry has passed.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")

	// ErrTokenExpired is returned by the codec when the access token's exp
	// claim is in the past.
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidToken is returned by the codec for malformed or tampered
	// access tokens.
	ErrInvalidToken = errors.New("invalid token")
)
