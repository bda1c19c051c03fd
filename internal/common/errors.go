package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Cipher errors. A corrupt record is missing part of its sealed triple;
	// an authentication failure means the tag did not verify.
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrCorruptRecord        = errors.New("corrupt record")

	// Breach lookup could not reach a conclusion.
	ErrOracleUnavailable = errors.New("breach oracle unavailable")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
