package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnauthorized      = errors.New("caller identity missing or unverifiable")
	ErrPromptTooLong     = errors.New("prompt exceeds maximum length")
	ErrIllegalTransition = errors.New("illegal job status transition")
	ErrMissingCredential = errors.New("required provider credential is not configured")
	ErrStageFailed       = errors.New("pipeline stage failed")
	ErrImageUnsupported  = errors.New("provider does not support image generation")
	ErrAlphaDenied       = errors.New("wallet is not on the alpha whitelist")

	// Quota errors. ErrQuotaExceeded is a normal decision outcome surfaced as
	// 429; ErrQuotaUnavailable means the backend could not be reached and the
	// request must be denied (fail closed).
	ErrQuotaExceeded    = errors.New("quota exceeded for current window")
	ErrQuotaUnavailable = errors.New("quota service unavailable")

	// Database errors
	ErrInvalidExecContext = errors.New("invalid executor context passed to repository")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
