package ports

import "errors"

// GuardCode classifies guard layer outcomes surfaced to callers. Internal
// failures (storage I/O and the like) are never translated into one of the
// taxonomy values; they carry CodeInternal and no retry guidance.
type GuardCode int

const (
	CodeInternal GuardCode = iota
	CodeUnauthenticated
	CodeAccountInactive
	CodeRateLimited
	CodePermissionDenied
	CodeCrossTenantAccess
	CodeNotFound
)

func (c GuardCode) String() string {
	switch c {
	case CodeUnauthenticated:
		return "unauthenticated"
	case CodeAccountInactive:
		return "account_inactive"
	case CodeRateLimited:
		return "rate_limited"
	case CodePermissionDenied:
		return "permission_denied"
	case CodeCrossTenantAccess:
		return "cross_tenant_access"
	case CodeNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// GuardError is the typed error contract of the guard layer. It is defined
// here so infrastructure can depend on the error taxonomy without importing
// application-level implementations.
type GuardError interface {
	error
	Code() GuardCode
	Message() string
	// RetryAfter is the retry guidance in seconds; positive only for
	// CodeRateLimited.
	RetryAfter() int
}

type guardError struct {
	code       GuardCode
	message    string
	retryAfter int
}

func (e *guardError) Error() string   { return e.message }
func (e *guardError) Code() GuardCode { return e.code }
func (e *guardError) Message() string { return e.message }
func (e *guardError) RetryAfter() int { return e.retryAfter }

// NewGuardError constructs a typed guard error.
func NewGuardError(code GuardCode, message string) GuardError {
	return &guardError{code: code, message: message}
}

// NewRateLimitedError constructs a CodeRateLimited error carrying retry
// guidance in seconds.
func NewRateLimitedError(message string, retryAfter int) GuardError {
	return &guardError{code: CodeRateLimited, message: message, retryAfter: retryAfter}
}

// GuardCodeOf extracts the guard code from an error chain, mapping anything
// that is not a GuardError to CodeInternal.
func GuardCodeOf(err error) GuardCode {
	var ge GuardError
	if errors.As(err, &ge) {
		return ge.Code()
	}
	return CodeInternal
}

// IsGuardCode reports whether err carries the given guard code.
func IsGuardCode(err error, code GuardCode) bool {
	var ge GuardError
	if errors.As(err, &ge) {
		return ge.Code() == code
	}
	return false
}
