package apperror

import (
	"errors"
	"net/http"
)

// Error is the single application error type. Every orchestrator-level
// failure is raised as one of these and serialized exactly once at the
// HTTP boundary as {status, message}.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"-"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Error codes used across the auth subsystem.
const (
	CodeValidation              = "VALIDATION_ERROR"
	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeAccessTokenRequired     = "ACCESS_TOKEN_REQUIRED"
	CodeTokenInvalid            = "TOKEN_INVALID"
	CodeTokenExpired            = "TOKEN_EXPIRED"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeCrossTenantAccess       = "CROSS_TENANT_ACCESS"
	CodeNotFound                = "NOT_FOUND"
	CodeEmailTaken              = "EMAIL_TAKEN"
	CodeInvalidOTP              = "INVALID_OTP"
)

func Validation(message string) *Error {
	return New(http.StatusBadRequest, CodeValidation, message)
}

func InvalidCredentials() *Error {
	return New(http.StatusUnauthorized, CodeInvalidCredentials, "Invalid credentials")
}

func AccessTokenRequired() *Error {
	return New(http.StatusUnauthorized, CodeAccessTokenRequired, "Access token required")
}

func TokenInvalid() *Error {
	return New(http.StatusUnauthorized, CodeTokenInvalid, "Invalid token")
}

func TokenExpired() *Error {
	return New(http.StatusUnauthorized, CodeTokenExpired, "Token expired")
}

func InsufficientPermissions() *Error {
	return New(http.StatusForbidden, CodeInsufficientPermissions, "Insufficient permissions")
}

func CrossTenantAccess() *Error {
	return New(http.StatusForbidden, CodeCrossTenantAccess, "Access denied to this organization")
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, CodeNotFound, message)
}

func EmailTaken() *Error {
	return New(http.StatusConflict, CodeEmailTaken, "Email already registered")
}

func InvalidOTP() *Error {
	return New(http.StatusBadRequest, CodeInvalidOTP, "Invalid or expired OTP")
}

// RefreshTokenInvalid covers both bad and expired refresh tokens; the
// refresh flow rejects either with 403.
func RefreshTokenInvalid() *Error {
	return New(http.StatusForbidden, CodeTokenInvalid, "Invalid or expired refresh token")
}

// As unwraps err into an *Error if possible.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err is an *Error carrying the given code.
func Is(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
