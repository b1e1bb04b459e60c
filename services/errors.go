package services

import (
	"errors"
	"fmt"

	"linkrite/repositories"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("unavailable")
)

// Auth error codes shared with the web client.
const (
	CodeInvalidCredential   = "auth/invalid-credential"
	CodeEmailInUse          = "auth/email-already-in-use"
	CodeInvalidEmail        = "auth/invalid-email"
	CodeWeakPassword        = "auth/weak-password"
	CodePopupClosed         = "auth/popup-closed-by-user"
	CodePopupBlocked        = "auth/popup-blocked"
	CodeCancelledPopup      = "auth/cancelled-popup-request"
	CodeUnauthorizedDomain  = "auth/unauthorized-domain"
	CodeInvalidIDToken      = "auth/invalid-id-token"
	CodeOperationNotAllowed = "auth/operation-not-allowed"
	CodeAccountExists       = "auth/account-exists-with-different-credential"
)

type authCode struct {
	kind    error
	message string
}

var authCodes = map[string]authCode{
	CodeInvalidCredential:   {ErrUnauthorized, "Email or password is incorrect"},
	CodeEmailInUse:          {ErrConflict, "This email address is already registered"},
	CodeInvalidEmail:        {ErrInvalidInput, "Email address is not valid"},
	CodeWeakPassword:        {ErrInvalidInput, "Password must be at least 6 characters"},
	CodePopupClosed:         {ErrInvalidInput, "The sign-in window was closed before completing"},
	CodePopupBlocked:        {ErrInvalidInput, "The sign-in window was blocked by the browser"},
	CodeCancelledPopup:      {ErrInvalidInput, "Sign-in was cancelled"},
	CodeUnauthorizedDomain:  {ErrUnauthorized, "This domain is not authorized for sign-in"},
	CodeInvalidIDToken:      {ErrUnauthorized, "The sign-in token could not be verified"},
	CodeOperationNotAllowed: {ErrUnavailable, "This sign-in method is not enabled"},
	CodeAccountExists:       {ErrConflict, "An account already exists with this email; sign in with your original method"},
}

// AuthError is a sign-in failure with a client-facing code.
type AuthError struct {
	Code string
	Err  error
}

func NewAuthError(code string, cause error) *AuthError {
	return &AuthError{Code: code, Err: cause}
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

// Message is the display string for the code.
func (e *AuthError) Message() string {
	if c, ok := authCodes[e.Code]; ok {
		return c.message
	}
	return "Sign-in failed"
}

// Is lets errors.Is(err, ErrUnauthorized) and friends match by code kind.
func (e *AuthError) Is(target error) bool {
	if c, ok := authCodes[e.Code]; ok {
		return c.kind == target
	}
	return target == ErrUnauthorized
}

func (e *AuthError) Unwrap() error { return e.Err }

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidInput}, args...)...)
}

// fromStore maps repository errors onto service sentinels.
func fromStore(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%s %w", what, ErrNotFound)
	case errors.Is(err, repositories.ErrDuplicate):
		return fmt.Errorf("%s: %w", what, ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// validateStruct runs the struct's validate tags and reports the first
// failing field as ErrInvalidInput.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return invalid("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return invalid("%s failed %s", fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
