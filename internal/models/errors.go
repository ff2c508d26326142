package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeConflict         = "CONFLICT"
	CodeSelfFollow       = "SELF_FOLLOW"
	CodeAlreadyFollowing = "ALREADY_FOLLOWING"
	CodeNotFollowing     = "NOT_FOLLOWING"
	CodeAlreadyFavorited = "ALREADY_FAVORITED"
	CodeNotFavorited     = "NOT_FAVORITED"
	CodeInternal         = "INTERNAL_ERROR"
)

// Domain-state contradictions. Compare with errors.Is.
var (
	ErrSelfFollow       = &AppError{Code: CodeSelfFollow, Message: "You cannot follow yourself"}
	ErrAlreadyFollowing = &AppError{Code: CodeAlreadyFollowing, Message: "You are already following this user"}
	ErrNotFollowing     = &AppError{Code: CodeNotFollowing, Message: "You are not following this user"}
	ErrAlreadyFavorited = &AppError{Code: CodeAlreadyFavorited, Message: "This article has been favorited"}
	ErrNotFavorited     = &AppError{Code: CodeNotFavorited, Message: "This article is not in your favorites"}
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string              `json:"error"`
	Code    string              `json:"code,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Details string              `json:"details,omitempty"`
}

// AppError represents a custom application error.
// Field names the offending attribute for validation and conflict errors.
type AppError struct {
	Code    string
	Message string
	Field   string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %v not found", resource, id),
	}
}

func NewValidationError(field, message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Field:   field,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

// NewConflictError reports a unique-constraint violation. field may be empty
// when the store did not say which constraint failed.
func NewConflictError(field string, err error) *AppError {
	msg := "Resource already exists"
	if field != "" {
		msg = field + " has already been taken"
	}
	return &AppError{
		Code:    CodeConflict,
		Message: msg,
		Field:   field,
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		switch {
		case appErr.Code == CodeConflict && appErr.Field != "":
			response.Errors = map[string][]string{appErr.Field: {"has already been taken"}}
		case appErr.Field != "":
			response.Errors = map[string][]string{appErr.Field: {appErr.Message}}
		}
		// Internal details stay in the logs.
		if appErr.Err != nil && appErr.Code != CodeInternal && appErr.Code != CodeConflict {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
