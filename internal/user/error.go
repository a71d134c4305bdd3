package user

import "shophub-be/internal/apperr"

var (
	ErrEmailExists         = apperr.Conflict("email already registered")
	ErrInvalidCredentials  = apperr.Unauthenticated("invalid email or password")
	ErrUserNotFound        = apperr.NotFound("user not found")
	ErrMissingFields       = apperr.Validation("name, email and password are required")
	ErrPasswordTooShort    = apperr.Validation("password must be at least 6 characters")
	ErrRoleNotAllowed      = apperr.Validation("role must be user or seller")
	ErrInvalidEmailAddress = apperr.Validation("invalid email address")
)
