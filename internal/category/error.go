package category

import "shophub-be/internal/apperr"

var (
	ErrNameRequired   = apperr.Validation("category name is required")
	ErrCategoryExists = apperr.Conflict("category already exists")
)
