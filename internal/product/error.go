package product

import "shophub-be/internal/apperr"

var (
	ErrProductNotFound     = apperr.NotFound("product not found")
	ErrCategoryNotFound    = apperr.Validation("category does not exist")
	ErrNotOwner            = apperr.Forbidden("not authorized to modify this product")
	ErrNameRequired        = apperr.Validation("product name is required")
	ErrDescriptionRequired = apperr.Validation("product description is required")
	ErrCategoryRequired    = apperr.Validation("product category is required")
	ErrNegativePrice       = apperr.Validation("price must not be negative")
	ErrDiscountAbovePrice  = apperr.Validation("discount price must be between 0 and price")
	ErrNegativeStock       = apperr.Validation("stock must not be negative")
	ErrNoFieldsToUpdate    = apperr.Validation("no fields to update")
	ErrInvalidRating       = apperr.Validation("rating must be an integer between 1 and 5")
	ErrAlreadyReviewed     = apperr.Conflict("product already reviewed")
)
