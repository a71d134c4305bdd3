package order

import "shophub-be/internal/apperr"

var (
	ErrOrderNotFound           = apperr.NotFound("order not found")
	ErrForbidden               = apperr.Forbidden("not authorized to access this order")
	ErrNoItems                 = apperr.Validation("no order items")
	ErrInvalidQuantity         = apperr.Validation("quantity must be between 1 and 10000")
	ErrIncompleteAddress       = apperr.Validation("shipping address is incomplete")
	ErrInvalidPaymentMethod    = apperr.Validation("payment method must be online or cod")
	ErrPaymentProofRequired    = apperr.Validation("payment details are required for online payment")
	ErrInvalidPaymentSignature = apperr.Validation("payment verification failed")
	ErrPaymentAlreadyUsed      = apperr.Conflict("payment already used for another order")
	ErrProductUnavailable      = apperr.Validation("product is not available")
	ErrInsufficientStock       = apperr.Validation("insufficient stock")
	ErrInvalidStatusTransition = apperr.Validation("illegal order status transition")
	ErrStatusChanged           = apperr.Conflict("order status changed concurrently")
)
