package service

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrAlreadyExists    = errors.New("already exists")
	ErrConflict         = errors.New("conflict")
	ErrPaymentProvider  = errors.New("payment provider error")
	ErrInvalidSignature = errors.New("invalid signature")
)

var (
	ErrUserAlreadyExists  = fmt.Errorf("user %w", ErrAlreadyExists)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)

	ErrProductNotFound   = fmt.Errorf("product %w", ErrNotFound)
	ErrAlreadyReviewed   = fmt.Errorf("product already reviewed: %w", ErrAlreadyExists)
	ErrReviewNotFound    = fmt.Errorf("review %w", ErrNotFound)
	ErrCartItemNotFound  = fmt.Errorf("product not in cart: %w", ErrNotFound)
	ErrWishlistDuplicate = fmt.Errorf("product already in wishlist: %w", ErrAlreadyExists)

	ErrOrderNotFound     = fmt.Errorf("order %w", ErrNotFound)
	ErrOrderAccessDenied = fmt.Errorf("order access denied: %w", ErrForbidden)
	ErrInvalidOrder      = fmt.Errorf("invalid order: %w", ErrInvalidInput)
	ErrPaymentConflict   = fmt.Errorf("order already paid with a different transaction: %w", ErrConflict)
	ErrConcurrentUpdate  = fmt.Errorf("concurrent update, retry: %w", ErrConflict)
	ErrPaymentDisabled   = fmt.Errorf("payments are not configured: %w", ErrPaymentProvider)
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}
