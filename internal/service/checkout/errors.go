package checkout

import "errors"

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrSessionNotFound = errors.New("checkout session not found")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrUnknownItems    = errors.New("cart references no known catalog items")
	ErrRateLimited     = errors.New("rate limited")
)
