package promoter

import "errors"

var (
	ErrPromotionNotFound = errors.New("promotion not found")
	ErrNothingToPayOut   = errors.New("no payable balance")
	ErrPayoutPending     = errors.New("a payout request is already pending")
)
