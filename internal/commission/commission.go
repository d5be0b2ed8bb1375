// Package commission implements the promoter-side earnings arithmetic: the
// earned balance across campaigns and the net amount payable on an early
// payout request. Pure functions over snapshots of promo stats.
package commission

import (
	"math"

	"github.com/evensta/evensta-go/internal/domain"
)

// InstantFeeRate is the fixed fee withheld from an early/instant payout.
const InstantFeeRate = 0.02

// Balance is the promoter's earnings summary.
type Balance struct {
	// Current is the payable balance: earnings of active campaigns, with
	// locally retracted ones excluded even when a stale server response
	// still lists them as active.
	Current float64
	// TotalEarned covers every campaign regardless of status; stopping a
	// promotion does not forfeit accrued earnings.
	TotalEarned float64
	// Active holds the campaigns contributing to Current, in input order.
	Active []domain.PromoStat
}

// Balances folds a snapshot of promo stats into a Balance. retracted is the
// local tombstone overlay: event IDs the promoter has stopped on this client,
// applied on top of whatever the server returned.
func Balances(stats []domain.PromoStat, retracted map[int64]bool) Balance {
	var b Balance
	for _, s := range stats {
		b.TotalEarned += s.EarnedAmount
		if s.Status != domain.PromoActive || retracted[s.EventID] {
			continue
		}
		b.Current += s.EarnedAmount
		b.Active = append(b.Active, s)
	}
	return b
}

// EarlyPayoutNet quotes the net amount of an instant payout of gross,
// after withholding InstantFeeRate. Non-positive balances quote as zero.
func EarlyPayoutNet(gross float64) float64 {
	if gross <= 0 || math.IsNaN(gross) {
		return 0
	}
	return gross * (1 - InstantFeeRate)
}

// CanRequestPayout is the advisory client-side guard for submitting a payout
// request: a positive balance and no request already pending. The server
// remains authoritative.
func CanRequestPayout(current float64, hasPending bool) bool {
	return current > 0 && !hasPending
}

// HasPending reports whether any request in the list is still pending.
func HasPending(requests []domain.PayoutRequest) bool {
	for _, r := range requests {
		if r.Status == domain.PayoutPending {
			return true
		}
	}
	return false
}
