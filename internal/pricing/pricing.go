// Package pricing implements the checkout pricing calculator. It converts a
// cart, an event catalog, a fee configuration and the buyer's discount/donation
// parameters into a priced checkout summary. Every function here is pure:
// no I/O, no shared state, identical inputs yield identical output.
package pricing

import (
	"math"
	"sort"

	"github.com/evensta/evensta-go/internal/domain"
)

// DefaultFeeConfig is applied when the platform fee settings are unavailable
// (fetch failure or not yet loaded).
var DefaultFeeConfig = domain.FeeConfig{PercentFee: 5.9, FixedFee: 0.35}

// Params carries the per-checkout knobs outside the cart and catalog.
type Params struct {
	// PromoDiscountPercent is applied only to ticket lines of ticketed
	// events. Values outside [0, 100] are clamped.
	PromoDiscountPercent float64
	// PlatformDonation is the voluntary contribution, additive to the total
	// and never fee-bearing. Negative values are treated as zero.
	PlatformDonation float64
}

// Quote prices a cart against an event's catalog.
//
// Per-line policy:
//   - fundraiser events: unit price = max(line donation, catalog minimum
//     donation, 0); the minimum is a floor, donors may always give more.
//   - ticketed events: unit price = the catalog fixed price; line donation
//     amounts are ignored.
//   - a key matching no catalog entry is priced as zero and reported in
//     PricingResult.UnknownKeys rather than failing the checkout.
//
// The promo discount base is the subtotal of ticket lines only; add-ons are
// never discounted. Mandatory fees apply to the post-discount subtotal and are
// zero when that base is not positive.
func Quote(cart domain.Cart, event *domain.Event, fees domain.FeeConfig, p Params) domain.PricingResult {
	fees = NormalizeFees(fees)

	keys := make([]string, 0, len(cart))
	for k := range cart {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fundraiser := event.Type == domain.EventFundraiser

	var res domain.PricingResult
	var ticketSubtotal float64

	for _, key := range keys {
		line := cart[key]
		ticket, isTicket := findItem(event.Tickets, key)
		addOn, isAddOn := findItem(event.AddOns, key)

		var unitPrice float64
		switch {
		case fundraiser:
			var minDonation float64
			if isTicket {
				minDonation = ticket.MinimumDonation
			} else if isAddOn {
				minDonation = addOn.MinimumDonation
			}
			unitPrice = math.Max(math.Max(line.DonationAmount, minDonation), 0)
		case isTicket:
			unitPrice = ticket.UnitPrice
		case isAddOn:
			unitPrice = addOn.UnitPrice
		}

		if !isTicket && !isAddOn {
			res.UnknownKeys = append(res.UnknownKeys, key)
		}

		lineSubtotal := unitPrice * float64(line.Quantity)
		res.LineItems = append(res.LineItems, domain.LineItem{
			TypeKey:      key,
			Quantity:     line.Quantity,
			UnitPrice:    unitPrice,
			LineSubtotal: lineSubtotal,
			IsTicket:     isTicket,
		})

		res.Subtotal += lineSubtotal
		if isTicket {
			ticketSubtotal += lineSubtotal
		}
	}

	if event.Type == domain.EventTicketed {
		pct := clamp(p.PromoDiscountPercent, 0, 100)
		if pct > 0 {
			res.DiscountAmount = ticketSubtotal * (pct / 100)
			// The discount never exceeds the discountable base.
			if res.DiscountAmount > ticketSubtotal {
				res.DiscountAmount = ticketSubtotal
			}
		}
	}

	base := res.Subtotal - res.DiscountAmount
	if base > 0 {
		res.MandatoryFees = base*(fees.PercentFee/100) + fees.FixedFee
	}

	res.Donation = math.Max(p.PlatformDonation, 0)
	res.GrandTotal = base + res.MandatoryFees + res.Donation

	return res
}

// SuggestedDonation is the default platform donation offered when a checkout
// opens: 10% of the post-discount subtotal, rounded up to the next whole
// currency unit. A suggestion only; the buyer may override it with any
// non-negative amount.
func SuggestedDonation(subtotal, discount float64) float64 {
	base := subtotal - discount
	if base <= 0 {
		return 0
	}
	return math.Ceil(base * 0.10)
}

// NormalizeFees replaces non-finite or negative fee components with the
// platform defaults so a bad settings payload can never produce a negative
// or NaN fee.
func NormalizeFees(f domain.FeeConfig) domain.FeeConfig {
	if math.IsNaN(f.PercentFee) || math.IsInf(f.PercentFee, 0) || f.PercentFee < 0 {
		f.PercentFee = DefaultFeeConfig.PercentFee
	}
	if math.IsNaN(f.FixedFee) || math.IsInf(f.FixedFee, 0) || f.FixedFee < 0 {
		f.FixedFee = DefaultFeeConfig.FixedFee
	}
	return f
}

func findItem(items []domain.CatalogItem, key string) (domain.CatalogItem, bool) {
	for _, it := range items {
		if it.TypeKey == key {
			return it, true
		}
	}
	return domain.CatalogItem{}, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
