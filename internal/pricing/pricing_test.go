package pricing

import (
	"math"
	"reflect"
	"testing"

	"github.com/evensta/evensta-go/internal/domain"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func ticketedEvent() *domain.Event {
	return &domain.Event{
		ID:   1,
		Type: domain.EventTicketed,
		Tickets: []domain.CatalogItem{
			{TypeKey: "GA", UnitPrice: 45},
			{TypeKey: "VIP", UnitPrice: 100},
		},
		AddOns: []domain.CatalogItem{
			{TypeKey: "Parking", UnitPrice: 25},
		},
	}
}

func TestQuote_TicketedEndToEnd(t *testing.T) {
	// GA x2 at $45, fees 5.9% + $0.35, no discount, no donation.
	cart := domain.Cart{"GA": {Quantity: 2}}
	res := Quote(cart, ticketedEvent(), domain.FeeConfig{PercentFee: 5.9, FixedFee: 0.35}, Params{})

	if !almostEqual(res.Subtotal, 90) {
		t.Errorf("subtotal = %v, want 90", res.Subtotal)
	}
	if !almostEqual(res.MandatoryFees, 90*0.059+0.35) {
		t.Errorf("fees = %v, want 5.66", res.MandatoryFees)
	}
	if !almostEqual(res.GrandTotal, 95.66) {
		t.Errorf("grand total = %v, want 95.66", res.GrandTotal)
	}
	if res.DiscountAmount != 0 || res.Donation != 0 {
		t.Errorf("unexpected discount %v or donation %v", res.DiscountAmount, res.Donation)
	}
}

func TestQuote_NoDiscountNoDonationInvariant(t *testing.T) {
	carts := []domain.Cart{
		{"GA": {Quantity: 1}},
		{"GA": {Quantity: 3}, "VIP": {Quantity: 1}},
		{"Parking": {Quantity: 2}},
	}
	fees := domain.FeeConfig{PercentFee: 7.5, FixedFee: 1.25}

	for _, cart := range carts {
		res := Quote(cart, ticketedEvent(), fees, Params{})
		if !almostEqual(res.GrandTotal, res.Subtotal+res.MandatoryFees) {
			t.Errorf("cart %v: grand total %v != subtotal %v + fees %v",
				cart, res.GrandTotal, res.Subtotal, res.MandatoryFees)
		}
		want := res.Subtotal*fees.PercentFee/100 + fees.FixedFee
		if res.Subtotal > 0 && !almostEqual(res.MandatoryFees, want) {
			t.Errorf("cart %v: fees = %v, want %v", cart, res.MandatoryFees, want)
		}
	}
}

func TestQuote_DiscountAppliesToTicketLinesOnly(t *testing.T) {
	// One ticket line at 100 and one add-on line at 50 with a 10% promo:
	// the discount base excludes the add-on.
	ev := &domain.Event{
		Type:    domain.EventTicketed,
		Tickets: []domain.CatalogItem{{TypeKey: "GA", UnitPrice: 100}},
		AddOns:  []domain.CatalogItem{{TypeKey: "Shirt", UnitPrice: 50}},
	}
	cart := domain.Cart{"GA": {Quantity: 1}, "Shirt": {Quantity: 1}}

	res := Quote(cart, ev, DefaultFeeConfig, Params{PromoDiscountPercent: 10})
	if !almostEqual(res.DiscountAmount, 10) {
		t.Errorf("discount = %v, want 10 (tickets only)", res.DiscountAmount)
	}
}

func TestQuote_DiscountIgnoredForFundraisers(t *testing.T) {
	ev := &domain.Event{
		Type:    domain.EventFundraiser,
		Tickets: []domain.CatalogItem{{TypeKey: "Supporter", MinimumDonation: 20}},
	}
	cart := domain.Cart{"Supporter": {Quantity: 1, DonationAmount: 50}}

	res := Quote(cart, ev, DefaultFeeConfig, Params{PromoDiscountPercent: 50})
	if res.DiscountAmount != 0 {
		t.Errorf("discount = %v, want 0 for fundraiser", res.DiscountAmount)
	}
}

func TestQuote_FundraiserMinimumIsFloorNotCeiling(t *testing.T) {
	ev := &domain.Event{
		Type: domain.EventFundraiser,
		Tickets: []domain.CatalogItem{
			{TypeKey: "Supporter", MinimumDonation: 25},
		},
		AddOns: []domain.CatalogItem{
			{TypeKey: "Tribute", MinimumDonation: 10},
		},
	}

	tests := []struct {
		name      string
		cart      domain.Cart
		wantPrice float64
	}{
		{"below minimum is raised", domain.Cart{"Supporter": {Quantity: 1, DonationAmount: 5}}, 25},
		{"above minimum is kept", domain.Cart{"Supporter": {Quantity: 1, DonationAmount: 40}}, 40},
		{"missing donation uses minimum", domain.Cart{"Supporter": {Quantity: 2}}, 25},
		{"add-on minimum applies", domain.Cart{"Tribute": {Quantity: 1, DonationAmount: 3}}, 10},
		{"negative donation floors at zero", domain.Cart{"Tribute": {Quantity: 1, DonationAmount: -7}}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Quote(tt.cart, ev, DefaultFeeConfig, Params{})
			if len(res.LineItems) != 1 {
				t.Fatalf("got %d lines, want 1", len(res.LineItems))
			}
			li := res.LineItems[0]
			if !almostEqual(li.UnitPrice, tt.wantPrice) {
				t.Errorf("unit price = %v, want %v", li.UnitPrice, tt.wantPrice)
			}
			if !almostEqual(li.LineSubtotal, tt.wantPrice*float64(li.Quantity)) {
				t.Errorf("line subtotal = %v, want %v", li.LineSubtotal, tt.wantPrice*float64(li.Quantity))
			}
		})
	}
}

func TestQuote_UnknownKeyPricedAsZero(t *testing.T) {
	cart := domain.Cart{"GA": {Quantity: 1}, "Mystery": {Quantity: 3}}
	res := Quote(cart, ticketedEvent(), DefaultFeeConfig, Params{})

	if !almostEqual(res.Subtotal, 45) {
		t.Errorf("subtotal = %v, want 45 (unknown line priced as zero)", res.Subtotal)
	}
	if !reflect.DeepEqual(res.UnknownKeys, []string{"Mystery"}) {
		t.Errorf("unknown keys = %v, want [Mystery]", res.UnknownKeys)
	}
}

func TestQuote_FullDiscountYieldsZeroFees(t *testing.T) {
	// 100% promo on an all-ticket cart drives the fee base to exactly zero:
	// no fixed fee may survive.
	cart := domain.Cart{"GA": {Quantity: 2}}
	res := Quote(cart, ticketedEvent(), DefaultFeeConfig, Params{PromoDiscountPercent: 100})

	if res.MandatoryFees != 0 {
		t.Errorf("fees = %v, want 0 on a fully discounted cart", res.MandatoryFees)
	}
	if math.IsNaN(res.GrandTotal) || res.GrandTotal < 0 {
		t.Errorf("grand total = %v, want finite non-negative", res.GrandTotal)
	}
}

func TestQuote_DonationIsAdditiveAndOutsideFeeBase(t *testing.T) {
	cart := domain.Cart{"GA": {Quantity: 1}}
	withOut := Quote(cart, ticketedEvent(), DefaultFeeConfig, Params{})
	with := Quote(cart, ticketedEvent(), DefaultFeeConfig, Params{PlatformDonation: 12})

	if !almostEqual(with.MandatoryFees, withOut.MandatoryFees) {
		t.Errorf("donation changed fees: %v vs %v", with.MandatoryFees, withOut.MandatoryFees)
	}
	if !almostEqual(with.GrandTotal, withOut.GrandTotal+12) {
		t.Errorf("grand total = %v, want %v", with.GrandTotal, withOut.GrandTotal+12)
	}
}

func TestQuote_InvariantHolds(t *testing.T) {
	cart := domain.Cart{"GA": {Quantity: 2}, "VIP": {Quantity: 1}, "Parking": {Quantity: 1}}
	res := Quote(cart, ticketedEvent(), domain.FeeConfig{PercentFee: 5.9, FixedFee: 0.35},
		Params{PromoDiscountPercent: 15, PlatformDonation: 7})

	want := res.Subtotal - res.DiscountAmount + res.MandatoryFees + res.Donation
	if !almostEqual(res.GrandTotal, want) {
		t.Errorf("grand total = %v, want %v", res.GrandTotal, want)
	}
	for _, v := range []float64{res.Subtotal, res.DiscountAmount, res.MandatoryFees, res.Donation, res.GrandTotal} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("non-finite or negative monetary field: %v", v)
		}
	}
}

func TestQuote_Idempotent(t *testing.T) {
	cart := domain.Cart{"GA": {Quantity: 2}, "Parking": {Quantity: 1}}
	p := Params{PromoDiscountPercent: 10, PlatformDonation: 3}

	first := Quote(cart, ticketedEvent(), DefaultFeeConfig, p)
	second := Quote(cart, ticketedEvent(), DefaultFeeConfig, p)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated quote differs:\n%+v\n%+v", first, second)
	}
}

func TestQuote_NegativeDonationClampedToZero(t *testing.T) {
	cart := domain.Cart{"GA": {Quantity: 1}}
	res := Quote(cart, ticketedEvent(), DefaultFeeConfig, Params{PlatformDonation: -5})
	if res.Donation != 0 {
		t.Errorf("donation = %v, want 0", res.Donation)
	}
}

func TestSuggestedDonation(t *testing.T) {
	tests := []struct {
		subtotal, discount, want float64
	}{
		{47, 0, 5},   // ceil(4.7)
		{90, 0, 9},   // exact tenth
		{100, 10, 9}, // ceil(9.0)
		{10, 10, 0},  // fully discounted
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := SuggestedDonation(tt.subtotal, tt.discount); !almostEqual(got, tt.want) {
			t.Errorf("SuggestedDonation(%v, %v) = %v, want %v", tt.subtotal, tt.discount, got, tt.want)
		}
	}
}

func TestNormalizeFees(t *testing.T) {
	tests := []struct {
		name string
		in   domain.FeeConfig
		want domain.FeeConfig
	}{
		{"valid passes through", domain.FeeConfig{PercentFee: 3, FixedFee: 0.5}, domain.FeeConfig{PercentFee: 3, FixedFee: 0.5}},
		{"zero is valid", domain.FeeConfig{}, domain.FeeConfig{}},
		{"negative percent falls back", domain.FeeConfig{PercentFee: -1, FixedFee: 0.5}, domain.FeeConfig{PercentFee: 5.9, FixedFee: 0.5}},
		{"NaN fixed falls back", domain.FeeConfig{PercentFee: 3, FixedFee: math.NaN()}, domain.FeeConfig{PercentFee: 3, FixedFee: 0.35}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeFees(tt.in); got != tt.want {
				t.Errorf("NormalizeFees(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
