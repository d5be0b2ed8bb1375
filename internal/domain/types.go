package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTicketed   EventType = "ticketed"
	EventFundraiser EventType = "fundraiser"
)

// CatalogItem is a purchasable entry of an event: a ticket type or an add-on.
// For fundraiser events MinimumDonation is a floor on the contribution,
// never a ceiling.
type CatalogItem struct {
	TypeKey         string
	UnitPrice       float64
	MinimumDonation float64
}

type Event struct {
	ID      int64
	HostID  int64
	Title   string
	Type    EventType
	Tickets []CatalogItem
	AddOns  []CatalogItem
	Starts  time.Time
	Ends    time.Time
}

// CartLine is one distinct item type in a checkout cart.
type CartLine struct {
	Quantity       int
	DonationAmount float64
}

// Cart maps an item type key to its line. One entry per distinct type.
type Cart map[string]CartLine

// FeeConfig is the platform-wide mandatory fee configuration,
// immutable for the duration of one checkout.
type FeeConfig struct {
	PercentFee float64
	FixedFee   float64
}

type LineItem struct {
	TypeKey      string
	Quantity     int
	UnitPrice    float64
	LineSubtotal float64
	IsTicket     bool
}

// PricingResult is the priced checkout summary. Derived, never persisted as-is.
type PricingResult struct {
	LineItems      []LineItem
	Subtotal       float64
	DiscountAmount float64
	MandatoryFees  float64
	Donation       float64
	GrandTotal     float64
	// UnknownKeys lists cart keys that matched no catalog entry and were
	// priced as zero.
	UnknownKeys []string
}

type PromoStatus string

const (
	PromoActive  PromoStatus = "active"
	PromoStopped PromoStatus = "stopped"
)

// PromoStat tracks one promoter's campaign for one event.
type PromoStat struct {
	PromoterID        int64
	EventID           int64
	CommissionPercent float64
	EarnedAmount      float64
	Status            PromoStatus
}

// PromoCode is an affiliate code attributing sales (and the buyer discount)
// to a promoter's campaign.
type PromoCode struct {
	Code            string
	EventID         int64
	PromoterID      int64
	DiscountPercent float64
}

type PayoutStatus string

const (
	PayoutPending  PayoutStatus = "pending"
	PayoutApproved PayoutStatus = "approved"
	PayoutDenied   PayoutStatus = "denied"
)

type PayoutRequest struct {
	ID          uuid.UUID
	PromoterID  int64
	GrossAmount float64
	NetAmount   float64
	Status      PayoutStatus
	CreatedAt   time.Time
}

type Order struct {
	ID             uuid.UUID
	EventID        int64
	BuyerID        int64
	RecipientID    *int64
	PromoCode      string
	Subtotal       float64
	DiscountAmount float64
	MandatoryFees  float64
	Donation       float64
	GrandTotal     float64
	CreatedAt      time.Time
}

type OrderLine struct {
	OrderID      uuid.UUID
	TypeKey      string
	Quantity     int
	UnitPrice    float64
	LineSubtotal float64
}

type OrderWithLines struct {
	Order Order
	Lines []OrderLine
}
