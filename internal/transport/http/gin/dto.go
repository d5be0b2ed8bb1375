package httpgin

import (
	"time"

	"github.com/evensta/evensta-go/internal/domain"
)

type OpenSessionRequest struct {
	BuyerID int64 `json:"buyer_id" binding:"required"`
	EventID int64 `json:"event_id" binding:"required"`
}

type OpenSessionResponse struct {
	SessionToken string  `json:"session_token"`
	PercentFee   float64 `json:"percent_fee"`
	FixedFee     float64 `json:"fixed_fee"`
}

type CartLineInput struct {
	Quantity       int     `json:"quantity" binding:"required,gte=1"`
	DonationAmount float64 `json:"donation_amount" binding:"omitempty,gte=0"`
}

type QuoteRequest struct {
	SessionToken string                   `json:"session_token" binding:"omitempty,uuid"`
	EventID      int64                    `json:"event_id" binding:"required"`
	Cart         map[string]CartLineInput `json:"cart" binding:"required,min=1,dive"`
	PromoCode    string                   `json:"promo_code"`
	// Donation nil requests the suggested default; 0 is an explicit opt-out.
	Donation *float64 `json:"donation" binding:"omitempty,gte=0"`
}

type LineItemResponse struct {
	TypeKey      string  `json:"type_key"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	LineSubtotal float64 `json:"line_subtotal"`
	IsTicket     bool    `json:"is_ticket"`
}

type QuoteResponse struct {
	LineItems      []LineItemResponse `json:"line_items"`
	Subtotal       float64            `json:"subtotal"`
	DiscountAmount float64            `json:"discount_amount"`
	MandatoryFees  float64            `json:"mandatory_fees"`
	Donation       float64            `json:"donation"`
	GrandTotal     float64            `json:"grand_total"`
	UnknownKeys    []string           `json:"unknown_keys,omitempty"`
}

type PurchaseRequest struct {
	SessionToken string                   `json:"session_token" binding:"omitempty,uuid"`
	BuyerID      int64                    `json:"buyer_id" binding:"required"`
	EventID      int64                    `json:"event_id" binding:"required"`
	RecipientID  *int64                   `json:"recipient_id"`
	PromoCode    string                   `json:"promo_code"`
	Cart         map[string]CartLineInput `json:"cart" binding:"required,min=1,dive"`
	Donation     float64                  `json:"donation" binding:"omitempty,gte=0"`
}

type PurchaseResponse struct {
	OrderID string `json:"order_id"`
}

type OrderLineResponse struct {
	TypeKey      string  `json:"type_key"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	LineSubtotal float64 `json:"line_subtotal"`
}

type OrderResponse struct {
	ID             string              `json:"id"`
	EventID        int64               `json:"event_id"`
	BuyerID        int64               `json:"buyer_id"`
	RecipientID    *int64              `json:"recipient_id,omitempty"`
	PromoCode      string              `json:"promo_code,omitempty"`
	Subtotal       float64             `json:"subtotal"`
	DiscountAmount float64             `json:"discount_amount"`
	MandatoryFees  float64             `json:"mandatory_fees"`
	Donation       float64             `json:"donation"`
	GrandTotal     float64             `json:"grand_total"`
	Lines          []OrderLineResponse `json:"lines"`
	CreatedAt      time.Time           `json:"created_at"`
}

type PromoStatResponse struct {
	EventID           int64   `json:"event_id"`
	CommissionPercent float64 `json:"commission_percent"`
	EarnedAmount      float64 `json:"earned_amount"`
}

type PromoterStatsResponse struct {
	CurrentBalance float64             `json:"current_balance"`
	TotalEarned    float64             `json:"total_earned"`
	Active         []PromoStatResponse `json:"active"`
}

type PayoutQuoteResponse struct {
	GrossAmount float64 `json:"gross_amount"`
	FeeAmount   float64 `json:"fee_amount"`
	NetAmount   float64 `json:"net_amount"`
	HasPending  bool    `json:"has_pending"`
}

type PayoutRequestResponse struct {
	ID          string    `json:"id"`
	GrossAmount float64   `json:"gross_amount"`
	NetAmount   float64   `json:"net_amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type CatalogItemInput struct {
	TypeKey         string  `json:"type_key" binding:"required"`
	UnitPrice       float64 `json:"unit_price" binding:"omitempty,gte=0"`
	MinimumDonation float64 `json:"minimum_donation" binding:"omitempty,gte=0"`
}

type CreateEventRequest struct {
	HostID   int64              `json:"host_id" binding:"required"`
	Title    string             `json:"title" binding:"required"`
	Type     string             `json:"type" binding:"required,oneof=ticketed fundraiser"`
	StartsAt string             `json:"starts_at" binding:"required"`
	EndsAt   string             `json:"ends_at" binding:"required"`
	Tickets  []CatalogItemInput `json:"tickets" binding:"required,min=1,dive"`
	AddOns   []CatalogItemInput `json:"add_ons" binding:"omitempty,dive"`
}

type CreateEventResponse struct {
	EventID int64 `json:"event_id"`
}

type UpdateFeesRequest struct {
	PercentFee float64 `json:"percent_fee" binding:"gte=0"`
	FixedFee   float64 `json:"fixed_fee" binding:"gte=0"`
}

type FeeConfigResponse struct {
	PercentFee float64 `json:"percent_fee"`
	FixedFee   float64 `json:"fixed_fee"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toCart(in map[string]CartLineInput) domain.Cart {
	cart := make(domain.Cart, len(in))
	for key, line := range in {
		cart[key] = domain.CartLine{
			Quantity:       line.Quantity,
			DonationAmount: line.DonationAmount,
		}
	}
	return cart
}

func toQuoteResponse(r domain.PricingResult) QuoteResponse {
	resp := QuoteResponse{
		Subtotal:       r.Subtotal,
		DiscountAmount: r.DiscountAmount,
		MandatoryFees:  r.MandatoryFees,
		Donation:       r.Donation,
		GrandTotal:     r.GrandTotal,
		UnknownKeys:    r.UnknownKeys,
	}
	for _, li := range r.LineItems {
		resp.LineItems = append(resp.LineItems, LineItemResponse{
			TypeKey:      li.TypeKey,
			Quantity:     li.Quantity,
			UnitPrice:    li.UnitPrice,
			LineSubtotal: li.LineSubtotal,
			IsTicket:     li.IsTicket,
		})
	}
	return resp
}

func toOrderResponse(in *domain.OrderWithLines) OrderResponse {
	o := in.Order
	resp := OrderResponse{
		ID:             o.ID.String(),
		EventID:        o.EventID,
		BuyerID:        o.BuyerID,
		RecipientID:    o.RecipientID,
		PromoCode:      o.PromoCode,
		Subtotal:       o.Subtotal,
		DiscountAmount: o.DiscountAmount,
		MandatoryFees:  o.MandatoryFees,
		Donation:       o.Donation,
		GrandTotal:     o.GrandTotal,
		CreatedAt:      o.CreatedAt,
	}
	for _, l := range in.Lines {
		resp.Lines = append(resp.Lines, OrderLineResponse{
			TypeKey:      l.TypeKey,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			LineSubtotal: l.LineSubtotal,
		})
	}
	return resp
}

func toCatalogItems(in []CatalogItemInput) []domain.CatalogItem {
	var out []domain.CatalogItem
	for _, it := range in {
		out = append(out, domain.CatalogItem{
			TypeKey:         it.TypeKey,
			UnitPrice:       it.UnitPrice,
			MinimumDonation: it.MinimumDonation,
		})
	}
	return out
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
