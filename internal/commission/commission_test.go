package commission

import (
	"math"
	"testing"

	"github.com/evensta/evensta-go/internal/domain"
)

func stats() []domain.PromoStat {
	return []domain.PromoStat{
		{PromoterID: 7, EventID: 1, CommissionPercent: 10, EarnedAmount: 120, Status: domain.PromoActive},
		{PromoterID: 7, EventID: 2, CommissionPercent: 5, EarnedAmount: 80, Status: domain.PromoActive},
		{PromoterID: 7, EventID: 3, CommissionPercent: 15, EarnedAmount: 40, Status: domain.PromoStopped},
	}
}

func TestBalances(t *testing.T) {
	b := Balances(stats(), nil)

	if b.Current != 200 {
		t.Errorf("current = %v, want 200 (active only)", b.Current)
	}
	if b.TotalEarned != 240 {
		t.Errorf("total = %v, want 240 (stopped earnings retained)", b.TotalEarned)
	}
	if len(b.Active) != 2 {
		t.Errorf("active = %d campaigns, want 2", len(b.Active))
	}
}

func TestBalances_TombstoneOverlayWins(t *testing.T) {
	// Event 2 was stopped locally; a stale server snapshot still lists it
	// as active. The local overlay must win for display purposes.
	b := Balances(stats(), map[int64]bool{2: true})

	if b.Current != 120 {
		t.Errorf("current = %v, want 120 with event 2 retracted", b.Current)
	}
	if b.TotalEarned != 240 {
		t.Errorf("total = %v, want 240: retraction never forfeits history", b.TotalEarned)
	}
}

func TestEarlyPayoutNet(t *testing.T) {
	tests := []struct {
		gross, want float64
	}{
		{200, 196},
		{100, 98},
		{0, 0},
		{-50, 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		got := EarlyPayoutNet(tt.gross)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("EarlyPayoutNet(%v) = %v, want %v", tt.gross, got, tt.want)
		}
	}
}

func TestCanRequestPayout(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		pending bool
		want    bool
	}{
		{"positive balance, none pending", 50, false, true},
		{"pending blocks", 50, true, false},
		{"zero balance blocks", 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanRequestPayout(tt.current, tt.pending); got != tt.want {
				t.Errorf("CanRequestPayout(%v, %v) = %v, want %v", tt.current, tt.pending, got, tt.want)
			}
		})
	}
}

func TestHasPending(t *testing.T) {
	reqs := []domain.PayoutRequest{
		{Status: domain.PayoutApproved},
		{Status: domain.PayoutDenied},
	}
	if HasPending(reqs) {
		t.Error("no pending requests expected")
	}
	reqs = append(reqs, domain.PayoutRequest{Status: domain.PayoutPending})
	if !HasPending(reqs) {
		t.Error("pending request not detected")
	}
}
