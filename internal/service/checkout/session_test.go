package checkout

import (
	"testing"

	"github.com/evensta/evensta-go/internal/domain"
	"github.com/evensta/evensta-go/internal/pricing"
)

func TestSessions_OpenStartsWithDefaults(t *testing.T) {
	reg := NewSessions()
	sess := reg.Open(1, 42)

	if sess.Fees != pricing.DefaultFeeConfig {
		t.Errorf("fees = %+v, want defaults %+v", sess.Fees, pricing.DefaultFeeConfig)
	}
	if sess.EventID != 42 {
		t.Errorf("event = %d, want 42", sess.EventID)
	}
}

func TestSessions_ResolveFeesAppliesToLiveSession(t *testing.T) {
	reg := NewSessions()
	sess := reg.Open(1, 42)

	fetched := domain.FeeConfig{PercentFee: 3.5, FixedFee: 0.5}
	if !reg.ResolveFees(sess.Token, fetched) {
		t.Fatal("resolution against a live session should apply")
	}

	got, ok := reg.Get(sess.Token)
	if !ok {
		t.Fatal("session disappeared")
	}
	if got.Fees != fetched {
		t.Errorf("fees = %+v, want %+v", got.Fees, fetched)
	}
}

func TestSessions_StaleResolutionIgnoredAfterClose(t *testing.T) {
	reg := NewSessions()
	sess := reg.Open(1, 42)
	reg.Close(sess.Token)

	if reg.ResolveFees(sess.Token, domain.FeeConfig{PercentFee: 9, FixedFee: 9}) {
		t.Error("resolution for a closed session must be dropped")
	}
}

func TestSessions_ReopenInvalidatesPreviousToken(t *testing.T) {
	// The fetch issued for the first open completes after the buyer has
	// reopened checkout: its result must not overwrite the fresher session.
	reg := NewSessions()
	first := reg.Open(1, 42)
	second := reg.Open(1, 42)

	if reg.ResolveFees(first.Token, domain.FeeConfig{PercentFee: 9, FixedFee: 9}) {
		t.Error("stale token resolution must be dropped after reopen")
	}

	got, ok := reg.Get(second.Token)
	if !ok {
		t.Fatal("fresh session missing")
	}
	if got.Fees != pricing.DefaultFeeConfig {
		t.Errorf("fresh session fees overwritten: %+v", got.Fees)
	}
}

func TestSessions_ResolveNormalizesBadPayload(t *testing.T) {
	reg := NewSessions()
	sess := reg.Open(1, 42)

	reg.ResolveFees(sess.Token, domain.FeeConfig{PercentFee: -2, FixedFee: 0.5})
	got, _ := reg.Get(sess.Token)
	if got.Fees.PercentFee != pricing.DefaultFeeConfig.PercentFee {
		t.Errorf("negative percent not normalized: %+v", got.Fees)
	}
	if got.Fees.FixedFee != 0.5 {
		t.Errorf("valid fixed fee lost: %+v", got.Fees)
	}
}
