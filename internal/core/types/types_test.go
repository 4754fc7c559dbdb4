package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOfferStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OfferStatus
		want     bool
	}{
		{OfferCreated, OfferPartiallyFilled, true},
		{OfferCreated, OfferFilled, true},
		{OfferCreated, OfferWithdrawn, true},
		{OfferCreated, OfferExpired, true},
		{OfferPartiallyFilled, OfferPartiallyFilled, true},
		{OfferPartiallyFilled, OfferFilled, true},
		{OfferPartiallyFilled, OfferWithdrawn, true},
		{OfferFilled, OfferPartiallyFilled, false},
		{OfferFilled, OfferWithdrawn, false},
		{OfferWithdrawn, OfferFilled, false},
		{OfferExpired, OfferPartiallyFilled, false},
		{OfferPartiallyFilled, OfferCreated, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestOfferActive(t *testing.T) {
	o := Offer{RemainingAmount: 10, ExpiryMs: 100, Status: OfferCreated}
	assert.True(t, o.Active(99))
	assert.False(t, o.Active(100), "expiry is exclusive")

	o.RemainingAmount = 0
	assert.False(t, o.Active(99))

	o = Offer{RemainingAmount: 10, ExpiryMs: 100, Status: OfferWithdrawn}
	assert.False(t, o.Active(99))

	o.Status = OfferPartiallyFilled
	assert.True(t, o.Active(99))
}

func TestIntentOpaqueAndPending(t *testing.T) {
	in := Intent{ExpiryMs: 100, Status: IntentPending}
	assert.True(t, in.Opaque())
	assert.True(t, in.Pending(99))
	assert.False(t, in.Pending(100))

	in.MinPrice = 1
	assert.False(t, in.Opaque())

	in.Status = IntentExecuted
	assert.False(t, in.Pending(99))
}

func TestPairInverse(t *testing.T) {
	p := Pair{Receive: "BASE", Pay: "QUOTE"}
	assert.Equal(t, Pair{Receive: "QUOTE", Pay: "BASE"}, p.Inverse())
	assert.Equal(t, p, p.Inverse().Inverse())
}

func TestRoutingDecisionValidate(t *testing.T) {
	good := RoutingDecision{
		TotalReceiveAmount: 300,
		TotalPayAmount:     700,
		IsSplit:            true,
		Legs: []RoutingLeg{
			{Venue: VenueNative, FillAmount: 200, PayAmount: 400},
			{Venue: "amm", FillAmount: 100, PayAmount: 300},
		},
	}
	assert.NoError(t, good.Validate())
	assert.False(t, good.NativeOnly())

	bad := good
	bad.TotalPayAmount = 800
	assert.Error(t, bad.Validate())

	bad = good
	bad.IsSplit = false
	assert.Error(t, bad.Validate())

	empty := RoutingDecision{}
	assert.Error(t, empty.Validate())

	zeroLeg := good
	zeroLeg.Legs = []RoutingLeg{{Venue: VenueNative, FillAmount: 0, PayAmount: 700}}
	zeroLeg.TotalReceiveAmount = 0
	zeroLeg.IsSplit = false
	assert.Error(t, zeroLeg.Validate())
}
