package router

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonex/routerd/internal/chain"
	"github.com/halcyonex/routerd/internal/core/book"
	"github.com/halcyonex/routerd/internal/core/types"
	"github.com/halcyonex/routerd/internal/venue"
	"github.com/halcyonex/routerd/internal/venue/mocks"
)

var testPair = types.Pair{Receive: "BASE", Pay: "QUOTE"}

type offerSpec struct {
	id            string
	amount        uint64
	minPrice      uint64
	maxPrice      uint64
	policy        types.FillPolicy
	minFillAmount uint64
}

func makeBook(t *testing.T, offers ...offerSpec) *book.Book {
	t.Helper()
	b := book.New()
	expiry := uint64(time.Now().UnixMilli()) + 3_600_000
	for _, o := range offers {
		payload, err := json.Marshal(map[string]any{
			"offer_id":        o.id,
			"maker":           "0xmaker",
			"offer_asset":     testPair.Receive,
			"want_asset":      testPair.Pay,
			"initial_amount":  o.amount,
			"min_price":       o.minPrice,
			"max_price":       o.maxPrice,
			"fill_policy":     uint8(o.policy),
			"min_fill_amount": o.minFillAmount,
			"expiry_ms":       expiry,
		})
		require.NoError(t, err)
		b.Apply(chain.RawEvent{
			Type:    "0xpkg::events::OfferCreatedV2",
			Payload: payload,
		})
	}
	return b
}

func quoteFor(venueName string, receive, pay uint64) *types.VenueQuote {
	return &types.VenueQuote{
		Venue:          venueName,
		ReceiveAmount:  receive,
		PayAmount:      pay,
		EffectivePrice: ceilPrice(pay, receive),
		Payload:        types.QuotePayload{MetadataKind: "amm", Metadata: []byte{0x01}},
	}
}

func ceilPrice(pay, fill uint64) uint64 {
	return (pay*1_000_000_000 + fill - 1) / fill
}

func TestFindRouteAllNative(t *testing.T) {
	b := makeBook(t,
		offerSpec{id: "0xa", amount: 600, minPrice: 1_900_000_000, maxPrice: 2_000_000_000, policy: types.FillPolicyPartial},
		offerSpec{id: "0xb", amount: 800, minPrice: 2_100_000_000, maxPrice: 2_200_000_000, policy: types.FillPolicyPartial},
	)
	r := New(b, nil, DefaultPolicy())

	d, ok := r.FindRoute(context.Background(), testPair, 1000)
	require.True(t, ok)
	require.NoError(t, d.Validate())

	require.Len(t, d.Legs, 2)
	assert.True(t, d.IsSplit)
	assert.True(t, d.NativeOnly())
	assert.Equal(t, "0xa", d.Legs[0].Payload.OfferID, "cheapest offer first")
	assert.Equal(t, uint64(600), d.Legs[0].FillAmount)
	assert.Equal(t, types.FillTypeFull, d.Legs[0].FillType)
	assert.Equal(t, uint64(400), d.Legs[1].FillAmount)
	assert.Equal(t, types.FillTypePartial, d.Legs[1].FillType)

	// 600 at 2.0 plus 400 at 2.2, both charged at the offer's upper bound.
	assert.Equal(t, uint64(1000), d.TotalReceiveAmount)
	assert.Equal(t, uint64(1200+880), d.TotalPayAmount)
	assert.NotEmpty(t, d.ID)
	assert.NotZero(t, d.BlendedPrice)
}

func TestFindRouteNoLiquidity(t *testing.T) {
	r := New(book.New(), nil, DefaultPolicy())
	d, ok := r.FindRoute(context.Background(), testPair, 1000)
	assert.False(t, ok)
	assert.Nil(t, d)

	_, ok = r.FindRoute(context.Background(), testPair, 0)
	assert.False(t, ok)
}

func TestFillRules(t *testing.T) {
	tests := []struct {
		name     string
		offer    offerSpec
		need     uint64
		wantFill uint64
		wantType types.FillType
		wantOK   bool
	}{
		{
			name:     "need covers remainder takes all",
			offer:    offerSpec{amount: 500, policy: types.FillPolicyPartial},
			need:     700, wantFill: 500, wantType: types.FillTypeFull, wantOK: true,
		},
		{
			name:   "full only refuses partial take",
			offer:  offerSpec{amount: 500, policy: types.FillPolicyFullOnly},
			need:   300, wantOK: false,
		},
		{
			name:     "dust remainder forces full take",
			offer:    offerSpec{amount: 100, policy: types.FillPolicyPartial, minFillAmount: 30},
			need:     80, wantFill: 100, wantType: types.FillTypeFull, wantOK: true,
		},
		{
			name:   "gated refuses below minimum",
			offer:  offerSpec{amount: 500, policy: types.FillPolicyPartialGated, minFillAmount: 200},
			need:   150, wantOK: false,
		},
		{
			name:     "gated accepts above minimum",
			offer:    offerSpec{amount: 500, policy: types.FillPolicyPartialGated, minFillAmount: 200},
			need:     300, wantFill: 300, wantType: types.FillTypePartial, wantOK: true,
		},
		{
			name:     "plain partial takes exactly the need",
			offer:    offerSpec{amount: 500, policy: types.FillPolicyPartial},
			need:     300, wantFill: 300, wantType: types.FillTypePartial, wantOK: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &types.Offer{
				RemainingAmount: tt.offer.amount,
				FillPolicy:      tt.offer.policy,
				MinFillAmount:   tt.offer.minFillAmount,
			}
			fill, fillType, ok := fillForOffer(o, tt.need)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantFill, fill)
				assert.Equal(t, tt.wantType, fillType)
			}
		})
	}
}

func TestFindRouteDustOverfillAdmitted(t *testing.T) {
	// One offer of 100 with minFill 30 and a need of 80: the dust rule
	// takes the whole block, overfilling by 20.
	b := makeBook(t,
		offerSpec{id: "0xd", amount: 100, minPrice: 1_000_000_000, maxPrice: 1_000_000_000,
			policy: types.FillPolicyPartial, minFillAmount: 30},
	)
	r := New(b, nil, DefaultPolicy())

	d, ok := r.FindRoute(context.Background(), testPair, 80)
	require.True(t, ok)
	assert.Equal(t, uint64(100), d.TotalReceiveAmount)
	require.Len(t, d.Legs, 1)
	assert.Equal(t, types.FillTypeFull, d.Legs[0].FillType)
}

func TestFindRoutePrefersCheaperExternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	b := makeBook(t,
		offerSpec{id: "0xexp", amount: 2000, minPrice: 2_900_000_000, maxPrice: 3_000_000_000, policy: types.FillPolicyPartial},
	)
	adapter := mocks.NewMockAdapter(ctrl)
	adapter.EXPECT().Name().Return("amm").AnyTimes()
	adapter.EXPECT().GetDetailedQuote(gomock.Any(), testPair, uint64(1000)).
		Return(quoteFor("amm", 1000, 2500), true).AnyTimes()

	r := New(b, []venue.Adapter{adapter}, DefaultPolicy())
	d, ok := r.FindRoute(context.Background(), testPair, 1000)
	require.True(t, ok)

	require.Len(t, d.Legs, 1)
	assert.Equal(t, "amm", d.Legs[0].Venue)
	assert.Equal(t, uint64(2500), d.TotalPayAmount, "external at 2.5 beats native at 3.0")
}

func TestFindRouteSplitsNativePrefixWithRequotedResidual(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// 600 native at 2.0, venue at 2.5: the split fills 600 native and
	// requotes the venue for the 400 residual.
	b := makeBook(t,
		offerSpec{id: "0xa", amount: 600, minPrice: 1_900_000_000, maxPrice: 2_000_000_000, policy: types.FillPolicyPartial},
	)
	adapter := mocks.NewMockAdapter(ctrl)
	adapter.EXPECT().Name().Return("amm").AnyTimes()
	adapter.EXPECT().GetDetailedQuote(gomock.Any(), testPair, uint64(1000)).
		Return(quoteFor("amm", 1000, 2500), true).AnyTimes()
	adapter.EXPECT().GetDetailedQuote(gomock.Any(), testPair, uint64(400)).
		Return(quoteFor("amm", 400, 1000), true).AnyTimes()

	r := New(b, []venue.Adapter{adapter}, DefaultPolicy())
	d, ok := r.FindRoute(context.Background(), testPair, 1000)
	require.True(t, ok)
	require.NoError(t, d.Validate())

	require.Len(t, d.Legs, 2)
	assert.True(t, d.IsSplit)
	assert.Equal(t, types.VenueNative, d.Legs[0].Venue)
	assert.Equal(t, uint64(600), d.Legs[0].FillAmount)
	assert.Equal(t, "amm", d.Legs[1].Venue)
	assert.Equal(t, uint64(400), d.Legs[1].FillAmount)
	// 1200 native + 1000 requoted external beats 2500 all-external.
	assert.Equal(t, uint64(2200), d.TotalPayAmount)
}

func TestFindRouteSurvivesVenueDegradation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	b := makeBook(t,
		offerSpec{id: "0xa", amount: 2000, minPrice: 1_900_000_000, maxPrice: 2_000_000_000, policy: types.FillPolicyPartial},
	)
	adapter := mocks.NewMockAdapter(ctrl)
	adapter.EXPECT().Name().Return("amm").AnyTimes()
	adapter.EXPECT().GetDetailedQuote(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, false).AnyTimes()

	r := New(b, []venue.Adapter{adapter}, DefaultPolicy())
	d, ok := r.FindRoute(context.Background(), testPair, 1000)
	require.True(t, ok, "a failing venue must not fail the search")
	assert.True(t, d.NativeOnly())
}

func TestFindRouteExternalOnlyWhenBookEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	adapter := mocks.NewMockAdapter(ctrl)
	adapter.EXPECT().Name().Return("amm").AnyTimes()
	adapter.EXPECT().GetDetailedQuote(gomock.Any(), testPair, uint64(1000)).
		Return(quoteFor("amm", 1000, 2500), true).AnyTimes()

	r := New(book.New(), []venue.Adapter{adapter}, DefaultPolicy())
	d, ok := r.FindRoute(context.Background(), testPair, 1000)
	require.True(t, ok)
	require.Len(t, d.Legs, 1)
	assert.Equal(t, "amm", d.Legs[0].Venue)
}

func TestNativeBiasPrefersBookOnNearTie(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// Native pays 2020, external 2000: within 200 bps the native book wins.
	b := makeBook(t,
		offerSpec{id: "0xa", amount: 2000, minPrice: 2_000_000_000, maxPrice: 2_020_000_000, policy: types.FillPolicyPartial},
	)
	adapter := mocks.NewMockAdapter(ctrl)
	adapter.EXPECT().Name().Return("amm").AnyTimes()
	adapter.EXPECT().GetDetailedQuote(gomock.Any(), testPair, uint64(1000)).
		Return(quoteFor("amm", 1000, 2000), true).AnyTimes()

	policy := DefaultPolicy()
	policy.NativeBiasBps = 200
	r := New(b, []venue.Adapter{adapter}, policy)

	d, ok := r.FindRoute(context.Background(), testPair, 1000)
	require.True(t, ok)
	assert.True(t, d.NativeOnly())
	assert.Equal(t, uint64(2020), d.TotalPayAmount)

	// Without the bias the cheaper external candidate wins.
	r = New(b, []venue.Adapter{adapter}, DefaultPolicy())
	d, ok = r.FindRoute(context.Background(), testPair, 1000)
	require.True(t, ok)
	assert.False(t, d.NativeOnly())
	assert.Equal(t, uint64(2000), d.TotalPayAmount)
}

func TestMaxNativeLegsCap(t *testing.T) {
	b := makeBook(t,
		offerSpec{id: "0x1", amount: 100, minPrice: 1, maxPrice: 2, policy: types.FillPolicyPartial},
		offerSpec{id: "0x2", amount: 100, minPrice: 3, maxPrice: 4, policy: types.FillPolicyPartial},
		offerSpec{id: "0x3", amount: 100, minPrice: 5, maxPrice: 6, policy: types.FillPolicyPartial},
	)
	policy := DefaultPolicy()
	policy.MaxNativeLegs = 2
	r := New(b, nil, policy)

	// Only two legs allowed: 200 of the 300 needed, so no route.
	_, ok := r.FindRoute(context.Background(), testPair, 300)
	assert.False(t, ok)

	d, ok := r.FindRoute(context.Background(), testPair, 200)
	require.True(t, ok)
	assert.Len(t, d.Legs, 2)
}
