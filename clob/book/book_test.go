package book

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betcli/gotrade/clob/types"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func summary(bids, asks [][2]string) *types.OrderBookSummary {
	s := &types.OrderBookSummary{AssetID: "123456", Timestamp: "1700000000000"}
	for _, b := range bids {
		s.Bids = append(s.Bids, types.OrderSummary{Price: b[0], Size: b[1]})
	}
	for _, a := range asks {
		s.Asks = append(s.Asks, types.OrderSummary{Price: a[0], Size: a[1]})
	}
	return s
}

func TestFromSummary_SortsLevels(t *testing.T) {
	snap, err := FromSummary(summary(
		[][2]string{{"0.30", "100"}, {"0.50", "200"}, {"0.40", "150"}},
		[][2]string{{"0.60", "100"}, {"0.55", "150"}, {"0.58", "50"}},
	))
	require.NoError(t, err)

	bids := snap.Bids()
	require.Len(t, bids, 3)
	assert.True(t, bids[0].Price.Equal(dec("0.50")))
	assert.True(t, bids[1].Price.Equal(dec("0.40")))
	assert.True(t, bids[2].Price.Equal(dec("0.30")))

	asks := snap.Asks()
	require.Len(t, asks, 3)
	assert.True(t, asks[0].Price.Equal(dec("0.55")))
	assert.True(t, asks[1].Price.Equal(dec("0.58")))
	assert.True(t, asks[2].Price.Equal(dec("0.60")))
}

func TestFromSummary_MalformedLevel(t *testing.T) {
	_, err := FromSummary(summary([][2]string{{"abc", "100"}}, nil))
	require.Error(t, err)

	var engineErr *types.Error
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, types.ErrKindValidation, engineErr.Kind)
	assert.Equal(t, "bids", engineErr.Field)
}

func TestMidpointAndSpread(t *testing.T) {
	snap, err := FromSummary(summary(
		[][2]string{{"0.54", "100"}, {"0.53", "50"}},
		[][2]string{{"0.56", "200"}, {"0.58", "50"}},
	))
	require.NoError(t, err)

	mid, err := snap.Midpoint()
	require.NoError(t, err)
	assert.True(t, mid.Equal(dec("0.55")), "midpoint = %s", mid)

	spread, err := snap.Spread()
	require.NoError(t, err)
	assert.True(t, spread.Equal(dec("0.02")), "spread = %s", spread)
}

func TestMidpoint_OneSidedBook(t *testing.T) {
	bidsOnly, err := FromSummary(summary([][2]string{{"0.54", "100"}}, nil))
	require.NoError(t, err)

	mid, err := bidsOnly.Midpoint()
	require.NoError(t, err)
	assert.True(t, mid.Equal(dec("0.54")))

	_, err = bidsOnly.Spread()
	assert.ErrorIs(t, err, types.ErrNoLiquidity)

	asksOnly, err := FromSummary(summary(nil, [][2]string{{"0.56", "100"}}))
	require.NoError(t, err)

	mid, err = asksOnly.Midpoint()
	require.NoError(t, err)
	assert.True(t, mid.Equal(dec("0.56")))
}

func TestMidpoint_EmptyBook(t *testing.T) {
	snap, err := FromSummary(summary(nil, nil))
	require.NoError(t, err)

	_, err = snap.Midpoint()
	assert.ErrorIs(t, err, types.ErrNoLiquidity)

	_, err = snap.Spread()
	assert.ErrorIs(t, err, types.ErrNoLiquidity)
}

func TestWalkForQuote_SingleLevel(t *testing.T) {
	snap, err := FromSummary(summary(nil, [][2]string{{"0.56", "200"}}))
	require.NoError(t, err)

	shares, avg, err := snap.WalkForQuote(types.SideBuy, dec("50"))
	require.NoError(t, err)

	// 50 / 0.56 = 89.285714...
	assert.True(t, shares.Sub(dec("89.285714")).Abs().LessThan(dec("0.000001")),
		"shares = %s", shares)
	assert.True(t, avg.Equal(dec("0.56")), "avg = %s", avg)
}

func TestWalkForQuote_MultipleLevels(t *testing.T) {
	snap, err := FromSummary(summary(nil, [][2]string{
		{"0.10", "10"}, // $1.00
		{"0.20", "10"}, // $2.00
		{"0.30", "100"},
	}))
	require.NoError(t, err)

	shares, avg, err := snap.WalkForQuote(types.SideBuy, dec("5"))
	require.NoError(t, err)

	// 10 + 10 + 2/0.30 = 26.666...
	want := dec("10").Add(dec("10")).Add(dec("2").Div(dec("0.30")))
	assert.True(t, shares.Equal(want), "shares = %s want %s", shares, want)
	assert.True(t, avg.Equal(dec("5").Div(want)), "avg = %s", avg)
}

func TestWalkForQuote_InsufficientLiquidity(t *testing.T) {
	snap, err := FromSummary(summary(nil, [][2]string{{"0.56", "10"}}))
	require.NoError(t, err)

	_, _, err = snap.WalkForQuote(types.SideBuy, dec("50"))
	assert.ErrorIs(t, err, types.ErrInsufficientLiquidity)
}

func TestWalkForQuote_EmptySide(t *testing.T) {
	snap, err := FromSummary(summary([][2]string{{"0.54", "100"}}, nil))
	require.NoError(t, err)

	_, _, err = snap.WalkForQuote(types.SideBuy, dec("50"))
	assert.ErrorIs(t, err, types.ErrInsufficientLiquidity)
}

func TestWalkForQuote_SellConsumesBids(t *testing.T) {
	snap, err := FromSummary(summary(
		[][2]string{{"0.54", "100"}, {"0.50", "100"}},
		[][2]string{{"0.56", "100"}},
	))
	require.NoError(t, err)

	shares, avg, err := snap.WalkForQuote(types.SideSell, dec("54"))
	require.NoError(t, err)
	assert.True(t, shares.Equal(dec("100")), "shares = %s", shares)
	assert.True(t, avg.Equal(dec("0.54")), "avg = %s", avg)
}

func TestWalkForShares(t *testing.T) {
	snap, err := FromSummary(summary(
		[][2]string{{"0.54", "100"}, {"0.50", "100"}},
		nil,
	))
	require.NoError(t, err)

	notional, avg, err := snap.WalkForShares(types.SideSell, dec("150"))
	require.NoError(t, err)

	// 100×0.54 + 50×0.50 = 79
	assert.True(t, notional.Equal(dec("79")), "notional = %s", notional)
	assert.True(t, avg.Equal(dec("79").Div(dec("150"))), "avg = %s", avg)

	_, _, err = snap.WalkForShares(types.SideSell, dec("250"))
	assert.ErrorIs(t, err, types.ErrInsufficientLiquidity)
}

func TestWalkForQuote_InvalidAmount(t *testing.T) {
	snap, err := FromSummary(summary(nil, [][2]string{{"0.56", "200"}}))
	require.NoError(t, err)

	_, _, err = snap.WalkForQuote(types.SideBuy, dec("0"))
	require.Error(t, err)

	var engineErr *types.Error
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, types.ErrKindValidation, engineErr.Kind)
}
