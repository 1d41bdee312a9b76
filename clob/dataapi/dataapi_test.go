package dataapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betcli/gotrade/clob/types"
)

const testUser = "0x76564A875522c78263B7c0c51B3760A1776877af"

func TestPositions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/positions", r.URL.Path)
		require.Equal(t, testUser, r.URL.Query().Get("user"))
		require.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"asset": "7132104567",
			"conditionId": "0xaabb",
			"size": 10.5,
			"avgPrice": 0.45,
			"curPrice": 0.55,
			"currentValue": 5.775,
			"cashPnl": 1.05,
			"percentPnl": 22.22,
			"title": "Will it happen?",
			"outcome": "Yes"
		}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	positions, err := c.Positions(context.Background(), testUser, 0)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	pos := positions[0]
	assert.Equal(t, "7132104567", pos.Asset)
	assert.Equal(t, 10.5, pos.Size)
	assert.Equal(t, 0.45, pos.AvgPrice)
	assert.Equal(t, "Yes", pos.Outcome)
}

func TestPositions_RequiresUser(t *testing.T) {
	c := NewClient("")
	_, err := c.Positions(context.Background(), "", 10)
	require.Error(t, err)

	var engineErr *types.Error
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, types.ErrKindValidation, engineErr.Kind)
}

func TestTrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/trades", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"asset":"123","side":"BUY","size":10,"price":0.55,"timestamp":1700000000}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	trades, err := c.Trades(context.Background(), testUser, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "BUY", trades[0].Side)
	assert.Equal(t, int64(1700000000), trades[0].Timestamp)
}

func TestMarketTrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/trades", r.URL.Path)
		require.Equal(t, "0xaabb", r.URL.Query().Get("market"))
		require.Equal(t, "20", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"asset":"123","side":"SELL","size":5,"price":0.61,"timestamp":1700000100}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	trades, err := c.MarketTrades(context.Background(), "0xaabb", 20)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "SELL", trades[0].Side)

	_, err = c.MarketTrades(context.Background(), "", 20)
	require.Error(t, err)
}

func TestClassifyStatus(t *testing.T) {
	assert.True(t, types.IsRetryable(classifyStatus(500, "op")))
	assert.True(t, types.IsRetryable(classifyStatus(429, "op")))
	assert.False(t, types.IsRetryable(classifyStatus(400, "op")))
	assert.ErrorIs(t, classifyStatus(404, "op"), types.ErrNotFound)
}
