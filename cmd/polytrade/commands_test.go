package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/betcli/gotrade/clob/client"
	"github.com/betcli/gotrade/clob/types"
	"github.com/betcli/gotrade/internal/journal"
	"github.com/betcli/gotrade/pkg/wallet"
)

func TestParseSide(t *testing.T) {
	for _, in := range []string{"buy", "BUY", "Buy"} {
		side, err := parseSide(in)
		if err != nil {
			t.Fatalf("parseSide(%q) 不应失败: %v", in, err)
		}
		if side != types.SideBuy {
			t.Errorf("parseSide(%q) = %s，期望 BUY", in, side)
		}
	}

	side, err := parseSide("sell")
	if err != nil || side != types.SideSell {
		t.Errorf("parseSide(sell) = %s, %v", side, err)
	}

	for _, in := range []string{"hold", "", "b"} {
		if _, err := parseSide(in); err == nil {
			t.Errorf("parseSide(%q) 应该失败", in)
		}
	}
}

func TestPairOutcomes(t *testing.T) {
	pairs := pairOutcomes(`["Yes","No"]`, `["token_a","token_b"]`)
	if len(pairs) != 2 {
		t.Fatalf("期望 2 对，得到 %d", len(pairs))
	}
	if pairs[0] != [2]string{"Yes", "token_a"} {
		t.Errorf("配对错误: %v", pairs[0])
	}

	if pairOutcomes("[]", "[]") != nil {
		t.Error("空列表应该返回 nil")
	}
	if pairOutcomes(`["Yes","No"]`, `["token_a"]`) != nil {
		t.Error("长度不一致应该返回 nil")
	}
	if pairOutcomes("not json", `["token_a"]`) != nil {
		t.Error("坏 JSON 应该返回 nil")
	}
}

func TestTickPlaces(t *testing.T) {
	cases := map[string]int32{
		"0.1":    1,
		"0.01":   2,
		"0.001":  3,
		"0.0001": 4,
		"":       2,
		"bad":    2,
	}
	for tick, want := range cases {
		if got := tickPlaces(tick); got != want {
			t.Errorf("tickPlaces(%q) = %d，期望 %d", tick, got, want)
		}
	}
}

func TestSignedPct(t *testing.T) {
	cases := map[string]string{
		"22.22":  "+22.2",
		"-33.33": "-33.3",
		"0":      "+0.0",
	}
	for in, want := range cases {
		v, err := decimal.NewFromString(in)
		if err != nil {
			t.Fatal(err)
		}
		if got := signedPct(v); got != want {
			t.Errorf("signedPct(%s) = %q，期望 %q", in, got, want)
		}
	}
}

func TestFormatBaseUnits(t *testing.T) {
	cases := map[string]string{
		"0":          "0.000000",
		"1000000":    "1.000000",
		"4281842":    "4.281842",
		"1000000000": "1000.000000",
		"1":          "0.000001",
		"not-a-num":  "not-a-num",
	}
	for raw, want := range cases {
		if got := formatBaseUnits(raw); got != want {
			t.Errorf("formatBaseUnits(%q) = %q，期望 %q", raw, got, want)
		}
	}
}

// TestResubmitPending 验证日志重放按落库字节提交，不重新组装签名
func TestResubmitPending(t *testing.T) {
	var bodies [][]byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/order" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"orderID":"0xorder1","status":"live"}`))
	}))
	defer srv.Close()

	key, err := wallet.FromHex("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	if err != nil {
		t.Fatal(err)
	}
	defer wallet.Zero(key)

	creds := &types.ApiKeyCreds{
		Key:        "9aa8fdbd-ee01-4e38-a7a2-8a163a2ebe90",
		Secret:     base64.URLEncoding.EncodeToString([]byte("test-secret-material-32-bytes!!!")),
		Passphrase: "test-passphrase",
	}
	clob := client.NewClient(srv.URL, types.ChainPolygon, key, creds)

	jnl, err := journal.Open(filepath.Join(t.TempDir(), "orders.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer jnl.Close()

	ctx := context.Background()
	assembled := &types.AssembledOrder{
		IntentID:  "11111111-2222-3333-4444-555555555555",
		OrderType: types.OrderTypeGTC,
		TokenID:   "123456",
		Order: types.SignedOrder{
			Salt:          "479249096354",
			Maker:         "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
			Signer:        "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
			Taker:         types.ZeroAddress,
			TokenID:       "123456",
			MakerAmount:   "5500000",
			TakerAmount:   "10000000",
			Expiration:    "0",
			Nonce:         "0",
			FeeRateBps:    "0",
			Side:          types.SideBuy,
			SignatureType: 0,
			Signature:     "0xdeadbeef",
		},
	}
	if err := jnl.Record(ctx, assembled); err != nil {
		t.Fatal(err)
	}

	submitted, total, err := resubmitPending(ctx, clob, jnl)
	if err != nil {
		t.Fatal(err)
	}
	if submitted != 1 || total != 1 {
		t.Fatalf("期望 1/1 提交成功，得到 %d/%d", submitted, total)
	}

	// 重放的载荷必须与直接提交该订单的字节完全一致
	want, err := json.Marshal(types.NewOrder{
		Order:     assembled.Order,
		Owner:     creds.Key,
		OrderType: assembled.OrderType,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(bodies) != 1 || !bytes.Equal(bodies[0], want) {
		t.Errorf("重放字节与落库订单不一致:\n得到 %s\n期望 %s", bodies[0], want)
	}

	entry, err := jnl.Get(ctx, assembled.IntentID)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Status != journal.StatusSubmitted || entry.OrderID != "0xorder1" {
		t.Errorf("期望状态 submitted/0xorder1，得到 %s/%s", entry.Status, entry.OrderID)
	}

	// 终态条目不再被重放
	submitted, total, err = resubmitPending(ctx, clob, jnl)
	if err != nil {
		t.Fatal(err)
	}
	if submitted != 0 || total != 0 {
		t.Errorf("终态后期望 0/0，得到 %d/%d", submitted, total)
	}
}
