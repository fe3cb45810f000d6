package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"main/internal/executor"
	"main/internal/model/enum"
	"main/pkg/exception"
)

func testDelegator(t *testing.T, handler http.HandlerFunc) *Delegator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	d := NewDelegator(server.Client(), "test-key", "test-secret", true)
	d.base = server.URL
	return d
}

func TestPlaceOrderSignsRequest(t *testing.T) {
	var captured *http.Request
	d := testDelegator(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.Write([]byte(`{"orderId": 77, "clientOrderId": "ta-x", "symbol": "BTCUSDT",
			"status": "NEW", "side": "BUY", "type": "MARKET", "origQty": "0.5"}`))
	})

	order, err := d.PlaceOrder(context.Background(), executor.OrderRequest{
		ClientOrderID: "ta-x",
		Symbol:        "btcusdt",
		Side:          enum.OrderSideBuy,
		Type:          enum.OrderTypeMarket,
		Amount:        decimal.NewFromFloat(0.5),
	})
	if err != nil {
		t.Fatalf("place, err: %+v", err)
	}
	if order.ID != "77" || order.Status != enum.OrderStatusOpen {
		t.Fatalf("order = %+v", order)
	}

	if captured.Header.Get("X-MBX-APIKEY") != "test-key" {
		t.Fatal("api key header missing")
	}

	query := captured.URL.Query()
	if query.Get("symbol") != "BTCUSDT" {
		t.Fatalf("symbol = %s, want uppercased", query.Get("symbol"))
	}
	if query.Get("newClientOrderId") != "ta-x" {
		t.Fatal("client order id must ride every request")
	}
	if query.Get("timestamp") == "" || query.Get("recvWindow") != "5000" {
		t.Fatalf("timestamp/recvWindow = %s/%s", query.Get("timestamp"), query.Get("recvWindow"))
	}

	{ // signature covers the query string minus the signature itself
		raw := captured.URL.RawQuery
		signed := strings.TrimSuffix(raw, "&signature="+query.Get("signature"))
		mac := hmac.New(sha256.New, []byte("test-secret"))
		mac.Write([]byte(signed))
		if query.Get("signature") != hex.EncodeToString(mac.Sum(nil)) {
			t.Fatal("signature mismatch")
		}
	}
}

func TestPlaceLimitOrderRequiresPrice(t *testing.T) {
	d := NewDelegator(http.DefaultClient, "k", "s", true)

	_, err := d.PlaceOrder(context.Background(), executor.OrderRequest{
		Symbol: "BTCUSDT",
		Side:   enum.OrderSideBuy,
		Type:   enum.OrderTypeLimit,
		Amount: decimal.NewFromInt(1),
	})
	if !errors.Is(err, exception.ErrOrderInvalidRequest) {
		t.Fatalf("limit without price should fail locally, got %+v", err)
	}
}

func TestCallMapsAPIErrors(t *testing.T) {
	tests := []struct {
		body string
		want error
	}{
		{`{"code": -1003, "msg": "Too many requests"}`, exception.ErrRateLimited},
		{`{"code": -2010, "msg": "Account has insufficient balance"}`, exception.ErrOrderInsufficientBalance},
		{`{"code": -2013, "msg": "Order does not exist"}`, exception.ErrOrderNotFound},
	}
	for _, tt := range tests {
		d := testDelegator(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(tt.body))
		})
		_, err := d.QueryOrder(context.Background(), "1", "BTCUSDT")
		if !errors.Is(err, tt.want) {
			t.Fatalf("body %s mapped to %+v, want %+v", tt.body, err, tt.want)
		}
	}
}

func TestCallMapsHTTPStatusWithoutBody(t *testing.T) {
	d := testDelegator(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := d.QueryOrder(context.Background(), "1", "BTCUSDT")
	if !errors.Is(err, exception.ErrRateLimited) {
		t.Fatalf("429 without body should still classify, got %+v", err)
	}
}

func TestOpenOrdersDecodesList(t *testing.T) {
	d := testDelegator(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[
			{"orderId": 1, "symbol": "BTCUSDT", "status": "NEW", "side": "BUY", "type": "LIMIT", "price": "20000", "origQty": "1"},
			{"orderId": 2, "symbol": "BTCUSDT", "status": "PARTIALLY_FILLED", "side": "SELL", "type": "LIMIT", "price": "21000", "origQty": "1", "executedQty": "0.5"}
		]`))
	})

	orders, err := d.OpenOrders(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("open orders, err: %+v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(orders))
	}
	if orders[1].Status != enum.OrderStatusPartialFilled {
		t.Fatalf("status = %s", orders[1].Status)
	}
}
