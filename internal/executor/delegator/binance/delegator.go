package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"

	"main/internal/executor"
	"main/internal/gateway"
	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

const (
	_binanceBaseUrl    = "https://fapi.binance.com"
	_binanceBaseUrlDev = "https://testnet.binancefuture.com"

	_orderPath      = "/fapi/v1/order"
	_openOrdersPath = "/fapi/v1/openOrders"
)

// Delegator speaks the Binance USDT-futures REST order contract.
type Delegator struct {
	client *http.Client
	apiKey string
	secret string
	base   string
}

// NewDelegator creates a Binance delegator. devMode targets the
// futures testnet.
func NewDelegator(client *http.Client, apiKey, secret string, devMode bool) *Delegator {
	base := _binanceBaseUrl
	if devMode {
		base = _binanceBaseUrlDev
	}
	return &Delegator{
		client: client,
		apiKey: apiKey,
		secret: secret,
		base:   base,
	}
}

func binanceSide(side enum.OrderSide) string {
	switch side {
	case enum.OrderSideSell:
		return "SELL"
	default:
		return "BUY"
	}
}

func binanceType(t enum.OrderType) string {
	switch t {
	case enum.OrderTypeLimit:
		return "LIMIT"
	default:
		return "MARKET"
	}
}

// PlaceOrder submits one order. The caller supplies the client order
// id; Binance deduplicates on newClientOrderId so a retried request
// maps back to the original order.
func (d *Delegator) PlaceOrder(ctx context.Context, req executor.OrderRequest) (model.Order, error) {
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(req.Symbol))
	params.Set("side", binanceSide(req.Side))
	params.Set("type", binanceType(req.Type))
	params.Set("quantity", req.Amount.String())
	params.Set("newClientOrderId", req.ClientOrderID)
	if req.Type == enum.OrderTypeLimit {
		if req.Price.IsZero() {
			return model.Order{}, exception.ErrOrderInvalidRequest
		}
		params.Set("price", req.Price.String())
		params.Set("timeInForce", "GTC")
	}
	if req.StopPrice.IsPositive() {
		params.Set("stopPrice", req.StopPrice.String())
	}

	var resp responseOrder
	if err := d.call(ctx, http.MethodPost, _orderPath, params, &resp); err != nil {
		return model.Order{}, err
	}
	return resp.order(req.Symbol)
}

// CancelOrder cancels by exchange order id.
func (d *Delegator) CancelOrder(ctx context.Context, orderID, symbol string) error {
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))
	params.Set("orderId", orderID)

	var resp responseOrder
	return d.call(ctx, http.MethodDelete, _orderPath, params, &resp)
}

// QueryOrder fetches the exchange's current view of an order.
func (d *Delegator) QueryOrder(ctx context.Context, orderID, symbol string) (model.Order, error) {
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))
	params.Set("orderId", orderID)

	var resp responseOrder
	if err := d.call(ctx, http.MethodGet, _orderPath, params, &resp); err != nil {
		return model.Order{}, err
	}
	return resp.order(symbol)
}

// OpenOrders lists working orders, optionally for one symbol.
func (d *Delegator) OpenOrders(ctx context.Context, symbol string) ([]model.Order, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", strings.ToUpper(symbol))
	}

	var resp []responseOrder
	if err := d.call(ctx, http.MethodGet, _openOrdersPath, params, &resp); err != nil {
		return nil, err
	}
	out := make([]model.Order, 0, len(resp))
	for _, r := range resp {
		order, err := r.order(symbol)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, nil
}

// call signs the query string, issues the request and decodes either
// the payload or a classified exchange error.
func (d *Delegator) call(ctx context.Context, method, path string, params url.Values, out any) error {
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("recvWindow", "5000")

	query := params.Encode()
	mac := hmac.New(sha256.New, []byte(d.secret))
	mac.Write([]byte(query))
	query += "&signature=" + hex.EncodeToString(mac.Sum(nil))

	r, err := http.NewRequestWithContext(ctx, method, d.base+path+"?"+query, nil)
	if err != nil {
		return err
	}
	r.Header.Set("X-MBX-APIKEY", d.apiKey)

	resp, err := d.client.Do(r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr responseError
		if err := sonic.ConfigFastest.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
			return apiErr.classified()
		}
		if err := gateway.ClassifyStatus(resp.StatusCode); err != nil {
			return errors.Wrap(err, "binance "+path+" status "+strconv.Itoa(resp.StatusCode))
		}
		return exception.ErrConnection
	}

	if err := sonic.ConfigFastest.Unmarshal(body, out); err != nil {
		return errors.Wrap(exception.ErrOrderInvalidRequest, "decode response body: "+err.Error())
	}
	return nil
}
