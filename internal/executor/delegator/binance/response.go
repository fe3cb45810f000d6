package binance

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

// classified maps Binance API error codes onto the fault taxonomy.
func (e responseError) classified() error {
	switch e.Code {
	case -1003, -1015:
		return errors.Wrap(exception.ErrRateLimited, e.Message)
	case -2010, -2019, -4047:
		return errors.Wrap(exception.ErrOrderInsufficientBalance, e.Message)
	case -2011, -2013:
		return errors.Wrap(exception.ErrOrderNotFound, e.Message)
	case -1001, -1007:
		return errors.Wrap(exception.ErrConnection, e.Message)
	default:
		return errors.Wrap(exception.ErrOrderInvalidRequest, e.Message)
	}
}

type responseOrder struct {
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Symbol        string `json:"symbol"`
	Status        string `json:"status"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Price         string `json:"price"`
	AvgPrice      string `json:"avgPrice"`
	OrigQty       string `json:"origQty"`
	ExecutedQty   string `json:"executedQty"`
	CumQuote      string `json:"cumQuote"`
	UpdateTime    int64  `json:"updateTime"`
}

func (r responseOrder) order(symbol string) (model.Order, error) {
	if r.OrderID == 0 {
		return model.Order{}, errors.Wrap(exception.ErrOrderInvalidRequest, "empty response order id")
	}
	if r.Symbol != "" {
		symbol = r.Symbol
	}

	price, err := parseDecimal(r.Price)
	if err != nil {
		return model.Order{}, err
	}
	amount, err := parseDecimal(r.OrigQty)
	if err != nil {
		return model.Order{}, err
	}
	filled, err := parseDecimal(r.ExecutedQty)
	if err != nil {
		return model.Order{}, err
	}
	cost, err := parseDecimal(r.CumQuote)
	if err != nil {
		return model.Order{}, err
	}

	updated := time.Now()
	if r.UpdateTime > 0 {
		updated = time.UnixMilli(r.UpdateTime)
	}
	return model.Order{
		ID:            strconv.FormatInt(r.OrderID, 10),
		ClientOrderID: r.ClientOrderID,
		Exchange:      "binance",
		Symbol:        symbol,
		Side:          sideFromExchange(r.Side),
		Type:          typeFromExchange(r.Type),
		Status:        statusFromExchange(r.Status),
		Price:         price,
		Amount:        amount,
		Filled:        filled,
		Cost:          cost,
		UpdatedAt:     updated,
	}, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrap(exception.ErrOrderInvalidRequest, "decode decimal field: "+err.Error())
	}
	return d, nil
}

func sideFromExchange(side string) enum.OrderSide {
	if side == "SELL" {
		return enum.OrderSideSell
	}
	return enum.OrderSideBuy
}

func typeFromExchange(t string) enum.OrderType {
	if t == "LIMIT" {
		return enum.OrderTypeLimit
	}
	return enum.OrderTypeMarket
}

func statusFromExchange(status string) enum.OrderStatus {
	switch status {
	case "NEW":
		return enum.OrderStatusOpen
	case "PARTIALLY_FILLED":
		return enum.OrderStatusPartialFilled
	case "FILLED":
		return enum.OrderStatusFilled
	case "CANCELED", "EXPIRED":
		return enum.OrderStatusCanceled
	case "REJECTED":
		return enum.OrderStatusRejected
	default:
		return enum.OrderStatusOpen
	}
}
