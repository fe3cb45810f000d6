package risk

import (
	"github.com/shopspring/decimal"

	"main/internal/model"
	"main/internal/model/enum"
)

// Reason identifies the constraint a check tripped on.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonKillSwitch
	ReasonAllocation
	ReasonSingleTrade
	ReasonDailyLoss
	ReasonDrawdown
	ReasonMaxPositions
	ReasonStopLoss
	ReasonTakeProfit
	_reason_end
)

// ReasonCount is the number of defined reasons, for metrics indexing.
const ReasonCount = int(_reason_end)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonKillSwitch:
		return "kill_switch"
	case ReasonAllocation:
		return "allocation_ratio"
	case ReasonSingleTrade:
		return "single_trade_notional"
	case ReasonDailyLoss:
		return "daily_loss"
	case ReasonDrawdown:
		return "drawdown"
	case ReasonMaxPositions:
		return "max_open_positions"
	case ReasonStopLoss:
		return "stop_loss"
	case ReasonTakeProfit:
		return "take_profit"
	default:
		return "unknown"
	}
}

// ActionClosePosition is the adjustment suggested when a protective
// threshold triggers.
const ActionClosePosition = "close_position"

// Adjustment is a structured hint attached to a failed check. It is a
// recommendation; the caller decides whether to act on it.
type Adjustment struct {
	Action string `json:"action"`
}

// CheckResult is the outcome of a risk check. A failed check is normal
// control flow, never an error.
type CheckResult struct {
	Passed     bool
	Reason     Reason
	Detail     string
	Adjustment *Adjustment
}

func pass() CheckResult {
	return CheckResult{Passed: true, Reason: ReasonNone}
}

func deny(reason Reason, detail string) CheckResult {
	return CheckResult{Passed: false, Reason: reason, Detail: detail}
}

// Parameters are the validated risk limits supplied by the strategy
// layer. The core consumes them, never mutates or persists them.
type Parameters struct {
	KillSwitch           bool            `json:"killSwitch"`
	MaxPositionSize      decimal.Decimal `json:"maxPositionSize"`      // fraction of total value, (0, 1]
	MaxSingleTrade       decimal.Decimal `json:"maxSingleTrade"`       // absolute notional, 0 = unlimited
	MaxDailyLoss         decimal.Decimal `json:"maxDailyLoss"`         // fraction of total value, 0 = unlimited
	MaxDrawdown          decimal.Decimal `json:"maxDrawdown"`          // fraction of peak value, 0 = unlimited
	StopLossPercentage   decimal.Decimal `json:"stopLossPercentage"`   // percent, e.g. 2 means 2%
	TakeProfitPercentage decimal.Decimal `json:"takeProfitPercentage"` // percent
	MaxOpenPositions     int             `json:"maxOpenPositions"`     // 0 = unlimited
}

// Validate rejects out-of-bounds parameters at load time.
func (p Parameters) Validate() error {
	one := decimal.NewFromInt(1)
	if p.MaxPositionSize.LessThanOrEqual(decimal.Zero) || p.MaxPositionSize.GreaterThan(one) {
		return errParamMaxPositionSize
	}
	if p.MaxSingleTrade.IsNegative() {
		return errParamMaxSingleTrade
	}
	if p.MaxDailyLoss.IsNegative() || p.MaxDailyLoss.GreaterThan(one) {
		return errParamMaxDailyLoss
	}
	if p.MaxDrawdown.IsNegative() || p.MaxDrawdown.GreaterThan(one) {
		return errParamMaxDrawdown
	}
	if p.StopLossPercentage.IsNegative() || p.TakeProfitPercentage.IsNegative() {
		return errParamProtectivePct
	}
	if p.MaxOpenPositions < 0 {
		return errParamMaxOpenPositions
	}
	return nil
}

// Manager evaluates risk checks. It holds no state of its own; every
// method takes the portfolio and parameters explicitly so checks are
// deterministic and testable in isolation.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// protectivePrecision is the decimal precision stop/take-profit prices
// are rounded to, so later comparisons are deterministic.
const protectivePrecision = 4

// CheckOrderRisk gates a proposed signal against portfolio limits.
// The committed capital is margin (notional / leverage), not raw
// notional. It never returns an error; failures are data.
func (m *Manager) CheckOrderRisk(signal model.Signal, portfolio model.Portfolio, params Parameters) CheckResult {
	if params.KillSwitch {
		return deny(ReasonKillSwitch, "kill switch engaged")
	}
	if !signal.Type.IsEntry() {
		// Reducing exposure is always allowed.
		return pass()
	}

	total := portfolio.TotalValue
	if total.LessThanOrEqual(decimal.Zero) {
		return deny(ReasonAllocation, "portfolio has no value to allocate")
	}

	margin := signal.Margin()
	ratio := margin.Div(total)
	if ratio.GreaterThan(params.MaxPositionSize) {
		return deny(ReasonAllocation,
			"margin ratio "+ratio.Round(4).String()+" exceeds max position size "+params.MaxPositionSize.String())
	}

	notional := signal.SuggestedPrice.Mul(signal.SuggestedAmount)
	if params.MaxSingleTrade.IsPositive() && notional.GreaterThan(params.MaxSingleTrade) {
		return deny(ReasonSingleTrade,
			"notional "+notional.String()+" exceeds max single trade "+params.MaxSingleTrade.String())
	}

	if params.MaxDailyLoss.IsPositive() {
		lossRatio := portfolio.DailyPnL.Div(total)
		if lossRatio.LessThanOrEqual(params.MaxDailyLoss.Neg()) {
			return deny(ReasonDailyLoss,
				"daily pnl ratio "+lossRatio.Round(4).String()+" breaches max daily loss "+params.MaxDailyLoss.String())
		}
	}

	if params.MaxDrawdown.IsPositive() && portfolio.PeakValue.IsPositive() {
		drawdown := portfolio.PeakValue.Sub(total).Div(portfolio.PeakValue)
		if drawdown.GreaterThanOrEqual(params.MaxDrawdown) {
			return deny(ReasonDrawdown,
				"drawdown "+drawdown.Round(4).String()+" breaches max drawdown "+params.MaxDrawdown.String())
		}
	}

	if params.MaxOpenPositions > 0 {
		if _, open := portfolio.Position(signal.Symbol); !open && len(portfolio.Positions) >= params.MaxOpenPositions {
			return deny(ReasonMaxPositions, "open position count at limit")
		}
	}

	return pass()
}

// CheckPositionRisk evaluates whether the current price has crossed
// the position's protective thresholds, direction-aware. A trigger
// yields a close-position recommendation, not an action.
func (m *Manager) CheckPositionRisk(position model.Position, currentPrice decimal.Decimal) CheckResult {
	if currentPrice.LessThanOrEqual(decimal.Zero) {
		return pass()
	}

	long := position.Side == enum.PositionSideLong
	if position.StopLoss.IsPositive() {
		triggered := (long && currentPrice.LessThanOrEqual(position.StopLoss)) ||
			(!long && currentPrice.GreaterThanOrEqual(position.StopLoss))
		if triggered {
			result := deny(ReasonStopLoss, "price "+currentPrice.String()+" crossed stop loss "+position.StopLoss.String())
			result.Adjustment = &Adjustment{Action: ActionClosePosition}
			return result
		}
	}
	if position.TakeProfit.IsPositive() {
		triggered := (long && currentPrice.GreaterThanOrEqual(position.TakeProfit)) ||
			(!long && currentPrice.LessThanOrEqual(position.TakeProfit))
		if triggered {
			result := deny(ReasonTakeProfit, "price "+currentPrice.String()+" crossed take profit "+position.TakeProfit.String())
			result.Adjustment = &Adjustment{Action: ActionClosePosition}
			return result
		}
	}

	return pass()
}

// ProtectivePrices are the absolute stop-loss/take-profit levels
// derived from percentage parameters.
type ProtectivePrices struct {
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal
}

// StopLossTakeProfit derives absolute protective prices from the
// percentage parameters, direction-aware and rounded to a fixed
// precision for deterministic comparison later.
func (m *Manager) StopLossTakeProfit(entryPrice decimal.Decimal, side enum.PositionSide, params Parameters) ProtectivePrices {
	hundred := decimal.NewFromInt(100)
	slFrac := params.StopLossPercentage.Div(hundred)
	tpFrac := params.TakeProfitPercentage.Div(hundred)

	var stop, take decimal.Decimal
	switch side {
	case enum.PositionSideShort:
		stop = entryPrice.Mul(decimal.NewFromInt(1).Add(slFrac))
		take = entryPrice.Mul(decimal.NewFromInt(1).Sub(tpFrac))
	default:
		stop = entryPrice.Mul(decimal.NewFromInt(1).Sub(slFrac))
		take = entryPrice.Mul(decimal.NewFromInt(1).Add(tpFrac))
	}

	prices := ProtectivePrices{}
	if params.StopLossPercentage.IsPositive() {
		prices.StopLoss = stop.Round(protectivePrecision)
	}
	if params.TakeProfitPercentage.IsPositive() {
		prices.TakeProfit = take.Round(protectivePrecision)
	}
	return prices
}
