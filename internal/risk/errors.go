package risk

import "github.com/yanun0323/errors"

var (
	errParamMaxPositionSize  = errors.New("risk: maxPositionSize must be in (0, 1]")
	errParamMaxSingleTrade   = errors.New("risk: maxSingleTrade must be >= 0")
	errParamMaxDailyLoss     = errors.New("risk: maxDailyLoss must be in [0, 1]")
	errParamMaxDrawdown      = errors.New("risk: maxDrawdown must be in [0, 1]")
	errParamProtectivePct    = errors.New("risk: stop loss / take profit percentages must be >= 0")
	errParamMaxOpenPositions = errors.New("risk: maxOpenPositions must be >= 0")
)
