package enum

// SignalType enter long/short, exit long/short, hold
type SignalType uint8

const (
	_signal_type_beg SignalType = iota
	SignalEnterLong
	SignalExitLong
	SignalEnterShort
	SignalExitShort
	SignalHold
	_signal_type_end
)

func (t SignalType) IsAvailable() bool {
	return t > _signal_type_beg && t < _signal_type_end
}

// IsEntry reports whether the signal opens or grows a position.
func (t SignalType) IsEntry() bool {
	return t == SignalEnterLong || t == SignalEnterShort
}

// IsExit reports whether the signal reduces or closes a position.
func (t SignalType) IsExit() bool {
	return t == SignalExitLong || t == SignalExitShort
}

// OrderSide maps the signal to the exchange order side it implies.
func (t SignalType) OrderSide() OrderSide {
	switch t {
	case SignalEnterLong, SignalExitShort:
		return OrderSideBuy
	case SignalEnterShort, SignalExitLong:
		return OrderSideSell
	default:
		return _order_side_beg
	}
}

func (t SignalType) String() string {
	switch t {
	case SignalEnterLong:
		return "enter_long"
	case SignalExitLong:
		return "exit_long"
	case SignalEnterShort:
		return "enter_short"
	case SignalExitShort:
		return "exit_short"
	case SignalHold:
		return "hold"
	default:
		return "unknown"
	}
}
