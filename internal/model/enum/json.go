package enum

import (
	"encoding/json"
	"strconv"

	"github.com/yanun0323/errors"
)

// Enums cross the process boundary as their string names: signal
// lines coming in, journal and snapshot lines going out. Bare numbers
// are accepted too so older artifacts still replay.

func (s OrderSide) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *OrderSide) UnmarshalJSON(data []byte) error {
	name, num, err := decodeEnum(data)
	if err != nil {
		return err
	}
	if name == "" {
		*s = OrderSide(num)
		return nil
	}
	switch name {
	case "buy":
		*s = OrderSideBuy
	case "sell":
		*s = OrderSideSell
	default:
		return errors.Errorf("enum: unknown order side %q", name)
	}
	return nil
}

func (s PositionSide) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PositionSide) UnmarshalJSON(data []byte) error {
	name, num, err := decodeEnum(data)
	if err != nil {
		return err
	}
	if name == "" {
		*s = PositionSide(num)
		return nil
	}
	switch name {
	case "long":
		*s = PositionSideLong
	case "short":
		*s = PositionSideShort
	default:
		return errors.Errorf("enum: unknown position side %q", name)
	}
	return nil
}

func (t SignalType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *SignalType) UnmarshalJSON(data []byte) error {
	name, num, err := decodeEnum(data)
	if err != nil {
		return err
	}
	if name == "" {
		*t = SignalType(num)
		return nil
	}
	switch name {
	case "enter_long":
		*t = SignalEnterLong
	case "exit_long":
		*t = SignalExitLong
	case "enter_short":
		*t = SignalEnterShort
	case "exit_short":
		*t = SignalExitShort
	case "hold":
		*t = SignalHold
	default:
		return errors.Errorf("enum: unknown signal type %q", name)
	}
	return nil
}

func decodeEnum(data []byte) (name string, num uint8, err error) {
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &name); err != nil {
			return "", 0, err
		}
		return name, 0, nil
	}
	n, err := strconv.ParseUint(string(data), 10, 8)
	if err != nil {
		return "", 0, errors.Errorf("enum: malformed value %q", string(data))
	}
	return "", uint8(n), nil
}
