package view

import (
	"errors"
	"fmt"
)

// ErrUnknownModification is returned when decoding an unrecognized edit symbol.
var ErrUnknownModification = errors.New("unknown modification")

// Modification is the polarity of an edit event.
type Modification int

// Modifications.
const (
	Add Modification = iota
	Remove
)

// Wire symbols.
const (
	symbolAdd    = "+"
	symbolRemove = "-"
)

// Symbol returns the wire symbol, "+" or "-".
func (m Modification) Symbol() string {
	if m == Remove {
		return symbolRemove
	}

	return symbolAdd
}

func (m Modification) String() string {
	if m == Remove {
		return "remove"
	}

	return "add"
}

// MarshalText implements encoding.TextMarshaler.
func (m Modification) MarshalText() ([]byte, error) {
	return []byte(m.Symbol()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Modification) UnmarshalText(text []byte) error {
	switch string(text) {
	case symbolAdd:
		*m = Add
	case symbolRemove:
		*m = Remove
	default:
		return fmt.Errorf("%w: %q", ErrUnknownModification, text)
	}

	return nil
}
