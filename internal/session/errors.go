package session

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfOrder = errors.New("previous slot is empty")
	ErrSlotRange  = errors.New("slot index out of range")
)

// SlotError reports an attempt to fill a slot whose predecessor is empty.
type SlotError struct {
	Index int
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("slot %d: %v", e.Index, ErrOutOfOrder)
}

func (e *SlotError) Unwrap() error {
	return ErrOutOfOrder
}
