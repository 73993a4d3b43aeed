package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStatus marks a status value outside the allowed set.
	ErrInvalidStatus = errors.New("invalid order status")

	// ErrInvalidTransition marks a transition requested from a terminal
	// state or one that would move an order backwards.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// LedgerError wraps a persistence failure on the commission ledger itself.
// These are critical: the transition must abort so order state never claims
// rewards that were not written.
type LedgerError struct {
	Op  string
	Err error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("commission ledger %s: %v", e.Op, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}
