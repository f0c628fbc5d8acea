// Package service implements JusticeHub business logic on top of the store,
// cache, messaging and LLM layers.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/justicehub/platform/internal/store"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrRateLimited       = errors.New("rate limited")
	ErrUpstream          = errors.New("upstream failure")
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// storeErr maps store sentinels onto service sentinels, labelling not-found
// errors with what was missing.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
