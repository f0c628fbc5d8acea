package service

import (
	"fmt"
	"time"

	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/pkg/metrics"
)

// transitioner applies the configured status policy. Appointments and
// consultations share it.
type transitioner struct {
	kind   string
	policy model.TransitionPolicy
	now    Clock
}

// parse validates a raw status value.
func (t *transitioner) parse(raw string) (model.Status, error) {
	st, err := model.ParseStatus(raw)
	if err != nil {
		metrics.RecordTransition(t.kind, "", "invalid", "rejected")
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return st, nil
}

// check rejects a move the policy forbids.
func (t *transitioner) check(from, to model.Status) error {
	if !t.policy.Allows(from, to) {
		metrics.RecordTransition(t.kind, string(from), string(to), "rejected")
		return fmt.Errorf("%w: %s cannot move from %s to %s", ErrInvalidTransition, t.kind, from, to)
	}
	return nil
}

// stamp returns the new updatedAt, never earlier than prev.
func (t *transitioner) stamp(prev time.Time) time.Time {
	now := t.now()
	if now.Before(prev) {
		return prev
	}
	return now
}

func (t *transitioner) applied(from, to model.Status) {
	metrics.RecordTransition(t.kind, string(from), string(to), "applied")
}
