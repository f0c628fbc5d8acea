// Package model defines data structures for the JusticeHub platform.
package model

import (
	"fmt"
	"strings"
)

// Status is the lifecycle tag shared by appointments and consultations.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	if !st.Valid() {
		return "", fmt.Errorf("invalid status %q: must be one of pending, confirmed, completed, cancelled", s)
	}
	return st, nil
}

// Valid reports whether s is one of the four lifecycle values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further lifecycle step follows s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// TransitionPolicy decides which status may follow which.
type TransitionPolicy string

const (
	// TransitionsOpen lets any status follow any other.
	TransitionsOpen   TransitionPolicy = "open"
	// TransitionsStrict only allows forward lifecycle steps.
	TransitionsStrict TransitionPolicy = "strict"
)

// ParseTransitionPolicy maps a config value to a policy. Unknown values are open.
func ParseTransitionPolicy(s string) TransitionPolicy {
	if strings.EqualFold(strings.TrimSpace(s), string(TransitionsStrict)) {
		return TransitionsStrict
	}
	return TransitionsOpen
}

var forward = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// Allows reports whether the policy permits moving from one status to another.
// Rewriting the current status is always allowed.
func (p TransitionPolicy) Allows(from, to Status) bool {
	if !to.Valid() {
		return false
	}
	if p != TransitionsStrict || from == to {
		return true
	}
	for _, next := range forward[from] {
		if next == to {
			return true
		}
	}
	return false
}
