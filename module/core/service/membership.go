package service

import (
	"time"

	"github.com/pidulll/capstone/module/core/domain"
)

// MembershipTracker holds the aggregate inside/outside status of one device
// between evaluation cycles. It is not safe for concurrent use.
type MembershipTracker struct {
	previous      domain.MembershipStatus
	lastEnteredID string
}

// NewMembershipTracker returns a tracker in the unknown state.
func NewMembershipTracker() *MembershipTracker {
	return &MembershipTracker{previous: domain.StatusUnknown}
}

// Evaluate folds one cycle's containment result into the tracker and returns
// a transition event when the aggregate status changed between two known
// states. contained must be in caller-defined zone order; an entry event is
// attributed to its first element.
func (t *MembershipTracker) Evaluate(contained []string, hasActiveZones bool, at time.Time) *domain.TransitionEvent {
	if !hasActiveZones {
		t.previous = domain.StatusUnknown
		t.lastEnteredID = ""
		return nil
	}

	current := domain.StatusOutside
	if len(contained) > 0 {
		current = domain.StatusInside
	}

	prev := t.previous
	t.previous = current

	if current == domain.StatusInside && prev != domain.StatusInside {
		t.lastEnteredID = contained[0]
	}

	switch {
	case prev == domain.StatusOutside && current == domain.StatusInside:
		return &domain.TransitionEvent{
			Event:      domain.GeofenceEntry,
			ZoneID:     contained[0],
			OccurredAt: at,
		}
	case prev == domain.StatusInside && current == domain.StatusOutside:
		return &domain.TransitionEvent{
			Event:      domain.GeofenceExit,
			OccurredAt: at,
		}
	}
	return nil
}

// Status is the aggregate status recorded by the last Evaluate.
func (t *MembershipTracker) Status() domain.MembershipStatus {
	return t.previous
}

// LastEnteredZoneID is the zone the device was first attributed to when it
// last became inside. Empty after a reset.
func (t *MembershipTracker) LastEnteredZoneID() string {
	return t.lastEnteredID
}
