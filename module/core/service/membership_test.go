package service

import (
	"testing"
	"time"

	"github.com/pidulll/capstone/module/core/domain"
)

func TestMembershipTracker_StartsUnknown(t *testing.T) {
	tr := NewMembershipTracker()
	if tr.Status() != domain.StatusUnknown {
		t.Fatalf("expected unknown, got %s", tr.Status())
	}
}

func TestMembershipTracker_FirstEvaluationIsSilent(t *testing.T) {
	for _, contained := range [][]string{nil, {"home"}} {
		tr := NewMembershipTracker()
		if ev := tr.Evaluate(contained, true, time.Now()); ev != nil {
			t.Fatalf("expected no event on first evaluation, got %+v", ev)
		}
	}
}

func TestMembershipTracker_Transitions(t *testing.T) {
	ts := time.UnixMilli(1715003456000)
	tests := []struct {
		name      string
		prev      []string
		contained []string
		wantKind  domain.GeofenceEventType
		wantZone  string
		wantEvent bool
	}{
		{"outside to inside", nil, []string{"school", "home"}, domain.GeofenceEntry, "school", true},
		{"inside to outside", []string{"home"}, nil, domain.GeofenceExit, "", true},
		{"outside to outside", nil, nil, "", "", false},
		{"inside to inside same zone", []string{"home"}, []string{"home"}, "", "", false},
		{"inside to inside other zone", []string{"home"}, []string{"school"}, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewMembershipTracker()
			tr.Evaluate(tt.prev, true, ts)

			ev := tr.Evaluate(tt.contained, true, ts)
			if (ev != nil) != tt.wantEvent {
				t.Fatalf("event = %+v, wantEvent %v", ev, tt.wantEvent)
			}
			if ev == nil {
				return
			}
			if ev.Event != tt.wantKind {
				t.Errorf("expected %s, got %s", tt.wantKind, ev.Event)
			}
			if ev.ZoneID != tt.wantZone {
				t.Errorf("expected zone %q, got %q", tt.wantZone, ev.ZoneID)
			}
			if !ev.OccurredAt.Equal(ts) {
				t.Errorf("expected %v, got %v", ts, ev.OccurredAt)
			}
		})
	}
}

func TestMembershipTracker_ResetOnNoActiveZones(t *testing.T) {
	tr := NewMembershipTracker()
	tr.Evaluate(nil, true, time.Now())
	tr.Evaluate([]string{"home"}, true, time.Now())
	if tr.LastEnteredZoneID() != "home" {
		t.Fatalf("expected last entered home, got %q", tr.LastEnteredZoneID())
	}

	if ev := tr.Evaluate(nil, false, time.Now()); ev != nil {
		t.Fatalf("expected no event on reset, got %+v", ev)
	}
	if tr.Status() != domain.StatusUnknown {
		t.Fatalf("expected unknown after reset, got %s", tr.Status())
	}
	if tr.LastEnteredZoneID() != "" {
		t.Fatalf("expected last entered cleared, got %q", tr.LastEnteredZoneID())
	}

	// first observation after a reset has nothing to transition from
	if ev := tr.Evaluate(nil, true, time.Now()); ev != nil {
		t.Fatalf("expected no event after reset, got %+v", ev)
	}
	if tr.Status() != domain.StatusOutside {
		t.Fatalf("expected outside, got %s", tr.Status())
	}
}

func TestMembershipTracker_RepeatedCallsDoNotRefire(t *testing.T) {
	tr := NewMembershipTracker()
	tr.Evaluate(nil, true, time.Now())

	events := 0
	for i := 0; i < 5; i++ {
		if ev := tr.Evaluate([]string{"home"}, true, time.Now()); ev != nil {
			events++
		}
	}
	if events != 1 {
		t.Fatalf("expected exactly 1 event, got %d", events)
	}
}
