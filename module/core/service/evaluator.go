package service

import (
	"log"
	"time"

	"github.com/pidulll/capstone/module/core/domain"
)

// GeofenceEvaluator runs single evaluation cycles for one device against a
// snapshot of its zones.
type GeofenceEvaluator struct {
	tracker       *MembershipTracker
	contained     []string
	onInvalidZone func(zone domain.Geofence, err error)
}

// NewGeofenceEvaluator wraps tracker. Invalid zones are logged and skipped.
func NewGeofenceEvaluator(tracker *MembershipTracker) *GeofenceEvaluator {
	return &GeofenceEvaluator{
		tracker: tracker,
		onInvalidZone: func(zone domain.Geofence, err error) {
			log.Printf("skipping zone %s: %v", zone.ID, err)
		},
	}
}

// EvaluateCycle computes containment of location in every active, valid zone
// and asks the tracker for a transition. A nil location, or no usable active
// zone, resets the tracker to unknown without an event.
func (e *GeofenceEvaluator) EvaluateCycle(location *domain.LocationSample, zones []domain.Geofence) *domain.TransitionEvent {
	active := e.activeZones(zones)

	if location != nil {
		if err := location.Coordinate.Validate(); err != nil {
			log.Printf("ignoring location: %v", err)
			location = nil
		}
	}

	if location == nil || len(active) == 0 {
		e.contained = nil
		return e.tracker.Evaluate(nil, false, time.Time{})
	}

	contained := make([]string, 0, len(active))
	for _, zone := range active {
		if DistanceMeters(location.Coordinate, zone.Center) <= zone.Radius {
			contained = append(contained, zone.ID)
		}
	}
	e.contained = contained

	event := e.tracker.Evaluate(contained, true, location.Timestamp)
	if event != nil {
		event.Location = location.Coordinate
	}
	return event
}

func (e *GeofenceEvaluator) activeZones(zones []domain.Geofence) []domain.Geofence {
	active := make([]domain.Geofence, 0, len(zones))
	for _, zone := range zones {
		if !zone.IsActive {
			continue
		}
		if err := zone.Validate(); err != nil {
			if e.onInvalidZone != nil {
				e.onInvalidZone(zone, err)
			}
			continue
		}
		active = append(active, zone)
	}
	return active
}

// Contained returns the zone ids that contained the last evaluated location.
func (e *GeofenceEvaluator) Contained() []string {
	out := make([]string, len(e.contained))
	copy(out, e.contained)
	return out
}

// Status is the tracker's aggregate status after the last cycle.
func (e *GeofenceEvaluator) Status() domain.MembershipStatus {
	return e.tracker.Status()
}

// LastEnteredZoneID is the tracker's last entry attribution.
func (e *GeofenceEvaluator) LastEnteredZoneID() string {
	return e.tracker.LastEnteredZoneID()
}
