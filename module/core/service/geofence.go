package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pidulll/capstone/module/core/domain"
	"github.com/pidulll/capstone/module/core/internal/repository/database"
)

var (
	ErrZoneFetch     = errors.New("zone fetch failed")
	ErrLocationFetch = errors.New("location fetch failed")
)

// AlertSink receives transition events. Notify must not block.
type AlertSink interface {
	Notify(event domain.TransitionEvent)
}

type deviceEvaluator struct {
	mu          sync.Mutex
	evaluator   *GeofenceEvaluator
	evaluatedAt time.Time
}

// GeofenceService owns one evaluator per device and serializes every cycle
// for a device behind that device's lock, whichever trigger started it.
type GeofenceService struct {
	zones     database.ZoneRepository
	locations database.LocationRepository
	alerts    AlertSink
	metrics   Metrics
	now       func() time.Time
	newID     func() string

	mu      sync.Mutex
	devices map[string]*deviceEvaluator
}

// NewGeofenceService wires the stores, alert sink and metrics. A nil metrics
// disables counting.
func NewGeofenceService(zones database.ZoneRepository, locations database.LocationRepository, alerts AlertSink, metrics Metrics) *GeofenceService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &GeofenceService{
		zones:     zones,
		locations: locations,
		alerts:    alerts,
		metrics:   metrics,
		now:       time.Now,
		newID:     uuid.NewString,
		devices:   make(map[string]*deviceEvaluator),
	}
}

// EvaluateDevice fetches the device's zones and latest location and runs one
// cycle. Fetch failures are returned wrapped in ErrZoneFetch or
// ErrLocationFetch and leave membership untouched.
func (s *GeofenceService) EvaluateDevice(ctx context.Context, deviceID string) (*domain.TransitionEvent, error) {
	de := s.device(deviceID)
	de.mu.Lock()
	defer de.mu.Unlock()

	zones, err := s.fetchZones(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	loc, err := s.locations.GetLatest(ctx, deviceID)
	if err != nil {
		s.metrics.IncFetchFailure("location")
		return nil, fmt.Errorf("%w: device %s: %w", ErrLocationFetch, deviceID, err)
	}

	return s.run(de, deviceID, loc, zones), nil
}

// EvaluateSample runs one cycle for a location pushed by the device.
func (s *GeofenceService) EvaluateSample(ctx context.Context, deviceID string, sample domain.LocationSample) (*domain.TransitionEvent, error) {
	de := s.device(deviceID)
	de.mu.Lock()
	defer de.mu.Unlock()

	zones, err := s.fetchZones(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	return s.run(de, deviceID, &sample, zones), nil
}

// Snapshot returns the device's membership as of its last cycle, and false
// when the device has never been evaluated.
func (s *GeofenceService) Snapshot(deviceID string) (domain.MembershipSnapshot, bool) {
	s.mu.Lock()
	de, ok := s.devices[deviceID]
	s.mu.Unlock()
	if !ok {
		return domain.MembershipSnapshot{}, false
	}

	de.mu.Lock()
	defer de.mu.Unlock()
	return domain.MembershipSnapshot{
		DeviceID:          deviceID,
		Status:            de.evaluator.Status(),
		LastEnteredZoneID: de.evaluator.LastEnteredZoneID(),
		ContainedZoneIDs:  de.evaluator.Contained(),
		EvaluatedAt:       de.evaluatedAt,
	}, true
}

// Forget resets the device's membership to unknown; the next cycle starts
// without history. It waits for an in-flight cycle and keeps the device's
// lock, so later cycles stay serialized with any that are still queued.
// It reports whether the device had been evaluated before.
func (s *GeofenceService) Forget(deviceID string) bool {
	s.mu.Lock()
	de, ok := s.devices[deviceID]
	s.mu.Unlock()
	if !ok {
		return false
	}

	de.mu.Lock()
	defer de.mu.Unlock()
	de.evaluator = s.newEvaluator(deviceID)
	de.evaluatedAt = time.Time{}
	return true
}

func (s *GeofenceService) device(deviceID string) *deviceEvaluator {
	s.mu.Lock()
	defer s.mu.Unlock()

	de, ok := s.devices[deviceID]
	if !ok {
		de = &deviceEvaluator{evaluator: s.newEvaluator(deviceID)}
		s.devices[deviceID] = de
	}
	return de
}

func (s *GeofenceService) newEvaluator(deviceID string) *GeofenceEvaluator {
	ev := NewGeofenceEvaluator(NewMembershipTracker())
	ev.onInvalidZone = func(zone domain.Geofence, err error) {
		s.metrics.IncInvalidZone()
		log.Printf("device %s: skipping zone %s: %v", deviceID, zone.ID, err)
	}
	return ev
}

func (s *GeofenceService) fetchZones(ctx context.Context, deviceID string) ([]domain.Geofence, error) {
	zones, err := s.zones.GetActiveZones(ctx, deviceID)
	if err != nil {
		s.metrics.IncFetchFailure("zones")
		return nil, fmt.Errorf("%w: device %s: %w", ErrZoneFetch, deviceID, err)
	}
	return zones, nil
}

func (s *GeofenceService) run(de *deviceEvaluator, deviceID string, loc *domain.LocationSample, zones []domain.Geofence) *domain.TransitionEvent {
	event := de.evaluator.EvaluateCycle(loc, zones)
	de.evaluatedAt = s.now()
	s.metrics.IncCycles()
	if event == nil {
		return nil
	}

	event.ID = s.newID()
	event.DeviceID = deviceID
	s.metrics.IncTransition(event.Event)
	log.Printf("device %s: %s zone=%q", deviceID, event.Event, event.ZoneID)

	if s.alerts != nil {
		s.alerts.Notify(*event)
	}
	return event
}
