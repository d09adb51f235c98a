package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidGeofence = errors.New("invalid geofence")

// Geofence is a circular safe zone owned by a single device.
type Geofence struct {
	ID        string     `json:"id"`
	DeviceID  string     `json:"device_id"`
	Name      string     `json:"name"`
	Center    Coordinate `json:"center"`
	Radius    float64    `json:"radius"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}

func (g Geofence) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("%w: id required", ErrInvalidGeofence)
	}
	if math.IsNaN(g.Radius) || math.IsInf(g.Radius, 0) || g.Radius <= 0 {
		return fmt.Errorf("%w: zone %s: radius must be positive, got %v", ErrInvalidGeofence, g.ID, g.Radius)
	}
	if err := g.Center.Validate(); err != nil {
		return fmt.Errorf("%w: zone %s: center %v", ErrInvalidGeofence, g.ID, err)
	}
	return nil
}

type GeofenceEventType string

const (
	GeofenceEntry GeofenceEventType = "geofence_entry"
	GeofenceExit  GeofenceEventType = "geofence_exit"
)

// TransitionEvent is emitted once per change of aggregate membership.
// ZoneID is only set for GeofenceEntry.
type TransitionEvent struct {
	ID         string            `json:"id"`
	DeviceID   string            `json:"device_id"`
	Event      GeofenceEventType `json:"event"`
	ZoneID     string            `json:"zone_id,omitempty"`
	Location   Coordinate        `json:"location"`
	OccurredAt time.Time         `json:"occurred_at"`
}

var ErrZoneNotFound = errors.New("zone not found")
