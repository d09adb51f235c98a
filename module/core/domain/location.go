package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidLocation = errors.New("invalid location")
	ErrInvalidRange    = errors.New("invalid history range")
)

type Coordinate struct {
	Lat float64 `json:"latitude" yaml:"latitude"`
	Lon float64 `json:"longitude" yaml:"longitude"`
}

func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}
	return nil
}

// LocationSample is a single position fix for a tracked device. Timestamp is
// the capture time reported by the device, not the time it was received.
type LocationSample struct {
	Coordinate Coordinate `json:"coordinate"`
	Timestamp  time.Time  `json:"timestamp"`
}

type DeviceLocation struct {
	DeviceID string         `json:"device_id"`
	Sample   LocationSample `json:"sample"`
}

type Device struct {
	DeviceID string `json:"device_id"`
}

type HistoryQuery struct {
	DeviceID string
	Start    time.Time
	End      time.Time
}
