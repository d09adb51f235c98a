package domain

import "time"

type MembershipStatus string

const (
	StatusUnknown MembershipStatus = "unknown"
	StatusInside  MembershipStatus = "inside"
	StatusOutside MembershipStatus = "outside"
)

type MembershipSnapshot struct {
	DeviceID          string           `json:"device_id"`
	Status            MembershipStatus `json:"status"`
	LastEnteredZoneID string           `json:"last_entered_zone_id,omitempty"`
	ContainedZoneIDs  []string         `json:"contained_zone_ids"`
	EvaluatedAt       time.Time        `json:"evaluated_at"`
}
