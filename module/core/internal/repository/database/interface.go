package database

import (
	"context"

	"github.com/pidulll/capstone/module/core/domain"
)

type LocationRepository interface {
	Insert(ctx context.Context, loc *domain.DeviceLocation) error
	// GetLatest returns nil, nil when the device has no recorded location.
	GetLatest(ctx context.Context, deviceID string) (*domain.LocationSample, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.DeviceLocation, error)
	GetAllDevices(ctx context.Context) ([]domain.Device, error)
}

// InvalidZoneFunc is told about every zone a store rejects at its boundary.
type InvalidZoneFunc func(zone domain.Geofence, err error)

// ZoneRepository returns zones in a stable order (creation time, then id).
type ZoneRepository interface {
	GetActiveZones(ctx context.Context, deviceID string) ([]domain.Geofence, error)
	ListZones(ctx context.Context, deviceID string) ([]domain.Geofence, error)
	SetActive(ctx context.Context, deviceID, zoneID string, active bool) error
}
