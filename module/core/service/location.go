package service

import (
	"context"
	"fmt"

	"github.com/pidulll/capstone/module/core/domain"
	"github.com/pidulll/capstone/module/core/internal/repository/database"
)

type LocationService struct {
	repo database.LocationRepository
}

func NewLocationService(repo database.LocationRepository) *LocationService {
	return &LocationService{repo: repo}
}

// SaveLocation stores a fix. Samples without a device id or with coordinates
// off the globe are rejected with ErrInvalidLocation.
func (s *LocationService) SaveLocation(ctx context.Context, dl *domain.DeviceLocation) error {
	if dl.DeviceID == "" {
		return fmt.Errorf("%w: device_id required", domain.ErrInvalidLocation)
	}
	if err := dl.Sample.Coordinate.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidLocation, err)
	}
	return s.repo.Insert(ctx, dl)
}

func (s *LocationService) GetLatest(ctx context.Context, deviceID string) (*domain.LocationSample, error) {
	return s.repo.GetLatest(ctx, deviceID)
}

func (s *LocationService) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.DeviceLocation, error) {
	if query.End.Before(query.Start) {
		return nil, fmt.Errorf("%w: end before start", domain.ErrInvalidRange)
	}
	return s.repo.GetHistory(ctx, query)
}

func (s *LocationService) GetAllDevices(ctx context.Context) ([]domain.Device, error) {
	return s.repo.GetAllDevices(ctx)
}
