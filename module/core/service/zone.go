package service

import (
	"context"
	"log"

	"github.com/pidulll/capstone/module/core/domain"
	"github.com/pidulll/capstone/module/core/internal/repository/database"
)

// ZoneService reads and toggles zones for the HTTP API.
type ZoneService struct {
	repo     database.ZoneRepository
	geofence deviceEvaluatorService
}

// NewZoneService re-evaluates through geofence after every toggle.
func NewZoneService(repo database.ZoneRepository, geofence deviceEvaluatorService) *ZoneService {
	return &ZoneService{repo: repo, geofence: geofence}
}

func (s *ZoneService) ListZones(ctx context.Context, deviceID string) ([]domain.Geofence, error) {
	return s.repo.ListZones(ctx, deviceID)
}

// SetZoneActive toggles a zone and re-evaluates the device against the new
// zone set. A failed re-evaluation does not undo the toggle; the next poll
// picks it up.
func (s *ZoneService) SetZoneActive(ctx context.Context, deviceID, zoneID string, active bool) error {
	if err := s.repo.SetActive(ctx, deviceID, zoneID, active); err != nil {
		return err
	}

	if _, err := s.geofence.EvaluateDevice(ctx, deviceID); err != nil {
		log.Printf("re-evaluate device %s after zone %s change: %v", deviceID, zoneID, err)
	}
	return nil
}
