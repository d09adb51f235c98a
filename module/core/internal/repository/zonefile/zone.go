package zonefile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pidulll/capstone/module/core/domain"
	"github.com/pidulll/capstone/module/core/internal/repository/database"
)

var _ database.ZoneRepository = (*ZoneRepo)(nil)

var errMissingDevice = errors.New("device_id is required")

type file struct {
	Zones []zoneEntry `yaml:"zones"`
}

type zoneEntry struct {
	ID       string            `yaml:"id"`
	DeviceID string            `yaml:"device_id"`
	Name     string            `yaml:"name"`
	Center   domain.Coordinate `yaml:"center"`
	Radius   float64           `yaml:"radius"`
	Active   *bool             `yaml:"active"`
}

// ZoneRepo serves safe zones declared in a YAML file. Zones keep file order.
// Toggles are held in memory only.
type ZoneRepo struct {
	mu    sync.RWMutex
	zones []domain.Geofence
}

// Load reads and parses a zone file. Entries that fail validation are
// skipped and reported to onInvalid, which may be nil.
func Load(path string, onInvalid database.InvalidZoneFunc) (*ZoneRepo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw, onInvalid)
}

func Parse(raw []byte, onInvalid database.InvalidZoneFunc) (*ZoneRepo, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse zones: %w", err)
	}

	loadedAt := time.Now()
	seen := make(map[string]bool, len(f.Zones))
	zones := make([]domain.Geofence, 0, len(f.Zones))
	for i, e := range f.Zones {
		z := e.toGeofence(loadedAt.Add(time.Duration(i)))
		err := z.Validate()
		if err == nil && z.DeviceID == "" {
			err = errMissingDevice
		}
		if err != nil {
			log.Printf("zones[%d]: %v, skipping", i, err)
			if onInvalid != nil {
				onInvalid(z, err)
			}
			continue
		}
		key := z.DeviceID + "/" + z.ID
		if seen[key] {
			return nil, fmt.Errorf("zones[%d]: duplicate zone %s for device %s", i, z.ID, z.DeviceID)
		}
		seen[key] = true
		zones = append(zones, z)
	}

	return &ZoneRepo{zones: zones}, nil
}

func (e zoneEntry) toGeofence(createdAt time.Time) domain.Geofence {
	active := true
	if e.Active != nil {
		active = *e.Active
	}
	name := e.Name
	if name == "" {
		name = e.ID
	}
	return domain.Geofence{
		ID:        e.ID,
		DeviceID:  e.DeviceID,
		Name:      name,
		Center:    e.Center,
		Radius:    e.Radius,
		IsActive:  active,
		CreatedAt: createdAt,
	}
}

func (r *ZoneRepo) GetActiveZones(_ context.Context, deviceID string) ([]domain.Geofence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Geofence
	for _, z := range r.zones {
		if z.DeviceID == deviceID && z.IsActive {
			out = append(out, z)
		}
	}
	return out, nil
}

func (r *ZoneRepo) ListZones(_ context.Context, deviceID string) ([]domain.Geofence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Geofence
	for _, z := range r.zones {
		if z.DeviceID == deviceID {
			out = append(out, z)
		}
	}
	return out, nil
}

func (r *ZoneRepo) SetActive(_ context.Context, deviceID, zoneID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.zones {
		if r.zones[i].DeviceID == deviceID && r.zones[i].ID == zoneID {
			r.zones[i].IsActive = active
			return nil
		}
	}
	return domain.ErrZoneNotFound
}
