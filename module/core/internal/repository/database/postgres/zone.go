package postgres

import (
	"context"
	"database/sql"
	"log"

	"github.com/pidulll/capstone/module/core/domain"
	"github.com/pidulll/capstone/module/core/internal/repository/database"
)

var _ database.ZoneRepository = (*ZoneRepo)(nil)

const zoneColumns = `id, device_id, name, latitude, longitude, radius_m, is_active, created_at`

type ZoneRepo struct {
	db        *sql.DB
	onInvalid database.InvalidZoneFunc
}

// NewZoneRepo returns a zone store over safe_zones. onInvalid may be nil.
func NewZoneRepo(db *sql.DB, onInvalid database.InvalidZoneFunc) *ZoneRepo {
	return &ZoneRepo{db: db, onInvalid: onInvalid}
}

// GetActiveZones drops rows that fail validation so one bad zone cannot
// block evaluation of the rest.
func (r *ZoneRepo) GetActiveZones(ctx context.Context, deviceID string) ([]domain.Geofence, error) {
	zones, err := r.query(ctx,
		`SELECT `+zoneColumns+` FROM safe_zones WHERE device_id = $1 AND is_active ORDER BY created_at ASC, id ASC`,
		deviceID,
	)
	if err != nil {
		return nil, err
	}

	valid := zones[:0]
	for _, z := range zones {
		if err := z.Validate(); err != nil {
			log.Printf("safe_zones: %v", err)
			if r.onInvalid != nil {
				r.onInvalid(z, err)
			}
			continue
		}
		valid = append(valid, z)
	}
	return valid, nil
}

func (r *ZoneRepo) ListZones(ctx context.Context, deviceID string) ([]domain.Geofence, error) {
	return r.query(ctx,
		`SELECT `+zoneColumns+` FROM safe_zones WHERE device_id = $1 ORDER BY created_at ASC, id ASC`,
		deviceID,
	)
}

func (r *ZoneRepo) SetActive(ctx context.Context, deviceID, zoneID string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE safe_zones SET is_active = $3 WHERE device_id = $1 AND id = $2`,
		deviceID, zoneID, active,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrZoneNotFound
	}
	return nil
}

func (r *ZoneRepo) query(ctx context.Context, q string, args ...any) ([]domain.Geofence, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Geofence
	for rows.Next() {
		var z domain.Geofence
		if err := rows.Scan(&z.ID, &z.DeviceID, &z.Name, &z.Center.Lat, &z.Center.Lon, &z.Radius, &z.IsActive, &z.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, z)
	}
	return results, rows.Err()
}
