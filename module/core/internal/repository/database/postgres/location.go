package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pidulll/capstone/module/core/domain"
	"github.com/pidulll/capstone/module/core/internal/repository/database"
)

var _ database.LocationRepository = (*LocationRepo)(nil)

type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

func (r *LocationRepo) Insert(ctx context.Context, loc *domain.DeviceLocation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO device_locations (device_id, latitude, longitude, captured_at) VALUES ($1, $2, $3, $4)`,
		loc.DeviceID, loc.Sample.Coordinate.Lat, loc.Sample.Coordinate.Lon, loc.Sample.Timestamp,
	)
	return err
}

// GetLatest returns the most recently received sample. Arrival order wins
// over capture time so a delayed fix is still treated as current.
func (r *LocationRepo) GetLatest(ctx context.Context, deviceID string) (*domain.LocationSample, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT latitude, longitude, captured_at FROM device_locations WHERE device_id = $1 ORDER BY received_at DESC, id DESC LIMIT 1`,
		deviceID,
	)

	var s domain.LocationSample
	if err := row.Scan(&s.Coordinate.Lat, &s.Coordinate.Lon, &s.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *LocationRepo) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.DeviceLocation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT device_id, latitude, longitude, captured_at FROM device_locations WHERE device_id = $1 AND captured_at >= $2 AND captured_at <= $3 ORDER BY captured_at ASC`,
		query.DeviceID, query.Start, query.End,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.DeviceLocation
	for rows.Next() {
		var dl domain.DeviceLocation
		if err := rows.Scan(&dl.DeviceID, &dl.Sample.Coordinate.Lat, &dl.Sample.Coordinate.Lon, &dl.Sample.Timestamp); err != nil {
			return nil, err
		}
		results = append(results, dl)
	}
	return results, rows.Err()
}

func (r *LocationRepo) GetAllDevices(ctx context.Context) ([]domain.Device, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT device_id FROM device_locations ORDER BY device_id`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.DeviceID); err != nil {
			return nil, err
		}
		results = append(results, d)
	}
	return results, rows.Err()
}
