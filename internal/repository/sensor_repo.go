package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sensor_fleet/internal/models"
)

type SensorSQLite struct {
	db *sql.DB
}

func NewSensorSQLite(db *sql.DB) *SensorSQLite {
	return &SensorSQLite{db: db}
}

const (
	upsertSensorSQL = `
		INSERT INTO sensors (id, name, location, min_value, max_value, normal_min, normal_max,
			noise_range, fault_probability, spike_probability, is_faulty, is_offline, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			location=excluded.location,
			min_value=excluded.min_value,
			max_value=excluded.max_value,
			normal_min=excluded.normal_min,
			normal_max=excluded.normal_max,
			noise_range=excluded.noise_range,
			fault_probability=excluded.fault_probability,
			spike_probability=excluded.spike_probability,
			is_offline=excluded.is_offline,
			updated_at=excluded.updated_at
		RETURNING id, is_faulty, created_at
	`

	setSensorFaultySQL  = `UPDATE sensors SET is_faulty = ?, updated_at = ? WHERE id = ?`
	setSensorOfflineSQL = `UPDATE sensors SET is_offline = ?, updated_at = ? WHERE id = ?`

	selectSensorsSQL = `
		SELECT id, name, location, min_value, max_value, normal_min, normal_max,
			noise_range, fault_probability, spike_probability, is_faulty, is_offline, created_at, updated_at
		FROM sensors ORDER BY name ASC
	`
)

// Upsert writes s keyed by name. An existing row keeps its id, created_at and
// is_faulty; calibration, is_offline and updated_at are overwritten.
func (r *SensorSQLite) Upsert(ctx context.Context, s models.Sensor) (models.Sensor, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	row := r.db.QueryRowContext(ctx, upsertSensorSQL,
		s.ID, s.Name, s.Location,
		s.MinValue, s.MaxValue, s.NormalMin, s.NormalMax,
		s.NoiseRange, s.FaultProbability, s.SpikeProbability,
		s.IsFaulty, s.IsOffline,
		s.CreatedAt.UTC(), s.UpdatedAt,
	)
	if err := row.Scan(&s.ID, &s.IsFaulty, &s.CreatedAt); err != nil {
		return models.Sensor{}, fmt.Errorf("upsert sensor %q: %w", s.Name, err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

func (r *SensorSQLite) SetFaulty(ctx context.Context, id string, faulty bool) error {
	return r.exec(ctx, setSensorFaultySQL, id, faulty)
}

func (r *SensorSQLite) SetOffline(ctx context.Context, id string, offline bool) error {
	return r.exec(ctx, setSensorOfflineSQL, id, offline)
}

func (r *SensorSQLite) exec(ctx context.Context, query, id string, flag bool) error {
	res, err := r.db.ExecContext(ctx, query, flag, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("sensor %q: %w", id, sql.ErrNoRows)
	}
	return nil
}

// List returns all sensors ordered by name, offline ones included.
func (r *SensorSQLite) List(ctx context.Context) ([]models.Sensor, error) {
	rows, err := r.db.QueryContext(ctx, selectSensorsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Sensor
	for rows.Next() {
		var s models.Sensor
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Location,
			&s.MinValue, &s.MaxValue, &s.NormalMin, &s.NormalMax,
			&s.NoiseRange, &s.FaultProbability, &s.SpikeProbability,
			&s.IsFaulty, &s.IsOffline, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		s.CreatedAt = s.CreatedAt.UTC()
		s.UpdatedAt = s.UpdatedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}
