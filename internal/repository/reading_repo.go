package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"sensor_fleet/internal/models"
)

type ReadingSQLite struct {
	db *sql.DB
}

func NewReadingSQLite(db *sql.DB) *ReadingSQLite {
	return &ReadingSQLite{db: db}
}

const (
	insertReadingSQL = `
		INSERT INTO readings (sensor_id, sensor_name, location, temperature, smoothed_value, quality_score,
			is_spike, is_faulty, is_valid, is_anomaly, threshold_exceeded, alert_type, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectRecentReadingsSQL = `
		SELECT sensor_id, sensor_name, location, temperature, smoothed_value, quality_score,
			is_spike, is_faulty, is_valid, is_anomaly, threshold_exceeded, alert_type, recorded_at
		FROM readings WHERE sensor_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`

	// min/max/avg temperature only consider clean readings
	selectStatsSQL = `
		SELECT
			COUNT(*),
			COALESCE(MIN(CASE WHEN is_valid AND NOT is_spike AND NOT is_faulty THEN temperature END), 0),
			COALESCE(MAX(CASE WHEN is_valid AND NOT is_spike AND NOT is_faulty THEN temperature END), 0),
			COALESCE(AVG(CASE WHEN is_valid AND NOT is_spike AND NOT is_faulty THEN temperature END), 0),
			COALESCE(AVG(quality_score), 0),
			COALESCE(SUM(CASE WHEN is_anomaly THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_spike THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_faulty THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_valid THEN 0 ELSE 1 END), 0)
		FROM readings`

	pruneReadingsSQL = `DELETE FROM readings WHERE recorded_at < ?`
)

// Save inserts a finished reading. A zero timestamp is stamped with now.
func (r *ReadingSQLite) Save(ctx context.Context, rd models.Reading) error {
	ts := rd.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := r.db.ExecContext(ctx, insertReadingSQL,
		rd.SensorID,
		rd.SensorName,
		rd.Location,
		rd.Temperature,
		rd.SmoothedValue,
		rd.QualityScore,
		rd.IsSpike,
		rd.IsFaulty,
		rd.IsValid,
		rd.IsAnomaly,
		rd.ThresholdExceeded,
		rd.AlertType.String(),
		ts.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save reading for %q: %w", rd.SensorName, err)
	}
	return nil
}

// Recent returns up to limit readings for sensorID, newest first.
func (r *ReadingSQLite) Recent(ctx context.Context, sensorID string, limit int) ([]models.Reading, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, selectRecentReadingsSQL, sensorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Reading, 0, limit)
	for rows.Next() {
		var (
			rd    models.Reading
			alert string
		)
		if err := rows.Scan(
			&rd.SensorID, &rd.SensorName, &rd.Location,
			&rd.Temperature, &rd.SmoothedValue, &rd.QualityScore,
			&rd.IsSpike, &rd.IsFaulty, &rd.IsValid, &rd.IsAnomaly, &rd.ThresholdExceeded,
			&alert, &rd.Timestamp,
		); err != nil {
			return nil, err
		}
		if rd.AlertType, err = models.ParseAlertType(alert); err != nil {
			return nil, err
		}
		rd.Timestamp = rd.Timestamp.UTC()
		out = append(out, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats aggregates a sensor's readings within [from, to]; zero bounds are open.
func (r *ReadingSQLite) Stats(ctx context.Context, sensorID string, from, to time.Time) (models.SensorStats, error) {
	conds := []string{"sensor_id = ?"}
	args := []any{sensorID}
	if !from.IsZero() {
		conds = append(conds, "recorded_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "recorded_at <= ?")
		args = append(args, to.UTC())
	}
	q := selectStatsSQL + " WHERE " + strings.Join(conds, " AND ")

	st := models.SensorStats{SensorID: sensorID, From: from, To: to}
	err := r.db.QueryRowContext(ctx, q, args...).Scan(
		&st.Count,
		&st.MinTemp,
		&st.MaxTemp,
		&st.AvgTemp,
		&st.AvgQuality,
		&st.AnomalyCount,
		&st.SpikeCount,
		&st.FaultCount,
		&st.InvalidCount,
	)
	if err != nil {
		return models.SensorStats{}, fmt.Errorf("stats for %q: %w", sensorID, err)
	}
	return st, nil
}

// Prune deletes readings recorded before the cutoff and reports how many went.
func (r *ReadingSQLite) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, pruneReadingsSQL, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
