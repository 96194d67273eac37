package repository

import (
	"context"
	"database/sql"
	"time"

	"sensor_fleet/internal/models"
)

type SensorRepo interface {
	// Upsert inserts s or refreshes its calibration by name, returning the
	// stored identity and fault flag.
	Upsert(ctx context.Context, s models.Sensor) (models.Sensor, error)
	SetFaulty(ctx context.Context, id string, faulty bool) error
	SetOffline(ctx context.Context, id string, offline bool) error
	List(ctx context.Context) ([]models.Sensor, error)
}

type ReadingRepo interface {
	Save(ctx context.Context, r models.Reading) error
	// Recent returns at most limit readings of a sensor, most recent first.
	Recent(ctx context.Context, sensorID string, limit int) ([]models.Reading, error)
	Stats(ctx context.Context, sensorID string, from, to time.Time) (models.SensorStats, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.SensorEvent) error
	List(ctx context.Context, from, to time.Time, typ, sensor string) ([]models.SensorEvent, error)
}

type Repository struct {
	SensorRepo  SensorRepo
	ReadingRepo ReadingRepo
	EventRepo   EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		SensorRepo:  NewSensorSQLite(db),
		ReadingRepo: NewReadingSQLite(db),
		EventRepo:   NewEventSQLite(db),
	}
}
