package repository

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"sensor_fleet/internal/models"
)

func sampleSensor() models.Sensor {
	return models.NewSensor(models.SensorConfig{
		Name:             "lab-1",
		Location:         "Lab",
		MinValue:         18,
		MaxValue:         28,
		NormalMin:        22,
		NormalMax:        24,
		NoiseRange:       0.5,
		FaultProbability: 0.01,
		SpikeProbability: 0.05,
	})
}

func TestSensorUpsert_ReturnsStoredIdentity(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewSensorSQLite(db)

	created := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(upsertSensorSQL)).
		WithArgs(sqlmock.AnyArg(), "lab-1", "Lab",
			18.0, 28.0, 22.0, 24.0,
			0.5, 0.01, 0.05,
			false, false,
			sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_faulty", "created_at"}).
			AddRow("existing-id", true, created))

	got, err := repo.Upsert(ctx(t), sampleSensor())
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if got.ID != "existing-id" {
		t.Errorf("ID: want existing-id, got %q", got.ID)
	}
	if !got.IsFaulty {
		t.Errorf("stored fault flag must be returned")
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt: want %v, got %v", created, got.CreatedAt)
	}
	if got.UpdatedAt.IsZero() {
		t.Errorf("UpdatedAt must be set")
	}
}

func TestSensorUpsert_GeneratesID(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewSensorSQLite(db)

	mock.ExpectQuery("INSERT INTO sensors").
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_faulty", "created_at"}).
			AddRow("generated", false, time.Now()))

	if _, err := repo.Upsert(ctx(t), sampleSensor()); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func TestSensorUpsert_Error(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewSensorSQLite(db)

	mock.ExpectQuery("INSERT INTO sensors").WillReturnError(errors.New("locked"))

	if _, err := repo.Upsert(ctx(t), sampleSensor()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSensorSetFaultyAndOffline(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewSensorSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(setSensorFaultySQL)).
		WithArgs(true, sqlmock.AnyArg(), "id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(setSensorOfflineSQL)).
		WithArgs(true, sqlmock.AnyArg(), "id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(setSensorFaultySQL)).
		WithArgs(false, sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SetFaulty(ctx(t), "id-1", true); err != nil {
		t.Fatalf("SetFaulty: %v", err)
	}
	if err := repo.SetOffline(ctx(t), "id-1", true); err != nil {
		t.Fatalf("SetOffline: %v", err)
	}
	err := repo.SetFaulty(ctx(t), "missing", false)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

func TestSensorList(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewSensorSQLite(db)

	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "name", "location", "min_value", "max_value", "normal_min", "normal_max",
		"noise_range", "fault_probability", "spike_probability", "is_faulty", "is_offline", "created_at", "updated_at"}).
		AddRow("a", "cold-room", "Basement", -5.0, 10.0, 2.0, 4.0, 0.2, 0.0, 0.0, false, true, now, now).
		AddRow("b", "lab-1", "Lab", 18.0, 28.0, 22.0, 24.0, 0.5, 0.01, 0.05, true, false, now, now)
	mock.ExpectQuery(regexp.QuoteMeta(selectSensorsSQL)).WillReturnRows(rows)

	got, err := repo.List(ctx(t))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 sensors, got %d", len(got))
	}
	if !got[0].IsOffline || got[0].MinValue != -5 {
		t.Errorf("unexpected first sensor: %+v", got[0])
	}
	if !got[1].IsFaulty || got[1].SpikeProbability != 0.05 {
		t.Errorf("unexpected second sensor: %+v", got[1])
	}
}
