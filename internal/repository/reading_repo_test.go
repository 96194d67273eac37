package repository

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"sensor_fleet/internal/models"
)

var readingColumns = []string{"sensor_id", "sensor_name", "location", "temperature", "smoothed_value", "quality_score",
	"is_spike", "is_faulty", "is_valid", "is_anomaly", "threshold_exceeded", "alert_type", "recorded_at"}

func TestReadingSave(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewReadingSQLite(db)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("X", 7200))
	mock.ExpectExec(regexp.QuoteMeta(insertReadingSQL)).
		WithArgs("id-1", "lab-1", "Lab", 35.12, 23.4, 10,
			true, false, false, true, true, "SPIKE", ts.UTC()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Save(ctx(t), models.Reading{
		SensorID:          "id-1",
		SensorName:        "lab-1",
		Location:          "Lab",
		Temperature:       35.12,
		Timestamp:         ts,
		IsSpike:           true,
		IsAnomaly:         true,
		ThresholdExceeded: true,
		AlertType:         models.AlertSpike,
		SmoothedValue:     23.4,
		QualityScore:      10,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestReadingSave_Error(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewReadingSQLite(db)

	mock.ExpectExec("INSERT INTO readings").WillReturnError(errors.New("disk full"))

	if err := repo.Save(ctx(t), models.Reading{SensorName: "lab-1"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestReadingRecent(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewReadingSQLite(db)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(readingColumns).
		AddRow("id-1", "lab-1", "Lab", 23.1, 23.0, 95, false, false, true, false, false, "NONE", now).
		AddRow("id-1", "lab-1", "Lab", 999.99, 0.0, 10, false, true, false, true, true, "FAULT", now.Add(-2*time.Second))
	mock.ExpectQuery(regexp.QuoteMeta(selectRecentReadingsSQL)).
		WithArgs("id-1", 5).
		WillReturnRows(rows)

	got, err := repo.Recent(ctx(t), "id-1", 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 readings, got %d", len(got))
	}
	if got[0].Temperature != 23.1 || got[0].AlertType != models.AlertNone || !got[0].IsValid {
		t.Errorf("unexpected first reading: %+v", got[0])
	}
	if got[1].AlertType != models.AlertFault || !got[1].IsFaulty {
		t.Errorf("unexpected second reading: %+v", got[1])
	}
}

func TestReadingRecent_ZeroLimitSkipsQuery(t *testing.T) {
	t.Parallel()
	db, _ := newMock(t)
	repo := NewReadingSQLite(db)

	got, err := repo.Recent(ctx(t), "id-1", 0)
	if err != nil || got != nil {
		t.Fatalf("want nil, nil; got %v, %v", got, err)
	}
}

func TestReadingRecent_UnknownAlert(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewReadingSQLite(db)

	rows := sqlmock.NewRows(readingColumns).
		AddRow("id-1", "lab-1", "Lab", 23.1, 23.0, 95, false, false, true, false, false, "BOGUS", time.Now())
	mock.ExpectQuery("SELECT sensor_id").WillReturnRows(rows)

	if _, err := repo.Recent(ctx(t), "id-1", 5); err == nil {
		t.Fatal("expected error for unknown alert type")
	}
}

func TestReadingStats(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewReadingSQLite(db)

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	q := selectStatsSQL + " WHERE sensor_id = ? AND recorded_at >= ?"
	mock.ExpectQuery(regexp.QuoteMeta(q)).
		WithArgs("id-1", from).
		WillReturnRows(sqlmock.NewRows([]string{"c", "min", "max", "avg", "q", "a", "s", "f", "i"}).
			AddRow(10, 22.1, 23.9, 23.0, 72.5, 3, 1, 1, 4))

	st, err := repo.Stats(ctx(t), "id-1", from, time.Time{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := models.SensorStats{
		SensorID: "id-1", From: from,
		Count: 10, MinTemp: 22.1, MaxTemp: 23.9, AvgTemp: 23.0, AvgQuality: 72.5,
		AnomalyCount: 3, SpikeCount: 1, FaultCount: 1, InvalidCount: 4,
	}
	if st != want {
		t.Fatalf("stats: want %+v, got %+v", want, st)
	}
}

func TestReadingPrune(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewReadingSQLite(db)

	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(pruneReadingsSQL)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 42))

	n, err := repo.Prune(ctx(t), cutoff)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 42 {
		t.Fatalf("want 42 pruned, got %d", n)
	}
}
