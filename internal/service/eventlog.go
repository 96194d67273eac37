package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"sensor_fleet/internal/logger"
	"sensor_fleet/internal/models"
	"sensor_fleet/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
	sink      AuditSink
	log       *logger.Logger
}

func NewEventLogService(eventRepo repository.EventRepo, sink AuditSink, log *logger.Logger) *EventLogService {
	return &EventLogService{eventRepo: eventRepo, sink: sink, log: log}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
)

// Record stores e in the event table and the audit file. Failures are
// logged and never reach the caller.
func (s *EventLogService) Record(ctx context.Context, e models.SensorEvent) {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	e.Type = normalizeEventType(e.Type)

	if err := s.eventRepo.Append(ctx, e); err != nil {
		s.log.Errorw("event_append_failed", "type", e.Type, "sensor", e.SensorName, "error", err)
	}
	if s.sink != nil {
		s.sink.Record(e)
	}
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// validateRange normalizes both bounds and rejects from > to.
func validateRange(from, to time.Time) (time.Time, time.Time, error) {
	from, to = normalizeToUTC(from), normalizeToUTC(to)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, errInvalidTimeRange
	}
	return from, to, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.SensorEvent, error) {
	from, to, err := validateRange(f.From, f.To)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, normalizeEventType(f.Type), strings.TrimSpace(f.Sensor))
}
