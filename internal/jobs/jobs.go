// Package jobs runs the scheduled background work of the API server.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/justicehub/platform/internal/model"
	natsclient "github.com/justicehub/platform/internal/nats"
	"github.com/justicehub/platform/pkg/logger"
	"github.com/justicehub/platform/pkg/metrics"
)

const refreshTimeout = 30 * time.Second

// StatusCounter reports how many bookings sit in each status.
type StatusCounter interface {
	AppointmentStatusCounts(ctx context.Context) (map[model.Status]int64, error)
	ConsultationStatusCounts(ctx context.Context) (map[model.Status]int64, error)
}

// StreamStatter reports the size of the direct-message stream.
type StreamStatter interface {
	StreamStats(ctx context.Context) (msgs, bytes uint64, err error)
}

// Scheduler refreshes the gauges that are too expensive to compute per
// request.
type Scheduler struct {
	cron    *cron.Cron
	counts  StatusCounter
	streams StreamStatter
	logger  *logger.Logger
}

// NewScheduler creates a scheduler. streams may be nil when NATS is not
// configured.
func NewScheduler(counts StatusCounter, streams StreamStatter, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		counts:  counts,
		streams: streams,
		logger:  log.Component("jobs"),
	}
}

// Start registers the metrics refresh on the cron schedule and starts the scheduler.
// The gauges are filled once immediately.
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return fmt.Errorf("invalid metrics schedule %q: %w", schedule, err)
	}
	s.run()
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("metrics_schedule", schedule))
	return nil
}

// Stop halts the scheduler and waits for a running refresh to finish or
// ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := s.RefreshMetrics(ctx); err != nil {
		s.logger.Warn("metrics refresh failed", zap.Error(err))
	}
}

// RefreshMetrics recomputes the booking and stream gauges. A failing
// source does not stop the others from being refreshed; the first error
// is returned.
func (s *Scheduler) RefreshMetrics(ctx context.Context) error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	record(s.refreshStatus(ctx, "appointment", s.counts.AppointmentStatusCounts))
	record(s.refreshStatus(ctx, "consultation", s.counts.ConsultationStatusCounts))

	if s.streams != nil {
		msgs, bytes, err := s.streams.StreamStats(ctx)
		if err != nil {
			record(fmt.Errorf("stream stats: %w", err))
		} else {
			metrics.NATSStreamMessages.WithLabelValues(natsclient.StreamName).Set(float64(msgs))
			metrics.NATSStreamBytes.WithLabelValues(natsclient.StreamName).Set(float64(bytes))
		}
	}

	return firstErr
}

func (s *Scheduler) refreshStatus(ctx context.Context, kind string, count func(context.Context) (map[model.Status]int64, error)) error {
	counts, err := count(ctx)
	if err != nil {
		return fmt.Errorf("%s counts: %w", kind, err)
	}
	// Every status is set so a status that drained to zero is reported.
	for _, st := range model.Statuses {
		metrics.AppointmentsByStatus.WithLabelValues(kind, string(st)).Set(float64(counts[st]))
	}
	return nil
}
