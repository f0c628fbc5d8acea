package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/internal/store"
	"github.com/justicehub/platform/pkg/logger"
)

const defaultAppointmentMinutes = 60

// AppointmentStore is the persistence the appointment service needs.
type AppointmentStore interface {
	GetLawyer(ctx context.Context, id uint) (*model.LawyerProfile, error)
	GetLawyerBySubject(ctx context.Context, subject string) (*model.LawyerProfile, error)
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id uint) (*model.Appointment, error)
	ListLawyerAppointments(ctx context.Context, lawyerID uint, q store.AppointmentQuery) ([]model.Appointment, error)
	ListUserAppointments(ctx context.Context, userID string) ([]model.Appointment, error)
	SetAppointmentStatus(ctx context.Context, id uint, status model.Status, updatedAt time.Time) error
}

// AppointmentService handles appointment booking and status changes.
type AppointmentService struct {
	store  AppointmentStore
	status transitioner
	logger *logger.Logger
}

// NewAppointmentService creates a new appointment service.
func NewAppointmentService(st AppointmentStore, policy model.TransitionPolicy, log *logger.Logger) *AppointmentService {
	return &AppointmentService{
		store:  st,
		status: transitioner{kind: "appointment", policy: policy, now: systemClock},
		logger: log.Component("appointments"),
	}
}

// Book creates a pending appointment for userID with an existing lawyer.
func (s *AppointmentService) Book(ctx context.Context, userID string, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	if !req.ScheduledAt.After(s.status.now()) {
		return nil, fmt.Errorf("%w: appointment date must be in the future", ErrValidation)
	}
	if _, err := s.store.GetLawyer(ctx, req.LawyerID); err != nil {
		return nil, storeErr(err, "lawyer")
	}

	duration := req.Duration
	if duration == 0 {
		duration = defaultAppointmentMinutes
	}

	a := &model.Appointment{
		LawyerID:    req.LawyerID,
		UserID:      userID,
		ScheduledAt: req.ScheduledAt.UTC(),
		Duration:    duration,
		Status:      model.StatusPending,
		Notes:       req.Notes,
	}
	if err := s.store.CreateAppointment(ctx, a); err != nil {
		return nil, storeErr(err, "appointment")
	}

	logger.FromContext(ctx).Info("appointment booked",
		zap.Uint("appointment_id", a.ID),
		zap.Uint("lawyer_id", a.LawyerID),
	)
	return a, nil
}

// ListForUser returns the appointments userID booked.
func (s *AppointmentService) ListForUser(ctx context.Context, userID string) ([]model.Appointment, error) {
	out, err := s.store.ListUserAppointments(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "appointments")
	}
	return out, nil
}

// ListForLawyer returns the calling lawyer's appointments, optionally
// filtered by a status value.
func (s *AppointmentService) ListForLawyer(ctx context.Context, subject, rawStatus string) ([]model.Appointment, error) {
	var q store.AppointmentQuery
	if rawStatus != "" {
		st, err := s.status.parse(rawStatus)
		if err != nil {
			return nil, err
		}
		q.Status = st
	}

	lawyer, err := s.store.GetLawyerBySubject(ctx, subject)
	if err != nil {
		return nil, storeErr(err, "lawyer profile")
	}

	out, err := s.store.ListLawyerAppointments(ctx, lawyer.ID, q)
	if err != nil {
		return nil, storeErr(err, "appointments")
	}
	return out, nil
}

// UpdateStatus sets the status of one of the calling lawyer's appointments.
// The status is validated before anything is read; an appointment owned by
// another lawyer is reported as not found.
func (s *AppointmentService) UpdateStatus(ctx context.Context, subject string, appointmentID uint, rawStatus string) (*model.Appointment, error) {
	next, err := s.status.parse(rawStatus)
	if err != nil {
		return nil, err
	}

	lawyer, err := s.store.GetLawyerBySubject(ctx, subject)
	if err != nil {
		return nil, storeErr(err, "lawyer profile")
	}

	a, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, storeErr(err, "appointment")
	}
	if a.LawyerID != lawyer.ID {
		return nil, fmt.Errorf("%w: appointment", ErrNotFound)
	}

	prev := a.Status
	if err := s.status.check(prev, next); err != nil {
		return nil, err
	}

	updatedAt := s.status.stamp(a.UpdatedAt)
	if err := s.store.SetAppointmentStatus(ctx, a.ID, next, updatedAt); err != nil {
		return nil, storeErr(err, "appointment")
	}
	a.Status = next
	a.UpdatedAt = updatedAt
	s.status.applied(prev, next)

	logger.FromContext(ctx).Info("appointment status updated",
		zap.Uint("appointment_id", a.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
	)
	return a, nil
}
