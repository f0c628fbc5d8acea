package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/pkg/logger"
)

// ConsultationStore is the persistence the consultation service needs.
type ConsultationStore interface {
	GetLawyer(ctx context.Context, id uint) (*model.LawyerProfile, error)
	GetLawyerBySubject(ctx context.Context, subject string) (*model.LawyerProfile, error)
	CreateConsultation(ctx context.Context, c *model.Consultation) error
	GetConsultation(ctx context.Context, id uint) (*model.Consultation, error)
	ListUserConsultations(ctx context.Context, userID string, f model.ConsultationFilter) ([]model.Consultation, error)
	UpdateConsultation(ctx context.Context, id uint, ch model.ConsultationChanges) error
	SetConsultationStatus(ctx context.Context, id uint, status model.Status, updatedAt time.Time) error
}

// ConsultationService handles consultations. Users book, edit and cancel
// their own; lawyers mark the status of theirs.
type ConsultationService struct {
	store  ConsultationStore
	status transitioner
	logger *logger.Logger
}

// NewConsultationService creates a new consultation service.
func NewConsultationService(st ConsultationStore, policy model.TransitionPolicy, log *logger.Logger) *ConsultationService {
	return &ConsultationService{
		store:  st,
		status: transitioner{kind: "consultation", policy: policy, now: systemClock},
		logger: log.Component("consultations"),
	}
}

// Book creates a consultation for userID. The date must be in the future.
func (s *ConsultationService) Book(ctx context.Context, userID string, req *model.BookConsultationRequest) (*model.Consultation, error) {
	if !req.ScheduledAt.After(s.status.now()) {
		return nil, fmt.Errorf("%w: consultation date must be in the future", ErrValidation)
	}

	status := model.StatusPending
	if req.Status != "" {
		st, err := s.status.parse(req.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}

	if _, err := s.store.GetLawyer(ctx, req.LawyerID); err != nil {
		return nil, storeErr(err, "lawyer")
	}

	c := &model.Consultation{
		UserID:      userID,
		LawyerID:    req.LawyerID,
		ScheduledAt: req.ScheduledAt.UTC(),
		Duration:    req.Duration,
		Status:      status,
		Notes:       req.Notes,
	}
	if err := s.store.CreateConsultation(ctx, c); err != nil {
		return nil, storeErr(err, "consultation")
	}

	logger.FromContext(ctx).Info("consultation booked",
		zap.Uint("consultation_id", c.ID),
		zap.Uint("lawyer_id", c.LawyerID),
	)
	return c, nil
}

// Get returns one of userID's consultations.
func (s *ConsultationService) Get(ctx context.Context, userID string, id uint) (*model.Consultation, error) {
	c, err := s.store.GetConsultation(ctx, id)
	if err != nil {
		return nil, storeErr(err, "consultation")
	}
	if c.UserID != userID {
		return nil, fmt.Errorf("%w: consultation", ErrNotFound)
	}
	return c, nil
}

// List returns userID's consultations. rawStatus, when set, must be a valid
// status.
func (s *ConsultationService) List(ctx context.Context, userID string, lawyerID uint, rawStatus string, ascending bool) ([]model.Consultation, error) {
	f := model.ConsultationFilter{LawyerID: lawyerID, Ascending: ascending}
	if rawStatus != "" {
		st, err := s.status.parse(rawStatus)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}

	out, err := s.store.ListUserConsultations(ctx, userID, f)
	if err != nil {
		return nil, storeErr(err, "consultations")
	}
	return out, nil
}

// Update applies a partial edit to one of userID's consultations.
func (s *ConsultationService) Update(ctx context.Context, userID string, id uint, patch *model.PatchConsultationRequest) (*model.Consultation, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: no valid fields to update", ErrValidation)
	}

	var next model.Status
	if patch.Status != nil {
		st, err := s.status.parse(*patch.Status)
		if err != nil {
			return nil, err
		}
		next = st
	}
	if patch.ScheduledAt != nil && !patch.ScheduledAt.After(s.status.now()) {
		return nil, fmt.Errorf("%w: consultation date must be in the future", ErrValidation)
	}

	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	prev := c.Status
	ch := model.ConsultationChanges{
		Duration: patch.Duration,
		Notes:    patch.Notes,
	}
	if next != "" {
		if err := s.status.check(prev, next); err != nil {
			return nil, err
		}
		ch.Status = &next
	}
	if patch.ScheduledAt != nil {
		at := patch.ScheduledAt.UTC()
		ch.ScheduledAt = &at
	}
	ch.UpdatedAt = s.status.stamp(c.UpdatedAt)

	if err := s.store.UpdateConsultation(ctx, c.ID, ch); err != nil {
		return nil, storeErr(err, "consultation")
	}
	c.Apply(ch)
	if next != "" {
		s.status.applied(prev, next)
	}
	return c, nil
}

// Cancel marks one of userID's consultations cancelled. Consultations are
// never physically deleted.
func (s *ConsultationService) Cancel(ctx context.Context, userID string, id uint) (*model.Consultation, error) {
	cancelled := string(model.StatusCancelled)
	return s.Update(ctx, userID, id, &model.PatchConsultationRequest{Status: &cancelled})
}

// UpdateStatus sets the status of one of the calling lawyer's consultations.
func (s *ConsultationService) UpdateStatus(ctx context.Context, subject string, consultationID uint, rawStatus string) (*model.Consultation, error) {
	next, err := s.status.parse(rawStatus)
	if err != nil {
		return nil, err
	}

	lawyer, err := s.store.GetLawyerBySubject(ctx, subject)
	if err != nil {
		return nil, storeErr(err, "lawyer profile")
	}

	c, err := s.store.GetConsultation(ctx, consultationID)
	if err != nil {
		return nil, storeErr(err, "consultation")
	}
	if c.LawyerID != lawyer.ID {
		return nil, fmt.Errorf("%w: consultation", ErrNotFound)
	}

	prev := c.Status
	if err := s.status.check(prev, next); err != nil {
		return nil, err
	}

	updatedAt := s.status.stamp(c.UpdatedAt)
	if err := s.store.SetConsultationStatus(ctx, c.ID, next, updatedAt); err != nil {
		return nil, storeErr(err, "consultation")
	}
	c.Status = next
	c.UpdatedAt = updatedAt
	s.status.applied(prev, next)

	logger.FromContext(ctx).Info("consultation status updated",
		zap.Uint("consultation_id", c.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
	)
	return c, nil
}
