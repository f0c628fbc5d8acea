package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/justicehub/platform/internal/cache"
	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/internal/store"
	"github.com/justicehub/platform/pkg/logger"
)

const (
	defaultRating        = 4.5
	defaultAvatar        = "/api/placeholder/150/150"
	dashboardListLimit   = 10
	dashboardMessageSpan = 50
)

// LawyerStore is the persistence the lawyer service needs.
type LawyerStore interface {
	ListLawyers(ctx context.Context) ([]model.LawyerProfile, error)
	GetLawyer(ctx context.Context, id uint) (*model.LawyerProfile, error)
	GetLawyerBySubject(ctx context.Context, subject string) (*model.LawyerProfile, error)
	CreateLawyer(ctx context.Context, p *model.LawyerProfile) error
	SaveLawyer(ctx context.Context, p *model.LawyerProfile) error
	ListLawyerAppointments(ctx context.Context, lawyerID uint, q store.AppointmentQuery) ([]model.Appointment, error)
	CountLawyerAppointments(ctx context.Context, lawyerID uint, status model.Status) (int64, error)
	CountUnread(ctx context.Context, receiver string) (int64, error)
	RecentParticipantMessages(ctx context.Context, participant string, perDirection int) ([]model.DirectMessage, error)
}

// LawyerService manages lawyer profiles and the lawyer dashboard.
type LawyerService struct {
	store  LawyerStore
	cache  cache.LawyerCache
	logger *logger.Logger
}

// NewLawyerService creates a new lawyer service.
func NewLawyerService(st LawyerStore, c cache.LawyerCache, log *logger.Logger) *LawyerService {
	if c == nil {
		c = cache.NopLawyerCache{}
	}
	return &LawyerService{
		store:  st,
		cache:  c,
		logger: log.Component("lawyers"),
	}
}

// List returns every lawyer, highest rated first.
func (s *LawyerService) List(ctx context.Context) ([]model.LawyerProfile, error) {
	out, err := s.store.ListLawyers(ctx)
	if err != nil {
		return nil, storeErr(err, "lawyers")
	}
	return byRating(out), nil
}

// Get returns one lawyer, served from the cache when possible.
func (s *LawyerService) Get(ctx context.Context, id uint) (*model.LawyerProfile, error) {
	if p, ok := s.cache.Get(ctx, id); ok {
		return p, nil
	}

	p, err := s.store.GetLawyer(ctx, id)
	if err != nil {
		return nil, storeErr(err, "lawyer")
	}
	s.cache.Set(ctx, p)
	return p, nil
}

// Register creates the caller's lawyer profile. A caller that already has
// one gets ErrConflict.
func (s *LawyerService) Register(ctx context.Context, subject string, req *model.RegisterLawyerRequest) (*model.LawyerProfile, error) {
	if err := checkRegistration(req); err != nil {
		return nil, err
	}

	if _, err := s.store.GetLawyerBySubject(ctx, subject); err == nil {
		return nil, fmt.Errorf("%w: you already have a lawyer profile", ErrConflict)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, storeErr(err, "lawyer profile")
	}

	p := &model.LawyerProfile{Subject: subject}
	applyProfile(p, req)
	if err := s.store.CreateLawyer(ctx, p); err != nil {
		return nil, storeErr(err, "lawyer profile")
	}

	logger.FromContext(ctx).Info("lawyer registered", zap.Uint("lawyer_id", p.ID))
	return p, nil
}

// Upsert creates or replaces the caller's profile and drops any cached copy.
// created reports whether a new profile was made.
func (s *LawyerService) Upsert(ctx context.Context, subject string, req *model.RegisterLawyerRequest) (p *model.LawyerProfile, created bool, err error) {
	if err := checkRegistration(req); err != nil {
		return nil, false, err
	}

	existing, err := s.store.GetLawyerBySubject(ctx, subject)
	switch {
	case errors.Is(err, store.ErrNotFound):
		p = &model.LawyerProfile{Subject: subject}
		applyProfile(p, req)
		if err := s.store.CreateLawyer(ctx, p); err != nil {
			return nil, false, storeErr(err, "lawyer profile")
		}
		return p, true, nil
	case err != nil:
		return nil, false, storeErr(err, "lawyer profile")
	}

	if req.Rating == nil {
		r := existing.Rating
		req.Rating = &r
	}
	applyProfile(existing, req)
	if err := s.store.SaveLawyer(ctx, existing); err != nil {
		return nil, false, storeErr(err, "lawyer profile")
	}
	s.cache.Invalidate(ctx, existing.ID)

	logger.FromContext(ctx).Info("lawyer profile updated", zap.Uint("lawyer_id", existing.ID))
	return existing, false, nil
}

// Dashboard assembles the calling lawyer's profile, appointment counters,
// the latest pending and upcoming appointments and recent messages.
func (s *LawyerService) Dashboard(ctx context.Context, subject string) (*model.LawyerDashboard, error) {
	lawyer, err := s.store.GetLawyerBySubject(ctx, subject)
	if err != nil {
		return nil, storeErr(err, "lawyer profile")
	}

	d := &model.LawyerDashboard{Lawyer: lawyer}

	counts := []struct {
		status model.Status
		dst    *int64
	}{
		{"", &d.Stats.TotalAppointments},
		{model.StatusPending, &d.Stats.PendingAppointments},
		{model.StatusConfirmed, &d.Stats.UpcomingAppointments},
		{model.StatusCompleted, &d.Stats.CompletedAppointments},
	}
	for _, c := range counts {
		n, err := s.store.CountLawyerAppointments(ctx, lawyer.ID, c.status)
		if err != nil {
			return nil, storeErr(err, "appointments")
		}
		*c.dst = n
	}

	if d.Stats.UnreadMessages, err = s.store.CountUnread(ctx, subject); err != nil {
		return nil, storeErr(err, "messages")
	}

	if d.Appointments.Pending, err = s.store.ListLawyerAppointments(ctx, lawyer.ID, store.AppointmentQuery{
		Status: model.StatusPending,
		Limit:  dashboardListLimit,
	}); err != nil {
		return nil, storeErr(err, "appointments")
	}
	if d.Appointments.Upcoming, err = s.store.ListLawyerAppointments(ctx, lawyer.ID, store.AppointmentQuery{
		Status:    model.StatusConfirmed,
		Ascending: true,
		Limit:     dashboardListLimit,
	}); err != nil {
		return nil, storeErr(err, "appointments")
	}

	if d.Messages, err = s.store.RecentParticipantMessages(ctx, subject, dashboardMessageSpan); err != nil {
		return nil, storeErr(err, "messages")
	}
	return d, nil
}

func checkRegistration(req *model.RegisterLawyerRequest) error {
	required := []struct{ field, value string }{
		{"name", req.Name},
		{"specialization", req.Specialization},
		{"location", req.Location},
		{"hourlyRate", req.HourlyRate},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrValidation, r.field)
		}
	}
	if req.Experience <= 0 {
		return fmt.Errorf("%w: experience must be a positive number", ErrValidation)
	}
	if len(req.Expertise) == 0 {
		return fmt.Errorf("%w: expertise is required", ErrValidation)
	}
	return nil
}

// applyProfile copies request fields onto p, filling defaults and dropping
// incomplete education entries.
func applyProfile(p *model.LawyerProfile, req *model.RegisterLawyerRequest) {
	p.Name = strings.TrimSpace(req.Name)
	p.Avatar = req.Avatar
	if p.Avatar == "" {
		p.Avatar = defaultAvatar
	}
	p.Specialization = strings.TrimSpace(req.Specialization)
	p.Experience = req.Experience
	p.Location = strings.TrimSpace(req.Location)
	p.Rating = defaultRating
	if req.Rating != nil {
		p.Rating = *req.Rating
	}
	p.HourlyRate = req.HourlyRate
	p.Expertise = append([]string(nil), req.Expertise...)
	p.AvailableNow = req.AvailableNow
	p.Email = req.Email
	p.Phone = req.Phone
	p.Bio = req.Bio

	p.Education = p.Education[:0]
	for _, e := range req.Education {
		if e.Institution == "" || e.Degree == "" || e.Year == "" {
			continue
		}
		p.Education = append(p.Education, model.LawyerEducation{
			Institution: e.Institution,
			Degree:      e.Degree,
			Year:        e.Year,
		})
	}
}
