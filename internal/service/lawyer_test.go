package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/pkg/logger"
)

// recordingCache is an in-memory LawyerCache that remembers invalidations.
type recordingCache struct {
	entries     map[uint]model.LawyerProfile
	invalidated []uint
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[uint]model.LawyerProfile)}
}

func (c *recordingCache) Get(ctx context.Context, id uint) (*model.LawyerProfile, bool) {
	p, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return &p, true
}

func (c *recordingCache) Set(ctx context.Context, p *model.LawyerProfile) {
	c.entries[p.ID] = *p
}

func (c *recordingCache) Invalidate(ctx context.Context, id uint) {
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
}

func registration() *model.RegisterLawyerRequest {
	return &model.RegisterLawyerRequest{
		Name:           "Asha Rao",
		Specialization: "Family Law",
		Experience:     12,
		Location:       "Mumbai",
		HourlyRate:     "₹3000",
		Expertise:      []string{"Divorce"},
		Education: []model.LawyerEducation{
			{Institution: "NLSIU", Degree: "LLB", Year: "2012"},
			{Institution: "Incomplete"},
		},
	}
}

func TestRegisterLawyer(t *testing.T) {
	st := newFakeStore()
	svc := NewLawyerService(st, nil, logger.NewNop())
	ctx := context.Background()

	p, err := svc.Register(ctx, "subject-1", registration())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Rating != defaultRating || p.Avatar != defaultAvatar {
		t.Errorf("defaults not applied: rating %v avatar %q", p.Rating, p.Avatar)
	}
	if len(p.Education) != 1 {
		t.Errorf("incomplete education should be dropped, got %d entries", len(p.Education))
	}

	if _, err := svc.Register(ctx, "subject-1", registration()); !errors.Is(err, ErrConflict) {
		t.Errorf("second registration: expected ErrConflict, got %v", err)
	}
}

func TestRegisterLawyerValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.RegisterLawyerRequest)
	}{
		{"missing name", func(r *model.RegisterLawyerRequest) { r.Name = " " }},
		{"missing location", func(r *model.RegisterLawyerRequest) { r.Location = "" }},
		{"missing rate", func(r *model.RegisterLawyerRequest) { r.HourlyRate = "" }},
		{"zero experience", func(r *model.RegisterLawyerRequest) { r.Experience = 0 }},
		{"no expertise", func(r *model.RegisterLawyerRequest) { r.Expertise = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewLawyerService(newFakeStore(), nil, logger.NewNop())
			req := registration()
			tt.mutate(req)
			if _, err := svc.Register(context.Background(), "subject-1", req); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestUpsertLawyer(t *testing.T) {
	st := newFakeStore()
	c := newRecordingCache()
	svc := NewLawyerService(st, c, logger.NewNop())
	ctx := context.Background()

	p, created, err := svc.Upsert(ctx, "subject-1", registration())
	if err != nil || !created {
		t.Fatalf("first upsert: created=%v err=%v", created, err)
	}

	// Warm the cache, then change the rating out of band.
	if _, err := svc.Get(ctx, p.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
	st.lawyers[p.ID].Rating = 3.9

	req := registration()
	req.Location = "Pune"
	updated, created, err := svc.Upsert(ctx, "subject-1", req)
	if err != nil || created {
		t.Fatalf("second upsert: created=%v err=%v", created, err)
	}
	if updated.ID != p.ID || updated.Location != "Pune" {
		t.Errorf("unexpected profile %+v", updated)
	}
	if updated.Rating != 3.9 {
		t.Errorf("rating = %v, existing rating should be kept", updated.Rating)
	}
	if len(c.invalidated) != 1 || c.invalidated[0] != p.ID {
		t.Errorf("invalidated = %v, want [%d]", c.invalidated, p.ID)
	}

	got, err := svc.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Location != "Pune" {
		t.Errorf("stale profile served: %q", got.Location)
	}
}

func TestGetLawyerUsesCache(t *testing.T) {
	st := newFakeStore()
	p := st.addLawyer(model.LawyerProfile{Subject: "s", Name: "Asha Rao"})
	svc := NewLawyerService(st, newRecordingCache(), logger.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Get(ctx, p.ID); err != nil {
			t.Fatalf("get: %v", err)
		}
	}
	if st.getLawyerHits != 1 {
		t.Errorf("store hits = %d, want 1", st.getLawyerHits)
	}

	if _, err := svc.Get(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDashboard(t *testing.T) {
	st := newFakeStore()
	lawyer := st.addLawyer(model.LawyerProfile{Subject: "lawyer-1", Name: "Asha Rao"})
	st.addAppointment(model.Appointment{LawyerID: lawyer.ID, Status: model.StatusPending, ScheduledAt: t0})
	st.addAppointment(model.Appointment{LawyerID: lawyer.ID, Status: model.StatusConfirmed, ScheduledAt: t0.Add(2 * time.Hour)})
	st.addAppointment(model.Appointment{LawyerID: lawyer.ID, Status: model.StatusConfirmed, ScheduledAt: t0.Add(time.Hour)})
	st.addAppointment(model.Appointment{LawyerID: lawyer.ID, Status: model.StatusCompleted, ScheduledAt: t0})
	st.dms = []model.DirectMessage{
		dm("1", "c", "client", "lawyer-1", false, 0),
		dm("2", "c", "lawyer-1", "client", false, time.Minute),
	}

	svc := NewLawyerService(st, nil, logger.NewNop())
	d, err := svc.Dashboard(context.Background(), "lawyer-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := model.LawyerStats{
		TotalAppointments:     4,
		PendingAppointments:   1,
		UpcomingAppointments:  2,
		CompletedAppointments: 1,
		UnreadMessages:        1,
	}
	if d.Stats != want {
		t.Errorf("stats = %+v, want %+v", d.Stats, want)
	}
	if len(d.Appointments.Upcoming) != 2 || d.Appointments.Upcoming[0].ScheduledAt.After(d.Appointments.Upcoming[1].ScheduledAt) {
		t.Errorf("upcoming should be soonest first: %+v", d.Appointments.Upcoming)
	}
	if len(d.Messages) != 2 || d.Messages[0].ID != "2" {
		t.Errorf("messages should be newest first: %+v", d.Messages)
	}

	if _, err := svc.Dashboard(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
