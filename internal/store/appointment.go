package store

import (
	"context"
	"time"

	"github.com/justicehub/platform/internal/model"
)

// AppointmentQuery narrows a lawyer's appointment listing. The zero value
// lists everything, newest date first.
type AppointmentQuery struct {
	Status    model.Status
	Ascending bool
	Limit     int
}

// CreateAppointment inserts a new appointment.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	return translate(s.db.WithContext(ctx).Create(a).Error)
}

// GetAppointment returns one appointment by id.
func (s *Store) GetAppointment(ctx context.Context, id uint) (*model.Appointment, error) {
	a := &model.Appointment{}
	if err := s.db.WithContext(ctx).First(a, id).Error; err != nil {
		return nil, translate(err)
	}
	return a, nil
}

// ListLawyerAppointments returns a lawyer's appointments.
func (s *Store) ListLawyerAppointments(ctx context.Context, lawyerID uint, q AppointmentQuery) ([]model.Appointment, error) {
	tx := s.db.WithContext(ctx).Where("lawyer_id = ?", lawyerID)
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Ascending {
		tx = tx.Order("date ASC")
	} else {
		tx = tx.Order("date DESC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var out []model.Appointment
	err := tx.Find(&out).Error
	return out, translate(err)
}

// ListUserAppointments returns the appointments a user booked.
func (s *Store) ListUserAppointments(ctx context.Context, userID string) ([]model.Appointment, error) {
	var out []model.Appointment
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&out).Error
	return out, translate(err)
}

// CountLawyerAppointments counts a lawyer's appointments, optionally by status.
func (s *Store) CountLawyerAppointments(ctx context.Context, lawyerID uint, status model.Status) (int64, error) {
	tx := s.db.WithContext(ctx).Model(&model.Appointment{}).Where("lawyer_id = ?", lawyerID)
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	var n int64
	err := tx.Count(&n).Error
	return n, translate(err)
}

// SetAppointmentStatus overwrites the status of a single row.
func (s *Store) SetAppointmentStatus(ctx context.Context, id uint, status model.Status, updatedAt time.Time) error {
	res := s.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": updatedAt})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AppointmentStatusCounts returns the number of appointments per status.
func (s *Store) AppointmentStatusCounts(ctx context.Context) (map[model.Status]int64, error) {
	return s.statusCounts(ctx, &model.Appointment{})
}

type statusCount struct {
	Status model.Status
	N      int64
}

func (s *Store) statusCounts(ctx context.Context, table interface{}) (map[model.Status]int64, error) {
	var rows []statusCount
	err := s.db.WithContext(ctx).Model(table).
		Select("status, count(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	out := make(map[model.Status]int64, len(model.Statuses))
	for _, st := range model.Statuses {
		out[st] = 0
	}
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}
