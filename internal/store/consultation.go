package store

import (
	"context"
	"time"

	"github.com/justicehub/platform/internal/model"
)

// CreateConsultation inserts a new consultation.
func (s *Store) CreateConsultation(ctx context.Context, c *model.Consultation) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

// GetConsultation returns one consultation by id.
func (s *Store) GetConsultation(ctx context.Context, id uint) (*model.Consultation, error) {
	c := &model.Consultation{}
	if err := s.db.WithContext(ctx).First(c, id).Error; err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// ListUserConsultations returns a user's consultations ordered by date.
func (s *Store) ListUserConsultations(ctx context.Context, userID string, f model.ConsultationFilter) ([]model.Consultation, error) {
	tx := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if f.LawyerID != 0 {
		tx = tx.Where("lawyer_id = ?", f.LawyerID)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}

	if f.Ascending {
		tx = tx.Order("scheduled_at ASC")
	} else {
		tx = tx.Order("scheduled_at DESC")
	}

	var out []model.Consultation
	err := tx.Find(&out).Error
	return out, translate(err)
}

// UpdateConsultation writes only the columns set in ch, plus updated_at.
func (s *Store) UpdateConsultation(ctx context.Context, id uint, ch model.ConsultationChanges) error {
	cols := map[string]interface{}{"updated_at": ch.UpdatedAt}
	if ch.ScheduledAt != nil {
		cols["scheduled_at"] = *ch.ScheduledAt
	}
	if ch.Duration != nil {
		cols["duration"] = *ch.Duration
	}
	if ch.Status != nil {
		cols["status"] = *ch.Status
	}
	if ch.Notes != nil {
		cols["notes"] = *ch.Notes
	}

	res := s.db.WithContext(ctx).Model(&model.Consultation{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetConsultationStatus overwrites the status of a single row.
func (s *Store) SetConsultationStatus(ctx context.Context, id uint, status model.Status, updatedAt time.Time) error {
	return s.UpdateConsultation(ctx, id, model.ConsultationChanges{Status: &status, UpdatedAt: updatedAt})
}

// ConsultationStatusCounts returns the number of consultations per status.
func (s *Store) ConsultationStatusCounts(ctx context.Context) (map[model.Status]int64, error) {
	return s.statusCounts(ctx, &model.Consultation{})
}
