package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/justicehub/platform/internal/model"
)

// ListLawyers returns every lawyer profile.
func (s *Store) ListLawyers(ctx context.Context) ([]model.LawyerProfile, error) {
	var out []model.LawyerProfile
	err := s.db.WithContext(ctx).Order("id").Find(&out).Error
	return out, translate(err)
}

// GetLawyer returns one profile with its education rows.
func (s *Store) GetLawyer(ctx context.Context, id uint) (*model.LawyerProfile, error) {
	p := &model.LawyerProfile{}
	err := s.db.WithContext(ctx).Preload("Education").First(p, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// GetLawyerBySubject returns the profile owned by an identity subject.
func (s *Store) GetLawyerBySubject(ctx context.Context, subject string) (*model.LawyerProfile, error) {
	p := &model.LawyerProfile{}
	err := s.db.WithContext(ctx).Preload("Education").
		Where("subject = ?", subject).First(p).Error
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// CreateLawyer inserts a profile and its education rows in one transaction.
// A second profile for the same subject fails with ErrDuplicate.
func (s *Store) CreateLawyer(ctx context.Context, p *model.LawyerProfile) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(p).Error
	}))
}

// SaveLawyer updates an existing profile, replacing its education rows.
func (s *Store) SaveLawyer(ctx context.Context, p *model.LawyerProfile) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		education := p.Education
		p.Education = nil

		if err := tx.Omit("Education", "CreatedAt").Save(p).Error; err != nil {
			return err
		}
		if err := tx.Where("lawyer_id = ?", p.ID).Delete(&model.LawyerEducation{}).Error; err != nil {
			return err
		}
		for i := range education {
			education[i].ID = 0
			education[i].LawyerID = p.ID
		}
		if len(education) > 0 {
			if err := tx.Create(&education).Error; err != nil {
				return err
			}
		}
		p.Education = education
		return nil
	}))
}
