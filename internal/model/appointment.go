package model

import (
	"time"
)

// Appointment is a booking a user requests with a lawyer. Only the owning
// lawyer changes its status.
type Appointment struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	LawyerID    uint      `json:"lawyerId" gorm:"not null;index"`
	UserID      string    `json:"userId" gorm:"size:256;not null;index"`
	ScheduledAt time.Time `json:"date" gorm:"column:date;not null"`
	Duration    int       `json:"duration" gorm:"not null;default:60"`
	Status      Status    `json:"status" gorm:"size:20;not null;default:pending;index"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Lawyer *LawyerProfile `json:"-" gorm:"foreignKey:LawyerID;constraint:OnDelete:RESTRICT"`
}

// Consultation has the same shape as Appointment but is driven by the user:
// the user books, edits and cancels it, the lawyer marks its status.
type Consultation struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"userId" gorm:"size:256;not null;index"`
	LawyerID    uint      `json:"lawyerId" gorm:"not null;index"`
	ScheduledAt time.Time `json:"scheduledAt" gorm:"not null"`
	Duration    int       `json:"duration" gorm:"not null"`
	Status      Status    `json:"status" gorm:"size:20;not null;default:pending;index"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Lawyer *LawyerProfile `json:"-" gorm:"foreignKey:LawyerID;constraint:OnDelete:RESTRICT"`
}

// BookAppointmentRequest is the body of POST /appointments.
type BookAppointmentRequest struct {
	LawyerID    uint      `json:"lawyerId" validate:"required"`
	ScheduledAt time.Time `json:"date" validate:"required"`
	Duration    int       `json:"duration" validate:"omitempty,min=15,max=480"`
	Notes       string    `json:"notes" validate:"max=4000"`
}

// UpdateAppointmentStatusRequest is the body of PUT /lawyer/appointments.
type UpdateAppointmentStatusRequest struct {
	AppointmentID uint   `json:"appointmentId" validate:"required"`
	Status        string `json:"status" validate:"required"`
}

// BookConsultationRequest is the body of POST /consultations.
type BookConsultationRequest struct {
	LawyerID    uint      `json:"lawyerId" validate:"required"`
	ScheduledAt time.Time `json:"scheduledAt" validate:"required"`
	Duration    int       `json:"duration" validate:"required,min=15,max=480"`
	Status      string    `json:"status,omitempty"`
	Notes       string    `json:"notes" validate:"max=4000"`
}

// UpdateConsultationStatusRequest is the body of PUT /lawyer/consultations.
type UpdateConsultationStatusRequest struct {
	ConsultationID uint   `json:"consultationId" validate:"required"`
	Status         string `json:"status" validate:"required"`
}

// PatchConsultationRequest is the body of PATCH /consultations/{id}. Nil
// fields are left untouched.
type PatchConsultationRequest struct {
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	Duration    *int       `json:"duration,omitempty" validate:"omitempty,min=15,max=480"`
	Status      *string    `json:"status,omitempty"`
	Notes       *string    `json:"notes,omitempty" validate:"omitempty,max=4000"`
}

// ConsultationChanges lists the columns a consultation write touches. Nil
// fields are left as stored.
type ConsultationChanges struct {
	ScheduledAt *time.Time
	Duration    *int
	Status      *Status
	Notes       *string
	UpdatedAt   time.Time
}

// Apply copies the set fields of ch onto c.
func (c *Consultation) Apply(ch ConsultationChanges) {
	if ch.ScheduledAt != nil {
		c.ScheduledAt = *ch.ScheduledAt
	}
	if ch.Duration != nil {
		c.Duration = *ch.Duration
	}
	if ch.Status != nil {
		c.Status = *ch.Status
	}
	if ch.Notes != nil {
		c.Notes = *ch.Notes
	}
	c.UpdatedAt = ch.UpdatedAt
}

// Empty reports whether the patch carries no field.
func (p *PatchConsultationRequest) Empty() bool {
	return p.ScheduledAt == nil && p.Duration == nil && p.Status == nil && p.Notes == nil
}

// ConsultationFilter narrows a user's consultation listing. Results are
// newest first unless Ascending is set.
type ConsultationFilter struct {
	LawyerID  uint
	Status    Status
	Ascending bool
}
