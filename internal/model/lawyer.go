package model

import (
	"time"

	"gorm.io/datatypes"
)

// LawyerProfile is a registered lawyer. Subject is the identity-provider
// subject of the lawyer's account.
type LawyerProfile struct {
	ID             uint                        `json:"id" gorm:"primaryKey"`
	Subject        string                      `json:"subject" gorm:"size:256;uniqueIndex;not null"`
	Name           string                      `json:"name" gorm:"not null"`
	Avatar         string                      `json:"avatar" gorm:"default:/api/placeholder/150/150"`
	Specialization string                      `json:"specialization" gorm:"not null"`
	Experience     int                         `json:"experience" gorm:"not null"`
	Location       string                      `json:"location" gorm:"not null"`
	Rating         float64                     `json:"rating" gorm:"not null;default:4.5"`
	HourlyRate     string                      `json:"hourlyRate"`
	Expertise      datatypes.JSONSlice[string] `json:"expertise" gorm:"type:jsonb;not null;default:'[]'"`
	AvailableNow   bool                        `json:"availableNow"`
	Email          string                      `json:"email"`
	Phone          string                      `json:"phone"`
	Bio            string                      `json:"bio"`
	Education      []LawyerEducation           `json:"education,omitempty" gorm:"foreignKey:LawyerID"`
	CreatedAt      time.Time                   `json:"createdAt"`
	UpdatedAt      time.Time                   `json:"updatedAt"`
}

// LawyerEducation is one degree on a lawyer profile. Entries missing any
// field are dropped on registration.
type LawyerEducation struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	LawyerID    uint   `json:"lawyerId" gorm:"not null;index"`
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Year        string `json:"year"`
}

// RegisterLawyerRequest is the body of POST /lawyer/register and POST /lawyer.
type RegisterLawyerRequest struct {
	Name           string            `json:"name" validate:"required,max=256"`
	Avatar         string            `json:"avatar" validate:"max=1024"`
	Specialization string            `json:"specialization" validate:"required,max=256"`
	Experience     int               `json:"experience" validate:"required,min=1,max=80"`
	Location       string            `json:"location" validate:"required,max=256"`
	Rating         *float64          `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
	HourlyRate     string            `json:"hourlyRate" validate:"required,max=64"`
	Expertise      []string          `json:"expertise" validate:"required,min=1,dive,required,max=128"`
	AvailableNow   bool              `json:"availableNow"`
	Email          string            `json:"email" validate:"omitempty,email"`
	Phone          string            `json:"phone" validate:"max=64"`
	Bio            string            `json:"bio" validate:"max=8000"`
	Education      []LawyerEducation `json:"education,omitempty" validate:"max=20"`
}

// SearchLawyersRequest is the body of POST /lawyers/search.
type SearchLawyersRequest struct {
	Query string `json:"query" validate:"max=2000"`
}

// LawyerStats are the dashboard counters.
type LawyerStats struct {
	TotalAppointments     int64 `json:"totalAppointments"`
	PendingAppointments   int64 `json:"pendingAppointments"`
	UpcomingAppointments  int64 `json:"upcomingAppointments"`
	CompletedAppointments int64 `json:"completedAppointments"`
	UnreadMessages        int64 `json:"unreadMessages"`
}

// DashboardAppointments groups the dashboard appointment lists.
type DashboardAppointments struct {
	Pending  []Appointment `json:"pending"`
	Upcoming []Appointment `json:"upcoming"`
}

// LawyerDashboard is the response of GET /lawyer.
type LawyerDashboard struct {
	Lawyer       *LawyerProfile        `json:"lawyer"`
	Stats        LawyerStats           `json:"stats"`
	Appointments DashboardAppointments `json:"appointments"`
	Messages     []DirectMessage       `json:"messages"`
}

// AssistantRequest is the body of POST /lawyers/{id}/assistant.
type AssistantRequest struct {
	Message     string        `json:"message" validate:"required,max=8000"`
	ChatHistory []ChatMessage `json:"chatHistory"`
}

// AssistantResponse is the reply of the lawyer persona assistant.
type AssistantResponse struct {
	Response string `json:"response"`
}
