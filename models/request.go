package models

import (
	"time"
)

// Status values shared by both request kinds
const (
	StatusNew       = "new"
	StatusCompleted = "completed"
)

// Dream-dress request workflow
const (
	StatusContacted = "contacted"
)

// Appointment request workflow
const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
)

// DreamDressStatuses lists the dream-dress workflow in order
var DreamDressStatuses = []string{StatusNew, StatusContacted, StatusCompleted}

// AppointmentStatuses lists the appointment workflow in order
var AppointmentStatuses = []string{StatusNew, StatusScheduled, StatusCompleted, StatusCancelled}

// DreamDressRequest is a customer's description of the dress they are looking for
type DreamDressRequest struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	DreamDress string    `json:"dreamDress"`
	Status     string    `json:"status"` // new, contacted, completed
	CreatedAt  time.Time `json:"createdAt"`
}

// GetID returns the request id
func (r DreamDressRequest) GetID() string {
	return r.ID
}

// Stamp returns a copy carrying a fresh id, the "new" status and a creation time
func (r DreamDressRequest) Stamp(id string, createdAt time.Time) DreamDressRequest {
	r.ID = id
	r.Status = StatusNew
	r.CreatedAt = createdAt
	return r
}

// WithStatus returns a copy with the status replaced
func (r DreamDressRequest) WithStatus(status string) DreamDressRequest {
	r.Status = status
	return r
}

// IsValidStatus reports whether status belongs to the dream-dress workflow
func (DreamDressRequest) IsValidStatus(status string) bool {
	return containsStatus(DreamDressStatuses, status)
}

// AppointmentRequest is a customer's request for a fitting appointment
type AppointmentRequest struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Message       string    `json:"message"`
	PreferredDate *string   `json:"preferredDate,omitempty"` // nullable, free-form date from the form
	Status        string    `json:"status"`                  // new, scheduled, completed, cancelled
	CreatedAt     time.Time `json:"createdAt"`
}

// GetID returns the request id
func (r AppointmentRequest) GetID() string {
	return r.ID
}

// Stamp returns a copy carrying a fresh id, the "new" status and a creation time
func (r AppointmentRequest) Stamp(id string, createdAt time.Time) AppointmentRequest {
	r.ID = id
	r.Status = StatusNew
	r.CreatedAt = createdAt
	return r
}

// WithStatus returns a copy with the status replaced
func (r AppointmentRequest) WithStatus(status string) AppointmentRequest {
	r.Status = status
	return r
}

// IsValidStatus reports whether status belongs to the appointment workflow
func (AppointmentRequest) IsValidStatus(status string) bool {
	return containsStatus(AppointmentStatuses, status)
}

func containsStatus(statuses []string, status string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
