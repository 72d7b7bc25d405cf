package appointment

import "time"

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no-show"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Terminal statuses admit no further transition.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// Feedback is attached by the doctor when completing an appointment.
type Feedback struct {
	Diagnosis    string `json:"diagnosis,omitempty"`
	Treatment    string `json:"treatment,omitempty"`
	Prescription string `json:"prescription,omitempty"`
	Notes        string `json:"notes,omitempty"`
	FollowUp     string `json:"followUp,omitempty"`
}

type Appointment struct {
	ID        string    `json:"-"`
	PatientID string    `json:"patientId"`
	DoctorID  string    `json:"doctorId"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Time      string    `json:"time"` // HH:MM
	Status    Status    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	Feedback  *Feedback `json:"feedback,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
