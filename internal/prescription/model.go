package prescription

import "time"

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Prescription struct {
	ID             string    `json:"-"`
	PatientID      string    `json:"patientId"`
	DoctorID       string    `json:"doctorId"`
	DoctorName     string    `json:"doctorName,omitempty"`
	MedicationName string    `json:"medicationName"`
	Dosage         string    `json:"dosage"`
	Frequency      string    `json:"frequency"`
	Duration       string    `json:"duration,omitempty"`
	Instructions   string    `json:"instructions,omitempty"`
	Quantity       string    `json:"quantity,omitempty"`
	Refills        int       `json:"refills"`
	PrescribedDate string    `json:"prescribedDate"` // YYYY-MM-DD
	Notes          string    `json:"notes,omitempty"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// effectiveDate is the sort key for prescription lists: the prescribed
// date when it parses, otherwise the creation timestamp.
func (p *Prescription) effectiveDate() time.Time {
	if t, err := time.Parse("2006-01-02", p.PrescribedDate); err == nil {
		return t
	}
	return p.CreatedAt
}
