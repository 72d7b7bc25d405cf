package user

import (
	"encoding/json"
	"time"

	"github.com/carebridge/healthcare-portal/internal/session"
)

// User is a portal account. The tree key is the id; it is not stored
// inside the document, so it carries no json tag value.
type User struct {
	ID          string       `json:"-"`
	Role        session.Role `json:"role"`
	FirstName   string       `json:"firstName"`
	LastName    string       `json:"lastName"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone,omitempty"`
	DateOfBirth string       `json:"dateOfBirth,omitempty"`
	IsActive    bool         `json:"isActive"`
	CreatedAt   time.Time    `json:"createdAt"`

	// Doctor specific
	Specialization string `json:"specialization,omitempty"`
	LicenseNumber  string `json:"licenseNumber,omitempty"`

	// Patient specific
	Address          string `json:"address,omitempty"`
	EmergencyContact string `json:"emergencyContact,omitempty"`

	// Legacy embedded medical history. Owned by the medhistory dual-write
	// shim; carried opaquely here so full-document writes of a user never
	// drop it.
	MedicalHistory json.RawMessage `json:"medicalHistory,omitempty"`
}
