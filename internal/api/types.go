package api

import (
	"github.com/carebridge/healthcare-portal/internal/appointment"
	"github.com/carebridge/healthcare-portal/internal/prescription"
	"github.com/carebridge/healthcare-portal/internal/user"
)

type SignupRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Phone            string `json:"phone,omitempty"`
	DateOfBirth      string `json:"dateOfBirth,omitempty"`
	Address          string `json:"address,omitempty"`
	EmergencyContact string `json:"emergencyContact,omitempty"`
}

type LoginRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	ExpectedRole string `json:"expected_role,omitempty"`
}

type CreateUserRequest struct {
	Role     string `json:"role"`
	Email    string `json:"email"`
	Password string `json:"password"`

	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Phone            string `json:"phone,omitempty"`
	DateOfBirth      string `json:"dateOfBirth,omitempty"`
	Specialization   string `json:"specialization,omitempty"`
	LicenseNumber    string `json:"licenseNumber,omitempty"`
	Address          string `json:"address,omitempty"`
	EmergencyContact string `json:"emergencyContact,omitempty"`
}

type UserResponse struct {
	ID string `json:"id"`
	*user.User
}

type SessionResponse struct {
	Token string       `json:"token"`
	Role  string       `json:"role"`
	User  UserResponse `json:"user"`
}

type CreateAppointmentRequest struct {
	PatientID string `json:"patientId"`
	DoctorID  string `json:"doctorId"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Notes     string `json:"notes,omitempty"`
}

type AppointmentResponse struct {
	ID string `json:"id"`
	*appointment.Appointment
}

type CreatePrescriptionRequest struct {
	PatientID      string `json:"patientId"`
	DoctorName     string `json:"doctorName,omitempty"`
	MedicationName string `json:"medicationName"`
	Dosage         string `json:"dosage"`
	Frequency      string `json:"frequency"`
	Duration       string `json:"duration,omitempty"`
	Instructions   string `json:"instructions,omitempty"`
	Quantity       string `json:"quantity,omitempty"`
	Refills        int    `json:"refills,omitempty"`
	PrescribedDate string `json:"prescribedDate,omitempty"`
	Notes          string `json:"notes,omitempty"`
	Status         string `json:"status,omitempty"`
}

type PrescriptionResponse struct {
	ID string `json:"id"`
	*prescription.Prescription
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
