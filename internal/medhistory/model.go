package medhistory

import (
	"errors"
	"time"
)

// Entry is one item in a history section. Items are opaque to this
// layer apart from the generated "id" key; doctors and patients record
// whatever fields the form offered.
type Entry map[string]any

const (
	SectionConditions    = "conditions"
	SectionMedications   = "medications"
	SectionAllergies     = "allergies"
	SectionSurgeries     = "surgeries"
	SectionImmunizations = "immunizations"
	SectionLabResults    = "labResults"
)

var ErrUnknownSection = errors.New("unknown medical history section")

// History is the logical medical record for one patient. All list
// fields are always non-nil: callers never need nil checks.
type History struct {
	Conditions     []Entry        `json:"conditions"`
	Medications    []Entry        `json:"medications"`
	Allergies      []Entry        `json:"allergies"`
	Surgeries      []Entry        `json:"surgeries"`
	Immunizations  []Entry        `json:"immunizations"`
	LabResults     []Entry        `json:"labResults"`
	LifestylePlans map[string]any `json:"lifestylePlans,omitempty"`
	LastUpdated    time.Time      `json:"lastUpdated"`
}

// Empty returns a history with every section present and zero-length.
func Empty() *History {
	h := &History{}
	h.normalize()
	return h
}

func (h *History) normalize() {
	if h.Conditions == nil {
		h.Conditions = []Entry{}
	}
	if h.Medications == nil {
		h.Medications = []Entry{}
	}
	if h.Allergies == nil {
		h.Allergies = []Entry{}
	}
	if h.Surgeries == nil {
		h.Surgeries = []Entry{}
	}
	if h.Immunizations == nil {
		h.Immunizations = []Entry{}
	}
	if h.LabResults == nil {
		h.LabResults = []Entry{}
	}
}

// section returns a pointer to the named list.
func (h *History) section(name string) (*[]Entry, error) {
	switch name {
	case SectionConditions:
		return &h.Conditions, nil
	case SectionMedications:
		return &h.Medications, nil
	case SectionAllergies:
		return &h.Allergies, nil
	case SectionSurgeries:
		return &h.Surgeries, nil
	case SectionImmunizations:
		return &h.Immunizations, nil
	case SectionLabResults:
		return &h.LabResults, nil
	}
	return nil, ErrUnknownSection
}

// PatientHistory pairs a history with its owning patient for
// collection-wide reads.
type PatientHistory struct {
	PatientID string `json:"patientId"`
	History
}
