package prescription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/carebridge/healthcare-portal/internal/docstore"
	"github.com/carebridge/healthcare-portal/internal/session"
)

const collection = "prescriptions"

var (
	ErrNotFound   = errors.New("prescription not found")
	ErrValidation = errors.New("medicationName, dosage and frequency are required")
)

type CreateInput struct {
	PatientID      string
	DoctorName     string
	MedicationName string
	Dosage         string
	Frequency      string
	Duration       string
	Instructions   string
	Quantity       string
	Refills        int
	PrescribedDate string
	Notes          string
	Status         Status
}

type Service struct {
	store docstore.Store
	log   zerolog.Logger
}

func NewService(store docstore.Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		log:   log.With().Str("component", "prescription").Logger(),
	}
}

// Create issues a prescription. Doctor sessions only; the doctor id is
// always stamped from the session, never taken from the input. Nothing
// is written when validation fails.
func (s *Service) Create(ctx context.Context, sess session.Context, in CreateInput) (*Prescription, error) {
	if !sess.IsDoctor() {
		return nil, session.ErrUnauthorized
	}

	if strings.TrimSpace(in.MedicationName) == "" ||
		strings.TrimSpace(in.Dosage) == "" ||
		strings.TrimSpace(in.Frequency) == "" {
		return nil, ErrValidation
	}

	now := time.Now().UTC()

	p := Prescription{
		PatientID:      in.PatientID,
		DoctorID:       sess.UserID,
		DoctorName:     in.DoctorName,
		MedicationName: in.MedicationName,
		Dosage:         in.Dosage,
		Frequency:      in.Frequency,
		Duration:       in.Duration,
		Instructions:   in.Instructions,
		Quantity:       in.Quantity,
		Refills:        in.Refills,
		PrescribedDate: in.PrescribedDate,
		Notes:          in.Notes,
		Status:         in.Status,
		CreatedAt:      now,
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if p.PrescribedDate == "" {
		p.PrescribedDate = now.Format("2006-01-02")
	}

	key, err := s.store.Push(ctx, collection, p)
	if err != nil {
		return nil, fmt.Errorf("create prescription: %w", err)
	}
	p.ID = key

	s.log.Info().Str("prescription_id", key).Str("patient_id", p.PatientID).
		Str("doctor_id", p.DoctorID).Msg("prescription issued")
	return &p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Prescription, error) {
	var p Prescription
	err := s.store.Read(ctx, collection+"/"+id, &p)
	if err != nil {
		if errors.Is(err, docstore.ErrPathMissing) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read prescription: %w", err)
	}
	p.ID = id
	return &p, nil
}

// ListByPatient returns the patient's prescriptions sorted descending by
// prescribed date, falling back to creation time. The sort order is a
// depended-upon contract.
func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]Prescription, error) {
	return s.list(ctx, func(p *Prescription) bool { return p.PatientID == patientID })
}

// ListByDoctor returns the issuing doctor's prescriptions, same order.
func (s *Service) ListByDoctor(ctx context.Context, doctorID string) ([]Prescription, error) {
	return s.list(ctx, func(p *Prescription) bool { return p.DoctorID == doctorID })
}

func (s *Service) list(ctx context.Context, keep func(*Prescription) bool) ([]Prescription, error) {
	children, err := s.store.Children(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}

	out := make([]Prescription, 0, len(children))
	for id, raw := range children {
		var p Prescription
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode prescription %s: %w", id, err)
		}
		p.ID = id
		if keep(&p) {
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].effectiveDate(), out[j].effectiveDate()
		if !di.Equal(dj) {
			return di.After(dj)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

// Update merge-patches a prescription. Only the issuing doctor may
// mutate it.
func (s *Service) Update(ctx context.Context, sess session.Context, id string, fields map[string]any) (*Prescription, error) {
	curr, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.UserID != curr.DoctorID {
		return nil, session.ErrUnauthorized
	}

	if err := s.store.Merge(ctx, collection+"/"+id, fields); err != nil {
		return nil, fmt.Errorf("update prescription: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a prescription. Only the issuing doctor may delete it.
func (s *Service) Delete(ctx context.Context, sess session.Context, id string) error {
	curr, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess.UserID != curr.DoctorID {
		return session.ErrUnauthorized
	}

	if err := s.store.Delete(ctx, collection+"/"+id); err != nil {
		return fmt.Errorf("delete prescription: %w", err)
	}
	return nil
}
