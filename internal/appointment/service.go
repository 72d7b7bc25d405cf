package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/carebridge/healthcare-portal/internal/docstore"
	"github.com/carebridge/healthcare-portal/internal/session"
)

const collection = "appointments"

var (
	ErrNotFound = errors.New("appointment not found")

	// ErrInvalidTransition rejects any status change out of a terminal
	// state; the stored record is left untouched.
	ErrInvalidTransition = errors.New("invalid appointment status transition")

	ErrValidation = errors.New("patientId, doctorId, date and time are required")
)

type CreateInput struct {
	PatientID string
	DoctorID  string
	Date      string
	Time      string
	Notes     string
}

type Service struct {
	store docstore.Store
	log   zerolog.Logger
}

func NewService(store docstore.Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		log:   log.With().Str("component", "appointment").Logger(),
	}
}

// Create books an appointment. Patients book for themselves; admins may
// book on behalf of anyone. Status always starts at scheduled. There is
// no conflict check against the doctor's other bookings: double-booking
// a slot is possible, matching the portal's long-standing behavior.
func (s *Service) Create(ctx context.Context, sess session.Context, in CreateInput) (*Appointment, error) {
	switch {
	case sess.IsPatient():
		if in.PatientID == "" {
			in.PatientID = sess.UserID
		}
		if in.PatientID != sess.UserID {
			return nil, session.ErrUnauthorized
		}
	case sess.IsAdmin():
	default:
		return nil, session.ErrUnauthorized
	}

	if in.PatientID == "" || in.DoctorID == "" || in.Date == "" || in.Time == "" {
		return nil, ErrValidation
	}

	appt := Appointment{
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		Date:      in.Date,
		Time:      in.Time,
		Status:    StatusScheduled,
		Notes:     in.Notes,
		CreatedAt: time.Now().UTC(),
	}

	key, err := s.store.Push(ctx, collection, appt)
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	appt.ID = key

	s.log.Info().Str("appointment_id", key).Str("patient_id", in.PatientID).
		Str("doctor_id", in.DoctorID).Msg("appointment booked")
	return &appt, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	var appt Appointment
	err := s.store.Read(ctx, collection+"/"+id, &appt)
	if err != nil {
		if errors.Is(err, docstore.ErrPathMissing) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read appointment: %w", err)
	}
	appt.ID = id
	return &appt, nil
}

// List fetches the whole collection and filters by ownership in memory:
// patients see records where they are the patient, doctors where they
// are the doctor, and an empty role returns everything (admin use).
func (s *Service) List(ctx context.Context, userID string, role session.Role) ([]Appointment, error) {
	children, err := s.store.Children(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	appts := make([]Appointment, 0, len(children))
	for id, raw := range children {
		var a Appointment
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("decode appointment %s: %w", id, err)
		}
		a.ID = id

		switch role {
		case session.RolePatient:
			if a.PatientID != userID {
				continue
			}
		case session.RoleDoctor:
			if a.DoctorID != userID {
				continue
			}
		}
		appts = append(appts, a)
	}

	sort.Slice(appts, func(i, j int) bool {
		if !appts[i].CreatedAt.Equal(appts[j].CreatedAt) {
			return appts[i].CreatedAt.Before(appts[j].CreatedAt)
		}
		return appts[i].ID < appts[j].ID
	})

	return appts, nil
}

// Update merge-patches an appointment. Status transitions and feedback
// attachment are validated against the caller's role and the record's
// ownership before anything is written:
//
//	scheduled -> completed   referenced doctor only
//	scheduled -> no-show     referenced doctor only
//	scheduled -> cancelled   referenced patient or doctor
//
// completed, cancelled and no-show are terminal.
func (s *Service) Update(ctx context.Context, sess session.Context, id string, fields map[string]any) (*Appointment, error) {
	curr, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	isPatient := sess.UserID == curr.PatientID
	isDoctor := sess.UserID == curr.DoctorID
	if !isPatient && !isDoctor && !sess.IsAdmin() {
		return nil, session.ErrUnauthorized
	}

	if raw, ok := fields["status"]; ok {
		str, ok := raw.(string)
		if !ok || !Status(str).Valid() {
			return nil, fmt.Errorf("%w: unknown status %v", ErrInvalidTransition, raw)
		}
		next := Status(str)

		if next != curr.Status {
			if curr.Status.Terminal() {
				return nil, ErrInvalidTransition
			}
			switch next {
			case StatusCompleted, StatusNoShow:
				if !isDoctor && !sess.IsAdmin() {
					return nil, session.ErrUnauthorized
				}
			case StatusCancelled:
				if !isPatient && !isDoctor && !sess.IsAdmin() {
					return nil, session.ErrUnauthorized
				}
			default:
				return nil, ErrInvalidTransition
			}
		}
	}

	if _, ok := fields["feedback"]; ok {
		if !isDoctor && !sess.IsAdmin() {
			return nil, session.ErrUnauthorized
		}
	}

	if err := s.store.Merge(ctx, collection+"/"+id, fields); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	return s.Get(ctx, id)
}

// Cancel is a convenience wrapper for the cancelled transition.
func (s *Service) Cancel(ctx context.Context, sess session.Context, id string) (*Appointment, error) {
	return s.Update(ctx, sess, id, map[string]any{"status": string(StatusCancelled)})
}
