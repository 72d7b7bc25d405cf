package medhistory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebridge/healthcare-portal/internal/docstore"
)

const collection = "patientMedicalHistory"

func legacyPath(patientID string) string {
	return "users/" + patientID
}

// PartialWriteError reports a dual write where at least one of the two
// representations failed. The successful leg is not rolled back: the
// two locations diverge until the next successful save.
type PartialWriteError struct {
	Primary error // top-level patientMedicalHistory write
	Legacy  error // medicalHistory field embedded in the user record
}

func (e *PartialWriteError) Error() string {
	switch {
	case e.Primary != nil && e.Legacy != nil:
		return fmt.Sprintf("medical history dual write failed on both legs: primary: %v; legacy: %v", e.Primary, e.Legacy)
	case e.Primary != nil:
		return fmt.Sprintf("medical history dual write failed on primary leg: %v", e.Primary)
	default:
		return fmt.Sprintf("medical history dual write failed on legacy leg: %v", e.Legacy)
	}
}

func (e *PartialWriteError) Unwrap() []error {
	var errs []error
	if e.Primary != nil {
		errs = append(errs, e.Primary)
	}
	if e.Legacy != nil {
		errs = append(errs, e.Legacy)
	}
	return errs
}

// Repository presents one logical medical history per patient while
// physically maintaining two representations: the patientMedicalHistory
// collection (current) and the medicalHistory field embedded in the user
// record (legacy). Reads prefer the current shape; writes go to both.
type Repository struct {
	store docstore.Store
	log   zerolog.Logger
}

func NewRepository(store docstore.Store, log zerolog.Logger) *Repository {
	return &Repository{
		store: store,
		log:   log.With().Str("component", "medhistory").Logger(),
	}
}

// Get reads the current-shape record, falls back to the legacy embedded
// field, and returns an empty history when neither exists. Every list
// field of the result is non-nil.
func (r *Repository) Get(ctx context.Context, patientID string) (*History, error) {
	var h History
	err := r.store.Read(ctx, collection+"/"+patientID, &h)
	if err == nil {
		h.normalize()
		return &h, nil
	}
	if !errors.Is(err, docstore.ErrPathMissing) {
		return nil, fmt.Errorf("read medical history: %w", err)
	}

	var u struct {
		MedicalHistory *History `json:"medicalHistory"`
	}
	err = r.store.Read(ctx, legacyPath(patientID), &u)
	if err != nil {
		if errors.Is(err, docstore.ErrPathMissing) {
			return Empty(), nil
		}
		return nil, fmt.Errorf("read legacy medical history: %w", err)
	}
	if u.MedicalHistory == nil {
		return Empty(), nil
	}

	u.MedicalHistory.normalize()
	return u.MedicalHistory, nil
}

// Save writes both representations, current shape first. There is no
// atomicity between the legs: each is attempted regardless of the
// other, and any failure surfaces as a PartialWriteError.
func (r *Repository) Save(ctx context.Context, patientID string, h *History) error {
	h.normalize()
	h.LastUpdated = time.Now().UTC()

	primaryErr := r.store.Write(ctx, collection+"/"+patientID, h)
	legacyErr := r.store.Merge(ctx, legacyPath(patientID), map[string]any{"medicalHistory": h})

	if primaryErr == nil && legacyErr == nil {
		return nil
	}

	r.log.Error().AnErr("primary", primaryErr).AnErr("legacy", legacyErr).
		Str("patient_id", patientID).Msg("medical history dual write failed")
	return &PartialWriteError{Primary: primaryErr, Legacy: legacyErr}
}

// AddItem appends an entry to the named section with a generated id and
// saves through the dual-write path. Insertion order is preserved.
func (r *Repository) AddItem(ctx context.Context, patientID, section string, item Entry) (Entry, error) {
	h, err := r.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}

	list, err := h.section(section)
	if err != nil {
		return nil, err
	}

	entry := make(Entry, len(item)+1)
	for k, v := range item {
		entry[k] = v
	}
	entry["id"] = uuid.NewString()

	*list = append(*list, entry)

	if err := r.Save(ctx, patientID, h); err != nil {
		return nil, err
	}
	return entry, nil
}

// RemoveItem filters the named section by entry id. Removing an id that
// is not present is not an error.
func (r *Repository) RemoveItem(ctx context.Context, patientID, section, itemID string) error {
	h, err := r.Get(ctx, patientID)
	if err != nil {
		return err
	}

	list, err := h.section(section)
	if err != nil {
		return err
	}

	kept := (*list)[:0]
	for _, e := range *list {
		if id, _ := e["id"].(string); id == itemID {
			continue
		}
		kept = append(kept, e)
	}
	*list = kept

	return r.Save(ctx, patientID, h)
}

// All reads every patient's current-shape history. Legacy-only records
// are not included; the dual write keeps the current shape authoritative
// for collection-wide reads.
func (r *Repository) All(ctx context.Context) ([]PatientHistory, error) {
	children, err := r.store.Children(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list medical histories: %w", err)
	}

	out := make([]PatientHistory, 0, len(children))
	for pid, raw := range children {
		var h History
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, fmt.Errorf("decode medical history %s: %w", pid, err)
		}
		h.normalize()
		out = append(out, PatientHistory{PatientID: pid, History: h})
	}
	return out, nil
}

// FindByCondition returns patients whose conditions contain the name as
// a case-insensitive substring.
func (r *Repository) FindByCondition(ctx context.Context, name string) ([]PatientHistory, error) {
	return r.find(ctx, name, func(h *History) []Entry { return h.Conditions })
}

// FindByMedication is FindByCondition over the medications section.
func (r *Repository) FindByMedication(ctx context.Context, name string) ([]PatientHistory, error) {
	return r.find(ctx, name, func(h *History) []Entry { return h.Medications })
}

func (r *Repository) find(ctx context.Context, name string, pick func(*History) []Entry) ([]PatientHistory, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(name)
	matched := make([]PatientHistory, 0)
	for _, ph := range all {
		for _, e := range pick(&ph.History) {
			n, _ := e["name"].(string)
			if n != "" && strings.Contains(strings.ToLower(n), needle) {
				matched = append(matched, ph)
				break
			}
		}
	}
	return matched, nil
}
