package medhistory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/healthcare-portal/internal/docstore"
)

func newTestRepo() (*Repository, docstore.Store) {
	store := docstore.NewMemStore()
	return NewRepository(store, zerolog.Nop()), store
}

func TestGet_MissingPatientIsEmpty(t *testing.T) {
	repo, _ := newTestRepo()

	h, err := repo.Get(context.Background(), "pat-1")
	require.NoError(t, err)
	assert.NotNil(t, h.Conditions)
	assert.NotNil(t, h.Medications)
	assert.NotNil(t, h.Allergies)
	assert.NotNil(t, h.Surgeries)
	assert.NotNil(t, h.Immunizations)
	assert.NotNil(t, h.LabResults)
	assert.Empty(t, h.Conditions)
}

func TestGet_LegacyFallback(t *testing.T) {
	repo, store := newTestRepo()
	ctx := context.Background()

	// Only the legacy embedded field exists, as written by the old app.
	err := store.Write(ctx, "users/pat-1", map[string]any{
		"role": "patient",
		"medicalHistory": map[string]any{
			"conditions": []map[string]any{{"id": "c1", "name": "Hypertension"}},
		},
	})
	require.NoError(t, err)

	h, err := repo.Get(ctx, "pat-1")
	require.NoError(t, err)
	require.Len(t, h.Conditions, 1)
	assert.Equal(t, "Hypertension", h.Conditions[0]["name"])
	assert.NotNil(t, h.Medications, "missing sections come back empty, not nil")
}

func TestGet_PrefersCurrentShape(t *testing.T) {
	repo, store := newTestRepo()
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "users/pat-1", map[string]any{
		"medicalHistory": map[string]any{
			"conditions": []map[string]any{{"id": "old", "name": "Stale"}},
		},
	}))
	require.NoError(t, store.Write(ctx, "patientMedicalHistory/pat-1", map[string]any{
		"conditions": []map[string]any{{"id": "new", "name": "Current"}},
	}))

	h, err := repo.Get(ctx, "pat-1")
	require.NoError(t, err)
	require.Len(t, h.Conditions, 1)
	assert.Equal(t, "Current", h.Conditions[0]["name"])
}

func TestSave_WritesBothRepresentations(t *testing.T) {
	repo, store := newTestRepo()
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "users/pat-1", map[string]any{
		"role":      "patient",
		"firstName": "Ada",
	}))

	h := Empty()
	h.Allergies = append(h.Allergies, Entry{"id": "a1", "name": "Penicillin"})
	require.NoError(t, repo.Save(ctx, "pat-1", h))
	assert.False(t, h.LastUpdated.IsZero())

	var primary History
	require.NoError(t, store.Read(ctx, "patientMedicalHistory/pat-1", &primary))
	require.Len(t, primary.Allergies, 1)

	// The legacy leg merges into the user record without clobbering it.
	var u struct {
		FirstName      string   `json:"firstName"`
		MedicalHistory *History `json:"medicalHistory"`
	}
	require.NoError(t, store.Read(ctx, "users/pat-1", &u))
	assert.Equal(t, "Ada", u.FirstName)
	require.NotNil(t, u.MedicalHistory)
	require.Len(t, u.MedicalHistory.Allergies, 1)
}

// failingMergeStore fails the legacy leg while letting the primary
// write through.
type failingMergeStore struct {
	docstore.Store
	mergeErr error
}

func (s *failingMergeStore) Merge(ctx context.Context, path string, fields map[string]any) error {
	return s.mergeErr
}

func TestSave_PartialWriteSurfacesBothLegs(t *testing.T) {
	boom := errors.New("merge refused")
	store := &failingMergeStore{Store: docstore.NewMemStore(), mergeErr: boom}
	repo := NewRepository(store, zerolog.Nop())
	ctx := context.Background()

	err := repo.Save(ctx, "pat-1", Empty())

	var pw *PartialWriteError
	require.ErrorAs(t, err, &pw)
	assert.NoError(t, pw.Primary)
	require.ErrorIs(t, pw.Legacy, boom)
	require.ErrorIs(t, err, boom)

	// The primary leg was still attempted and landed.
	var h History
	require.NoError(t, store.Read(ctx, "patientMedicalHistory/pat-1", &h))
}

func TestAddItem(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()

	entry, err := repo.AddItem(ctx, "pat-1", SectionMedications, Entry{"name": "Metformin", "dosage": "500mg"})
	require.NoError(t, err)
	assert.NotEmpty(t, entry["id"])
	assert.Equal(t, "Metformin", entry["name"])

	second, err := repo.AddItem(ctx, "pat-1", SectionMedications, Entry{"name": "Lisinopril"})
	require.NoError(t, err)

	h, err := repo.Get(ctx, "pat-1")
	require.NoError(t, err)
	require.Len(t, h.Medications, 2)
	// Insertion order is preserved.
	assert.Equal(t, entry["id"], h.Medications[0]["id"])
	assert.Equal(t, second["id"], h.Medications[1]["id"])
}

func TestAddItem_UnknownSection(t *testing.T) {
	repo, _ := newTestRepo()

	_, err := repo.AddItem(context.Background(), "pat-1", "vitals", Entry{"name": "x"})
	require.ErrorIs(t, err, ErrUnknownSection)
}

func TestRemoveItem(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()

	entry, err := repo.AddItem(ctx, "pat-1", SectionConditions, Entry{"name": "Asthma"})
	require.NoError(t, err)

	require.NoError(t, repo.RemoveItem(ctx, "pat-1", SectionConditions, entry["id"].(string)))

	h, err := repo.Get(ctx, "pat-1")
	require.NoError(t, err)
	assert.Empty(t, h.Conditions)

	// Removing an id that is not there is a no-op.
	require.NoError(t, repo.RemoveItem(ctx, "pat-1", SectionConditions, "nope"))
}

func TestFindByCondition(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()

	_, err := repo.AddItem(ctx, "pat-1", SectionConditions, Entry{"name": "Type 2 Diabetes"})
	require.NoError(t, err)
	_, err = repo.AddItem(ctx, "pat-2", SectionConditions, Entry{"name": "Asthma"})
	require.NoError(t, err)

	matched, err := repo.FindByCondition(ctx, "diabetes")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "pat-1", matched[0].PatientID)

	none, err := repo.FindByCondition(ctx, "gout")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFindByMedication(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()

	_, err := repo.AddItem(ctx, "pat-1", SectionMedications, Entry{"name": "Metformin"})
	require.NoError(t, err)

	matched, err := repo.FindByMedication(ctx, "METFORMIN")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "pat-1", matched[0].PatientID)
}

func TestAll_OmitsLegacyOnlyRecords(t *testing.T) {
	repo, store := newTestRepo()
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "users/legacy-pat", map[string]any{
		"medicalHistory": map[string]any{"conditions": []map[string]any{{"name": "Old"}}},
	}))
	_, err := repo.AddItem(ctx, "pat-1", SectionConditions, Entry{"name": "New"})
	require.NoError(t, err)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "pat-1", all[0].PatientID)
}

func TestHistoryJSON_SectionsNeverNull(t *testing.T) {
	raw, err := json.Marshal(Empty())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "null")
}
