package prescription

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/healthcare-portal/internal/docstore"
	"github.com/carebridge/healthcare-portal/internal/session"
)

var doctorSess = session.Context{UserID: "doc-1", Role: session.RoleDoctor}

func newTestService() (*Service, docstore.Store) {
	store := docstore.NewMemStore()
	return NewService(store, zerolog.Nop()), store
}

func validInput() CreateInput {
	return CreateInput{
		PatientID:      "pat-1",
		MedicationName: "Lisinopril",
		Dosage:         "10mg",
		Frequency:      "once daily",
	}
}

func TestCreate_DoctorOnly(t *testing.T) {
	svc, _ := newTestService()

	for _, sess := range []session.Context{
		{UserID: "pat-1", Role: session.RolePatient},
		{UserID: "adm-1", Role: session.RoleAdmin},
	} {
		_, err := svc.Create(context.Background(), sess, validInput())
		require.ErrorIs(t, err, session.ErrUnauthorized)
	}
}

func TestCreate_StampsDoctorFromSession(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), doctorSess, validInput())
	require.NoError(t, err)
	assert.Equal(t, "doc-1", p.DoctorID)
	assert.Equal(t, StatusActive, p.Status)
	assert.NotEmpty(t, p.PrescribedDate, "defaults to today")
}

func TestCreate_ValidationWritesNothing(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	for _, in := range []CreateInput{
		{PatientID: "pat-1", Dosage: "10mg", Frequency: "daily"},
		{PatientID: "pat-1", MedicationName: "  ", Dosage: "10mg", Frequency: "daily"},
		{PatientID: "pat-1", MedicationName: "Lisinopril", Frequency: "daily"},
		{PatientID: "pat-1", MedicationName: "Lisinopril", Dosage: "10mg"},
	} {
		_, err := svc.Create(ctx, doctorSess, in)
		require.ErrorIs(t, err, ErrValidation)
	}

	children, err := store.Children(ctx, "prescriptions")
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestList_SortedByPrescribedDateDesc(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, date := range []string{"2024-02-01", "2024-03-01", "2024-01-01"} {
		in := validInput()
		in.PrescribedDate = date
		_, err := svc.Create(ctx, doctorSess, in)
		require.NoError(t, err)
	}

	list, err := svc.ListByPatient(ctx, "pat-1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2024-03-01", list[0].PrescribedDate)
	assert.Equal(t, "2024-02-01", list[1].PrescribedDate)
	assert.Equal(t, "2024-01-01", list[2].PrescribedDate)
}

func TestList_UnparseableDateFallsBackToCreatedAt(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	old := validInput()
	old.PrescribedDate = "2020-01-01"
	_, err := svc.Create(ctx, doctorSess, old)
	require.NoError(t, err)

	odd := validInput()
	odd.PrescribedDate = "sometime last week"
	created, err := svc.Create(ctx, doctorSess, odd)
	require.NoError(t, err)

	list, err := svc.ListByPatient(ctx, "pat-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	// The unparseable date sorts by its creation time, which is now.
	assert.Equal(t, created.ID, list[0].ID)
}

func TestListByDoctor(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, doctorSess, validInput())
	require.NoError(t, err)

	other := session.Context{UserID: "doc-2", Role: session.RoleDoctor}
	_, err = svc.Create(ctx, other, validInput())
	require.NoError(t, err)

	list, err := svc.ListByDoctor(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "doc-1", list[0].DoctorID)
}

func TestUpdate_IssuingDoctorOnly(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, doctorSess, validInput())
	require.NoError(t, err)

	other := session.Context{UserID: "doc-2", Role: session.RoleDoctor}
	_, err = svc.Update(ctx, other, p.ID, map[string]any{"status": "completed"})
	require.ErrorIs(t, err, session.ErrUnauthorized)

	updated, err := svc.Update(ctx, doctorSess, p.ID, map[string]any{"status": "completed"})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)
	assert.Equal(t, "Lisinopril", updated.MedicationName, "patch leaves other fields intact")
}

func TestDelete_IssuingDoctorOnly(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, doctorSess, validInput())
	require.NoError(t, err)

	other := session.Context{UserID: "doc-2", Role: session.RoleDoctor}
	require.ErrorIs(t, svc.Delete(ctx, other, p.ID), session.ErrUnauthorized)

	require.NoError(t, svc.Delete(ctx, doctorSess, p.ID))
	_, err = svc.Get(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
