package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/healthcare-portal/internal/appointment"
	"github.com/carebridge/healthcare-portal/internal/assistant"
	"github.com/carebridge/healthcare-portal/internal/docstore"
	"github.com/carebridge/healthcare-portal/internal/identity"
	"github.com/carebridge/healthcare-portal/internal/medhistory"
	"github.com/carebridge/healthcare-portal/internal/prescription"
	"github.com/carebridge/healthcare-portal/internal/session"
	"github.com/carebridge/healthcare-portal/internal/user"
)

// memRoleCache stands in for the Redis-backed cache in handler tests.
type memRoleCache struct {
	mu    sync.Mutex
	roles map[string]string
}

func newMemRoleCache() *memRoleCache {
	return &memRoleCache{roles: make(map[string]string)}
}

func (c *memRoleCache) Get(ctx context.Context, userID string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	role, ok := c.roles[userID]
	return role, ok, nil
}

func (c *memRoleCache) Set(ctx context.Context, userID, role string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roles[userID] = role
	return nil
}

func (c *memRoleCache) Invalidate(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.roles, userID)
	return nil
}

type testEnv struct {
	router   http.Handler
	store    docstore.Store
	provider identity.Provider
	users    *user.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := docstore.NewMemStore()
	provider := identity.NewStoreProvider(store, []byte("test-secret"), time.Hour)
	log := zerolog.Nop()

	users := user.NewService(store, provider, log)
	router := NewRouter(RouterConfig{
		Users:         users,
		Appointments:  appointment.NewService(store, log),
		Prescriptions: prescription.NewService(store, log),
		Histories:     medhistory.NewService(medhistory.NewRepository(store, log)),
		Assistant:     assistant.NewClient("http://localhost:0", "", log),
		Provider:      provider,
		Store:         store,
		RoleCache:     newMemRoleCache(),
		Logger:        log,
		Env:           "test",
		Version:       "test",
	})

	return &testEnv{router: router, store: store, provider: provider, users: users}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// seedAccount creates an account of any role directly and returns a
// fresh bearer token for it.
func (e *testEnv) seedAccount(t *testing.T, role session.Role, email string) (string, string) {
	t.Helper()
	ctx := context.Background()

	admin := session.Context{UserID: "bootstrap", Role: session.RoleAdmin}
	u, err := e.users.Create(ctx, admin, role, user.User{FirstName: "Seed"}, email, "pw12345")
	require.NoError(t, err)

	id, err := e.provider.Authenticate(ctx, email, "pw12345")
	require.NoError(t, err)
	return u.ID, id.Token
}

func TestSignupLoginMe(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/signup", "", SignupRequest{
		Email:     "ada@example.com",
		Password:  "pw12345",
		FirstName: "Ada",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	signup := decodeJSON[SessionResponse](t, rec)
	assert.Equal(t, "patient", signup.Role)
	assert.NotEmpty(t, signup.Token)
	assert.NotEmpty(t, signup.User.ID)

	rec = env.do(t, http.MethodGet, "/auth/me", signup.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me := decodeJSON[UserResponse](t, rec)
	assert.Equal(t, signup.User.ID, me.ID)
	assert.Equal(t, "Ada", me.FirstName)

	rec = env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{
		Email:    "ada@example.com",
		Password: "pw12345",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLogin_RoleMismatch(t *testing.T) {
	env := newTestEnv(t)
	env.seedAccount(t, session.RolePatient, "pat@example.com")

	rec := env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{
		Email:        "pat@example.com",
		Password:     "pw12345",
		ExpectedRole: "doctor",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())

	body := decodeJSON[ErrorResponse](t, rec)
	assert.Equal(t, "role_mismatch", body.Error)
}

func TestAuth_MissingOrBadToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAppointmentFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	patientID, patientToken := env.seedAccount(t, session.RolePatient, "pat@example.com")
	doctorID, doctorToken := env.seedAccount(t, session.RoleDoctor, "doc@example.com")

	rec := env.do(t, http.MethodPost, "/appointments", patientToken, CreateAppointmentRequest{
		DoctorID: doctorID,
		Date:     "2026-09-15",
		Time:     "10:30",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeJSON[AppointmentResponse](t, rec)
	assert.Equal(t, patientID, created.PatientID)

	rec = env.do(t, http.MethodPatch, "/appointments/"+created.ID, doctorToken, map[string]any{
		"status":   "completed",
		"feedback": map[string]any{"diagnosis": "flu"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeJSON[AppointmentResponse](t, rec)
	require.NotNil(t, updated.Feedback)
	assert.Equal(t, "flu", updated.Feedback.Diagnosis)

	// Terminal state: further transitions are conflicts.
	rec = env.do(t, http.MethodPatch, "/appointments/"+created.ID, doctorToken, map[string]any{
		"status": "scheduled",
	})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/appointments", patientToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeJSON[[]AppointmentResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, appointment.StatusCompleted, list[0].Status)
}

func TestPrescriptionValidationOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	_, doctorToken := env.seedAccount(t, session.RoleDoctor, "doc@example.com")
	_, patientToken := env.seedAccount(t, session.RolePatient, "pat@example.com")

	rec := env.do(t, http.MethodPost, "/prescriptions", doctorToken, CreatePrescriptionRequest{
		PatientID: "pat-1",
		Dosage:    "10mg",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/prescriptions", patientToken, CreatePrescriptionRequest{
		PatientID:      "pat-1",
		MedicationName: "Lisinopril",
		Dosage:         "10mg",
		Frequency:      "daily",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/prescriptions", doctorToken, CreatePrescriptionRequest{
		PatientID:      "pat-1",
		MedicationName: "Lisinopril",
		Dosage:         "10mg",
		Frequency:      "daily",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestMedicalHistoryOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	patientID, patientToken := env.seedAccount(t, session.RolePatient, "pat@example.com")
	_, otherToken := env.seedAccount(t, session.RolePatient, "other@example.com")

	rec := env.do(t, http.MethodPost, "/patients/"+patientID+"/medical-history/conditions", patientToken,
		map[string]any{"name": "Asthma"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/patients/"+patientID+"/medical-history", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/patients/"+patientID+"/medical-history", patientToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	h := decodeJSON[medhistory.History](t, rec)
	require.Len(t, h.Conditions, 1)
	assert.Equal(t, "Asthma", h.Conditions[0]["name"])
}

func TestAssistantDisabled(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedAccount(t, session.RolePatient, "pat@example.com")

	rec := env.do(t, http.MethodPost, "/assistant/chat", token, ChatRequest{Message: "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
}

func TestHealthLiveness(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
