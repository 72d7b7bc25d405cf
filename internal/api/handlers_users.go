package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carebridge/healthcare-portal/internal/session"
	"github.com/carebridge/healthcare-portal/internal/user"
)

func listUsersHandler(users *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)
		roleFilter := session.Role(r.URL.Query().Get("role"))

		// Admins browse any role; doctors only their patient roster.
		switch {
		case sess.IsAdmin():
		case sess.IsDoctor() && roleFilter == session.RolePatient:
		default:
			writeError(w, http.StatusForbidden, "forbidden", "listing users requires an admin session")
			return
		}

		list, err := users.List(r.Context(), roleFilter)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]UserResponse, 0, len(list))
		for i := range list {
			out = append(out, UserResponse{ID: list[i].ID, User: &list[i]})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// createUserHandler provisions doctor or admin accounts; admin only by
// way of the service's gating.
func createUserHandler(users *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)

		var req CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusUnprocessableEntity, "validation_failed", "email and password are required")
			return
		}

		profile := user.User{
			FirstName:        req.FirstName,
			LastName:         req.LastName,
			Phone:            req.Phone,
			DateOfBirth:      req.DateOfBirth,
			Specialization:   req.Specialization,
			LicenseNumber:    req.LicenseNumber,
			Address:          req.Address,
			EmergencyContact: req.EmergencyContact,
		}

		u, err := users.Create(r.Context(), sess, session.Role(req.Role), profile, req.Email, req.Password)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, UserResponse{ID: u.ID, User: u})
	}
}

func getUserHandler(users *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)
		id := chi.URLParam(r, "id")

		u, err := users.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		// Self, admin, or a doctor looking at a patient profile.
		switch {
		case sess.UserID == id || sess.IsAdmin():
		case sess.IsDoctor() && u.Role == session.RolePatient:
		default:
			writeError(w, http.StatusForbidden, "forbidden", "not allowed to view this profile")
			return
		}

		writeJSON(w, http.StatusOK, UserResponse{ID: u.ID, User: u})
	}
}

func updateUserHandler(users *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)
		id := chi.URLParam(r, "id")

		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := users.Update(r.Context(), sess, id, fields); err != nil {
			writeDomainError(w, err)
			return
		}

		u, err := users.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, UserResponse{ID: u.ID, User: u})
	}
}

func setUserActiveHandler(users *user.Service, active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)
		id := chi.URLParam(r, "id")

		var err error
		if active {
			err = users.Activate(r.Context(), sess, id)
		} else {
			err = users.Deactivate(r.Context(), sess, id)
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
