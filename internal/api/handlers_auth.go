package api

import (
	"encoding/json"
	"net/http"

	"github.com/carebridge/healthcare-portal/internal/docstore"
	"github.com/carebridge/healthcare-portal/internal/identity"
	redisclient "github.com/carebridge/healthcare-portal/internal/redis"
	"github.com/carebridge/healthcare-portal/internal/session"
	"github.com/carebridge/healthcare-portal/internal/user"
)

// signupHandler registers a patient account. Doctor and admin accounts
// are created by an admin through POST /users.
func signupHandler(users *user.Service, provider identity.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignupRequest
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
			Address:          req.Address,
			EmergencyContact: req.EmergencyContact,
		}

		u, err := users.Create(r.Context(), session.Context{}, session.RolePatient, profile, req.Email, req.Password)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		// Sign the fresh account in so the client gets a usable token.
		id, err := provider.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, SessionResponse{
			Token: id.Token,
			Role:  string(u.Role),
			User:  UserResponse{ID: u.ID, User: u},
		})
	}
}

func loginHandler(provider identity.Provider, store docstore.Store, users *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		sess, err := session.Login(r.Context(), provider, store, req.Email, req.Password, session.Role(req.ExpectedRole))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		u, err := users.Get(r.Context(), sess.Identity.UID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, SessionResponse{
			Token: sess.Identity.Token,
			Role:  string(sess.Role),
			User:  UserResponse{ID: u.ID, User: u},
		})
	}
}

func logoutHandler(provider identity.Provider, roleCache redisclient.RoleCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFrom(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "no session")
			return
		}

		_ = provider.Deauthenticate(r.Context())
		if err := roleCache.Invalidate(r.Context(), sess.UserID); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func meHandler(users *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFrom(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "no session")
			return
		}

		u, err := users.Get(r.Context(), sess.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, UserResponse{ID: u.ID, User: u})
	}
}
