package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carebridge/healthcare-portal/internal/appointment"
	"github.com/carebridge/healthcare-portal/internal/session"
)

func createAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)

		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Create(r.Context(), sess, appointment.CreateInput{
			PatientID: req.PatientID,
			DoctorID:  req.DoctorID,
			Date:      req.Date,
			Time:      req.Time,
			Notes:     req.Notes,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, AppointmentResponse{ID: appt.ID, Appointment: appt})
	}
}

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)

		userID, role := sess.UserID, sess.Role
		if sess.IsAdmin() {
			// Admins see everything, optionally narrowed to one user.
			userID = r.URL.Query().Get("user_id")
			role = session.Role(r.URL.Query().Get("as_role"))
		}

		appts, err := svc.List(r.Context(), userID, role)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			out = append(out, AppointmentResponse{ID: appts[i].ID, Appointment: &appts[i]})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)
		id := chi.URLParam(r, "id")

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if sess.UserID != appt.PatientID && sess.UserID != appt.DoctorID && !sess.IsAdmin() {
			writeError(w, http.StatusForbidden, "forbidden", "not a party to this appointment")
			return
		}

		writeJSON(w, http.StatusOK, AppointmentResponse{ID: appt.ID, Appointment: appt})
	}
}

func updateAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)
		id := chi.URLParam(r, "id")

		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Update(r.Context(), sess, id, fields)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AppointmentResponse{ID: appt.ID, Appointment: appt})
	}
}

func cancelAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)
		id := chi.URLParam(r, "id")

		appt, err := svc.Cancel(r.Context(), sess, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AppointmentResponse{ID: appt.ID, Appointment: appt})
	}
}
