package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carebridge/healthcare-portal/internal/prescription"
)

func createPrescriptionHandler(svc *prescription.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)

		var req CreatePrescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := svc.Create(r.Context(), sess, prescription.CreateInput{
			PatientID:      req.PatientID,
			DoctorName:     req.DoctorName,
			MedicationName: req.MedicationName,
			Dosage:         req.Dosage,
			Frequency:      req.Frequency,
			Duration:       req.Duration,
			Instructions:   req.Instructions,
			Quantity:       req.Quantity,
			Refills:        req.Refills,
			PrescribedDate: req.PrescribedDate,
			Notes:          req.Notes,
			Status:         prescription.Status(req.Status),
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, PrescriptionResponse{ID: p.ID, Prescription: p})
	}
}

func listPrescriptionsHandler(svc *prescription.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)
		q := r.URL.Query()
		patientID := q.Get("patient_id")
		doctorID := q.Get("doctor_id")

		var (
			list []prescription.Prescription
			err  error
		)

		switch {
		case patientID != "":
			// Patients read their own; the issuing doctor and admins
			// read any patient list.
			if sess.IsPatient() && sess.UserID != patientID {
				writeError(w, http.StatusForbidden, "forbidden", "not your prescriptions")
				return
			}
			list, err = svc.ListByPatient(r.Context(), patientID)
		case doctorID != "":
			if sess.IsDoctor() && sess.UserID != doctorID {
				writeError(w, http.StatusForbidden, "forbidden", "not your prescriptions")
				return
			}
			if sess.IsPatient() {
				writeError(w, http.StatusForbidden, "forbidden", "not your prescriptions")
				return
			}
			list, err = svc.ListByDoctor(r.Context(), doctorID)
		case sess.IsPatient():
			list, err = svc.ListByPatient(r.Context(), sess.UserID)
		case sess.IsDoctor():
			list, err = svc.ListByDoctor(r.Context(), sess.UserID)
		default:
			writeError(w, http.StatusBadRequest, "missing_filter", "patient_id or doctor_id is required")
			return
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]PrescriptionResponse, 0, len(list))
		for i := range list {
			out = append(out, PrescriptionResponse{ID: list[i].ID, Prescription: &list[i]})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func updatePrescriptionHandler(svc *prescription.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)
		id := chi.URLParam(r, "id")

		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := svc.Update(r.Context(), sess, id, fields)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, PrescriptionResponse{ID: p.ID, Prescription: p})
	}
}

func deletePrescriptionHandler(svc *prescription.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)
		id := chi.URLParam(r, "id")

		if err := svc.Delete(r.Context(), sess, id); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
