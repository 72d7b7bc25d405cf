package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carebridge/healthcare-portal/internal/medhistory"
)

func getMedicalHistoryHandler(svc *medhistory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)
		pid := chi.URLParam(r, "id")

		h, err := svc.Get(r.Context(), sess, pid)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, h)
	}
}

func saveMedicalHistoryHandler(svc *medhistory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)
		pid := chi.URLParam(r, "id")

		var h medhistory.History
		if err := json.NewDecoder(r.Body).Decode(&h); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := svc.Save(r.Context(), sess, pid, &h); err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, &h)
	}
}

func addMedicalHistoryItemHandler(svc *medhistory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)
		pid := chi.URLParam(r, "id")
		section := chi.URLParam(r, "section")

		var item medhistory.Entry
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		entry, err := svc.AddItem(r.Context(), sess, pid, section, item)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, entry)
	}
}

func removeMedicalHistoryItemHandler(svc *medhistory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)
		pid := chi.URLParam(r, "id")
		section := chi.URLParam(r, "section")
		itemID := chi.URLParam(r, "itemId")

		if err := svc.RemoveItem(r.Context(), sess, pid, section, itemID); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listMedicalHistoriesHandler(svc *medhistory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)

		all, err := svc.All(r.Context(), sess)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, all)
	}
}

func searchMedicalHistoriesHandler(svc *medhistory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)
		q := r.URL.Query()

		var (
			result []medhistory.PatientHistory
			err    error
		)
		switch {
		case q.Get("condition") != "":
			result, err = svc.FindByCondition(r.Context(), sess, q.Get("condition"))
		case q.Get("medication") != "":
			result, err = svc.FindByMedication(r.Context(), sess, q.Get("medication"))
		default:
			writeError(w, http.StatusBadRequest, "missing_filter", "condition or medication is required")
			return
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
