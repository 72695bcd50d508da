package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ligaac/practica/shared/api"
	"github.com/ligaac/practica/shared/utils"
)

// Companies handles GET /v1/companies?has_internships=true
func (h *Handler) Companies(w http.ResponseWriter, r *http.Request) {
	withInternships := false
	if v := r.URL.Query().Get("has_internships"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid has_internships: must be a boolean", http.StatusBadRequest)
			return
		}
		withInternships = parsed
	}

	companies, err := h.catalogue.Companies(r.Context(), withInternships)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.CompaniesResponse{Companies: companies})
}

// Company handles GET /v1/companies/{slug}
func (h *Handler) Company(w http.ResponseWriter, r *http.Request) {
	company, err := h.catalogue.Company(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, company)
}
