package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ligaac/practica/shared/api"
	"github.com/ligaac/practica/shared/domain"
	mw "github.com/ligaac/practica/shared/middleware"
	"github.com/ligaac/practica/shared/utils"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// parseAdminQuery reads search, company_id, limit and offset.
func parseAdminQuery(r *http.Request, target domain.Target) (domain.AdminQuery, error) {
	values := r.URL.Query()
	q := domain.AdminQuery{
		Target: target,
		Search: strings.TrimSpace(values.Get("search")),
		Limit:  defaultPageSize,
	}

	if v := values.Get("company_id"); v != "" {
		id, err := parseUUIDParam(v, "company_id")
		if err != nil {
			return q, err
		}
		q.CompanyId = &id
	}
	if v := values.Get("limit"); v != "" {
		limit, err := parseIntParam(v, "limit")
		if err != nil {
			return q, err
		}
		if limit < 1 || limit > maxPageSize {
			return q, fmt.Errorf("invalid limit: must be between 1 and %d", maxPageSize)
		}
		q.Limit = limit
	}
	if v := values.Get("offset"); v != "" {
		offset, err := parseIntParam(v, "offset")
		if err != nil {
			return q, err
		}
		if offset < 0 {
			return q, fmt.Errorf("invalid offset: must not be negative")
		}
		q.Offset = offset
	}
	return q, nil
}

// AdminCompanies handles GET /v1/admin/companies
func (h *Handler) AdminCompanies(w http.ResponseWriter, r *http.Request) {
	q, err := parseAdminQuery(r, domain.TargetCompanies)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	companies, err := h.admin.Companies(r.Context(), mw.GetUserFromContext(r), q)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if companies == nil {
		companies = []domain.Company{}
	}
	writeJSON(w, api.CompaniesResponse{Companies: companies})
}

// AdminOffers handles GET /v1/admin/offers
func (h *Handler) AdminOffers(w http.ResponseWriter, r *http.Request) {
	q, err := parseAdminQuery(r, domain.TargetOffers)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	offers, err := h.admin.Offers(r.Context(), mw.GetUserFromContext(r), q)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if offers == nil {
		offers = []domain.Offer{}
	}
	writeJSON(w, api.OffersResponse{Offers: offers})
}

// AdminApplicants handles GET /v1/admin/applicants
func (h *Handler) AdminApplicants(w http.ResponseWriter, r *http.Request) {
	q, err := parseAdminQuery(r, domain.TargetApplicants)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	applicants, err := h.admin.Applicants(r.Context(), mw.GetUserFromContext(r), q)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if applicants == nil {
		applicants = []domain.Applicant{}
	}
	writeJSON(w, api.ApplicantsResponse{Applicants: applicants})
}

// ExportLink handles GET /v1/admin/companies/{companyId}/export_link
func (h *Handler) ExportLink(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(chi.URLParam(r, "companyId"), "company ID")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	link, err := h.admin.ExportLink(r.Context(), mw.GetUserFromContext(r), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.ExportLinkResponse{URL: link})
}

// CreateOffer handles POST /v1/admin/offers
func (h *Handler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var body api.CreateOfferRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	offer, err := h.admin.CreateOffer(r.Context(), mw.GetUserFromContext(r), domain.Offer{
		CompanyId:    body.CompanyId,
		Title:        body.Title,
		Description:  body.Description,
		Requirements: body.Requirements,
		IsPaid:       body.IsPaid,
		Capacity:     body.Capacity,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, offer)
}

// CreateCompany handles POST /v1/admin/companies (superusers only)
func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var body api.CreateCompanyRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	company, err := h.admin.CreateCompany(r.Context(), mw.GetUserFromContext(r), domain.Company{
		Name:               body.Name,
		Slug:               body.Slug,
		Description:        body.Description,
		Website:            body.Website,
		Address:            body.Address,
		VisibleForStudents: body.VisibleForStudents,
		GroupId:            body.GroupId,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, company)
}

// RenameCompany handles PUT /v1/admin/companies/{companyId}/slug
func (h *Handler) RenameCompany(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(chi.URLParam(r, "companyId"), "company ID")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var body api.RenameCompanyRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.admin.RenameCompany(r.Context(), mw.GetUserFromContext(r), id, body.Slug); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
