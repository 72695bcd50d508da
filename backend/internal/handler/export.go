package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ligaac/practica/shared/logger"
	"github.com/ligaac/practica/shared/utils"
)

// ExportApplicants handles GET /v1/export/companies/{companyId}/applicants?token=...
// The signed token is the only credential; the archive is streamed with an exact Content-Length.
func (h *Handler) ExportApplicants(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(chi.URLParam(r, "companyId"), "company ID")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bundle, err := h.export.Prepare(r.Context(), id, r.URL.Query().Get("token"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	headers := w.Header()
	headers.Set("Content-Type", "application/zip")
	headers.Set("Content-Length", bundle.ContentLength())
	headers.Set("Content-Disposition", utils.ContentDisposition("attachment", bundle.Name))
	headers.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	// headers are out; a failure here can only be logged and the connection dropped
	n, err := bundle.WriteTo(w)
	if err != nil {
		logger.Log.Warn("export stream aborted", "company_id", id, "written", n, "size", bundle.Size(), "error", err)
		panic(http.ErrAbortHandler)
	}
	logger.Log.Info("export streamed", "company_id", id, "bytes", n)
}
