package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/ligaac/practica/shared/api"
	internal_errors "github.com/ligaac/practica/shared/errors"
	"github.com/ligaac/practica/shared/logger"
	mw "github.com/ligaac/practica/shared/middleware"
	"github.com/ligaac/practica/shared/utils"
	"github.com/ligaac/practica/shared/validation"
)

const cvField = "cv"

// Me handles GET /v1/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.students.Me(r.Context(), mw.GetUserFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, me)
}

// UpdateProfile handles PATCH /v1/me/profile. Omitted fields are left unchanged.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body api.UpdateProfileRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	profile, err := h.students.UpdateContacts(r.Context(), mw.GetUserFromContext(r), body.Phone, body.Github, body.Linkedin)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, profile)
}

// Apply handles POST /v1/me/applications/{offerId}
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	offer, err := parseUUIDParam(chi.URLParam(r, "offerId"), "offer ID")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.students.Apply(r.Context(), mw.GetUserFromContext(r), offer); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// Withdraw handles DELETE /v1/me/applications/{offerId}
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	offer, err := parseUUIDParam(chi.URLParam(r, "offerId"), "offer ID")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.students.Withdraw(r.Context(), mw.GetUserFromContext(r), offer); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadCV handles POST /v1/upload/cv with a multipart "cv" field.
func (h *Handler) UploadCV(w http.ResponseWriter, r *http.Request) {
	maxSize := h.cfg.Public.MaxCVSize
	if err := validation.ParseUpload(r, w, maxSize); err != nil {
		utils.WriteErrorAndStatusCode(w, uploadError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	fileHeader, err := validation.SingleFile(r, cvField)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, uploadError(err))
		return
	}
	doc, err := validation.ValidateDocument(fileHeader, h.cfg.Public.AllowedCVMimeTypes, maxSize)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, uploadError(err))
		return
	}
	defer doc.Data.Close()

	profile, err := h.students.UploadCV(r.Context(), mw.GetUserFromContext(r), doc)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.Header().Set("Location", profile.CVURLPath())
	writeJSONStatus(w, http.StatusCreated, profile)
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, validation.ErrPayloadTooLarge):
		return &internal_errors.ValidationError{Message: err.Error(), TooLarge: true}
	case errors.Is(err, validation.ErrInvalidMimeType), errors.Is(err, validation.ErrMissingFile):
		return &internal_errors.ValidationError{Message: err.Error()}
	}
	logger.Log.Debug("multipart parse failed", "error", err)
	return &internal_errors.ValidationError{Message: "malformed multipart body"}
}

// DownloadCV handles GET /upload/cv/{profileId}/{basename}. The file is served
// inline under the student's name.
func (h *Handler) DownloadCV(w http.ResponseWriter, r *http.Request) {
	profile, err := parseUUIDParam(chi.URLParam(r, "profileId"), "profile ID")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rc, filename, err := h.students.OpenCV(r.Context(), profile, chi.URLParam(r, "basename"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", utils.ContentDisposition("inline", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		logger.Log.Warn("cv download interrupted", "profile_id", profile, "error", err)
	}
}
