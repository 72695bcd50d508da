package validation

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
)

var (
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrInvalidMimeType = errors.New("unsupported document type")
	ErrMissingFile     = errors.New("missing file")
)

const (
	// formOverhead covers multipart boundaries, part headers and small text fields.
	formOverhead = 1 << 20
	// parts beyond this are spooled to temporary files
	formMemory = 8 << 20
)

// ParseUpload caps the body at maxFileSize plus form overhead and parses the
// multipart form. Once over the cap the server stops reading, so clients may
// see a connection reset instead of the 413.
// Callers must RemoveAll the parsed form.
func ParseUpload(r *http.Request, w http.ResponseWriter, maxFileSize int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFileSize+formOverhead)

	if err := r.ParseMultipartForm(min(maxFileSize, formMemory)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request exceeds %.1f MiB", ErrPayloadTooLarge, mib(maxFileSize))
		}
		return fmt.Errorf("failed to parse multipart form: %w", err)
	}
	return nil
}

// SingleFile returns the first file uploaded under field.
func SingleFile(r *http.Request, field string) (*multipart.FileHeader, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, fmt.Errorf("%w: field %q", ErrMissingFile, field)
	}
	return r.MultipartForm.File[field][0], nil
}

func mib(bytes int64) float64 {
	return float64(bytes) / (1 << 20)
}
