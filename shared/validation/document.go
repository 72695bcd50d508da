package validation

import (
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"slices"
	"strings"
)

// PendingDocument is an uploaded document that passed validation and still has to be stored.
type PendingDocument struct {
	Filename  string
	MimeType  string
	SizeBytes int64
	Data      multipart.File
}

// ValidateDocument checks a single uploaded document against the MIME allow-list
// and size ceiling. The returned Data must be closed by the caller.
func ValidateDocument(fileHeader *multipart.FileHeader, allowedMimes []string, maxSize int64) (*PendingDocument, error) {
	if fileHeader.Size > maxSize {
		return nil, fmt.Errorf("%w: %s is %.1f MiB, limit is %.1f MiB", ErrPayloadTooLarge, fileHeader.Filename, mib(fileHeader.Size), mib(maxSize))
	}

	mimeType, err := DetectMimeType(fileHeader)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(allowedMimes, mimeType) {
		return nil, fmt.Errorf("%w: %s (file: %s)", ErrInvalidMimeType, mimeType, fileHeader.Filename)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}

	return &PendingDocument{
		Filename:  SafeFilename(fileHeader.Filename),
		MimeType:  mimeType,
		SizeBytes: fileHeader.Size,
		Data:      file,
	}, nil
}

func DetectMimeType(fileHeader *multipart.FileHeader) (string, error) {
	mimeType := fileHeader.Header.Get("Content-Type")

	// If no Content-Type or it's generic, detect from extension
	if mimeType == "" || mimeType == "application/octet-stream" {
		ext := filepath.Ext(fileHeader.Filename)
		detectedType := mime.TypeByExtension(ext)
		if detectedType != "" {
			mimeType = detectedType
		}
	}

	if mimeType == "" {
		return "", fmt.Errorf("%w: could not detect MIME type for file: %s", ErrInvalidMimeType, fileHeader.Filename)
	}

	// drop parameters such as "; charset=utf-8"
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = parsed
	}
	return mimeType, nil
}

// SafeFilename strips directories and characters that do not belong in a stored file name.
func SafeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f:
			return -1
		case strings.ContainsRune(`/:*?"<>|`, r):
			return '_'
		case r == ' ':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "document"
	}
	return name
}
