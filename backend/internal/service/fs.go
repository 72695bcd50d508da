package service

import (
	"io"
	iofs "io/fs"
)

type DocumentStorage interface {
	// SaveCV stores a profile's document and returns its path relative to the media root.
	SaveCV(fileData io.Reader, profileID, filename string) (string, error)

	// Read opens a stored document. Missing files are a 404.
	Read(filePath string) (io.ReadCloser, error)

	// Stat reports a stored document's size without opening it.
	Stat(filePath string) (iofs.FileInfo, error)

	DeleteFile(filePath string) error
}
