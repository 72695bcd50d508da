package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ligaac/practica/backend/internal/service"
	internal_errors "github.com/ligaac/practica/shared/errors"
)

type Storage struct {
	rootPath string
}

// Ensure Storage struct implements the interface at compile time.
var _ service.DocumentStorage = (*Storage)(nil)

func New(rootPath string) (*Storage, error) {
	// Use filepath.Clean to prevent path traversal issues like "media/../"
	p := filepath.Clean(rootPath)

	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage directory %s: %w", p, err)
	}

	return &Storage{rootPath: p}, nil
}

// Ping reports whether the media root is still a reachable directory.
func (s *Storage) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(s.rootPath)
	if err != nil {
		return fmt.Errorf("media root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("media root %s is not a directory", s.rootPath)
	}
	return nil
}

// SaveCV writes a CV under cv/<profileID>/<filename> and returns the relative path.
// filename must already be sanitized.
func (s *Storage) SaveCV(fileData io.Reader, profileID, filename string) (string, error) {
	relativePath := filepath.ToSlash(filepath.Join("cv", profileID, filepath.Base(filename)))
	fullPath, err := s.resolve(relativePath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create subdirectories: %w", err)
	}

	// write next to the target and rename, so readers never see a partial file
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	if _, err := io.Copy(tmp, fileData); err != nil {
		tmp.Close()
		os.Remove(tmp.Name()) // Best effort, ignore error here.
		return "", fmt.Errorf("failed to copy file data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	return relativePath, nil
}

// Read opens a stored file for reading.
func (s *Storage) Read(filePath string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(filePath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, internal_errors.NotFound("File")
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Stat reports a stored file's size and modification time.
func (s *Storage) Stat(filePath string) (iofs.FileInfo, error) {
	fullPath, err := s.resolve(filePath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, internal_errors.NotFound("File")
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, internal_errors.NotFound("File")
	}
	return info, nil
}

// WalkCVs lists every stored file under cv/ as a slash separated path relative to the root.
func (s *Storage) WalkCVs() ([]string, error) {
	root := filepath.Join(s.rootPath, "cv")
	var paths []string
	err := filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, iofs.ErrNotExist) && path == root {
				return iofs.SkipDir
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.rootPath, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk cv directory: %w", err)
	}
	return paths, nil
}

// DeleteFile removes a single file from storage. A missing file is not an error.
func (s *Storage) DeleteFile(filePath string) error {
	fullPath, err := s.resolve(filePath)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// resolve maps a relative path to an absolute one, refusing anything that escapes the root.
func (s *Storage) resolve(relativePath string) (string, error) {
	fullPath := filepath.Join(s.rootPath, filepath.FromSlash(relativePath))
	if fullPath != s.rootPath && !strings.HasPrefix(fullPath, s.rootPath+string(filepath.Separator)) {
		return "", &internal_errors.ValidationError{Message: "invalid file path"}
	}
	return fullPath, nil
}
