// Package storage keeps uploaded files on local disk under one directory
// per purpose and hands out the URLs the records reference.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/appcontrol-api/apperrors"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// URLPrefix is the public path files are served under
const URLPrefix = "/uploads"

// Purpose selects the subdirectory an upload is stored in
type Purpose string

const (
	PurposeExam   Purpose = "exams"
	PurposeRecipe Purpose = "recipes"
)

// Stored describes a file written by Save
type Stored struct {
	URL          string
	OriginalName string
	Size         int64
	MimeType     string
}

// LocalStore writes uploads below root
type LocalStore struct {
	root    string
	maxSize int64
}

// NewLocalStore creates root and the per-purpose directories
func NewLocalStore(root string, maxSize int64) (*LocalStore, error) {
	for _, purpose := range []Purpose{PurposeExam, PurposeRecipe} {
		if err := os.MkdirAll(filepath.Join(root, string(purpose)), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
	}
	return &LocalStore{root: root, maxSize: maxSize}, nil
}

// Root returns the directory files are stored in
func (s *LocalStore) Root() string {
	return s.root
}

// Save sniffs the content type of header, checks it against allowed and
// writes the file under a fresh name.
func (s *LocalStore) Save(purpose Purpose, header *multipart.FileHeader, allowed []string) (*Stored, error) {
	if header == nil {
		return nil, apperrors.Upload("File is required")
	}
	if s.maxSize > 0 && header.Size > s.maxSize {
		return nil, apperrors.Upload(fmt.Sprintf("File too large. Maximum size is %d MB", s.maxSize/(1024*1024)))
	}

	src, err := header.Open()
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to read uploaded file")
	}
	defer src.Close()

	detected, err := mimetype.DetectReader(src)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to read uploaded file")
	}
	mimeType, ok := match(detected, allowed)
	if !ok {
		return nil, apperrors.Upload(fmt.Sprintf("File type %s is not allowed", detected.String()))
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, apperrors.Internal(err, "Failed to read uploaded file")
	}

	name := uuid.NewString() + detected.Extension()
	dst := filepath.Join(s.root, string(purpose), name)
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to store uploaded file")
	}

	written, err := io.Copy(out, src)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return nil, apperrors.Internal(err, "Failed to store uploaded file")
	}

	return &Stored{
		URL:          path.Join(URLPrefix, string(purpose), name),
		OriginalName: filepath.Base(header.Filename),
		Size:         written,
		MimeType:     mimeType,
	}, nil
}

// match walks the detected type and its parents so that, for example, a
// docx sniffed as zip-based still matches its declared type
func match(detected *mimetype.MIME, allowed []string) (string, bool) {
	for m := detected; m != nil; m = m.Parent() {
		for _, candidate := range allowed {
			if m.Is(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

// Path resolves a stored URL to its location on disk
func (s *LocalStore) Path(url string) (string, error) {
	rel, ok := strings.CutPrefix(url, URLPrefix+"/")
	if !ok {
		return "", fmt.Errorf("url %q is not a stored file", url)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("url %q escapes the upload directory", url)
	}
	return filepath.Join(s.root, clean), nil
}

// Remove deletes the file behind url. A file that is already gone counts
// as removed.
func (s *LocalStore) Remove(url string) error {
	p, err := s.Path(url)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
