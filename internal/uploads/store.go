package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedType is returned for file extensions outside the allow-list.
var ErrUnsupportedType = fmt.Errorf("uploads: unsupported file type")

// ErrTooLarge is returned when an upload exceeds the configured size cap.
var ErrTooLarge = fmt.Errorf("uploads: file too large")

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Store saves uploaded files on local disk under a base directory. Files get
// random names so an uploaded filename never reaches the filesystem.
type Store struct {
	baseDir string
	maxSize int64
}

// NewStore builds a Store rooted at baseDir.
func NewStore(baseDir string, maxSize int64) *Store {
	return &Store{baseDir: baseDir, maxSize: maxSize}
}

// Save persists one multipart file and returns the public path under which
// it is served.
func (s *Store) Save(file multipart.File, header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	if s.maxSize > 0 && header.Size > s.maxSize {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, header.Size)
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("uploads: create dir: %w", err)
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.baseDir, name))
	if err != nil {
		return "", fmt.Errorf("uploads: create file: %w", err)
	}
	defer dst.Close()

	limit := s.maxSize
	if limit <= 0 {
		limit = 1 << 30
	}
	written, err := io.Copy(dst, io.LimitReader(file, limit+1))
	if err != nil {
		return "", fmt.Errorf("uploads: write file: %w", err)
	}
	if written > limit {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, written)
	}

	return "/uploads/" + name, nil
}

// Remove deletes a stored file given its public path. Unknown paths are
// ignored.
func (s *Store) Remove(publicPath string) error {
	name := strings.TrimPrefix(publicPath, "/uploads/")
	if name == "" || strings.Contains(name, "/") {
		return nil
	}
	err := os.Remove(filepath.Join(s.baseDir, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
