// Package upload stores user files under the public directory with
// uuid-based names, validating type and size first.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/agrilink/agrilink/internal/apperr"
)

// imageExts maps accepted image MIME types (sniffed, not trusted from the
// client) to the stored extension.
var imageExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// attachmentExts additionally allows documents on community messages.
var attachmentExts = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// Saved describes one stored file.
type Saved struct {
	Path      string // relative URL path, e.g. uploads/ab12cd.jpg
	Name      string // original client file name
	MimeType  string
	SizeBytes int64
}

// Service writes validated uploads into one directory.
type Service struct {
	dir      string
	maxBytes int64
}

// NewService ensures the upload directory exists.
func NewService(dir string, maxMB int64) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Service{dir: dir, maxBytes: maxMB << 20}, nil
}

// Dir returns the directory uploads are written to.
func (s *Service) Dir() string { return s.dir }

// SaveImage stores an uploaded image and returns its relative path.
func (s *Service) SaveImage(fh *multipart.FileHeader) (string, error) {
	saved, err := s.save(fh, imageExts, "file")
	if err != nil {
		return "", err
	}
	return saved.Path, nil
}

// SaveAttachment stores an uploaded image or document.
func (s *Service) SaveAttachment(fh *multipart.FileHeader) (*Saved, error) {
	return s.save(fh, attachmentExts, "attachments")
}

// Remove deletes a stored file by its relative path. Missing files are not
// an error; callers use this for best-effort cleanup.
func (s *Service) Remove(relPath string) error {
	name := path.Base(relPath)
	if name == "." || name == "/" || name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}

func (s *Service) save(fh *multipart.FileHeader, allowed map[string]string, field string) (*Saved, error) {
	if fh.Size > s.maxBytes {
		return nil, apperr.Validation("file too large", map[string]string{
			field: fmt.Sprintf("file exceeds %d MB", s.maxBytes>>20),
		})
	}

	src, err := fh.Open()
	if err != nil {
		return nil, apperr.Internal(err, "failed to open upload")
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, apperr.Internal(err, "failed to read upload")
	}
	mimeType := http.DetectContentType(head[:n])

	ext, ok := allowed[mimeType]
	if !ok {
		return nil, apperr.Validation("unsupported file type", map[string]string{
			field: fmt.Sprintf("type %s is not allowed", mimeType),
		})
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return nil, apperr.Internal(err, "failed to store upload")
	}
	defer dst.Close()

	if _, err := dst.Write(head[:n]); err != nil {
		return nil, apperr.Internal(err, "failed to store upload")
	}
	if _, err := io.Copy(dst, src); err != nil {
		return nil, apperr.Internal(err, "failed to store upload")
	}

	return &Saved{
		Path:      "uploads/" + name,
		Name:      fh.Filename,
		MimeType:  mimeType,
		SizeBytes: fh.Size,
	}, nil
}
