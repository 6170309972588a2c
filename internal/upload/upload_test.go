package upload

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrilink/agrilink/internal/apperr"
)

// pngHeader is a minimal valid PNG signature for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

func fileHeader(t *testing.T, field, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File[field][0]
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewService(dir, 5)
	require.NoError(t, err)

	fh := fileHeader(t, "file", "photo.png", append(pngHeader, bytes.Repeat([]byte{0}, 64)...))
	path, err := svc.SaveImage(fh)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(path, "uploads/"))
	assert.True(t, strings.HasSuffix(path, ".png"))

	stored := filepath.Join(dir, filepath.Base(path))
	info, err := os.Stat(stored)
	require.NoError(t, err)
	assert.Equal(t, int64(len(pngHeader)+64), info.Size())
}

func TestSaveImage_RejectsUnsupportedType(t *testing.T) {
	svc, err := NewService(t.TempDir(), 5)
	require.NoError(t, err)

	fh := fileHeader(t, "file", "notes.txt", []byte("plain text, not an image"))
	_, err = svc.SaveImage(fh)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestSaveImage_RejectsOversize(t *testing.T) {
	svc, err := NewService(t.TempDir(), 1)
	require.NoError(t, err)

	big := append(pngHeader, bytes.Repeat([]byte{0}, 2<<20)...)
	fh := fileHeader(t, "file", "huge.png", big)
	_, err = svc.SaveImage(fh)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestSaveAttachment_AllowsPDF(t *testing.T) {
	svc, err := NewService(t.TempDir(), 5)
	require.NoError(t, err)

	fh := fileHeader(t, "attachments", "doc.pdf", []byte("%PDF-1.4 fake document body"))
	saved, err := svc.SaveAttachment(fh)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", saved.MimeType)
	assert.Equal(t, "doc.pdf", saved.Name)
	assert.True(t, strings.HasSuffix(saved.Path, ".pdf"))
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewService(dir, 5)
	require.NoError(t, err)

	fh := fileHeader(t, "file", "photo.png", append(pngHeader, 0, 0, 0, 0))
	path, err := svc.SaveImage(fh)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(path))
	_, statErr := os.Stat(filepath.Join(dir, filepath.Base(path)))
	assert.True(t, os.IsNotExist(statErr))

	// Removing twice is fine.
	assert.NoError(t, svc.Remove(path))
}
