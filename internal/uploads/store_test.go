package uploads

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
)

func multipartFixture(t *testing.T, filename string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("arquivo", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	file, header, err := req.FormFile("arquivo")
	require.NoError(t, err)
	return file, header
}

func TestSaveRenamesFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, 1024)

	file, header := multipartFixture(t, "atestado médico.pdf", []byte("%PDF-1.4 fake"))
	path, err := store.Save(file, header)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(path, "/uploads/"))
	assert.True(t, strings.HasSuffix(path, ".pdf"))
	assert.NotContains(t, path, "atestado")

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(path, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 fake"), data)
}

func TestSaveRejectsUnknownExtension(t *testing.T) {
	store := NewStore(t.TempDir(), 1024)
	file, header := multipartFixture(t, "script.exe", []byte("MZ"))

	_, err := store.Save(file, header)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	store := NewStore(t.TempDir(), 8)
	file, header := multipartFixture(t, "grande.png", bytes.Repeat([]byte("a"), 64))

	_, err := store.Save(file, header)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestRemoveIgnoresTraversal(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, 1024)

	outside := filepath.Join(dir, "..", "escape.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	require.NoError(t, store.Remove("/uploads/../escape.txt"))
	_, err := os.Stat(outside)
	assert.NoError(t, err, "file outside the store must survive")
}
