package imagestore

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

func uploadHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("images", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	files := form.File["images"]
	require.Len(t, files, 1)
	return files[0]
}

func TestSaveGeneratesSafeUniqueNames(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/images")
	require.NoError(t, err)

	fh := uploadHeader(t, "My Fancy Lamp!.jpg", []byte("jpegdata"))

	first, err := store.Save(fh)
	require.NoError(t, err)
	second, err := store.Save(fh)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, "My-Fancy-Lamp"), "got %q", first)
	assert.True(t, strings.HasSuffix(first, ".jpg"))
	assert.Equal(t, first, filepath.Base(first))

	data, err := os.ReadFile(filepath.Join(store.Dir(), first))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpegdata"), data)
}

func TestSaveAllStoresEveryFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/images")
	require.NoError(t, err)

	names, err := store.SaveAll([]*multipart.FileHeader{
		uploadHeader(t, "a.png", []byte("a")),
		uploadHeader(t, "b.png", []byte("b")),
	})
	require.NoError(t, err)
	require.Len(t, names, 2)

	for _, name := range names {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/images")
	require.NoError(t, err)

	name, err := store.Save(uploadHeader(t, "x.webp", []byte("w")))
	require.NoError(t, err)

	require.NoError(t, store.Remove(name))
	_, statErr := os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(statErr))

	// second removal of the same file is not an error
	assert.NoError(t, store.Remove(name))
}

func TestRemoveRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/images")
	require.NoError(t, err)

	outside := filepath.Join(dir, "..", "victim.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))

	assert.NoError(t, store.Remove("../victim.txt"))
	_, statErr := os.Stat(outside)
	assert.NoError(t, statErr, "file outside the store directory must survive")
}

func TestURLMaterialization(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "images")
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "http://shop.example.com/v1/public/products", nil)
	assert.Equal(t, "http://shop.example.com/images/lamp-1.jpg", store.URL(r, "lamp-1.jpg"))

	r.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://shop.example.com/images/lamp-1.jpg", store.URL(r, "lamp-1.jpg"))
}
