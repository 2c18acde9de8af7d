package main

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\nrest-of-image")
	jpegBytes = []byte("\xff\xd8\xff\xe0rest-of-image")
)

func formFile(t *testing.T, filename string, content []byte) *multipart.FileHeader {
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

	return form.File["images"][0]
}

func TestValidateImageUploads(t *testing.T) {
	ok := []*multipart.FileHeader{
		formFile(t, "a.png", pngBytes),
		formFile(t, "b.jpg", jpegBytes),
	}
	assert.NoError(t, validateImageUploads(ok))

	// the extension lies; the bytes decide
	disguised := []*multipart.FileHeader{formFile(t, "evil.png", []byte("#!/bin/sh\nrm -rf /"))}
	assert.Error(t, validateImageUploads(disguised))
}

func TestSniffMIMEResetsReader(t *testing.T) {
	fh := formFile(t, "a.png", pngBytes)

	file, err := fh.Open()
	require.NoError(t, err)
	defer file.Close()

	mime, err := sniffMIME(file)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	// a later full read must still see the file from byte 0
	got := make([]byte, len(pngBytes))
	n, err := file.Read(got)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got[:n])
}
