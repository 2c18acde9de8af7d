package imagestore

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// DiskStore manages the physical image files backing product records.
// Filenames are unique per upload (timestamp + uuid fragment), so the
// directory needs no locking: files are only ever created or deleted,
// never rewritten in place.
type DiskStore struct {
	dir        string // filesystem directory holding the images
	publicPath string // URL path prefix images are served from, e.g. /images
}

func NewDiskStore(dir, publicPath string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &DiskStore{
		dir:        dir,
		publicPath: "/" + strings.Trim(publicPath, "/"),
	}, nil
}

// Dir returns the directory files are written to, for static file serving.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save writes an uploaded file to disk and returns the generated filename.
// The name keeps the original base for readability; the millisecond
// timestamp plus a uuid fragment makes it collision-proof.
func (s *DiskStore) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := s.filename(fh.Filename)

	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		// don't leave a truncated file behind
		os.Remove(dst.Name())
		return "", fmt.Errorf("write image file: %w", err)
	}

	return name, nil
}

// SaveAll stores every uploaded file and returns the generated filenames in
// upload order. On failure the files written so far are removed.
func (s *DiskStore) SaveAll(fhs []*multipart.FileHeader) ([]string, error) {
	names := make([]string, 0, len(fhs))
	for _, fh := range fhs {
		name, err := s.Save(fh)
		if err != nil {
			s.RemoveAll(names)
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// Remove deletes a stored file. A file that is already absent is a no-op,
// so cleanup stays idempotent.
func (s *DiskStore) Remove(name string) error {
	// reject anything that could escape the image directory
	if name == "" || name != filepath.Base(name) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveAll deletes every named file, collecting nothing: failures are the
// caller's to log, and a missing file is never one.
func (s *DiskStore) RemoveAll(names []string) []error {
	var errs []error
	for _, name := range names {
		if err := s.Remove(name); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", name, err))
		}
	}
	return errs
}

// URL materializes a stored filename into an absolute URL using the
// request's own host and protocol. Records persist bare filenames only.
func (s *DiskStore) URL(r *http.Request, name string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return fmt.Sprintf("%s://%s%s/%s", scheme, r.Host, s.publicPath, name)
}

func (s *DiskStore) filename(original string) string {
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(filepath.Base(original), ext)
	base = unsafeChars.ReplaceAllString(strings.ReplaceAll(base, " ", "-"), "")
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("%s-%d-%s%s", base, time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}
