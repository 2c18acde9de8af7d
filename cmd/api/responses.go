package main

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"myson/internal/domain/catalog"
)

// productResponse is the wire shape of a product: the record with its joined
// brand/category, image filenames materialized into absolute URLs from the
// request's own host, and a short opaque reference code derived from the id.
type productResponse struct {
	*catalog.ProductWithRefs
	Code   string   `json:"code"`
	Images []string `json:"images"`
}

func (app *application) productResponse(r *http.Request, p *catalog.ProductWithRefs) productResponse {
	urls := make([]string, len(p.Images))
	for i, name := range p.Images {
		urls[i] = app.images.URL(r, name)
	}

	code, err := app.codes.EncodeInt64([]int64{p.ID})
	if err != nil {
		// encoding only fails on invalid generator config; fall back to no code
		code = ""
	}

	return productResponse{
		ProductWithRefs: p,
		Code:            code,
		Images:          urls,
	}
}

func (app *application) productResponses(r *http.Request, items []*catalog.ProductWithRefs) []productResponse {
	out := make([]productResponse, len(items))
	for i, p := range items {
		out[i] = app.productResponse(r, p)
	}
	return out
}

// helper: sniff first 512 bytes and reset reader
func sniffMIME(file multipart.File) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read: %w", err)
	}
	mime := http.DetectContentType(buf[:n])

	// reset so later reads start from byte 0
	if seeker, ok := file.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("seek reset: %w", err)
		}
	}
	return mime, nil
}

var allowedImageMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// validateImageUploads sniffs every upload's actual MIME from its bytes
// (the Content-Type header is not trusted).
func validateImageUploads(fhs []*multipart.FileHeader) error {
	for _, fh := range fhs {
		file, err := fh.Open()
		if err != nil {
			return fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}

		mime, err := sniffMIME(file)
		file.Close()
		if err != nil {
			return fmt.Errorf("sniff mime: %w", err)
		}
		if !allowedImageMIME[mime] {
			return fmt.Errorf("invalid image type for %s: %s", fh.Filename, mime)
		}
	}
	return nil
}
