package catalog

import (
	"context"
	"errors"
	"slices"
	"strconv"

	"go.uber.org/zap"
)

var (
	ErrNoImages             = errors.New("at least one image file is required")
	ErrLastImage            = errors.New("cannot remove the last image of a product")
	ErrImageNotFound        = errors.New("image not found on product")
	ErrImageIndexOutOfRange = errors.New("image index out of range")
)

// FileRemover deletes a stored image file by bare filename. Removing a file
// that is already absent must be a no-op.
type FileRemover interface {
	Remove(name string) error
}

// ImageLifecycle orchestrates every mutation of a product's image set so the
// record and the files on disk stay consistent. Invariant: a persisted
// product always has at least one image. Invariants are validated before any
// destructive call; file deletions happen after the record change committed
// and are best-effort (failures are logged, never surfaced, since the record
// mutation already succeeded).
type ImageLifecycle struct {
	store  Store
	files  FileRemover
	logger *zap.SugaredLogger
}

func NewImageLifecycle(store Store, files FileRemover, logger *zap.SugaredLogger) *ImageLifecycle {
	return &ImageLifecycle{store: store, files: files, logger: logger}
}

// AddImages appends stored filenames to the end of the product's sequence,
// preserving both the existing order and the upload order.
func (l *ImageLifecycle) AddImages(ctx context.Context, productID int64, names []string) (*Product, error) {
	if len(names) == 0 {
		return nil, ErrNoImages
	}

	p, err := l.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	p.Images = append(p.Images, names...)
	return l.store.UpdateProduct(ctx, &p.Product)
}

// ReplaceImage overwrites the slot at index with a new filename. The old
// file is deleted first; a file that is already gone is treated as cleaned
// up, not as an error.
func (l *ImageLifecycle) ReplaceImage(ctx context.Context, productID int64, index int, name string) (*Product, error) {
	if name == "" {
		return nil, ErrNoImages
	}

	p, err := l.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(p.Images) {
		return nil, ErrImageIndexOutOfRange
	}

	old := p.Images[index]
	if err := l.files.Remove(old); err != nil {
		l.logger.Errorw("failed to delete replaced image file", "product_id", productID, "image", old, "err", err)
	}

	p.Images[index] = name
	return l.store.UpdateProduct(ctx, &p.Product)
}

// RemoveImage deletes one entry from the sequence, addressed either by
// filename or by zero-based index. Removing the only image is rejected and
// leaves the product unchanged.
func (l *ImageLifecycle) RemoveImage(ctx context.Context, productID int64, target string) (*Product, error) {
	p, err := l.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	idx := -1
	if n, convErr := strconv.Atoi(target); convErr == nil {
		if n < 0 || n >= len(p.Images) {
			return nil, ErrImageNotFound
		}
		idx = n
	} else {
		idx = slices.Index(p.Images, target)
		if idx < 0 {
			return nil, ErrImageNotFound
		}
	}

	if len(p.Images) == 1 {
		return nil, ErrLastImage
	}

	name := p.Images[idx]
	p.Images = slices.Delete(slices.Clone(p.Images), idx, idx+1)

	updated, err := l.store.UpdateProduct(ctx, &p.Product)
	if err != nil {
		return nil, err
	}

	// record committed; file cleanup is best-effort
	if err := l.files.Remove(name); err != nil {
		l.logger.Errorw("failed to delete removed image file", "product_id", productID, "image", name, "err", err)
	}

	return updated, nil
}

// Update is the combined admin edit path: removals named in remove, then
// additions in add, then the scalar field changes, all persisted in a single
// save. The resulting image count is validated before any file is touched,
// so a rejected edit commits nothing: no file deletions, no field changes.
func (l *ImageLifecycle) Update(ctx context.Context, productID int64, fields ProductFields, add, remove []string) (*Product, error) {
	p, err := l.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	// pre-check: compute the resulting sequence before any side effect
	for _, name := range remove {
		if !slices.Contains(p.Images, name) {
			return nil, ErrImageNotFound
		}
	}
	result := make([]string, 0, len(p.Images)+len(add))
	for _, name := range p.Images {
		if !slices.Contains(remove, name) {
			result = append(result, name)
		}
	}
	result = append(result, add...)
	if len(result) == 0 {
		return nil, ErrLastImage
	}

	p.Images = result
	applyFields(&p.Product, fields)

	updated, err := l.store.UpdateProduct(ctx, &p.Product)
	if err != nil {
		return nil, err
	}

	for _, name := range remove {
		if err := l.files.Remove(name); err != nil {
			l.logger.Errorw("failed to delete removed image file", "product_id", productID, "image", name, "err", err)
		}
	}

	return updated, nil
}

// DeleteProduct removes the record and then deletes every associated image
// file from disk. File-deletion failures never block the deletion, which has
// already committed; disk and record reconcile eventually.
func (l *ImageLifecycle) DeleteProduct(ctx context.Context, productID int64) error {
	p, err := l.store.GetProductByID(ctx, productID)
	if err != nil {
		return err
	}

	if err := l.store.DeleteProduct(ctx, productID); err != nil {
		return err
	}

	for _, name := range p.Images {
		if err := l.files.Remove(name); err != nil {
			l.logger.Errorw("failed to delete image file of deleted product", "product_id", productID, "image", name, "err", err)
		}
	}

	return nil
}

func applyFields(p *Product, f ProductFields) {
	if f.Name != nil {
		p.Name = *f.Name
	}
	if f.Description != nil {
		p.Description = *f.Description
	}
	if f.Price != nil {
		p.Price = *f.Price
	}
	if f.CategoryID != nil {
		p.CategoryID = *f.CategoryID
	}
	if f.BrandID != nil {
		p.BrandID = *f.BrandID
	}
}
