package catalog

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// lifecycleStore stubs the two Store methods the lifecycle touches. The
// embedded interface panics on anything else, which is exactly what we want:
// the lifecycle must not reach further into storage than documented.
type lifecycleStore struct {
	Store
	product *ProductWithRefs
	getErr  error
	saveErr error
	saved   *Product
	deleted []int64
}

func (s *lifecycleStore) GetProductByID(ctx context.Context, id int64) (*ProductWithRefs, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	// callers mutate the copy, never the stub's canonical record
	cp := *s.product
	cp.Images = slices.Clone(s.product.Images)
	return &cp, nil
}

func (s *lifecycleStore) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.saved = p
	return p, nil
}

func (s *lifecycleStore) DeleteProduct(ctx context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type recordingRemover struct {
	removed []string
	err     error
}

func (r *recordingRemover) Remove(name string) error {
	r.removed = append(r.removed, name)
	return r.err
}

func newLifecycle(images ...string) (*ImageLifecycle, *lifecycleStore, *recordingRemover) {
	store := &lifecycleStore{
		product: &ProductWithRefs{Product: Product{ID: 7, Name: "lamp", Images: images}},
	}
	files := &recordingRemover{}
	return NewImageLifecycle(store, files, zap.NewNop().Sugar()), store, files
}

func TestAddImages(t *testing.T) {
	lc, store, files := newLifecycle("a.jpg", "b.jpg")

	p, err := lc.AddImages(context.Background(), 7, []string{"c.jpg"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, p.Images)
	assert.Equal(t, p, store.saved)
	assert.Empty(t, files.removed)
}

func TestAddImagesRejectsEmpty(t *testing.T) {
	lc, store, _ := newLifecycle("a.jpg")

	_, err := lc.AddImages(context.Background(), 7, nil)
	assert.ErrorIs(t, err, ErrNoImages)
	assert.Nil(t, store.saved)
}

func TestReplaceImage(t *testing.T) {
	lc, store, files := newLifecycle("a.jpg", "b.jpg", "c.jpg")

	p, err := lc.ReplaceImage(context.Background(), 7, 2, "new.jpg")
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg", "b.jpg", "new.jpg"}, p.Images)
	assert.Equal(t, []string{"c.jpg"}, files.removed)
	assert.NotNil(t, store.saved)
}

func TestReplaceImageIndexOutOfRange(t *testing.T) {
	lc, store, files := newLifecycle("a.jpg")

	for _, idx := range []int{-1, 1, 5} {
		_, err := lc.ReplaceImage(context.Background(), 7, idx, "new.jpg")
		assert.ErrorIs(t, err, ErrImageIndexOutOfRange)
	}
	assert.Empty(t, files.removed)
	assert.Nil(t, store.saved)
}

func TestRemoveImageByName(t *testing.T) {
	lc, store, files := newLifecycle("a.jpg", "b.jpg")

	p, err := lc.RemoveImage(context.Background(), 7, "a.jpg")
	require.NoError(t, err)

	assert.Equal(t, []string{"b.jpg"}, p.Images)
	assert.Equal(t, []string{"a.jpg"}, files.removed)
	assert.NotNil(t, store.saved)
}

func TestRemoveImageByIndex(t *testing.T) {
	lc, _, files := newLifecycle("a.jpg", "b.jpg", "c.jpg")

	p, err := lc.RemoveImage(context.Background(), 7, "1")
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg", "c.jpg"}, p.Images)
	assert.Equal(t, []string{"b.jpg"}, files.removed)
}

func TestRemoveImageUnknownTarget(t *testing.T) {
	lc, store, files := newLifecycle("a.jpg", "b.jpg")

	_, err := lc.RemoveImage(context.Background(), 7, "missing.jpg")
	assert.ErrorIs(t, err, ErrImageNotFound)

	_, err = lc.RemoveImage(context.Background(), 7, "9")
	assert.ErrorIs(t, err, ErrImageNotFound)

	assert.Empty(t, files.removed)
	assert.Nil(t, store.saved)
}

func TestRemoveLastImageRejected(t *testing.T) {
	lc, store, files := newLifecycle("only.jpg")

	_, err := lc.RemoveImage(context.Background(), 7, "only.jpg")
	assert.ErrorIs(t, err, ErrLastImage)
	assert.Empty(t, files.removed)
	assert.Nil(t, store.saved)
}

func TestRemoveImageKeepsFileOnSaveFailure(t *testing.T) {
	lc, store, files := newLifecycle("a.jpg", "b.jpg")
	store.saveErr = errors.New("connection reset")

	_, err := lc.RemoveImage(context.Background(), 7, "a.jpg")
	assert.Error(t, err)
	assert.Empty(t, files.removed, "file must survive when the record change did not commit")
}

func TestUpdateCombinedEdit(t *testing.T) {
	lc, store, files := newLifecycle("a.jpg", "b.jpg")

	name := "desk lamp"
	price := 19.99
	p, err := lc.Update(context.Background(), 7,
		ProductFields{Name: &name, Price: &price},
		[]string{"c.jpg"}, []string{"a.jpg"})
	require.NoError(t, err)

	assert.Equal(t, []string{"b.jpg", "c.jpg"}, p.Images)
	assert.Equal(t, "desk lamp", p.Name)
	assert.Equal(t, 19.99, p.Price)
	assert.Equal(t, []string{"a.jpg"}, files.removed)
	assert.NotNil(t, store.saved)
}

func TestUpdateRejectsRemovalToEmpty(t *testing.T) {
	lc, store, files := newLifecycle("a.jpg", "b.jpg")

	_, err := lc.Update(context.Background(), 7, ProductFields{}, nil, []string{"a.jpg", "b.jpg"})
	assert.ErrorIs(t, err, ErrLastImage)
	assert.Empty(t, files.removed)
	assert.Nil(t, store.saved)
}

func TestUpdateRejectsUnknownRemoval(t *testing.T) {
	lc, store, files := newLifecycle("a.jpg", "b.jpg")

	_, err := lc.Update(context.Background(), 7, ProductFields{}, []string{"c.jpg"}, []string{"nope.jpg"})
	assert.ErrorIs(t, err, ErrImageNotFound)
	assert.Empty(t, files.removed)
	assert.Nil(t, store.saved)
}

func TestUpdateSwapKeepsOrder(t *testing.T) {
	// removing and adding in one edit keeps survivors in place, additions at the end
	lc, _, _ := newLifecycle("a.jpg", "b.jpg", "c.jpg")

	p, err := lc.Update(context.Background(), 7, ProductFields{}, []string{"d.jpg"}, []string{"b.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "c.jpg", "d.jpg"}, p.Images)
}

func TestDeleteProductCleansFiles(t *testing.T) {
	lc, store, files := newLifecycle("a.jpg", "b.jpg")

	err := lc.DeleteProduct(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, []int64{7}, store.deleted)
	assert.ElementsMatch(t, []string{"a.jpg", "b.jpg"}, files.removed)
}

func TestDeleteProductSurvivesFileErrors(t *testing.T) {
	lc, store, files := newLifecycle("a.jpg")
	files.err = errors.New("disk gone")

	err := lc.DeleteProduct(context.Background(), 7)
	assert.NoError(t, err, "record deletion committed; file cleanup is best-effort")
	assert.Equal(t, []int64{7}, store.deleted)
}
