package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"myson/internal/domain/catalog"

	"github.com/go-chi/chi/v5"
)

// addProductImagesHandler godoc
//
//	@Summary		Add images to a product
//	@Description	Multipart form with one or more image parts; new filenames append to the end of the sequence.
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			productID	path	int	true	"Product id"
//	@Security		ApiKeyAuth
//	@Success		200	{object}	map[string]any
//	@Failure		400	{object}	error
//	@Failure		404	{object}	error
//	@Router			/products/{productID}/images [post]
func (app *application) addProductImagesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseProductID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		app.badRequestResponse(w, r, catalog.ErrNoImages)
		return
	}
	if err := validateImageUploads(files); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	names, err := app.images.SaveAll(files)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("store images: %w", err))
		return
	}

	p, err := app.lifecycle.AddImages(ctx, id, names)
	if err != nil {
		if errs := app.images.RemoveAll(names); len(errs) > 0 {
			app.logger.Errorw("cleanup of orphaned image files failed", "errors", errs)
		}
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, catalog.ErrNoImages):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"message": "Images added successfully",
		"product": p,
	})
}

// replaceProductImageHandler godoc
//
//	@Summary		Replace one image slot
//	@Description	Multipart form with a single "image" part. The old file at the index is deleted (idempotent) and the slot is overwritten; other slots stay untouched.
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			productID	path	int	true	"Product id"
//	@Param			index		path	int	true	"Zero-based image index"
//	@Security		ApiKeyAuth
//	@Success		200	{object}	map[string]any
//	@Failure		400	{object}	error
//	@Failure		404	{object}	error
//	@Router			/products/{productID}/images/{index} [put]
func (app *application) replaceProductImageHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseProductID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	indexStr := chi.URLParam(r, "index")
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid image index: %s", indexStr))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		app.badRequestResponse(w, r, fmt.Errorf("a replacement image file is required"))
		return
	}
	if err := validateImageUploads(files[:1]); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	name, err := app.images.Save(files[0])
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("store image: %w", err))
		return
	}

	p, err := app.lifecycle.ReplaceImage(ctx, id, index, name)
	if err != nil {
		if remErr := app.images.Remove(name); remErr != nil {
			app.logger.Errorw("cleanup of orphaned image file failed", "image", name, "err", remErr)
		}
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, catalog.ErrImageIndexOutOfRange), errors.Is(err, catalog.ErrNoImages):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"message": "Image replaced successfully",
		"product": p,
	})
}

// deleteProductImageHandler godoc
//
//	@Summary		Delete one image
//	@Description	Removes one entry, addressed by filename or zero-based index, and deletes its file. Removing the last image is rejected and leaves the product unchanged.
//	@Tags			products
//	@Produce		json
//	@Param			productID	path	int		true	"Product id"
//	@Param			image		path	string	true	"Filename or zero-based index"
//	@Security		ApiKeyAuth
//	@Success		200	{object}	map[string]any
//	@Failure		400	{object}	error
//	@Failure		404	{object}	error
//	@Router			/products/{productID}/images/{image} [delete]
func (app *application) deleteProductImageHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseProductID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	target := chi.URLParam(r, "image")

	p, err := app.lifecycle.RemoveImage(ctx, id, target)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, catalog.ErrImageNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, catalog.ErrLastImage):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"message": "Image deleted successfully",
		"product": p,
	})
}
