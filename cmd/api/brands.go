package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"myson/internal/domain/catalog"
	"myson/internal/params"

	"github.com/go-chi/chi/v5"
)

type CreateBrandPayload struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

type UpdateBrandPayload struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=120"`
	Listed *bool   `json:"listed"`
}

func parseBrandID(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "brandID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid brand ID: %s", idStr)
	}
	return id, nil
}

// listBrandsHandler godoc
//
//	@Summary	List brands (admin)
//	@Tags		brands
//	@Produce	json
//	@Param		page	query	int		false	"Page"
//	@Param		limit	query	int		false	"Items per page"
//	@Param		listed	query	string	false	"true or false"
//	@Security	ApiKeyAuth
//	@Success	200	{object}	map[string]any
//	@Router		/brands [get]
func (app *application) listBrandsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	pg := params.ParsePagination(q)
	listed := params.ParseBoolFlag(q.Get("listed"))

	brands, total, err := app.store.Catalog.ListBrands(ctx, listed, pg.Limit, pg.Offset)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("list brands: %w", err))
		return
	}
	pg.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"brands":     brands,
		"pagination": pg,
	})
}

// createBrandHandler godoc
//
//	@Summary	Create a brand
//	@Tags		brands
//	@Accept		json
//	@Produce	json
//	@Param		payload	body	CreateBrandPayload	true	"Brand name"
//	@Security	ApiKeyAuth
//	@Success	201	{object}	map[string]any
//	@Failure	409	{object}	error
//	@Router		/brands [post]
func (app *application) createBrandHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var payload CreateBrandPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	brand, err := app.store.Catalog.CreateBrand(ctx, payload.Name)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrDuplicateName):
			app.conflictResponse(w, r, fmt.Errorf("brand with name '%s' already exists", payload.Name))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/v1/brands/%d", brand.ID))
	app.jsonResponse(w, http.StatusCreated, brand)
}

// updateBrandHandler godoc
//
//	@Summary	Update a brand (PATCH semantics)
//	@Tags		brands
//	@Accept		json
//	@Produce	json
//	@Param		brandID	path	int					true	"Brand id"
//	@Param		payload	body	UpdateBrandPayload	true	"Fields to change"
//	@Security	ApiKeyAuth
//	@Success	200	{object}	map[string]any
//	@Failure	404	{object}	error
//	@Router		/brands/{brandID} [patch]
func (app *application) updateBrandHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := parseBrandID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateBrandPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.Name == nil && payload.Listed == nil {
		app.badRequestResponse(w, r, fmt.Errorf("at least one field must be provided"))
		return
	}

	brand, err := app.store.Catalog.UpdateBrand(ctx, id, payload.Name, payload.Listed)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrBrandNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, catalog.ErrDuplicateName):
			app.conflictResponse(w, r, fmt.Errorf("brand with that name already exists"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, brand)
}

// toggleBrandListingHandler godoc
//
//	@Summary	Toggle brand visibility
//	@Tags		brands
//	@Accept		json
//	@Param		brandID	path	int				true	"Brand id"
//	@Param		payload	body	map[string]bool	true	"{\"listed\": bool}"
//	@Security	ApiKeyAuth
//	@Success	200	{object}	map[string]any
//	@Router		/brands/{brandID}/listing [patch]
func (app *application) toggleBrandListingHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := parseBrandID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload struct {
		Listed *bool `json:"listed"`
	}
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.Listed == nil {
		app.badRequestResponse(w, r, fmt.Errorf("a boolean listed value is required"))
		return
	}

	brand, err := app.store.Catalog.UpdateBrand(ctx, id, nil, payload.Listed)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrBrandNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, brand)
}

// deleteBrandHandler godoc
//
//	@Summary		Delete a brand
//	@Description	Refused while any product references the brand.
//	@Tags			brands
//	@Produce		json
//	@Param			brandID	path	int	true	"Brand id"
//	@Security		ApiKeyAuth
//	@Success		200	{object}	map[string]string
//	@Failure		400	{object}	error
//	@Failure		404	{object}	error
//	@Router			/brands/{brandID} [delete]
func (app *application) deleteBrandHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := parseBrandID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Catalog.DeleteBrand(ctx, id); err != nil {
		switch {
		case errors.Is(err, catalog.ErrBrandNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, catalog.ErrBrandReferenced):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{
		"message": "Brand deleted successfully",
	})
}
