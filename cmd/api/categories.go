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

type CreateCategoryPayload struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

type UpdateCategoryPayload struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=120"`
	Listed *bool   `json:"listed"`
}

func parseCategoryID(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "categoryID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid category ID: %s", idStr)
	}
	return id, nil
}

// listCategoriesHandler godoc
//
//	@Summary	List categories (admin)
//	@Tags		categories
//	@Produce	json
//	@Param		page	query	int		false	"Page"
//	@Param		limit	query	int		false	"Items per page"
//	@Param		listed	query	string	false	"true or false"
//	@Security	ApiKeyAuth
//	@Success	200	{object}	map[string]any
//	@Router		/categories [get]
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	pg := params.ParsePagination(q)
	listed := params.ParseBoolFlag(q.Get("listed"))

	categories, total, err := app.store.Catalog.ListCategories(ctx, listed, pg.Limit, pg.Offset)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("list categories: %w", err))
		return
	}
	pg.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"categories": categories,
		"pagination": pg,
	})
}

// createCategoryHandler godoc
//
//	@Summary	Create a category
//	@Tags		categories
//	@Accept		json
//	@Produce	json
//	@Param		payload	body	CreateCategoryPayload	true	"Category name"
//	@Security	ApiKeyAuth
//	@Success	201	{object}	map[string]any
//	@Failure	409	{object}	error
//	@Router		/categories [post]
func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var payload CreateCategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	category, err := app.store.Catalog.CreateCategory(ctx, payload.Name)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrDuplicateName):
			app.conflictResponse(w, r, fmt.Errorf("category with name '%s' already exists", payload.Name))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/v1/categories/%d", category.ID))
	app.jsonResponse(w, http.StatusCreated, category)
}

// updateCategoryHandler godoc
//
//	@Summary	Update a category (PATCH semantics)
//	@Tags		categories
//	@Accept		json
//	@Produce	json
//	@Param		categoryID	path	int						true	"Category id"
//	@Param		payload		body	UpdateCategoryPayload	true	"Fields to change"
//	@Security	ApiKeyAuth
//	@Success	200	{object}	map[string]any
//	@Failure	404	{object}	error
//	@Router		/categories/{categoryID} [patch]
func (app *application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := parseCategoryID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateCategoryPayload
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

	category, err := app.store.Catalog.UpdateCategory(ctx, id, payload.Name, payload.Listed)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrCategoryNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, catalog.ErrDuplicateName):
			app.conflictResponse(w, r, fmt.Errorf("category with that name already exists"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, category)
}

// toggleCategoryListingHandler godoc
//
//	@Summary	Toggle category visibility
//	@Tags		categories
//	@Accept		json
//	@Param		categoryID	path	int				true	"Category id"
//	@Param		payload		body	map[string]bool	true	"{\"listed\": bool}"
//	@Security	ApiKeyAuth
//	@Success	200	{object}	map[string]any
//	@Router		/categories/{categoryID}/listing [patch]
func (app *application) toggleCategoryListingHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := parseCategoryID(r)
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

	category, err := app.store.Catalog.UpdateCategory(ctx, id, nil, payload.Listed)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrCategoryNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, category)
}

// deleteCategoryHandler godoc
//
//	@Summary		Delete a category
//	@Description	Refused while any product references the category.
//	@Tags			categories
//	@Produce		json
//	@Param			categoryID	path	int	true	"Category id"
//	@Security		ApiKeyAuth
//	@Success		200	{object}	map[string]string
//	@Failure		400	{object}	error
//	@Failure		404	{object}	error
//	@Router			/categories/{categoryID} [delete]
func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := parseCategoryID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Catalog.DeleteCategory(ctx, id); err != nil {
		switch {
		case errors.Is(err, catalog.ErrCategoryNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, catalog.ErrCategoryReferenced):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{
		"message": "Category deleted successfully",
	})
}
