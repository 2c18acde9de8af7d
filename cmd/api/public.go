package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"myson/internal/domain/catalog"
	"myson/internal/params"
)

const searchResultLimit = 15

// publicProductsHandler godoc
//
//	@Summary		Browse the catalog
//	@Description	Only listed products are returned regardless of query parameters.
//	@Tags			public
//	@Produce		json
//	@Param			page		query	int		false	"Page"
//	@Param			limit		query	int		false	"Items per page"
//	@Param			category	query	int		false	"Category id"
//	@Param			brand		query	int		false	"Brand id"
//	@Param			search		query	string	false	"Name substring, case-insensitive"
//	@Success		200	{object}	map[string]any
//	@Router			/public/products [get]
func (app *application) publicProductsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	pg := params.ParsePagination(q)
	filter := params.ParsePublicProductFilter(q)

	products, total, err := app.store.Catalog.ListProducts(ctx, filter, pg.Limit, pg.Offset)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("list public products: %w", err))
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"total":    total,
		"page":     pg.Page,
		"limit":    pg.Limit,
		"products": app.productResponses(r, products),
	})
}

// publicProductDetailsHandler godoc
//
//	@Summary	Fetch a single listed product
//	@Tags		public
//	@Produce	json
//	@Param		productID	path		int	true	"Product id"
//	@Success	200			{object}	map[string]any
//	@Failure	404			{object}	error
//	@Router		/public/products/{productID} [get]
func (app *application) publicProductDetailsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := parseProductID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	product, err := app.store.Catalog.GetProductByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	// Unlisted products do not exist to the public surface.
	if !product.Listed {
		app.notFoundResponse(w, r, catalog.ErrProductNotFound)
		return
	}

	app.jsonResponse(w, http.StatusOK, app.productResponse(r, product))
}

// publicBrandsHandler godoc
//
//	@Summary	List listed brands
//	@Tags		public
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/public/brands [get]
func (app *application) publicBrandsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	pg := params.ParsePagination(q)
	listed := true

	brands, total, err := app.store.Catalog.ListBrands(ctx, &listed, pg.Limit, pg.Offset)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("list public brands: %w", err))
		return
	}
	pg.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"brands":     brands,
		"pagination": pg,
	})
}

// publicCategoriesHandler godoc
//
//	@Summary	List listed categories
//	@Tags		public
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/public/categories [get]
func (app *application) publicCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	pg := params.ParsePagination(q)
	listed := true

	categories, total, err := app.store.Catalog.ListCategories(ctx, &listed, pg.Limit, pg.Offset)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("list public categories: %w", err))
		return
	}
	pg.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"categories": categories,
		"pagination": pg,
	})
}

// publicSearchHandler godoc
//
//	@Summary		Search products, brands and categories in one round trip
//	@Description	The first word of the query is also matched against brand
//	@Description	names, the remainder against category names.
//	@Tags			public
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{object}	map[string]any
//	@Failure		400	{object}	error
//	@Router			/public/search [get]
func (app *application) publicSearchHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		app.badRequestResponse(w, r, fmt.Errorf("Missing or invalid search query"))
		return
	}

	brandQuery := query
	categoryQuery := query
	if first, rest, found := strings.Cut(query, " "); found {
		brandQuery = first
		categoryQuery = strings.TrimSpace(rest)
	}

	brand, err := app.store.Catalog.FindBrandByName(ctx, brandQuery)
	if err != nil && !errors.Is(err, catalog.ErrBrandNotFound) {
		app.internalServerError(w, r, err)
		return
	}

	category, err := app.store.Catalog.FindCategoryByName(ctx, categoryQuery)
	if err != nil && !errors.Is(err, catalog.ErrCategoryNotFound) {
		app.internalServerError(w, r, err)
		return
	}

	products, err := app.store.Catalog.SearchProducts(ctx, query, searchResultLimit)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"brand":    brand,
		"category": category,
		"products": app.productResponses(r, products),
	})
}

// publicFeaturedHandler godoc
//
//	@Summary	Listed products flagged best-sellers or trending
//	@Tags		public
//	@Produce	json
//	@Param		type	query		string	true	"best-sellers or trending"
//	@Success	200		{object}	map[string]any
//	@Failure	400		{object}	error
//	@Router		/public/featured [get]
func (app *application) publicFeaturedHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	pg := params.ParsePagination(q)

	listed := true
	flagged := true
	filter := catalog.ProductFilter{Listed: &listed}

	kind := q.Get("type")
	switch kind {
	case "best-sellers":
		filter.BestSeller = &flagged
	case "trending":
		filter.Trending = &flagged
	default:
		app.badRequestResponse(w, r, fmt.Errorf("Invalid type. Use type=best-sellers or type=trending"))
		return
	}

	products, _, err := app.store.Catalog.ListProducts(ctx, filter, pg.Limit, pg.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"type":     kind,
		"products": app.productResponses(r, products),
	})
}
