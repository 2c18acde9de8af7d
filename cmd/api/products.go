package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"myson/internal/domain/catalog"
	"myson/internal/params"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 20 * 1024 * 1024 // 20MB across all image parts

func parseProductID(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "productID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product ID: %s", idStr)
	}
	return id, nil
}

// listProductsHandler godoc
//
//	@Summary		List products (admin)
//	@Description	Filtered, paginated product list. Without a listed flag no listing restriction applies.
//	@Tags			products
//	@Produce		json
//	@Param			page		query	int		false	"Page"
//	@Param			limit		query	int		false	"Items per page"
//	@Param			category	query	int		false	"Category id"
//	@Param			brand		query	int		false	"Brand id"
//	@Param			listed		query	string	false	"true or false"
//	@Param			search		query	string	false	"Name substring, case-insensitive"
//	@Param			bestSeller	query	string	false	"true or false"
//	@Param			trending	query	string	false	"true or false"
//	@Security		ApiKeyAuth
//	@Success		200	{object}	map[string]any
//	@Router			/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	pg := params.ParsePagination(q)
	filter := params.ParseProductFilter(q)

	items, total, err := app.store.Catalog.ListProducts(ctx, filter, pg.Limit, pg.Offset)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("list products: %w", err))
		return
	}
	pg.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"products":   app.productResponses(r, items),
		"pagination": pg,
	})
}

// getProductHandler godoc
//
//	@Summary	Get a product by id, brand and category joined
//	@Tags		products
//	@Produce	json
//	@Param		productID	path	int	true	"Product id"
//	@Security	ApiKeyAuth
//	@Success	200	{object}	map[string]any
//	@Failure	404	{object}	error
//	@Router		/products/{productID} [get]
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := parseProductID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p, err := app.store.Catalog.GetProductByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, app.productResponse(r, p))
}

// createProductHandler godoc
//
//	@Summary		Create a product
//	@Description	Multipart form: name, description, price, category, brand plus at least one image file.
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		201	{object}	map[string]any
//	@Failure		400	{object}	error
//	@Router			/products [post]
func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

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

	name := strings.TrimSpace(r.FormValue("name"))
	description := strings.TrimSpace(r.FormValue("description"))
	priceStr := strings.TrimSpace(r.FormValue("price"))
	categoryStr := strings.TrimSpace(r.FormValue("category"))
	brandStr := strings.TrimSpace(r.FormValue("brand"))

	if name == "" || description == "" {
		app.badRequestResponse(w, r, fmt.Errorf("name and description are required"))
		return
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil || price < 0 {
		app.badRequestResponse(w, r, fmt.Errorf("a non-negative price is required"))
		return
	}
	categoryID, err := strconv.ParseInt(categoryStr, 10, 64)
	if err != nil || categoryID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("a valid category is required"))
		return
	}
	brandID, err := strconv.ParseInt(brandStr, 10, 64)
	if err != nil || brandID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("a valid brand is required"))
		return
	}

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

	p := &catalog.Product{
		Name:        name,
		Description: description,
		Price:       price,
		CategoryID:  categoryID,
		BrandID:     brandID,
		Images:      names,
		Listed:      true,
	}

	created, err := app.store.Catalog.CreateProduct(ctx, p)
	if err != nil {
		// the record never existed, so the stored files are orphans
		if errs := app.images.RemoveAll(names); len(errs) > 0 {
			app.logger.Errorw("cleanup of orphaned image files failed", "errors", errs)
		}
		switch {
		case errors.Is(err, catalog.ErrBrandNotFound), errors.Is(err, catalog.ErrCategoryNotFound):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	full, err := app.store.Catalog.GetProductByID(ctx, created.ID)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("fetch created product: %w", err))
		return
	}

	if admin := getAdminFromContext(r); admin != nil {
		app.logger.Infow("product created", "product_id", created.ID, "admin", admin.Username)
	}

	w.Header().Set("Location", fmt.Sprintf("/v1/products/%d", created.ID))
	app.jsonResponse(w, http.StatusCreated, app.productResponse(r, full))
}

// updateProductHandler godoc
//
//	@Summary		Update a product (combined edit path)
//	@Description	Multipart form: optional scalar fields, optional new image files, optional toBeDeleted JSON array of filenames. Removals apply first, then additions, then field changes, in one persisted save. An edit that would leave the product without images is rejected whole.
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			productID	path	int	true	"Product id"
//	@Security		ApiKeyAuth
//	@Success		200	{object}	map[string]any
//	@Failure		400	{object}	error
//	@Failure		404	{object}	error
//	@Router			/products/{productID} [put]
func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
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

	var fields catalog.ProductFields
	if v := strings.TrimSpace(r.FormValue("name")); v != "" {
		fields.Name = &v
	}
	if v := strings.TrimSpace(r.FormValue("description")); v != "" {
		fields.Description = &v
	}
	if v := strings.TrimSpace(r.FormValue("price")); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil || price < 0 {
			app.badRequestResponse(w, r, fmt.Errorf("invalid price: %s", v))
			return
		}
		fields.Price = &price
	}
	if v := strings.TrimSpace(r.FormValue("category")); v != "" {
		cid, err := strconv.ParseInt(v, 10, 64)
		if err != nil || cid <= 0 {
			app.badRequestResponse(w, r, fmt.Errorf("invalid category: %s", v))
			return
		}
		fields.CategoryID = &cid
	}
	if v := strings.TrimSpace(r.FormValue("brand")); v != "" {
		bid, err := strconv.ParseInt(v, 10, 64)
		if err != nil || bid <= 0 {
			app.badRequestResponse(w, r, fmt.Errorf("invalid brand: %s", v))
			return
		}
		fields.BrandID = &bid
	}

	var toBeDeleted []string
	if raw := strings.TrimSpace(r.FormValue("toBeDeleted")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &toBeDeleted); err != nil {
			app.badRequestResponse(w, r, fmt.Errorf("malformed toBeDeleted: %w", err))
			return
		}
	}

	var added []string
	if files := r.MultipartForm.File["images"]; len(files) > 0 {
		if err := validateImageUploads(files); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		added, err = app.images.SaveAll(files)
		if err != nil {
			app.internalServerError(w, r, fmt.Errorf("store images: %w", err))
			return
		}
	}

	updated, err := app.lifecycle.Update(ctx, id, fields, added, toBeDeleted)
	if err != nil {
		// the rejected edit committed nothing; the freshly stored files are orphans
		if errs := app.images.RemoveAll(added); len(errs) > 0 {
			app.logger.Errorw("cleanup of orphaned image files failed", "errors", errs)
		}
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, catalog.ErrLastImage), errors.Is(err, catalog.ErrImageNotFound):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, catalog.ErrBrandNotFound), errors.Is(err, catalog.ErrCategoryNotFound):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	full, err := app.store.Catalog.GetProductByID(ctx, updated.ID)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("fetch updated product: %w", err))
		return
	}

	app.jsonResponse(w, http.StatusOK, app.productResponse(r, full))
}

// deleteProductHandler godoc
//
//	@Summary		Delete a product
//	@Description	Deletes the record and cascades removal of every associated image file.
//	@Tags			products
//	@Produce		json
//	@Param			productID	path	int	true	"Product id"
//	@Security		ApiKeyAuth
//	@Success		200	{object}	map[string]string
//	@Failure		404	{object}	error
//	@Router			/products/{productID} [delete]
func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseProductID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.lifecycle.DeleteProduct(ctx, id); err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if admin := getAdminFromContext(r); admin != nil {
		app.logger.Infow("product deleted", "product_id", id, "admin", admin.Username)
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{
		"message": "Product deleted successfully",
	})
}

func (app *application) toggleProductFlag(w http.ResponseWriter, r *http.Request, flag catalog.ProductFlag, value *bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := parseProductID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if value == nil {
		app.badRequestResponse(w, r, fmt.Errorf("a boolean %s value is required", flag))
		return
	}

	p, err := app.store.Catalog.SetProductFlag(ctx, id, flag, *value)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, p)
}

// toggleProductListingHandler godoc
//
//	@Summary	Toggle product visibility
//	@Tags		products
//	@Accept		json
//	@Param		productID	path	int							true	"Product id"
//	@Param		payload		body	map[string]bool				true	"{\"listed\": bool}"
//	@Security	ApiKeyAuth
//	@Success	200	{object}	map[string]any
//	@Router		/products/{productID}/listing [patch]
func (app *application) toggleProductListingHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Listed *bool `json:"listed"`
	}
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	app.toggleProductFlag(w, r, catalog.FlagListed, payload.Listed)
}

func (app *application) toggleProductBestSellerHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		BestSeller *bool `json:"bestSeller"`
	}
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	app.toggleProductFlag(w, r, catalog.FlagBestSeller, payload.BestSeller)
}

func (app *application) toggleProductTrendingHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Trending *bool `json:"trending"`
	}
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	app.toggleProductFlag(w, r, catalog.FlagTrending, payload.Trending)
}
