package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrBrandNotFound    = errors.New("brand not found")
	ErrCategoryNotFound = errors.New("category not found")

	ErrDuplicateName = errors.New("name already exists")

	ErrBrandReferenced    = errors.New("cannot delete brand: products still reference it")
	ErrCategoryReferenced = errors.New("cannot delete category: products still reference it")
)

// Store is the data access abstraction for the catalog domain.
// Implemented by Repository (which uses pgxpool.Pool).
type Store interface {
	// Products
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	GetProductByID(ctx context.Context, id int64) (*ProductWithRefs, error)
	ListProducts(ctx context.Context, f ProductFilter, limit, offset int) ([]*ProductWithRefs, int, error)
	UpdateProduct(ctx context.Context, p *Product) (*Product, error)
	SetProductFlag(ctx context.Context, id int64, flag ProductFlag, value bool) (*Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	SearchProducts(ctx context.Context, query string, limit int) ([]*ProductWithRefs, error)

	// Brands
	CreateBrand(ctx context.Context, name string) (*Brand, error)
	GetBrandByID(ctx context.Context, id int64) (*Brand, error)
	ListBrands(ctx context.Context, listed *bool, limit, offset int) ([]*Brand, int, error)
	UpdateBrand(ctx context.Context, id int64, name *string, listed *bool) (*Brand, error)
	DeleteBrand(ctx context.Context, id int64) error
	FindBrandByName(ctx context.Context, name string) (*Brand, error)
	CountProductsByBrand(ctx context.Context, id int64) (int, error)

	// Categories
	CreateCategory(ctx context.Context, name string) (*Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*Category, error)
	ListCategories(ctx context.Context, listed *bool, limit, offset int) ([]*Category, int, error)
	UpdateCategory(ctx context.Context, id int64, name *string, listed *bool) (*Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	FindCategoryByName(ctx context.Context, name string) (*Category, error)
	CountProductsByCategory(ctx context.Context, id int64) (int, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

const productColumns = `
	p.id, p.name, p.description, p.price, p.category_id, p.brand_id,
	p.images, p.listed, p.best_seller, p.trending, p.created_at, p.updated_at,
	b.id, b.name, b.listed, b.created_at, b.updated_at,
	c.id, c.name, c.listed, c.created_at, c.updated_at`

const productJoins = `
	FROM products p
	JOIN brands b ON b.id = p.brand_id
	JOIN categories c ON c.id = p.category_id`

func scanProduct(row pgx.Row) (*ProductWithRefs, error) {
	p := &ProductWithRefs{Brand: &Brand{}, Category: &Category{}}
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.CategoryID, &p.BrandID,
		&p.Images, &p.Listed, &p.BestSeller, &p.Trending, &p.CreatedAt, &p.UpdatedAt,
		&p.Brand.ID, &p.Brand.Name, &p.Brand.Listed, &p.Brand.CreatedAt, &p.Brand.UpdatedAt,
		&p.Category.ID, &p.Category.Name, &p.Category.Listed, &p.Category.CreatedAt, &p.Category.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// buildProductWhere turns a filter into a WHERE clause with positional args.
func buildProductWhere(f ProductFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.CategoryID != nil {
		add("p.category_id = $%d", *f.CategoryID)
	}
	if f.BrandID != nil {
		add("p.brand_id = $%d", *f.BrandID)
	}
	if f.Listed != nil {
		add("p.listed = $%d", *f.Listed)
	}
	if f.BestSeller != nil {
		add("p.best_seller = $%d", *f.BestSeller)
	}
	if f.Trending != nil {
		add("p.trending = $%d", *f.Trending)
	}
	if f.Search != "" {
		add("p.name ILIKE $%d", "%"+escapeLike(f.Search)+"%")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// escapeLike neutralizes LIKE metacharacters so a search term is always a
// plain substring match.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// ------------------------------------
// Products
// ------------------------------------

func (r *Repository) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	query := `
		INSERT INTO products (name, description, price, category_id, brand_id, images, listed, best_seller, trending)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		p.Name, p.Description, p.Price, p.CategoryID, p.BrandID,
		p.Images, p.Listed, p.BestSeller, p.Trending,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", mapFKError(err))
	}
	return p, nil
}

func (r *Repository) GetProductByID(ctx context.Context, id int64) (*ProductWithRefs, error) {
	query := `SELECT` + productColumns + productJoins + ` WHERE p.id = $1;`
	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// ListProducts returns a page of products plus the true total for the filter.
// The total rides along via COUNT(*) OVER(); an empty page beyond the end
// falls back to a separate count so the total is never reported as zero.
func (r *Repository) ListProducts(ctx context.Context, f ProductFilter, limit, offset int) ([]*ProductWithRefs, int, error) {
	where, args := buildProductWhere(f)

	query := `SELECT` + productColumns + `, COUNT(*) OVER() AS total` + productJoins + where +
		fmt.Sprintf(" ORDER BY p.created_at DESC, p.id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var items []*ProductWithRefs
	total := 0
	for rows.Next() {
		p := &ProductWithRefs{Brand: &Brand{}, Category: &Category{}}
		err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.CategoryID, &p.BrandID,
			&p.Images, &p.Listed, &p.BestSeller, &p.Trending, &p.CreatedAt, &p.UpdatedAt,
			&p.Brand.ID, &p.Brand.Name, &p.Brand.Listed, &p.Brand.CreatedAt, &p.Brand.UpdatedAt,
			&p.Category.ID, &p.Category.Name, &p.Category.Listed, &p.Category.CreatedAt, &p.Category.UpdatedAt,
			&total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(items) == 0 && offset > 0 {
		countQuery := `SELECT COUNT(*)` + productJoins + where
		if err := r.db.QueryRow(ctx, countQuery, args[:len(args)-2]...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count products: %w", err)
		}
	}

	return items, total, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, category_id = $5, brand_id = $6,
		    images = $7, listed = $8, best_seller = $9, trending = $10, updated_at = now()
		WHERE id = $1
		RETURNING updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.CategoryID, p.BrandID,
		p.Images, p.Listed, p.BestSeller, p.Trending,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", mapFKError(err))
	}
	return p, nil
}

func (r *Repository) SetProductFlag(ctx context.Context, id int64, flag ProductFlag, value bool) (*Product, error) {
	switch flag {
	case FlagListed, FlagBestSeller, FlagTrending:
	default:
		return nil, fmt.Errorf("unknown product flag %q", flag)
	}

	query := fmt.Sprintf(`
		UPDATE products
		SET %s = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, name, description, price, category_id, brand_id,
		          images, listed, best_seller, trending, created_at, updated_at;
	`, flag)

	p := &Product{}
	err := r.db.QueryRow(ctx, query, id, value).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.CategoryID, &p.BrandID,
		&p.Images, &p.Listed, &p.BestSeller, &p.Trending, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("set product %s: %w", flag, err)
	}
	return p, nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// SearchProducts matches listed products by name, case-insensitive substring,
// capped at limit, brand and category joined.
func (r *Repository) SearchProducts(ctx context.Context, query string, limit int) ([]*ProductWithRefs, error) {
	listed := true
	f := ProductFilter{Search: query, Listed: &listed}
	items, _, err := r.ListProducts(ctx, f, limit, 0)
	return items, err
}

// ------------------------------------
// Brands
// ------------------------------------

func (r *Repository) CreateBrand(ctx context.Context, name string) (*Brand, error) {
	query := `
		INSERT INTO brands (name)
		VALUES ($1)
		RETURNING id, name, listed, created_at, updated_at;
	`
	b := &Brand{}
	err := r.db.QueryRow(ctx, query, name).
		Scan(&b.ID, &b.Name, &b.Listed, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("create brand: %w", err)
	}
	return b, nil
}

func (r *Repository) GetBrandByID(ctx context.Context, id int64) (*Brand, error) {
	query := `SELECT id, name, listed, created_at, updated_at FROM brands WHERE id = $1;`
	b := &Brand{}
	err := r.db.QueryRow(ctx, query, id).
		Scan(&b.ID, &b.Name, &b.Listed, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBrandNotFound
		}
		return nil, fmt.Errorf("get brand: %w", err)
	}
	return b, nil
}

func (r *Repository) ListBrands(ctx context.Context, listed *bool, limit, offset int) ([]*Brand, int, error) {
	where := ""
	args := []any{}
	if listed != nil {
		args = append(args, *listed)
		where = " WHERE listed = $1"
	}
	query := `SELECT id, name, listed, created_at, updated_at, COUNT(*) OVER() AS total FROM brands` +
		where + fmt.Sprintf(" ORDER BY name ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	var brands []*Brand
	total := 0
	for rows.Next() {
		b := &Brand{}
		if err := rows.Scan(&b.ID, &b.Name, &b.Listed, &b.CreatedAt, &b.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	return brands, total, rows.Err()
}

func (r *Repository) UpdateBrand(ctx context.Context, id int64, name *string, listed *bool) (*Brand, error) {
	query := `
		UPDATE brands
		SET name = COALESCE($2, name), listed = COALESCE($3, listed), updated_at = now()
		WHERE id = $1
		RETURNING id, name, listed, created_at, updated_at;
	`
	b := &Brand{}
	err := r.db.QueryRow(ctx, query, id, name, listed).
		Scan(&b.ID, &b.Name, &b.Listed, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBrandNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("update brand: %w", err)
	}
	return b, nil
}

func (r *Repository) DeleteBrand(ctx context.Context, id int64) error {
	n, err := r.CountProductsByBrand(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrBrandReferenced
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM brands WHERE id = $1;`, id)
	if err != nil {
		// FK guard in case a product was created between the count and the delete
		if isFKViolation(err) {
			return ErrBrandReferenced
		}
		return fmt.Errorf("delete brand: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBrandNotFound
	}
	return nil
}

func (r *Repository) FindBrandByName(ctx context.Context, name string) (*Brand, error) {
	query := `
		SELECT id, name, listed, created_at, updated_at
		FROM brands
		WHERE name ILIKE $1 AND listed = true
		ORDER BY name ASC
		LIMIT 1;
	`
	b := &Brand{}
	err := r.db.QueryRow(ctx, query, "%"+escapeLike(name)+"%").
		Scan(&b.ID, &b.Name, &b.Listed, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBrandNotFound
		}
		return nil, fmt.Errorf("find brand: %w", err)
	}
	return b, nil
}

func (r *Repository) CountProductsByBrand(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE brand_id = $1;`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count products by brand: %w", err)
	}
	return n, nil
}

// ------------------------------------
// Categories
// ------------------------------------

func (r *Repository) CreateCategory(ctx context.Context, name string) (*Category, error) {
	query := `
		INSERT INTO categories (name)
		VALUES ($1)
		RETURNING id, name, listed, created_at, updated_at;
	`
	c := &Category{}
	err := r.db.QueryRow(ctx, query, name).
		Scan(&c.ID, &c.Name, &c.Listed, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (r *Repository) GetCategoryByID(ctx context.Context, id int64) (*Category, error) {
	query := `SELECT id, name, listed, created_at, updated_at FROM categories WHERE id = $1;`
	c := &Category{}
	err := r.db.QueryRow(ctx, query, id).
		Scan(&c.ID, &c.Name, &c.Listed, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context, listed *bool, limit, offset int) ([]*Category, int, error) {
	where := ""
	args := []any{}
	if listed != nil {
		args = append(args, *listed)
		where = " WHERE listed = $1"
	}
	query := `SELECT id, name, listed, created_at, updated_at, COUNT(*) OVER() AS total FROM categories` +
		where + fmt.Sprintf(" ORDER BY name ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []*Category
	total := 0
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Listed, &c.CreatedAt, &c.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, total, rows.Err()
}

func (r *Repository) UpdateCategory(ctx context.Context, id int64, name *string, listed *bool) (*Category, error) {
	query := `
		UPDATE categories
		SET name = COALESCE($2, name), listed = COALESCE($3, listed), updated_at = now()
		WHERE id = $1
		RETURNING id, name, listed, created_at, updated_at;
	`
	c := &Category{}
	err := r.db.QueryRow(ctx, query, id, name, listed).
		Scan(&c.ID, &c.Name, &c.Listed, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	n, err := r.CountProductsByCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCategoryReferenced
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1;`, id)
	if err != nil {
		if isFKViolation(err) {
			return ErrCategoryReferenced
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *Repository) FindCategoryByName(ctx context.Context, name string) (*Category, error) {
	query := `
		SELECT id, name, listed, created_at, updated_at
		FROM categories
		WHERE name ILIKE $1 AND listed = true
		ORDER BY name ASC
		LIMIT 1;
	`
	c := &Category{}
	err := r.db.QueryRow(ctx, query, "%"+escapeLike(name)+"%").
		Scan(&c.ID, &c.Name, &c.Listed, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

func (r *Repository) CountProductsByCategory(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1;`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count products by category: %w", err)
	}
	return n, nil
}

// ------------------------------------
// Postgres error mapping
// ------------------------------------

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isFKViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// mapFKError converts FK violations on product writes into the matching
// not-found sentinel so handlers can 400/404 them instead of 500.
func mapFKError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "brand"):
			return ErrBrandNotFound
		case strings.Contains(pgErr.ConstraintName, "category"):
			return ErrCategoryNotFound
		}
	}
	return err
}
