package catalog

import "time"

type Brand struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Listed    bool      `json:"listed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Listed    bool      `json:"listed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product owns its image filename list: every entry corresponds 1:1 to a file
// the image store manages, and the list is never empty for a persisted row.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CategoryID  int64     `json:"category_id"`
	BrandID     int64     `json:"brand_id"`
	Images      []string  `json:"images"`
	Listed      bool      `json:"listed"`
	BestSeller  bool      `json:"bestSeller"`
	Trending    bool      `json:"trending"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductWithRefs is a product with its referenced brand and category joined
// in at read time.
type ProductWithRefs struct {
	Product
	Brand    *Brand    `json:"brand,omitempty"`
	Category *Category `json:"category,omitempty"`
}

// ProductFilter describes a product list query. Nil pointer fields mean
// "no filter on this field"; Search matches name as a case-insensitive
// substring.
type ProductFilter struct {
	CategoryID *int64
	BrandID    *int64
	Listed     *bool
	Search     string
	BestSeller *bool
	Trending   *bool
}

// ProductFields carries the scalar field changes of an admin edit. Nil means
// "keep current value". Image mutation never travels through this type; it
// goes through the ImageLifecycle.
type ProductFields struct {
	Name        *string
	Description *string
	Price       *float64
	CategoryID  *int64
	BrandID     *int64
}

// ProductFlag names the toggleable product booleans. Values double as column
// names, so only these constants may reach the repository.
type ProductFlag string

const (
	FlagListed     ProductFlag = "listed"
	FlagBestSeller ProductFlag = "best_seller"
	FlagTrending   ProductFlag = "trending"
)
