package params

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"myson/internal/domain/catalog"
)

// URL: /products?page=2&limit=10
// → ParsePagination() → Pagination{Limit:10, Page:2, Offset:10}
// → SQL: SELECT ... LIMIT 10 OFFSET 10
// → DB returns data + total count
// → ComputeMeta(total) → fills TotalPages, HasNext, etc.
// Pagination holds pagination info and computed metadata.
type Pagination struct {
	Limit      int  `json:"limit"`       // items per page
	Offset     int  `json:"offset"`      // SQL OFFSET value
	Page       int  `json:"page"`        // current page number
	Total      int  `json:"total"`       // total items in database
	TotalPages int  `json:"total_pages"` // total pages available
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// ParsePagination parses ?limit=...&page=... safely. Malformed values fall
// back to the defaults instead of failing. Keys are case sensitive.
func ParsePagination(q url.Values) Pagination {
	p := Pagination{
		Limit: 10, // default
		Page:  1,
	}

	if limitStr := strings.TrimSpace(q.Get("limit")); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			switch {
			case limit <= 0:
				p.Limit = 10
			case limit > 100:
				p.Limit = 100
			default:
				p.Limit = limit
			}
		}
	}

	if pageStr := strings.TrimSpace(q.Get("page")); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			p.Page = page
		}
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// ComputeMeta updates pagination after fetching total count.
func (p *Pagination) ComputeMeta(total int) {
	p.Total = total
	if p.Limit > 0 {
		p.TotalPages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	p.HasPrev = p.Page > 1
	p.HasNext = (p.Page * p.Limit) < total
}

// ParseProductFilter parses the admin product list query into a normalized
// filter. Boolean flags accept only the literal strings "true"/"false";
// anything else (including absent or empty) leaves the field unfiltered.
// Malformed ids are ignored, never an error.
func ParseProductFilter(q url.Values) catalog.ProductFilter {
	return catalog.ProductFilter{
		CategoryID: ParseID(q.Get("category")),
		BrandID:    ParseID(q.Get("brand")),
		Listed:     ParseBoolFlag(q.Get("listed")),
		Search:     strings.TrimSpace(q.Get("search")),
		BestSeller: ParseBoolFlag(q.Get("bestSeller")),
		Trending:   ParseBoolFlag(q.Get("trending")),
	}
}

// ParsePublicProductFilter builds the filter for the public product list.
// Only category, brand and search are honored; listed is forced true, so
// client-supplied listed/bestSeller/trending parameters are dropped and can
// never widen the result set.
func ParsePublicProductFilter(q url.Values) catalog.ProductFilter {
	listed := true
	return catalog.ProductFilter{
		CategoryID: ParseID(q.Get("category")),
		BrandID:    ParseID(q.Get("brand")),
		Search:     strings.TrimSpace(q.Get("search")),
		Listed:     &listed,
	}
}

// ParseID parses a positive int64 id; malformed values yield nil.
func ParseID(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// ParseBoolFlag accepts only the literal strings "true" and "false".
func ParseBoolFlag(s string) *bool {
	switch strings.TrimSpace(s) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}
