package pagination

import (
	"strconv"
	"strings"

	"github.com/angelmondragon/mercadito-backend/pkg/types"
)

const (
	// DefaultPage is the first page; pages are 1-based.
	DefaultPage = 1
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any listing can request.
	MaxLimit = 100
)

// Params holds page-based pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Normalize fills defaults and clamps the limit.
func (p Params) Normalize() Params {
	return Params{Page: NormalizePage(p.Page), Limit: NormalizeLimit(p.Limit)}
}

// Offset is the row offset for the normalized params.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Meta builds the response metadata for a page of total rows.
func (p Params) Meta(total int64) types.Pagination {
	n := p.Normalize()
	return types.Pagination{Page: n.Page, Limit: n.Limit, Total: total}
}

// NormalizePage enforces a 1-based page.
func NormalizePage(page int) int {
	if page < 1 {
		return DefaultPage
	}
	return page
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Parse reads raw page and limit query values. Garbage falls back to defaults.
func Parse(rawPage, rawLimit string) Params {
	page, _ := strconv.Atoi(strings.TrimSpace(rawPage))
	limit, _ := strconv.Atoi(strings.TrimSpace(rawLimit))
	return Params{Page: page, Limit: limit}.Normalize()
}
