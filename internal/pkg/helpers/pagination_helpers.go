package helpers

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultPage     = 1 // Default page is 1-based
)

// PaginationInfo describes the page of a table currently rendered
type PaginationInfo struct {
	CurrentPage int
	TotalPages  int
	PageSize    int
	TotalItems  int
}

// HasPrev reports whether a previous page exists.
func (p PaginationInfo) HasPrev() bool { return p.CurrentPage > 1 }

// HasNext reports whether a next page exists.
func (p PaginationInfo) HasNext() bool { return p.CurrentPage < p.TotalPages }

// PrevPage is the page number of the previous link.
func (p PaginationInfo) PrevPage() int { return p.CurrentPage - 1 }

// NextPage is the page number of the next link.
func (p PaginationInfo) NextPage() int { return p.CurrentPage + 1 }

// NewPaginationInfo creates a PaginationInfo; page is 1-based and clamped to the last page.
func NewPaginationInfo(totalItems, page, size int) PaginationInfo {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = DefaultPage
	}

	totalPages := 1
	if totalItems > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(size)))
	}
	if page > totalPages {
		page = totalPages
	}

	return PaginationInfo{
		CurrentPage: page,
		TotalPages:  totalPages,
		PageSize:    size,
		TotalItems:  totalItems,
	}
}

// ParsePaginationParams extracts and validates pagination parameters from the request
func ParsePaginationParams(c *gin.Context) (page, size int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = DefaultPage
	}

	size, err = strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(DefaultPageSize)))
	if err != nil || size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}

	return page, size
}

// CalculateSliceIndices calculates the start and end indices for slicing an array for pagination
func CalculateSliceIndices(page, size, totalItems int) (start, end int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = DefaultPage
	}

	start = (page - 1) * size
	if start >= totalItems {
		return totalItems, totalItems
	}
	end = start + size
	if end > totalItems {
		end = totalItems
	}
	return start, end
}

// Paginate returns the requested page of items together with its PaginationInfo.
func Paginate[T any](items []T, page, size int) ([]T, PaginationInfo) {
	info := NewPaginationInfo(len(items), page, size)
	start, end := CalculateSliceIndices(info.CurrentPage, info.PageSize, len(items))
	return items[start:end], info
}
