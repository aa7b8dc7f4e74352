package sieve

import (
	"fmt"
	"math"
)

// Page defaults applied to zero-valued requests.
const (
	DefaultPageNumber = 1
	DefaultPageSize   = 10
)

// PageRequest describes one page of a filtered, optionally sorted listing.
type PageRequest struct {
	PageNumber     int               `json:"pageNumber"`
	PageSize       int               `json:"pageSize"`
	SortColumn     string            `json:"sortColumn,omitempty"`
	SortDescending bool              `json:"sortDescending,omitempty"`
	Filters        []FilterCriterion `json:"filters,omitempty"`
}

// Normalize fills in defaults for zero page number and size and rejects
// negative values and pages whose offset does not fit in an int.
func (r PageRequest) Normalize() (PageRequest, error) {
	if r.PageNumber < 0 {
		return r, fmt.Errorf("%w: page number %d", ErrInvalidPageRequest, r.PageNumber)
	}
	if r.PageSize < 0 {
		return r, fmt.Errorf("%w: page size %d", ErrInvalidPageRequest, r.PageSize)
	}
	if r.PageNumber == 0 {
		r.PageNumber = DefaultPageNumber
	}
	if r.PageSize == 0 {
		r.PageSize = DefaultPageSize
	}
	if r.PageNumber-1 > math.MaxInt/r.PageSize {
		return r, fmt.Errorf("%w: page %d of size %d is out of range", ErrInvalidPageRequest, r.PageNumber, r.PageSize)
	}
	return r, nil
}

// Offset is the number of records preceding this page.
func (r PageRequest) Offset() int {
	if r.PageNumber < 1 {
		return 0
	}
	return (r.PageNumber - 1) * r.PageSize
}

// PageResult is one page of projected records plus the total match count.
type PageResult[T any] struct {
	Data         []T `json:"data"`
	TotalRecords int `json:"totalRecords"`
	TotalPages   int `json:"totalPages"`
	PageNumber   int `json:"pageNumber"`
	PageSize     int `json:"pageSize"`
}

// NewPageResult builds the envelope for data, where total is the count of
// matches before pagination.
func NewPageResult[T any](data []T, total int, req PageRequest) *PageResult[T] {
	if data == nil {
		data = []T{}
	}
	return &PageResult[T]{
		Data:         data,
		TotalRecords: total,
		TotalPages:   TotalPages(total, req.PageSize),
		PageNumber:   req.PageNumber,
		PageSize:     req.PageSize,
	}
}

// TotalPages is ceil(total/size), or 0 when size is not positive.
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
