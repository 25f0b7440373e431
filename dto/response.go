package dto

import "github.com/appcontrol-api/apperrors"

// Envelope is the shape of every JSON response
type Envelope struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message,omitempty"`
	Data    interface{}             `json:"data,omitempty"`
	Errors  []apperrors.FieldError `json:"errors,omitempty"`
}

// Pagination describes the page a list response holds
type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
}

// PageRequest carries normalized page and limit values
type PageRequest struct {
	Page  int
	Limit int
}

// MaxPageSize caps the limit a client may request
const MaxPageSize = 100

// NewPageRequest applies defaults and bounds to raw page/limit values
func NewPageRequest(page, limit, defaultLimit int) PageRequest {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return PageRequest{Page: page, Limit: limit}
}

// Offset is the number of rows to skip
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// NewPagination computes the page count for total rows
func NewPagination(p PageRequest, total int64) Pagination {
	pages := int(total) / p.Limit
	if int(total)%p.Limit > 0 {
		pages++
	}
	return Pagination{Current: p.Page, Pages: pages, Total: total, Limit: p.Limit}
}
