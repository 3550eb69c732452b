package paging

import "gorm.io/gorm"

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is a 1-based page request.
type Page struct {
	Page  int `form:"page" json:"page"`
	Limit int `form:"limit" json:"limit"`
}

// Meta accompanies every paginated list response.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Normalize clamps page and limit into their valid ranges.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// Apply adds LIMIT/OFFSET to q.
func (p Page) Apply(q *gorm.DB) *gorm.DB {
	n := p.Normalize()
	return q.Limit(n.Limit).Offset(n.Offset())
}

func (p Page) Meta(total int64) Meta {
	n := p.Normalize()
	pages := int((total + int64(n.Limit) - 1) / int64(n.Limit))
	return Meta{Page: n.Page, Limit: n.Limit, Total: total, TotalPages: pages}
}
