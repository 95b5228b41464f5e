package util

import "github.com/gin-gonic/gin"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a parsed page/limit pair
type Page struct {
	Page  int
	Limit int
}

// Offset is the number of rows to skip
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageFromQuery reads ?page=&limit= with defaults 1 and DefaultPageSize
func PageFromQuery(c *gin.Context) Page {
	return PageFromQueryWithDefault(c, DefaultPageSize)
}

func PageFromQueryWithDefault(c *gin.Context, defaultLimit int) Page {
	page := ParseInt(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	limit := ParseInt(c.Query("limit"), defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Page{Page: page, Limit: limit}
}

// Pagination is the paging block included in list responses
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

func (p Page) Paginate(total int64) Pagination {
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Pagination{
		CurrentPage: p.Page,
		TotalPages:  pages,
		TotalItems:  total,
		HasNext:     p.Page < pages,
		HasPrev:     p.Page > 1,
	}
}
