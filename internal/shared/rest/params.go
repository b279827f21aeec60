package rest

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListParams agrupa los parámetros de query comunes a todos los listados.
type ListParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string // "asc" | "desc"
	Search    string
}

// ParseListParams lee page/limit/sort_by/sort_order/search con los defaults
// del endpoint. Valores no numéricos o menores que 1 caen al default.
func ParseListParams(c *gin.Context, defaultSortBy, defaultSortOrder string) ListParams {
	p := ListParams{
		Page:      1,
		Limit:     10,
		SortBy:    defaultSortBy,
		SortOrder: defaultSortOrder,
		Search:    c.Query("search"),
	}

	if v, err := strconv.Atoi(c.Query("page")); err == nil && v >= 1 {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v >= 1 {
		p.Limit = v
	}
	if s := c.Query("sort_by"); s != "" {
		p.SortBy = s
	}
	if s := c.Query("sort_order"); s != "" {
		p.SortOrder = s
	}

	return p
}
