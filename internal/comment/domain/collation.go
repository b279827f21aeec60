package domain

import (
	"time"

	"github.com/davicafu/sociolab/internal/shared/rest"
)

// NewCollation construye la tabla de accessors de Comment para el pipeline de
// listados. Un sort_by fuera de esta tabla no reordena.
func NewCollation() rest.Collation[*Comment] {
	return rest.Collation[*Comment]{
		Sortable: map[string]rest.Accessor[*Comment]{
			"message":     {Str: func(c *Comment) string { return c.Message }},
			"publishDate": {Time: func(c *Comment) time.Time { return c.PublishDate }},
		},
		Searchable: []func(*Comment) string{
			func(c *Comment) string { return c.Message },
		},
	}
}
