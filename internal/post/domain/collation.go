package domain

import (
	"time"

	"github.com/davicafu/sociolab/internal/shared/rest"
)

// NewCollation construye la tabla de accessors de Post para el pipeline de
// listados. Un sort_by fuera de esta tabla no reordena.
func NewCollation() rest.Collation[*Post] {
	return rest.Collation[*Post]{
		Sortable: map[string]rest.Accessor[*Post]{
			"text":        {Str: func(p *Post) string { return p.Text }},
			"publishDate": {Time: func(p *Post) time.Time { return p.PublishDate }},
			"likes":       {Num: func(p *Post) float64 { return float64(p.Likes) }},
		},
		Searchable: []func(*Post) string{
			func(p *Post) string { return p.Text },
		},
	}
}
