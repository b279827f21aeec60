package domain

import (
	"time"

	"github.com/davicafu/sociolab/internal/shared/rest"
)

// NewCollation construye la tabla de accessors de User para el pipeline de
// listados: whitelist de campos ordenables y campos sobre los que actúa la
// búsqueda global. Un sort_by fuera de esta tabla no reordena.
func NewCollation() rest.Collation[*User] {
	return rest.Collation[*User]{
		Sortable: map[string]rest.Accessor[*User]{
			"firstName":    {Str: func(u *User) string { return u.FirstName }},
			"lastName":     {Str: func(u *User) string { return u.LastName }},
			"email":        {Str: func(u *User) string { return u.Email }},
			"registerDate": {Time: func(u *User) time.Time { return u.RegisterDate }},
			"dateOfBirth": {Time: func(u *User) time.Time {
				if u.DateOfBirth == nil {
					return time.Time{}
				}
				return *u.DateOfBirth
			}},
		},
		Searchable: []func(*User) string{
			func(u *User) string { return u.FirstName },
			func(u *User) string { return u.LastName },
			func(u *User) string { return u.Email },
		},
	}
}
