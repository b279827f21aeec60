package rest

import (
	"sort"
	"strings"
	"time"
)

// ---------------- Accessors tipados por campo ----------------

// Accessor expone el valor de un campo ordenable de T. Exactamente uno de los
// tres lectores debe ser no-nil: los strings se comparan normalizados y
// case-folded, números y fechas por orden natural.
type Accessor[T any] struct {
	Str  func(T) string
	Num  func(T) float64
	Time func(T) time.Time
}

// Collation define, por entidad, qué campos se pueden ordenar y sobre qué
// campos actúa la búsqueda global.
type Collation[T any] struct {
	Sortable   map[string]Accessor[T]
	Searchable []func(T) string
}

// ---------------- Filtros ----------------

// Filter aplica predicados de igualdad en memoria. Con cero predicados
// devuelve la colección tal cual.
func Filter[T any](items []T, preds ...func(T) bool) []T {
	if len(preds) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		keep := true
		for _, pred := range preds {
			if !pred(item) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, item)
		}
	}
	return out
}

// ---------------- Búsqueda ----------------

// Search conserva los elementos cuyo algún campo buscable contiene el término,
// ignorando acentos y mayúsculas en ambos lados.
func (col Collation[T]) Search(items []T, term string) []T {
	if term == "" || len(col.Searchable) == 0 {
		return items
	}
	needle := Fold(term)
	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, field := range col.Searchable {
			if strings.Contains(Fold(field(item)), needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// ---------------- Ordenamiento ----------------

// Sort ordena de forma estable por el campo indicado. Un sort_by fuera de la
// whitelist deja la colección en el orden en que la devolvió el repositorio.
// El orden estable garantiza ETags deterministas entre llamadas.
func (col Collation[T]) Sort(items []T, sortBy, sortOrder string) {
	acc, ok := col.Sortable[sortBy]
	if !ok {
		return
	}
	desc := strings.EqualFold(sortOrder, "desc")

	less := func(i, j int) bool { return false }
	switch {
	case acc.Str != nil:
		less = func(i, j int) bool {
			return Fold(acc.Str(items[i])) < Fold(acc.Str(items[j]))
		}
	case acc.Num != nil:
		less = func(i, j int) bool { return acc.Num(items[i]) < acc.Num(items[j]) }
	case acc.Time != nil:
		less = func(i, j int) bool { return acc.Time(items[i]).Before(acc.Time(items[j])) }
	}

	if desc {
		asc := less
		less = func(i, j int) bool { return asc(j, i) }
	}

	sort.SliceStable(items, less)
}

// Apply ejecuta el pipeline filtro → búsqueda → orden sobre la colección.
func (col Collation[T]) Apply(items []T, preds []func(T) bool, p ListParams) []T {
	items = Filter(items, preds...)
	items = col.Search(items, p.Search)
	col.Sort(items, p.SortBy, p.SortOrder)
	return items
}
