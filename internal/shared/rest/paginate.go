package rest

import "fmt"

// PageLinks son los enlaces de navegación de una colección paginada.
type PageLinks map[string]string

// Paginate corta la colección filtrada en la página pedida. Una página fuera
// de rango devuelve un slice vacío, nunca un error. El total es siempre el
// tamaño de la colección antes del corte.
func Paginate[T any](items []T, page, limit int) ([]T, int) {
	total := len(items)
	// El corte solo se calcula dentro del rango de páginas: con un page
	// enorme el producto (page-1)*limit desborda.
	if page > LastPage(total, limit) {
		return []T{}, total
	}
	start := (page - 1) * limit
	end := start + limit
	if start >= total {
		return []T{}, total
	}
	if end > total {
		end = total
	}
	return items[start:end], total
}

// LastPage calcula la última página: max(ceil(total/limit), 1).
func LastPage(total, limit int) int {
	last := (total + limit - 1) / limit
	if last < 1 {
		last = 1
	}
	return last
}

// CollectionLinks construye los enlaces de paginación de la colección.
// Siempre incluye self, first y last; prev solo si page > 1 y next solo si
// page < última página. Los hrefs llevan únicamente page y limit.
func CollectionLinks(basePath string, page, limit, total int) PageLinks {
	last := LastPage(total, limit)
	links := PageLinks{
		"self":  fmt.Sprintf("%s?page=%d&limit=%d", basePath, page, limit),
		"first": fmt.Sprintf("%s?page=1&limit=%d", basePath, limit),
		"last":  fmt.Sprintf("%s?page=%d&limit=%d", basePath, last, limit),
	}
	if page > 1 {
		links["prev"] = fmt.Sprintf("%s?page=%d&limit=%d", basePath, page-1, limit)
	}
	if page < last {
		links["next"] = fmt.Sprintf("%s?page=%d&limit=%d", basePath, page+1, limit)
	}
	return links
}
