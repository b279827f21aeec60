package rest

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveAccents elimina los diacríticos de una cadena (descomposición NFD y
// eliminación de marcas combinantes). Sobre ASCII puro es la identidad.
func RemoveAccents(s string) string {
	if s == "" {
		return s
	}
	// Los transformers tienen estado interno, se construye la cadena por llamada.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold normaliza para comparación: sin acentos y en minúsculas.
func Fold(s string) string {
	return strings.ToLower(RemoveAccents(s))
}
