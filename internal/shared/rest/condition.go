package rest

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"
)

// ETag calcula el hash md5 del payload serializado como JSON canónico
// (claves ordenadas). Se calcula sobre la estructura previa a la
// transformación de formato/compresión, así el mismo contenido produce
// siempre el mismo ETag sea cual sea la representación negociada.
func ETag(payload interface{}) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	// Re-serializar desde un mapa genérico: encoding/json ordena las claves.
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", err
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", err
	}

	sum := md5.Sum(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// LastModified devuelve la fecha de modificación más reciente de la colección
// filtrada (previa a la paginación), en formato HTTP-date. Con la colección
// vacía usa la hora actual del reloj inyectado.
func LastModified(times []time.Time, now func() time.Time) string {
	if len(times) == 0 {
		return now().UTC().Format(http.TimeFormat)
	}
	max := times[0]
	for _, t := range times[1:] {
		if t.After(max) {
			max = t
		}
	}
	return max.UTC().Format(http.TimeFormat)
}

// NotModified decide si la petición condicional permite responder 304.
// If-Modified-Since se compara por igualdad exacta de cadenas, no con
// semántica temporal: es la política simplificada del servicio.
func NotModified(ifNoneMatch, ifModifiedSince, etag, lastModified string) bool {
	if ifNoneMatch != "" && ifNoneMatch == etag {
		return true
	}
	return ifModifiedSince != "" && ifModifiedSince == lastModified
}
