package rest

import (
	"sort"
	"strconv"
	"strings"
)

// ---------------- Formatos / locales / encodings soportados ----------------

const (
	FormatJSON = "json"
	FormatXML  = "xml"

	LocaleEN = "en"
	LocaleFR = "fr"

	EncodingIdentity = "identity"
	EncodingGzip     = "gzip"
	EncodingBrotli   = "br"
)

// Negotiation recoge las decisiones de content negotiation de una petición.
// Es inmutable: se calcula una vez y se pasa al encoder y al validador de caché.
type Negotiation struct {
	Format   string // "json" | "xml"
	Locale   string // "en" | "fr"
	Encoding string // "identity" | "gzip" | "br"
}

// ContentType devuelve el media type de la respuesta según el formato.
func (n Negotiation) ContentType() string {
	if n.Format == FormatXML {
		return "application/xml"
	}
	return "application/json"
}

// Negotiate inspecciona Accept, Accept-Language y Accept-Encoding y decide
// formato, locale y compresión. Valores q mal formados se tratan como q=1.0.
func Negotiate(accept, acceptLanguage, acceptEncoding string) Negotiation {
	n := Negotiation{
		Format:   FormatJSON,
		Locale:   LocaleEN,
		Encoding: EncodingIdentity,
	}

	if items := parseQualityList(accept); len(items) > 0 {
		best := strings.ToLower(items[0].value)
		if strings.Contains(best, "xml") {
			n.Format = FormatXML
		} else if strings.Contains(best, "json") {
			n.Format = FormatJSON
		}
	}

	if strings.HasPrefix(strings.ToLower(acceptLanguage), "fr") {
		n.Locale = LocaleFR
	}

	for _, item := range parseQualityList(acceptEncoding) {
		switch strings.ToLower(item.value) {
		case EncodingBrotli, EncodingGzip, EncodingIdentity:
			n.Encoding = strings.ToLower(item.value)
			return n
		}
	}

	return n
}

// ---------------- Parsing de cabeceras con valores q ----------------

type qualityItem struct {
	value string
	q     float64
}

// parseQualityList parte una cabecera "v1;q=0.5, v2" en items ordenados por q
// descendente. El orden es estable: a igualdad de q gana la primera aparición.
func parseQualityList(header string) []qualityItem {
	if header == "" {
		return nil
	}

	var items []qualityItem
	for _, part := range strings.Split(header, ",") {
		fields := strings.Split(strings.TrimSpace(part), ";")
		value := strings.TrimSpace(fields[0])
		if value == "" {
			continue
		}
		q := 1.0
		for _, param := range fields[1:] {
			param = strings.TrimSpace(param)
			if strings.HasPrefix(param, "q=") {
				if parsed, err := strconv.ParseFloat(param[2:], 64); err == nil {
					q = parsed
				}
			}
		}
		items = append(items, qualityItem{value: value, q: q})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].q > items[j].q })
	return items
}
