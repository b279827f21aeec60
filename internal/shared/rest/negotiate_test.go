package rest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNegotiate_Defaults(t *testing.T) {
	n := Negotiate("", "", "")
	assert.Equal(t, FormatJSON, n.Format)
	assert.Equal(t, LocaleEN, n.Locale)
	assert.Equal(t, EncodingIdentity, n.Encoding)
	assert.Equal(t, "application/json", n.ContentType())
}

func TestNegotiate_Format(t *testing.T) {
	n := Negotiate("application/xml", "", "")
	assert.Equal(t, FormatXML, n.Format)
	assert.Equal(t, "application/xml", n.ContentType())

	// A igualdad de preferencia gana el primero; con q explícito gana el mayor
	n = Negotiate("application/xml;q=0.9, application/json", "", "")
	assert.Equal(t, FormatJSON, n.Format)

	// Un media type desconocido cae al default
	n = Negotiate("text/html", "", "")
	assert.Equal(t, FormatJSON, n.Format)
}

func TestNegotiate_Locale(t *testing.T) {
	assert.Equal(t, LocaleFR, Negotiate("", "fr", "").Locale)
	assert.Equal(t, LocaleFR, Negotiate("", "fr-FR,fr;q=0.9", "").Locale)
	assert.Equal(t, LocaleEN, Negotiate("", "es-ES", "").Locale)
}

func TestNegotiate_Encoding(t *testing.T) {
	assert.Equal(t, EncodingGzip, Negotiate("", "", "gzip").Encoding)
	assert.Equal(t, EncodingBrotli, Negotiate("", "", "br, gzip;q=0.5").Encoding)

	// Gana el encoding soportado con mayor q
	assert.Equal(t, EncodingGzip, Negotiate("", "", "br;q=0.5, gzip;q=0.8").Encoding)

	// Encodings no soportados se ignoran
	assert.Equal(t, EncodingIdentity, Negotiate("", "", "compress, deflate").Encoding)
}

func TestParseQualityList_MalformedQ(t *testing.T) {
	// Un q mal formado se trata como 1.0
	items := parseQualityList("gzip;q=abc, br;q=0.5")
	assert.Len(t, items, 2)
	assert.Equal(t, "gzip", items[0].value)
	assert.Equal(t, 1.0, items[0].q)
}
