package rest

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
)

func TestFormatDate(t *testing.T) {
	d := time.Date(2023, 4, 5, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, "2023-04-05 14:30:00", FormatDate(d, LocaleEN))
	assert.Equal(t, "05/04/2023 14:30:00", FormatDate(d, LocaleFR))
	assert.Equal(t, "", FormatDate(time.Time{}, LocaleEN))
}

func TestEncodeBody_JSON(t *testing.T) {
	body, err := EncodeBody(map[string]string{"nombre": "José <admin>"}, FormatJSON)
	assert.NoError(t, err)

	// El JSON conserva los caracteres no-ASCII y no escapa HTML
	assert.Contains(t, string(body), "José")
	assert.Contains(t, string(body), "<admin>")
	assert.False(t, bytes.HasSuffix(body, []byte("\n")))
}

func TestEncodeBody_XML(t *testing.T) {
	payload := map[string]interface{}{
		"total": 2,
		"data":  []string{"a", "b"},
		"ok":    true,
	}
	body, err := EncodeBody(payload, FormatXML)
	assert.NoError(t, err)

	out := string(body)
	assert.True(t, bytes.HasPrefix(body, []byte(`<?xml version="1.0" encoding="UTF-8" ?>`)))
	assert.Contains(t, out, "<response>")
	assert.Contains(t, out, "</response>")
	assert.Contains(t, out, "<item>a</item><item>b</item>")
	assert.Contains(t, out, "<total>2</total>")
	assert.Contains(t, out, "<ok>true</ok>")

	// Las claves salen ordenadas: data antes que ok antes que total
	assert.Less(t, bytes.Index(body, []byte("<data>")), bytes.Index(body, []byte("<ok>")))
	assert.Less(t, bytes.Index(body, []byte("<ok>")), bytes.Index(body, []byte("<total>")))
}

func TestEncodeBody_XMLEscaping(t *testing.T) {
	body, err := EncodeBody(map[string]string{"texto": "a < b & c"}, FormatXML)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "a &lt; b &amp; c")
}

func TestCompress_Identity(t *testing.T) {
	data := []byte("sin comprimir")
	out, err := Compress(data, EncodingIdentity)
	assert.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestCompress_Gzip(t *testing.T) {
	data := []byte(`{"data":"un cuerpo razonablemente largo para que comprima algo"}`)
	out, err := Compress(data, EncodingGzip)
	assert.NoError(t, err)
	assert.NotEqual(t, data, out)

	r, err := gzip.NewReader(bytes.NewReader(out))
	assert.NoError(t, err)
	decoded, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestCompress_Brotli(t *testing.T) {
	data := []byte(`{"data":"otro cuerpo de prueba para la compresión brotli"}`)
	out, err := Compress(data, EncodingBrotli)
	assert.NoError(t, err)

	decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(out)))
	assert.NoError(t, err)
	assert.Equal(t, data, decoded)
}
