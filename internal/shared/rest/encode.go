package rest

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/andybalholm/brotli"
)

// Link es un enlace HATEOAS {rel, href} de un recurso.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// ListResponse es el envelope común de todos los listados.
type ListResponse struct {
	APIVersion string      `json:"api_version"`
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Links      PageLinks   `json:"links"`
}

// FormatDate formatea una fecha según el locale negociado.
// fr: dd/mm/yyyy, en: yyyy-mm-dd.
func FormatDate(t time.Time, locale string) string {
	if t.IsZero() {
		return ""
	}
	if locale == LocaleFR {
		return t.Format("02/01/2006 15:04:05")
	}
	return t.Format("2006-01-02 15:04:05")
}

// EncodeBody serializa el payload en el formato negociado. El JSON conserva
// los caracteres no-ASCII tal cual; el XML cuelga de una raíz fija <response>
// sin atributos de tipo.
func EncodeBody(payload interface{}, format string) ([]byte, error) {
	if format == FormatXML {
		return encodeXML(payload)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Compress aplica la compresión negociada al cuerpo ya serializado.
func Compress(data []byte, encoding string) ([]byte, error) {
	switch encoding {
	case EncodingBrotli:
		var buf bytes.Buffer
		w := brotli.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case EncodingGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return data, nil
	}
}

// ---------------- XML ----------------

// encodeXML pasa el payload por su forma JSON genérica y lo vuelca como XML
// con claves ordenadas, de modo que la salida sea determinista.
func encodeXML(payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8" ?>`)
	if err := writeXMLValue(&buf, "response", generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeXMLValue(buf *bytes.Buffer, tag string, v interface{}) error {
	fmt.Fprintf(buf, "<%s>", tag)
	switch val := v.(type) {
	case nil:
		// elemento vacío
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := writeXMLValue(buf, k, val[k]); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, elem := range val {
			if err := writeXMLValue(buf, "item", elem); err != nil {
				return err
			}
		}
	case string:
		if err := xml.EscapeText(buf, []byte(val)); err != nil {
			return err
		}
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case float64:
		buf.WriteString(strconv.FormatFloat(val, 'f', -1, 64))
	default:
		if err := xml.EscapeText(buf, []byte(fmt.Sprint(val))); err != nil {
			return err
		}
	}
	fmt.Fprintf(buf, "</%s>", tag)
	return nil
}
