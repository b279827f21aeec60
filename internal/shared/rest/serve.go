package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NegotiateRequest deriva el contexto de negociación de las cabeceras de la
// petición. Se hace una sola vez por request.
func NegotiateRequest(c *gin.Context) Negotiation {
	return Negotiate(
		c.GetHeader("Accept"),
		c.GetHeader("Accept-Language"),
		c.GetHeader("Accept-Encoding"),
	)
}

// ServeList es la cola común de todos los listados: calcula ETag y
// Last-Modified, corta en 304 si la petición condicional lo permite y, si no,
// serializa, comprime y emite la respuesta con las cabeceras de caché.
//
// modTimes son los timestamps de la colección filtrada (pre-paginación); con
// la colección vacía Last-Modified cae a now().
func ServeList(c *gin.Context, n Negotiation, payload ListResponse, modTimes []time.Time, now func() time.Time) error {
	etag, err := ETag(payload)
	if err != nil {
		return err
	}
	lastModified := LastModified(modTimes, now)

	if NotModified(c.GetHeader("If-None-Match"), c.GetHeader("If-Modified-Since"), etag, lastModified) {
		c.Status(http.StatusNotModified)
		return nil
	}

	body, err := EncodeBody(payload, n.Format)
	if err != nil {
		return err
	}
	body, err = Compress(body, n.Encoding)
	if err != nil {
		return err
	}

	c.Header("Content-Encoding", n.Encoding)
	c.Header("Content-Language", n.Locale)
	c.Header("Cache-Control", "public, max-age=60, must-revalidate")
	c.Header("ETag", etag)
	c.Header("Last-Modified", lastModified)
	c.Header("Vary", "Accept-Encoding, Accept-Language")
	c.Data(http.StatusOK, n.ContentType(), body)
	return nil
}

// ServeListError es la vía de fallo uniforme del pipeline de listados:
// cualquier error interno termina en un 500 con el mensaje en el cuerpo.
func ServeListError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
