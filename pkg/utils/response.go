// en pkg/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse define la estructura estándar para las respuestas de error.
// El campo Detail lleva los códigos de la API (PARAMS_NOT_VALID, RESOURCE_NOT_FOUND...).
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// SendSuccess envía una respuesta exitosa con un payload de datos.
func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// SendError envía una respuesta de error con un formato estandarizado.
func SendError(c *gin.Context, statusCode int, detail string) {
	c.JSON(statusCode, ErrorResponse{Detail: detail})
}

// --- Helpers específicos para errores comunes ---

// SendParamsNotValid responde 400 con el código PARAMS_NOT_VALID.
func SendParamsNotValid(c *gin.Context, paramName string) {
	SendError(c, http.StatusBadRequest, "PARAMS_NOT_VALID: "+paramName+" format invalid")
}

// SendBodyNotValid responde 400 con el código BODY_NOT_VALID.
func SendBodyNotValid(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, "BODY_NOT_VALID: "+message)
}

// SendNotFound responde 404 con el código RESOURCE_NOT_FOUND.
func SendNotFound(c *gin.Context, resourceName string) {
	SendError(c, http.StatusNotFound, "RESOURCE_NOT_FOUND: "+resourceName+" not found")
}

func SendBadRequest(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, message)
}

func SendInternalServerError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, message)
}
