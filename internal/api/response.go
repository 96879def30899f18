package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeInvalidParams   = "parametros_invalidos"
	CodeProfileNotFound = "perfil_no_encontrado"
	CodeNotFound        = "no_encontrado"
	CodeInternal        = "error_interno"
	CodeUnavailable     = "servicio_no_disponible"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: message,
			Code:    code,
		},
	})
}

// respondInternal never exposes err to the client; it is attached to the
// gin context for the request logger.
func respondInternal(c *gin.Context, err error) {
	_ = c.Error(err)
	respondError(c, http.StatusInternalServerError, CodeInternal, "Error interno del servidor")
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
