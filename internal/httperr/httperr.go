package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HTTPError is the failure side of the {ok, data, error} envelope.
type HTTPError struct {
	OK      bool   `json:"ok"`
	Code    string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

const (
	CodeValidation    = "validation_error"
	CodeNotFound      = "not_found"
	CodeInvalidBackup = "invalid_backup"
)

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		OK:      false,
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Conflict(c *gin.Context, code, message string) {
	Write(c, http.StatusConflict, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Unavailable(c *gin.Context, code, message string) {
	Write(c, http.StatusServiceUnavailable, code, message)
}

// Validation reports a rejected input field with 400.
func Validation(c *gin.Context, field, reason string) {
	c.JSON(http.StatusBadRequest, HTTPError{
		OK:      false,
		Code:    CodeValidation,
		Message: reason,
		Field:   field,
	})
}
