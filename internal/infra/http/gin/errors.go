package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"albergo/internal/app/apperrors"
)

// writeError maps the engine's error taxonomy onto transport status codes.
// Internal failures stay generic on the wire; the middleware logger carries
// the details.
func writeError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	status := http.StatusInternalServerError
	message := "internal error"
	switch kind {
	case apperrors.KindNotFound:
		status, message = http.StatusNotFound, err.Error()
	case apperrors.KindForbidden:
		status, message = http.StatusForbidden, err.Error()
	case apperrors.KindInvalid:
		status, message = http.StatusBadRequest, err.Error()
	case apperrors.KindConflict:
		status, message = http.StatusConflict, err.Error()
	}
	c.JSON(status, gin.H{"error": message, "kind": string(kind)})
}
