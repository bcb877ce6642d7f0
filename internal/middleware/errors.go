package middleware

import (
	"errors"
	"net/http"

	"github.com/dfryer1193/feedapi/api"
	"github.com/dfryer1193/feedapi/blog/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const internalErrorMessage = "Internal server error"

// ErrorHandler turns the first error a handler attached with c.Error into
// the JSON error envelope. Handlers write nothing themselves on failure.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors[0].Err
		status, body := Translate(err)

		logEvt := log.Warn()
		if status >= http.StatusInternalServerError {
			logEvt = log.Error()
		}
		logEvt.Err(err).
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(status, body)
	}
}

// Translate maps an error to its HTTP status and response body. Untyped
// errors become a 500 with a generic message.
func Translate(err error) (int, api.ErrorResponse) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		return http.StatusInternalServerError, api.ErrorResponse{Message: internalErrorMessage}
	}

	body := api.ErrorResponse{Message: derr.Message}
	for _, d := range derr.Details {
		body.Data = append(body.Data, api.FieldError{Field: d.Field, Message: d.Message})
	}

	return StatusFor(derr.Kind), body
}

func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusUnprocessableEntity
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
