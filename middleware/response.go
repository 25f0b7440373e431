package middleware

import (
	"errors"
	"net/http"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/logging"
	"github.com/gin-gonic/gin"
)

// Success writes a successful envelope
func Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, dto.Envelope{Success: true, Message: message, Data: data})
}

// Error writes the envelope for err and logs internal failures with their
// cause. Outside release mode the client also sees the internal message.
func Error(c *gin.Context, err error) {
	appErr := apperrors.As(err)
	status := appErr.Status()

	message := appErr.Message
	if status >= http.StatusInternalServerError {
		logging.Error().
			Err(appErr.Err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg(appErr.Message)
		if gin.Mode() == gin.ReleaseMode {
			message = "Internal server error"
		}
	}

	c.AbortWithStatusJSON(status, dto.Envelope{Success: false, Message: message, Errors: appErr.Fields})
}

// BindError turns a gin binding failure into a validation error
func BindError(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return apperrors.Upload("Request body too large")
	}
	return apperrors.Validation("Invalid request body: " + err.Error())
}
