package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MessageResponse is the error body written by the middleware. It has the
// same shape as the dispatcher's message responses.
type MessageResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func abortWithMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, MessageResponse{
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
	})
}

// Recovery turns a panic in a handler into a logged 500 response
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.WithFields(logrus.Fields{
			"request_id": c.GetString(RequestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"panic":      fmt.Sprintf("%v", recovered),
		}).Error("Recovered from panic")

		abortWithMessage(c, http.StatusInternalServerError, "Internal server error")
	})
}

// ErrorHandler middleware for centralized error handling
func ErrorHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()

		logger.WithFields(logrus.Fields{
			"request_id": c.GetString(RequestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"error":      err.Error(),
		}).Error("Request error")

		// handlers that already answered keep their response
		if c.Writer.Written() {
			return
		}

		switch err.Type {
		case gin.ErrorTypeBind, gin.ErrorTypePublic:
			abortWithMessage(c, http.StatusBadRequest, err.Error())
		default:
			abortWithMessage(c, http.StatusInternalServerError, "Internal server error")
		}
	}
}
