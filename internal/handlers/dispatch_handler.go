package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"item-manager/internal/dispatch"
	"item-manager/internal/middleware"
)

// DispatchHandler exposes the dispatcher over HTTP
type DispatchHandler struct {
	dispatcher *dispatch.Dispatcher
}

// NewDispatchHandler creates a new dispatch handler
func NewDispatchHandler(dispatcher *dispatch.Dispatcher) *DispatchHandler {
	return &DispatchHandler{
		dispatcher: dispatcher,
	}
}

// @Summary Dispatch an item operation
// @Description Runs one of create, read, update, delete or echo against the item table.
// @Description The status code and body are the dispatcher's response.
// @Tags items
// @Accept json
// @Produce json
// @Param envelope body dispatch.Envelope true "Request envelope"
// @Success 200 {object} dispatch.MessageBody
// @Failure 400 {object} dispatch.MessageBody
// @Failure 413 {object} middleware.MessageResponse
// @Failure 500 {object} dispatch.MessageBody
// @Router /DynamoDBManager [post]
func (h *DispatchHandler) Dispatch(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, middleware.MessageResponse{
				Message:   "Request body too large",
				RequestID: c.GetString(middleware.RequestIDKey),
			})
			return
		}
		c.Error(err).SetType(gin.ErrorTypePublic)
		return
	}

	resp := h.dispatcher.Dispatch(c.Request.Context(), dispatch.Event{
		Body:      string(body),
		RequestID: c.GetString(middleware.RequestIDKey),
	})

	c.Data(resp.StatusCode, "application/json", []byte(resp.Body))
}
