package dispatch

import (
	"encoding/json"

	"item-manager/internal/table"
)

// Event is one invocation of the dispatcher
type Event struct {
	// Body is the JSON-encoded request envelope; empty means "{}"
	Body string
	// RequestID correlates log lines; generated when empty
	RequestID string
}

// Response is the structured result of one invocation
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Envelope is the request envelope carried in the event body
type Envelope struct {
	Operation string          `json:"operation"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// MessageBody is the body of every status message response
type MessageBody struct {
	Message string `json:"message"`
}

// CreatePayload is the payload of a create operation
type CreatePayload struct {
	Item table.Item `json:"Item"`
}

// KeyPayload is the payload of read and delete operations
type KeyPayload struct {
	Key table.Key `json:"Key"`
}

// UpdatePayload is the payload of an update operation
type UpdatePayload struct {
	Key                       table.Key         `json:"Key"`
	UpdateExpression          string            `json:"UpdateExpression"`
	ExpressionAttributeNames  map[string]string `json:"ExpressionAttributeNames,omitempty"`
	ExpressionAttributeValues map[string]any    `json:"ExpressionAttributeValues,omitempty"`
}
