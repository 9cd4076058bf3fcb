package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"item-manager/internal/table"
)

// Dispatcher routes request envelopes to the table operation they name.
// It keeps no state between invocations besides the injected table handle.
type Dispatcher struct {
	table  table.Table
	logger *logrus.Logger
}

// New creates a dispatcher operating on t
func New(t table.Table, logger *logrus.Logger) *Dispatcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Dispatcher{
		table:  t,
		logger: logger,
	}
}

// Dispatch handles one event. It always produces a response: every
// failure is translated into a status code and message.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) Response {
	requestID := event.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	log := d.logger.WithField("request_id", requestID)

	body := event.Body
	if body == "" {
		body = "{}"
	}
	log.WithField("body", body).Debug("Received event")

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		log.WithError(err).Error("JSON decode error")
		return messageResponse(http.StatusBadRequest, "Invalid JSON format in body")
	}

	name, label := operationName(envelope["operation"])
	op, ok := ParseOperation(name)
	if !ok {
		log.WithField("operation", label).Error("Unrecognized operation")
		return messageResponse(http.StatusBadRequest, fmt.Sprintf("Unrecognized operation \"%s\"", label))
	}

	payload, ok := envelope["payload"]
	if !ok {
		payload = json.RawMessage("{}")
	}

	log = log.WithField("operation", op)
	log.WithField("payload", string(payload)).Info("Dispatching operation")

	switch op {
	case OpCreate:
		return d.create(ctx, log, payload)
	case OpRead:
		return d.read(ctx, log, payload)
	case OpUpdate:
		return d.update(ctx, log, payload)
	case OpDelete:
		return d.delete(ctx, log, payload)
	default:
		return d.echo(log, payload)
	}
}

// operationName returns the operation string and the text used to echo it
// back in errors. Values are echoed in JSON spelling: an absent or null
// operation reads "null", and other non-string values appear as their
// compact JSON text ("true", "5").
func operationName(raw json.RawMessage) (string, string) {
	if raw == nil || string(raw) == "null" {
		return "", "null"
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name, name
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return "", string(raw)
	}
	return "", compact.String()
}

func messageResponse(status int, message string) Response {
	return jsonResponse(status, MessageBody{Message: message})
}

func jsonResponse(status int, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		// only reachable for values that cannot be encoded, e.g. NaN
		body, _ = json.Marshal(MessageBody{Message: fmt.Sprintf("Error encoding response: %v", err)})
		status = http.StatusInternalServerError
	}
	return Response{StatusCode: status, Body: string(body)}
}
