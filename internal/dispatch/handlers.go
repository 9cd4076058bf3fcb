package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"item-manager/internal/table"
)

// Each handler wraps exactly one table call. Table errors end up in a 500
// response and are never retried here.

func (d *Dispatcher) create(ctx context.Context, log *logrus.Entry, payload json.RawMessage) Response {
	var p CreatePayload
	if resp, ok := decodePayload(log, OpCreate, payload, &p); !ok {
		return resp
	}

	if err := d.table.Put(ctx, p.Item); err != nil {
		log.WithError(err).Error("Error creating item")
		return messageResponse(http.StatusInternalServerError, fmt.Sprintf("Error creating item: %v", err))
	}
	return messageResponse(http.StatusOK, "Item created successfully")
}

func (d *Dispatcher) read(ctx context.Context, log *logrus.Entry, payload json.RawMessage) Response {
	var p KeyPayload
	if resp, ok := decodePayload(log, OpRead, payload, &p); !ok {
		return resp
	}

	result, err := d.table.Get(ctx, p.Key)
	if err != nil {
		log.WithError(err).Error("Error reading item")
		return messageResponse(http.StatusInternalServerError, fmt.Sprintf("Error reading item: %v", err))
	}
	return jsonResponse(http.StatusOK, result)
}

func (d *Dispatcher) update(ctx context.Context, log *logrus.Entry, payload json.RawMessage) Response {
	if !hasField(payload, "Key") {
		log.Error("Missing 'Key' in payload for update operation")
		return messageResponse(http.StatusBadRequest, "Missing 'Key' in payload for update operation")
	}

	var p UpdatePayload
	if resp, ok := decodePayload(log, OpUpdate, payload, &p); !ok {
		return resp
	}

	names := p.ExpressionAttributeNames
	if names == nil {
		names = map[string]string{}
	}
	values := p.ExpressionAttributeValues
	if values == nil {
		values = map[string]any{}
	}

	err := d.table.Update(ctx, table.UpdateInput{
		Key:                       p.Key,
		UpdateExpression:          p.UpdateExpression,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		log.WithError(err).Error("Error updating item")
		return messageResponse(http.StatusInternalServerError, fmt.Sprintf("Error updating item: %v", err))
	}
	return messageResponse(http.StatusOK, "Item updated successfully")
}

func (d *Dispatcher) delete(ctx context.Context, log *logrus.Entry, payload json.RawMessage) Response {
	if !hasField(payload, "Key") {
		log.Error("Missing 'Key' in payload for delete operation")
		return messageResponse(http.StatusBadRequest, "Missing 'Key' in payload for delete operation")
	}

	var p KeyPayload
	if resp, ok := decodePayload(log, OpDelete, payload, &p); !ok {
		return resp
	}

	if err := d.table.Delete(ctx, p.Key); err != nil {
		log.WithError(err).Error("Error deleting item")
		return messageResponse(http.StatusInternalServerError, fmt.Sprintf("Error deleting item: %v", err))
	}
	return messageResponse(http.StatusOK, "Item deleted successfully")
}

func (d *Dispatcher) echo(log *logrus.Entry, payload json.RawMessage) Response {
	var compact bytes.Buffer
	if err := json.Compact(&compact, payload); err != nil {
		// payload was produced by the envelope decoder, so this cannot happen
		log.WithError(err).Error("Error encoding echo payload")
		return messageResponse(http.StatusInternalServerError, fmt.Sprintf("Error encoding payload: %v", err))
	}
	return Response{StatusCode: http.StatusOK, Body: compact.String()}
}

// decodePayload decodes payload into v, producing a 400 response when the
// payload is not an object of the expected shape. Numbers stay json.Number
// so large values reach the table unrounded.
func decodePayload(log *logrus.Entry, op Operation, payload json.RawMessage, v any) (Response, bool) {
	if err := table.DecodeJSON(payload, v); err != nil {
		log.WithError(err).Error("Invalid payload")
		return messageResponse(http.StatusBadRequest, fmt.Sprintf("Invalid payload for %s operation: %v", op, err)), false
	}
	return Response{}, true
}

// hasField reports whether the payload object carries the named field
func hasField(payload json.RawMessage, name string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return false
	}
	_, ok := fields[name]
	return ok
}
