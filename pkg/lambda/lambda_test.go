package lambda

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus/hooks/test"

	"item-manager/internal/config"
	"item-manager/internal/dispatch"
	"item-manager/internal/table"
)

func newTestHandler() Handler {
	logger, _ := test.NewNullLogger()
	return NewHandler(dispatch.New(table.NewMemoryTable("items", table.KeySchema{PartitionKey: "id"}), logger))
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name       string
		req        events.APIGatewayProxyRequest
		wantStatus int
		wantBody   string
	}{
		{
			name:       "echo",
			req:        events.APIGatewayProxyRequest{Body: `{"operation":"echo","payload":{"a":1}}`},
			wantStatus: 200,
			wantBody:   `{"a":1}`,
		},
		{
			name:       "invalid JSON",
			req:        events.APIGatewayProxyRequest{Body: "{invalid"},
			wantStatus: 400,
			wantBody:   `{"message":"Invalid JSON format in body"}`,
		},
		{
			name:       "missing key",
			req:        events.APIGatewayProxyRequest{Body: `{"operation":"delete","payload":{}}`},
			wantStatus: 400,
			wantBody:   `{"message":"Missing 'Key' in payload for delete operation"}`,
		},
		{
			name: "base64 body",
			req: events.APIGatewayProxyRequest{
				Body:            base64.StdEncoding.EncodeToString([]byte(`{"operation":"create","payload":{"Item":{"id":"x"}}}`)),
				IsBase64Encoded: true,
			},
			wantStatus: 200,
			wantBody:   `{"message":"Item created successfully"}`,
		},
		{
			name: "request id",
			req: events.APIGatewayProxyRequest{
				Body:           `{"operation":"unknown"}`,
				RequestContext: events.APIGatewayProxyRequestContext{RequestID: "req-1"},
			},
			wantStatus: 400,
			wantBody:   `{"message":"Unrecognized operation \"unknown\""}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := newTestHandler()(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if resp.Body != tt.wantBody {
				t.Errorf("Body = %s, want %s", resp.Body, tt.wantBody)
			}
			if resp.Headers["Content-Type"] != "application/json" {
				t.Errorf("Content-Type = %q", resp.Headers["Content-Type"])
			}
		})
	}
}

func TestToEvent(t *testing.T) {
	event := ToEvent(events.APIGatewayProxyRequest{
		Body:           `{"operation":"echo"}`,
		RequestContext: events.APIGatewayProxyRequestContext{RequestID: "abc"},
	})
	if event.Body != `{"operation":"echo"}` || event.RequestID != "abc" {
		t.Errorf("unexpected event %+v", event)
	}
}

func TestConnectionManager(t *testing.T) {
	loads := 0
	cm := NewConnectionManager(func() (*config.Config, error) {
		loads++
		return &config.Config{
			Environment: "test",
			Port:        "8080",
			Table:       config.TableConfig{Name: "items", Backend: "memory", PartitionKey: "id"},
			Log:         config.LogConfig{Level: "error", Format: "json"},
		}, nil
	})

	if cm.IsHealthy() {
		t.Error("Expected unhealthy before first use")
	}

	handler := cm.Handler()
	ctx := context.Background()

	resp, _ := handler(ctx, events.APIGatewayProxyRequest{Body: `{"operation":"create","payload":{"Item":{"id":"x","n":2}}}`})
	if resp.StatusCode != 200 {
		t.Fatalf("create returned %d: %s", resp.StatusCode, resp.Body)
	}

	// the table handle survives across invocations
	resp, _ = handler(ctx, events.APIGatewayProxyRequest{Body: `{"operation":"read","payload":{"Key":{"id":"x"}}}`})
	if resp.Body != `{"Item":{"id":"x","n":2}}` {
		t.Errorf("read returned %s", resp.Body)
	}
	if loads != 1 {
		t.Errorf("config loaded %d times, want 1", loads)
	}
	if !cm.IsHealthy() {
		t.Error("Expected healthy after use")
	}

	if err := cm.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if cm.IsHealthy() {
		t.Error("Expected unhealthy after cleanup")
	}
}

func TestConnectionManager_InitFailure(t *testing.T) {
	cm := NewConnectionManager(func() (*config.Config, error) {
		return nil, errors.New("TABLE_NAME is required")
	})

	resp, err := cm.Handler()(context.Background(), events.APIGatewayProxyRequest{Body: `{}`})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if resp.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", resp.StatusCode)
	}
}
