package server

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"

	"item-manager/internal/config"
	"item-manager/internal/dispatch"
	"item-manager/internal/handlers"
	"item-manager/internal/poller"
	"item-manager/internal/table"
)

func testConfig(backend, path string) *config.Config {
	return &config.Config{
		Environment: "test",
		Port:        "8080",
		Table: config.TableConfig{
			Name:         "items",
			Backend:      backend,
			PartitionKey: "id",
			Path:         path,
			Region:       "us-east-1",
		},
		Log: config.LogConfig{Level: "info", Format: "text"},
	}
}

// TestNewContainer verifies that the container can be created successfully
func TestNewContainer(t *testing.T) {
	container, err := NewContainer(context.Background(), testConfig("memory", ""))
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}

	if container.Logger == nil {
		t.Error("Logger is nil")
	}
	if _, ok := container.Table.(*table.MemoryTable); !ok {
		t.Errorf("Expected a memory table, got %T", container.Table)
	}
	if container.Dispatcher == nil {
		t.Fatal("Dispatcher is nil")
	}

	if err := container.Close(); err != nil {
		t.Errorf("Failed to close container: %v", err)
	}
}

// TestContainerBackends wires the dispatcher to every local backend
func TestContainerBackends(t *testing.T) {
	backends := []struct {
		name string
		path string
	}{
		{"memory", ""},
		{"leveldb", "leveldb"},
		{"sqlite", "items.db"},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			path := ""
			if b.path != "" {
				path = filepath.Join(t.TempDir(), b.path)
			}

			logger, _ := test.NewNullLogger()
			container, err := NewContainerWithLogger(context.Background(), testConfig(b.name, path), logger)
			if err != nil {
				t.Fatalf("Failed to create container: %v", err)
			}
			defer container.Close()

			ctx := context.Background()
			resp := container.Dispatcher.Dispatch(ctx, dispatch.Event{Body: `{"operation":"create","payload":{"Item":{"id":"x","val":1}}}`})
			if resp.StatusCode != 200 {
				t.Fatalf("create returned %d: %s", resp.StatusCode, resp.Body)
			}

			resp = container.Dispatcher.Dispatch(ctx, dispatch.Event{Body: `{"operation":"read","payload":{"Key":{"id":"x"}}}`})
			if resp.StatusCode != 200 || resp.Body != `{"Item":{"id":"x","val":1}}` {
				t.Errorf("read returned %d: %s", resp.StatusCode, resp.Body)
			}

			// integers beyond 2^53 keep every digit
			resp = container.Dispatcher.Dispatch(ctx, dispatch.Event{Body: `{"operation":"create","payload":{"Item":{"id":"big","n":12345678901234567890,"m":9007199254740993,"f":0.1}}}`})
			if resp.StatusCode != 200 {
				t.Fatalf("create returned %d: %s", resp.StatusCode, resp.Body)
			}
			resp = container.Dispatcher.Dispatch(ctx, dispatch.Event{Body: `{"operation":"read","payload":{"Key":{"id":"big"}}}`})
			if want := `{"Item":{"f":0.1,"id":"big","m":9007199254740993,"n":12345678901234567890}}`; resp.Body != want {
				t.Errorf("read = %s, want %s", resp.Body, want)
			}

			resp = container.Dispatcher.Dispatch(ctx, dispatch.Event{Body: `{"operation":"update","payload":{"Key":{"id":"big"},"UpdateExpression":"SET n = n + :one, f = f + :f","ExpressionAttributeValues":{":one":1,":f":0.2}}}`})
			if resp.StatusCode != 200 {
				t.Fatalf("update returned %d: %s", resp.StatusCode, resp.Body)
			}
			resp = container.Dispatcher.Dispatch(ctx, dispatch.Event{Body: `{"operation":"read","payload":{"Key":{"id":"big"}}}`})
			if want := `{"Item":{"f":0.3,"id":"big","m":9007199254740993,"n":12345678901234567891}}`; resp.Body != want {
				t.Errorf("read after update = %s, want %s", resp.Body, want)
			}
		})
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	if _, err := NewContainer(context.Background(), nil); err == nil {
		t.Error("Expected error for nil config")
	}

	cfg := testConfig("cassandra", "")
	if _, err := NewContainer(context.Background(), cfg); err == nil {
		t.Error("Expected error for unknown backend")
	}

	cfg = testConfig("memory", "")
	cfg.Log.Level = "loud"
	if _, err := NewContainer(context.Background(), cfg); err == nil {
		t.Error("Expected error for invalid log level")
	}
}

type fixedSensor float64

func (s fixedSensor) ReadTemperature(ctx context.Context) (float64, bool, error) {
	return float64(s), true, nil
}

// TestPollerReadingsStored posts a reading through the HTTP API of a
// dispatcher built from the default configuration and reads it back.
func TestPollerReadingsStored(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("TABLE_NAME", "readings")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	pollerCfg, err := config.LoadPoller()
	if err != nil {
		t.Fatalf("LoadPoller failed: %v", err)
	}

	logger, hook := test.NewNullLogger()
	container, err := NewContainerWithLogger(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}
	defer container.Close()

	srv := httptest.NewServer(handlers.NewRouter(&handlers.RouterConfig{
		Dispatcher: container.Dispatcher,
		Logger:     logger,
		RateLimit:  cfg.RateLimit,
	}))
	defer srv.Close()

	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.Local)
	p := poller.New(
		fixedSensor(42.5),
		poller.NewHTTPPoster(srv.URL+"/DynamoDBManager", pollerCfg.HeaderName, pollerCfg.HeaderValue, pollerCfg.HTTPTimeout),
		&poller.RetryConfig{MaxAttempts: pollerCfg.MaxAttempts, Delay: pollerCfg.RetryDelay},
		pollerCfg.Interval,
		logger,
		poller.WithClock(func() time.Time { return at }),
	)

	outcome, err := p.Cycle(context.Background())
	if err != nil || outcome != poller.OutcomePosted {
		for _, e := range hook.AllEntries() {
			t.Logf("%s: %s %v", e.Level, e.Message, e.Data)
		}
		t.Fatalf("Cycle() = %v, %v, want posted", outcome, err)
	}

	resp := container.Dispatcher.Dispatch(context.Background(), dispatch.Event{
		Body: `{"operation":"read","payload":{"Key":{"time":"2024-03-01 12:30:00"}}}`,
	})
	want := `{"Item":{"cpu temperature":"42.5","time":"2024-03-01 12:30:00"}}`
	if resp.StatusCode != 200 || resp.Body != want {
		t.Errorf("read = %d %s, want 200 %s", resp.StatusCode, resp.Body, want)
	}
}
