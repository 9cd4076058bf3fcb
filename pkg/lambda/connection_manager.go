package lambda

import (
	"context"
	"sync"
	"time"

	"item-manager/internal/config"
	"item-manager/internal/dispatch"
	"item-manager/pkg/server"
)

// ConnectionManager keeps one container, and with it one table handle,
// alive across the invocations served by a Lambda instance
type ConnectionManager struct {
	container *server.Container
	lastUsed  time.Time
	mu        sync.Mutex
	loadCfg   func() (*config.Config, error)
}

var (
	globalConnectionManager *ConnectionManager
	connectionManagerOnce   sync.Once
)

// GetConnectionManager returns the global connection manager instance
func GetConnectionManager() *ConnectionManager {
	connectionManagerOnce.Do(func() {
		globalConnectionManager = NewConnectionManager(config.GetOptimizedConfig)
	})
	return globalConnectionManager
}

// NewConnectionManager creates a manager that loads its configuration with
// loadCfg on first use
func NewConnectionManager(loadCfg func() (*config.Config, error)) *ConnectionManager {
	return &ConnectionManager{loadCfg: loadCfg}
}

// GetContainer returns the container, initializing it on first use. A
// failed initialization is retried on the next call.
func (cm *ConnectionManager) GetContainer(ctx context.Context) (*server.Container, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container == nil {
		cfg, err := cm.loadCfg()
		if err != nil {
			return nil, err
		}
		container, err := server.NewContainer(ctx, cfg)
		if err != nil {
			return nil, err
		}
		cm.container = container
	}

	cm.lastUsed = time.Now()
	return cm.container, nil
}

// Handler returns a proxy handler serving the managed container's dispatcher
func (cm *ConnectionManager) Handler() Handler {
	return NewLazyHandler(func(ctx context.Context) (*dispatch.Dispatcher, error) {
		container, err := cm.GetContainer(ctx)
		if err != nil {
			return nil, err
		}
		return container.Dispatcher, nil
	})
}

// IsHealthy checks if the connection manager is healthy
func (cm *ConnectionManager) IsHealthy() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container == nil {
		return false
	}

	// Check if connection is stale (older than 5 minutes)
	return time.Since(cm.lastUsed) < 5*time.Minute
}

// Cleanup closes the container; the next invocation builds a new one
func (cm *ConnectionManager) Cleanup() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container == nil {
		return nil
	}
	err := cm.container.Close()
	cm.container = nil
	return err
}
