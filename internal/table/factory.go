package table

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Backend represents the type of table implementation
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendLevelDB  Backend = "leveldb"
	BackendSQLite   Backend = "sqlite"
	BackendDynamoDB Backend = "dynamodb"
)

// Factory creates Table instances based on configuration
type Factory struct {
	logger *logrus.Logger
}

// NewFactory creates a new table factory
func NewFactory(logger *logrus.Logger) *Factory {
	if logger == nil {
		logger = logrus.New()
	}
	return &Factory{
		logger: logger,
	}
}

// Create creates a Table instance based on the provided configuration
func (f *Factory) Create(ctx context.Context, config *Config) (Table, error) {
	if config == nil {
		return nil, fmt.Errorf("table config is required")
	}
	if config.Name == "" {
		return nil, fmt.Errorf("table name is required")
	}

	schema := KeySchema{
		PartitionKey: config.PartitionKey,
		SortKey:      config.SortKey,
	}
	if schema.PartitionKey == "" {
		schema.PartitionKey = DefaultPartitionKey
	}

	var t Table
	var err error

	switch Backend(strings.ToLower(config.Backend)) {
	case BackendMemory, "":
		t = NewMemoryTable(config.Name, schema)
	case BackendLevelDB:
		t, err = NewLevelDBTable(f.path(config, "leveldb"), config.Name, schema, f.logger)
	case BackendSQLite:
		t, err = NewSQLiteTable(f.path(config, "items.db"), config.Name, schema, f.logger)
	case BackendDynamoDB:
		t, err = NewDynamoDBTable(ctx, config, f.logger)
	default:
		return nil, fmt.Errorf("unsupported table backend: %s", config.Backend)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s table: %w", config.Backend, err)
	}

	f.logger.WithFields(logrus.Fields{
		"backend":       config.Backend,
		"table":         config.Name,
		"partition_key": schema.PartitionKey,
		"sort_key":      schema.SortKey,
	}).Info("Table initialized")

	return t, nil
}

// path returns the configured path, or a default location under ./data
func (f *Factory) path(config *Config, fallback string) string {
	if config.Path != "" {
		return config.Path
	}
	return filepath.Join(".", "data", fallback)
}
