package table

import (
	"context"
)

// Item is a single table record: attribute name to JSON-typed value
// (string, json.Number, bool, nil, []any or map[string]any).
type Item map[string]any

// Key holds the key attributes identifying one item
type Key map[string]any

// GetResult is the collaborator response for a read. Item is nil when no
// item matches the key, in which case it is omitted from the encoded result.
type GetResult struct {
	Item Item `json:"Item,omitempty"`
}

// UpdateInput describes an in-place update of a single item
type UpdateInput struct {
	Key                       Key
	UpdateExpression          string
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]any
}

// Table provides the key-value capabilities consumed by the dispatcher.
// Implementations must be safe for concurrent use.
type Table interface {
	// Put stores the item, replacing any item with the same key
	Put(ctx context.Context, item Item) error

	// Get returns the item stored under key
	Get(ctx context.Context, key Key) (*GetResult, error)

	// Update applies an update expression to the item at key, creating it
	// when it does not exist yet
	Update(ctx context.Context, input UpdateInput) error

	// Delete removes the item stored under key; deleting a missing item is not an error
	Delete(ctx context.Context, key Key) error

	// Close releases the resources held by the implementation
	Close() error
}

// Config represents configuration for table backends
type Config struct {
	Backend      string            `json:"backend" yaml:"backend"` // "memory", "leveldb", "sqlite", "dynamodb"
	Name         string            `json:"name" yaml:"name"`
	PartitionKey string            `json:"partition_key" yaml:"partition_key"`
	SortKey      string            `json:"sort_key" yaml:"sort_key"`
	Path         string            `json:"path" yaml:"path"`         // For leveldb and sqlite
	Region       string            `json:"region" yaml:"region"`     // For dynamodb
	Endpoint     string            `json:"endpoint" yaml:"endpoint"` // For dynamodb local
	Options      map[string]string `json:"options" yaml:"options"`
}
