package table

import (
	"context"
	"sync"
)

// MemoryTable is an in-memory implementation of Table for tests and local runs
type MemoryTable struct {
	mu     sync.RWMutex
	name   string
	schema KeySchema
	items  map[string]Item
	closed bool
}

// NewMemoryTable creates a new MemoryTable instance
func NewMemoryTable(name string, schema KeySchema) *MemoryTable {
	if schema.PartitionKey == "" {
		schema.PartitionKey = DefaultPartitionKey
	}
	return &MemoryTable{
		name:   name,
		schema: schema,
		items:  make(map[string]Item),
	}
}

// Put implements Table.Put
func (m *MemoryTable) Put(ctx context.Context, item Item) error {
	key, err := m.schema.KeyFromItem(item)
	if err != nil {
		return NewError("PutItem", m.name, err)
	}
	id, err := m.schema.Encode(key)
	if err != nil {
		return NewError("PutItem", m.name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return NewError("PutItem", m.name, ErrClosed)
	}
	m.items[id] = copyItem(item)
	return nil
}

// Get implements Table.Get
func (m *MemoryTable) Get(ctx context.Context, key Key) (*GetResult, error) {
	id, err := m.schema.Encode(key)
	if err != nil {
		return nil, NewError("GetItem", m.name, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, NewError("GetItem", m.name, ErrClosed)
	}
	item, ok := m.items[id]
	if !ok {
		return &GetResult{}, nil
	}
	return &GetResult{Item: copyItem(item)}, nil
}

// Update implements Table.Update
func (m *MemoryTable) Update(ctx context.Context, input UpdateInput) error {
	id, err := m.schema.Encode(input.Key)
	if err != nil {
		return NewError("UpdateItem", m.name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return NewError("UpdateItem", m.name, ErrClosed)
	}
	next, err := planUpdate(m.schema, m.items[id], input)
	if err != nil {
		return NewError("UpdateItem", m.name, err)
	}
	m.items[id] = next
	return nil
}

// Delete implements Table.Delete
func (m *MemoryTable) Delete(ctx context.Context, key Key) error {
	id, err := m.schema.Encode(key)
	if err != nil {
		return NewError("DeleteItem", m.name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return NewError("DeleteItem", m.name, ErrClosed)
	}
	delete(m.items, id)
	return nil
}

// Len returns the number of stored items
func (m *MemoryTable) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Close implements Table.Close
func (m *MemoryTable) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.items = make(map[string]Item)
	return nil
}

func copyItem(item Item) Item {
	out, _ := cloneValue(map[string]any(item)).(map[string]any)
	return Item(out)
}
