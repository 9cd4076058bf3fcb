package table

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDBTable stores items as JSON documents in an embedded LevelDB database.
// Keys are prefixed with the table name so several tables can share one database.
type LevelDBTable struct {
	mu     sync.Mutex // serializes writes against read-modify-write updates
	db     *leveldb.DB
	name   string
	schema KeySchema
	logger *logrus.Logger
}

// NewLevelDBTable opens (or creates) the LevelDB database at path
func NewLevelDBTable(path, name string, schema KeySchema, logger *logrus.Logger) (*LevelDBTable, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if schema.PartitionKey == "" {
		schema.PartitionKey = DefaultPartitionKey
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create leveldb directory: %w", err)
	}

	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}

	logger.WithFields(logrus.Fields{
		"path":  path,
		"table": name,
	}).Info("LevelDB table opened")

	return &LevelDBTable{
		db:     db,
		name:   name,
		schema: schema,
		logger: logger,
	}, nil
}

func (l *LevelDBTable) dbKey(id string) []byte {
	return []byte(l.name + "#" + id)
}

func (l *LevelDBTable) load(id string) (Item, error) {
	data, err := l.db.Get(l.dbKey(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapLevelDBError(err)
	}
	return unmarshalItem(data)
}

// Put implements Table.Put
func (l *LevelDBTable) Put(ctx context.Context, item Item) error {
	key, err := l.schema.KeyFromItem(item)
	if err != nil {
		return NewError("PutItem", l.name, err)
	}
	id, err := l.schema.Encode(key)
	if err != nil {
		return NewError("PutItem", l.name, err)
	}
	data, err := marshalItem(item)
	if err != nil {
		return NewError("PutItem", l.name, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.db.Put(l.dbKey(id), data, nil); err != nil {
		return NewError("PutItem", l.name, wrapLevelDBError(err))
	}
	return nil
}

// Get implements Table.Get
func (l *LevelDBTable) Get(ctx context.Context, key Key) (*GetResult, error) {
	id, err := l.schema.Encode(key)
	if err != nil {
		return nil, NewError("GetItem", l.name, err)
	}

	item, err := l.load(id)
	if err != nil {
		return nil, NewError("GetItem", l.name, err)
	}
	return &GetResult{Item: item}, nil
}

// Update implements Table.Update
func (l *LevelDBTable) Update(ctx context.Context, input UpdateInput) error {
	id, err := l.schema.Encode(input.Key)
	if err != nil {
		return NewError("UpdateItem", l.name, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	old, err := l.load(id)
	if err != nil {
		return NewError("UpdateItem", l.name, err)
	}
	next, err := planUpdate(l.schema, old, input)
	if err != nil {
		return NewError("UpdateItem", l.name, err)
	}
	data, err := marshalItem(next)
	if err != nil {
		return NewError("UpdateItem", l.name, err)
	}

	batch := new(leveldb.Batch)
	batch.Put(l.dbKey(id), data)
	if err := l.db.Write(batch, nil); err != nil {
		return NewError("UpdateItem", l.name, wrapLevelDBError(err))
	}
	return nil
}

// Delete implements Table.Delete
func (l *LevelDBTable) Delete(ctx context.Context, key Key) error {
	id, err := l.schema.Encode(key)
	if err != nil {
		return NewError("DeleteItem", l.name, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.db.Delete(l.dbKey(id), nil); err != nil {
		return NewError("DeleteItem", l.name, wrapLevelDBError(err))
	}
	return nil
}

// Close implements Table.Close
func (l *LevelDBTable) Close() error {
	return l.db.Close()
}

func wrapLevelDBError(err error) error {
	if errors.Is(err, leveldb.ErrClosed) {
		return ErrClosed
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
