package table

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

const upsertItemQuery = `
	INSERT INTO items (table_name, item_key, attributes)
	VALUES (?, ?, ?)
	ON CONFLICT (table_name, item_key)
	DO UPDATE SET attributes = excluded.attributes, updated_at = CURRENT_TIMESTAMP`

// SQLiteTable stores items as JSON documents in a SQLite database whose
// schema is managed by MigrationManager
type SQLiteTable struct {
	db     *sql.DB
	name   string
	schema KeySchema
	logger *logrus.Logger
}

// NewSQLiteTable migrates and opens the SQLite database at dbPath
func NewSQLiteTable(dbPath, name string, schema KeySchema, logger *logrus.Logger) (*SQLiteTable, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if schema.PartitionKey == "" {
		schema.PartitionKey = DefaultPartitionKey
	}

	logger.WithField("db_path", dbPath).Info("Initializing SQLite table")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	if err := NewMigrationManager(dbPath, logger).RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	return &SQLiteTable{
		db:     db,
		name:   name,
		schema: schema,
		logger: logger,
	}, nil
}

// Put implements Table.Put
func (s *SQLiteTable) Put(ctx context.Context, item Item) error {
	key, err := s.schema.KeyFromItem(item)
	if err != nil {
		return NewError("PutItem", s.name, err)
	}
	id, err := s.schema.Encode(key)
	if err != nil {
		return NewError("PutItem", s.name, err)
	}
	data, err := marshalItem(item)
	if err != nil {
		return NewError("PutItem", s.name, err)
	}

	if _, err := s.db.ExecContext(ctx, upsertItemQuery, s.name, id, string(data)); err != nil {
		return NewError("PutItem", s.name, wrapSQLError(err))
	}
	return nil
}

// Get implements Table.Get
func (s *SQLiteTable) Get(ctx context.Context, key Key) (*GetResult, error) {
	id, err := s.schema.Encode(key)
	if err != nil {
		return nil, NewError("GetItem", s.name, err)
	}

	item, err := s.load(ctx, s.db, id)
	if err != nil {
		return nil, NewError("GetItem", s.name, err)
	}
	return &GetResult{Item: item}, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteTable) load(ctx context.Context, q queryer, id string) (Item, error) {
	var attributes string
	err := q.QueryRowContext(ctx,
		`SELECT attributes FROM items WHERE table_name = ? AND item_key = ?`,
		s.name, id,
	).Scan(&attributes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapSQLError(err)
	}
	return unmarshalItem([]byte(attributes))
}

// Update implements Table.Update
func (s *SQLiteTable) Update(ctx context.Context, input UpdateInput) error {
	id, err := s.schema.Encode(input.Key)
	if err != nil {
		return NewError("UpdateItem", s.name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewError("UpdateItem", s.name, wrapSQLError(err))
	}
	defer tx.Rollback()

	old, err := s.load(ctx, tx, id)
	if err != nil {
		return NewError("UpdateItem", s.name, err)
	}
	next, err := planUpdate(s.schema, old, input)
	if err != nil {
		return NewError("UpdateItem", s.name, err)
	}
	data, err := marshalItem(next)
	if err != nil {
		return NewError("UpdateItem", s.name, err)
	}

	if _, err := tx.ExecContext(ctx, upsertItemQuery, s.name, id, string(data)); err != nil {
		return NewError("UpdateItem", s.name, wrapSQLError(err))
	}
	if err := tx.Commit(); err != nil {
		return NewError("UpdateItem", s.name, wrapSQLError(err))
	}
	return nil
}

// Delete implements Table.Delete
func (s *SQLiteTable) Delete(ctx context.Context, key Key) error {
	id, err := s.schema.Encode(key)
	if err != nil {
		return NewError("DeleteItem", s.name, err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE table_name = ? AND item_key = ?`, s.name, id); err != nil {
		return NewError("DeleteItem", s.name, wrapSQLError(err))
	}
	return nil
}

// Close implements Table.Close
func (s *SQLiteTable) Close() error {
	return s.db.Close()
}

func wrapSQLError(err error) error {
	if errors.Is(err, sql.ErrConnDone) || err.Error() == "sql: database is closed" {
		return ErrClosed
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
