package table

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLevelDBTable(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	tbl, err := NewLevelDBTable(filepath.Join(t.TempDir(), "db"), "items", KeySchema{PartitionKey: "id"}, logger)
	if err != nil {
		t.Fatalf("NewLevelDBTable() error = %v", err)
	}
	defer tbl.Close()

	exerciseTable(t, tbl)
}

func TestLevelDBTable_TablesAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	ctx := context.Background()

	first, err := NewLevelDBTable(path, "first", KeySchema{PartitionKey: "id"}, nil)
	if err != nil {
		t.Fatalf("NewLevelDBTable() error = %v", err)
	}
	if err := first.Put(ctx, Item{"id": "shared", "owner": "first"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	first.Close()

	second, err := NewLevelDBTable(path, "second", KeySchema{PartitionKey: "id"}, nil)
	if err != nil {
		t.Fatalf("NewLevelDBTable() error = %v", err)
	}
	defer second.Close()

	res, err := second.Get(ctx, Key{"id": "shared"})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if res.Item != nil {
		t.Errorf("item leaked across tables: %#v", res.Item)
	}
}

func TestLevelDBTable_Closed(t *testing.T) {
	tbl, err := NewLevelDBTable(filepath.Join(t.TempDir(), "db"), "items", KeySchema{PartitionKey: "id"}, nil)
	if err != nil {
		t.Fatalf("NewLevelDBTable() error = %v", err)
	}
	tbl.Close()

	_, err = tbl.Get(context.Background(), Key{"id": "x"})
	if !IsUnavailable(err) {
		t.Errorf("expected unavailable error, got %v", err)
	}
}
