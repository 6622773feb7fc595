package repo

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return conn
}

func TestBaseDBBindsContext(t *testing.T) {
	conn := newTestDB(t)
	base := NewBase(conn)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	bound := base.DB(ctx)
	if bound == nil || bound.Statement == nil {
		t.Fatal("expected statement after WithContext")
	}
	if bound.Statement.Context != ctx {
		t.Fatalf("expected context to flow through, got %v", bound.Statement.Context)
	}

	if base.DB(nil) != conn {
		t.Fatal("expected nil context to return the raw connection")
	}
}

func TestRebindSwitchesToTransactionHandle(t *testing.T) {
	conn := newTestDB(t)
	base := NewBase(conn)

	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin: %v", tx.Error)
	}
	defer tx.Rollback()

	rebound := base.Rebind(tx)
	if rebound.db != tx {
		t.Fatal("expected rebound base to use the transaction handle")
	}

	if same := base.Rebind(nil); same.db != conn {
		t.Fatal("expected nil transaction to keep the original connection")
	}
}
