package repo

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type ctxKey struct{}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:repo_base?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return conn
}

func TestBaseDBBindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), ctxKey{}, "checkout")
	scoped := base.DB(ctx)
	if scoped == nil || scoped.Statement == nil {
		t.Fatalf("expected scoped statement")
	}
	if scoped.Statement.Context != ctx {
		t.Fatalf("expected context to flow through, got %v", scoped.Statement.Context)
	}

	//nolint:staticcheck // nil context returns the raw handle
	if raw := base.DB(nil); raw != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestBaseBound(t *testing.T) {
	if (Base{}).Bound() {
		t.Fatal("zero Base should not be bound")
	}
	if !NewBase(newTestDB(t)).Bound() {
		t.Fatal("expected bound base")
	}
}
