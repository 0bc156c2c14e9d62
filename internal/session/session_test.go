package session

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"

	"campusportal/portal/internal/auth"
	"campusportal/portal/internal/role"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	store := NewSQLiteStore(db)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init store: %v", err)
	}
	return store
}

func TestRestoreEmpty(t *testing.T) {
	m := NewManager(openTestStore(t), nil)
	if s := m.Restore(context.Background()); s != nil {
		t.Fatalf("expected no session, got %+v", s)
	}
	if m.Current() != nil {
		t.Fatalf("expected logged out")
	}
}

func TestEstablishSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	store, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	m := NewManager(store, nil)
	claims := auth.Claims{Name: "Jane", Email: "jane@mnmjec.ac.in", Role: "HOD", DeptID: "1"}
	if _, err := m.Establish(ctx, "tok-1", claims); err != nil {
		t.Fatalf("establish: %v", err)
	}
	if got := m.Current(); got == nil || got.Role() != role.HOD {
		t.Fatalf("expected active HOD session, got %+v", got)
	}
	store.Close()

	reopened, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()
	restored := NewManager(reopened, nil).Restore(ctx)
	if restored == nil {
		t.Fatalf("expected restored session")
	}
	if restored.Token != "tok-1" || restored.Claims.Email != claims.Email || restored.Claims.DeptID != "1" {
		t.Fatalf("unexpected restored session: %+v", restored)
	}
}

func TestRestoreCorruptIsAbsent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	if err := store.Save(ctx, "tok", []byte("{not json")); err != nil {
		t.Fatalf("save: %v", err)
	}
	m := NewManager(store, nil)
	if s := m.Restore(ctx); s != nil {
		t.Fatalf("corrupt data must restore as absent, got %+v", s)
	}
}

func TestClearRemovesBothKeys(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	m := NewManager(store, nil)
	if _, err := m.Establish(ctx, "tok", auth.Claims{Role: "student"}); err != nil {
		t.Fatalf("establish: %v", err)
	}
	if err := m.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if m.Current() != nil {
		t.Fatalf("expected logged out after clear")
	}
	if _, _, err := store.Load(ctx); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
}

func TestEstablishReplaces(t *testing.T) {
	ctx := context.Background()
	m := NewManager(openTestStore(t), nil)
	if _, err := m.Establish(ctx, "a", auth.Claims{Role: "student"}); err != nil {
		t.Fatalf("establish: %v", err)
	}
	if _, err := m.Establish(ctx, "b", auth.Claims{Role: "Principal"}); err != nil {
		t.Fatalf("establish: %v", err)
	}
	s := m.Restore(ctx)
	if s == nil || s.Token != "b" || s.Role() != role.Principal {
		t.Fatalf("expected replaced session, got %+v", s)
	}
}

func TestUnknownRoleSession(t *testing.T) {
	s := &Session{Claims: auth.Claims{Role: "wizard"}}
	if s.Role() != role.Unknown {
		t.Fatalf("expected unknown role")
	}
	var none *Session
	if none.Role() != role.Unknown {
		t.Fatalf("nil session must have unknown role")
	}
}

func TestContextRoundTrip(t *testing.T) {
	s := &Session{Token: "t"}
	if got := FromContext(WithSession(context.Background(), s)); got != s {
		t.Fatalf("expected session from context")
	}
	if FromContext(context.Background()) != nil {
		t.Fatalf("expected nil session")
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("set REDIS_ADDR to run")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	store := NewRedisStore(client)
	m := NewManager(store, nil)

	if _, err := m.Establish(ctx, "redis-token", auth.Claims{Name: "R", Role: "CA"}); err != nil {
		t.Fatalf("establish: %v", err)
	}
	restored := NewManager(store, nil).Restore(ctx)
	if restored == nil || restored.Token != "redis-token" || restored.Role() != role.CA {
		t.Fatalf("unexpected restored session: %+v", restored)
	}
	if err := m.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, _, err := store.Load(ctx); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
}
