package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/louisbranch/selfcare/internal/account"
	apperrors "github.com/louisbranch/selfcare/internal/platform/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "selfcare.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("Open with blank path succeeded")
	}
}

func TestGetEmptyStore(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background())
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code != apperrors.CodeNotFound {
		t.Fatalf("Get on empty store = %v, want code %s", err, apperrors.CodeNotFound)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "token-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "token-1" {
		t.Errorf("Get = %q, want token-1", got)
	}
}

func TestSetReplacesPrevious(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "token-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, "token-2"); err != nil {
		t.Fatalf("Set replacement: %v", err)
	}
	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "token-2" {
		t.Errorf("Get = %q, want token-2", got)
	}
}

func TestSetRejectsBlankToken(t *testing.T) {
	store := openTestStore(t)

	if err := store.Set(context.Background(), "   "); err == nil {
		t.Fatal("Set with blank token succeeded")
	}
}

func TestClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear on empty store: %v", err)
	}

	if err := store.Set(ctx, "token-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	_, err := store.Get(ctx)
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code != apperrors.CodeNotFound {
		t.Fatalf("Get after clear = %v, want code %s", err, apperrors.CodeNotFound)
	}
}

func TestCanceledContext(t *testing.T) {
	store := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Set(ctx, "token-1"); !errors.Is(err, context.Canceled) {
		t.Errorf("Set with canceled context = %v, want context.Canceled", err)
	}
	if _, err := store.Get(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Get with canceled context = %v, want context.Canceled", err)
	}
}

func TestTokenSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selfcare.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Set(context.Background(), "token-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(context.Background())
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got != "token-1" {
		t.Errorf("Get = %q, want token-1", got)
	}
}

var _ account.TokenStore = (*Store)(nil)
