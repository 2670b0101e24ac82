package river_test

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	goriver "github.com/riverqueue/river"

	_ "modernc.org/sqlite"

	riveradapter "github.com/velora/studioops/internal/adapter/river"
	"github.com/velora/studioops/internal/domain"
)

// recordingStore captures DeleteByPrefix calls.
type recordingStore struct {
	mu       sync.Mutex
	prefixes []string
}

func (s *recordingStore) DeleteByPrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefixes = append(s.prefixes, prefix)
	return nil
}

func (s *recordingStore) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.prefixes...)
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := t.TempDir() + "/river_test.db"
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		t.Fatalf("setting WAL: %v", err)
	}

	return db
}

func setupClient(t *testing.T, db *sql.DB, store domain.ObjectStore) *riveradapter.Client {
	t.Helper()

	client, err := riveradapter.Setup(context.Background(), db, store)
	if err != nil {
		t.Fatalf("river setup: %v", err)
	}

	return client
}

func startClient(t *testing.T, client *riveradapter.Client) {
	t.Helper()

	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("river start: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Stop(stopCtx); err != nil {
			t.Errorf("river stop: %v", err)
		}
	})
}

func TestScheduler_Schedule_RunsCleanup(t *testing.T) {
	db := setupTestDB(t)
	store := &recordingStore{}
	client := setupClient(t, db, store)
	ctx := context.Background()

	// Subscribe to job completions before starting so we don't miss events.
	subscribeChan, subscribeCancel := client.Subscribe(goriver.EventKindJobCompleted)
	defer subscribeCancel()

	startClient(t, client)

	scheduler := riveradapter.NewScheduler(client)
	tenant := domain.NewTenant("t-1", "Acme", "acme", domain.TierLaunch)

	if err := scheduler.Schedule(ctx, tenant); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	select {
	case event := <-subscribeChan:
		if event.Job.Kind != "storage.cleanup" {
			t.Errorf("job kind = %q, want %q", event.Job.Kind, "storage.cleanup")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job completion")
	}

	calls := store.calls()
	if len(calls) != 1 || calls[0] != "tenants/acme/" {
		t.Errorf("DeleteByPrefix calls = %v, want [tenants/acme/]", calls)
	}
}

func TestScheduler_Schedule_PreservesTenantSnapshot(t *testing.T) {
	db := setupTestDB(t)
	store := &recordingStore{}
	client := setupClient(t, db, store)
	ctx := context.Background()

	subscribeChan, subscribeCancel := client.Subscribe(goriver.EventKindJobCompleted)
	defer subscribeCancel()

	startClient(t, client)

	scheduler := riveradapter.NewScheduler(client)
	tenant := domain.NewTenant("t-42", "Test Corp", "test-corp", domain.TierScale)

	if err := scheduler.Schedule(ctx, tenant); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	select {
	case event := <-subscribeChan:
		args := string(event.Job.EncodedArgs)
		for _, want := range []string{`"tenant_id":"t-42"`, `"slug":"test-corp"`, `"prefix":"tenants/test-corp/"`} {
			if !strings.Contains(args, want) {
				t.Errorf("encoded args missing %s, got: %s", want, args)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job completion")
	}
}
