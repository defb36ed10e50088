package db

import (
	"testing"
	"time"
)

func TestSyncStateFresh(t *testing.T) {
	db := setupDB(t)

	state, err := db.GetSyncState()
	if err != nil {
		t.Fatalf("GetSyncState failed: %v", err)
	}
	if state.ExpectedRows != 0 {
		t.Errorf("ExpectedRows: got %d, want 0", state.ExpectedRows)
	}
	if state.LastSyncAt != nil {
		t.Errorf("LastSyncAt: got %v, want nil", state.LastSyncAt)
	}
}

func TestSetExpectedRows(t *testing.T) {
	db := setupDB(t)

	if err := db.SetExpectedRows(8000); err != nil {
		t.Fatalf("SetExpectedRows failed: %v", err)
	}
	if err := db.SetExpectedRows(8100); err != nil {
		t.Fatalf("SetExpectedRows failed: %v", err)
	}

	state, err := db.GetSyncState()
	if err != nil {
		t.Fatalf("GetSyncState failed: %v", err)
	}
	if state.ExpectedRows != 8100 {
		t.Errorf("ExpectedRows: got %d, want 8100", state.ExpectedRows)
	}
}

func TestTouchLastSync(t *testing.T) {
	db := setupDB(t)

	if err := db.TouchLastSync(); err != nil {
		t.Fatalf("TouchLastSync failed: %v", err)
	}

	state, err := db.GetSyncState()
	if err != nil {
		t.Fatalf("GetSyncState failed: %v", err)
	}
	if state.LastSyncAt == nil {
		t.Fatal("LastSyncAt not set")
	}
	// Touching must not reset the row count set earlier.
	if err := db.SetExpectedRows(42); err != nil {
		t.Fatalf("SetExpectedRows failed: %v", err)
	}
	if err := db.TouchLastSync(); err != nil {
		t.Fatalf("TouchLastSync failed: %v", err)
	}
	state, _ = db.GetSyncState()
	if state.ExpectedRows != 42 {
		t.Errorf("ExpectedRows after touch: got %d, want 42", state.ExpectedRows)
	}
}

func TestSyncHistory(t *testing.T) {
	db := setupDB(t)

	for i := 0; i < 3; i++ {
		err := db.RecordSyncRun(&SyncHistoryEntry{
			Scope:     "all",
			Result:    i, // distinct codes to check ordering
			BytesSent: int64(i * 100),
			StartedAt: time.Now().Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("RecordSyncRun failed: %v", err)
		}
	}

	entries, err := db.GetSyncHistoryTail(2)
	if err != nil {
		t.Fatalf("GetSyncHistoryTail failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries: got %d, want 2", len(entries))
	}
	// Chronological order: the two newest, oldest first.
	if entries[0].Result != 1 || entries[1].Result != 2 {
		t.Errorf("order: got results %d,%d, want 1,2", entries[0].Result, entries[1].Result)
	}
	if entries[1].BytesSent != 200 {
		t.Errorf("BytesSent: got %d, want 200", entries[1].BytesSent)
	}
	if entries[0].StartedAt.IsZero() || entries[0].FinishedAt.IsZero() {
		t.Error("timestamps not recorded")
	}
}

func TestPruneSyncHistory(t *testing.T) {
	db := setupDB(t)

	for i := 0; i < 5; i++ {
		err := db.RecordSyncRun(&SyncHistoryEntry{Scope: "all", StartedAt: time.Now()})
		if err != nil {
			t.Fatalf("RecordSyncRun failed: %v", err)
		}
	}

	if err := db.PruneSyncHistory(2); err != nil {
		t.Fatalf("PruneSyncHistory failed: %v", err)
	}

	entries, err := db.GetSyncHistoryTail(10)
	if err != nil {
		t.Fatalf("GetSyncHistoryTail failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries after prune: got %d, want 2", len(entries))
	}
}
