package db

import (
	"testing"

	"github.com/marcus/trigtrack/internal/models"
)

func TestMarkerCacheUpsert(t *testing.T) {
	db := setupDB(t)

	if err := db.UpdateMarkerCachedCondition(10, models.ConditionGood); err != nil {
		t.Fatalf("UpdateMarkerCachedCondition failed: %v", err)
	}
	if err := db.UpdateMarkerCachedCondition(10, models.ConditionDamaged); err != nil {
		t.Fatalf("UpdateMarkerCachedCondition failed: %v", err)
	}

	cond, err := db.GetMarkerCachedCondition(10)
	if err != nil {
		t.Fatalf("GetMarkerCachedCondition failed: %v", err)
	}
	if cond != models.ConditionDamaged {
		t.Errorf("condition: got %s, want D", string(cond))
	}
}

func TestMarkerCacheMissing(t *testing.T) {
	db := setupDB(t)

	cond, err := db.GetMarkerCachedCondition(99)
	if err != nil {
		t.Fatalf("GetMarkerCachedCondition failed: %v", err)
	}
	if cond != models.ConditionNotLogged {
		t.Errorf("missing marker: got %s, want N", string(cond))
	}
}

func TestCacheRefreshCommit(t *testing.T) {
	db := setupDB(t)

	// Pre-existing cache content that the refresh must replace wholesale.
	if err := db.UpdateMarkerCachedCondition(99, models.ConditionGood); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	r, err := db.BeginCacheRefresh()
	if err != nil {
		t.Fatalf("BeginCacheRefresh failed: %v", err)
	}
	if err := r.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := r.Apply(models.ConditionGood, 10); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if err := r.Apply(models.ConditionMissing, 11); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if err := r.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	states, err := db.ListMarkerCache()
	if err != nil {
		t.Fatalf("ListMarkerCache failed: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("cache rows: got %d, want 2 (old row replaced)", len(states))
	}
	if states[0].MarkerID != 10 || states[0].Condition != models.ConditionGood {
		t.Errorf("row 0: got %+v", states[0])
	}
	if states[1].MarkerID != 11 || states[1].Condition != models.ConditionMissing {
		t.Errorf("row 1: got %+v", states[1])
	}
}

func TestCacheRefreshRollback(t *testing.T) {
	db := setupDB(t)

	if err := db.UpdateMarkerCachedCondition(99, models.ConditionGood); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	r, err := db.BeginCacheRefresh()
	if err != nil {
		t.Fatalf("BeginCacheRefresh failed: %v", err)
	}
	if err := r.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := r.Apply(models.ConditionMissing, 10); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if err := r.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	// Pre-refresh content survives.
	cond, err := db.GetMarkerCachedCondition(99)
	if err != nil {
		t.Fatalf("GetMarkerCachedCondition failed: %v", err)
	}
	if cond != models.ConditionGood {
		t.Errorf("condition after rollback: got %s, want G", string(cond))
	}
	if got, _ := db.GetMarkerCachedCondition(10); got != models.ConditionNotLogged {
		t.Errorf("uncommitted row visible: %s", string(got))
	}
}

func TestCacheRefreshRollbackAfterCommit(t *testing.T) {
	db := setupDB(t)

	r, err := db.BeginCacheRefresh()
	if err != nil {
		t.Fatalf("BeginCacheRefresh failed: %v", err)
	}
	if err := r.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	// Deferred rollback after a successful commit must be a no-op.
	if err := r.Rollback(); err != nil {
		t.Errorf("Rollback after Commit: %v", err)
	}
}
