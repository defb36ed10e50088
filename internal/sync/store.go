package sync

import (
	"github.com/marcus/trigtrack/internal/db"
)

// storeAdapter narrows *db.DB to the Store interface. Only BeginCacheRefresh
// needs translation (the concrete *db.CacheRefresh satisfies CacheTx).
type storeAdapter struct {
	*db.DB
}

// Adapt wraps the outbox database as the engine's Store.
func Adapt(database *db.DB) Store {
	return storeAdapter{database}
}

func (a storeAdapter) BeginCacheRefresh() (CacheTx, error) {
	return a.DB.BeginCacheRefresh()
}
