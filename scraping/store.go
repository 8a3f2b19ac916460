package scraping

import (
	"sync"

	"github.com/AravindhGoutham/NetMan/common"
)

// Store - Latest collection results, shared between the scraper and the HTTP server.
type Store struct {
	mutex    sync.RWMutex
	snapshot *common.FleetSnapshot
	scrapes  []common.ScrapeEntry
	sample   *common.Sample
}

// NewStore - Create an empty store.
func NewStore() *Store {
	return &Store{}
}

// SetCollection - Replace the latest snapshot and scrape entries. The previous snapshot is dropped entirely.
func (store *Store) SetCollection(snapshot *common.FleetSnapshot, scrapes []common.ScrapeEntry) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.snapshot = snapshot
	store.scrapes = scrapes
}

// Collection - Latest snapshot (nil if none yet) and scrape entries. Callers must not modify them.
func (store *Store) Collection() (*common.FleetSnapshot, []common.ScrapeEntry) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.snapshot, store.scrapes
}

// SetSample - Record the latest sampler value.
func (store *Store) SetSample(sample common.Sample) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.sample = &sample
}

// Sample - Latest sampler value, if any.
func (store *Store) Sample() (common.Sample, bool) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	if store.sample == nil {
		return common.Sample{}, false
	}
	return *store.sample, true
}
