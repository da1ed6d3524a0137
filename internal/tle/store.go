package tle

import (
	"sync"
	"sync/atomic"
	"time"
)

// Store holds the element set in use. Reads are lock-free; refreshes are
// serialized so concurrent callers trigger at most one download.
type Store struct {
	dataset   atomic.Pointer[Dataset]
	refreshMu sync.Mutex
}

func NewStore() *Store {
	return &Store{}
}

// Get returns the current dataset, or nil before the first load.
func (s *Store) Get() *Dataset {
	return s.dataset.Load()
}

func (s *Store) Set(ds *Dataset) {
	s.dataset.Store(ds)
}

// Age returns how long ago the current dataset was fetched, or -1 if none is loaded.
func (s *Store) Age(now time.Time) time.Duration {
	ds := s.dataset.Load()
	if ds == nil {
		return -1
	}
	return now.Sub(ds.FetchedAt)
}

// Refresh returns the current dataset while it is younger than maxAge.
// Otherwise it calls load with the current (possibly nil) dataset and stores
// the result. Callers that waited on another refresh reuse its result.
func (s *Store) Refresh(now time.Time, maxAge time.Duration, load func(stale *Dataset) (*Dataset, error)) (*Dataset, error) {
	if ds := s.fresh(now, maxAge); ds != nil {
		return ds, nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if ds := s.fresh(now, maxAge); ds != nil {
		return ds, nil
	}
	ds, err := load(s.Get())
	if err != nil {
		return nil, err
	}
	s.Set(ds)
	return ds, nil
}

func (s *Store) fresh(now time.Time, maxAge time.Duration) *Dataset {
	if ds := s.Get(); ds != nil && now.Sub(ds.FetchedAt) < maxAge {
		return ds
	}
	return nil
}
