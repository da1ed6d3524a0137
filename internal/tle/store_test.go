package tle

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAge(t *testing.T) {
	s := NewStore()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	assert.Nil(t, s.Get())
	assert.Equal(t, time.Duration(-1), s.Age(now))

	s.Set(&Dataset{FetchedAt: now.Add(-time.Minute)})
	assert.Equal(t, time.Minute, s.Age(now))
}

func TestStoreRefresh(t *testing.T) {
	s := NewStore()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	var loads atomic.Int32
	load := func(stale *Dataset) (*Dataset, error) {
		loads.Add(1)
		return &Dataset{FetchedAt: now}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ds, err := s.Refresh(now, time.Hour, load)
			assert.NoError(t, err)
			assert.NotNil(t, ds)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), loads.Load(), "concurrent callers share one load")

	later := now.Add(2 * time.Hour)
	var got *Dataset
	_, err := s.Refresh(later, time.Hour, func(stale *Dataset) (*Dataset, error) {
		got = stale
		return &Dataset{FetchedAt: later}, nil
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, now, got.FetchedAt, "load sees the expired dataset")
	assert.Equal(t, later, s.Get().FetchedAt)
}

func TestStoreRefreshError(t *testing.T) {
	s := NewStore()
	now := time.Now()
	old := &Dataset{FetchedAt: now.Add(-48 * time.Hour)}
	s.Set(old)

	_, err := s.Refresh(now, time.Hour, func(*Dataset) (*Dataset, error) {
		return nil, errors.New("down")
	})
	assert.Error(t, err)
	assert.Same(t, old, s.Get(), "failed load keeps the current dataset")
}
