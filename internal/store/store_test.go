package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/chat2carpool/carpoold/internal/extraction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	// No janitor; expiry is exercised directly.
	return New(30*time.Minute, 0, nil)
}

func record(id string) extraction.Record {
	return extraction.Record{ID: id, SessionID: "sess", Kind: extraction.KindRequest}
}

func TestStore_AppendAndRead(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	s.Append("sess", []extraction.Record{record("a"), record("b")})
	s.Append("sess", []extraction.Record{record("c")})

	records, ok := s.Records("sess")
	require.True(t, ok)
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
	assert.Equal(t, "c", records[2].ID)
}

func TestStore_UnknownSession(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	records, ok := s.Records("nope")
	assert.False(t, ok)
	assert.Nil(t, records)
}

func TestStore_ReadReturnsCopy(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	s.Append("sess", []extraction.Record{record("a")})

	records, ok := s.Records("sess")
	require.True(t, ok)
	records[0].ID = "mutated"

	again, _ := s.Records("sess")
	assert.Equal(t, "a", again[0].ID)
}

func TestStore_TouchRegistersEmptySession(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	s.Touch("sess")

	records, ok := s.Records("sess")
	require.True(t, ok)
	assert.Empty(t, records)
}

func TestStore_Sessions(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	assert.Empty(t, s.Sessions())

	s.Append("one", []extraction.Record{record("a")})
	s.Touch("two")

	ids := s.Sessions()
	assert.ElementsMatch(t, []string{"one", "two"}, ids)
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	s.Append("one", []extraction.Record{record("a"), record("b")})
	s.Append("two", []extraction.Record{record("c")})
	s.Touch("three")

	stats := s.Stats()
	assert.Equal(t, 3, stats.Sessions)
	assert.Equal(t, 3, stats.TotalRecords)
}

func TestStore_Expiry(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	s.Append("old", []extraction.Record{record("a")})
	s.Append("fresh", []extraction.Record{record("b")})

	s.mu.Lock()
	s.sessions["old"].lastActivity = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	removed := s.removeExpired()
	assert.Equal(t, 1, removed)

	_, ok := s.Records("old")
	assert.False(t, ok)
	_, ok = s.Records("fresh")
	assert.True(t, ok)
}

func TestStore_ReadRefreshesActivity(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	s.Append("sess", []extraction.Record{record("a")})

	s.mu.Lock()
	s.sessions["sess"].lastActivity = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	// Reading the session keeps it alive.
	_, ok := s.Records("sess")
	require.True(t, ok)

	assert.Equal(t, 0, s.removeExpired())
}

func TestStore_ConcurrentAppends(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				s.Append("sess", []extraction.Record{record(fmt.Sprintf("%d-%d", n, j))})
			}
		}(i)
	}
	wg.Wait()

	records, ok := s.Records("sess")
	require.True(t, ok)
	assert.Len(t, records, 200)
}

func TestStore_CloseIdempotent(t *testing.T) {
	s := New(time.Minute, time.Minute, nil)
	s.Close()
	s.Close()
}
