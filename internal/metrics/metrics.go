package metrics

import "sync"

// Store holds the most recent temperature and fan speed. One writer and any
// number of readers may use it concurrently; readers always see both values
// from the same Record call.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// NewStore returns a store holding zero values.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) Record(temperature, fanSpeed float64) {
	s.mu.Lock()
	s.snapshot = Snapshot{Temperature: temperature, FanSpeed: fanSpeed}
	s.mu.Unlock()
}

func (s *Store) Read() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}
