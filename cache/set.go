package cache

import (
	"cmp"
	"encoding/json"
	"slices"
	"sync"
)

// Set provides a type-safe concurrent membership set
type Set[K cmp.Ordered] struct {
	data map[K]struct{}
	sync.RWMutex
}

// NewSet creates a set populated with keys
func NewSet[K cmp.Ordered](keys ...K) *Set[K] {
	s := &Set[K]{data: make(map[K]struct{}, len(keys))}
	for _, k := range keys {
		s.data[k] = struct{}{}
	}
	return s
}

// Has checks if a key is a member
func (s *Set[K]) Has(key K) bool {
	s.RLock()
	defer s.RUnlock()
	_, ok := s.data[key]
	return ok
}

// Add inserts key, it returns false when key was already present
func (s *Set[K]) Add(key K) bool {
	s.Lock()
	defer s.Unlock()
	if _, ok := s.data[key]; ok {
		return false
	}
	s.data[key] = struct{}{}
	return true
}

// Keys returns all keys in ascending order
func (s *Set[K]) Keys() []K {
	s.RLock()
	defer s.RUnlock()
	keys := make([]K, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Size returns the number of keys
func (s *Set[K]) Size() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.data)
}

// Data returns sorted keys as JSON array
func (s *Set[K]) Data() ([]byte, error) {
	return json.Marshal(s.Keys())
}

// Load adds keys from JSON array, nothing is added when data is malformed
func (s *Set[K]) Load(data []byte) error {
	var keys []K
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	s.Lock()
	defer s.Unlock()
	for _, k := range keys {
		s.data[k] = struct{}{}
	}
	return nil
}
