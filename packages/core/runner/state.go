package runner

import (
	"fmt"
	"sort"
	"sync"
)

// State carries values between the checks of one run. A check that needs a
// value an earlier check was supposed to record uses Lookup, which turns a
// missing value into a PrerequisiteError instead of a nil dereference.
type State struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewState() *State {
	return &State{values: make(map[string]any)}
}

func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *State) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Keys returns the stored keys in sorted order.
func (s *State) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the value stored under key as a T.
func Lookup[T any](s *State, key string) (T, error) {
	var zero T
	v, ok := s.Get(key)
	if !ok {
		return zero, &PrerequisiteError{Key: key}
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &PrerequisiteError{Key: key, Reason: fmt.Sprintf("holds %T, not %T", v, zero)}
	}
	return typed, nil
}

// Remember returns the value stored under key, calling fetch and storing its
// result on first use. A failed fetch stores nothing.
func Remember[T any](s *State, key string, fetch func() (T, error)) (T, error) {
	if v, err := Lookup[T](s, key); err == nil {
		return v, nil
	}
	v, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}
	s.Set(key, v)
	return v, nil
}
