package store

import (
	"strings"

	"github.com/Rituraj200000/googlemapscraper/models"
)

// SeenSet is the in-memory index of identity keys already persisted.
// It only ever grows.
type SeenSet struct {
	keys   map[models.Key]struct{}
	byName map[string][]string
}

// NewSeenSet returns an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{
		keys:   make(map[models.Key]struct{}),
		byName: make(map[string][]string),
	}
}

// Has reports whether k is in the set.
func (s *SeenSet) Has(k models.Key) bool {
	_, ok := s.keys[k]
	return ok
}

// Add inserts k and reports whether it was new.
func (s *SeenSet) Add(k models.Key) bool {
	if _, ok := s.keys[k]; ok {
		return false
	}
	s.keys[k] = struct{}{}
	s.byName[k.Name] = append(s.byName[k.Name], k.Address)
	return true
}

// HasListing reports whether k is in the set, or whether a key with the
// same name has an address that extends k's address with more comma-separated parts.
func (s *SeenSet) HasListing(k models.Key) bool {
	if s.Has(k) {
		return true
	}
	if !models.Available(k.Address) {
		return false
	}
	for _, addr := range s.byName[k.Name] {
		rest, ok := strings.CutPrefix(addr, k.Address)
		if ok && (rest == "" || rest[0] == ',') {
			return true
		}
	}
	return false
}

// Len returns the number of keys.
func (s *SeenSet) Len() int {
	return len(s.keys)
}

// Keys returns a copy of the keys in no particular order.
func (s *SeenSet) Keys() []models.Key {
	out := make([]models.Key, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	return out
}
