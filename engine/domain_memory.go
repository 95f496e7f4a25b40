package engine

import (
	"sync"
	"time"
)

// domainEntry stores the preferred engine for a domain with a TTL.
type domainEntry struct {
	engineName string
	expiresAt  time.Time
}

// DomainMemory remembers which engine last worked for each host, so a chain
// of stores sharing one website does not retry the HTTP engine every time.
// Expired entries are dropped lazily on lookup.
type DomainMemory struct {
	mu    sync.Mutex
	store map[string]domainEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewDomainMemory creates a DomainMemory with the given TTL.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	return &DomainMemory{
		store: make(map[string]domainEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the remembered engine name for a domain, or "" if not found / expired.
func (dm *DomainMemory) Get(domain string) string {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	entry, ok := dm.store[domain]
	if !ok {
		return ""
	}
	if dm.now().After(entry.expiresAt) {
		delete(dm.store, domain)
		return ""
	}
	return entry.engineName
}

// Set records which engine succeeded for a domain.
func (dm *DomainMemory) Set(domain, engineName string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.store[domain] = domainEntry{engineName: engineName, expiresAt: dm.now().Add(dm.ttl)}
}

// Delete removes the memory for a domain (e.g. after the remembered engine fails).
func (dm *DomainMemory) Delete(domain string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.store, domain)
}
