// Package addressbook holds the shared mapping of watched addresses to
// display labels. It is the only state shared between the registration
// endpoint and the chain pollers; the lock is never held across I/O.
package addressbook

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Book maps lowercase hex addresses to labels. Safe for concurrent readers
// and a concurrent writer; entries are never removed.
type Book struct {
	mu      sync.RWMutex
	entries map[string]string
}

// New returns an empty addressbook.
func New() *Book {
	return &Book{entries: make(map[string]string)}
}

// Add inserts or replaces the label for an address (lowercased) and returns
// the watched-account count.
func (b *Book) Add(address, label string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[strings.ToLower(address)] = label
	return len(b.entries)
}

// Label returns the label for an address, if watched. Lookup is
// case-insensitive.
func (b *Book) Label(address string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	label, ok := b.entries[strings.ToLower(address)]
	return label, ok
}

// Len returns the watched-account count.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Topics returns a snapshot of the watched addresses keyed by their 32-byte
// left-padded topic representation, the form they take in indexed log fields.
func (b *Book) Topics() map[common.Hash]common.Address {
	b.mu.RLock()
	defer b.mu.RUnlock()

	topics := make(map[common.Hash]common.Address, len(b.entries))
	for addr := range b.entries {
		a := common.HexToAddress(addr)
		topics[common.BytesToHash(a.Bytes())] = a
	}
	return topics
}
