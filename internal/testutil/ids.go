package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates "<prefix>-0001", "<prefix>-0002", ...
//
// Unlike store.FixedGenerator it never runs out, which suits tests whose
// number of connector invocations depends on the sampler.
//
// Thread-safety: SequentialIDs is safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix defaults to "test".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "test"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next identifier.
//
// Implements store.IDGenerator.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
