package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator mints "<prefix>-1", "<prefix>-2", ... and never runs
// out, unlike engine.FixedGenerator which returns a fixed list.
//
// The same scenario with a fresh generator produces identical ids, which
// keeps duplicate ids stable in golden output.
//
// Thread-safety: SequentialIDGenerator is safe for concurrent use.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a generator. If prefix is empty, "copy"
// is used.
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "copy"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next id. Implements engine.IDGenerator.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
