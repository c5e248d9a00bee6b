package client

import (
	"sync"

	"github.com/graphtide/neohttp/protocol"
)

// Batch accumulates statements for a single logical unit of work.
// Statements are immutable once appended and keep their insertion order;
// a batch is consumed exactly once per send and may be cleared for reuse
// when a new unit of work begins.
type Batch struct {
	mu         sync.Mutex
	statements []protocol.Statement
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Append adds a statement. Identical statement texts are independent entries.
// params may be nil; tag is optional and only correlates results to call sites.
func (b *Batch) Append(text string, params map[string]interface{}, tag string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statements = append(b.statements, protocol.Statement{
		Text:       text,
		Parameters: params,
		Tag:        tag,
	})
}

// Snapshot returns the ordered statements for serialization.
// The returned slice is a copy; later mutation of the batch does not affect it.
func (b *Batch) Snapshot() []protocol.Statement {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]protocol.Statement, len(b.statements))
	copy(out, b.statements)
	return out
}

// Clear empties the batch.
func (b *Batch) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statements = b.statements[:0]
}

// Len returns the number of accumulated statements.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.statements)
}
