// Package syncstatus holds the sync engine's published status, replacing
// a global mutable status object with a single-writer, atomically-swapped
// snapshot.
package syncstatus

import (
	"sync/atomic"

	"github.com/fluxrevenue/indexer/internal/model"
)

// Publisher is written only by the sync engine's own goroutine and read
// concurrently by everything else (HTTP handlers, the aggregator). Reads
// always see a complete, consistent snapshot because publishing swaps one
// pointer rather than mutating fields in place.
type Publisher struct {
	current atomic.Pointer[model.SyncStatus]
}

// NewPublisher returns a Publisher seeded with an otherwise empty snapshot
// marked IsFirstRun, so Current never dereferences nil.
func NewPublisher() *Publisher {
	p := &Publisher{}
	p.Publish(model.SyncStatus{IsFirstRun: true})
	return p
}

// Publish atomically replaces the current snapshot.
func (p *Publisher) Publish(status model.SyncStatus) {
	p.current.Store(&status)
}

// Current returns the most recently published snapshot.
func (p *Publisher) Current() model.SyncStatus {
	return *p.current.Load()
}
