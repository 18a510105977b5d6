package events

import (
	"context"
	"sync"
)

// MemoryPublisher records events in memory. It backs unit tests and runs
// without a broker in local development.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []StatusChanged
}

// NewMemoryPublisher creates an empty in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) PublishStatusChanged(_ context.Context, event StatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []StatusChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]StatusChanged(nil), p.events...)
}

var _ Publisher = (*MemoryPublisher)(nil)
