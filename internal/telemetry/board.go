package telemetry

import "sync"

// Board lists the aggregators of every input seen by this process, in the
// order they started.
type Board struct {
	mu    sync.RWMutex
	order []*Aggregator
}

func NewBoard() *Board { return &Board{} }

// Track registers a new aggregator for input.
func (b *Board) Track(input string) *Aggregator {
	a := NewAggregator(input)
	b.mu.Lock()
	b.order = append(b.order, a)
	b.mu.Unlock()
	return a
}

func (b *Board) Snapshots() []Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Snapshot, 0, len(b.order))
	for _, a := range b.order {
		out = append(out, a.Snapshot())
	}
	return out
}
