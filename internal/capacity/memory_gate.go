package capacity

import (
	"context"
	"sync"
)

// ActiveCounter is the slice of the member store the gate needs for display
// reads and reconciliation.
type ActiveCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// MemoryGate holds the admitted count behind a mutex. Used by the "memory"
// storage driver and by tests, which shrink the ceiling to race against it.
type MemoryGate struct {
	mu       sync.Mutex
	admitted int
	max      int
	members  ActiveCounter
}

func NewMemoryGate(maxMembers int, members ActiveCounter) *MemoryGate {
	return &MemoryGate{max: maxMembers, members: members}
}

func (g *MemoryGate) TryReserveSlot(_ context.Context) (bool, int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.admitted >= g.max {
		return false, g.admitted, nil
	}
	g.admitted++
	return true, g.admitted, nil
}

func (g *MemoryGate) ReleaseSlot(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.admitted > 0 {
		g.admitted--
	}
	return nil
}

func (g *MemoryGate) CurrentCount(ctx context.Context) (int, error) {
	return g.members.CountActive(ctx)
}

func (g *MemoryGate) Sync(ctx context.Context) error {
	count, err := g.members.CountActive(ctx)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.admitted = count
	return nil
}
