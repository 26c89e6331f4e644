package i

import (
	"context"
	"time"

	"github.com/beka-birhanu/reelrite-rendezvous/domain"
)

// RendezvousStore owns the presence registry and the waiting pool as one unit.
// Every method runs as a single critical section over both.
type RendezvousStore interface {
	// Match touches id, drops any earlier pool entry for it, then either pops
	// the oldest waiting client as its partner or enrolls id as waiting.
	Match(ctx context.Context, id domain.ClientID) (domain.MatchResult, error)

	// Touch refreshes the presence entry for id, creating it if needed.
	Touch(ctx context.Context, id domain.ClientID) error

	// Leave removes id from the waiting pool. Presence is untouched.
	Leave(ctx context.Context, id domain.ClientID) error

	// Sweep evicts every client idle for longer than threshold from both the
	// registry and the pool, and returns the evicted ids.
	Sweep(ctx context.Context, threshold time.Duration) ([]domain.ClientID, error)

	// Online returns the number of clients in the presence registry.
	Online(ctx context.Context) (int, error)
}
