package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/beka-birhanu/reelrite-rendezvous/domain"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threshold = 30 * time.Second

func toStrings(ids []domain.ClientID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func TestStore_Match(t *testing.T) {
	ctx := context.Background()

	t.Run("first waits, second pairs, first re-enters", func(t *testing.T) {
		s := NewStore(clock.NewMock())

		res, err := s.Match(ctx, "p1")
		require.NoError(t, err)
		assert.False(t, res.IsPaired())

		res, err = s.Match(ctx, "p2")
		require.NoError(t, err)
		assert.Equal(t, domain.ClientID("p1"), res.PartnerID)
		assert.Empty(t, s.Waiting())

		res, err = s.Match(ctx, "p1")
		require.NoError(t, err)
		assert.False(t, res.IsPaired())
		assert.Equal(t, []domain.ClientID{"p1"}, s.Waiting())
	})

	t.Run("retry never self-matches and keeps one entry", func(t *testing.T) {
		s := NewStore(clock.NewMock())

		for i := 0; i < 3; i++ {
			res, err := s.Match(ctx, "a")
			require.NoError(t, err)
			assert.False(t, res.IsPaired())
		}
		assert.Equal(t, []domain.ClientID{"a"}, s.Waiting())
	})

	t.Run("FIFO partner selection", func(t *testing.T) {
		// Through Match alone y would pair with x, so seed the pool directly.
		s := NewStore(clock.NewMock())
		s.pool.Enqueue("x")
		s.pool.Enqueue("y")
		s.pool.Enqueue("z")

		res, err := s.Match(ctx, "w")
		require.NoError(t, err)
		assert.Equal(t, domain.ClientID("x"), res.PartnerID)
		assert.Equal(t, []domain.ClientID{"y", "z"}, s.Waiting())
		assert.False(t, s.pool.Contains("w"))
	})

	t.Run("partner is consumed", func(t *testing.T) {
		s := NewStore(clock.NewMock())
		_, _ = s.Match(ctx, "a")
		res, _ := s.Match(ctx, "b")
		require.Equal(t, domain.ClientID("a"), res.PartnerID)

		res, err := s.Match(ctx, "b")
		require.NoError(t, err)
		assert.False(t, res.IsPaired())
	})

	t.Run("match refreshes presence", func(t *testing.T) {
		clk := clock.NewMock()
		s := NewStore(clk)
		_, _ = s.Match(ctx, "a")
		clk.Add(10 * time.Second)
		_, _ = s.Match(ctx, "a")

		entry, ok := s.Entry("a")
		require.True(t, ok)
		assert.Equal(t, clk.Now(), entry.LastSeenAt)
	})
}

func TestStore_Leave(t *testing.T) {
	ctx := context.Background()
	s := NewStore(clock.NewMock())

	_, _ = s.Match(ctx, "a")
	require.NoError(t, s.Leave(ctx, "a"))
	require.NoError(t, s.Leave(ctx, "ghost"))

	assert.Empty(t, s.Waiting())
	online, _ := s.Online(ctx)
	assert.Equal(t, 1, online)
}

func TestStore_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("evicts stale from registry and pool", func(t *testing.T) {
		clk := clock.NewMock()
		s := NewStore(clk)

		_, _ = s.Match(ctx, "a")
		require.NoError(t, s.Touch(ctx, "b"))

		clk.Add(20 * time.Second)
		require.NoError(t, s.Touch(ctx, "b"))
		clk.Add(15 * time.Second)

		evicted, err := s.Sweep(ctx, threshold)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, toStrings(evicted))
		assert.Empty(t, s.Waiting())

		online, _ := s.Online(ctx)
		assert.Equal(t, 1, online)
	})

	t.Run("exactly at threshold is kept", func(t *testing.T) {
		clk := clock.NewMock()
		s := NewStore(clk)
		require.NoError(t, s.Touch(ctx, "a"))
		clk.Add(threshold)

		evicted, err := s.Sweep(ctx, threshold)
		require.NoError(t, err)
		assert.Empty(t, evicted)
	})

	t.Run("nothing to sweep", func(t *testing.T) {
		s := NewStore(clock.NewMock())
		evicted, err := s.Sweep(ctx, threshold)
		require.NoError(t, err)
		assert.Empty(t, evicted)
	})
}

func TestStore_ConcurrentMatch(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)

	const clients = 200
	partners := make([]domain.ClientID, clients)

	var wg sync.WaitGroup
	for n := 0; n < clients; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			res, err := s.Match(ctx, domain.ClientID(fmt.Sprintf("c%d", n)))
			assert.NoError(t, err)
			partners[n] = res.PartnerID
		}(n)
	}
	wg.Wait()

	// Every popped partner appears once, nobody pairs with themselves, and
	// pairings plus waiters account for every client.
	seen := make(map[domain.ClientID]bool)
	paired := 0
	for n, p := range partners {
		if p == "" {
			continue
		}
		assert.NotEqual(t, domain.ClientID(fmt.Sprintf("c%d", n)), p)
		assert.False(t, seen[p], "partner %s handed out twice", p)
		seen[p] = true
		paired++
	}
	assert.Equal(t, clients, 2*paired+len(s.Waiting()))
	assert.LessOrEqual(t, len(s.Waiting()), 1)

	online, _ := s.Online(ctx)
	assert.Equal(t, clients, online)
}

func TestStore_SweepKeepsClientRefreshedBeforeEviction(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	s := NewStore(clk)

	_, err := s.Match(ctx, "a")
	require.NoError(t, err)
	clk.Add(threshold + time.Second)

	candidates := s.staleCandidates(threshold)
	require.Equal(t, []string{"a"}, toStrings(candidates))

	require.NoError(t, s.Touch(ctx, "a"))
	evicted := s.evict(candidates, threshold)

	assert.Empty(t, evicted)
	_, ok := s.Entry("a")
	assert.True(t, ok)
	assert.Equal(t, []domain.ClientID{"a"}, s.Waiting())
}

func TestStore_RejectsEmptyID(t *testing.T) {
	ctx := context.Background()
	s := NewStore(clock.NewMock())

	_, err := s.Match(ctx, "")
	assert.ErrorIs(t, err, domain.ErrPeerIDRequired)
	assert.ErrorIs(t, s.Touch(ctx, ""), domain.ErrPeerIDRequired)
	assert.ErrorIs(t, s.Leave(ctx, ""), domain.ErrPeerIDRequired)

	assert.Empty(t, s.Waiting())
	online, _ := s.Online(ctx)
	assert.Equal(t, 0, online)

	// A real client that comes next must wait, not pair with an empty id.
	res, err := s.Match(ctx, "b")
	require.NoError(t, err)
	assert.False(t, res.IsPaired())
}
