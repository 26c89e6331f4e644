package service

import (
	"context"
	"testing"
	"time"

	"github.com/beka-birhanu/reelrite-rendezvous/domain"
	logger "github.com/beka-birhanu/reelrite-rendezvous/infrastruture/log"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaleCollector_Sweep(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	r, store := newTestRendezvous(t, clk)

	c, err := NewStaleCollector(store, logger.Nop(), CollectorOptions{
		StaleThreshold: 30 * time.Second,
		SweepPeriod:    time.Minute,
		Clock:          clk,
	})
	require.NoError(t, err)

	require.NoError(t, r.Heartbeat(ctx, "p1"))
	online, _ := r.OnlineCount(ctx)
	assert.Equal(t, 1, online)

	clk.Add(29 * time.Second)
	evicted, err := c.Sweep(ctx)
	require.NoError(t, err)
	assert.Empty(t, evicted)

	clk.Add(2 * time.Second)
	evicted, err = c.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ClientID{"p1"}, evicted)

	online, _ = r.OnlineCount(ctx)
	assert.Equal(t, 0, online)
}

func TestStaleCollector_EvictsWaitingClient(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	r, store := newTestRendezvous(t, clk)

	c, err := NewStaleCollector(store, logger.Nop(), CollectorOptions{
		StaleThreshold: 30 * time.Second,
		Clock:          clk,
	})
	require.NoError(t, err)

	_, err = r.Match(ctx, "a")
	require.NoError(t, err)
	clk.Add(31 * time.Second)
	_, err = c.Sweep(ctx)
	require.NoError(t, err)

	assert.Empty(t, store.Waiting())
	res, err := r.Match(ctx, "b")
	require.NoError(t, err)
	assert.False(t, res.IsPaired())
}

func TestStaleCollector_HeartbeatKeepsPairedClientAlive(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	r, store := newTestRendezvous(t, clk)

	c, err := NewStaleCollector(store, logger.Nop(), CollectorOptions{
		StaleThreshold: 30 * time.Second,
		Clock:          clk,
	})
	require.NoError(t, err)

	_, _ = r.Match(ctx, "a")
	_, _ = r.Match(ctx, "b")

	for i := 0; i < 4; i++ {
		clk.Add(15 * time.Second)
		require.NoError(t, r.Heartbeat(ctx, "a"))
		_, err := c.Sweep(ctx)
		require.NoError(t, err)
	}

	_, ok := store.Entry("a")
	assert.True(t, ok)
	_, ok = store.Entry("b")
	assert.False(t, ok)
}

func TestStaleCollector_Loop(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	r, store := newTestRendezvous(t, clk)

	c, err := NewStaleCollector(store, logger.Nop(), CollectorOptions{
		StaleThreshold: 30 * time.Second,
		SweepPeriod:    time.Minute,
		Clock:          clk,
	})
	require.NoError(t, err)

	require.NoError(t, r.Heartbeat(ctx, "p1"))
	c.Start(ctx)
	defer c.Stop()

	clk.Add(time.Minute)

	assert.Eventually(t, func() bool {
		online, _ := r.OnlineCount(ctx)
		return online == 0
	}, time.Second, 10*time.Millisecond)
}

func TestStaleCollector_StopIsIdempotent(t *testing.T) {
	c, err := NewStaleCollector(failingStore{}, logger.Nop(), CollectorOptions{Clock: clock.NewMock()})
	require.NoError(t, err)

	c.Start(context.Background())
	c.Stop()
	c.Stop()
}

func TestStaleCollector_SweepError(t *testing.T) {
	c, err := NewStaleCollector(failingStore{}, logger.Nop(), CollectorOptions{})
	require.NoError(t, err)

	_, err = c.Sweep(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
}
