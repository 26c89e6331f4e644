// Package redisstore keeps presence and the waiting pool in redis sorted sets so
// several service replicas can share one pool.
package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/beka-birhanu/reelrite-rendezvous/domain"
	"github.com/beka-birhanu/reelrite-rendezvous/service/i"
	"github.com/benbjohnson/clock"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix     = "rendezvous"
	defaultKeyTTL     = 10 * time.Minute
	defaultLockExpiry = 2 * time.Second

	presenceKeyFmt = "%s:presence"
	poolKeyFmt     = "%s:pool"
	seqKeyFmt      = "%s:pool_seq"
	lockKeyFmt     = "%s:pool_lock"
)

var _ i.RendezvousStore = (*Store)(nil)

// sweepScript reads and evicts the stale slice in one step, so a heartbeat
// either lands before it and keeps the client or lands after an eviction.
var sweepScript = redis.NewScript(`
local stale = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', '(' .. ARGV[1])
for _, id in ipairs(stale) do
	redis.call('ZREM', KEYS[1], id)
	redis.call('ZREM', KEYS[2], id)
end
return stale
`)

// Options tunes key naming and expiry.
type Options struct {
	// Prefix for every key.
	Prefix string

	// KeyTTL is refreshed on every write so an abandoned deployment leaves nothing behind.
	KeyTTL time.Duration

	// LockExpiry bounds how long a crashed holder can block the pool.
	LockExpiry time.Duration
}

// Store is a RendezvousStore on redis. Presence is a sorted set scored by
// last-seen milliseconds; the pool is a sorted set scored by an enqueue
// sequence so ZPOPMIN yields strict FIFO order.
type Store struct {
	client *redis.Client
	locker *redsync.Redsync
	clock  clock.Clock
	opts   *Options
}

// NewStore initializes a Store with the provided redis client.
func NewStore(client *redis.Client, clk clock.Clock, opts *Options) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if clk == nil {
		clk = clock.New()
	}
	if opts == nil {
		opts = &Options{}
	}
	if opts.Prefix == "" {
		opts.Prefix = defaultPrefix
	}
	if opts.KeyTTL <= 0 {
		opts.KeyTTL = defaultKeyTTL
	}
	if opts.LockExpiry <= 0 {
		opts.LockExpiry = defaultLockExpiry
	}

	return &Store{
		client: client,
		locker: redsync.New(goredis.NewPool(client)),
		clock:  clk,
		opts:   opts,
	}, nil
}

// Match implements i.RendezvousStore.
func (s *Store) Match(ctx context.Context, id domain.ClientID) (domain.MatchResult, error) {
	if id == "" {
		return domain.MatchResult{}, domain.ErrPeerIDRequired
	}

	var result domain.MatchResult
	err := s.withPoolLock(ctx, func() error {
		if err := s.touch(ctx, id); err != nil {
			return err
		}
		if err := s.client.ZRem(ctx, s.poolKey(), string(id)).Err(); err != nil {
			return fmt.Errorf("removing %s from pool: %w", id, err)
		}

		popped, err := s.client.ZPopMin(ctx, s.poolKey(), 1).Result()
		if err != nil {
			return fmt.Errorf("popping oldest waiting client: %w", err)
		}
		if len(popped) > 0 {
			result = domain.Paired(domain.ClientID(fmt.Sprint(popped[0].Member)))
			return nil
		}

		seq, err := s.client.Incr(ctx, s.seqKey()).Result()
		if err != nil {
			return fmt.Errorf("allocating pool sequence: %w", err)
		}
		_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZAddNX(ctx, s.poolKey(), redis.Z{Score: float64(seq), Member: string(id)})
			pipe.Expire(ctx, s.poolKey(), s.opts.KeyTTL)
			pipe.Expire(ctx, s.seqKey(), s.opts.KeyTTL)
			return nil
		})
		if err != nil {
			return fmt.Errorf("enqueueing %s: %w", id, err)
		}
		result = domain.Waiting()
		return nil
	})
	return result, err
}

// Touch implements i.RendezvousStore. A single ZADD is atomic, so no lock is taken.
func (s *Store) Touch(ctx context.Context, id domain.ClientID) error {
	if id == "" {
		return domain.ErrPeerIDRequired
	}
	return s.touch(ctx, id)
}

// Leave implements i.RendezvousStore.
func (s *Store) Leave(ctx context.Context, id domain.ClientID) error {
	if id == "" {
		return domain.ErrPeerIDRequired
	}
	return s.withPoolLock(ctx, func() error {
		if err := s.client.ZRem(ctx, s.poolKey(), string(id)).Err(); err != nil {
			return fmt.Errorf("removing %s from pool: %w", id, err)
		}
		return nil
	})
}

// Sweep implements i.RendezvousStore. The lock keeps a sweep from racing a
// Match; the script keeps it from racing a lock-free Touch.
func (s *Store) Sweep(ctx context.Context, threshold time.Duration) ([]domain.ClientID, error) {
	var evicted []domain.ClientID
	err := s.withPoolLock(ctx, func() error {
		cutoff := s.clock.Now().Add(-threshold).UnixMilli()
		members, err := sweepScript.Run(ctx, s.client,
			[]string{s.presenceKey(), s.poolKey()},
			strconv.FormatInt(cutoff, 10),
		).StringSlice()
		if err != nil {
			return fmt.Errorf("evicting stale clients: %w", err)
		}
		for _, m := range members {
			evicted = append(evicted, domain.ClientID(m))
		}
		return nil
	})
	return evicted, err
}

// Online implements i.RendezvousStore.
func (s *Store) Online(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, s.presenceKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("counting online clients: %w", err)
	}
	return int(n), nil
}

// Waiting returns the waiting clients, oldest first.
func (s *Store) Waiting(ctx context.Context) ([]domain.ClientID, error) {
	members, err := s.client.ZRange(ctx, s.poolKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing pool: %w", err)
	}
	ids := make([]domain.ClientID, len(members))
	for n, m := range members {
		ids[n] = domain.ClientID(m)
	}
	return ids, nil
}

// touch uses ZADD GT so a late write with an older timestamp cannot move last-seen backwards.
func (s *Store) touch(ctx context.Context, id domain.ClientID) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAddGT(ctx, s.presenceKey(), redis.Z{
			Score:  float64(s.clock.Now().UnixMilli()),
			Member: string(id),
		})
		pipe.Expire(ctx, s.presenceKey(), s.opts.KeyTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("touching %s: %w", id, err)
	}
	return nil
}

func (s *Store) withPoolLock(ctx context.Context, fn func() error) error {
	mutex := s.locker.NewMutex(s.lockKey(), redsync.WithExpiry(s.opts.LockExpiry))
	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("obtaining pool lock: %w", err)
	}
	// Release even when the caller's context is already done, otherwise the
	// pool stays blocked until LockExpiry.
	defer func() {
		_, _ = mutex.UnlockContext(context.WithoutCancel(ctx))
	}()
	return fn()
}

func (s *Store) presenceKey() string { return fmt.Sprintf(presenceKeyFmt, s.opts.Prefix) }
func (s *Store) poolKey() string     { return fmt.Sprintf(poolKeyFmt, s.opts.Prefix) }
func (s *Store) seqKey() string      { return fmt.Sprintf(seqKeyFmt, s.opts.Prefix) }
func (s *Store) lockKey() string     { return fmt.Sprintf(lockKeyFmt, s.opts.Prefix) }
