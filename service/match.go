package service

import (
	"context"
	"fmt"

	"github.com/beka-birhanu/reelrite-rendezvous/domain"
	"github.com/beka-birhanu/reelrite-rendezvous/service/i"
)

// Rendezvous pairs clients and keeps their presence fresh. The pairing logic
// itself runs inside the store's critical section.
type Rendezvous struct {
	store  i.RendezvousStore
	logger i.Logger
}

// NewRendezvous creates a Rendezvous over store.
func NewRendezvous(store i.RendezvousStore, logger i.Logger) (*Rendezvous, error) {
	if store == nil {
		return nil, fmt.Errorf("rendezvous store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Rendezvous{store: store, logger: logger}, nil
}

// Match pairs requester with the longest-waiting client, or enrolls it as
// waiting when nobody else is. Calling it again while waiting is safe.
func (r *Rendezvous) Match(ctx context.Context, requester domain.ClientID) (domain.MatchResult, error) {
	if requester == "" {
		return domain.MatchResult{}, domain.ErrPeerIDRequired
	}

	res, err := r.store.Match(ctx, requester)
	if err != nil {
		r.logger.Error(fmt.Sprintf("matching %s: %s", requester, err))
		return domain.MatchResult{}, err
	}

	if res.IsPaired() {
		r.logger.Info(fmt.Sprintf("Matched %s with %s", requester, res.PartnerID))
	} else {
		r.logger.Info(fmt.Sprintf("%s added to queue", requester))
	}
	return res, nil
}

// Heartbeat refreshes presence for id. An empty id is ignored.
func (r *Rendezvous) Heartbeat(ctx context.Context, id domain.ClientID) error {
	if id == "" {
		return nil
	}
	if err := r.store.Touch(ctx, id); err != nil {
		r.logger.Error(fmt.Sprintf("heartbeat for %s: %s", id, err))
		return err
	}
	r.logger.Debug(fmt.Sprintf("heartbeat from %s", id))
	return nil
}

// Leave withdraws id from the waiting pool. An empty id is ignored.
func (r *Rendezvous) Leave(ctx context.Context, id domain.ClientID) error {
	if id == "" {
		return nil
	}
	if err := r.store.Leave(ctx, id); err != nil {
		r.logger.Error(fmt.Sprintf("leave for %s: %s", id, err))
		return err
	}
	r.logger.Info(fmt.Sprintf("%s left the queue", id))
	return nil
}

// OnlineCount returns how many clients are currently present.
func (r *Rendezvous) OnlineCount(ctx context.Context) (int, error) {
	n, err := r.store.Online(ctx)
	if err != nil {
		r.logger.Error(fmt.Sprintf("counting online clients: %s", err))
		return 0, err
	}
	return n, nil
}
