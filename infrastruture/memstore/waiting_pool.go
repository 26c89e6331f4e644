package memstore

import (
	"container/list"

	"github.com/beka-birhanu/reelrite-rendezvous/domain"
)

// WaitingPool is an insertion-ordered set of clients seeking a partner.
// It is not safe for concurrent use; Store guards it.
type WaitingPool struct {
	order *list.List
	index map[domain.ClientID]*list.Element
}

// NewWaitingPool returns an empty pool.
func NewWaitingPool() *WaitingPool {
	return &WaitingPool{
		order: list.New(),
		index: make(map[domain.ClientID]*list.Element),
	}
}

// Enqueue appends id unless it is already waiting.
func (w *WaitingPool) Enqueue(id domain.ClientID) {
	if _, ok := w.index[id]; ok {
		return
	}
	w.index[id] = w.order.PushBack(id)
}

// Remove drops id if it is waiting.
func (w *WaitingPool) Remove(id domain.ClientID) {
	el, ok := w.index[id]
	if !ok {
		return
	}
	w.order.Remove(el)
	delete(w.index, id)
}

// PopOldest removes and returns the client that has waited longest.
// ok is false when the pool is empty.
func (w *WaitingPool) PopOldest() (id domain.ClientID, ok bool) {
	front := w.order.Front()
	if front == nil {
		return "", false
	}
	id = w.order.Remove(front).(domain.ClientID)
	delete(w.index, id)
	return id, true
}

// Contains reports whether id is waiting.
func (w *WaitingPool) Contains(id domain.ClientID) bool {
	_, ok := w.index[id]
	return ok
}

// Len returns the number of waiting clients.
func (w *WaitingPool) Len() int {
	return w.order.Len()
}

// Snapshot returns the waiting clients, oldest first.
func (w *WaitingPool) Snapshot() []domain.ClientID {
	ids := make([]domain.ClientID, 0, w.order.Len())
	for el := w.order.Front(); el != nil; el = el.Next() {
		ids = append(ids, el.Value.(domain.ClientID))
	}
	return ids
}
