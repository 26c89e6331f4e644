package memstore

import (
	"time"

	"github.com/beka-birhanu/reelrite-rendezvous/domain"
)

// PresenceRegistry maps a client to the last time it was heard from.
// It is not safe for concurrent use; Store guards it.
type PresenceRegistry struct {
	lastSeen map[domain.ClientID]time.Time
}

// NewPresenceRegistry returns an empty registry.
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{lastSeen: make(map[domain.ClientID]time.Time)}
}

// Touch creates or refreshes the entry for id. lastSeenAt never moves backwards.
func (p *PresenceRegistry) Touch(id domain.ClientID, now time.Time) {
	if prev, ok := p.lastSeen[id]; ok && now.Before(prev) {
		return
	}
	p.lastSeen[id] = now
}

// Evict removes the entry for id if present.
func (p *PresenceRegistry) Evict(id domain.ClientID) {
	delete(p.lastSeen, id)
}

// Size returns the number of known clients.
func (p *PresenceRegistry) Size() int {
	return len(p.lastSeen)
}

// Contains reports whether id has an entry.
func (p *PresenceRegistry) Contains(id domain.ClientID) bool {
	_, ok := p.lastSeen[id]
	return ok
}

// Entry returns the presence entry for id.
func (p *PresenceRegistry) Entry(id domain.ClientID) (domain.PresenceEntry, bool) {
	at, ok := p.lastSeen[id]
	if !ok {
		return domain.PresenceEntry{}, false
	}
	return domain.PresenceEntry{ClientID: id, LastSeenAt: at}, true
}

// IsStale reports whether now - lastSeenAt exceeds threshold. Unknown ids are not stale.
func (p *PresenceRegistry) IsStale(id domain.ClientID, now time.Time, threshold time.Duration) bool {
	at, ok := p.lastSeen[id]
	if !ok {
		return false
	}
	return now.Sub(at) > threshold
}

// StaleIDs returns every id that IsStale at now.
func (p *PresenceRegistry) StaleIDs(now time.Time, threshold time.Duration) []domain.ClientID {
	var ids []domain.ClientID
	for id, at := range p.lastSeen {
		if now.Sub(at) > threshold {
			ids = append(ids, id)
		}
	}
	return ids
}
