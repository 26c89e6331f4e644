// Package domain holds the types shared by the rendezvous service, its stores and its API.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrPeerIDRequired is returned when a request names no client.
	ErrPeerIDRequired = errors.New("peerId is required")
)

// ClientID is the opaque token a client presents. It is minted by the signaling
// provider and never interpreted here.
type ClientID string

// PresenceEntry records when a client was last heard from.
type PresenceEntry struct {
	ClientID   ClientID
	LastSeenAt time.Time
}

// MatchResult is the outcome of one matchmaking call: either a partner was
// found or the requester now waits in the pool.
type MatchResult struct {
	PartnerID ClientID
}

// Paired builds the result for a successful pairing.
func Paired(partner ClientID) MatchResult {
	return MatchResult{PartnerID: partner}
}

// Waiting is the result for a requester that was enrolled in the pool.
func Waiting() MatchResult {
	return MatchResult{}
}

// IsPaired reports whether a partner was returned.
func (r MatchResult) IsPaired() bool {
	return r.PartnerID != ""
}
