// Package rendezvousapi exposes matchmaking, heartbeat, leave and stats over HTTP.
package rendezvousapi

const statusWaiting = "waiting"

// PairedResponse is returned when the requester was matched.
type PairedResponse struct {
	PartnerID string `json:"partnerId"`
}

// WaitingResponse is returned when the requester was enrolled in the pool.
type WaitingResponse struct {
	Status string `json:"status"`
}

// StatsResponse reports how many clients are online.
type StatsResponse struct {
	Online int `json:"online"`
}

// ErrorResponse carries a client-facing error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
