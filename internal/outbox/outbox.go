// Package outbox decouples post-commit enrichment (trip classification,
// narrative commentary) from the authoritative trip transaction. Messages
// are published after commit and consumed by a worker; any failure on this
// path is logged and swallowed, never reflected back into trip state.
package outbox

import "context"

// EnrichmentMessage is the compact trip summary handed to the enrichment
// collaborators once a trip completes.
type EnrichmentMessage struct {
	TripID          string  `json:"trip_id"`
	UserID          string  `json:"user_id"`
	Score           int     `json:"score"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds int64   `json:"duration_seconds"`
	HardBrakes      int     `json:"hard_brakes"`
	HardAccels      int     `json:"hard_accels"`
	SharpTurns      int     `json:"sharp_turns"`
	SpeedingSeconds int     `json:"speeding_seconds"`
	ProfileScore    int     `json:"profile_score"`
	TotalTrips      int     `json:"total_trips"`
}

// Publisher enqueues enrichment messages.
type Publisher interface {
	PublishEnrichment(ctx context.Context, msg EnrichmentMessage) error
}

// NopPublisher discards messages. Used when no broker is configured and in
// tests; completion must work without a broker.
type NopPublisher struct{}

// PublishEnrichment discards the message.
func (NopPublisher) PublishEnrichment(ctx context.Context, msg EnrichmentMessage) error {
	return nil
}

// Ensure NopPublisher implements Publisher.
var _ Publisher = (*NopPublisher)(nil)
