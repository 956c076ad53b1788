package outbox

import (
	"context"
	"log"
)

// LogClassifier stands in for the external classification service. It records
// what would be sent; swap in a real client via the Classifier interface.
type LogClassifier struct{}

// ClassifyTrip logs the classification request.
func (LogClassifier) ClassifyTrip(ctx context.Context, msg EnrichmentMessage) error {
	log.Printf("enrichment: classify trip %s (score %d, %.0fm over %ds)",
		msg.TripID, msg.Score, msg.DistanceMeters, msg.DurationSeconds)
	return nil
}

// LogCommentator stands in for the external commentary service.
type LogCommentator struct{}

// CommentOnTrip logs the commentary request.
func (LogCommentator) CommentOnTrip(ctx context.Context, msg EnrichmentMessage) error {
	log.Printf("enrichment: comment on trip %s for user %s (profile score %d after %d trips)",
		msg.TripID, msg.UserID, msg.ProfileScore, msg.TotalTrips)
	return nil
}

var (
	_ Classifier  = LogClassifier{}
	_ Commentator = LogCommentator{}
)
