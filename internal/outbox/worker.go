package outbox

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Classifier is the external stop/segment classification service.
// Called only after a trip has completed; results are additive display data.
type Classifier interface {
	ClassifyTrip(ctx context.Context, msg EnrichmentMessage) error
}

// Commentator is the external narrative-commentary service. Its output never
// overwrites the authoritative score.
type Commentator interface {
	CommentOnTrip(ctx context.Context, msg EnrichmentMessage) error
}

// Worker consumes enrichment messages and fans them out to the external
// collaborators. Collaborator failures are logged and swallowed.
type Worker struct {
	conn        *amqp.Connection
	classifier  Classifier
	commentator Commentator
}

// NewWorker creates an enrichment worker.
func NewWorker(conn *amqp.Connection, classifier Classifier, commentator Commentator) *Worker {
	return &Worker{conn: conn, classifier: classifier, commentator: commentator}
}

// Run consumes the enrichment queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ch, err := w.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := declareTopology(ch); err != nil {
		return err
	}

	if err := ch.Qos(1, 0, false); err != nil {
		return err
	}

	deliveries, err := ch.Consume(enrichmentQueue, "enrichment-worker", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

// handle processes one delivery. Messages are acked regardless of
// collaborator outcome: enrichment is best-effort and a poison message must
// not wedge the queue.
func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	defer func() { _ = d.Ack(false) }()

	var msg EnrichmentMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Printf("enrichment: dropping malformed message: %v", err)
		return
	}

	if w.classifier != nil {
		if err := w.classifier.ClassifyTrip(ctx, msg); err != nil {
			log.Printf("enrichment: classifier failed for trip %s: %v", msg.TripID, err)
		}
	}

	if w.commentator != nil {
		if err := w.commentator.CommentOnTrip(ctx, msg); err != nil {
			log.Printf("enrichment: commentary failed for trip %s: %v", msg.TripID, err)
		}
	}
}
