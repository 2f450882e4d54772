package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lotmarket/auction-api/internal/core/domain"
)

const auditCollection = "lot_events"

// AuditRepository appends lot lifecycle events to the lot_events collection.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type auditDoc struct {
	Kind     string    `bson:"kind"`
	LotID    string    `bson:"lot_id"`
	ActorID  string    `bson:"actor_id,omitempty"`
	BidID    string    `bson:"bid_id,omitempty"`
	Amount   string    `bson:"amount,omitempty"`
	At       time.Time `bson:"at"`
	Recorded time.Time `bson:"recorded_at"`
}

func (r *AuditRepository) Record(ctx context.Context, event domain.AuditEvent) error {
	doc := auditDoc{
		Kind:     string(event.Kind),
		LotID:    event.LotID,
		ActorID:  event.ActorID,
		BidID:    event.BidID,
		Amount:   event.Amount,
		At:       event.At.UTC(),
		Recorded: time.Now().UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByLot returns the trail of one lot, oldest first.
func (r *AuditRepository) ListByLot(ctx context.Context, lotID string, limit int64) ([]domain.AuditEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: 1}}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, bson.M{"lot_id": lotID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find audit events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []auditDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}

	events := make([]domain.AuditEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, domain.AuditEvent{
			Kind:    domain.AuditKind(d.Kind),
			LotID:   d.LotID,
			ActorID: d.ActorID,
			BidID:   d.BidID,
			Amount:  d.Amount,
			At:      d.At.UTC(),
		})
	}
	return events, nil
}
