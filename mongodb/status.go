package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/phbpx/leadsync"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type statusCheckDocument struct {
	ID         string    `bson:"id"`
	ClientName string    `bson:"client_name"`
	Timestamp  time.Time `bson:"timestamp"`
}

type StatusCheckStore struct {
	coll *mongo.Collection
}

func NewStatusCheckStore(db *mongo.Database) *StatusCheckStore {
	return &StatusCheckStore{
		coll: db.Collection(statusChecksCollection),
	}
}

func (ss *StatusCheckStore) Create(ctx context.Context, check leadsync.StatusCheck) error {
	_, err := ss.coll.InsertOne(ctx, statusCheckDocument{
		ID:         check.ID,
		ClientName: check.ClientName,
		Timestamp:  check.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("%w: insert status check: %w", leadsync.ErrStore, err)
	}
	return nil
}

func (ss *StatusCheckStore) List(ctx context.Context, limit int) ([]leadsync.StatusCheck, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}}).
		SetLimit(int64(limit))

	cur, err := ss.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list status checks: %w", leadsync.ErrStore, err)
	}
	defer cur.Close(ctx)

	var docs []statusCheckDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: list status checks: %w", leadsync.ErrStore, err)
	}

	checks := make([]leadsync.StatusCheck, 0, len(docs))
	for _, d := range docs {
		checks = append(checks, leadsync.StatusCheck{
			ID:         d.ID,
			ClientName: d.ClientName,
			Timestamp:  d.Timestamp.UTC(),
		})
	}
	return checks, nil
}
