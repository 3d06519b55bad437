package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phbpx/leadsync"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type leadDocument struct {
	UserID      string    `bson:"user_id"`
	Name        string    `bson:"name"`
	GymName     string    `bson:"gym_name"`
	PhoneNumber string    `bson:"phone_number"`
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d leadDocument) lead() leadsync.Lead {
	return leadsync.Lead{
		UserID:      d.UserID,
		Name:        d.Name,
		GymName:     d.GymName,
		PhoneNumber: d.PhoneNumber,
		Status:      d.Status,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

type LeadStore struct {
	coll *mongo.Collection
}

func NewLeadStore(db *mongo.Database) *LeadStore {
	return &LeadStore{
		coll: db.Collection(leadsCollection),
	}
}

func (ls *LeadStore) FindByUserID(ctx context.Context, userID string) (leadsync.Lead, error) {
	var doc leadDocument
	err := ls.coll.FindOne(ctx, bson.D{{Key: "user_id", Value: userID}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return leadsync.Lead{}, leadsync.ErrLeadNotFound
		}
		return leadsync.Lead{}, fmt.Errorf("%w: find lead %q: %w", leadsync.ErrStore, userID, err)
	}
	return doc.lead(), nil
}

func (ls *LeadStore) Insert(ctx context.Context, lead leadsync.Lead) error {
	_, err := ls.coll.InsertOne(ctx, leadDocument{
		UserID:      lead.UserID,
		Name:        lead.Name,
		GymName:     lead.GymName,
		PhoneNumber: lead.PhoneNumber,
		Status:      lead.Status,
		CreatedAt:   lead.CreatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return leadsync.ErrDuplicatedLead
		}
		return fmt.Errorf("%w: insert lead %q: %w", leadsync.ErrStore, lead.UserID, err)
	}
	return nil
}

func (ls *LeadStore) Update(ctx context.Context, lead leadsync.Lead) error {
	res, err := ls.coll.UpdateOne(ctx,
		bson.D{{Key: "user_id", Value: lead.UserID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "name", Value: lead.Name},
			{Key: "gym_name", Value: lead.GymName},
			{Key: "phone_number", Value: lead.PhoneNumber},
			{Key: "status", Value: lead.Status},
		}}},
	)
	if err != nil {
		return fmt.Errorf("%w: update lead %q: %w", leadsync.ErrStore, lead.UserID, err)
	}
	if res.MatchedCount == 0 {
		return leadsync.ErrLeadNotFound
	}
	return nil
}

func (ls *LeadStore) Count(ctx context.Context, statuses ...string) (int, error) {
	filter := bson.D{}
	switch len(statuses) {
	case 0:
	case 1:
		filter = bson.D{{Key: "status", Value: statuses[0]}}
	default:
		filter = bson.D{{Key: "status", Value: bson.D{{Key: "$in", Value: statuses}}}}
	}

	n, err := ls.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("%w: count leads: %w", leadsync.ErrStore, err)
	}
	return int(n), nil
}

func (ls *LeadStore) List(ctx context.Context, limit int) ([]leadsync.Lead, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := ls.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list leads: %w", leadsync.ErrStore, err)
	}
	defer cur.Close(ctx)

	leads := []leadsync.Lead{}
	for cur.Next(ctx) {
		var doc leadDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: list leads: %w", leadsync.ErrStore, err)
		}
		leads = append(leads, doc.lead())
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: list leads: %w", leadsync.ErrStore, err)
	}
	return leads, nil
}
