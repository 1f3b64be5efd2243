// Package contentstore is the MongoDB adapter for every moderatable content
// type. It is driven entirely by registry entries: the collection and field
// names come from the entry, and decoding uses the entry's constructor.
package contentstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/memberhub/internal/app/registry"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/domain/moderr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) coll(e registry.Entry) *mongo.Collection {
	return s.db.Collection(e.Collection)
}

// StatusFilter is the one filter used for both listing and counting items in
// a status, so queue lengths and summary counts cannot disagree.
func StatusFilter(e registry.Entry, status models.Status) bson.M {
	return bson.M{e.StatusField: status}
}

// QueueSort orders a queue oldest submission first, with _id as tiebreaker.
func QueueSort(e registry.Entry) bson.D {
	return bson.D{{Key: e.SubmittedField, Value: 1}, {Key: "_id", Value: 1}}
}

// ListByStatus returns all items of type e in status, oldest submission first.
func (s *Store) ListByStatus(ctx context.Context, e registry.Entry, status models.Status) ([]models.Moderatable, error) {
	cur, err := s.coll(e).Find(ctx, StatusFilter(e, status), options.Find().SetSort(QueueSort(e)))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", e.Type, err)
	}
	defer cur.Close(ctx)

	out := make([]models.Moderatable, 0)
	for cur.Next(ctx) {
		item := e.New()
		if err := cur.Decode(item); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Type, err)
		}
		out = append(out, item)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", e.Type, err)
	}
	return out, nil
}

// CountByStatus counts items of type e in status.
func (s *Store) CountByStatus(ctx context.Context, e registry.Entry, status models.Status) (int64, error) {
	n, err := s.coll(e).CountDocuments(ctx, StatusFilter(e, status))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", e.Type, err)
	}
	return n, nil
}

// GetByID loads one item. Returns a NotFoundError if it does not exist.
func (s *Store) GetByID(ctx context.Context, e registry.Entry, id primitive.ObjectID) (models.Moderatable, error) {
	item := e.New()
	err := s.coll(e).FindOne(ctx, bson.M{"_id": id}).Decode(item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &moderr.NotFoundError{Kind: string(e.Type), ID: id.Hex()}
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", e.Type, err)
	}
	return item, nil
}

// CompareAndSetStatus applies tr as a single conditional update matching
// {_id: id, status: tr.From}. It returns the updated item and true, or
// (nil, false, nil) when no item matched.
func (s *Store) CompareAndSetStatus(ctx context.Context, e registry.Entry, id primitive.ObjectID, tr models.ContentTransition) (models.Moderatable, bool, error) {
	filter := bson.M{"_id": id, e.StatusField: tr.From}

	set := bson.M{e.StatusField: tr.To}
	if tr.PublishDate != nil && e.Publishes() {
		set[e.PublishDateField] = *tr.PublishDate
	}
	if tr.ReviewedBy != nil {
		set["reviewed_by"] = *tr.ReviewedBy
	}
	if tr.ReviewedAt != nil {
		set["reviewed_at"] = *tr.ReviewedAt
	}
	if tr.DecisionID != "" {
		set["decision_id"] = tr.DecisionID
	}

	update := bson.M{"$set": set}
	if tr.ClearReview {
		update["$unset"] = bson.M{"reviewed_by": "", "reviewed_at": "", "decision_id": ""}
	}

	item := e.New()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.coll(e).FindOneAndUpdate(ctx, filter, update, opts).Decode(item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("transition %s: %w", e.Type, err)
	}
	return item, true, nil
}
