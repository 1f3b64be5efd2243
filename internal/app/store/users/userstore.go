package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/domain/moderr"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// StatusFilter is shared by ListByStatus and CountByStatus.
func StatusFilter(status models.UserStatus) bson.M {
	return bson.M{"status": status}
}

func notFound(id primitive.ObjectID) error {
	return &moderr.NotFoundError{Kind: "user", ID: id.Hex()}
}

// GetByID loads a user by ObjectID. Returns a NotFoundError if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// ListByStatus returns users in status, oldest registration first.
func (s *Store) ListByStatus(ctx context.Context, status models.UserStatus) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, StatusFilter(status), opts)
}

// ListAll returns the full roster, newest registration first.
func (s *Store) ListAll(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, bson.M{}, opts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.User, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return out, nil
}

// CountByStatus counts users in status.
func (s *Store) CountByStatus(ctx context.Context, status models.UserStatus) (int64, error) {
	return s.c.CountDocuments(ctx, StatusFilter(status))
}

// CountAll counts every user.
func (s *Store) CountAll(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// CompareAndSetStatus moves a user from one status to another in a single
// conditional update. It returns (nil, false, nil) when the user is missing
// or no longer in from.
func (s *Store) CompareAndSetStatus(ctx context.Context, id primitive.ObjectID, from, to models.UserStatus) (*models.User, bool, error) {
	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("transition user: %w", err)
	}
	return &u, true, nil
}

// SetStatus writes status unconditionally. Returns a NotFoundError if absent.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status models.UserStatus) (*models.User, error) {
	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("set user status: %w", err)
	}
	return &u, nil
}

// EnsureAdmin makes the account with mobile an ACTIVE admin, creating it if
// needed. It returns the account and whether it was newly created.
func (s *Store) EnsureAdmin(ctx context.Context, mobile string) (*models.User, bool, error) {
	// BSON dates carry milliseconds; truncate so the created check can compare.
	now := time.Now().UTC().Truncate(time.Millisecond)
	filter := bson.M{"mobile_number": mobile}
	update := bson.M{
		"$set": bson.M{
			"role":       models.RoleAdmin,
			"status":     models.UserActive,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"mobile_number": mobile,
			"created_at":    now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var u models.User
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u)
	// Two concurrent upserts can both miss and race on the unique index;
	// the loser retries as a plain update.
	if wafflemongo.IsDup(err) {
		err = s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u)
	}
	if err != nil {
		return nil, false, fmt.Errorf("ensure admin: %w", err)
	}
	return &u, u.CreatedAt.Equal(now), nil
}
