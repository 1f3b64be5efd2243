package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with the given role and status.
func (f *Fixtures) CreateUser(ctx context.Context, mobile string, role models.Role, status models.UserStatus) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		MobileNumber: mobile,
		Role:         role,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreatePendingMember inserts a PENDING member together with a profile.
func (f *Fixtures) CreatePendingMember(ctx context.Context, mobile, fullName string) (models.User, models.Profile) {
	f.t.Helper()
	u := f.CreateUser(ctx, mobile, models.RoleMember, models.UserPending)
	p := f.CreateProfile(ctx, u.ID, fullName)
	return u, p
}

// CreateProfile inserts an unverified profile for userID.
func (f *Fixtures) CreateProfile(ctx context.Context, userID primitive.ObjectID, fullName string) models.Profile {
	f.t.Helper()

	p := models.Profile{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		FullName:    fullName,
		FullNameCI:  text.Fold(fullName),
		Email:       userID.Hex() + "@example.com",
		Address:     "1 Main St",
		City:        "Test City",
		State:       "TS",
		SubmittedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("profiles").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

// CreateBusinessListing inserts a business listing with the given status,
// submitted at the given time.
func (f *Fixtures) CreateBusinessListing(ctx context.Context, name string, owner primitive.ObjectID, status models.Status, submitted time.Time) models.BusinessListing {
	f.t.Helper()

	b := models.BusinessListing{
		ID:           primitive.NewObjectID(),
		OwnerID:      owner,
		BusinessName: name,
		Category:     "Services",
		Description:  "Test listing",
		Moderation: models.Moderation{
			Status:      status,
			Visibility:  models.VisibilityMembers,
			SubmittedAt: submitted.UTC(),
		},
	}

	if _, err := f.db.Collection("business_listings").InsertOne(ctx, b); err != nil {
		f.t.Fatalf("failed to create test business listing: %v", err)
	}
	return b
}

// CreateEvent inserts an event with the given status.
func (f *Fixtures) CreateEvent(ctx context.Context, title string, owner primitive.ObjectID, status models.Status) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	e := models.Event{
		ID:       primitive.NewObjectID(),
		OwnerID:  owner,
		Title:    title,
		StartsAt: now.Add(72 * time.Hour),
		Moderation: models.Moderation{
			Status:      status,
			Visibility:  models.VisibilityPublic,
			SubmittedAt: now,
		},
	}

	if _, err := f.db.Collection("events").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return e
}
