// Package moderation is the review workflow for member-submitted content and
// registration applications: the pending queues, the one-way transition
// engine, the notifications each decision produces, and the overview counts.
//
// Storage is reached only through the ports declared here. The MongoDB stores
// under internal/app/store implement them in production and memstore
// implements them in tests.
package moderation

import (
	"context"
	"time"

	"github.com/dalemusser/memberhub/internal/app/registry"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContentStore reads and conditionally updates moderatable content.
type ContentStore interface {
	ListByStatus(ctx context.Context, e registry.Entry, status models.Status) ([]models.Moderatable, error)
	CountByStatus(ctx context.Context, e registry.Entry, status models.Status) (int64, error)
	GetByID(ctx context.Context, e registry.Entry, id primitive.ObjectID) (models.Moderatable, error)
	// CompareAndSetStatus applies tr only if the item is still in tr.From.
	// A miss is reported as (nil, false, nil).
	CompareAndSetStatus(ctx context.Context, e registry.Entry, id primitive.ObjectID, tr models.ContentTransition) (models.Moderatable, bool, error)
}

// UserStore reads and updates member accounts.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ListByStatus(ctx context.Context, status models.UserStatus) ([]models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	CountByStatus(ctx context.Context, status models.UserStatus) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	CompareAndSetStatus(ctx context.Context, id primitive.ObjectID, from, to models.UserStatus) (*models.User, bool, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.UserStatus) (*models.User, error)
}

// ProfileStore reads and updates registration profiles. A missing profile is
// (nil, nil), never an error.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error)
	GetByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]models.Profile, error)
	SetVerified(ctx context.Context, userID primitive.ObjectID, verified bool) (*models.Profile, error)
}

// NotificationStore persists member notifications.
type NotificationStore interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
}

// TxRunner runs fn as one unit of work and reports whether it was atomic.
// When atomic is false, writes made by fn before it failed are kept.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) (atomic bool, err error)
}

// Auditor records admin decisions. *auditlog.Logger implements it.
type Auditor interface {
	ContentReviewed(ctx context.Context, actorID, ownerID primitive.ObjectID, contentType string, itemID primitive.ObjectID, decision, decisionID string)
	ContentReopened(ctx context.Context, actorID, ownerID primitive.ObjectID, contentType string, itemID primitive.ObjectID)
	MemberReviewed(ctx context.Context, actorID, userID primitive.ObjectID, decision, decisionID, reason string)
	MemberReopened(ctx context.Context, actorID, userID primitive.ObjectID)
	VerificationUpdated(ctx context.Context, actorID, userID primitive.ObjectID, status string, verified bool)
}

// Clock supplies the time stamped on decisions.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type nopAuditor struct{}

func (nopAuditor) ContentReviewed(context.Context, primitive.ObjectID, primitive.ObjectID, string, primitive.ObjectID, string, string) {
}
func (nopAuditor) ContentReopened(context.Context, primitive.ObjectID, primitive.ObjectID, string, primitive.ObjectID) {
}
func (nopAuditor) MemberReviewed(context.Context, primitive.ObjectID, primitive.ObjectID, string, string, string) {
}
func (nopAuditor) MemberReopened(context.Context, primitive.ObjectID, primitive.ObjectID) {}
func (nopAuditor) VerificationUpdated(context.Context, primitive.ObjectID, primitive.ObjectID, string, bool) {
}
