package moderation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/memberhub/internal/app/moderation"
	"github.com/dalemusser/memberhub/internal/app/moderation/memstore"
	"github.com/dalemusser/memberhub/internal/app/registry"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type auditCall struct {
	kind     string
	actor    primitive.ObjectID
	subject  primitive.ObjectID
	decision string
}

type recordingAuditor struct {
	mu    sync.Mutex
	calls []auditCall
}

func (a *recordingAuditor) add(c auditCall) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, c)
}

func (a *recordingAuditor) ContentReviewed(_ context.Context, actorID, _ primitive.ObjectID, _ string, itemID primitive.ObjectID, decision, _ string) {
	a.add(auditCall{kind: "content_reviewed", actor: actorID, subject: itemID, decision: decision})
}

func (a *recordingAuditor) ContentReopened(_ context.Context, actorID, _ primitive.ObjectID, _ string, itemID primitive.ObjectID) {
	a.add(auditCall{kind: "content_reopened", actor: actorID, subject: itemID})
}

func (a *recordingAuditor) MemberReviewed(_ context.Context, actorID, userID primitive.ObjectID, decision, _, _ string) {
	a.add(auditCall{kind: "member_reviewed", actor: actorID, subject: userID, decision: decision})
}

func (a *recordingAuditor) MemberReopened(_ context.Context, actorID, userID primitive.ObjectID) {
	a.add(auditCall{kind: "member_reopened", actor: actorID, subject: userID})
}

func (a *recordingAuditor) VerificationUpdated(_ context.Context, actorID, userID primitive.ObjectID, status string, _ bool) {
	a.add(auditCall{kind: "verification_updated", actor: actorID, subject: userID, decision: status})
}

func (a *recordingAuditor) Calls() []auditCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]auditCall(nil), a.calls...)
}

type fixture struct {
	db    *memstore.DB
	reg   *registry.Registry
	svc   *moderation.Service
	audit *recordingAuditor
	admin moderation.Caller
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memstore.New()
	reg := registry.Default()
	audit := &recordingAuditor{}
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	deps := db.Deps(reg)
	deps.Audit = audit
	deps.Clock = fixedClock{t: now}

	return &fixture{
		db:    db,
		reg:   reg,
		svc:   moderation.New(deps),
		audit: audit,
		admin: moderation.Caller{ID: primitive.NewObjectID(), Role: models.RoleAdmin},
		now:   now,
	}
}

func (f *fixture) entry(t *testing.T, typ registry.Type) registry.Entry {
	t.Helper()
	e, err := f.reg.Lookup(typ)
	if err != nil {
		t.Fatalf("Lookup(%q) failed: %v", typ, err)
	}
	return e
}

func (f *fixture) addBusiness(t *testing.T, name string, owner primitive.ObjectID, status models.Status, submitted time.Time) models.Moderatable {
	t.Helper()
	item, err := f.db.AddContent(f.entry(t, registry.Business), &models.BusinessListing{
		ID:           primitive.NewObjectID(),
		OwnerID:      owner,
		BusinessName: name,
		Category:     "Services",
		Moderation: models.Moderation{
			Status:      status,
			Visibility:  models.VisibilityMembers,
			SubmittedAt: submitted,
		},
	})
	if err != nil {
		t.Fatalf("AddContent failed: %v", err)
	}
	return item
}

func (f *fixture) addEvent(t *testing.T, title string, owner primitive.ObjectID, status models.Status) models.Moderatable {
	t.Helper()
	item, err := f.db.AddContent(f.entry(t, registry.Events), &models.Event{
		ID:       primitive.NewObjectID(),
		OwnerID:  owner,
		Title:    title,
		StartsAt: f.now.Add(48 * time.Hour),
		Moderation: models.Moderation{
			Status:      status,
			Visibility:  models.VisibilityPublic,
			SubmittedAt: f.now.Add(-time.Hour),
		},
	})
	if err != nil {
		t.Fatalf("AddContent failed: %v", err)
	}
	return item
}

func (f *fixture) addMember(t *testing.T, fullName string, status models.UserStatus, created time.Time) models.User {
	t.Helper()
	u := f.db.AddUser(models.User{
		MobileNumber: "+1555" + primitive.NewObjectID().Hex()[18:],
		Role:         models.RoleMember,
		Status:       status,
		CreatedAt:    created,
	})
	if fullName != "" {
		f.db.AddProfile(models.Profile{
			UserID:      u.ID,
			FullName:    fullName,
			Email:       "member@example.com",
			SubmittedAt: created,
		})
	}
	return u
}

func (f *fixture) getContent(t *testing.T, typ registry.Type, id primitive.ObjectID) models.Moderatable {
	t.Helper()
	item, err := f.db.Content().GetByID(context.Background(), f.entry(t, typ), id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	return item
}
