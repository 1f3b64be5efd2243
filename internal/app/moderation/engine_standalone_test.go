package moderation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/memberhub/internal/app/moderation"
	"github.com/dalemusser/memberhub/internal/app/moderation/memstore"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errProfilesDown = errors.New("profiles down")

// flakyProfiles fails every profile read and write while down is set.
type flakyProfiles struct {
	*memstore.ProfileStore
	down bool
}

func (p *flakyProfiles) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	if p.down {
		return nil, errProfilesDown
	}
	return p.ProfileStore.GetByUserID(ctx, userID)
}

func (p *flakyProfiles) SetVerified(ctx context.Context, userID primitive.ObjectID, verified bool) (*models.Profile, error) {
	if p.down {
		return nil, errProfilesDown
	}
	return p.ProfileStore.SetVerified(ctx, userID, verified)
}

// withFlakyProfiles rebuilds f.svc over a profile store that starts out down.
func withFlakyProfiles(f *fixture, atomic bool) *flakyProfiles {
	profiles := &flakyProfiles{ProfileStore: f.db.Profiles(), down: true}
	deps := f.db.Deps(f.reg)
	deps.Profiles = profiles
	deps.Audit = f.audit
	deps.Clock = fixedClock{t: f.now}
	f.svc = moderation.New(deps)
	f.db.SetAtomic(atomic)
	return profiles
}

func (f *fixture) userStatus(t *testing.T, id primitive.ObjectID) models.UserStatus {
	t.Helper()
	u, err := f.db.Users().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	return u.Status
}

func TestReviewMember_Standalone_ProfileFailureLeavesPending(t *testing.T) {
	tests := []struct {
		name     string
		decision models.UserStatus
		verified bool
	}{
		{"approve", models.UserActive, true},
		{"reject", models.UserRejected, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			profiles := withFlakyProfiles(f, false)
			ctx := context.Background()
			u := f.addMember(t, "Walter Skinner", models.UserPending, f.now)

			if _, err := f.svc.Engine.ReviewMember(ctx, f.admin, u.ID, tc.decision, tc.verified, ""); !errors.Is(err, errProfilesDown) {
				t.Fatalf("expected profile error, got %v", err)
			}
			if got := f.userStatus(t, u.ID); got != models.UserPending {
				t.Errorf("Status after failure: got %q, want PENDING", got)
			}
			if n := len(f.db.NotificationsFor(u.ID)); n != 0 {
				t.Errorf("notifications after failure: got %d, want 0", n)
			}

			// The decision can be resubmitted once the profile store recovers.
			profiles.down = false
			if _, err := f.svc.Engine.ReviewMember(ctx, f.admin, u.ID, tc.decision, tc.verified, ""); err != nil {
				t.Fatalf("resubmit failed: %v", err)
			}
			if got := f.userStatus(t, u.ID); got != tc.decision {
				t.Errorf("Status after resubmit: got %q, want %q", got, tc.decision)
			}
			if n := len(f.db.NotificationsFor(u.ID)); n != 1 {
				t.Errorf("notifications after resubmit: got %d, want 1", n)
			}
		})
	}
}

func TestReviewMember_Atomic_ProfileFailureLeavesPending(t *testing.T) {
	f := newFixture(t)
	withFlakyProfiles(f, true)
	u := f.addMember(t, "Marita Covarrubias", models.UserPending, f.now)

	if _, err := f.svc.Engine.ReviewMember(context.Background(), f.admin, u.ID, models.UserActive, true, ""); !errors.Is(err, errProfilesDown) {
		t.Fatalf("expected profile error, got %v", err)
	}
	if got := f.userStatus(t, u.ID); got != models.UserPending {
		t.Errorf("Status: got %q, want PENDING", got)
	}
	if n := len(f.db.NotificationsFor(u.ID)); n != 0 {
		t.Errorf("notifications: got %d, want 0", n)
	}
}

func TestVerifyActiveUser_Standalone_ProfileFailureRestoresStatus(t *testing.T) {
	f := newFixture(t)
	profiles := withFlakyProfiles(f, false)
	ctx := context.Background()
	u := f.addMember(t, "Gibson Praise", models.UserActive, f.now)

	if _, err := f.svc.Engine.VerifyActiveUser(ctx, f.admin, u.ID, models.UserRejected, true); !errors.Is(err, errProfilesDown) {
		t.Fatalf("expected profile error, got %v", err)
	}
	if got := f.userStatus(t, u.ID); got != models.UserActive {
		t.Errorf("Status: got %q, want ACTIVE", got)
	}

	profiles.down = false
	p, err := f.db.Profiles().GetByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if p == nil || p.IsVerified {
		t.Errorf("profile flag changed: %+v", p)
	}
	if calls := f.audit.Calls(); len(calls) != 0 {
		t.Errorf("failed update was audited: %+v", calls)
	}
}
