package moderation_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/memberhub/internal/app/moderation"
	"github.com/dalemusser/memberhub/internal/app/moderation/memstore"
	"github.com/dalemusser/memberhub/internal/app/registry"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/domain/moderr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestReviewContent_ApproveStampsPublishDateAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := primitive.NewObjectID()
	item := f.addBusiness(t, "Acme Plumbing", owner, models.StatusPending, f.now.Add(-time.Hour))

	got, err := f.svc.Engine.ReviewContent(ctx, f.admin, registry.Business, item.ItemID(), models.StatusApproved)
	if err != nil {
		t.Fatalf("ReviewContent failed: %v", err)
	}

	m := got.ModerationState()
	if m.Status != models.StatusApproved {
		t.Errorf("Status: got %q, want %q", m.Status, models.StatusApproved)
	}
	if m.PublishDate == nil || !m.PublishDate.Equal(f.now) {
		t.Errorf("PublishDate: got %v, want %v", m.PublishDate, f.now)
	}
	if m.ReviewedBy == nil || *m.ReviewedBy != f.admin.ID {
		t.Errorf("ReviewedBy: got %v, want %v", m.ReviewedBy, f.admin.ID)
	}
	if m.DecisionID == "" {
		t.Error("expected DecisionID to be set")
	}

	notes := f.db.Notifications()
	if len(notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notes))
	}
	n := notes[0]
	if n.UserID != owner {
		t.Errorf("UserID: got %v, want %v", n.UserID, owner)
	}
	if n.Type != models.NotificationSuccess {
		t.Errorf("Type: got %q, want %q", n.Type, models.NotificationSuccess)
	}
	if !strings.Contains(n.Message, "Acme Plumbing") {
		t.Errorf("Message %q should contain the business name", n.Message)
	}
	if n.DecisionID != m.DecisionID {
		t.Errorf("notification DecisionID %q does not match item %q", n.DecisionID, m.DecisionID)
	}

	calls := f.audit.Calls()
	if len(calls) != 1 || calls[0].kind != "content_reviewed" || calls[0].decision != "APPROVED" {
		t.Errorf("unexpected audit calls: %+v", calls)
	}
}

func TestReviewContent_RejectLeavesPublishDateNil(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := primitive.NewObjectID()
	item := f.addEvent(t, "Spring Picnic", owner, models.StatusPending)

	got, err := f.svc.Engine.ReviewContent(ctx, f.admin, registry.Events, item.ItemID(), models.StatusRejected)
	if err != nil {
		t.Fatalf("ReviewContent failed: %v", err)
	}
	if got.ModerationState().Status != models.StatusRejected {
		t.Errorf("Status: got %q, want REJECTED", got.ModerationState().Status)
	}
	if got.ModerationState().PublishDate != nil {
		t.Errorf("PublishDate should stay nil on rejection, got %v", got.ModerationState().PublishDate)
	}

	notes := f.db.NotificationsFor(owner)
	if len(notes) != 1 || notes[0].Type != models.NotificationWarning {
		t.Fatalf("expected one WARNING notification, got %+v", notes)
	}
	if !strings.Contains(notes[0].Message, "Spring Picnic") {
		t.Errorf("Message %q should contain the event title", notes[0].Message)
	}
}

func TestReviewContent_SecondReviewFailsAndLeavesItemUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.addBusiness(t, "Acme", primitive.NewObjectID(), models.StatusPending, f.now)

	first, err := f.svc.Engine.ReviewContent(ctx, f.admin, registry.Business, item.ItemID(), models.StatusApproved)
	if err != nil {
		t.Fatalf("first ReviewContent failed: %v", err)
	}

	for _, decision := range []models.Status{models.StatusApproved, models.StatusRejected} {
		_, err := f.svc.Engine.ReviewContent(ctx, f.admin, registry.Business, item.ItemID(), decision)
		if !moderr.IsInvalidState(err) {
			t.Fatalf("%s after approval: expected InvalidStateError, got %v", decision, err)
		}
	}

	cur := f.getContent(t, registry.Business, item.ItemID()).ModerationState()
	if cur.Status != models.StatusApproved {
		t.Errorf("Status changed to %q", cur.Status)
	}
	if !cur.PublishDate.Equal(*first.ModerationState().PublishDate) {
		t.Errorf("PublishDate overwritten: got %v, want %v", cur.PublishDate, first.ModerationState().PublishDate)
	}
	if cur.DecisionID != first.ModerationState().DecisionID {
		t.Error("DecisionID overwritten")
	}
	if n := len(f.db.Notifications()); n != 1 {
		t.Errorf("expected exactly 1 notification, got %d", n)
	}
}

func TestReviewContent_ConcurrentDoubleSubmit(t *testing.T) {
	for _, atomic := range []bool{true, false} {
		name := "transactional"
		if !atomic {
			name = "standalone"
		}
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.db.SetAtomic(atomic)
			item := f.addBusiness(t, "Race Condition Cafe", primitive.NewObjectID(), models.StatusPending, f.now)

			const attempts = 2
			var (
				wg      sync.WaitGroup
				start   = make(chan struct{})
				errs    = make([]error, attempts)
				decides = []models.Status{models.StatusApproved, models.StatusRejected}
			)
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					<-start
					_, errs[i] = f.svc.Engine.ReviewContent(context.Background(), f.admin, registry.Business, item.ItemID(), decides[i])
				}(i)
			}
			close(start)
			wg.Wait()

			var ok, invalid int
			for _, err := range errs {
				switch {
				case err == nil:
					ok++
				case moderr.IsInvalidState(err):
					invalid++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}
			if ok != 1 || invalid != 1 {
				t.Errorf("expected 1 success and 1 InvalidStateError, got %d and %d", ok, invalid)
			}
			if n := len(f.db.Notifications()); n != 1 {
				t.Errorf("expected exactly 1 notification, got %d", n)
			}
		})
	}
}

func TestReviewContent_NotificationFailureKeepsDecision(t *testing.T) {
	for _, atomic := range []bool{true, false} {
		name := "transactional"
		if !atomic {
			name = "standalone"
		}
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.db.SetAtomic(atomic)
			f.db.FailNotifications(memstore.ErrNotificationsDown)
			item := f.addBusiness(t, "Acme", primitive.NewObjectID(), models.StatusPending, f.now)

			got, err := f.svc.Engine.ReviewContent(context.Background(), f.admin, registry.Business, item.ItemID(), models.StatusApproved)
			if err != nil {
				t.Fatalf("ReviewContent should succeed when notification fails, got %v", err)
			}
			if got.ModerationState().Status != models.StatusApproved {
				t.Errorf("Status: got %q, want APPROVED", got.ModerationState().Status)
			}

			cur := f.getContent(t, registry.Business, item.ItemID()).ModerationState()
			if cur.Status != models.StatusApproved || cur.PublishDate == nil {
				t.Errorf("decision not persisted: %+v", cur)
			}
			if n := len(f.db.Notifications()); n != 0 {
				t.Errorf("expected no notifications, got %d", n)
			}

			// Resubmitting is rejected and still creates nothing.
			f.db.FailNotifications(nil)
			_, err = f.svc.Engine.ReviewContent(context.Background(), f.admin, registry.Business, item.ItemID(), models.StatusApproved)
			if !moderr.IsInvalidState(err) {
				t.Errorf("expected InvalidStateError on resubmit, got %v", err)
			}
			if n := len(f.db.Notifications()); n != 0 {
				t.Errorf("expected no notifications after resubmit, got %d", n)
			}
		})
	}
}

func TestReviewContent_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.addBusiness(t, "Acme", primitive.NewObjectID(), models.StatusPending, f.now)

	tests := []struct {
		name     string
		caller   moderation.Caller
		typ      registry.Type
		id       primitive.ObjectID
		decision models.Status
		check    func(error) bool
	}{
		{"anonymous", moderation.Caller{}, registry.Business, item.ItemID(), models.StatusApproved, moderr.IsPermission},
		{"member", moderation.Caller{ID: primitive.NewObjectID(), Role: models.RoleMember}, registry.Business, item.ItemID(), models.StatusApproved, moderr.IsPermission},
		{"admin role without id", moderation.Caller{Role: models.RoleAdmin}, registry.Business, item.ItemID(), models.StatusApproved, moderr.IsPermission},
		{"unknown type", f.admin, registry.Type("recipes"), item.ItemID(), models.StatusApproved, moderr.IsUnknownType},
		{"missing item", f.admin, registry.Business, primitive.NewObjectID(), models.StatusApproved, moderr.IsNotFound},
		{"wrong type for id", f.admin, registry.Career, item.ItemID(), models.StatusApproved, moderr.IsNotFound},
		{"pending is not a decision", f.admin, registry.Business, item.ItemID(), models.StatusPending, moderr.IsInvalidInput},
		{"garbage decision", f.admin, registry.Business, item.ItemID(), models.Status("MAYBE"), moderr.IsInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Engine.ReviewContent(ctx, tc.caller, tc.typ, tc.id, tc.decision)
			if !tc.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	if cur := f.getContent(t, registry.Business, item.ItemID()).ModerationState(); cur.Status != models.StatusPending {
		t.Errorf("failed calls changed status to %q", cur.Status)
	}
	if n := len(f.db.Notifications()); n != 0 {
		t.Errorf("failed calls created %d notifications", n)
	}
}

func TestReopenContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rejected := f.addBusiness(t, "Rejected Co", primitive.NewObjectID(), models.StatusPending, f.now)
	approved := f.addBusiness(t, "Approved Co", primitive.NewObjectID(), models.StatusPending, f.now)

	if _, err := f.svc.Engine.ReviewContent(ctx, f.admin, registry.Business, rejected.ItemID(), models.StatusRejected); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if _, err := f.svc.Engine.ReviewContent(ctx, f.admin, registry.Business, approved.ItemID(), models.StatusApproved); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	notesBefore := len(f.db.Notifications())

	member := moderation.Caller{ID: primitive.NewObjectID(), Role: models.RoleMember}
	if _, err := f.svc.Engine.ReopenContent(ctx, member, registry.Business, rejected.ItemID()); !moderr.IsPermission(err) {
		t.Errorf("member reopen: expected PermissionError, got %v", err)
	}

	got, err := f.svc.Engine.ReopenContent(ctx, f.admin, registry.Business, rejected.ItemID())
	if err != nil {
		t.Fatalf("ReopenContent failed: %v", err)
	}
	m := got.ModerationState()
	if m.Status != models.StatusPending {
		t.Errorf("Status: got %q, want PENDING", m.Status)
	}
	if m.ReviewedBy != nil || m.ReviewedAt != nil || m.DecisionID != "" {
		t.Errorf("review fields not cleared: %+v", m)
	}

	if _, err := f.svc.Engine.ReopenContent(ctx, f.admin, registry.Business, approved.ItemID()); !moderr.IsInvalidState(err) {
		t.Errorf("reopen approved: expected InvalidStateError, got %v", err)
	}
	if _, err := f.svc.Engine.ReopenContent(ctx, f.admin, registry.Business, rejected.ItemID()); !moderr.IsInvalidState(err) {
		t.Errorf("reopen pending: expected InvalidStateError, got %v", err)
	}
	if n := len(f.db.Notifications()); n != notesBefore {
		t.Errorf("reopen created notifications: before %d, after %d", notesBefore, n)
	}

	// The reopened item can be reviewed again.
	if _, err := f.svc.Engine.ReviewContent(ctx, f.admin, registry.Business, rejected.ItemID(), models.StatusApproved); err != nil {
		t.Errorf("review after reopen failed: %v", err)
	}
}

func TestReviewMember_ApproveSetsVerified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addMember(t, "Dana Scully", models.UserPending, f.now.Add(-time.Hour))

	got, err := f.svc.Engine.ReviewMember(ctx, f.admin, u.ID, models.UserActive, true, "")
	if err != nil {
		t.Fatalf("ReviewMember failed: %v", err)
	}
	if got.User.Status != models.UserActive {
		t.Errorf("Status: got %q, want ACTIVE", got.User.Status)
	}
	if got.Profile == nil || !got.Profile.IsVerified {
		t.Errorf("expected verified profile, got %+v", got.Profile)
	}

	notes := f.db.NotificationsFor(u.ID)
	if len(notes) != 1 || notes[0].Type != models.NotificationSuccess {
		t.Fatalf("expected one SUCCESS notification, got %+v", notes)
	}
	if notes[0].SourceType != moderation.SourceMember {
		t.Errorf("SourceType: got %q, want %q", notes[0].SourceType, moderation.SourceMember)
	}
}

func TestReviewMember_RejectCarriesReasonOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addMember(t, "Fox Mulder", models.UserPending, f.now.Add(-time.Hour))

	got, err := f.svc.Engine.ReviewMember(ctx, f.admin, u.ID, models.UserRejected, false, "incomplete profile")
	if err != nil {
		t.Fatalf("ReviewMember failed: %v", err)
	}
	if got.User.Status != models.UserRejected {
		t.Errorf("Status: got %q, want REJECTED", got.User.Status)
	}

	p, _ := f.db.Profiles().GetByUserID(ctx, u.ID)
	if p == nil || p.IsVerified {
		t.Errorf("profile verification should be unchanged, got %+v", p)
	}

	notes := f.db.NotificationsFor(u.ID)
	if len(notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notes))
	}
	if notes[0].Type != models.NotificationWarning {
		t.Errorf("Type: got %q, want WARNING", notes[0].Type)
	}
	if !strings.Contains(notes[0].Message, "incomplete profile") {
		t.Errorf("Message %q should contain the reason", notes[0].Message)
	}
}

func TestReviewMember_RejectReasonIsSanitized(t *testing.T) {
	f := newFixture(t)
	u := f.addMember(t, "Walter Skinner", models.UserPending, f.now)

	_, err := f.svc.Engine.ReviewMember(context.Background(), f.admin, u.ID, models.UserRejected, false, `<script>alert(1)</script><b>missing</b> address`)
	if err != nil {
		t.Fatalf("ReviewMember failed: %v", err)
	}
	msg := f.db.NotificationsFor(u.ID)[0].Message
	if strings.Contains(msg, "<") || strings.Contains(msg, "alert") {
		t.Errorf("reason not sanitized: %q", msg)
	}
	if !strings.Contains(msg, "missing address") {
		t.Errorf("reason text lost: %q", msg)
	}
}

func TestReviewMember_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending := f.addMember(t, "Pending Person", models.UserPending, f.now)
	active := f.addMember(t, "Active Person", models.UserActive, f.now)

	if _, err := f.svc.Engine.ReviewMember(ctx, moderation.Caller{}, pending.ID, models.UserActive, true, ""); !moderr.IsPermission(err) {
		t.Errorf("anonymous: expected PermissionError, got %v", err)
	}
	if _, err := f.svc.Engine.ReviewMember(ctx, f.admin, primitive.NewObjectID(), models.UserActive, true, ""); !moderr.IsNotFound(err) {
		t.Errorf("missing: expected NotFoundError, got %v", err)
	}
	if _, err := f.svc.Engine.ReviewMember(ctx, f.admin, active.ID, models.UserRejected, false, ""); !moderr.IsInvalidState(err) {
		t.Errorf("active: expected InvalidStateError, got %v", err)
	}
	if _, err := f.svc.Engine.ReviewMember(ctx, f.admin, pending.ID, models.UserPending, false, ""); !moderr.IsInvalidInput(err) {
		t.Errorf("pending decision: expected InvalidInputError, got %v", err)
	}
	if n := len(f.db.Notifications()); n != 0 {
		t.Errorf("failed calls created %d notifications", n)
	}
}

func TestReviewMember_WithoutProfile(t *testing.T) {
	f := newFixture(t)
	u := f.addMember(t, "", models.UserPending, f.now)

	got, err := f.svc.Engine.ReviewMember(context.Background(), f.admin, u.ID, models.UserActive, true, "")
	if err != nil {
		t.Fatalf("ReviewMember failed: %v", err)
	}
	if got.Profile != nil {
		t.Errorf("expected nil profile, got %+v", got.Profile)
	}
	if got.User.Status != models.UserActive {
		t.Errorf("Status: got %q, want ACTIVE", got.User.Status)
	}
}

func TestReviewMember_NotificationFailureKeepsDecision(t *testing.T) {
	f := newFixture(t)
	f.db.FailNotifications(memstore.ErrNotificationsDown)
	u := f.addMember(t, "Monica Reyes", models.UserPending, f.now)

	got, err := f.svc.Engine.ReviewMember(context.Background(), f.admin, u.ID, models.UserActive, true, "")
	if err != nil {
		t.Fatalf("ReviewMember failed: %v", err)
	}
	if got.Profile == nil || !got.Profile.IsVerified {
		t.Errorf("profile flag not persisted: %+v", got.Profile)
	}

	cur, err := f.db.Users().GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if cur.Status != models.UserActive {
		t.Errorf("Status: got %q, want ACTIVE", cur.Status)
	}
	p, _ := f.db.Profiles().GetByUserID(context.Background(), u.ID)
	if p == nil || !p.IsVerified {
		t.Errorf("stored profile not verified: %+v", p)
	}
}

func TestReviewMember_ConcurrentDoubleSubmit(t *testing.T) {
	f := newFixture(t)
	u := f.addMember(t, "John Doggett", models.UserPending, f.now)

	const attempts = 4
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		wins  int
		start = make(chan struct{})
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.Engine.ReviewMember(context.Background(), f.admin, u.ID, models.UserActive, true, "")
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !moderr.IsInvalidState(err) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one success, got %d", wins)
	}
	if n := len(f.db.NotificationsFor(u.ID)); n != 1 {
		t.Errorf("expected exactly 1 notification, got %d", n)
	}
}

func TestReopenMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addMember(t, "Jeffrey Spender", models.UserPending, f.now)

	if _, err := f.svc.Engine.ReopenMember(ctx, f.admin, u.ID); !moderr.IsInvalidState(err) {
		t.Errorf("reopen pending: expected InvalidStateError, got %v", err)
	}
	if _, err := f.svc.Engine.ReviewMember(ctx, f.admin, u.ID, models.UserRejected, false, "duplicate"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	got, err := f.svc.Engine.ReopenMember(ctx, f.admin, u.ID)
	if err != nil {
		t.Fatalf("ReopenMember failed: %v", err)
	}
	if got.Status != models.UserPending {
		t.Errorf("Status: got %q, want PENDING", got.Status)
	}
	if n := len(f.db.NotificationsFor(u.ID)); n != 1 {
		t.Errorf("reopen should not notify; got %d notifications", n)
	}
	if _, err := f.svc.Engine.ReopenMember(ctx, f.admin, primitive.NewObjectID()); !moderr.IsNotFound(err) {
		t.Errorf("missing: expected NotFoundError, got %v", err)
	}
}

func TestVerifyActiveUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addMember(t, "Alex Krycek", models.UserActive, f.now)

	got, err := f.svc.Engine.VerifyActiveUser(ctx, f.admin, u.ID, models.UserActive, true)
	if err != nil {
		t.Fatalf("VerifyActiveUser failed: %v", err)
	}
	if got.Profile == nil || !got.Profile.IsVerified {
		t.Errorf("expected verified profile, got %+v", got.Profile)
	}

	// Works from any status and never notifies.
	got, err = f.svc.Engine.VerifyActiveUser(ctx, f.admin, u.ID, models.UserRejected, false)
	if err != nil {
		t.Fatalf("VerifyActiveUser failed: %v", err)
	}
	if got.User.Status != models.UserRejected || got.Profile.IsVerified {
		t.Errorf("unexpected result: %+v / %+v", got.User, got.Profile)
	}
	if n := len(f.db.Notifications()); n != 0 {
		t.Errorf("VerifyActiveUser created %d notifications", n)
	}

	if _, err := f.svc.Engine.VerifyActiveUser(ctx, f.admin, primitive.NewObjectID(), models.UserActive, true); !moderr.IsNotFound(err) {
		t.Errorf("missing: expected NotFoundError, got %v", err)
	}
	if _, err := f.svc.Engine.VerifyActiveUser(ctx, f.admin, u.ID, models.UserStatus("BANNED"), true); !moderr.IsInvalidInput(err) {
		t.Errorf("bad status: expected InvalidInputError, got %v", err)
	}
	if _, err := f.svc.Engine.VerifyActiveUser(ctx, moderation.Caller{ID: u.ID, Role: models.RoleMember}, u.ID, models.UserActive, true); !moderr.IsPermission(err) {
		t.Errorf("member: expected PermissionError, got %v", err)
	}

	calls := f.audit.Calls()
	if len(calls) != 2 || calls[0].kind != "verification_updated" {
		t.Errorf("unexpected audit calls: %+v", calls)
	}
}
