package admin_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/memberhub/internal/app/features/admin"
	"github.com/dalemusser/memberhub/internal/app/moderation"
	"github.com/dalemusser/memberhub/internal/app/moderation/memstore"
	"github.com/dalemusser/memberhub/internal/app/registry"
	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type testEnv struct {
	db     *memstore.DB
	reg    *registry.Registry
	router http.Handler
	admin  testutil.TestUser
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := memstore.New()
	reg := registry.Default()
	svc := moderation.New(db.Deps(reg))

	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	r := chi.NewRouter()
	r.Mount("/admin", admin.Routes(admin.NewHandler(svc, zap.NewNop()), sm))

	return &testEnv{db: db, reg: reg, router: r, admin: testutil.AdminUser()}
}

func (e *testEnv) do(req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) post(path string, body any, user *testutil.TestUser) *testutil.ResponseRecorder {
	req := testutil.NewJSONRequest("POST", path, body)
	if user != nil {
		req = testutil.WithUser(req, *user)
	}
	return e.do(req)
}

func (e *testEnv) get(path string, user *testutil.TestUser) *testutil.ResponseRecorder {
	if user == nil {
		req := testutil.NewRequest("GET", path)
		req.Header.Set("Accept", "application/json")
		return e.do(req)
	}
	return e.do(testutil.NewAuthenticatedRequest("GET", path, *user))
}

func (e *testEnv) addBusiness(t *testing.T, name string, status models.Status) models.Moderatable {
	t.Helper()
	entry, err := e.reg.Lookup(registry.Business)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	item, err := e.db.AddContent(entry, &models.BusinessListing{
		ID:           primitive.NewObjectID(),
		OwnerID:      primitive.NewObjectID(),
		BusinessName: name,
		Moderation: models.Moderation{
			Status:      status,
			SubmittedAt: time.Now().Add(-time.Hour),
		},
	})
	if err != nil {
		t.Fatalf("AddContent failed: %v", err)
	}
	return item
}

func (e *testEnv) addMember(status models.UserStatus) models.User {
	u := e.db.AddUser(models.User{
		MobileNumber: "+15550123",
		Role:         models.RoleMember,
		Status:       status,
		CreatedAt:    time.Now().Add(-time.Hour),
	})
	e.db.AddProfile(models.Profile{UserID: u.ID, FullName: "Ada Obi"})
	return u
}

func TestReview_ApproveThenConflict(t *testing.T) {
	env := newTestEnv(t)
	item := env.addBusiness(t, "Acme Plumbing", models.StatusPending)
	body := map[string]string{"type": "business", "id": item.ItemID().Hex(), "status": "APPROVED"}

	rec := env.post("/admin/content/review", body, &env.admin)
	rec.AssertStatus(t, http.StatusOK)

	var got struct {
		Status      string     `json:"status"`
		PublishDate *time.Time `json:"publish_date"`
	}
	rec.DecodeJSON(t, &got)
	if got.Status != "APPROVED" {
		t.Errorf("status: got %q, want APPROVED", got.Status)
	}
	if got.PublishDate == nil {
		t.Error("expected publish_date to be set")
	}

	// A second submission of the same decision hits the state guard.
	rec = env.post("/admin/content/review", body, &env.admin)
	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, `"error"`)

	if n := len(env.db.NotificationsFor(item.OwnerRef())); n != 1 {
		t.Errorf("notifications: got %d, want 1", n)
	}
}

func TestReview_ErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	item := env.addBusiness(t, "Acme Plumbing", models.StatusPending)
	member := testutil.MemberUser()

	tests := []struct {
		name string
		body map[string]string
		user *testutil.TestUser
		want int
	}{
		{"unknown type", map[string]string{"type": "gadgets", "id": item.ItemID().Hex(), "status": "APPROVED"}, &env.admin, http.StatusNotFound},
		{"missing item", map[string]string{"type": "business", "id": primitive.NewObjectID().Hex(), "status": "APPROVED"}, &env.admin, http.StatusNotFound},
		{"bad decision", map[string]string{"type": "business", "id": item.ItemID().Hex(), "status": "PENDING"}, &env.admin, http.StatusBadRequest},
		{"bad id", map[string]string{"type": "business", "id": "xyz", "status": "APPROVED"}, &env.admin, http.StatusBadRequest},
		{"missing type", map[string]string{"id": item.ItemID().Hex(), "status": "APPROVED"}, &env.admin, http.StatusBadRequest},
		{"member caller", map[string]string{"type": "business", "id": item.ItemID().Hex(), "status": "APPROVED"}, &member, http.StatusForbidden},
		{"anonymous", map[string]string{"type": "business", "id": item.ItemID().Hex(), "status": "APPROVED"}, nil, http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.post("/admin/content/review", tc.body, tc.user)
			rec.AssertStatus(t, tc.want)
		})
	}

	// None of the failures above changed the item.
	rec := env.get("/admin/content/pending/business", &env.admin)
	rec.AssertStatus(t, http.StatusOK)
	var pending []map[string]any
	rec.DecodeJSON(t, &pending)
	if len(pending) != 1 {
		t.Errorf("pending: got %d items, want 1", len(pending))
	}
}

func TestReview_MalformedBody(t *testing.T) {
	env := newTestEnv(t)
	req := testutil.NewJSONRequest("POST", "/admin/content/review", nil)
	req = testutil.WithUser(req, env.admin)
	rec := env.do(req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestPending_UnknownType(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get("/admin/content/pending/gadgets", &env.admin)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestAllPending_KeyedByType(t *testing.T) {
	env := newTestEnv(t)
	env.addBusiness(t, "Acme Plumbing", models.StatusPending)
	env.addBusiness(t, "Old Mill", models.StatusApproved)

	rec := env.get("/admin/content/pending", &env.admin)
	rec.AssertStatus(t, http.StatusOK)

	var got map[string][]map[string]any
	rec.DecodeJSON(t, &got)
	if len(got["business"]) != 1 {
		t.Errorf("business: got %d items, want 1", len(got["business"]))
	}
	for _, typ := range env.reg.Types() {
		if _, ok := got[string(typ)]; !ok {
			t.Errorf("missing queue for %q", typ)
		}
	}
}

func TestReopen_RejectedItem(t *testing.T) {
	env := newTestEnv(t)
	item := env.addBusiness(t, "Acme Plumbing", models.StatusRejected)
	body := map[string]string{"type": "business", "id": item.ItemID().Hex()}

	rec := env.post("/admin/content/reopen", body, &env.admin)
	rec.AssertStatus(t, http.StatusOK)

	rec = env.post("/admin/content/reopen", body, &env.admin)
	rec.AssertStatus(t, http.StatusConflict)
}

func TestMembers_ApproveRejectReopen(t *testing.T) {
	env := newTestEnv(t)
	approved := env.addMember(models.UserPending)
	rejected := env.addMember(models.UserPending)

	rec := env.get("/admin/members/pending", &env.admin)
	rec.AssertStatus(t, http.StatusOK)
	var pending []models.UserWithProfile
	rec.DecodeJSON(t, &pending)
	if len(pending) != 2 {
		t.Fatalf("pending members: got %d, want 2", len(pending))
	}

	rec = env.post("/admin/members/approve", map[string]string{"userId": approved.ID.Hex()}, &env.admin)
	rec.AssertStatus(t, http.StatusOK)
	var res models.UserWithProfile
	rec.DecodeJSON(t, &res)
	if res.User.Status != models.UserActive {
		t.Errorf("status: got %q, want ACTIVE", res.User.Status)
	}
	if res.Profile == nil || !res.Profile.IsVerified {
		t.Error("expected approved profile to be verified")
	}

	rec = env.post("/admin/members/reject", map[string]string{"userId": rejected.ID.Hex(), "reason": "Incomplete address"}, &env.admin)
	rec.AssertStatus(t, http.StatusOK)

	notes := env.db.NotificationsFor(rejected.ID)
	if len(notes) != 1 {
		t.Fatalf("notifications: got %d, want 1", len(notes))
	}
	if want := "Reason: Incomplete address"; !strings.Contains(notes[0].Message, want) {
		t.Errorf("message %q does not contain %q", notes[0].Message, want)
	}

	rec = env.post("/admin/members/approve", map[string]string{"userId": approved.ID.Hex()}, &env.admin)
	rec.AssertStatus(t, http.StatusConflict)

	rec = env.post("/admin/members/reopen", map[string]string{"userId": rejected.ID.Hex()}, &env.admin)
	rec.AssertStatus(t, http.StatusOK)

	rec = env.post("/admin/members/approve", map[string]string{"userId": primitive.NewObjectID().Hex()}, &env.admin)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestUsers_VerifyAndList(t *testing.T) {
	env := newTestEnv(t)
	u := env.addMember(models.UserActive)

	rec := env.post("/admin/users/verify", map[string]any{"userId": u.ID.Hex(), "status": "ACTIVE", "isVerified": true}, &env.admin)
	rec.AssertStatus(t, http.StatusOK)

	rec = env.post("/admin/users/verify", map[string]any{"userId": u.ID.Hex(), "status": "ACTIVE"}, &env.admin)
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = env.post("/admin/users/verify", map[string]any{"userId": u.ID.Hex(), "status": "BANNED", "isVerified": false}, &env.admin)
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = env.get("/admin/users", &env.admin)
	rec.AssertStatus(t, http.StatusOK)
	var users []models.UserWithProfile
	rec.DecodeJSON(t, &users)
	if len(users) != 1 || users[0].Profile == nil || !users[0].Profile.IsVerified {
		t.Errorf("unexpected roster: %+v", users)
	}
}

func TestStats_ReflectsQueues(t *testing.T) {
	env := newTestEnv(t)
	env.addBusiness(t, "Acme Plumbing", models.StatusPending)
	env.addBusiness(t, "Bay Bakery", models.StatusPending)
	env.addMember(models.UserPending)

	rec := env.get("/admin/stats", &env.admin)
	rec.AssertStatus(t, http.StatusOK)

	var ov struct {
		Users struct {
			Total   int64 `json:"total"`
			Pending int64 `json:"pending"`
		} `json:"users"`
		Content      map[string]int64 `json:"content"`
		PendingTotal int64            `json:"pending_total"`
	}
	rec.DecodeJSON(t, &ov)
	if ov.Users.Pending != 1 || ov.Users.Total != 1 {
		t.Errorf("users: got %+v, want total=1 pending=1", ov.Users)
	}
	if ov.Content["business"] != 2 {
		t.Errorf("business pending: got %d, want 2", ov.Content["business"])
	}
	if ov.PendingTotal != 3 {
		t.Errorf("pending_total: got %d, want 3", ov.PendingTotal)
	}

	member := testutil.MemberUser()
	env.get("/admin/stats", &member).AssertStatus(t, http.StatusForbidden)
}
