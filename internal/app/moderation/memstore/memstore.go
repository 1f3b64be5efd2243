// Package memstore is an in-memory implementation of the moderation ports,
// used by tests of the moderation core and the HTTP feature.
//
// Values are copied on the way in and out, so callers never share memory with
// the store. Tx serializes units of work and rolls back on error, which is
// how a MongoDB replica-set transaction behaves for a single document set.
package memstore

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/memberhub/internal/app/moderation"
	"github.com/dalemusser/memberhub/internal/app/registry"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/domain/moderr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotificationsDown is a ready-made error for FailNotifications.
var ErrNotificationsDown = errors.New("notification store unavailable")

// DB holds all collections.
type DB struct {
	mu            sync.RWMutex
	content       map[registry.Type]map[primitive.ObjectID]models.Moderatable
	users         map[primitive.ObjectID]models.User
	profiles      map[primitive.ObjectID]models.Profile // keyed by user id
	notifications []models.Notification
	notifyErr     error

	txMu   sync.Mutex
	atomic bool
}

// New returns an empty DB whose Tx runs atomically.
func New() *DB {
	return &DB{
		content:  make(map[registry.Type]map[primitive.ObjectID]models.Moderatable),
		users:    make(map[primitive.ObjectID]models.User),
		profiles: make(map[primitive.ObjectID]models.Profile),
		atomic:   true,
	}
}

// SetAtomic switches Tx between transactional and direct execution, the
// latter standing in for a standalone MongoDB server.
func (db *DB) SetAtomic(atomic bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.atomic = atomic
}

// FailNotifications makes every later notification insert return err.
// Pass nil to restore normal behavior.
func (db *DB) FailNotifications(err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.notifyErr = err
}

// Content returns the ContentStore view.
func (db *DB) Content() *ContentStore { return &ContentStore{db: db} }

// Users returns the UserStore view.
func (db *DB) Users() *UserStore { return &UserStore{db: db} }

// Profiles returns the ProfileStore view.
func (db *DB) Profiles() *ProfileStore { return &ProfileStore{db: db} }

// NotificationStore returns the NotificationStore view.
func (db *DB) NotificationStore() *NotificationStore { return &NotificationStore{db: db} }

// Tx returns the TxRunner view.
func (db *DB) Tx() *Tx { return &Tx{db: db} }

// Deps returns moderation.Deps wired to this DB.
func (db *DB) Deps(reg *registry.Registry) moderation.Deps {
	return moderation.Deps{
		Registry:      reg,
		Content:       db.Content(),
		Users:         db.Users(),
		Profiles:      db.Profiles(),
		Notifications: db.NotificationStore(),
		Tx:            db.Tx(),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Seeding and inspection                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// AddContent stores a copy of item under e. A zero ID is assigned.
func (db *DB) AddContent(e registry.Entry, item models.Moderatable) (models.Moderatable, error) {
	c, err := clone(e, item)
	if err != nil {
		return nil, err
	}
	if c.ItemID().IsZero() {
		raw, _ := bson.Marshal(c)
		var doc bson.M
		_ = bson.Unmarshal(raw, &doc)
		doc["_id"] = primitive.NewObjectID()
		raw, err = bson.Marshal(doc)
		if err != nil {
			return nil, err
		}
		c = e.New()
		if err := bson.Unmarshal(raw, c); err != nil {
			return nil, err
		}
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	m, ok := db.content[e.Type]
	if !ok {
		m = make(map[primitive.ObjectID]models.Moderatable)
		db.content[e.Type] = m
	}
	m[c.ItemID()] = c
	return clone(e, c)
}

// AddUser stores u. A zero ID or CreatedAt is filled in.
func (db *DB) AddUser(u models.User) models.User {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[u.ID] = u
	return u
}

// AddProfile stores p, replacing any profile of the same user.
func (db *DB) AddProfile(p models.Profile) models.Profile {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.profiles[p.UserID] = p
	return p
}

// Notifications returns every stored notification in insertion order.
func (db *DB) Notifications() []models.Notification {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]models.Notification(nil), db.notifications...)
}

// NotificationsFor returns the notifications addressed to userID.
func (db *DB) NotificationsFor(userID primitive.ObjectID) []models.Notification {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var out []models.Notification
	for _, n := range db.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func clone(e registry.Entry, item models.Moderatable) (models.Moderatable, error) {
	raw, err := bson.Marshal(item)
	if err != nil {
		return nil, err
	}
	out := e.New()
	if err := bson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

func lessID(a, b primitive.ObjectID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

/*─────────────────────────────────────────────────────────────────────────────*
| Tx                                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

type snapshot struct {
	content       map[registry.Type]map[primitive.ObjectID]models.Moderatable
	users         map[primitive.ObjectID]models.User
	profiles      map[primitive.ObjectID]models.Profile
	notifications []models.Notification
}

// Tx implements moderation.TxRunner.
type Tx struct{ db *DB }

// Run executes fn. In atomic mode runs are serialized and fn's writes are
// discarded if it returns an error.
func (t *Tx) Run(ctx context.Context, fn func(ctx context.Context) error) (bool, error) {
	t.db.mu.RLock()
	atomic := t.db.atomic
	t.db.mu.RUnlock()
	if !atomic {
		return false, fn(ctx)
	}

	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()

	snap := t.db.snapshot()
	if err := fn(ctx); err != nil {
		t.db.restore(snap)
		return true, err
	}
	return true, nil
}

// Stored values are replaced, never mutated, so copying the maps is enough.
func (db *DB) snapshot() snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()
	s := snapshot{
		content:       make(map[registry.Type]map[primitive.ObjectID]models.Moderatable, len(db.content)),
		users:         make(map[primitive.ObjectID]models.User, len(db.users)),
		profiles:      make(map[primitive.ObjectID]models.Profile, len(db.profiles)),
		notifications: append([]models.Notification(nil), db.notifications...),
	}
	for t, m := range db.content {
		cp := make(map[primitive.ObjectID]models.Moderatable, len(m))
		for id, v := range m {
			cp[id] = v
		}
		s.content[t] = cp
	}
	for id, u := range db.users {
		s.users[id] = u
	}
	for id, p := range db.profiles {
		s.profiles[id] = p
	}
	return s
}

func (db *DB) restore(s snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.content = s.content
	db.users = s.users
	db.profiles = s.profiles
	db.notifications = s.notifications
}

/*─────────────────────────────────────────────────────────────────────────────*
| ContentStore                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// ContentStore implements moderation.ContentStore.
type ContentStore struct{ db *DB }

func (s *ContentStore) ListByStatus(_ context.Context, e registry.Entry, status models.Status) ([]models.Moderatable, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]models.Moderatable, 0)
	for _, item := range s.db.content[e.Type] {
		if item.ModerationState().Status != status {
			continue
		}
		c, err := clone(e, item)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ModerationState().SubmittedAt, out[j].ModerationState().SubmittedAt
		if !a.Equal(b) {
			return a.Before(b)
		}
		return lessID(out[i].ItemID(), out[j].ItemID())
	})
	return out, nil
}

func (s *ContentStore) CountByStatus(_ context.Context, e registry.Entry, status models.Status) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var n int64
	for _, item := range s.db.content[e.Type] {
		if item.ModerationState().Status == status {
			n++
		}
	}
	return n, nil
}

func (s *ContentStore) GetByID(_ context.Context, e registry.Entry, id primitive.ObjectID) (models.Moderatable, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	item, ok := s.db.content[e.Type][id]
	if !ok {
		return nil, &moderr.NotFoundError{Kind: string(e.Type), ID: id.Hex()}
	}
	return clone(e, item)
}

func (s *ContentStore) CompareAndSetStatus(_ context.Context, e registry.Entry, id primitive.ObjectID, tr models.ContentTransition) (models.Moderatable, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	cur, ok := s.db.content[e.Type][id]
	if !ok || cur.ModerationState().Status != tr.From {
		return nil, false, nil
	}

	next, err := clone(e, cur)
	if err != nil {
		return nil, false, err
	}
	m := next.ModerationState()
	m.Status = tr.To
	if tr.PublishDate != nil && e.Publishes() {
		pd := *tr.PublishDate
		m.PublishDate = &pd
	}
	if tr.ClearReview {
		m.ReviewedBy = nil
		m.ReviewedAt = nil
		m.DecisionID = ""
	}
	if tr.ReviewedBy != nil {
		by := *tr.ReviewedBy
		m.ReviewedBy = &by
	}
	if tr.ReviewedAt != nil {
		at := *tr.ReviewedAt
		m.ReviewedAt = &at
	}
	if tr.DecisionID != "" {
		m.DecisionID = tr.DecisionID
	}

	s.db.content[e.Type][id] = next
	out, err := clone(e, next)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| UserStore                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// UserStore implements moderation.UserStore.
type UserStore struct{ db *DB }

func (s *UserStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, &moderr.NotFoundError{Kind: "user", ID: id.Hex()}
	}
	return &u, nil
}

func (s *UserStore) ListByStatus(_ context.Context, status models.UserStatus) ([]models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]models.User, 0)
	for _, u := range s.db.users {
		if u.Status == status {
			out = append(out, u)
		}
	}
	sortUsers(out, true)
	return out, nil
}

func (s *UserStore) ListAll(_ context.Context) ([]models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]models.User, 0, len(s.db.users))
	for _, u := range s.db.users {
		out = append(out, u)
	}
	sortUsers(out, false)
	return out, nil
}

func sortUsers(us []models.User, asc bool) {
	sort.Slice(us, func(i, j int) bool {
		a, b := us[i], us[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt) == asc
		}
		return lessID(a.ID, b.ID) == asc
	})
}

func (s *UserStore) CountByStatus(_ context.Context, status models.UserStatus) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var n int64
	for _, u := range s.db.users {
		if u.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *UserStore) CountAll(_ context.Context) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return int64(len(s.db.users)), nil
}

func (s *UserStore) CompareAndSetStatus(_ context.Context, id primitive.ObjectID, from, to models.UserStatus) (*models.User, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok || u.Status != from {
		return nil, false, nil
	}
	u.Status = to
	u.UpdatedAt = time.Now().UTC()
	s.db.users[id] = u
	return &u, true, nil
}

func (s *UserStore) SetStatus(_ context.Context, id primitive.ObjectID, status models.UserStatus) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, &moderr.NotFoundError{Kind: "user", ID: id.Hex()}
	}
	u.Status = status
	u.UpdatedAt = time.Now().UTC()
	s.db.users[id] = u
	return &u, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| ProfileStore                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// ProfileStore implements moderation.ProfileStore.
type ProfileStore struct{ db *DB }

func (s *ProfileStore) GetByUserID(_ context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	p, ok := s.db.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *ProfileStore) GetByUserIDs(_ context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]models.Profile, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make(map[primitive.ObjectID]models.Profile, len(userIDs))
	for _, id := range userIDs {
		if p, ok := s.db.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *ProfileStore) SetVerified(_ context.Context, userID primitive.ObjectID, verified bool) (*models.Profile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.profiles[userID]
	if !ok {
		return nil, nil
	}
	p.IsVerified = verified
	s.db.profiles[userID] = p
	return &p, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| NotificationStore                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// NotificationStore implements moderation.NotificationStore.
type NotificationStore struct{ db *DB }

func (s *NotificationStore) Create(_ context.Context, n models.Notification) (models.Notification, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.notifyErr != nil {
		return models.Notification{}, s.db.notifyErr
	}
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	s.db.notifications = append(s.db.notifications, n)
	return n, nil
}

var (
	_ moderation.ContentStore      = (*ContentStore)(nil)
	_ moderation.UserStore         = (*UserStore)(nil)
	_ moderation.ProfileStore      = (*ProfileStore)(nil)
	_ moderation.NotificationStore = (*NotificationStore)(nil)
	_ moderation.TxRunner          = (*Tx)(nil)
)
