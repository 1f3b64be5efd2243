package moderation

import (
	"context"

	"github.com/dalemusser/memberhub/internal/app/registry"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// Queue reads what is waiting for review. All reads go to the store at call
// time; nothing is cached.
type Queue struct {
	reg      *registry.Registry
	content  ContentStore
	users    UserStore
	profiles ProfileStore
}

func NewQueue(d Deps) *Queue {
	d = d.withDefaults()
	return &Queue{
		reg:      d.Registry,
		content:  d.Content,
		users:    d.Users,
		profiles: d.Profiles,
	}
}

// Summary holds the pending counts shown on the admin overview.
type Summary struct {
	Users   UserCounts              `json:"users"`
	Content map[registry.Type]int64 `json:"content"`
}

// UserCounts is the registration side of a Summary.
type UserCounts struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
}

// ListPending returns the PENDING items of type t, oldest submission first.
func (q *Queue) ListPending(ctx context.Context, c Caller, t registry.Type) ([]models.Moderatable, error) {
	if err := requireAdmin(c, "list pending content"); err != nil {
		return nil, err
	}
	e, err := q.reg.Lookup(t)
	if err != nil {
		return nil, err
	}
	return q.content.ListByStatus(ctx, e, models.StatusPending)
}

// ListAllPending returns ListPending for every registered type.
func (q *Queue) ListAllPending(ctx context.Context, c Caller) (map[registry.Type][]models.Moderatable, error) {
	if err := requireAdmin(c, "list pending content"); err != nil {
		return nil, err
	}
	out := make(map[registry.Type][]models.Moderatable)
	for _, e := range q.reg.Entries() {
		items, err := q.content.ListByStatus(ctx, e, models.StatusPending)
		if err != nil {
			return nil, err
		}
		out[e.Type] = items
	}
	return out, nil
}

// ListPendingMembers returns PENDING registrations, oldest first, each with
// its profile when one exists.
func (q *Queue) ListPendingMembers(ctx context.Context, c Caller) ([]models.UserWithProfile, error) {
	if err := requireAdmin(c, "list pending members"); err != nil {
		return nil, err
	}
	users, err := q.users.ListByStatus(ctx, models.UserPending)
	if err != nil {
		return nil, err
	}
	return q.withProfiles(ctx, users)
}

// ListUsers returns the whole roster, newest first, with profiles.
func (q *Queue) ListUsers(ctx context.Context, c Caller) ([]models.UserWithProfile, error) {
	if err := requireAdmin(c, "list users"); err != nil {
		return nil, err
	}
	users, err := q.users.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return q.withProfiles(ctx, users)
}

func (q *Queue) withProfiles(ctx context.Context, users []models.User) ([]models.UserWithProfile, error) {
	ids := make([]primitive.ObjectID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	profiles, err := q.profiles.GetByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.UserWithProfile, 0, len(users))
	for _, u := range users {
		row := models.UserWithProfile{User: u}
		if p, ok := profiles[u.ID]; ok {
			p := p
			row.Profile = &p
		}
		out = append(out, row)
	}
	return out, nil
}

// Summary counts pending work. Content counts use the same status filter as
// ListPending, so each count equals the length of the matching queue.
func (q *Queue) Summary(ctx context.Context, c Caller) (Summary, error) {
	if err := requireAdmin(c, "summary"); err != nil {
		return Summary{}, err
	}

	entries := q.reg.Entries()
	counts := make([]int64, len(entries))
	var users UserCounts

	g, gctx := errgroup.WithContext(ctx)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			n, err := q.content.CountByStatus(gctx, e, models.StatusPending)
			if err != nil {
				return err
			}
			counts[i] = n
			return nil
		})
	}
	g.Go(func() error {
		n, err := q.users.CountAll(gctx)
		if err != nil {
			return err
		}
		users.Total = n
		return nil
	})
	g.Go(func() error {
		n, err := q.users.CountByStatus(gctx, models.UserPending)
		if err != nil {
			return err
		}
		users.Pending = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	s := Summary{Users: users, Content: make(map[registry.Type]int64, len(entries))}
	for i, e := range entries {
		s.Content[e.Type] = counts[i]
	}
	return s, nil
}
