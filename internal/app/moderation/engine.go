package moderation

import (
	"context"

	"github.com/dalemusser/memberhub/internal/app/registry"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/domain/moderr"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Engine applies review decisions. Every transition is a single conditional
// update out of PENDING, so of two concurrent reviews of one item exactly one
// succeeds and the other gets an InvalidStateError.
type Engine struct {
	reg      *registry.Registry
	content  ContentStore
	users    UserStore
	profiles ProfileStore
	tx       TxRunner
	audit    Auditor
	clock    Clock
	dispatch *Dispatcher
	log      *zap.Logger
}

func NewEngine(d Deps) *Engine {
	d = d.withDefaults()
	return &Engine{
		reg:      d.Registry,
		content:  d.Content,
		users:    d.Users,
		profiles: d.Profiles,
		tx:       d.Tx,
		audit:    d.Audit,
		clock:    d.Clock,
		dispatch: NewDispatcher(d.Notifications, d.Clock),
		log:      d.Logger,
	}
}

// step is one attempt at a transition. withEffect controls whether the
// notification is written as part of it.
type step func(withEffect bool) func(ctx context.Context) error

// undo reverses a gating write that landed without a transaction.
type undo func(ctx context.Context) error

// partial tracks whether the gating write of the current attempt landed, and
// how to take it back if a later write fails.
type partial struct {
	landed bool
	undo   undo
}

func (p *partial) reset() { p.landed = false }

func (p *partial) mark() { p.landed = true }

// commit runs s with its notification in one unit of work. A failed
// notification never undoes the decision: in a transaction the decision is
// re-run alone, and without one the decision write has already landed. Any
// other failure after the decision landed outside a transaction is undone
// through p, so the transition and its effects apply together or not at all.
func (e *Engine) commit(ctx context.Context, op string, s step, p *partial) error {
	atomic, err := e.tx.Run(ctx, s(true))
	if err == nil {
		return nil
	}
	if !moderr.IsSideEffect(err) {
		if !atomic {
			e.rollback(ctx, op, p, err)
		}
		return err
	}

	e.log.Warn("notification failed; keeping decision",
		zap.String("op", op),
		zap.Bool("atomic", atomic),
		zap.Error(err))
	if !atomic {
		return nil
	}
	_, err = e.tx.Run(ctx, s(false))
	return err
}

// rollback applies p.undo when the gating write of a failed non-atomic unit
// landed. It runs even if ctx was cancelled.
func (e *Engine) rollback(ctx context.Context, op string, p *partial, cause error) {
	if p == nil || !p.landed || p.undo == nil {
		return
	}
	p.landed = false
	if err := p.undo(context.WithoutCancel(ctx)); err != nil {
		e.log.Error("could not undo partial transition",
			zap.String("op", op),
			zap.NamedError("cause", cause),
			zap.Error(err))
		return
	}
	e.log.Warn("undid partial transition",
		zap.String("op", op),
		zap.Error(cause))
}

// ReviewContent moves a PENDING item to APPROVED or REJECTED. Approval stamps
// the publish date. The owner gets one notification.
func (e *Engine) ReviewContent(ctx context.Context, c Caller, t registry.Type, id primitive.ObjectID, decision models.Status) (models.Moderatable, error) {
	if err := requireAdmin(c, "review content"); err != nil {
		return nil, err
	}
	if decision != models.StatusApproved && decision != models.StatusRejected {
		return nil, &moderr.InvalidInputError{Field: "status", Reason: "must be APPROVED or REJECTED"}
	}
	entry, err := e.reg.Lookup(t)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now().UTC()
	actor := c.ID
	decisionID := uuid.NewString()
	tr := models.ContentTransition{
		From:       models.StatusPending,
		To:         decision,
		ReviewedBy: &actor,
		ReviewedAt: &now,
		DecisionID: decisionID,
	}
	if decision == models.StatusApproved && entry.Publishes() {
		tr.PublishDate = &now
	}

	// Only the notification follows the status write, so there is nothing
	// to undo.
	var updated models.Moderatable
	err = e.commit(ctx, "review content", func(withEffect bool) func(context.Context) error {
		return func(ctx context.Context) error {
			item, ok, err := e.content.CompareAndSetStatus(ctx, entry, id, tr)
			if err != nil {
				return err
			}
			if !ok {
				return e.contentMiss(ctx, entry, id, models.StatusPending)
			}
			updated = item
			if withEffect {
				return e.dispatch.ContentReviewed(ctx, entry, item, decisionID)
			}
			return nil
		}
	}, nil)
	if err != nil {
		return nil, err
	}

	e.audit.ContentReviewed(ctx, c.ID, updated.OwnerRef(), string(entry.Type), id, string(decision), decisionID)
	e.log.Info("content reviewed",
		zap.String("type", string(entry.Type)),
		zap.String("id", id.Hex()),
		zap.String("decision", string(decision)),
		zap.String("decision_id", decisionID))
	return updated, nil
}

// ReopenContent returns a REJECTED item to the queue. Approved items stay
// approved. No notification is sent.
func (e *Engine) ReopenContent(ctx context.Context, c Caller, t registry.Type, id primitive.ObjectID) (models.Moderatable, error) {
	if err := requireAdmin(c, "reopen content"); err != nil {
		return nil, err
	}
	entry, err := e.reg.Lookup(t)
	if err != nil {
		return nil, err
	}

	tr := models.ContentTransition{
		From:        models.StatusRejected,
		To:          models.StatusPending,
		ClearReview: true,
	}

	var updated models.Moderatable
	_, err = e.tx.Run(ctx, func(ctx context.Context) error {
		item, ok, err := e.content.CompareAndSetStatus(ctx, entry, id, tr)
		if err != nil {
			return err
		}
		if !ok {
			return e.contentMiss(ctx, entry, id, models.StatusRejected)
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.audit.ContentReopened(ctx, c.ID, updated.OwnerRef(), string(entry.Type), id)
	return updated, nil
}

// contentMiss explains why a conditional update matched nothing.
func (e *Engine) contentMiss(ctx context.Context, entry registry.Entry, id primitive.ObjectID, want models.Status) error {
	cur, err := e.content.GetByID(ctx, entry, id)
	if err != nil {
		return err
	}
	return &moderr.InvalidStateError{
		Kind:    string(entry.Type),
		ID:      id.Hex(),
		Current: string(cur.ModerationState().Status),
		Want:    string(want),
	}
}

// ReviewMember moves a PENDING registration to ACTIVE or REJECTED. Approval
// also writes the profile's verification flag. reason only reaches the
// member's notification.
func (e *Engine) ReviewMember(ctx context.Context, c Caller, userID primitive.ObjectID, decision models.UserStatus, isVerified bool, reason string) (models.UserWithProfile, error) {
	if err := requireAdmin(c, "review member"); err != nil {
		return models.UserWithProfile{}, err
	}
	if decision != models.UserActive && decision != models.UserRejected {
		return models.UserWithProfile{}, &moderr.InvalidInputError{Field: "status", Reason: "must be ACTIVE or REJECTED"}
	}

	decisionID := uuid.NewString()

	p := &partial{undo: func(ctx context.Context) error {
		_, _, err := e.users.CompareAndSetStatus(ctx, userID, decision, models.UserPending)
		return err
	}}

	var out models.UserWithProfile
	err := e.commit(ctx, "review member", func(withEffect bool) func(context.Context) error {
		return func(ctx context.Context) error {
			p.reset()
			u, ok, err := e.users.CompareAndSetStatus(ctx, userID, models.UserPending, decision)
			if err != nil {
				return err
			}
			if !ok {
				return e.userMiss(ctx, userID, models.UserPending)
			}
			p.mark()

			var prof *models.Profile
			if decision == models.UserActive {
				prof, err = e.profiles.SetVerified(ctx, userID, isVerified)
			} else {
				prof, err = e.profiles.GetByUserID(ctx, userID)
			}
			if err != nil {
				return err
			}
			out = models.UserWithProfile{User: *u, Profile: prof}

			if withEffect {
				return e.dispatch.MemberReviewed(ctx, *u, decision, reason, decisionID)
			}
			return nil
		}
	}, p)
	if err != nil {
		return models.UserWithProfile{}, err
	}

	e.audit.MemberReviewed(ctx, c.ID, userID, string(decision), decisionID, reason)
	e.log.Info("member reviewed",
		zap.String("user_id", userID.Hex()),
		zap.String("decision", string(decision)),
		zap.String("decision_id", decisionID))
	return out, nil
}

// ReopenMember returns a REJECTED registration to the queue.
func (e *Engine) ReopenMember(ctx context.Context, c Caller, userID primitive.ObjectID) (models.User, error) {
	if err := requireAdmin(c, "reopen member"); err != nil {
		return models.User{}, err
	}

	var out models.User
	_, err := e.tx.Run(ctx, func(ctx context.Context) error {
		u, ok, err := e.users.CompareAndSetStatus(ctx, userID, models.UserRejected, models.UserPending)
		if err != nil {
			return err
		}
		if !ok {
			return e.userMiss(ctx, userID, models.UserRejected)
		}
		out = *u
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	e.audit.MemberReopened(ctx, c.ID, userID)
	return out, nil
}

// VerifyActiveUser sets a user's status and verification flag directly. It
// only requires that the user exists and sends no notification.
func (e *Engine) VerifyActiveUser(ctx context.Context, c Caller, userID primitive.ObjectID, status models.UserStatus, isVerified bool) (models.UserWithProfile, error) {
	if err := requireAdmin(c, "verify user"); err != nil {
		return models.UserWithProfile{}, err
	}
	if !status.Valid() {
		return models.UserWithProfile{}, &moderr.InvalidInputError{Field: "status", Reason: "must be PENDING, ACTIVE or REJECTED"}
	}

	var prev models.UserStatus
	p := &partial{undo: func(ctx context.Context) error {
		_, _, err := e.users.CompareAndSetStatus(ctx, userID, status, prev)
		return err
	}}

	var out models.UserWithProfile
	err := e.commit(ctx, "verify user", func(bool) func(context.Context) error {
		return func(ctx context.Context) error {
			p.reset()
			cur, err := e.users.GetByID(ctx, userID)
			if err != nil {
				return err
			}
			prev = cur.Status

			u, err := e.users.SetStatus(ctx, userID, status)
			if err != nil {
				return err
			}
			p.mark()

			pr, err := e.profiles.SetVerified(ctx, userID, isVerified)
			if err != nil {
				return err
			}
			out = models.UserWithProfile{User: *u, Profile: pr}
			return nil
		}
	}, p)
	if err != nil {
		return models.UserWithProfile{}, err
	}

	e.audit.VerificationUpdated(ctx, c.ID, userID, string(status), isVerified)
	return out, nil
}

func (e *Engine) userMiss(ctx context.Context, userID primitive.ObjectID, want models.UserStatus) error {
	u, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	return &moderr.InvalidStateError{
		Kind:    "user",
		ID:      userID.Hex(),
		Current: string(u.Status),
		Want:    string(want),
	}
}
