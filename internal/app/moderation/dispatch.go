package moderation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/memberhub/internal/app/registry"
	"github.com/dalemusser/memberhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/domain/moderr"
)

// SourceMember is the notification source type for registration decisions.
const SourceMember = "member"

// Dispatcher turns a completed review into exactly one notification for the
// member who owns the reviewed record.
type Dispatcher struct {
	store NotificationStore
	clock Clock
}

func NewDispatcher(store NotificationStore, clock Clock) *Dispatcher {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Dispatcher{store: store, clock: clock}
}

// ContentReviewed notifies the owner of item. The display name is copied
// into the message as it reads now; later edits to the item do not change it.
func (d *Dispatcher) ContentReviewed(ctx context.Context, e registry.Entry, item models.Moderatable, decisionID string) error {
	return d.send(ctx, ContentNotification(e, item, decisionID, d.clock.Now()))
}

// MemberReviewed notifies a member of the outcome of their registration.
func (d *Dispatcher) MemberReviewed(ctx context.Context, u models.User, decision models.UserStatus, reason, decisionID string) error {
	return d.send(ctx, MemberNotification(u, decision, reason, decisionID, d.clock.Now()))
}

func (d *Dispatcher) send(ctx context.Context, n models.Notification) error {
	if _, err := d.store.Create(ctx, n); err != nil {
		return &moderr.SideEffectError{Effect: "notification", Err: err}
	}
	return nil
}

// ContentNotification builds the message for a content decision.
func ContentNotification(e registry.Entry, item models.Moderatable, decisionID string, now time.Time) models.Notification {
	name := htmlsanitize.StripTags(item.DisplayName())
	label := e.Label
	if label == "" {
		label = string(e.Type)
	}

	n := models.Notification{
		UserID:     item.OwnerRef(),
		CreatedAt:  now.UTC(),
		SourceType: string(e.Type),
		SourceID:   item.ItemID(),
		DecisionID: decisionID,
	}
	if item.ModerationState().Status == models.StatusApproved {
		n.Type = models.NotificationSuccess
		n.Title = capitalize(label) + " approved"
		n.Message = fmt.Sprintf("Your %s %q has been approved and is now published.", label, name)
	} else {
		n.Type = models.NotificationWarning
		n.Title = capitalize(label) + " not approved"
		n.Message = fmt.Sprintf("Your %s %q was not approved.", label, name)
	}
	return n
}

// MemberNotification builds the message for a registration decision. The
// reason is reduced to plain text and only used for rejections.
func MemberNotification(u models.User, decision models.UserStatus, reason, decisionID string, now time.Time) models.Notification {
	n := models.Notification{
		UserID:     u.ID,
		CreatedAt:  now.UTC(),
		SourceType: SourceMember,
		SourceID:   u.ID,
		DecisionID: decisionID,
	}
	if decision == models.UserActive {
		n.Type = models.NotificationSuccess
		n.Title = "Registration approved"
		n.Message = "Your membership application has been approved. Welcome to the community!"
		return n
	}

	n.Type = models.NotificationWarning
	n.Title = "Registration not approved"
	n.Message = "Your membership application was not approved."
	if r := htmlsanitize.Reason(reason); r != "" {
		n.Message += " Reason: " + r
	}
	return n
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
