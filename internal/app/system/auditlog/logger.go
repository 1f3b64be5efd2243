package auditlog

import (
	"context"
	"strconv"

	"github.com/dalemusser/memberhub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Admin controls logging for moderation decisions and verification edits.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
}

// Logger records admin actions to MongoDB (via audit.Store) and to
// structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.SubjectType != "" {
		fields = append(fields, zap.String("subject_type", event.SubjectType))
	}
	if event.SubjectID != nil {
		fields = append(fields, zap.String("subject_id", event.SubjectID.Hex()))
	}
	if event.DecisionID != "" {
		fields = append(fields, zap.String("decision_id", event.DecisionID))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := "all"
	if event.Category == audit.CategoryAdmin && l.config.Admin != "" {
		setting = l.config.Admin
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Moderation Events ---

// ContentReviewed logs an approval or rejection of a content item.
func (l *Logger) ContentReviewed(ctx context.Context, actorID, ownerID primitive.ObjectID, contentType string, itemID primitive.ObjectID, decision, decisionID string) {
	eventType := audit.EventContentRejected
	if decision == "APPROVED" {
		eventType = audit.EventContentApproved
	}
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryAdmin,
		EventType:   eventType,
		UserID:      &ownerID,
		ActorID:     &actorID,
		SubjectType: contentType,
		SubjectID:   &itemID,
		DecisionID:  decisionID,
		Success:     true,
	})
}

// ContentReopened logs a rejected item being returned to the queue.
func (l *Logger) ContentReopened(ctx context.Context, actorID, ownerID primitive.ObjectID, contentType string, itemID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryAdmin,
		EventType:   audit.EventContentReopened,
		UserID:      &ownerID,
		ActorID:     &actorID,
		SubjectType: contentType,
		SubjectID:   &itemID,
		Success:     true,
	})
}

// MemberReviewed logs a registration approval or rejection. The reason is
// kept in the audit trail only as its length; the text itself travels in the
// member's notification.
func (l *Logger) MemberReviewed(ctx context.Context, actorID, userID primitive.ObjectID, decision, decisionID, reason string) {
	eventType := audit.EventMemberRejected
	if decision == "ACTIVE" {
		eventType = audit.EventMemberApproved
	}
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryAdmin,
		EventType:   eventType,
		UserID:      &userID,
		ActorID:     &actorID,
		SubjectType: "member",
		SubjectID:   &userID,
		DecisionID:  decisionID,
		Success:     true,
		Details: map[string]string{
			"reason_len": strconv.Itoa(len(reason)),
		},
	})
}

// MemberReopened logs a rejected application being returned to the queue.
func (l *Logger) MemberReopened(ctx context.Context, actorID, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryAdmin,
		EventType:   audit.EventMemberReopened,
		UserID:      &userID,
		ActorID:     &actorID,
		SubjectType: "member",
		SubjectID:   &userID,
		Success:     true,
	})
}

// VerificationUpdated logs a direct status/verification edit on a user.
func (l *Logger) VerificationUpdated(ctx context.Context, actorID, userID primitive.ObjectID, status string, verified bool) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryAdmin,
		EventType:   audit.EventVerificationUpdated,
		UserID:      &userID,
		ActorID:     &actorID,
		SubjectType: "member",
		SubjectID:   &userID,
		Success:     true,
		Details: map[string]string{
			"status":      status,
			"is_verified": strconv.FormatBool(verified),
		},
	})
}
