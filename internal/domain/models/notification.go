// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType classifies how a notification is presented.
type NotificationType string

const (
	NotificationInfo    NotificationType = "INFO"
	NotificationSuccess NotificationType = "SUCCESS"
	NotificationWarning NotificationType = "WARNING"
)

// Notification is a message addressed to a single member. The moderation
// workflow only creates notifications; reading and dismissing them belongs
// to the inbox feature.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	Type      NotificationType   `bson:"type" json:"type"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`

	// What produced it. SourceType is a registry tag or "member".
	SourceType string             `bson:"source_type,omitempty" json:"source_type,omitempty"`
	SourceID   primitive.ObjectID `bson:"source_id,omitempty" json:"source_id,omitempty"`
	DecisionID string             `bson:"decision_id,omitempty" json:"decision_id,omitempty"`
}
