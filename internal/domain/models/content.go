// internal/domain/models/content.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Moderation is the review state shared by every member-submitted content
// type. It is embedded inline, so its fields live at the document root.
//
// PublishDate is set exactly once, when Status becomes APPROVED.
type Moderation struct {
	Status      Status     `bson:"status" json:"status"`
	Visibility  Visibility `bson:"visibility,omitempty" json:"visibility,omitempty"`
	PublishDate *time.Time `bson:"publish_date,omitempty" json:"publish_date,omitempty"`
	SubmittedAt time.Time  `bson:"submitted_at" json:"submitted_at"`

	ReviewedAt *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	ReviewedBy *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	DecisionID string              `bson:"decision_id,omitempty" json:"decision_id,omitempty"`
}

// Moderatable is implemented by every content type that passes through the
// pending-review queue.
type Moderatable interface {
	ItemID() primitive.ObjectID
	OwnerRef() primitive.ObjectID
	// DisplayName is the human label used in notification text
	// (business name, event title, ...).
	DisplayName() string
	ModerationState() *Moderation
}

// BusinessListing is a member's business directory entry.
type BusinessListing struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID      primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	BusinessName string             `bson:"business_name" json:"business_name"`
	Category     string             `bson:"category" json:"category"`
	Description  string             `bson:"description" json:"description"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Website      string             `bson:"website,omitempty" json:"website,omitempty"`
	City         string             `bson:"city,omitempty" json:"city,omitempty"`
	Moderation   `bson:",inline"`
}

func (b *BusinessListing) ItemID() primitive.ObjectID   { return b.ID }
func (b *BusinessListing) OwnerRef() primitive.ObjectID { return b.OwnerID }
func (b *BusinessListing) DisplayName() string          { return b.BusinessName }
func (b *BusinessListing) ModerationState() *Moderation { return &b.Moderation }

// CareerListing is a job posting.
type CareerListing struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID        primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	JobTitle       string             `bson:"job_title" json:"job_title"`
	CompanyName    string             `bson:"company_name" json:"company_name"`
	Location       string             `bson:"location,omitempty" json:"location,omitempty"`
	EmploymentType string             `bson:"employment_type,omitempty" json:"employment_type,omitempty"`
	Description    string             `bson:"description" json:"description"`
	ApplyURL       string             `bson:"apply_url,omitempty" json:"apply_url,omitempty"`
	Moderation     `bson:",inline"`
}

func (c *CareerListing) ItemID() primitive.ObjectID   { return c.ID }
func (c *CareerListing) OwnerRef() primitive.ObjectID { return c.OwnerID }
func (c *CareerListing) DisplayName() string          { return c.JobTitle }
func (c *CareerListing) ModerationState() *Moderation { return &c.Moderation }

// Event is a community gathering.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Venue       string             `bson:"venue,omitempty" json:"venue,omitempty"`
	StartsAt    time.Time          `bson:"starts_at" json:"starts_at"`
	EndsAt      *time.Time         `bson:"ends_at,omitempty" json:"ends_at,omitempty"`
	Moderation  `bson:",inline"`
}

func (e *Event) ItemID() primitive.ObjectID   { return e.ID }
func (e *Event) OwnerRef() primitive.ObjectID { return e.OwnerID }
func (e *Event) DisplayName() string          { return e.Title }
func (e *Event) ModerationState() *Moderation { return &e.Moderation }

// Achievement celebrates something a member accomplished.
type Achievement struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	MemberName  string             `bson:"member_name" json:"member_name"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	AchievedOn  *time.Time         `bson:"achieved_on,omitempty" json:"achieved_on,omitempty"`
	Moderation  `bson:",inline"`
}

func (a *Achievement) ItemID() primitive.ObjectID   { return a.ID }
func (a *Achievement) OwnerRef() primitive.ObjectID { return a.OwnerID }
func (a *Achievement) DisplayName() string          { return a.Title }
func (a *Achievement) ModerationState() *Moderation { return &a.Moderation }

// Scholarship is a funding opportunity offered to the community.
type Scholarship struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Title       string             `bson:"title" json:"title"`
	Provider    string             `bson:"provider" json:"provider"`
	Amount      string             `bson:"amount,omitempty" json:"amount,omitempty"`
	Eligibility string             `bson:"eligibility,omitempty" json:"eligibility,omitempty"`
	Deadline    *time.Time         `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Moderation  `bson:",inline"`
}

func (s *Scholarship) ItemID() primitive.ObjectID   { return s.ID }
func (s *Scholarship) OwnerRef() primitive.ObjectID { return s.OwnerID }
func (s *Scholarship) DisplayName() string          { return s.Title }
func (s *Scholarship) ModerationState() *Moderation { return &s.Moderation }

// ContentTransition is a conditional status change: it applies only while the
// item is still in From.
type ContentTransition struct {
	From Status
	To   Status

	// PublishDate is written when non-nil (approval of a publishing type).
	PublishDate *time.Time

	ReviewedBy *primitive.ObjectID
	ReviewedAt *time.Time
	DecisionID string

	// ClearReview removes the reviewed_* and decision_id fields (reopen).
	ClearReview bool
}
