// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account in the community. Members start PENDING until an admin
// reviews their registration.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MobileNumber string             `bson:"mobile_number" json:"mobile_number"`
	Role         Role               `bson:"role" json:"role"`
	Status       UserStatus         `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Profile is the one-to-one registration detail record for a User.
//
// NOTE:
//   - IsVerified and User.Status are independent. A user can be ACTIVE
//     without being verified, and vice versa.
type Profile struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	FullName    string             `bson:"full_name" json:"full_name"`
	FullNameCI  string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email       string             `bson:"email" json:"email"`
	Address     string             `bson:"address" json:"address"`
	City        string             `bson:"city" json:"city"`
	State       string             `bson:"state" json:"state"`
	SubmittedAt time.Time          `bson:"submitted_at" json:"submitted_at"`
	IsVerified  bool               `bson:"is_verified" json:"is_verified"`
}

// UserWithProfile pairs a user with its profile. Profile is nil when the
// registration record is missing; callers render partial data in that case.
type UserWithProfile struct {
	User    User     `json:"user"`
	Profile *Profile `json:"profile"`
}
