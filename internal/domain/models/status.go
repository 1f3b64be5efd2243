// internal/domain/models/status.go
package models

// Status is the moderation state of a content item.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// UserStatus is the lifecycle state of a member account.
type UserStatus string

const (
	UserPending  UserStatus = "PENDING"
	UserActive   UserStatus = "ACTIVE"
	UserRejected UserStatus = "REJECTED"
)

// Valid reports whether s is one of the known user statuses.
func (s UserStatus) Valid() bool {
	switch s {
	case UserPending, UserActive, UserRejected:
		return true
	}
	return false
}

// Role is the privilege level of an account.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// Visibility controls who can see approved content. It is independent of Status.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityMembers Visibility = "MEMBERS"
)
