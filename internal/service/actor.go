package service

import "github.com/google/uuid"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func (a Actor) canAccess(owner uuid.UUID) bool {
	return a.IsAdmin() || a.UserID == owner
}
