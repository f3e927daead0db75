package user

import (
	"errors"
	"strings"
)

// Principal is the resolved authenticated actor attached to every operation.
// It is produced once at the auth boundary and carried through the call;
// the core trusts it and performs no credential checks itself.
type Principal struct {
	UserID string
	Role   Role
}

var ErrEmptyUserID = errors.New("principal user id is required")

// NewPrincipal validates and constructs a Principal.
func NewPrincipal(userID string, role Role) (Principal, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Principal{}, ErrEmptyUserID
	}
	if !role.Valid() {
		return Principal{}, ErrInvalidRole
	}
	return Principal{UserID: userID, Role: role}, nil
}

// Convenience helpers.
func (p Principal) IsPassenger() bool { return p.Role.IsPassenger() }
func (p Principal) IsDriver() bool    { return p.Role.IsDriver() }
