package models

import "strings"

// User is an account known to the identity collaborator.
type User struct {
	ID       int64  `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Email    string `json:"email" db:"email"`
}

// Role is a staff or customer capability derived from group membership.
type Role uint8

const (
	RoleCustomer Role = 1 << iota
	RoleDeliveryCrew
	RoleManager
)

// Group names as stored in the membership table.
const (
	GroupManager      = "Manager"
	GroupDeliveryCrew = "Delivery crew"
)

func (r Role) String() string {
	switch r {
	case RoleManager:
		return "manager"
	case RoleDeliveryCrew:
		return "delivery_crew"
	case RoleCustomer:
		return "customer"
	default:
		return "unknown"
	}
}

// RoleSet is the set of roles a requester holds. Every authenticated user
// holds RoleCustomer.
type RoleSet uint8

func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s |= RoleSet(r)
	}
	return s
}

func (s RoleSet) Has(r Role) bool {
	return s&RoleSet(r) != 0
}

func (s RoleSet) With(r Role) RoleSet {
	return s | RoleSet(r)
}

func (s RoleSet) String() string {
	var names []string
	for _, r := range []Role{RoleManager, RoleDeliveryCrew, RoleCustomer} {
		if s.Has(r) {
			names = append(names, r.String())
		}
	}
	return strings.Join(names, ",")
}

// Requester is the authenticated caller with roles resolved once per request.
type Requester struct {
	User  User
	Roles RoleSet
}
