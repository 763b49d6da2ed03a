// Package roles derives a requester's RoleSet from group membership.
package roles

import (
	"context"
	"fmt"

	"little-lemon/internal/models"
)

// GroupLookup lists the group names a user belongs to.
type GroupLookup interface {
	UserGroups(ctx context.Context, userID int64) ([]string, error)
}

type Resolver struct {
	groups GroupLookup
}

func NewResolver(groups GroupLookup) *Resolver {
	return &Resolver{groups: groups}
}

// Resolve looks up the user's groups once and returns the requester that
// is passed to every policy decision for the rest of the request.
func (r *Resolver) Resolve(ctx context.Context, user models.User) (models.Requester, error) {
	groups, err := r.groups.UserGroups(ctx, user.ID)
	if err != nil {
		return models.Requester{}, fmt.Errorf("resolve roles for user %d: %w", user.ID, err)
	}
	return models.Requester{User: user, Roles: FromGroups(groups)}, nil
}

// FromGroups maps group names to roles. Every user is a customer; unknown
// groups are ignored.
func FromGroups(groups []string) models.RoleSet {
	set := models.NewRoleSet(models.RoleCustomer)
	for _, g := range groups {
		switch g {
		case models.GroupManager:
			set = set.With(models.RoleManager)
		case models.GroupDeliveryCrew:
			set = set.With(models.RoleDeliveryCrew)
		}
	}
	return set
}
