package services

import (
	"context"

	"restaurant-service/models"
	"restaurant-service/repository"
)

// Roles is what a caller may do, derived from group membership.
type Roles struct {
	UserID  uint
	IsStaff bool
	Groups  []string
}

func (r Roles) has(group string) bool {
	for _, g := range r.Groups {
		if g == group {
			return true
		}
	}
	return false
}

func (r Roles) IsManager() bool      { return r.has(models.GroupManager) }
func (r Roles) IsDeliveryCrew() bool { return r.has(models.GroupDeliveryCrew) }

// IsCustomer is true for users in neither staff group.
func (r Roles) IsCustomer() bool { return !r.IsManager() && !r.IsDeliveryCrew() }

// RoleResolver looks up the roles of an authenticated user.
type RoleResolver interface {
	Roles(ctx context.Context, userID uint) (Roles, error)
}

type roleServiceImpl struct {
	users repository.UserRepository
}

// NewRoleService creates a RoleResolver backed by the users table.
func NewRoleService(users repository.UserRepository) RoleResolver {
	return &roleServiceImpl{users: users}
}

func (s *roleServiceImpl) Roles(ctx context.Context, userID uint) (Roles, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return Roles{}, err
	}
	roles := Roles{UserID: user.ID, IsStaff: user.IsStaff}
	for _, g := range user.Groups {
		roles.Groups = append(roles.Groups, g.Name)
	}
	return roles, nil
}
