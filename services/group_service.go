package services

import (
	"context"
	"net/http"

	"restaurant-service/models"
	"restaurant-service/repository"

	"go.uber.org/zap"
)

// GroupService manages membership of the staff groups.
type GroupService interface {
	ListMembers(ctx context.Context, group string) ([]models.User, *ServiceError)
	AddMember(ctx context.Context, group, username string) *ServiceError
	RemoveMember(ctx context.Context, group string, userID uint) *ServiceError
}

type groupServiceImpl struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func NewGroupService(users repository.UserRepository, logger *zap.Logger) GroupService {
	return &groupServiceImpl{users: users, logger: logger}
}

func (s *groupServiceImpl) ListMembers(ctx context.Context, group string) ([]models.User, *ServiceError) {
	users, err := s.users.ListByGroup(ctx, group)
	if err != nil {
		s.logger.Error("Failed to list group members", zap.String("group", group), zap.Error(err))
		return nil, Internal("Failed to list users")
	}
	return users, nil
}

func (s *groupServiceImpl) AddMember(ctx context.Context, group, username string) *ServiceError {
	if username == "" {
		return ListError(http.StatusBadRequest, "username field is missing")
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			return NotFound("Not found.")
		}
		s.logger.Error("Failed to look up user", zap.String("username", username), zap.Error(err))
		return Internal("Failed to add user to group")
	}
	if err := s.users.AddToGroup(ctx, user.ID, group); err != nil {
		s.logger.Error("Failed to add user to group",
			zap.Uint("user_id", user.ID),
			zap.String("group", group),
			zap.Error(err),
		)
		return Internal("Failed to add user to group")
	}
	s.logger.Info("User added to group", zap.Uint("user_id", user.ID), zap.String("group", group))
	return nil
}

// RemoveMember returns 404 when the user is unknown or not in the group.
func (s *groupServiceImpl) RemoveMember(ctx context.Context, group string, userID uint) *ServiceError {
	names, err := s.users.GroupNames(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load user groups", zap.Uint("user_id", userID), zap.Error(err))
		return Internal("Failed to remove user from group")
	}
	member := false
	for _, n := range names {
		if n == group {
			member = true
			break
		}
	}
	if !member {
		return NotFound("Not found.")
	}

	if err := s.users.RemoveFromGroup(ctx, userID, group); err != nil {
		s.logger.Error("Failed to remove user from group",
			zap.Uint("user_id", userID),
			zap.String("group", group),
			zap.Error(err),
		)
		return Internal("Failed to remove user from group")
	}
	s.logger.Info("User removed from group", zap.Uint("user_id", userID), zap.String("group", group))
	return nil
}
