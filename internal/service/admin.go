package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/watizat/connect/internal/apperror"
	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/repository"
)

// Stats is the admin dashboard summary.
type Stats struct {
	UsersByRole map[model.Role]int     `json:"users_by_role"`
	PostsByType map[model.PostType]int `json:"posts_by_type"`
	TotalUsers  int                    `json:"total_users"`
	TotalPosts  int                    `json:"total_posts"`
	Messages    int                    `json:"total_messages"`
}

type AdminService struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	messages repository.MessageRepository
	logger   *slog.Logger
}

func NewAdminService(
	users repository.UserRepository,
	posts repository.PostRepository,
	messages repository.MessageRepository,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{users: users, posts: posts, messages: messages, logger: logger}
}

// Stats counts users by role, posts by type and messages. Every role and
// post type is present in the maps, zero when unused.
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	byRole, err := s.users.CountUsersByRole(ctx)
	if err != nil {
		s.logger.Error("failed to count users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("counting users: %w", err)
	}
	byType, err := s.posts.CountPostsByType(ctx)
	if err != nil {
		s.logger.Error("failed to count posts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("counting posts: %w", err)
	}
	msgs, err := s.messages.CountMessages(ctx)
	if err != nil {
		s.logger.Error("failed to count messages", slog.String("error", err.Error()))
		return nil, fmt.Errorf("counting messages: %w", err)
	}

	st := &Stats{
		UsersByRole: make(map[model.Role]int),
		PostsByType: make(map[model.PostType]int),
		Messages:    msgs,
	}
	for _, r := range []model.Role{model.RoleMigrant, model.RoleVolunteer, model.RoleAdmin} {
		st.UsersByRole[r] = byRole[r]
		st.TotalUsers += byRole[r]
	}
	for _, t := range []model.PostType{model.PostNeed, model.PostOffer} {
		st.PostsByType[t] = byType[t]
		st.TotalPosts += byType[t]
	}
	return st, nil
}

// requireAdmin re-reads the caller's role from the store. The role in a
// session token is fixed at login, so a demoted admin keeps an admin token
// until it expires.
func (s *AdminService) requireAdmin(ctx context.Context, callerID string) (*model.User, error) {
	caller, err := lookupCaller(ctx, s.users, callerID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, apperror.Forbidden("admin role required")
	}
	return caller, nil
}

// ListUsers returns every account in registration order.
func (s *AdminService) ListUsers(ctx context.Context, callerID string) ([]model.User, error) {
	if _, err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// SetRole changes the role of userID. Category lists that do not belong to
// the new role are cleared. Admins cannot change their own role.
func (s *AdminService) SetRole(ctx context.Context, callerID, userID, role string) (*model.User, error) {
	caller, err := s.requireAdmin(ctx, callerID)
	if err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	if userID == caller.ID {
		return nil, apperror.ValidationFailed("id", "admins cannot change their own role")
	}
	r, err := model.ParseRole(role)
	if err != nil {
		return nil, apperror.ValidationFailed("role", err.Error())
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := user.Role
	user.Role = r
	normalizeRoleFields(user)

	if err := s.users.UpdateUserRole(ctx, user); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to update role",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("updating role: %w", err)
	}

	s.logger.Info("role changed",
		slog.String("adminID", caller.ID),
		slog.String("userID", user.ID),
		slog.String("from", string(previous)),
		slog.String("to", string(user.Role)),
	)
	return user, nil
}

// DeleteUser removes userID together with its posts, comments and
// messages. Admins cannot delete themselves.
func (s *AdminService) DeleteUser(ctx context.Context, callerID, userID string) error {
	caller, err := s.requireAdmin(ctx, callerID)
	if err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return apperror.ValidationFailed("id", "user ID is required")
	}
	if userID == caller.ID {
		return apperror.ValidationFailed("id", "admins cannot delete their own account")
	}

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to delete user",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
		}
		return fmt.Errorf("deleting user: %w", err)
	}

	s.logger.Info("user deleted",
		slog.String("adminID", caller.ID),
		slog.String("userID", userID),
	)
	return nil
}

// ListPosts returns every post unfiltered, in publication order.
func (s *AdminService) ListPosts(ctx context.Context, callerID string) ([]model.Post, error) {
	if _, err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	posts, err := s.posts.List(ctx, repository.PostFilter{})
	if err != nil {
		s.logger.Error("failed to list posts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// DeletePost removes any post regardless of its author.
func (s *AdminService) DeletePost(ctx context.Context, callerID, postID string) error {
	caller, err := s.requireAdmin(ctx, callerID)
	if err != nil {
		return err
	}
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return apperror.ValidationFailed("id", "post ID is required")
	}
	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return err
	}
	s.logger.Info("post removed by admin",
		slog.String("adminID", caller.ID),
		slog.String("postID", postID),
	)
	return nil
}
