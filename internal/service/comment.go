package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/watizat/connect/internal/apperror"
	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/repository"
)

const MaxCommentLength = 1000

// CommentService manages the public replies under a post. A post that is
// hidden from the viewer has no readable or writable comments.
type CommentService struct {
	comments repository.CommentRepository
	users    repository.UserRepository
	posts    *PostService
	logger   *slog.Logger
}

func NewCommentService(
	comments repository.CommentRepository,
	users repository.UserRepository,
	posts *PostService,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{
		comments: comments,
		users:    users,
		posts:    posts,
		logger:   logger,
	}
}

// List returns the comments on postID, oldest first.
func (s *CommentService) List(ctx context.Context, viewerID, postID string) ([]model.Comment, error) {
	post, err := s.posts.Get(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}
	cs, err := s.comments.ListComments(ctx, post.ID)
	if err != nil {
		s.logger.Error("failed to list comments",
			slog.String("postID", post.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return cs, nil
}

// Add stores a comment by callerID on postID.
func (s *CommentService) Add(ctx context.Context, callerID, postID, body string) (*model.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperror.ValidationFailed("comment", "comment is required")
	}
	if utf8.RuneCountInString(body) > MaxCommentLength {
		return nil, apperror.ValidationFailed("comment",
			fmt.Sprintf("comment must be %d characters or less", MaxCommentLength))
	}

	caller, err := lookupCaller(ctx, s.users, callerID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.Get(ctx, caller.ID, postID)
	if err != nil {
		return nil, err
	}

	c := &model.Comment{PostID: post.ID, UserID: caller.ID, AuthorName: caller.Name, Body: body}
	if err := s.comments.CreateComment(ctx, c); err != nil {
		s.logger.Error("failed to store comment",
			slog.String("postID", post.ID),
			slog.String("userID", caller.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("adding comment: %w", err)
	}

	s.logger.Info("comment added",
		slog.String("id", c.ID),
		slog.String("postID", post.ID),
		slog.String("userID", caller.ID),
	)
	return c, nil
}
