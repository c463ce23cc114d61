package matching

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/repository"
)

// UserLookup is the part of the user store the engine reads.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// PostLister is the part of the post store the engine reads.
type PostLister interface {
	List(ctx context.Context, filter repository.PostFilter) ([]model.Post, error)
	ListByAuthor(ctx context.Context, userID string) ([]model.Post, error)
}

// Engine answers visibility and chat-eligibility queries against the stores.
//
// It holds no mutable state and takes no locks; concurrent calls see whatever
// the stores return at query time.
type Engine struct {
	users  UserLookup
	posts  PostLister
	logger *slog.Logger
}

// NewEngine creates an Engine reading from the given stores.
func NewEngine(users UserLookup, posts PostLister, logger *slog.Logger) *Engine {
	return &Engine{
		users:  users,
		posts:  posts,
		logger: logger,
	}
}

// VisiblePosts lists the posts matching filter and keeps those viewer may see.
// viewer may be nil for anonymous callers.
func (e *Engine) VisiblePosts(ctx context.Context, viewer *model.User, filter repository.PostFilter) ([]model.VisiblePost, error) {
	posts, err := e.posts.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("matching: listing posts: %w", err)
	}

	out, step := filterPosts(viewer, posts)

	if viewer != nil {
		e.logger.Debug("posts filtered for viewer",
			slog.String("viewerID", viewer.ID),
			slog.String("role", string(viewer.Role)),
			slog.Int("initial", step.Initial),
			slog.Int("hidden", step.Hidden),
			slog.Int("visible", step.Visible),
		)
	}

	return out, nil
}

// CanChat decides whether volunteer may open a conversation with the user
// identified by targetID. volunteer must not be nil.
//
// An unknown target yields an apperror.ErrNotFound error. Every other
// outcome, including deny, is a normal Decision.
func (e *Engine) CanChat(ctx context.Context, volunteer *model.User, targetID string) (Decision, error) {
	target, err := e.users.GetUserByID(ctx, targetID)
	if err != nil {
		return Decision{}, err
	}

	posts, err := e.posts.ListByAuthor(ctx, target.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("matching: listing posts of %s: %w", target.ID, err)
	}

	d := Decide(volunteer, posts)

	e.logger.Debug("can-chat decided",
		slog.String("volunteerID", volunteer.ID),
		slog.String("targetID", target.ID),
		slog.Bool("canChat", d.CanChat),
		slog.String("reason", d.Reason),
	)

	return d, nil
}
