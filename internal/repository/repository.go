// Package repository declares the storage contracts the services depend on.
//
// Implementations live in sub-packages (sqlite, postgres). Services only see
// these interfaces, so tests can swap in in-memory fakes.
package repository

import (
	"context"

	"github.com/watizat/connect/internal/model"
)

// PostFilter narrows a post listing. Zero values mean "any".
type PostFilter struct {
	Type     model.PostType
	Category model.Category
	AuthorID string
}

// UserRepository stores accounts.
//
// GetUserByID and GetUserByEmail return an apperror.ErrNotFound error when no
// row matches. CreateUser returns apperror.ErrConflict for a taken email.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// ListUsers returns every account in registration order.
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	// UpdateUserRole writes user.Role together with both category lists.
	UpdateUserRole(ctx context.Context, user *model.User) error
	// DeleteUser removes the account with its posts, comments and messages.
	DeleteUser(ctx context.Context, id string) error
	CountUsersByRole(ctx context.Context) (map[model.Role]int, error)
}

// PostRepository stores need/offer posts.
//
// List and ListByAuthor return posts in insertion order.
type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPostByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, filter PostFilter) ([]model.Post, error)
	ListByAuthor(ctx context.Context, userID string) ([]model.Post, error)
	DeletePost(ctx context.Context, id string) error
	CountPostsByType(ctx context.Context) (map[model.PostType]int, error)
}

// CommentRepository stores replies under posts. Deleting a post deletes
// its comments.
type CommentRepository interface {
	CreateComment(ctx context.Context, c *model.Comment) error
	// ListComments returns the comments of postID, oldest first, with
	// AuthorName set.
	ListComments(ctx context.Context, postID string) ([]model.Comment, error)
}

// MessageRepository stores direct messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *model.Message) error
	// Conversation returns every message exchanged between a and b, oldest first.
	Conversation(ctx context.Context, a, b string) ([]model.Message, error)
	// HasMessageFrom reports whether from has ever written to to.
	HasMessageFrom(ctx context.Context, from, to string) (bool, error)
	CountMessages(ctx context.Context) (int, error)
}
