package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/watizat/connect/internal/apperror"
	"github.com/watizat/connect/internal/matching"
	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/repository"
)

const (
	MaxTitleLength       = 120
	MaxDescriptionLength = 2000
	MaxImages            = 5
	MaxImageRefLength    = 512
)

// PostService publishes posts and serves them through the matching engine.
type PostService struct {
	posts  repository.PostRepository
	users  repository.UserRepository
	engine *matching.Engine
	logger *slog.Logger
}

func NewPostService(
	posts repository.PostRepository,
	users repository.UserRepository,
	engine *matching.Engine,
	logger *slog.Logger,
) *PostService {
	return &PostService{
		posts:  posts,
		users:  users,
		engine: engine,
		logger: logger,
	}
}

// PostInput is the raw post creation payload.
type PostInput struct {
	Type        string
	Category    string
	Title       string
	Description string
	Images      []string
}

// Create publishes a post for authorID.
//
// An empty type defaults by role: migrants publish needs, everyone else
// offers. Only migrants may publish need posts.
func (s *PostService) Create(ctx context.Context, authorID string, in PostInput) (*model.Post, error) {
	author, err := lookupCaller(ctx, s.users, authorID)
	if err != nil {
		return nil, err
	}

	typ := model.PostOffer
	if author.Role == model.RoleMigrant {
		typ = model.PostNeed
	}
	if strings.TrimSpace(in.Type) != "" {
		if typ, err = model.ParsePostType(in.Type); err != nil {
			return nil, apperror.ValidationFailed("type", err.Error())
		}
	}
	if typ == model.PostNeed && author.Role != model.RoleMigrant {
		return nil, apperror.Forbidden("only migrants can publish need posts")
	}

	category, err := model.ParseCategory(in.Category)
	if err != nil {
		return nil, apperror.ValidationFailed("category", err.Error())
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "post title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("post title must be %d characters or less", MaxTitleLength))
	}
	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	images, err := validateImages(in.Images)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		UserID:      author.ID,
		Type:        typ,
		Category:    category,
		Title:       title,
		Description: description,
		Images:      images,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.String("userID", author.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("id", post.ID),
		slog.String("userID", author.ID),
		slog.String("type", string(post.Type)),
		slog.String("category", string(post.Category)),
	)
	return post, nil
}

// List returns the posts matching the optional type and category filters
// that viewerID may see. An empty viewerID is an anonymous caller.
func (s *PostService) List(ctx context.Context, viewerID, typ, category string) ([]model.VisiblePost, error) {
	var filter repository.PostFilter
	var err error
	if strings.TrimSpace(typ) != "" {
		if filter.Type, err = model.ParsePostType(typ); err != nil {
			return nil, apperror.ValidationFailed("type", err.Error())
		}
	}
	if strings.TrimSpace(category) != "" {
		if filter.Category, err = model.ParseCategory(category); err != nil {
			return nil, apperror.ValidationFailed("category", err.Error())
		}
	}

	viewer, err := s.viewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	posts, err := s.engine.VisiblePosts(ctx, viewer, filter)
	if err != nil {
		s.logger.Error("failed to list posts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// Get returns one post as seen by viewerID. A post the viewer may not see
// is reported as not found.
func (s *PostService) Get(ctx context.Context, viewerID, postID string) (*model.VisiblePost, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, apperror.ValidationFailed("id", "post ID is required")
	}

	viewer, err := s.viewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	visible := matching.FilterPosts(viewer, []model.Post{*post})
	if len(visible) == 0 {
		return nil, apperror.NotFound("post", postID)
	}
	return &visible[0], nil
}

// Delete removes a post. Only its author or an admin may do so.
func (s *PostService) Delete(ctx context.Context, callerID, postID string) error {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return apperror.ValidationFailed("id", "post ID is required")
	}

	caller, err := lookupCaller(ctx, s.users, callerID)
	if err != nil {
		return err
	}
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != caller.ID && !caller.IsAdmin() {
		return apperror.Forbidden("only the author or an admin can delete this post")
	}

	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return err
	}

	s.logger.Info("post deleted",
		slog.String("id", postID),
		slog.String("by", caller.ID),
	)
	return nil
}

// viewer resolves the caller for visibility rules. A token whose account no
// longer exists is treated as unauthenticated.
func (s *PostService) viewer(ctx context.Context, viewerID string) (*model.User, error) {
	if viewerID == "" {
		return nil, nil
	}
	return lookupCaller(ctx, s.users, viewerID)
}

func validateImages(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, ref := range raw {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if len(ref) > MaxImageRefLength {
			return nil, apperror.ValidationFailed("images", "image reference is too long")
		}
		out = append(out, ref)
	}
	if len(out) > MaxImages {
		return nil, apperror.ValidationFailed("images",
			fmt.Sprintf("at most %d images per post", MaxImages))
	}
	return out, nil
}
