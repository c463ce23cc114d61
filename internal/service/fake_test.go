package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/watizat/connect/internal/apperror"
	"github.com/watizat/connect/internal/auth"
	"github.com/watizat/connect/internal/matching"
	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/repository"
)

// fakeStore is an in-memory implementation of the repositories.
// Set failWith to make every call return that error.
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]model.User
	order    []string
	posts    []model.Post
	comments []model.Comment
	messages []model.Message
	nextID   int
	failWith error
}

var (
	_ repository.UserRepository    = (*fakeStore)(nil)
	_ repository.PostRepository    = (*fakeStore)(nil)
	_ repository.MessageRepository = (*fakeStore)(nil)
	_ repository.CommentRepository = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]model.User)}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return apperror.Conflict("user", u.Email)
		}
	}
	u.ID = f.id("user")
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	f.users[u.ID] = *u
	f.order = append(f.order, u.ID)
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeStore) UpdateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.users[u.ID]; !ok {
		return apperror.NotFound("user", u.ID)
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeStore) ListUsers(context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]model.User, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.users[id])
	}
	return out, nil
}

func (f *fakeStore) UpdateUserRole(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	stored, ok := f.users[u.ID]
	if !ok {
		return apperror.NotFound("user", u.ID)
	}
	stored.Role = u.Role
	stored.HelpCategories = u.HelpCategories
	stored.NeedCategories = u.NeedCategories
	f.users[u.ID] = stored
	return nil
}

func (f *fakeStore) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	for i, uid := range f.order {
		if uid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}

	owned := make(map[string]bool)
	posts := f.posts[:0]
	for _, p := range f.posts {
		if p.UserID == id {
			owned[p.ID] = true
			continue
		}
		posts = append(posts, p)
	}
	f.posts = posts

	comments := f.comments[:0]
	for _, c := range f.comments {
		if c.UserID != id && !owned[c.PostID] {
			comments = append(comments, c)
		}
	}
	f.comments = comments

	messages := f.messages[:0]
	for _, m := range f.messages {
		if m.FromUserID != id && m.ToUserID != id {
			messages = append(messages, m)
		}
	}
	f.messages = messages
	return nil
}

func (f *fakeStore) CountUsersByRole(context.Context) (map[model.Role]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make(map[model.Role]int)
	for _, u := range f.users {
		out[u.Role]++
	}
	return out, nil
}

func (f *fakeStore) CreatePost(_ context.Context, p *model.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	p.ID = f.id("post")
	p.CreatedAt = time.Now()
	f.posts = append(f.posts, *p)
	return nil
}

func (f *fakeStore) GetPostByID(_ context.Context, id string) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, p := range f.posts {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, apperror.NotFound("post", id)
}

func (f *fakeStore) List(_ context.Context, filter repository.PostFilter) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]model.Post, 0)
	for _, p := range f.posts {
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.AuthorID != "" && p.UserID != filter.AuthorID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) ListByAuthor(ctx context.Context, userID string) ([]model.Post, error) {
	return f.List(ctx, repository.PostFilter{AuthorID: userID})
}

func (f *fakeStore) DeletePost(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for i, p := range f.posts {
		if p.ID == id {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("post", id)
}

func (f *fakeStore) CountPostsByType(context.Context) (map[model.PostType]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make(map[model.PostType]int)
	for _, p := range f.posts {
		out[p.Type]++
	}
	return out, nil
}

func (f *fakeStore) CreateMessage(_ context.Context, m *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	m.ID = f.id("msg")
	m.CreatedAt = time.Now()
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeStore) Conversation(_ context.Context, a, b string) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]model.Message, 0)
	for _, m := range f.messages {
		if (m.FromUserID == a && m.ToUserID == b) || (m.FromUserID == b && m.ToUserID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) HasMessageFrom(_ context.Context, from, to string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	for _, m := range f.messages {
		if m.FromUserID == from && m.ToUserID == to {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CountMessages(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	return len(f.messages), nil
}

func (f *fakeStore) CreateComment(_ context.Context, c *model.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	c.ID = f.id("comment")
	c.CreatedAt = time.Now()
	f.comments = append(f.comments, *c)
	return nil
}

func (f *fakeStore) ListComments(_ context.Context, postID string) ([]model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]model.Comment, 0)
	for _, c := range f.comments {
		if c.PostID == postID {
			c.AuthorName = f.users[c.UserID].Name
			out = append(out, c)
		}
	}
	return out, nil
}

// addUser stores u directly, bypassing validation, and returns its ID.
func (f *fakeStore) addUser(u model.User) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = f.id("user")
	}
	f.users[u.ID] = u
	f.order = append(f.order, u.ID)
	return u.ID
}

func (f *fakeStore) addPost(p model.Post) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		p.ID = f.id("post")
	}
	f.posts = append(f.posts, p)
	return p.ID
}

// services bundles every service over one fake store.
type services struct {
	store    *fakeStore
	auth     *AuthService
	posts    *PostService
	chat     *ChatService
	comments *CommentService
	admin    *AdminService
}

func newTestServices(t *testing.T) *services {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newFakeStore()

	tokens, err := auth.NewTokenService("service-test-secret-0123456789", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	engine := matching.NewEngine(store, store, logger)

	posts := NewPostService(store, store, engine, logger)

	return &services{
		store:    store,
		auth:     NewAuthService(store, tokens, auth.NewPasswordServiceForTest(), logger),
		posts:    posts,
		chat:     NewChatService(store, store, engine, logger),
		comments: NewCommentService(store, store, posts, logger),
		admin:    NewAdminService(store, store, store, logger),
	}
}
