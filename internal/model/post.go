package model

import (
	"fmt"
	"strings"
	"time"
)

// PostType separates requests for help from advertisements of help.
type PostType string

const (
	PostNeed  PostType = "need"
	PostOffer PostType = "offer"
)

// ParsePostType normalises s and checks it is need or offer.
func ParsePostType(s string) (PostType, error) {
	t := PostType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case PostNeed, PostOffer:
		return t, nil
	}
	return "", fmt.Errorf("unknown post type %q", s)
}

// Post is a need or offer published by one user, tagged with one category.
// Posts are not edited after creation.
type Post struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        PostType  `json:"type"`
	Category    Category  `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
}

// VisiblePost is a Post as returned to a particular viewer.
// CanHelp is derived per viewer and never stored.
type VisiblePost struct {
	Post
	CanHelp bool `json:"can_help"`
}

// Message is a direct message between two users.
type Message struct {
	ID         string    `json:"id"`
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	Body       string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// Comment is a reply under a post. AuthorName is filled from the author's
// account when comments are listed.
type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	UserID     string    `json:"user_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}
