package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/watizat/connect/internal/apperror"
	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/repository"
)

func createTestPost(t *testing.T, db *DB, userID string, typ model.PostType, cat model.Category) *model.Post {
	t.Helper()
	p := &model.Post{
		UserID:      userID,
		Type:        typ,
		Category:    cat,
		Title:       string(typ) + " " + string(cat),
		Description: "details",
	}
	if err := db.CreatePost(context.Background(), p); err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}
	return p
}

func postIDs(posts []model.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestCreatePost_AndGet(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "m@example.org", model.RoleMigrant)

	p := &model.Post{
		UserID:   owner.ID,
		Type:     model.PostNeed,
		Category: model.CategoryFood,
		Title:    "Food bank nearby?",
		Images:   []string{"https://img.example.org/1.png"},
	}
	if err := db.CreatePost(context.Background(), p); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	if p.ID == "" || p.CreatedAt.IsZero() {
		t.Fatal("CreatePost() did not set ID/CreatedAt")
	}

	found, err := db.GetPostByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetPostByID() error = %v", err)
	}
	if found.Category != model.CategoryFood || found.Type != model.PostNeed {
		t.Errorf("found = %+v", found)
	}
	if len(found.Images) != 1 {
		t.Errorf("Images = %v, want 1 entry", found.Images)
	}
}

func TestCreatePost_UnknownOwnerFails(t *testing.T) {
	db := newTestDB(t)

	p := &model.Post{UserID: "ghost", Type: model.PostNeed, Category: model.CategoryFood, Title: "x"}
	if err := db.CreatePost(context.Background(), p); err == nil {
		t.Fatal("CreatePost() should fail the foreign key check")
	}
}

func TestGetPostByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetPostByID(context.Background(), "nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetPostByID() error = %v, want ErrNotFound", err)
	}
}

func TestList_InsertionOrderAndFilters(t *testing.T) {
	db := newTestDB(t)
	m := createTestUser(t, db, "m@example.org", model.RoleMigrant)
	v := createTestUser(t, db, "v@example.org", model.RoleVolunteer)

	p1 := createTestPost(t, db, m.ID, model.PostNeed, model.CategoryLegal)
	p2 := createTestPost(t, db, v.ID, model.PostOffer, model.CategoryFood)
	p3 := createTestPost(t, db, m.ID, model.PostNeed, model.CategoryFood)

	tests := []struct {
		name   string
		filter repository.PostFilter
		want   []string
	}{
		{name: "all", filter: repository.PostFilter{}, want: []string{p1.ID, p2.ID, p3.ID}},
		{name: "needs", filter: repository.PostFilter{Type: model.PostNeed}, want: []string{p1.ID, p3.ID}},
		{name: "food", filter: repository.PostFilter{Category: model.CategoryFood}, want: []string{p2.ID, p3.ID}},
		{name: "author", filter: repository.PostFilter{AuthorID: v.ID}, want: []string{p2.ID}},
		{name: "no match", filter: repository.PostFilter{Category: model.CategoryWork}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.List(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			ids := postIDs(got)
			if len(ids) != len(tt.want) {
				t.Fatalf("List() = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("List()[%d] = %s, want %s", i, ids[i], tt.want[i])
				}
			}
		})
	}
}

func TestListByAuthor(t *testing.T) {
	db := newTestDB(t)
	m := createTestUser(t, db, "m@example.org", model.RoleMigrant)
	other := createTestUser(t, db, "o@example.org", model.RoleMigrant)

	createTestPost(t, db, m.ID, model.PostNeed, model.CategoryFood)
	createTestPost(t, db, other.ID, model.PostNeed, model.CategoryLegal)
	createTestPost(t, db, m.ID, model.PostNeed, model.CategoryHealth)

	got, err := db.ListByAuthor(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("ListByAuthor() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByAuthor() returned %d posts, want 2", len(got))
	}
	for _, p := range got {
		if p.UserID != m.ID {
			t.Errorf("post %s belongs to %s", p.ID, p.UserID)
		}
	}
}

func TestDeletePost(t *testing.T) {
	db := newTestDB(t)
	m := createTestUser(t, db, "m@example.org", model.RoleMigrant)
	p := createTestPost(t, db, m.ID, model.PostNeed, model.CategoryFood)

	if err := db.DeletePost(context.Background(), p.ID); err != nil {
		t.Fatalf("DeletePost() error = %v", err)
	}
	if _, err := db.GetPostByID(context.Background(), p.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: error = %v, want ErrNotFound", err)
	}
	if err := db.DeletePost(context.Background(), p.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second delete: error = %v, want ErrNotFound", err)
	}
}

func TestCountPostsByType(t *testing.T) {
	db := newTestDB(t)
	m := createTestUser(t, db, "m@example.org", model.RoleMigrant)
	createTestPost(t, db, m.ID, model.PostNeed, model.CategoryFood)
	createTestPost(t, db, m.ID, model.PostNeed, model.CategoryLegal)
	createTestPost(t, db, m.ID, model.PostOffer, model.CategoryLegal)

	counts, err := db.CountPostsByType(context.Background())
	if err != nil {
		t.Fatalf("CountPostsByType() error = %v", err)
	}
	if counts[model.PostNeed] != 2 || counts[model.PostOffer] != 1 {
		t.Errorf("counts = %v", counts)
	}
}
