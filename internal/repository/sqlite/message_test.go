package sqlite

import (
	"context"
	"testing"

	"github.com/watizat/connect/internal/model"
)

func TestConversation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := createTestUser(t, db, "a@example.org", model.RoleMigrant)
	b := createTestUser(t, db, "b@example.org", model.RoleVolunteer)
	c := createTestUser(t, db, "c@example.org", model.RoleVolunteer)

	send := func(from, to *model.User, body string) {
		t.Helper()
		if err := db.CreateMessage(ctx, &model.Message{FromUserID: from.ID, ToUserID: to.ID, Body: body}); err != nil {
			t.Fatalf("CreateMessage() error = %v", err)
		}
	}
	send(a, b, "hello")
	send(c, a, "unrelated")
	send(b, a, "hi, how can I help?")

	msgs, err := db.Conversation(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("Conversation() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Conversation() returned %d messages, want 2", len(msgs))
	}
	if msgs[0].Body != "hello" || msgs[1].Body != "hi, how can I help?" {
		t.Errorf("Conversation() order = %q, %q", msgs[0].Body, msgs[1].Body)
	}

	// Same result from the other side.
	reverse, err := db.Conversation(ctx, b.ID, a.ID)
	if err != nil {
		t.Fatalf("Conversation() reverse error = %v", err)
	}
	if len(reverse) != 2 {
		t.Errorf("reverse Conversation() returned %d messages, want 2", len(reverse))
	}
}

func TestHasMessageFrom(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := createTestUser(t, db, "a@example.org", model.RoleMigrant)
	b := createTestUser(t, db, "b@example.org", model.RoleVolunteer)

	if err := db.CreateMessage(ctx, &model.Message{FromUserID: a.ID, ToUserID: b.ID, Body: "help?"}); err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}

	got, err := db.HasMessageFrom(ctx, a.ID, b.ID)
	if err != nil || !got {
		t.Errorf("HasMessageFrom(a, b) = %v, %v; want true", got, err)
	}
	got, err = db.HasMessageFrom(ctx, b.ID, a.ID)
	if err != nil || got {
		t.Errorf("HasMessageFrom(b, a) = %v, %v; want false", got, err)
	}

	n, err := db.CountMessages(ctx)
	if err != nil || n != 1 {
		t.Errorf("CountMessages() = %d, %v; want 1", n, err)
	}
}
