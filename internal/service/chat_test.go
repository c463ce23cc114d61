package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/watizat/connect/internal/apperror"
	"github.com/watizat/connect/internal/matching"
	"github.com/watizat/connect/internal/model"
)

func TestCanChat(t *testing.T) {
	s := newTestServices(t)
	sd := seedScenario(s)
	ctx := context.Background()

	tests := []struct {
		name       string
		caller     string
		target     string
		wantChat   bool
		wantReason string
	}{
		{"food/health volunteer matches on food", sd.volFoodHealth, sd.migrant, true, "food"},
		{"education volunteer has no match", sd.volEducation, sd.migrant, false, matching.ReasonNoMatchingCategories},
		{"volunteer without categories", sd.volEmpty, sd.migrant, false, matching.ReasonNoMatchingCategories},
		{"migrant caller is never allowed", sd.migrant, sd.volFoodHealth, false, matching.ReasonNoMatchingCategories},
		{"target without need posts", sd.volFoodHealth, sd.admin, false, matching.ReasonNoMatchingCategories},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := s.chat.CanChat(ctx, tt.caller, tt.target)
			if err != nil {
				t.Fatalf("CanChat() error = %v", err)
			}
			if d.CanChat != tt.wantChat || d.Reason != tt.wantReason {
				t.Errorf("CanChat() = %+v, want can_chat=%v reason=%q", d, tt.wantChat, tt.wantReason)
			}
		})
	}

	if _, err := s.chat.CanChat(ctx, sd.volFoodHealth, "ghost"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("CanChat(unknown target) error = %v, want not found", err)
	}
	if _, err := s.chat.CanChat(ctx, sd.volFoodHealth, " "); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("CanChat(blank target) error = %v, want validation", err)
	}
}

func TestSend_VolunteerGate(t *testing.T) {
	s := newTestServices(t)
	sd := seedScenario(s)
	ctx := context.Background()

	if _, err := s.chat.Send(ctx, sd.volFoodHealth, sd.migrant, "I can bring groceries"); err != nil {
		t.Errorf("Send(matching volunteer) error = %v", err)
	}

	_, err := s.chat.Send(ctx, sd.volEducation, sd.migrant, "hello")
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Send(non-matching volunteer) error = %v, want forbidden", err)
	}
	if appErr.Message != matching.ReasonNoMatchingCategories {
		t.Errorf("forbidden message = %q, want %q", appErr.Message, matching.ReasonNoMatchingCategories)
	}

	// Once the migrant writes first, the volunteer may answer.
	if _, err := s.chat.Send(ctx, sd.migrant, sd.volEducation, "can you help with French?"); err != nil {
		t.Fatalf("Send(migrant) error = %v", err)
	}
	if _, err := s.chat.Send(ctx, sd.volEducation, sd.migrant, "sure"); err != nil {
		t.Errorf("Send(reply) error = %v", err)
	}

	// Volunteer to volunteer is not gated.
	if _, err := s.chat.Send(ctx, sd.volEmpty, sd.volEducation, "hi colleague"); err != nil {
		t.Errorf("Send(volunteer to volunteer) error = %v", err)
	}
}

func TestSend_Validation(t *testing.T) {
	s := newTestServices(t)
	sd := seedScenario(s)
	ctx := context.Background()

	tests := []struct {
		name     string
		from, to string
		body     string
		wantErr  error
	}{
		{"empty body", sd.migrant, sd.volFoodHealth, "   ", apperror.ErrValidation},
		{"to self", sd.migrant, sd.migrant, "hi", apperror.ErrValidation},
		{"no recipient", sd.migrant, "", "hi", apperror.ErrValidation},
		{"unknown recipient", sd.migrant, "ghost", "hi", apperror.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.chat.Send(ctx, tt.from, tt.to, tt.body); !errors.Is(err, tt.wantErr) {
				t.Errorf("Send() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConversation(t *testing.T) {
	s := newTestServices(t)
	sd := seedScenario(s)
	ctx := context.Background()

	for _, m := range []struct{ from, to, body string }{
		{sd.migrant, sd.volFoodHealth, "one"},
		{sd.volFoodHealth, sd.migrant, "two"},
		{sd.migrant, sd.volEducation, "elsewhere"},
	} {
		if _, err := s.chat.Send(ctx, m.from, m.to, m.body); err != nil {
			t.Fatalf("Send(%q) error = %v", m.body, err)
		}
	}

	msgs, err := s.chat.Conversation(ctx, sd.volFoodHealth, sd.migrant)
	if err != nil {
		t.Fatalf("Conversation() error = %v", err)
	}
	if len(msgs) != 2 || msgs[0].Body != "one" || msgs[1].Body != "two" {
		t.Errorf("Conversation() = %+v, want [one two]", msgs)
	}

	if _, err := s.chat.Conversation(ctx, sd.migrant, "ghost"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Conversation(ghost) error = %v, want not found", err)
	}
}

func TestAdminStats(t *testing.T) {
	s := newTestServices(t)
	sd := seedScenario(s)
	ctx := context.Background()
	if _, err := s.chat.Send(ctx, sd.migrant, sd.volFoodHealth, "hi"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	st, err := s.admin.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st.UsersByRole[model.RoleVolunteer] != 3 || st.UsersByRole[model.RoleMigrant] != 1 || st.UsersByRole[model.RoleAdmin] != 1 {
		t.Errorf("UsersByRole = %v", st.UsersByRole)
	}
	if st.TotalUsers != 5 || st.TotalPosts != 3 || st.Messages != 1 {
		t.Errorf("totals = users %d posts %d messages %d", st.TotalUsers, st.TotalPosts, st.Messages)
	}
	if st.PostsByType[model.PostNeed] != 2 || st.PostsByType[model.PostOffer] != 1 {
		t.Errorf("PostsByType = %v", st.PostsByType)
	}

	s.store.failWith = errors.New("disk on fire")
	if _, err := s.admin.Stats(ctx); err == nil {
		t.Error("Stats() should propagate store errors")
	}
}

func TestChat_DeletedCallerIsUnauthorized(t *testing.T) {
	s := newTestServices(t)
	sd := seedScenario(s)
	ctx := context.Background()

	if err := s.store.DeleteUser(ctx, sd.volFoodHealth); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	_, err := s.chat.CanChat(ctx, sd.volFoodHealth, sd.migrant)
	if !errors.Is(err, apperror.ErrUnauthorized) || errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("CanChat() error = %v, want unauthorized", err)
	}
	_, err = s.chat.Send(ctx, sd.volFoodHealth, sd.migrant, "still there?")
	if !errors.Is(err, apperror.ErrUnauthorized) || errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Send() error = %v, want unauthorized", err)
	}
	_, err = s.chat.Conversation(ctx, sd.volFoodHealth, sd.migrant)
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Conversation() error = %v, want unauthorized", err)
	}
}

func TestSend_LengthCountsCharacters(t *testing.T) {
	s := newTestServices(t)
	sd := seedScenario(s)
	ctx := context.Background()

	body := strings.Repeat("م", MaxMessageLength)
	if _, err := s.chat.Send(ctx, sd.migrant, sd.volEducation, body); err != nil {
		t.Errorf("Send(%d Arabic letters) error = %v", MaxMessageLength, err)
	}
	if _, err := s.chat.Send(ctx, sd.migrant, sd.volEducation, body+"م"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Send(over limit) error = %v, want validation", err)
	}
}
