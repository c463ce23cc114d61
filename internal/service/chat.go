package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/watizat/connect/internal/apperror"
	"github.com/watizat/connect/internal/matching"
	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/repository"
)

const MaxMessageLength = 2000

// ChatService answers can-chat queries and carries direct messages.
type ChatService struct {
	users    repository.UserRepository
	messages repository.MessageRepository
	engine   *matching.Engine
	logger   *slog.Logger
}

func NewChatService(
	users repository.UserRepository,
	messages repository.MessageRepository,
	engine *matching.Engine,
	logger *slog.Logger,
) *ChatService {
	return &ChatService{
		users:    users,
		messages: messages,
		engine:   engine,
		logger:   logger,
	}
}

// CanChat decides whether callerID may open a conversation with targetID.
// Callers who are not volunteers are always denied.
func (s *ChatService) CanChat(ctx context.Context, callerID, targetID string) (matching.Decision, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return matching.Decision{}, apperror.ValidationFailed("userId", "target user ID is required")
	}

	caller, err := lookupCaller(ctx, s.users, callerID)
	if err != nil {
		return matching.Decision{}, err
	}

	d, err := s.engine.CanChat(ctx, caller, targetID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("can-chat failed",
				slog.String("callerID", caller.ID),
				slog.String("targetID", targetID),
				slog.String("error", err.Error()),
			)
		}
		return matching.Decision{}, err
	}
	return d, nil
}

// Send stores a message from fromID to toID.
//
// A volunteer writing to a migrant first needs an allow from the matching
// engine, unless the migrant already wrote to them. Other pairs are not
// gated.
func (s *ChatService) Send(ctx context.Context, fromID, toID, body string) (*model.Message, error) {
	toID = strings.TrimSpace(toID)
	if toID == "" {
		return nil, apperror.ValidationFailed("to_user_id", "recipient is required")
	}
	if toID == fromID {
		return nil, apperror.ValidationFailed("to_user_id", "cannot message yourself")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperror.ValidationFailed("message", "message is required")
	}
	if utf8.RuneCountInString(body) > MaxMessageLength {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or less", MaxMessageLength))
	}

	from, err := lookupCaller(ctx, s.users, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.users.GetUserByID(ctx, toID)
	if err != nil {
		return nil, err
	}

	if from.IsVolunteer() && to.Role == model.RoleMigrant {
		if err := s.checkVolunteerMayWrite(ctx, from, to); err != nil {
			return nil, err
		}
	}

	msg := &model.Message{FromUserID: from.ID, ToUserID: to.ID, Body: body}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		s.logger.Error("failed to store message",
			slog.String("from", from.ID),
			slog.String("to", to.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("sending message: %w", err)
	}

	s.logger.Info("message sent",
		slog.String("id", msg.ID),
		slog.String("from", from.ID),
		slog.String("to", to.ID),
	)
	return msg, nil
}

func (s *ChatService) checkVolunteerMayWrite(ctx context.Context, volunteer, migrant *model.User) error {
	replied, err := s.messages.HasMessageFrom(ctx, migrant.ID, volunteer.ID)
	if err != nil {
		return fmt.Errorf("checking conversation: %w", err)
	}
	if replied {
		return nil
	}

	d, err := s.engine.CanChat(ctx, volunteer, migrant.ID)
	if err != nil {
		return fmt.Errorf("checking chat eligibility: %w", err)
	}
	if !d.CanChat {
		s.logger.Info("chat denied",
			slog.String("volunteerID", volunteer.ID),
			slog.String("migrantID", migrant.ID),
			slog.String("reason", d.Reason),
		)
		return apperror.Forbidden(d.Reason)
	}
	return nil
}

// Conversation returns the messages between callerID and otherID, oldest
// first.
func (s *ChatService) Conversation(ctx context.Context, callerID, otherID string) ([]model.Message, error) {
	otherID = strings.TrimSpace(otherID)
	if otherID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}
	if _, err := lookupCaller(ctx, s.users, callerID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUserByID(ctx, otherID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.Conversation(ctx, callerID, otherID)
	if err != nil {
		s.logger.Error("failed to load conversation", slog.String("error", err.Error()))
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	return msgs, nil
}
