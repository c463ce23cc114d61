// Package service holds the business rules between the HTTP handlers and
// the stores: account registration and login, post publication and
// visibility, chat eligibility, messaging and admin statistics.
//
// Services take and return domain types only. Failures are apperror values
// so the handler layer can map them to status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/watizat/connect/internal/apperror"
	"github.com/watizat/connect/internal/auth"
	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/repository"
)

const (
	MaxNameLength     = 100
	MaxFreeTextLength = 500
	MaxLanguages      = 20
	MaxLanguageLength = 32
)

// AuthService handles registration, login and profile maintenance.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the account and a freshly issued session token.
type AuthResult struct {
	User  *model.User
	Token string
}

// RegisterInput is the raw registration payload.
type RegisterInput struct {
	Email            string
	Password         string
	Name             string
	Role             string
	Languages        []string
	HelpCategories   []string
	NeedCategories   []string
	ProfessionalArea string
	Availability     string
}

// ProfileUpdate carries the mutable profile fields. Nil pointers and nil
// slices leave the stored value unchanged.
type ProfileUpdate struct {
	Name             *string
	Languages        []string
	HelpCategories   []string
	NeedCategories   []string
	ProfessionalArea *string
	Availability     *string
}

// Register validates in, creates the account and signs a token for it.
//
// Only migrant and volunteer accounts can be self-registered. Help
// categories are kept for volunteers only and need categories for migrants
// only.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}
	name, err := validateName(in.Name)
	if err != nil {
		return nil, err
	}

	role := model.RoleMigrant
	if strings.TrimSpace(in.Role) != "" {
		role, err = model.ParseRole(in.Role)
		if err != nil {
			return nil, apperror.ValidationFailed("role", err.Error())
		}
	}
	if role == model.RoleAdmin {
		return nil, apperror.ValidationFailed("role", "admin accounts cannot be self-registered")
	}

	user := &model.User{
		Email: email,
		Name:  name,
		Role:  role,
	}
	if user.Languages, err = normalizeLanguages(in.Languages); err != nil {
		return nil, err
	}
	if user.HelpCategories, err = parseCategories("help_categories", in.HelpCategories); err != nil {
		return nil, err
	}
	if user.NeedCategories, err = parseCategories("need_categories", in.NeedCategories); err != nil {
		return nil, err
	}
	if user.ProfessionalArea, err = validateFreeText("professional_area", in.ProfessionalArea); err != nil {
		return nil, err
	}
	if user.Availability, err = validateFreeText("availability", in.Availability); err != nil {
		return nil, err
	}
	normalizeRoleFields(user)

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}
	user.PasswordHash = hash

	if err := s.users.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			s.logger.Error("failed to create user", slog.String("error", err.Error()))
		}
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("role", string(user.Role)),
	)

	return s.issue(user)
}

// CreateAdmin provisions an admin account. It is reachable only from the
// command line, never over HTTP.
func (s *AuthService) CreateAdmin(ctx context.Context, email, password, name string) (*model.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < auth.MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}
	if name, err = validateName(name); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         model.RoleAdmin,
		Languages:    []string{},
	}
	normalizeRoleFields(user)

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("creating admin: %w", err)
	}
	s.logger.Info("admin created", slog.String("userID", user.ID))
	return user, nil
}

// Login checks the credentials and signs a token. Unknown emails and wrong
// passwords produce the same Unauthorized error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		s.logger.Error("failed to load user for login", slog.String("error", err.Error()))
		return nil, fmt.Errorf("logging in: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Info("login rejected", slog.String("userID", user.ID))
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("logging in: %w", err)
	}

	return s.issue(user)
}

// Profile returns the caller's own account.
func (s *AuthService) Profile(ctx context.Context, userID string) (*model.User, error) {
	return lookupCaller(ctx, s.users, userID)
}

// PublicProfile returns what other users may see about id.
func (s *AuthService) PublicProfile(ctx context.Context, id string) (model.PublicProfile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.PublicProfile{}, apperror.ValidationFailed("id", "user ID is required")
	}
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return model.PublicProfile{}, err
	}
	return u.Public(), nil
}

// UpdateProfile applies upd to the caller's account. Role and email are
// fixed after registration.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*model.User, error) {
	user, err := lookupCaller(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		if user.Name, err = validateName(*upd.Name); err != nil {
			return nil, err
		}
	}
	if upd.Languages != nil {
		if user.Languages, err = normalizeLanguages(upd.Languages); err != nil {
			return nil, err
		}
	}
	if upd.HelpCategories != nil {
		if user.HelpCategories, err = parseCategories("help_categories", upd.HelpCategories); err != nil {
			return nil, err
		}
	}
	if upd.NeedCategories != nil {
		if user.NeedCategories, err = parseCategories("need_categories", upd.NeedCategories); err != nil {
			return nil, err
		}
	}
	if upd.ProfessionalArea != nil {
		if user.ProfessionalArea, err = validateFreeText("professional_area", *upd.ProfessionalArea); err != nil {
			return nil, err
		}
	}
	if upd.Availability != nil {
		if user.Availability, err = validateFreeText("availability", *upd.Availability); err != nil {
			return nil, err
		}
	}
	normalizeRoleFields(user)

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to update profile",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	s.logger.Info("profile updated", slog.String("userID", user.ID))
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		s.logger.Error("failed to issue token",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// normalizeRoleFields clears the category list that does not belong to the
// user's role.
func normalizeRoleFields(u *model.User) {
	if u.Role != model.RoleVolunteer {
		u.HelpCategories = []model.Category{}
	}
	if u.Role != model.RoleMigrant {
		u.NeedCategories = []model.Category{}
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.ValidationFailed("email", "email is not a valid address")
	}
	return email, nil
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperror.ValidationFailed("name", "name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}
	return name, nil
}

func validateFreeText(field, raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if utf8.RuneCountInString(v) > MaxFreeTextLength {
		return "", apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be %d characters or less", field, MaxFreeTextLength))
	}
	return v, nil
}

// normalizeLanguages trims, lower-cases and dedupes language codes, keeping
// first-seen order.
func normalizeLanguages(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, l := range raw {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if len(l) > MaxLanguageLength {
			return nil, apperror.ValidationFailed("languages", fmt.Sprintf("language %q is too long", l))
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	if len(out) > MaxLanguages {
		return nil, apperror.ValidationFailed("languages",
			fmt.Sprintf("at most %d languages", MaxLanguages))
	}
	return out, nil
}

func parseCategories(field string, raw []string) ([]model.Category, error) {
	cs, err := model.ParseCategories(raw)
	if err != nil {
		return nil, apperror.ValidationFailed(field, err.Error())
	}
	return cs, nil
}
