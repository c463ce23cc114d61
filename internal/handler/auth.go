package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/watizat/connect/internal/auth"
	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/service"
)

// AuthHandler serves registration, login, logout and profile routes.
type AuthHandler struct {
	svc          *service.AuthService
	tokens       *auth.TokenService
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler. secureCookie marks the session
// cookie Secure; enable it behind HTTPS.
func NewAuthHandler(svc *service.AuthService, tokens *auth.TokenService, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:          svc,
		tokens:       tokens,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type registerRequest struct {
	Email            string   `json:"email"`
	Password         string   `json:"password"`
	Name             string   `json:"name"`
	Role             string   `json:"role"`
	Languages        []string `json:"languages"`
	HelpCategories   []string `json:"help_categories"`
	NeedCategories   []string `json:"need_categories"`
	ProfessionalArea string   `json:"professional_area"`
	Availability     string   `json:"availability"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name             *string  `json:"name"`
	Languages        []string `json:"languages"`
	HelpCategories   []string `json:"help_categories"`
	NeedCategories   []string `json:"need_categories"`
	ProfessionalArea *string  `json:"professional_area"`
	Availability     *string  `json:"availability"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid registration JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	res, err := h.svc.Register(r.Context(), service.RegisterInput{
		Email:            req.Email,
		Password:         req.Password,
		Name:             req.Name,
		Role:             req.Role,
		Languages:        req.Languages,
		HelpCategories:   req.HelpCategories,
		NeedCategories:   req.NeedCategories,
		ProfessionalArea: req.ProfessionalArea,
		Availability:     req.Availability,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	writeJSON(w, http.StatusCreated, AuthResponse{Token: res.Token, User: res.User})
}

// HandleLogin exchanges credentials for a session token.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid login JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	writeJSON(w, http.StatusOK, AuthResponse{Token: res.Token, User: res.User})
}

// HandleLogout deletes the session cookie. Tokens are stateless, so a
// bearer token stays valid until it expires.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleProfile returns the caller's account.
//
// HTTP: GET /api/profile
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.svc.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdateProfile applies a partial profile update.
//
// HTTP: PUT /api/profile
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid profile JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), userID, service.ProfileUpdate{
		Name:             req.Name,
		Languages:        req.Languages,
		HelpCategories:   req.HelpCategories,
		NeedCategories:   req.NeedCategories,
		ProfessionalArea: req.ProfessionalArea,
		Availability:     req.Availability,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleGetUser returns another user's public profile.
//
// HTTP: GET /api/users/{id}
func (h *AuthHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.PublicProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
