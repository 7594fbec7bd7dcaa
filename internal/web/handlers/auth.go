package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pflegedidaktik/gpa-adaptiv/internal/auth"
	webmiddleware "github.com/pflegedidaktik/gpa-adaptiv/internal/web/middleware"
)

const minPasswordLength = 8

type setupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Setup creates the teacher account on first run. Refused once a user exists.
func (h *Handlers) Setup(w http.ResponseWriter, r *http.Request) {
	firstRun, err := h.db.IsFirstRun()
	if err != nil {
		log.Error().Err(err).Msg("Failed to check first run")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !firstRun {
		h.jsonError(w, "setup already completed", http.StatusConflict)
		return
	}

	var req setupRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		h.jsonError(w, "username is required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < minPasswordLength {
		h.jsonError(w, "password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	user, err := h.authService.CreateUser(req.Username, req.Password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create teacher account")
		h.jsonError(w, "failed to create account", http.StatusInternalServerError)
		return
	}

	log.Info().Str("username", user.Username).Msg("Teacher account created")
	h.createSessionAndRespond(w, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates the teacher and sets the session cookie.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Authenticate(req.Username, req.Password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to authenticate")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		log.Warn().Str("username", req.Username).Str("remote", r.RemoteAddr).Msg("Failed login attempt")
		h.jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	h.createSessionAndRespond(w, user)
}

func (h *Handlers) createSessionAndRespond(w http.ResponseWriter, user *auth.User) {
	session, err := h.authService.CreateSession(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	c := &http.Cookie{
		Name:     webmiddleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
	}
	h.applyCookieSecurity(c)
	http.SetCookie(w, c)

	h.writeJSON(w, http.StatusOK, map[string]any{
		"username":   user.Username,
		"expires_at": session.ExpiresAt,
	})
}

// Logout deletes the session and clears the cookie.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := webmiddleware.GetSessionID(r.Context()); sessionID != "" {
		if err := h.authService.DeleteSession(sessionID); err != nil {
			log.Error().Err(err).Msg("Failed to delete session")
		}
	}

	c := &http.Cookie{
		Name:     webmiddleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	}
	h.applyCookieSecurity(c)
	http.SetCookie(w, c)

	h.jsonSuccess(w, "logged out")
}

// Me returns the authenticated teacher.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user := webmiddleware.GetUser(r.Context())
	if user == nil {
		h.jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"username":   user.Username,
		"created_at": user.CreatedAt,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword updates the teacher password after verifying the current one.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := webmiddleware.GetUser(r.Context())
	if user == nil {
		h.jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req changePasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if !auth.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		h.jsonError(w, "current password is incorrect", http.StatusForbidden)
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		h.jsonError(w, "password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	if err := h.authService.UpdatePassword(user.ID, req.NewPassword); err != nil {
		log.Error().Err(err).Msg("Failed to update password")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.jsonSuccess(w, "password updated")
}
