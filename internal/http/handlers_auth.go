package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/campusdesk/campusdesk/internal/service"
)

var errPasswordTooShort = errors.New("password must be at least 8 characters")

// AuthHandlers exposes the session controller over HTTP.
type AuthHandlers struct {
	Sessions *service.SessionController
	Logger   *slog.Logger
}

type loginRequest struct {
	// Identifier is a bare username or a full email address.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type changePasswordRequest struct {
	Password string `json:"password"`
}

// Login handles POST /auth/login. A rejected credential answers 401 with the
// provider's message for inline display; the form stays put.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := h.Sessions.Login(r.Context(), req.Identifier, req.Password); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, h.Sessions.CurrentUser())
}

// LoginWithGoogle handles GET /auth/google by redirecting the browser to the
// Google authorization URL. When the redirect cannot be built the error has
// already been logged; the user lands back on the login view.
func (h *AuthHandlers) LoginWithGoogle(w http.ResponseWriter, r *http.Request) {
	authURL := h.Sessions.LoginWithGoogle(r.Context())
	if authURL == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Logout handles POST /auth/logout. Local state is already cleared when the
// provider revoke fails, so the client is signed out either way.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(r.Context()); err != nil {
		h.Logger.ErrorContext(r.Context(), "provider sign-out failed", "error", err)
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// ChangePassword handles POST /auth/password, completing the forced
// password change.
func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if len(req.Password) < 8 {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation",
			Err:     errPasswordTooShort,
		})
		return
	}

	if err := h.Sessions.ChangePassword(r.Context(), req.Password); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, h.Sessions.CurrentUser())
}

// Session handles GET /auth/session, returning the published auth state for
// the client shell to settle its initial view.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Sessions.CurrentUser())
}
