package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/onlyformurshi/zameel-admin-gateway/internal/gateway"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/logger"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/middleware"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/session"
)

// AuthHandler owns the login/logout HTTP surface of the gateway.
type AuthHandler struct {
	sessions    *session.Registry
	sessionTTL  time.Duration
	loginPath   string
	defaultPath string
}

func NewAuthHandler(
	sessions *session.Registry,
	sessionTTL time.Duration,
	loginPath string,
	defaultPath string,
) *AuthHandler {
	return &AuthHandler{
		sessions:    sessions,
		sessionTTL:  sessionTTL,
		loginPath:   loginPath,
		defaultPath: defaultPath,
	}
}

func (h *AuthHandler) RegisterRoutes(r *gin.Engine) {
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.GET(h.loginPath, h.LoginEntry)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login binds credentials and runs the session manager's login. No
// client-side validation: empty fields travel to the backend as-is.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	// Every login gets a newly minted session ID; a client-presented
	// cookie value is never reused as a store namespace.
	sessionID, err := session.GenerateID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return
	}

	mgr := h.sessions.Get(sessionID)

	if err := mgr.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		h.loginError(c, mgr, err)
		// no cookie was issued, keep nothing
		h.sessions.Drop(sessionID)
		return
	}

	// retire whatever session the visitor carried before
	if prev, err := c.Request.Cookie(session.CookieName); err == nil &&
		prev.Value != "" && prev.Value != sessionID {
		h.sessions.Discard(c.Request.Context(), prev.Value)
	}

	expiresAt := time.Now().Add(h.sessionTTL)
	session.SetCookie(c.Writer, sessionID, expiresAt, session.CookieOptions{
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	st := mgr.State()

	logger.Info("admin login", map[string]any{
		"email": req.Email,
		"ip":    c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"status":   "authenticated",
		"user":     st.User,
		"redirect": h.redirectTarget(c.Query("next"), st.PreviousPath),
	})
}

func (h *AuthHandler) loginError(c *gin.Context, mgr *session.Manager, err error) {
	var apiErr *gateway.APIError
	switch {
	case errors.As(err, &apiErr):
		// propagate the backend's verdict unchanged
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Message})
	case errors.Is(err, session.ErrLoginSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": "login superseded"})
	default:
		logger.Error("login failed", map[string]any{"error": err.Error()})
		c.JSON(http.StatusBadGateway, gin.H{"error": mgr.State().Err})
	}
}

// Logout is unconditional: backend notification is best-effort inside
// the manager, local state and the cookie are always cleared.
func (h *AuthHandler) Logout(c *gin.Context) {
	cookie, err := c.Request.Cookie(session.CookieName)
	if err == nil && cookie.Value != "" {
		mgr := h.sessions.Get(cookie.Value)
		_ = mgr.Logout(c.Request.Context())
		h.sessions.Drop(cookie.Value)

		logger.Info("admin logout", map[string]any{"ip": c.ClientIP()})
	}

	session.ClearCookie(c.Writer, session.CookieOptions{
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	c.Status(http.StatusNoContent)
}

// LoginEntry is where the guard sends unauthenticated visitors. The
// dashboard frontend renders the form; this endpoint just reflects
// the attempted path so the frontend can return the visitor there.
func (h *AuthHandler) LoginEntry(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "login_required",
		"next":   h.redirectTarget(c.Query("next"), ""),
	})
}

// Me returns the stored admin record. Protected; the guard has
// already validated the session.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.UserFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// redirectTarget picks where to send the visitor after login: the
// attempted path if it is a safe local one, else the remembered
// previous path, else the dashboard landing page. Absolute and
// scheme-relative URLs are rejected to keep redirects on-site.
func (h *AuthHandler) redirectTarget(next, previous string) string {
	if isLocalPath(next) && next != h.loginPath {
		return next
	}
	if isLocalPath(previous) && previous != "/" {
		return previous
	}
	return h.defaultPath
}

func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, "://")
}
