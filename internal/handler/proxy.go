package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onlyformurshi/zameel-admin-gateway/internal/gateway"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/logger"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/session"
)

// hopByHopHeaders belong to the connection, not the payload (RFC
// 9110 §7.6.1), and must not travel through the proxy.
var hopByHopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

// ProxyHandler forwards content-management calls (courses, events,
// faculty, gallery, FAQ, home sections, footer) to the academy
// backend with the session's bearer token attached. The backend stays
// the authority: an expired or revoked token is rejected there even
// though the guard's local check passed.
type ProxyHandler struct {
	sessions *session.Registry
	gw       *gateway.Client
}

func NewProxyHandler(sessions *session.Registry, gw *gateway.Client) *ProxyHandler {
	return &ProxyHandler{sessions: sessions, gw: gw}
}

// Forward relays /admin/api/*path to the backend's /*path.
func (h *ProxyHandler) Forward(c *gin.Context) {
	cookie, err := c.Request.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	mgr := h.sessions.Get(cookie.Value)

	token, err := mgr.Token(c.Request.Context())
	if err != nil || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	resp, err := h.gw.Forward(
		c.Request.Context(),
		c.Request.Method,
		c.Param("path"),
		c.Request.URL.Query(),
		c.Request.Body,
		c.ContentType(),
		token,
	)
	if err != nil {
		logger.Error("backend forward failed", map[string]any{
			"method": c.Request.Method,
			"path":   c.Param("path"),
			"error":  err.Error(),
		})
		c.JSON(http.StatusBadGateway, gin.H{"error": "backend unavailable"})
		return
	}
	defer resp.Body.Close()

	// the backend's response travels through whole, minus
	// hop-by-hop headers
	for name, values := range resp.Header {
		if _, skip := hopByHopHeaders[name]; skip {
			continue
		}
		for _, v := range values {
			c.Writer.Header().Add(name, v)
		}
	}

	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		logger.Warn("backend response copy interrupted", map[string]any{
			"error": err.Error(),
		})
	}
}
