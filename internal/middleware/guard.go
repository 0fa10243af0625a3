package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/onlyformurshi/zameel-admin-gateway/internal/session"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/tokenstore"
)

// unexported, collision-proof context key
type userContextKeyType struct{}

var userKey = userContextKeyType{}

// UserFromContext extracts the authenticated admin record placed by
// the guard.
func UserFromContext(ctx context.Context) (*tokenstore.User, bool) {
	u, ok := ctx.Value(userKey).(*tokenstore.User)
	return u, ok
}

// Guard gates the protected admin subtree. Every request into the
// subtree re-validates the session from durable state; nothing is
// cached across requests, and no protected bytes are written before
// the check completes. Unauthenticated visitors are redirected to the
// login route carrying the path they attempted to reach.
type Guard struct {
	Sessions  *session.Registry
	LoginPath string
}

func NewGuard(sessions *session.Registry, loginPath string) *Guard {
	return &Guard{Sessions: sessions, LoginPath: loginPath}
}

func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempted := r.URL.RequestURI()

		// 1. Read session cookie
		cookie, err := r.Cookie(session.CookieName)
		if err != nil || cookie.Value == "" {
			g.redirectToLogin(w, r, attempted)
			return
		}

		mgr := g.Sessions.Get(cookie.Value)

		// 2. Fresh local validity check, every request
		if !mgr.CheckAuthStatus(r.Context()) {
			// Wipe stale partial state and forget the manager. A
			// session that failed the local check is not announced
			// to the backend; bogus cookies must not drive backend
			// traffic or registry growth.
			g.Sessions.Discard(r.Context(), cookie.Value)
			g.redirectToLogin(w, r, attempted)
			return
		}

		// 3. Remember where the visitor is for post-login return
		mgr.SetPreviousPath(attempted)

		// 4. Attach the admin record and continue
		st := mgr.State()
		ctx := context.WithValue(r.Context(), userKey, st.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Guard) redirectToLogin(w http.ResponseWriter, r *http.Request, attempted string) {
	target := g.LoginPath + "?next=" + url.QueryEscape(attempted)
	http.Redirect(w, r, target, http.StatusFound)
}
