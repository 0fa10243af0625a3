package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlyformurshi/zameel-admin-gateway/internal/gateway"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/session"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/tokenstore"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

type fakeGateway struct {
	mu          sync.Mutex
	logoutCalls int
}

func (g *fakeGateway) Login(ctx context.Context, email, password string) (*gateway.LoginResult, error) {
	return &gateway.LoginResult{
		AccessToken: "tok-1",
		Admin:       tokenstore.User{ID: "u1", Email: email, Name: "Admin", Role: "superadmin"},
	}, nil
}

func (g *fakeGateway) Logout(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.logoutCalls++
	return nil
}

type guardEnv struct {
	guard  *Guard
	reg    *session.Registry
	stores map[string]*tokenstore.MemoryStore
	clock  *fakeClock
	gw     *fakeGateway
}

func newGuardEnv(t *testing.T) *guardEnv {
	t.Helper()

	env := &guardEnv{
		stores: make(map[string]*tokenstore.MemoryStore),
		clock:  &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		gw:     &fakeGateway{},
	}

	var mu sync.Mutex
	factory := func(ns string) tokenstore.Store {
		mu.Lock()
		defer mu.Unlock()
		if s, ok := env.stores[ns]; ok {
			return s
		}
		s := tokenstore.NewMemoryStore(24 * time.Hour).WithClock(env.clock)
		env.stores[ns] = s
		return s
	}

	env.reg = session.NewRegistry(factory, env.gw, "/login")
	env.guard = NewGuard(env.reg, "/login")
	return env
}

func protectedHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			t.Error("protected handler reached without user in context")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("protected content"))
	})
}

func adminRequest(sid string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/admin/courses", nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sid})
	}
	return req
}

func TestGuardRedirectsWithoutCookie(t *testing.T) {
	env := newGuardEnv(t)
	handler := env.guard.RequireAuth(protectedHandler(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, adminRequest(""))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fadmin%2Fcourses", rec.Header().Get("Location"))
	assert.NotContains(t, rec.Body.String(), "protected content")
}

func TestGuardRedirectsWithoutValidSession(t *testing.T) {
	env := newGuardEnv(t)
	handler := env.guard.RequireAuth(protectedHandler(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, adminRequest("sid-unknown"))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fadmin%2Fcourses", rec.Header().Get("Location"))

	// the never-authenticated session is wiped locally, not
	// announced to the backend, and not retained
	assert.Equal(t, 0, env.reg.Len())
	env.gw.mu.Lock()
	defer env.gw.mu.Unlock()
	assert.Equal(t, 0, env.gw.logoutCalls)
}

func TestGuardDoesNotRetainBogusSessions(t *testing.T) {
	env := newGuardEnv(t)
	handler := env.guard.RequireAuth(protectedHandler(t))

	for i := 0; i < 1000; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, adminRequest(fmt.Sprintf("bogus-%d", i)))
		require.Equal(t, http.StatusFound, rec.Code)
	}

	assert.Equal(t, 0, env.reg.Len())

	env.gw.mu.Lock()
	defer env.gw.mu.Unlock()
	assert.Equal(t, 0, env.gw.logoutCalls)
}

func TestGuardPassesFreshSession(t *testing.T) {
	env := newGuardEnv(t)
	handler := env.guard.RequireAuth(protectedHandler(t))

	mgr := env.reg.Get("sid-1")
	require.NoError(t, mgr.Login(context.Background(), "a@b.com", "x"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, adminRequest("sid-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "protected content", rec.Body.String())
	assert.Equal(t, "/admin/courses", mgr.State().PreviousPath)
}

func TestGuardRedirectsOnStaleExpiry(t *testing.T) {
	env := newGuardEnv(t)
	handler := env.guard.RequireAuth(protectedHandler(t))

	mgr := env.reg.Get("sid-1")
	require.NoError(t, mgr.Login(context.Background(), "a@b.com", "x"))

	// token and user both still persisted, expiry just elapsed
	env.clock.t = env.clock.t.Add(24*time.Hour + time.Millisecond)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, adminRequest("sid-1"))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fadmin%2Fcourses", rec.Header().Get("Location"))
}

func TestGuardFullCycle(t *testing.T) {
	env := newGuardEnv(t)
	handler := env.guard.RequireAuth(protectedHandler(t))
	ctx := context.Background()

	mgr := env.reg.Get("sid-1")
	require.NoError(t, mgr.Login(ctx, "a@b.com", "x"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, adminRequest("sid-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, mgr.Logout(ctx))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, adminRequest("sid-1"))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fadmin%2Fcourses", rec.Header().Get("Location"))
}

func TestGuardRechecksEveryRequest(t *testing.T) {
	env := newGuardEnv(t)
	handler := env.guard.RequireAuth(protectedHandler(t))
	ctx := context.Background()

	mgr := env.reg.Get("sid-1")
	require.NoError(t, mgr.Login(ctx, "a@b.com", "x"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, adminRequest("sid-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	// session material disappears behind the manager's back
	require.NoError(t, env.stores["sid-1"].ClearAll(ctx))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, adminRequest("sid-1"))
	require.Equal(t, http.StatusFound, rec.Code)
}
