package session

import (
	"context"
	"errors"
	"sync"

	"github.com/onlyformurshi/zameel-admin-gateway/internal/gateway"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/logger"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/tokenstore"
)

// ErrLoginSuperseded is returned by Login when a newer attempt (or a
// logout) started before this one completed. The stale result is
// discarded; it never overwrites newer state.
var ErrLoginSuperseded = errors.New("session: login superseded by a newer attempt")

// Gateway is the network boundary the manager drives. It is the only
// path to the backend's credential endpoints.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*gateway.LoginResult, error)
	Logout(ctx context.Context) error
}

// State is a snapshot of one visitor's session state. It is derived
// from the token store and never persisted itself.
type State struct {
	IsAuthenticated bool
	User            *tokenstore.User
	Loading         bool
	Err             string
	PreviousPath    string
}

// Manager is the single source of truth for whether one visitor is
// allowed into the protected admin area. One instance per visitor.
//
// Authentication is decided purely from local session material: a
// non-expired token AND a user record must both exist. The backend is
// never consulted here; it must independently reject invalid tokens
// on every protected API call.
type Manager struct {
	mu        sync.Mutex
	store     tokenstore.Store
	gw        Gateway
	loginPath string
	state     State

	// attempt sequence; completions apply only if still current
	loginSeq uint64
}

// NewManager builds a manager and synchronously derives its initial
// state from the token store. No network call is made.
func NewManager(store tokenstore.Store, gw Gateway, loginPath string) *Manager {
	m := &Manager{
		store:     store,
		gw:        gw,
		loginPath: loginPath,
	}
	m.state.PreviousPath = "/"
	m.initFromStore()
	return m
}

func (m *Manager) initFromStore() {
	ctx := context.Background()

	token, err := m.store.Token(ctx)
	if err != nil {
		logger.Warn("session init: token read failed", map[string]any{
			"error": err.Error(),
		})
		return
	}

	expired, err := m.store.IsExpired(ctx)
	if err != nil {
		expired = true
	}

	user, err := m.store.GetUser(ctx)
	if err != nil {
		user = nil
	}

	m.state.User = user
	m.state.IsAuthenticated = token != "" && !expired && user != nil
}

// State returns a copy of the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Login exchanges credentials for a token via the gateway, exactly
// one attempt. Credentials are forwarded as-is, empty strings
// included. On success the token and user record are persisted and
// the state flips to authenticated. On failure the state carries the
// backend message (or a generic fallback) and the error is returned
// to the caller for display.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.mu.Lock()
	m.loginSeq++
	seq := m.loginSeq
	m.state.Loading = true
	m.state.Err = ""
	m.mu.Unlock()

	result, err := m.gw.Login(ctx, email, password)

	m.mu.Lock()
	defer m.mu.Unlock()

	if seq != m.loginSeq {
		return ErrLoginSuperseded
	}

	if err != nil {
		m.state.Loading = false
		m.state.Err = loginErrMessage(err)
		m.state.IsAuthenticated = false
		m.state.User = nil
		return err
	}

	if err := m.persist(ctx, result); err != nil {
		m.state.Loading = false
		m.state.Err = "login failed"
		m.state.IsAuthenticated = false
		m.state.User = nil
		return err
	}

	user := result.Admin
	m.state.User = &user
	m.state.IsAuthenticated = true
	m.state.Loading = false
	m.state.Err = ""
	return nil
}

func (m *Manager) persist(ctx context.Context, result *gateway.LoginResult) error {
	if err := m.store.SetToken(ctx, result.AccessToken); err != nil {
		return err
	}
	return m.store.SetUser(ctx, result.Admin)
}

// Logout notifies the backend best-effort, then unconditionally
// clears the token store and resets the state to the unauthenticated
// default. After Logout returns the visitor is logged out locally
// regardless of server reachability. Idempotent.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.loginSeq++ // supersede any in-flight login
	m.state.Loading = true
	m.mu.Unlock()

	if err := m.gw.Logout(ctx); err != nil {
		logger.Warn("backend logout failed, clearing local session anyway",
			map[string]any{"error": err.Error()})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.ClearAll(ctx); err != nil {
		logger.Error("failed to clear session store", map[string]any{
			"error": err.Error(),
		})
	}

	m.state = State{PreviousPath: "/"}
	return nil
}

// CheckAuthStatus recomputes authentication from the token store: a
// token must be present, not expired, and accompanied by a user
// record. Purely local, no backend call, safe to run on every
// protected navigation. Store read failures read as unauthenticated.
func (m *Manager) CheckAuthStatus(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.store.Token(ctx)
	if err != nil {
		logger.Warn("auth check: token read failed", map[string]any{
			"error": err.Error(),
		})
		return m.failCheck()
	}
	if token == "" {
		return m.failCheck()
	}

	expired, err := m.store.IsExpired(ctx)
	if err != nil || expired {
		return m.failCheck()
	}

	user, err := m.store.GetUser(ctx)
	if err != nil || user == nil {
		return m.failCheck()
	}

	m.state.User = user
	m.state.IsAuthenticated = true
	m.state.Err = ""
	m.state.Loading = false
	return true
}

// failCheck is called with the mutex held.
func (m *Manager) failCheck() bool {
	m.state.IsAuthenticated = false
	m.state.Loading = false
	return false
}

// Token returns the persisted bearer token for forwarding to the
// backend, empty if absent. The backend is the authority on whether
// the token is still honored.
func (m *Manager) Token(ctx context.Context) (string, error) {
	return m.store.Token(ctx)
}

// SetPreviousPath records where the visitor was, so a later login can
// send them back. The login route itself is never recorded.
func (m *Manager) SetPreviousPath(path string) {
	if path == "" || path == m.loginPath {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.PreviousPath = path
}

func loginErrMessage(err error) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "login failed"
}
