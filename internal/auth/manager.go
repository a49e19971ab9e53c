// Package auth owns the session lifecycle: restoring a persisted session at
// startup, signing in and out, and the redirect rule the navigation layer
// consumes. State lives in an injectable Manager rather than package globals
// so tests can substitute stores and servers freely.
package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"example.com/confeitapp/internal/api"
	"example.com/confeitapp/internal/session"
)

const (
	signInFallback   = "Email ou senha incorretos."
	registerFallback = "Não foi possível registrar."
)

// Manager coordinates the API client and the two session tiers. The token and
// the serialized user are either both persisted or both absent; every exit
// path below preserves that invariant.
type Manager struct {
	client  *api.Client
	secrets session.Store
	profile session.Store
	logger  *slog.Logger

	mu      sync.Mutex
	user    *api.User
	loading bool
}

// NewManager wires a manager. The secret store holds the token, the profile
// store the serialized user.
func NewManager(client *api.Client, secrets, profile session.Store, logger *slog.Logger) *Manager {
	return &Manager{
		client:  client,
		secrets: secrets,
		profile: profile,
		logger:  logger,
		loading: true,
	}
}

// User returns the signed-in user, or nil when anonymous.
func (m *Manager) User() *api.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Loading reports whether an auth transition is in flight. The redirect rule
// must not run while this is true.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}

func (m *Manager) setUser(u *api.User) {
	m.mu.Lock()
	m.user = u
	m.mu.Unlock()
}

// Bootstrap restores a persisted session once at process start. A token
// without a user (or the reverse, or any read failure) degrades to a clean
// anonymous state; Bootstrap never reports an error to its caller.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.setLoading(true)
	defer m.setLoading(false)

	token, haveToken, err := m.secrets.Get(ctx, session.TokenKey)
	if err != nil {
		m.logger.Warn("session restore failed", "error", err)
		m.SignOut(ctx)
		return
	}
	raw, haveUser, err := m.profile.Get(ctx, session.UserKey)
	if err != nil {
		m.logger.Warn("session restore failed", "error", err)
		m.SignOut(ctx)
		return
	}

	if !haveToken || token == "" || !haveUser {
		m.SignOut(ctx)
		return
	}

	var user api.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		m.logger.Warn("stored profile is corrupt", "error", err)
		m.SignOut(ctx)
		return
	}
	m.setUser(&user)
}

// SignIn authenticates and persists the session. On any failure the persisted
// session is fully cleared and a user-facing error is returned for the form
// to display.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	if err := checkInput(Credentials{Email: email, Password: password}); err != nil {
		return err
	}

	m.setLoading(true)
	defer m.setLoading(false)

	data, err := m.client.Login(ctx, email, password)
	if err != nil {
		m.logger.Info("sign-in rejected", "email", email, "error", err)
		m.SignOut(ctx)
		return &api.Error{Message: api.UserMessage(err, signInFallback), Code: api.ErrorCode(err)}
	}

	if err := m.persistSession(ctx, data); err != nil {
		m.logger.Error("persist session failed", "error", err)
		m.SignOut(ctx)
		return &api.Error{Message: signInFallback}
	}
	m.setUser(&data.User)
	return nil
}

// persistSession writes both tiers, undoing the token write if the profile
// write fails so the tiers never end up split.
func (m *Manager) persistSession(ctx context.Context, data api.AuthData) error {
	serialized, err := json.Marshal(data.User)
	if err != nil {
		return err
	}
	if err := m.secrets.Set(ctx, session.TokenKey, data.Token); err != nil {
		return err
	}
	if err := m.profile.Set(ctx, session.UserKey, string(serialized)); err != nil {
		if delErr := m.secrets.Delete(ctx, session.TokenKey); delErr != nil {
			m.logger.Error("undo token write failed", "error", delErr)
		}
		return err
	}
	return nil
}

// SignUp registers the seller and, on success, signs in with the same
// credentials so registration lands the user inside the app. Loading is reset
// here as well, in case the nested sign-in fails before resetting it.
func (m *Manager) SignUp(ctx context.Context, name, email, password, phone string) error {
	if err := checkInput(Registration{Name: name, Email: email, Password: password, Phone: phone}); err != nil {
		return err
	}

	m.setLoading(true)
	defer m.setLoading(false)

	if err := m.client.Register(ctx, name, email, password, phone); err != nil {
		m.logger.Info("registration rejected", "email", email, "error", err)
		return &api.Error{Message: api.UserMessage(err, registerFallback), Code: api.ErrorCode(err)}
	}
	return m.SignIn(ctx, email, password)
}

// SignOut clears both tiers and drops the in-memory user. Best effort: store
// failures are logged, never returned, and Loading is left untouched.
func (m *Manager) SignOut(ctx context.Context) {
	if err := m.secrets.Delete(ctx, session.TokenKey); err != nil {
		m.logger.Error("clear token failed", "error", err)
	}
	if err := m.profile.Delete(ctx, session.UserKey); err != nil {
		m.logger.Error("clear profile failed", "error", err)
	}
	m.setUser(nil)
}
