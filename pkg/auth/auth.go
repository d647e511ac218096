// Package auth manages the local user's session: bootstrap from the session
// store, token login, the redirect based login flow and logout.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lookup-erp/lookup/pkg/config"
	"github.com/lookup-erp/lookup/pkg/models"
	"github.com/lookup-erp/lookup/pkg/session"
)

var (
	// ErrNoSession is returned when no user is logged in.
	ErrNoSession = errors.New("not logged in")
	// ErrSessionExpired is returned when the stored token has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrStateMismatch is returned when a login callback carries an unknown state.
	ErrStateMismatch = errors.New("login state mismatch")
)

const stateKey = "oauth.state"

// Manager owns the current session.
type Manager struct {
	cfg   config.AuthConfig
	store session.Store
	log   zerolog.Logger
	now   func() time.Time

	mu       sync.Mutex
	current  *models.Session
	version  int64
	onLogout []func()
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now as the manager's time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates a Manager on top of store.
func New(cfg config.AuthConfig, store session.Store, log zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		cfg:   cfg,
		store: store,
		log:   log.With().Str("component", "auth").Logger(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnLogout registers fn to run after every logout, local or from another process.
func (m *Manager) OnLogout(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLogout = append(m.onLogout, fn)
}

// Bootstrap loads the persisted session. An expired session is removed.
func (m *Manager) Bootstrap(ctx context.Context) (models.Session, error) {
	sess, ok, err := m.store.LoadSession(ctx)
	if err != nil {
		return models.Session{}, err
	}
	version, err := m.store.SessionVersion(ctx)
	if err != nil {
		return models.Session{}, err
	}

	if !ok {
		m.setCurrent(nil, version)
		return models.Session{}, ErrNoSession
	}
	if sess.Expired(m.now()) {
		m.log.Info().Str("subject", sess.Subject).Msg("stored session expired, clearing")
		if err := m.store.ClearSession(ctx); err != nil {
			return models.Session{}, err
		}
		version, _ = m.store.SessionVersion(ctx)
		m.setCurrent(nil, version)
		return models.Session{}, ErrSessionExpired
	}

	m.setCurrent(&sess, version)
	return sess, nil
}

// Login stores accessToken as the current session. JWT claims are read
// without verification to learn the subject and expiry; the backend does the
// verifying. Opaque tokens are accepted with no known expiry.
func (m *Manager) Login(ctx context.Context, accessToken, refreshToken string) (models.Session, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return models.Session{}, errors.New("login: empty token")
	}

	now := m.now().UTC()
	sess := models.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UpdatedAt:    now,
	}
	if claims, ok := parseClaims(accessToken); ok {
		sess.Subject = claims.Subject
		if claims.ExpiresAt != nil {
			sess.ExpiresAt = claims.ExpiresAt.Time.UTC()
		}
	}
	if sess.Expired(now) {
		return models.Session{}, ErrSessionExpired
	}

	if err := m.store.SaveSession(ctx, sess); err != nil {
		return models.Session{}, err
	}
	version, err := m.store.SessionVersion(ctx)
	if err != nil {
		return models.Session{}, err
	}
	m.setCurrent(&sess, version)
	m.log.Info().Str("subject", sess.Subject).Msg("logged in")
	return sess, nil
}

// parseClaims reads the registered claims of a JWT without checking its
// signature. ok is false for tokens that are not JWTs.
func parseClaims(token string) (*jwt.RegisteredClaims, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// BeginLogin starts the redirect login and returns the URL the user must
// open. The generated state is kept until the callback arrives.
func (m *Manager) BeginLogin(ctx context.Context) (string, error) {
	if m.cfg.AuthorizeURL == "" {
		return "", errors.New("auth.authorize_url is not configured")
	}
	u, err := url.Parse(m.cfg.AuthorizeURL)
	if err != nil {
		return "", fmt.Errorf("invalid authorize URL: %w", err)
	}

	state := uuid.NewString()
	if err := m.store.SetValue(ctx, stateKey, state); err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("response_type", "token")
	q.Set("state", state)
	if m.cfg.ClientID != "" {
		q.Set("client_id", m.cfg.ClientID)
	}
	if m.cfg.RedirectURL != "" {
		q.Set("redirect_uri", m.cfg.RedirectURL)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// HandleCallback finishes a redirect login. The token may arrive in the
// query string or in the fragment.
func (m *Manager) HandleCallback(ctx context.Context, callbackURL string) (models.Session, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return models.Session{}, fmt.Errorf("invalid callback URL: %w", err)
	}

	params := u.Query()
	if raw := u.EscapedFragment(); raw != "" {
		frag, err := url.ParseQuery(raw)
		if err != nil {
			return models.Session{}, fmt.Errorf("invalid callback fragment: %w", err)
		}
		for k, v := range frag {
			params[k] = v
		}
	}

	expected, ok, err := m.store.Value(ctx, stateKey)
	if err != nil {
		return models.Session{}, err
	}
	if !ok || params.Get("state") != expected {
		return models.Session{}, ErrStateMismatch
	}
	if err := m.store.DeleteValue(ctx, stateKey); err != nil {
		return models.Session{}, err
	}

	if e := params.Get("error"); e != "" {
		if desc := params.Get("error_description"); desc != "" {
			return models.Session{}, fmt.Errorf("login failed: %s: %s", e, desc)
		}
		return models.Session{}, fmt.Errorf("login failed: %s", e)
	}

	token := params.Get("access_token")
	if token == "" {
		token = params.Get("token")
	}
	if token == "" {
		return models.Session{}, errors.New("login callback without token")
	}
	return m.Login(ctx, token, params.Get("refresh_token"))
}

// Current returns the session in memory, if any.
func (m *Manager) Current() (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return models.Session{}, false
	}
	return *m.current, true
}

// Token returns the access token for backend calls.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()

	if cur == nil {
		return "", ErrNoSession
	}
	if cur.Expired(m.now()) {
		return "", ErrSessionExpired
	}
	return cur.AccessToken, nil
}

// BearerToken is Token for backend calls that may go out anonymously. With
// nobody logged in, or the session expired, it returns an empty token.
func (m *Manager) BearerToken(ctx context.Context) (string, error) {
	token, err := m.Token(ctx)
	if errors.Is(err, ErrNoSession) || errors.Is(err, ErrSessionExpired) {
		return "", nil
	}
	return token, err
}

// Logout removes the session and runs the logout hooks.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.ClearSession(ctx); err != nil {
		return err
	}
	version, err := m.store.SessionVersion(ctx)
	if err != nil {
		return err
	}
	m.setCurrent(nil, version)
	m.log.Info().Msg("logged out")
	m.runLogoutHooks()
	return nil
}

func (m *Manager) setCurrent(s *models.Session, version int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
	m.version = version
}

func (m *Manager) runLogoutHooks() {
	m.mu.Lock()
	hooks := append([]func(){}, m.onLogout...)
	m.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}
