package lunatech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionName   = "lunatech_session"
	ctxSessionKey = "lunatech.session"
)

// Session is the live identity of a signed-in admin.
type Session struct {
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Valid reports whether s is a usable session at now.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.UserID != "" && now.Before(s.ExpiresAt)
}

// Identity is what the authentication provider knows about a user.
type Identity struct {
	UserID  string
	Email   string
	Profile Author
}

// Authenticator checks credentials and resolves users by id.
type Authenticator interface {
	// Authenticate returns ErrAuth for unknown users and bad passwords.
	Authenticate(ctx context.Context, email, password string) (Identity, error)
	// Lookup returns ErrNotFound when the user no longer exists.
	Lookup(ctx context.Context, userID string) (Identity, error)
}

// PasswordAuthenticator authenticates against bcrypt hashes in the users table.
type PasswordAuthenticator struct {
	store *Store
}

func NewPasswordAuthenticator(s *Store) *PasswordAuthenticator {
	return &PasswordAuthenticator{store: s}
}

// dummyHash is compared against when the e-mail is unknown so that both
// failure paths take the same time.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("lunatech-dummy-password"), bcrypt.DefaultCost)

func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	u, err := a.store.UserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return Identity{}, ErrAuth
	}
	if err != nil {
		return Identity{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Identity{}, ErrAuth
	}
	return Identity{UserID: u.ID, Email: u.Email, Profile: u.Profile}, nil
}

func (a *PasswordAuthenticator) Lookup(ctx context.Context, userID string) (Identity, error) {
	u, err := a.store.UserByID(ctx, userID)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: u.ID, Email: u.Email, Profile: u.Profile}, nil
}

// HashPassword returns the bcrypt hash stored for a new user.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("hash password: %w: password must be at least 8 characters", ErrValidation)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// SessionEventKind tells listeners what happened.
type SessionEventKind int

const (
	SignedIn SessionEventKind = iota + 1
	SignedOut
)

func (k SessionEventKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

// SessionEvent is delivered to OnChange listeners.
type SessionEvent struct {
	Kind    SessionEventKind
	Session Session
}

// SessionStore keeps the admin session in a signed cookie and tells
// listeners when it changes. One instance is shared by the whole App.
type SessionStore struct {
	auth Authenticator
	ttl  time.Duration
	log  zerolog.Logger
	now  func() time.Time

	mu        sync.RWMutex
	listeners []func(SessionEvent)

	// revoked holds signed-out tokens until their cookies would expire anyway.
	revokedMu sync.Mutex
	revoked   map[string]time.Time
}

// NewSessionStore expects the echo-contrib session middleware to be installed.
func NewSessionStore(auth Authenticator, ttl time.Duration, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		auth:    auth,
		ttl:     ttl,
		log:     log.With().Str("component", "session").Logger(),
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// OnChange registers fn to be called synchronously on sign-in and sign-out.
func (s *SessionStore) OnChange(fn func(SessionEvent)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *SessionStore) notify(ev SessionEvent) {
	s.mu.RLock()
	listeners := append([]func(SessionEvent){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// SignIn checks the credentials and starts a new session.
func (s *SessionStore) SignIn(c echo.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("sign in: %w: email and password are required", ErrValidation)
	}
	id, err := s.auth.Authenticate(c.Request().Context(), email, password)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	sess := &Session{
		Token:     uuid.NewString(),
		UserID:    id.UserID,
		Email:     id.Email,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}
	// A cookie that fails to decode still yields a fresh session to write into.
	cs, err := session.Get(sessionName, c)
	if cs == nil {
		return nil, fmt.Errorf("sign in: %w: %v", ErrTransport, err)
	}
	cs.Values = map[any]any{
		"token":   sess.Token,
		"user_id": sess.UserID,
		"email":   sess.Email,
		"expires": sess.ExpiresAt.Unix(),
	}
	cs.Options.MaxAge = int(s.ttl.Seconds())
	if err := cs.Save(c.Request(), c.Response()); err != nil {
		return nil, fmt.Errorf("sign in: %w: save session: %v", ErrTransport, err)
	}

	c.Set(ctxSessionKey, sess)
	s.log.Info().Str("user_id", sess.UserID).Msg("signed in")
	s.notify(SessionEvent{Kind: SignedIn, Session: *sess})
	return sess, nil
}

// SignOut ends the session. The token is revoked so that copies of the
// cookie stop working, then listeners are told and the cookie is expired.
// A failure to write the cookie is only logged.
func (s *SessionStore) SignOut(c echo.Context) {
	prev, ok := s.CurrentUser(c)
	c.Set(ctxSessionKey, (*Session)(nil))
	if ok {
		s.revoke(prev.Token, prev.ExpiresAt)
		s.log.Info().Str("user_id", prev.UserID).Msg("signed out")
		s.notify(SessionEvent{Kind: SignedOut, Session: *prev})
	}

	cs, err := session.Get(sessionName, c)
	if cs == nil {
		s.log.Warn().Err(err).Msg("sign out: no cookie session")
		return
	}
	cs.Values = map[any]any{}
	cs.Options.MaxAge = -1
	if err := cs.Save(c.Request(), c.Response()); err != nil {
		s.log.Warn().Err(err).Msg("sign out: expire cookie")
	}
}

// CurrentUser returns the session of the request, if there is a valid one.
func (s *SessionStore) CurrentUser(c echo.Context) (*Session, bool) {
	if cached, ok := c.Get(ctxSessionKey).(*Session); ok {
		return cached, cached != nil
	}
	sess := s.fromCookie(c)
	c.Set(ctxSessionKey, sess)
	return sess, sess != nil
}

func (s *SessionStore) fromCookie(c echo.Context) *Session {
	cs, err := session.Get(sessionName, c)
	if err != nil || cs == nil || cs.IsNew {
		return nil
	}
	token, _ := cs.Values["token"].(string)
	userID, _ := cs.Values["user_id"].(string)
	email, _ := cs.Values["email"].(string)
	expires, _ := cs.Values["expires"].(int64)
	sess := &Session{
		Token:     token,
		UserID:    userID,
		Email:     email,
		ExpiresAt: time.Unix(expires, 0).UTC(),
	}
	if token == "" || !sess.Valid(s.now()) || s.isRevoked(token) {
		return nil
	}

	id, err := s.auth.Lookup(c.Request().Context(), userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error().Err(err).Str("user_id", userID).Msg("rehydrate session")
		}
		return nil
	}
	sess.Email = id.Email
	return sess
}

func (s *SessionStore) revoke(token string, until time.Time) {
	now := s.now()
	s.revokedMu.Lock()
	defer s.revokedMu.Unlock()
	for t, exp := range s.revoked {
		if !now.Before(exp) {
			delete(s.revoked, t)
		}
	}
	s.revoked[token] = until
}

func (s *SessionStore) isRevoked(token string) bool {
	s.revokedMu.Lock()
	_, ok := s.revoked[token]
	s.revokedMu.Unlock()
	return ok
}
