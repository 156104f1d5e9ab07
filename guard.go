package lunatech

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/labstack/echo/v4"
)

const ctxGuardKey = "lunatech.guard"

// GuardState is the state of an access check.
type GuardState int

const (
	GuardChecking GuardState = iota
	GuardAuthorized
	GuardDenied
)

func (s GuardState) String() string {
	switch s {
	case GuardChecking:
		return "checking"
	case GuardAuthorized:
		return "authorized"
	case GuardDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Guard gates protected content. It starts in GuardChecking and settles
// exactly once; a new check needs a new Guard.
type Guard struct {
	mu      sync.Mutex
	state   GuardState
	session *Session
}

func NewGuard() *Guard {
	return &Guard{}
}

// Resolve settles the guard from a session lookup and returns the state.
// Calls after the first one do not change anything.
func (g *Guard) Resolve(sess *Session, ok bool) GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != GuardChecking {
		return g.state
	}
	if ok && sess != nil {
		g.state = GuardAuthorized
		g.session = sess
	} else {
		g.state = GuardDenied
	}
	return g.state
}

func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Session returns the authorized session, or nil unless the guard is authorized.
func (g *Guard) Session() *Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// RequireSession only lets requests with a live session through. Others
// are redirected to loginPath before the wrapped handler writes anything.
func RequireSession(sessions *SessionStore, loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Cache-Control", "no-store")
			g := NewGuard()
			switch g.Resolve(sessions.CurrentUser(c)) {
			case GuardAuthorized:
				c.Set(ctxGuardKey, g)
				return next(c)
			default:
				target := loginPath
				if c.Request().Method == http.MethodGet {
					target += "?next=" + url.QueryEscape(c.Request().URL.RequestURI())
				}
				return c.Redirect(http.StatusSeeOther, target)
			}
		}
	}
}

// SessionFrom returns the session a RequireSession guard authorized, or nil.
func SessionFrom(c echo.Context) *Session {
	g, ok := c.Get(ctxGuardKey).(*Guard)
	if !ok {
		return nil
	}
	return g.Session()
}
