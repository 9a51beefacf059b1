package middleware

import (
	"ctchen222/Todo-Tracker/internal/config"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const (
	sessionName = "todo_session"
	sessionKey  = "token"
)

// Sessions keeps the issued bearer token in a signed cookie so browser clients
// can authenticate without handling the token themselves.
type Sessions struct {
	store *sessions.CookieStore
}

// NewSessions configures the cookie store from cfg.
func NewSessions(cfg config.SessionConfig) *Sessions {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Timeout.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

// Save stores token in the session cookie.
func (s *Sessions) Save(c *gin.Context, token string) error {
	session, _ := s.store.Get(c.Request, sessionName)
	session.Values[sessionKey] = token
	return session.Save(c.Request, c.Writer)
}

// Token returns the token held by the request's session cookie, if any.
func (s *Sessions) Token(r *http.Request) string {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return ""
	}
	token, _ := session.Values[sessionKey].(string)
	return token
}

// Clear expires the session cookie.
func (s *Sessions) Clear(c *gin.Context) error {
	session, _ := s.store.Get(c.Request, sessionName)
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	return session.Save(c.Request, c.Writer)
}
