// Package session binds server-side sessions to an HTTP cookie.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"blog_backend/internal/feature/auth/domain/entity"
	"blog_backend/internal/feature/auth/usecase"
)

// viewerKey caches the resolved user ID on the gin context.
const viewerKey = "session.viewerID"

// SessionUsecase is the session lifecycle used by the cookie manager.
type SessionUsecase interface {
	Start(ctx context.Context, userID uint, userAgent, ip string) (string, *entity.Session, error)
	Resolve(ctx context.Context, token string) (*entity.Session, error)
	End(ctx context.Context, token string) error
	EndAll(ctx context.Context, userID uint) error
}

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	Name     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// Manager logs users in and out through a signed, HttpOnly cookie.
type Manager struct {
	sessions SessionUsecase
	cookie   CookieConfig
}

// NewManager creates a Manager. An empty cookie name defaults to "sid".
func NewManager(sessions SessionUsecase, cfg CookieConfig) *Manager {
	if cfg.Name == "" {
		cfg.Name = "sid"
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	return &Manager{sessions: sessions, cookie: cfg}
}

func (m *Manager) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(m.cookie.SameSite)
	c.SetCookie(m.cookie.Name, value, maxAge, "/", m.cookie.Domain, m.cookie.Secure, true)
}

// Login starts a session for userID and sets the cookie.
func (m *Manager) Login(c *gin.Context, userID uint) error {
	token, s, err := m.sessions.Start(c.Request.Context(), userID, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		return err
	}

	maxAge := int(m.cookie.MaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int(time.Until(s.ExpiresAt).Seconds())
	}
	m.setCookie(c, token, maxAge)
	c.Set(viewerKey, userID)
	return nil
}

// Logout ends the current session, if any, and clears the cookie.
// It never fails; a store error is logged.
func (m *Manager) Logout(c *gin.Context) {
	if token, err := c.Cookie(m.cookie.Name); err == nil && token != "" {
		if err := m.sessions.End(c.Request.Context(), token); err != nil {
			slog.Warn("failed to end session", "error", err, "remote_addr", c.ClientIP())
		}
	}
	m.setCookie(c, "", -1)
	c.Set(viewerKey, uint(0))
}

// LogoutEverywhere revokes every session of userID and clears the cookie.
func (m *Manager) LogoutEverywhere(c *gin.Context, userID uint) error {
	if err := m.sessions.EndAll(c.Request.Context(), userID); err != nil {
		return err
	}
	m.setCookie(c, "", -1)
	c.Set(viewerKey, uint(0))
	return nil
}

// CurrentUserID returns the signed-in user ID. A missing or rejected cookie
// yields ok == false with a nil error; a store failure is returned as err and
// is not cached. Successful lookups are cached on the request context.
func (m *Manager) CurrentUserID(c *gin.Context) (uint, bool, error) {
	if v, ok := c.Get(viewerKey); ok {
		id, _ := v.(uint)
		return id, id != 0, nil
	}

	token, err := c.Cookie(m.cookie.Name)
	if err != nil || token == "" {
		c.Set(viewerKey, uint(0))
		return 0, false, nil
	}

	s, err := m.sessions.Resolve(c.Request.Context(), token)
	if err != nil {
		if isRejected(err) {
			c.Set(viewerKey, uint(0))
			return 0, false, nil
		}
		return 0, false, err
	}

	c.Set(viewerKey, s.UserID)
	return s.UserID, true, nil
}

// isRejected reports whether err means the cookie is simply not valid, as
// opposed to a store failure.
func isRejected(err error) bool {
	return errors.Is(err, usecase.ErrSessionNotFound) ||
		errors.Is(err, usecase.ErrSessionExpired) ||
		errors.Is(err, usecase.ErrSessionRevoked) ||
		errors.Is(err, usecase.ErrInvalidSessionToken)
}
