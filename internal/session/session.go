// Package session identifies anonymous browsers with a cookie-carried user id.
//
// The cookie value is plain text inside the handler; the encryptcookie
// middleware seals it with AES-GCM on the way out and opens it on the way in,
// so a cookie that was altered or minted with another key arrives empty.
package session

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/google/uuid"
)

// DefaultCookieName is used when Config.CookieName is empty.
const DefaultCookieName = "session"

// localsKey caches the resolved id for the lifetime of a request.
const localsKey = "session.user_id"

// Config controls the session cookie.
type Config struct {
	CookieName string
	MaxAge     time.Duration
	// Secure marks the cookie as HTTPS only.
	Secure bool
	// NewID generates user ids; defaults to random UUIDs.
	NewID func() string
}

// Manager resolves and issues anonymous user ids.
type Manager struct {
	cookieName string
	maxAge     time.Duration
	secure     bool
	newID      func() string
}

func NewManager(cfg Config) *Manager {
	m := &Manager{
		cookieName: cfg.CookieName,
		maxAge:     cfg.MaxAge,
		secure:     cfg.Secure,
		newID:      cfg.NewID,
	}
	if m.cookieName == "" {
		m.cookieName = DefaultCookieName
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	return m
}

// Middleware returns the cookie encryption layer keyed with secret, a base64
// encoded 16, 24 or 32 byte key. It must run before any handler that calls UserID.
func (m *Manager) Middleware(secret string) fiber.Handler {
	return encryptcookie.New(encryptcookie.Config{
		Key: secret,
	})
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// UserID returns the id carried by the request, creating one when absent.
// The cookie is written back with the same id on every call.
func (m *Manager) UserID(c *fiber.Ctx) string {
	if id, ok := c.Locals(localsKey).(string); ok && id != "" {
		return id
	}

	// Cookie values point into the request buffer; keep our own copy.
	id := strings.Clone(c.Cookies(m.cookieName))
	if id == "" {
		id = m.newID()
	}

	cookie := &fiber.Cookie{
		Name:     m.cookieName,
		Value:    id,
		Path:     "/",
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if m.maxAge > 0 {
		cookie.MaxAge = int(m.maxAge / time.Second)
	}
	c.Cookie(cookie)
	c.Locals(localsKey, id)

	return id
}
