package middleware

import (
	"net/http"

	"sheetchat/domain/core"
	"sheetchat/internal"
	"sheetchat/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	// CookieName holds the browser session identifier
	CookieName = "sheetchat_session"

	contextKey = "sheetchat.session"
)

// SessionOptions configures the session cookie
type SessionOptions struct {
	MaxAge int // seconds; 0 makes it a browser-session cookie
	Secure bool
}

// EnsureSession attaches the caller's session controller to the request,
// starting a new session (and setting the cookie) when the cookie is absent,
// malformed, or names a session that no longer exists.
func EnsureSession(manager *session.Manager, opts SessionOptions, logger *internal.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return func(c *gin.Context) {
		var (
			ctrl    *session.Controller
			created bool
		)

		raw, err := c.Cookie(CookieName)
		if err == nil {
			if id, parseErr := core.ParseSessionID(raw); parseErr == nil {
				ctrl, created = manager.GetOrCreate(id)
			} else {
				logger.Debug("[EnsureSession] ignoring malformed session cookie: %v", parseErr)
			}
		}
		if ctrl == nil {
			ctrl = manager.Create()
			created = true
		}

		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(CookieName, ctrl.ID().String(), opts.MaxAge, "/", "", opts.Secure, true)
		}

		c.Set(contextKey, ctrl)
		c.Next()
	}
}

// Session returns the controller attached by EnsureSession
func Session(c *gin.Context) *session.Controller {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	ctrl, _ := v.(*session.Controller)
	return ctrl
}

// ClearSession expires the session cookie
func ClearSession(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", secure, true)
}
