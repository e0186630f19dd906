package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/landingkit/internal/db"
	"github.com/landingkit/internal/logging"
	"github.com/landingkit/internal/service"
	"go.uber.org/zap"
)

const identityKey = "auth.identity"

// Identity sources.
const (
	SourceSession = "session"
	SourceToken   = "token"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Source string `json:"source"`
}

// UserLookup loads the admin a session cookie points at.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*db.User, error)
}

// Authenticator resolves identities for every request.
type Authenticator struct {
	verifier *Verifier
	users    UserLookup
}

// NewAuthenticator creates an Authenticator. A nil verifier accepts session cookies only;
// with a nil users lookup session cookies are trusted as signed.
func NewAuthenticator(verifier *Verifier, users UserLookup) *Authenticator {
	return &Authenticator{verifier: verifier, users: users}
}

// Identify stores the caller's identity on the context when one is present. It never
// rejects a request; RequireAPI and RequireAdmin do.
func (a *Authenticator) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity, ok := sessionIdentity(c); ok {
			if identity, ok = a.confirmSession(c, identity); ok {
				c.Set(identityKey, identity)
				c.Next()
				return
			}
		}

		if a.verifier != nil {
			if raw, ok := bearerToken(c.GetHeader("Authorization")); ok {
				if identity, err := a.verifier.Verify(raw); err == nil {
					c.Set(identityKey, identity)
				}
			}
		}
		c.Next()
	}
}

// confirmSession drops sessions whose admin no longer exists.
func (a *Authenticator) confirmSession(c *gin.Context, identity Identity) (Identity, bool) {
	if a.users == nil {
		return identity, true
	}

	id, err := strconv.ParseUint(identity.UserID, 10, 64)
	if err != nil {
		_ = EndSession(c)
		return Identity{}, false
	}

	user, err := a.users.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			if err := EndSession(c); err != nil {
				logging.FromContext(c).Warn("clear stale session", zap.Error(err))
			}
		} else {
			logging.FromContext(c).Error("load session user", zap.Error(err))
		}
		return Identity{}, false
	}

	identity.Email = user.Email
	return identity, true
}

// Current returns the identity resolved by Identify.
func Current(c *gin.Context) (Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := value.(Identity)
	return identity, ok
}

// RequireAPI rejects anonymous JSON API calls with 401.
func RequireAPI() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Current(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RequireAdmin 是后台页面的认证中间件，未登录时跳转到登录页。
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Current(c); !ok {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
