// Package auth resolves who is calling: an admin session cookie or a bearer token issued by
// the identity provider.
package auth

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	SessionName = "landingkit_session"

	sessionKeyUserID = "user_id"
	sessionKeyEmail  = "email"

	sessionMaxAge = 7 * 24 * 60 * 60
)

// NewSessionStore 创建基于 Cookie 的会话存储。
func NewSessionStore(secret string, secure bool) sessions.Store {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

// Sessions returns the gin middleware that loads the admin session cookie.
func Sessions(store sessions.Store) gin.HandlerFunc {
	return sessions.Sessions(SessionName, store)
}

// StartSession records a signed-in admin.
func StartSession(c *gin.Context, userID uint, email string) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionKeyUserID, userID)
	session.Set(sessionKeyEmail, email)
	return session.Save()
}

// EndSession 清除当前会话。
func EndSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}

func sessionIdentity(c *gin.Context) (Identity, bool) {
	session := sessions.Default(c)
	var userID string
	switch v := session.Get(sessionKeyUserID).(type) {
	case uint:
		userID = strconv.FormatUint(uint64(v), 10)
	case int:
		userID = strconv.Itoa(v)
	case string:
		userID = v
	case nil:
		return Identity{}, false
	default:
		userID = fmt.Sprint(v)
	}
	if userID == "" {
		return Identity{}, false
	}
	email, _ := session.Get(sessionKeyEmail).(string)
	return Identity{UserID: userID, Email: email, Source: SourceSession}, true
}
