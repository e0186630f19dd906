package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/landingkit/internal/auth"
	"github.com/landingkit/internal/service"
)

const msgInvalidCredentials = "Invalid email or password"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// APILogin signs an admin in from a JSON body and starts a cookie session.
func (a *API) APILogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, msgInvalidBody) {
		return
	}

	user, err := a.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}
		internalError(c, "Sign-in failed", err)
		return
	}

	if err := auth.StartSession(c, user.ID, user.Email); err != nil {
		internalError(c, "Failed to save session", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": gin.H{"id": user.ID, "email": user.Email}})
}

// APILogout ends the cookie session. Bearer tokens are managed by the identity provider.
func (a *API) APILogout(c *gin.Context) {
	if err := auth.EndSession(c); err != nil {
		internalError(c, "Failed to clear session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// CurrentUser returns the caller's identity.
func (a *API) CurrentUser(c *gin.Context) {
	identity, ok := auth.Current(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": identity})
}
