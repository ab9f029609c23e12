// internal/api/auth_handler.go
package api

import (
	"net/http"
	"time"

	"wastewise/internal/authsvc"
	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"

	"github.com/gin-gonic/gin"
)

type CredentialsInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthHandler serves signup, login, and logout.
type AuthHandler struct {
	auth      *authsvc.Service
	responder *errors.HTTPResponder
	logger    logger.Logger
}

func NewAuthHandler(auth *authsvc.Service, responder *errors.HTTPResponder, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		responder: responder,
		logger:    log.Named("auth-handler"),
	}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var input CredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.responder.Respond(c, errors.NewInvalidInputError(err.Error()))
		return
	}

	session, err := h.auth.Signup(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.responder.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id": session.User.ID,
		"email":   session.User.Email,
		"message": "Account created successfully",
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input CredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.responder.Respond(c, errors.NewInvalidInputError(err.Error()))
		return
	}

	session, err := h.auth.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.responder.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": session.Token,
		"token_type":   "Bearer",
		"expires_in":   int64(time.Until(session.ExpiresAt).Seconds()),
	})
}

// Logout revokes the token the request authenticated with.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), c.GetString(ctxToken)); err != nil {
		h.responder.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
