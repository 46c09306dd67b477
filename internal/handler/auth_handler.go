package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/syedzayyan/pomonotes/internal/errors"
	"github.com/syedzayyan/pomonotes/internal/middleware"
	"github.com/syedzayyan/pomonotes/internal/service"
)

// AuthHandler exchanges credentials for bearer tokens and reports who a
// token belongs to.
type AuthHandler struct {
	accounts *service.AuthService
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentialCheck func(ctx context.Context, email, password string) (*service.AuthResult, *apperrors.APIError)

func NewAuthHandler(accounts *service.AuthService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Register creates the account and signs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	h.exchange(c, http.StatusCreated, h.accounts.Register)
}

func (h *AuthHandler) Login(c *gin.Context) {
	h.exchange(c, http.StatusOK, h.accounts.Login)
}

func (h *AuthHandler) exchange(c *gin.Context, status int, check credentialCheck) {
	var req credentials
	if !bindJSON(c, &req) {
		return
	}
	result, apiErr := check(c.Request.Context(), req.Email, req.Password)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(status, result)
}

// Me runs behind the auth middleware.
func (h *AuthHandler) Me(c *gin.Context) {
	user, apiErr := h.accounts.Me(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, user)
}
