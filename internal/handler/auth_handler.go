package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "studiora/backend/internal/errors"
	"studiora/backend/internal/middleware"
	"studiora/backend/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Metadata struct {
		Name string `json:"name"`
	} `json:"metadata"`
}

type resendRequest struct {
	Email string `json:"email"`
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if !bindJSON(c, &req, false) {
		return
	}

	result, apiErr := h.authService.SignUp(c.Request.Context(), req.Email, req.Password, req.Metadata.Name)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req authRequest
	if !bindJSON(c, &req, false) {
		return
	}

	result, apiErr := h.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		writeError(c, apperrors.Unauthorized(""))
		return
	}

	if apiErr := h.authService.SignOut(c.Request.Context(), principal); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Session(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		writeError(c, apperrors.Unauthorized(""))
		return
	}

	session, apiErr := h.authService.GetSession(c.Request.Context(), principal)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req resendRequest
	if !bindJSON(c, &req, false) {
		return
	}

	if apiErr := h.authService.ResendVerification(c.Request.Context(), req.Email); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}
