package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lagimmo/api/internal/apperr"
	"lagimmo/api/internal/middleware"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/service"
)

var errNoUser = apperr.Unauthorized("authentication required")

type signupRequest struct {
	UserName  string `json:"userName" binding:"omitempty,min=3,max=64"`
	FirstName string `json:"firstName" binding:"required,max=100"`
	LastName  string `json:"lastName" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
}

type authResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

func newAuthResponse(result service.AuthResult) authResponse {
	return authResponse{
		User:         result.User,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	}
}

func (h HandlerSet) Signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Auth.Signup(c.Request.Context(), service.SignupInput{
		UserName:  req.UserName,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, newAuthResponse(result))
}

type loginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) AdminLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Auth.LoginAdmin(c.Request.Context(), service.LoginInput{
		Login:    req.Login,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, newAuthResponse(result))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h HandlerSet) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, newAuthResponse(result))
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h HandlerSet) Logout(c *gin.Context) {
	user, found := middleware.CurrentUser(c)
	if !found {
		respondError(c, errNoUser)
		return
	}
	var req logoutRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	if err := h.svc.Auth.Logout(c.Request.Context(), user.ID, middleware.AccessToken(c), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) LogoutAll(c *gin.Context) {
	user, found := middleware.CurrentUser(c)
	if !found {
		respondError(c, errNoUser)
		return
	}
	if err := h.svc.Auth.LogoutAll(c.Request.Context(), user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Profile(c *gin.Context) {
	user, found := middleware.CurrentUser(c)
	if !found {
		respondError(c, errNoUser)
		return
	}
	profile, err := h.svc.Auth.Profile(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, profile)
}

type updateProfileRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName" binding:"omitempty,min=1,max=100"`
	UserName  *string `json:"userName" binding:"omitempty,min=3,max=64"`
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	user, found := middleware.CurrentUser(c)
	if !found {
		respondError(c, errNoUser)
		return
	}
	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.svc.Auth.UpdateProfile(c.Request.Context(), user.ID, service.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		UserName:  req.UserName,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, profile)
}

type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=72"`
}

func (h HandlerSet) UpdatePassword(c *gin.Context) {
	user, found := middleware.CurrentUser(c)
	if !found {
		respondError(c, errNoUser)
		return
	}
	var req updatePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.svc.Auth.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "password updated"})
}

type resetRequest struct {
	Login string `json:"login" binding:"required"`
}

// RequestPasswordReset answers the same way whether or not the login exists.
func (h HandlerSet) RequestPasswordReset(c *gin.Context) {
	var req resetRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Auth.RequestPasswordReset(c.Request.Context(), req.Login); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "if the account exists, a reset link has been sent"})
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

func (h HandlerSet) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "password reset"})
}

type verifyAccountRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h HandlerSet) VerifyAccount(c *gin.Context) {
	var req verifyAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.svc.Auth.VerifyAccount(c.Request.Context(), req.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

type resendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h HandlerSet) ResendVerification(c *gin.Context) {
	var req resendVerificationRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Auth.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "if the account needs it, a verification link has been sent"})
}
