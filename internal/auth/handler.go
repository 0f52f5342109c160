package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"ExamPortal/internal/apperror"
)

const refreshCookieName = "refreshToken"

type AuthHandler struct {
	service       *AuthService
	refreshTTL    time.Duration
	secureCookies bool
}

func NewAuthHandler(service *AuthService, refreshTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{service: service, refreshTTL: refreshTTL, secureCookies: secureCookies}
}

// ClaimsFromContext returns the access token claims attached by the
// authenticate middleware.
func ClaimsFromContext(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get("user").(*Claims)
	return claims, ok && claims != nil
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterOrgRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}

	user, org, tokens, err := h.service.RegisterOrganization(c.Request().Context(), req)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, tokens.RefreshToken)
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Organization registered successfully",
		"user": map[string]interface{}{
			"id":           user.ID.Hex(),
			"email":        user.Email,
			"role":         user.Role,
			"organization": org,
		},
		"tokens": tokens,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}

	user, _, tokens, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, tokens.RefreshToken)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Login successful",
		"user": map[string]interface{}{
			"id":        user.ID.Hex(),
			"email":     user.Email,
			"role":      user.Role,
			"firstName": user.FirstName,
			"lastName":  user.LastName,
		},
		"tokens": tokens,
	})
}

func (h *AuthHandler) RefreshToken(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return apperror.New(http.StatusUnauthorized, apperror.CodeAccessTokenRequired, "No refresh token provided")
	}

	tokens, err := h.service.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, tokens.RefreshToken)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "success",
		"accessToken": tokens.AccessToken,
		"expiresIn":   tokens.ExpiresIn,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		h.service.Logout(c.Request().Context(), cookie.Value)
	}
	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Logged out",
	})
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := h.service.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Reset Password OTP sent to email",
	})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := h.service.ResetPassword(c.Request().Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Password reset successful",
	})
}

func (h *AuthHandler) SendOTP(c echo.Context) error {
	var req SendOTPRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := h.service.SendOTP(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "OTP sent to email",
	})
}

func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := h.service.VerifyOTP(c.Request().Context(), req.Email, req.OTP); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "OTP verified",
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return apperror.AccessTokenRequired()
	}

	user, profile, err := h.service.GetProfile(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"user":    user,
		"profile": profile,
	})
}

func (h *AuthHandler) CreateStaff(c echo.Context) error {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return apperror.AccessTokenRequired()
	}

	var req CreateStaffRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}

	user, staff, err := h.service.CreateStaff(c.Request().Context(), claims, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Staff created successfully",
		"staff": map[string]interface{}{
			"id":             user.ID.Hex(),
			"email":          user.Email,
			"firstName":      user.FirstName,
			"lastName":       user.LastName,
			"organizationId": staff.OrganizationID.Hex(),
			"department":     staff.Department,
			"position":       staff.Position,
		},
	})
}

func (h *AuthHandler) CreateStudent(c echo.Context) error {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return apperror.AccessTokenRequired()
	}

	var req CreateStudentRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}

	user, student, err := h.service.CreateStudent(c.Request().Context(), claims, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Student created successfully",
		"student": map[string]interface{}{
			"id":             user.ID.Hex(),
			"email":          user.Email,
			"firstName":      user.FirstName,
			"lastName":       user.LastName,
			"organizationId": student.OrganizationID.Hex(),
			"studentId":      student.StudentID,
		},
	})
}
