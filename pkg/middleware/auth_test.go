package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"ExamPortal/internal/apperror"
	"ExamPortal/internal/auth"
	"ExamPortal/internal/config"
)

func newTokens() *auth.TokenService {
	return auth.NewTokenService(config.Config{
		JWTAccessSecret:  "access-secret",
		JWTRefreshSecret: "refresh-secret",
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  7 * 24 * time.Hour,
	})
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestAuthenticate(t *testing.T) {
	tokens := newTokens()
	pair, err := tokens.IssuePair("user-1", "a@b.test", auth.RoleStaff, "org-1")
	require.NoError(t, err)

	e := echo.New()
	handler := Authenticate(tokens)(func(c echo.Context) error {
		claims, ok := auth.ClaimsFromContext(c)
		require.True(t, ok)
		require.Equal(t, "user-1", claims.UserID)
		require.Equal(t, auth.RoleStaff, claims.Role)
		return c.NoContent(http.StatusOK)
	})

	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", apperror.CodeAccessTokenRequired},
		{"not bearer", "Basic abc", apperror.CodeAccessTokenRequired},
		{"garbage token", "Bearer garbage", apperror.CodeTokenInvalid},
		{"refresh token in access slot", "Bearer " + pair.RefreshToken, apperror.CodeTokenInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())
			err := handler(c)
			require.True(t, apperror.Is(err, tc.code))
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.AccessToken)
	c := e.NewContext(req, httptest.NewRecorder())
	require.NoError(t, handler(c))
}

func TestRequireSameOrganization(t *testing.T) {
	e := echo.New()
	handler := RequireSameOrganization(okHandler)

	newCtx := func(organizationID string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("organizationId")
		c.SetParamValues(organizationID)
		return c
	}

	c := newCtx("org-1")
	err := handler(c)
	require.True(t, apperror.Is(err, apperror.CodeAccessTokenRequired), "unauthenticated")

	c = newCtx("org-2")
	c.Set("user", &auth.Claims{UserID: "user-1", Role: auth.RoleStaff, OrganizationID: "org-1"})
	err = handler(c)
	require.True(t, apperror.Is(err, apperror.CodeCrossTenantAccess), "foreign tenant")

	c = newCtx("org-1")
	c.Set("user", &auth.Claims{UserID: "user-1", Role: auth.RoleStudent, OrganizationID: ""})
	err = handler(c)
	require.True(t, apperror.Is(err, apperror.CodeCrossTenantAccess), "claims without a tenant")

	c = newCtx("org-1")
	c.Set("user", &auth.Claims{UserID: "user-1", Role: auth.RoleStaff, OrganizationID: "org-1"})
	require.NoError(t, handler(c))
}
