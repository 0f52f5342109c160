package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"ExamPortal/internal/apperror"
)

func newTestHandler(t *testing.T) (*AuthHandler, *fakeRepository) {
	t.Helper()
	svc, repo, _ := newTestAuthService(t)
	return NewAuthHandler(svc, 7*24*time.Hour, false), repo
}

func doJSON(e *echo.Echo, method, target, body string, cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	res := http.Response{Header: rec.Header()}
	for _, cookie := range res.Cookies() {
		if cookie.Name == refreshCookieName {
			return cookie
		}
	}
	t.Fatal("refresh cookie not set")
	return nil
}

func TestRegisterHandlerSetsRefreshCookie(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	c, rec := doJSON(e, http.MethodPost, "/register",
		`{"email":"admin@acme.test","password":"hunter22","firstName":"Ada","organizationName":"Acme"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	cookie := refreshCookie(t, rec)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	require.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookie.MaxAge)
	require.NotEmpty(t, cookie.Value)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "success", body["status"])
	user := body["user"].(map[string]interface{})
	require.Equal(t, "admin@acme.test", user["email"])
	require.Equal(t, "ORG_ADMIN", user["role"])
}

func TestLoginHandlerDoesNotLeakSecrets(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	c, _ := doJSON(e, http.MethodPost, "/register",
		`{"email":"admin@acme.test","password":"hunter22","firstName":"Ada","organizationName":"Acme"}`)
	require.NoError(t, h.Register(c))

	c, rec := doJSON(e, http.MethodPost, "/login",
		`{"email":"admin@acme.test","password":"hunter22"}`)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "passwordHash")
	require.NotContains(t, rec.Body.String(), "otp")
}

func TestRefreshTokenHandler(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	c, rec := doJSON(e, http.MethodPost, "/register",
		`{"email":"admin@acme.test","password":"hunter22","firstName":"Ada","organizationName":"Acme"}`)
	require.NoError(t, h.Register(c))
	cookie := refreshCookie(t, rec)

	// No cookie at all is a 401, before any token validation happens.
	c, _ = doJSON(e, http.MethodPost, "/refresh-token", "")
	err := h.RefreshToken(c)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, appErr.Status)
	require.Equal(t, "No refresh token provided", appErr.Message)

	c, rec = doJSON(e, http.MethodPost, "/refresh-token", "", cookie)
	require.NoError(t, h.RefreshToken(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["accessToken"])
	rotated := refreshCookie(t, rec)
	require.NotEmpty(t, rotated.Value)

	c, _ = doJSON(e, http.MethodPost, "/refresh-token", "",
		&http.Cookie{Name: refreshCookieName, Value: "garbage"})
	err = h.RefreshToken(c)
	appErr, ok = apperror.As(err)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, appErr.Status)
}

func TestLogoutHandlerClearsCookie(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	c, rec := doJSON(e, http.MethodPost, "/logout", "",
		&http.Cookie{Name: refreshCookieName, Value: "whatever"})
	require.NoError(t, h.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := refreshCookie(t, rec)
	require.Empty(t, cookie.Value)
	require.Negative(t, cookie.MaxAge)
}

func TestMeHandlerRequiresClaims(t *testing.T) {
	h, repo := newTestHandler(t)
	e := echo.New()

	c, _ := doJSON(e, http.MethodGet, "/me", "")
	err := h.Me(c)
	require.True(t, apperror.Is(err, apperror.CodeAccessTokenRequired))

	user := seedUser(repo, "student@acme.test")
	c, rec := doJSON(e, http.MethodGet, "/me", "")
	c.Set("user", &Claims{UserID: user.ID.Hex(), Role: RoleStudent})
	require.NoError(t, h.Me(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "student@acme.test")
}
