package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"ExamPortal/internal/apperror"
	"ExamPortal/internal/auth"
)

// Authenticate extracts the bearer credential, verifies it as an access
// token and attaches the claims to the request context under "user".
func Authenticate(tokens *auth.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return apperror.AccessTokenRequired()
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return apperror.AccessTokenRequired()
			}

			claims, err := tokens.Verify(strings.TrimSpace(parts[1]), auth.AccessToken)
			if err != nil {
				return err
			}

			c.Set("user", claims)
			return next(c)
		}
	}
}

// RequireSameOrganization rejects requests whose :organizationId path
// parameter does not match the authenticated identity's tenant. Must run
// after Authenticate.
func RequireSameOrganization(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := auth.ClaimsFromContext(c)
		if !ok {
			return apperror.AccessTokenRequired()
		}
		organizationID := c.Param("organizationId")
		if organizationID == "" || organizationID != claims.OrganizationID {
			return apperror.CrossTenantAccess()
		}
		return next(c)
	}
}
