package middleware

import (
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/util"
	"github.com/labstack/echo/v4"

	"ExamPortal/internal/apperror"
	"ExamPortal/internal/auth"
)

// rbacModel is the Casbin RBAC model, kept in code so the binary has no
// config-file dependency.
const rbacModel = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && r.act == p.act`

// rbacPolicies maps roles to request paths and methods. Tenant scoping is
// enforced separately by RequireSameOrganization; this table only answers
// "may this role hit this route at all".
var rbacPolicies = [][]string{
	{string(auth.RoleOrgAdmin), "/staff", http.MethodPost},
	{string(auth.RoleOrgAdmin), "/student", http.MethodPost},
	{string(auth.RoleStaff), "/student", http.MethodPost},

	{string(auth.RoleOrgAdmin), "/organizations/*", http.MethodGet},
	{string(auth.RoleOrgAdmin), "/organizations/*", http.MethodPost},
	{string(auth.RoleOrgAdmin), "/organizations/*", http.MethodPatch},
	{string(auth.RoleOrgAdmin), "/organizations/*", http.MethodDelete},
	{string(auth.RoleStaff), "/organizations/*", http.MethodGet},
	{string(auth.RoleStaff), "/organizations/*", http.MethodPost},
	{string(auth.RoleStaff), "/organizations/*", http.MethodPatch},
	{string(auth.RoleStaff), "/organizations/*", http.MethodDelete},

	{"authenticated", "/me", http.MethodGet},
	{"authenticated", "/logout", http.MethodPost},
}

// roleGroups make every concrete role a member of "authenticated".
var roleGroups = [][]string{
	{string(auth.RoleOrgAdmin), "authenticated"},
	{string(auth.RoleStaff), "authenticated"},
	{string(auth.RoleStudent), "authenticated"},
}

// NewEnforcer builds the Casbin enforcer with the in-code model and policy
// table.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	enforcer.AddFunction("keyMatch", util.KeyMatchFunc)
	for _, p := range rbacPolicies {
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, err
		}
	}
	for _, g := range roleGroups {
		if _, err := enforcer.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, err
		}
	}
	return enforcer, nil
}

// RBAC authorizes the authenticated role against the request path and
// method. Must run after Authenticate.
func RBAC(enforcer *casbin.Enforcer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := auth.ClaimsFromContext(c)
			if !ok {
				return apperror.AccessTokenRequired()
			}
			allowed, err := enforcer.Enforce(string(claims.Role), c.Request().URL.Path, c.Request().Method)
			if err != nil {
				return err
			}
			if !allowed {
				return apperror.InsufficientPermissions()
			}
			return next(c)
		}
	}
}
