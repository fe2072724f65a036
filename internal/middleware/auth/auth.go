package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/scriptorium/internal/guard"
	"github.com/Skotchmaster/scriptorium/internal/logging"
	"github.com/Skotchmaster/scriptorium/internal/metrics"
)

const principalKey = "principal"

const (
	msgTokenError = "Token Error"
	msgForbidden  = "Forbidden"
)

// Observer receives one guard outcome per request; see metrics.Guard*.
type Observer func(outcome string)

type GuardMiddleware struct {
	Guard   *guard.Guard
	Observe Observer
}

func NewGuardMiddleware(g *guard.Guard, observe Observer) *GuardMiddleware {
	return &GuardMiddleware{Guard: g, Observe: observe}
}

func (m *GuardMiddleware) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return m.require(next, guard.RoleUser)
}

func (m *GuardMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.require(next, guard.RoleAdmin)
}

// Optional attaches the principal when the request carries valid
// credentials and lets anonymous or rejected callers through as anonymous.
func (m *GuardMiddleware) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz, refresh := credentials(c)
		if authz == "" && refresh == "" {
			return next(c)
		}
		if res, err := m.Guard.Authenticate(authz, refresh); err == nil {
			m.observe(outcomeOf(res))
			setPrincipal(c, res.Principal)
		}
		return next(c)
	}
}

func (m *GuardMiddleware) require(next echo.HandlerFunc, role guard.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("middleware", "auth")

		res, err := m.Guard.Authenticate(credentials(c))
		if err != nil {
			m.observe(metrics.GuardRejected)
			l.Warn("auth_error", "status", http.StatusUnauthorized, "reason", "token rejected", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, msgTokenError)
		}

		if err := m.Guard.Authorize(res.Principal, role); err != nil {
			m.observe(metrics.GuardForbidden)
			l.Warn("auth_error", "status", http.StatusForbidden, "reason", "role forbidden",
				"username", res.Principal.Username, "role", res.Principal.Role)
			return echo.NewHTTPError(http.StatusForbidden, msgForbidden)
		}

		m.observe(outcomeOf(res))
		setPrincipal(c, res.Principal)
		return next(c)
	}
}

func (m *GuardMiddleware) observe(outcome string) {
	if m.Observe != nil {
		m.Observe(outcome)
	}
}

func outcomeOf(res *guard.Result) string {
	if res.Refreshed {
		return metrics.GuardRefreshed
	}
	return metrics.GuardAccess
}

func credentials(c echo.Context) (string, string) {
	h := c.Request().Header
	return h.Get(guard.HeaderAuthorization), h.Get(guard.HeaderRefreshToken)
}

func setPrincipal(c echo.Context, p guard.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal stored by the middleware.
func PrincipalFrom(c echo.Context) (guard.Principal, bool) {
	p, ok := c.Get(principalKey).(guard.Principal)
	return p, ok
}
