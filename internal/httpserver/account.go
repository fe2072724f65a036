package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/scriptorium/internal/guard"
	"github.com/Skotchmaster/scriptorium/internal/logging"
	"github.com/Skotchmaster/scriptorium/internal/service"
	"github.com/Skotchmaster/scriptorium/internal/transport"
)

type AccountHTTP struct {
	Svc *service.AccountService
}

func (h *AccountHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.register")

	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", msgInvalidBody, err)
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			l.Warn("register_error", "status", http.StatusConflict, "reason", "username taken", "username", req.Username)
			return echo.NewHTTPError(http.StatusConflict, "Username already taken")
		}
		return fail(l, "register_error", err)
	}

	l.Info("register_success", "username", user.Username)
	return c.JSON(http.StatusCreated, user)
}

func (h *AccountHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", msgInvalidBody, err)
	}

	pair, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "login_error", err)
	}

	l.Info("login_success", "username", req.Username)
	return c.JSON(http.StatusOK, pair)
}

// Refresh takes the refresh token from the body or, failing that, from
// the x_refreshToken header.
func (h *AccountHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.refresh")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "refresh_error", msgInvalidBody, err)
	}
	token := req.RefreshToken
	if token == "" {
		token = c.Request().Header.Get(guard.HeaderRefreshToken)
	}

	pair, err := h.Svc.Refresh(ctx, token)
	if err != nil {
		return fail(l, "refresh_error", err)
	}

	l.Info("refresh_success")
	return c.JSON(http.StatusOK, pair)
}

func (h *AccountHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.me")

	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	user, err := h.Svc.Profile(ctx, actor.Username)
	if err != nil {
		return fail(l, "profile_error", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AccountHTTP) PatchMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.patch_me")

	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	var req service.ProfilePatch
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "profile_patch_error", msgInvalidBody, err)
	}

	user, err := h.Svc.UpdateProfile(ctx, actor.Username, req)
	if err != nil {
		return fail(l, "profile_patch_error", err)
	}

	l.Info("profile_patch_success", "username", actor.Username)
	return c.JSON(http.StatusOK, user)
}

func (h *AccountHTTP) DeleteMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.delete_me")

	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, actor.Username); err != nil {
		return fail(l, "account_delete_error", err)
	}

	l.Info("account_delete_success", "username", actor.Username)
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_users")

	p := pageFrom(c)
	total, users, err := h.Svc.ListUsers(ctx, p.offset, p.limit)
	if err != nil {
		return fail(l, "list_users_error", err)
	}
	return paged(c, p, total, users)
}

func (h *AccountHTTP) SetRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.set_role")

	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	var req transport.RoleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "set_role_error", msgInvalidBody, err)
	}

	user, err := h.Svc.SetRole(ctx, actor, c.Param("username"), req.Role)
	if err != nil {
		return fail(l, "set_role_error", err)
	}

	l.Info("set_role_success", "username", user.Username, "role", user.Role)
	return c.JSON(http.StatusOK, user)
}
