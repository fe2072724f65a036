package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/scriptorium/internal/middleware/auth"
	"github.com/Skotchmaster/scriptorium/internal/service"
	"github.com/Skotchmaster/scriptorium/internal/util"
)

// actorFrom returns nil for anonymous requests.
func actorFrom(c echo.Context) *service.Actor {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		return nil
	}
	return &service.Actor{Username: p.Username, Admin: p.IsAdmin()}
}

// mustActor is used behind RequireUser/RequireAdmin, where a principal
// is always present.
func mustActor(c echo.Context) (service.Actor, error) {
	a := actorFrom(c)
	if a == nil {
		return service.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, msgTokenError)
	}
	return *a, nil
}

var errZeroID = errors.New("id must be positive")

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, errZeroID
	}
	return uint(id), nil
}

type pageReq struct {
	page, offset, limit int
}

func pageFrom(c echo.Context) pageReq {
	page, offset, limit := util.Calculate(
		util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
	)
	return pageReq{page: page, offset: offset, limit: limit}
}

func paged[T any](c echo.Context, p pageReq, total int64, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, util.Page[T]{
		Data: items,
		Meta: util.NewMeta(p.page, p.offset, p.limit, total),
	})
}
