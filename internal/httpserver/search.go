package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/scriptorium/internal/logging"
	"github.com/Skotchmaster/scriptorium/internal/search"
	"github.com/Skotchmaster/scriptorium/internal/service"
)

type SearchHTTP struct {
	Svc *service.SearchService
}

func (h *SearchHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "search")

	q := c.QueryParam("q")
	p := pageFrom(c)

	switch kind := c.QueryParam("kind"); kind {
	case "", search.KindBlog:
		total, items, err := h.Svc.Blogs(ctx, actorFrom(c), q, p.offset, p.limit)
		if err != nil {
			return fail(l, "search_error", err)
		}
		return paged(c, p, total, items)
	case search.KindTemplate:
		total, items, err := h.Svc.Templates(ctx, q, p.offset, p.limit)
		if err != nil {
			return fail(l, "search_error", err)
		}
		return paged(c, p, total, items)
	default:
		return badRequest(l, "search_error", "kind must be blog or template", nil)
	}
}
