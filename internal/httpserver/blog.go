package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/scriptorium/internal/logging"
	"github.com/Skotchmaster/scriptorium/internal/service"
	"github.com/Skotchmaster/scriptorium/internal/util"
)

type BlogHTTP struct {
	Svc *service.BlogService
}

func (h *BlogHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.list")

	var templateID uint
	if raw := c.QueryParam("templateId"); raw != "" {
		v := util.ParseIntDefault(raw, -1)
		if v <= 0 {
			return badRequest(l, "list_blogs_error", "templateId is not a positive integer", nil)
		}
		templateID = uint(v)
	}

	q := service.BlogQuery{
		Query:      c.QueryParam("q"),
		Tag:        c.QueryParam("tag"),
		TemplateID: templateID,
		Author:     c.QueryParam("author"),
		Sort:       c.QueryParam("sort"),
	}
	p := pageFrom(c)

	total, items, err := h.Svc.List(ctx, actorFrom(c), q, p.offset, p.limit)
	if err != nil {
		return fail(l, "list_blogs_error", err)
	}
	return paged(c, p, total, items)
}

func (h *BlogHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.get")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_blog_error", "id is not a positive integer", err)
	}
	b, err := h.Svc.Get(ctx, actorFrom(c), id)
	if err != nil {
		return fail(l, "get_blog_error", err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BlogHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.create")

	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	var req service.BlogInput
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_blog_error", msgInvalidBody, err)
	}

	b, err := h.Svc.Create(ctx, actor, req)
	if err != nil {
		return fail(l, "create_blog_error", err)
	}

	l.Info("create_blog_success", "id", b.ID)
	return c.JSON(http.StatusCreated, b)
}

func (h *BlogHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.patch")

	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "patch_blog_error", "id is not a positive integer", err)
	}
	var req service.BlogPatch
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_blog_error", msgInvalidBody, err)
	}

	b, err := h.Svc.Update(ctx, actor, id, req)
	if err != nil {
		return fail(l, "patch_blog_error", err)
	}

	l.Info("patch_blog_success", "id", b.ID)
	return c.JSON(http.StatusOK, b)
}

func (h *BlogHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.delete")

	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "delete_blog_error", "id is not a positive integer", err)
	}
	if err := h.Svc.Delete(ctx, actor, id); err != nil {
		return fail(l, "delete_blog_error", err)
	}

	l.Info("delete_blog_success", "id", id)
	return c.NoContent(http.StatusNoContent)
}
