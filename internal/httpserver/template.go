package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/scriptorium/internal/logging"
	"github.com/Skotchmaster/scriptorium/internal/service"
	"github.com/Skotchmaster/scriptorium/internal/util"
)

type TemplateHTTP struct {
	Svc *service.TemplateService
}

func (h *TemplateHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "template.list")

	q := service.TemplateQuery{
		Query:  c.QueryParam("q"),
		Tag:    c.QueryParam("tag"),
		Author: c.QueryParam("author"),
		Mine:   util.ParseBool(c.QueryParam("mine"), false),
	}
	p := pageFrom(c)

	total, items, err := h.Svc.List(ctx, actorFrom(c), q, p.offset, p.limit)
	if err != nil {
		return fail(l, "list_templates_error", err)
	}
	return paged(c, p, total, items)
}

func (h *TemplateHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "template.get")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_template_error", "id is not a positive integer", err)
	}
	t, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_template_error", err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TemplateHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "template.create")

	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	var req service.TemplateInput
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_template_error", msgInvalidBody, err)
	}

	t, err := h.Svc.Create(ctx, actor, req)
	if err != nil {
		return fail(l, "create_template_error", err)
	}

	l.Info("create_template_success", "id", t.ID)
	return c.JSON(http.StatusCreated, t)
}

func (h *TemplateHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "template.patch")

	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "patch_template_error", "id is not a positive integer", err)
	}
	var req service.TemplatePatch
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_template_error", msgInvalidBody, err)
	}

	t, err := h.Svc.Update(ctx, actor, id, req)
	if err != nil {
		return fail(l, "patch_template_error", err)
	}

	l.Info("patch_template_success", "id", t.ID)
	return c.JSON(http.StatusOK, t)
}

func (h *TemplateHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "template.delete")

	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "delete_template_error", "id is not a positive integer", err)
	}
	if err := h.Svc.Delete(ctx, actor, id); err != nil {
		return fail(l, "delete_template_error", err)
	}

	l.Info("delete_template_success", "id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *TemplateHTTP) Fork(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "template.fork")

	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "fork_template_error", "id is not a positive integer", err)
	}

	fork, err := h.Svc.Fork(ctx, actor, id)
	if err != nil {
		return fail(l, "fork_template_error", err)
	}

	l.Info("fork_template_success", "id", fork.ID, "source", id)
	return c.JSON(http.StatusCreated, fork)
}
