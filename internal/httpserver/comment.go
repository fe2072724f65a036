package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/scriptorium/internal/logging"
	"github.com/Skotchmaster/scriptorium/internal/service"
)

type CommentHTTP struct {
	Svc *service.CommentService
}

func (h *CommentHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.list")

	blogID, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "list_comments_error", "id is not a positive integer", err)
	}
	p := pageFrom(c)

	total, items, err := h.Svc.List(ctx, actorFrom(c), blogID, c.QueryParam("sort"), p.offset, p.limit)
	if err != nil {
		return fail(l, "list_comments_error", err)
	}
	return paged(c, p, total, items)
}

func (h *CommentHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.create")

	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	blogID, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "create_comment_error", "id is not a positive integer", err)
	}
	var req service.CommentInput
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_comment_error", msgInvalidBody, err)
	}

	comment, err := h.Svc.Create(ctx, actor, blogID, req)
	if err != nil {
		return fail(l, "create_comment_error", err)
	}

	l.Info("create_comment_success", "id", comment.ID, "blog_id", blogID)
	return c.JSON(http.StatusCreated, comment)
}

func (h *CommentHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.delete")

	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "delete_comment_error", "id is not a positive integer", err)
	}
	if err := h.Svc.Delete(ctx, actor, id); err != nil {
		return fail(l, "delete_comment_error", err)
	}

	l.Info("delete_comment_success", "id", id)
	return c.NoContent(http.StatusNoContent)
}
