package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/scriptorium/internal/logging"
	"github.com/Skotchmaster/scriptorium/internal/service"
	"github.com/Skotchmaster/scriptorium/internal/transport"
)

type ModerationHTTP struct {
	Votes   *service.VoteService
	Reports *service.ReportService
}

// Vote returns a handler for PUT /<target>/:id/vote.
func (h *ModerationHTTP) Vote(targetType string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", targetType+".vote")

		actor, err := mustActor(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "id")
		if err != nil {
			return badRequest(l, "vote_error", "id is not a positive integer", err)
		}
		var req transport.VoteRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(l, "vote_error", msgInvalidBody, err)
		}
		if req.Value == nil {
			return badRequest(l, "vote_error", "value is required", nil)
		}

		tally, err := h.Votes.Vote(ctx, actor, targetType, id, *req.Value)
		if err != nil {
			return fail(l, "vote_error", err)
		}

		l.Info("vote_success", "id", id, "value", *req.Value)
		return c.JSON(http.StatusOK, transport.VoteResponse{
			TargetType: targetType,
			TargetID:   id,
			Value:      *req.Value,
			Upvotes:    tally.Upvotes,
			Downvotes:  tally.Downvotes,
		})
	}
}

// Report returns a handler for POST /<target>/:id/report.
func (h *ModerationHTTP) Report(targetType string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", targetType+".report")

		actor, err := mustActor(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "id")
		if err != nil {
			return badRequest(l, "report_error", "id is not a positive integer", err)
		}
		var req transport.ReportRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(l, "report_error", msgInvalidBody, err)
		}

		if err := h.Reports.Report(ctx, actor, targetType, id, req.Reason); err != nil {
			if errors.Is(err, service.ErrConflict) {
				l.Warn("report_error", "status", http.StatusConflict, "reason", "already reported", "id", id)
				return echo.NewHTTPError(http.StatusConflict, "Already reported")
			}
			return fail(l, "report_error", err)
		}

		l.Info("report_success", "id", id)
		return c.JSON(http.StatusCreated, echo.Map{"message": "reported"})
	}
}

func (h *ModerationHTTP) ReportedBlogs(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.reported_blogs")

	p := pageFrom(c)
	total, items, err := h.Reports.ReportedBlogs(ctx, p.offset, p.limit)
	if err != nil {
		return fail(l, "reported_blogs_error", err)
	}
	return paged(c, p, total, items)
}

func (h *ModerationHTTP) ReportedComments(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.reported_comments")

	p := pageFrom(c)
	total, items, err := h.Reports.ReportedComments(ctx, p.offset, p.limit)
	if err != nil {
		return fail(l, "reported_comments_error", err)
	}
	return paged(c, p, total, items)
}

// SetHidden returns a handler for PUT /admin/<target>s/:id/hidden.
func (h *ModerationHTTP) SetHidden(targetType string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "admin."+targetType+"_hidden")

		actor, err := mustActor(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "id")
		if err != nil {
			return badRequest(l, "set_hidden_error", "id is not a positive integer", err)
		}
		var req transport.HiddenRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(l, "set_hidden_error", msgInvalidBody, err)
		}
		if req.Hidden == nil {
			return badRequest(l, "set_hidden_error", "hidden is required", nil)
		}

		if err := h.Reports.SetHidden(ctx, actor, targetType, id, *req.Hidden); err != nil {
			return fail(l, "set_hidden_error", err)
		}

		l.Info("set_hidden_success", "id", id, "hidden", *req.Hidden)
		return c.JSON(http.StatusOK, echo.Map{"id": id, "hidden": *req.Hidden})
	}
}
