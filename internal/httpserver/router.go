package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/scriptorium/internal/metrics"
	"github.com/Skotchmaster/scriptorium/internal/middleware/auth"
	"github.com/Skotchmaster/scriptorium/internal/models"
)

type Deps struct {
	Accounts   *AccountHTTP
	Templates  *TemplateHTTP
	Blogs      *BlogHTTP
	Comments   *CommentHTTP
	Moderation *ModerationHTTP
	Search     *SearchHTTP
	Describe   *DescribeHTTP

	Auth    *auth.GuardMiddleware
	Metrics *metrics.Metrics

	// Ready reports whether backing stores are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	user := d.Auth.RequireUser
	admin := d.Auth.RequireAdmin
	optional := d.Auth.Optional

	api := e.Group("/api")

	accounts := api.Group("/accounts")
	accounts.POST("/register", d.Accounts.Register)
	accounts.POST("/login", d.Accounts.Login)
	accounts.POST("/refresh", d.Accounts.Refresh)
	accounts.GET("/me", d.Accounts.Me, user)
	accounts.PATCH("/me", d.Accounts.PatchMe, user)
	accounts.DELETE("/me", d.Accounts.DeleteMe, user)

	templates := api.Group("/templates")
	templates.GET("", d.Templates.List, optional)
	templates.GET("/:id", d.Templates.Get)
	templates.POST("", d.Templates.Create, user)
	templates.PATCH("/:id", d.Templates.Patch, user)
	templates.DELETE("/:id", d.Templates.Delete, user)
	templates.POST("/:id/fork", d.Templates.Fork, user)

	blogs := api.Group("/blogs")
	blogs.GET("", d.Blogs.List, optional)
	blogs.GET("/:id", d.Blogs.Get, optional)
	blogs.POST("", d.Blogs.Create, user)
	blogs.PATCH("/:id", d.Blogs.Patch, user)
	blogs.DELETE("/:id", d.Blogs.Delete, user)
	blogs.GET("/:id/comments", d.Comments.List, optional)
	blogs.POST("/:id/comments", d.Comments.Create, user)
	blogs.PUT("/:id/vote", d.Moderation.Vote(models.TargetBlog), user)
	blogs.POST("/:id/report", d.Moderation.Report(models.TargetBlog), user)

	comments := api.Group("/comments")
	comments.DELETE("/:id", d.Comments.Delete, user)
	comments.PUT("/:id/vote", d.Moderation.Vote(models.TargetComment), user)
	comments.POST("/:id/report", d.Moderation.Report(models.TargetComment), user)

	api.GET("/search", d.Search.Search, optional)

	describe := api.Group("/describe", user)
	describe.POST("/images", d.Describe.UploadImage)
	describe.POST("/caption", d.Describe.Caption)
	describe.POST("/speech", d.Describe.Speech)
	describe.POST("/ask", d.Describe.Ask)
	api.GET("/weather", d.Describe.Weather)

	adm := api.Group("/admin", admin)
	adm.GET("/users", d.Accounts.ListUsers)
	adm.PATCH("/users/:username/role", d.Accounts.SetRole)
	adm.GET("/reports/blogs", d.Moderation.ReportedBlogs)
	adm.GET("/reports/comments", d.Moderation.ReportedComments)
	adm.PUT("/blogs/:id/hidden", d.Moderation.SetHidden(models.TargetBlog))
	adm.PUT("/comments/:id/hidden", d.Moderation.SetHidden(models.TargetComment))
}
