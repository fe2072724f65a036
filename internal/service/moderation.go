package service

import (
	"context"
	"errors"

	"github.com/Skotchmaster/scriptorium/internal/logging"
	"github.com/Skotchmaster/scriptorium/internal/models"
	"github.com/Skotchmaster/scriptorium/internal/mykafka"
	"github.com/Skotchmaster/scriptorium/internal/repo"
	"github.com/Skotchmaster/scriptorium/internal/search"
)

type VoteService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
}

// Vote sets the caller's vote: 1 up, -1 down, 0 clears.
func (s *VoteService) Vote(ctx context.Context, actor Actor, targetType string, id uint, value int) (*repo.Tally, error) {
	if value < -1 || value > 1 {
		return nil, invalid("value must be 1, -1 or 0")
	}
	u, err := activeUser(ctx, s.Repo, actor.Username)
	if err != nil {
		return nil, err
	}
	if err := visibleTarget(ctx, s.Repo, repo.Viewer{UserID: u.ID, Admin: actor.Admin}, targetType, id); err != nil {
		return nil, err
	}

	tally, err := s.Repo.Vote(ctx, u.ID, targetType, id, value)
	if err != nil {
		if errors.Is(err, repo.ErrUnknownTarget) {
			return nil, invalid("unknown target")
		}
		return nil, notFound(err)
	}

	publish(ctx, s.Events, mykafka.TopicContentEvents,
		mykafka.NewEvent(targetType+".voted", id, u.Username, map[string]int{"value": value}))
	return tally, nil
}

type ReportService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
	Index  search.Index
}

type ReportedBlog struct {
	models.BlogPost
	Reports []models.Report `json:"reports"`
}

type ReportedComment struct {
	models.Comment
	Reports []models.Report `json:"reports"`
}

func (s *ReportService) Report(ctx context.Context, actor Actor, targetType string, id uint, reason string) error {
	reason, err := requireText("reason", reason, maxReasonLen)
	if err != nil {
		return err
	}
	u, err := activeUser(ctx, s.Repo, actor.Username)
	if err != nil {
		return err
	}
	if err := visibleTarget(ctx, s.Repo, repo.Viewer{UserID: u.ID, Admin: actor.Admin}, targetType, id); err != nil {
		return err
	}

	err = s.Repo.CreateReport(ctx, &models.Report{
		ReporterID: u.ID,
		TargetType: targetType,
		TargetID:   id,
		Reason:     reason,
	})
	switch {
	case errors.Is(err, repo.ErrAlreadyReported):
		return ErrConflict
	case errors.Is(err, repo.ErrUnknownTarget):
		return invalid("unknown target")
	case err != nil:
		return notFound(err)
	}

	publish(ctx, s.Events, mykafka.TopicModerationEvents,
		mykafka.NewEvent(targetType+".reported", id, u.Username, map[string]string{"reason": reason}))
	return nil
}

func (s *ReportService) ReportedBlogs(ctx context.Context, offset, limit int) (int64, []ReportedBlog, error) {
	total, blogs, err := s.Repo.ListReportedBlogs(ctx, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	ids := make([]uint, len(blogs))
	for i, b := range blogs {
		ids[i] = b.ID
	}
	reports, err := s.Repo.ReportsFor(ctx, models.TargetBlog, ids)
	if err != nil {
		return 0, nil, err
	}

	out := make([]ReportedBlog, len(blogs))
	for i, b := range blogs {
		out[i] = ReportedBlog{BlogPost: b, Reports: reports[b.ID]}
	}
	return total, out, nil
}

func (s *ReportService) ReportedComments(ctx context.Context, offset, limit int) (int64, []ReportedComment, error) {
	total, comments, err := s.Repo.ListReportedComments(ctx, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	ids := make([]uint, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	reports, err := s.Repo.ReportsFor(ctx, models.TargetComment, ids)
	if err != nil {
		return 0, nil, err
	}

	out := make([]ReportedComment, len(comments))
	for i, c := range comments {
		out[i] = ReportedComment{Comment: c, Reports: reports[c.ID]}
	}
	return total, out, nil
}

// SetHidden toggles moderator visibility on a blog post or comment.
func (s *ReportService) SetHidden(ctx context.Context, actor Actor, targetType string, id uint, hidden bool) error {
	var err error
	switch targetType {
	case models.TargetBlog:
		err = s.Repo.SetBlogHidden(ctx, id, hidden)
	case models.TargetComment:
		err = s.Repo.SetCommentHidden(ctx, id, hidden)
	default:
		return invalid("unknown target")
	}
	if err != nil {
		return notFound(err)
	}

	if targetType == models.TargetBlog && s.Index != nil {
		if b, err := s.Repo.GetBlog(ctx, id); err == nil {
			if err := s.Index.Put(ctx, blogDoc(b)); err != nil {
				logging.FromContext(ctx).Warn("index_blog_error", "id", id, "error", err)
			}
		}
	}

	typ := targetType + ".hidden"
	if !hidden {
		typ = targetType + ".unhidden"
	}
	publish(ctx, s.Events, mykafka.TopicModerationEvents, mykafka.NewEvent(typ, id, actor.Username, nil))
	return nil
}
