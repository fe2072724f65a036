package service

import (
	"context"

	"github.com/Skotchmaster/scriptorium/internal/models"
	"github.com/Skotchmaster/scriptorium/internal/mykafka"
	"github.com/Skotchmaster/scriptorium/internal/repo"
)

const maxCommentLen = 5000

type CommentService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
}

type CommentInput struct {
	Content  string `json:"content"`
	ParentID *uint  `json:"parentId"`
}

// visibleBlog loads a post the viewer is allowed to see.
func visibleBlog(ctx context.Context, r *repo.GormRepo, v repo.Viewer, id uint) (*models.BlogPost, error) {
	b, err := r.GetBlog(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !canSee(v, b.AuthorID, b.Hidden) {
		return nil, ErrNotFound
	}
	return b, nil
}

// visibleComment loads a comment whose post and own moderation state the
// viewer is allowed to see.
func visibleComment(ctx context.Context, r *repo.GormRepo, v repo.Viewer, id uint) (*models.Comment, error) {
	c, err := r.GetComment(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if _, err := visibleBlog(ctx, r, v, c.BlogPostID); err != nil {
		return nil, err
	}
	if !canSee(v, c.AuthorID, c.Hidden) {
		return nil, ErrNotFound
	}
	return c, nil
}

// visibleTarget checks a vote or report target the same way a read would.
func visibleTarget(ctx context.Context, r *repo.GormRepo, v repo.Viewer, targetType string, id uint) error {
	var err error
	switch targetType {
	case models.TargetBlog:
		_, err = visibleBlog(ctx, r, v, id)
	case models.TargetComment:
		_, err = visibleComment(ctx, r, v, id)
	default:
		return invalid("unknown target")
	}
	return err
}

func (s *CommentService) List(ctx context.Context, actor *Actor, blogID uint, sort string, offset, limit int) (int64, []models.Comment, error) {
	sort, err := ParseSort(sort)
	if err != nil {
		return 0, nil, err
	}
	v, err := viewerFor(ctx, s.Repo, actor)
	if err != nil {
		return 0, nil, err
	}
	if _, err := visibleBlog(ctx, s.Repo, v, blogID); err != nil {
		return 0, nil, err
	}
	return s.Repo.ListComments(ctx, repo.CommentFilter{BlogPostID: blogID, Sort: sort, Viewer: v}, offset, limit)
}

func (s *CommentService) Create(ctx context.Context, actor Actor, blogID uint, in CommentInput) (*models.Comment, error) {
	u, err := activeUser(ctx, s.Repo, actor.Username)
	if err != nil {
		return nil, err
	}
	content, err := requireText("content", in.Content, maxCommentLen)
	if err != nil {
		return nil, err
	}

	v := repo.Viewer{UserID: u.ID, Admin: actor.Admin}
	if _, err := visibleBlog(ctx, s.Repo, v, blogID); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		parent, err := s.Repo.GetComment(ctx, *in.ParentID)
		if err != nil || !canSee(v, parent.AuthorID, parent.Hidden) {
			return nil, invalid("parent comment not found")
		}
		if parent.BlogPostID != blogID {
			return nil, invalid("parent comment belongs to another post")
		}
	}

	c := &models.Comment{
		Content:    content,
		AuthorID:   u.ID,
		BlogPostID: blogID,
		ParentID:   in.ParentID,
	}
	if err := s.Repo.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	c.Author = *u

	publish(ctx, s.Events, mykafka.TopicContentEvents,
		mykafka.NewEvent("comment.created", c.ID, u.Username, map[string]uint{"blogPostId": blogID}))
	return c, nil
}

func (s *CommentService) Delete(ctx context.Context, actor Actor, id uint) error {
	u, err := activeUser(ctx, s.Repo, actor.Username)
	if err != nil {
		return err
	}
	c, err := s.Repo.GetComment(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if c.AuthorID != u.ID && !actor.Admin {
		return ErrForbidden
	}
	if err := s.Repo.DeleteComment(ctx, id); err != nil {
		return notFound(err)
	}

	publish(ctx, s.Events, mykafka.TopicContentEvents, mykafka.NewEvent("comment.deleted", id, u.Username, nil))
	return nil
}
