package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/scriptorium/internal/logging"
	"github.com/Skotchmaster/scriptorium/internal/models"
	"github.com/Skotchmaster/scriptorium/internal/mykafka"
	"github.com/Skotchmaster/scriptorium/internal/repo"
	"github.com/Skotchmaster/scriptorium/internal/search"
)

type BlogService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
	Index  search.Index
}

type BlogInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	TemplateIDs []uint   `json:"templateIds"`
}

type BlogPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Content     *string   `json:"content"`
	Tags        *[]string `json:"tags"`
	TemplateIDs *[]uint   `json:"templateIds"`
}

type BlogQuery struct {
	Query      string
	Tag        string
	TemplateID uint
	Author     string
	Sort       string
}

func ParseSort(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", repo.SortRecent:
		return repo.SortRecent, nil
	case repo.SortRating:
		return repo.SortRating, nil
	default:
		return "", invalid("sort must be rating or recent")
	}
}

func blogDoc(b *models.BlogPost) search.Document {
	return search.Document{
		ID:     b.ID,
		Kind:   search.KindBlog,
		Title:  b.Title,
		Body:   b.Description + "\n" + b.Content,
		Tags:   models.TagNames(b.Tags),
		Hidden: b.Hidden,
	}
}

func (s *BlogService) index(ctx context.Context, b *models.BlogPost) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Put(ctx, blogDoc(b)); err != nil {
		logging.FromContext(ctx).Warn("index_blog_error", "id", b.ID, "error", err)
	}
}

func (s *BlogService) List(ctx context.Context, actor *Actor, q BlogQuery, offset, limit int) (int64, []models.BlogPost, error) {
	sort, err := ParseSort(q.Sort)
	if err != nil {
		return 0, nil, err
	}
	v, err := viewerFor(ctx, s.Repo, actor)
	if err != nil {
		return 0, nil, err
	}

	f := repo.BlogFilter{
		Query:      strings.TrimSpace(q.Query),
		Tag:        q.Tag,
		TemplateID: q.TemplateID,
		Sort:       sort,
		Viewer:     v,
	}
	if author := strings.TrimSpace(q.Author); author != "" {
		u, err := activeUser(ctx, s.Repo, author)
		if errors.Is(err, ErrUserNotFound) {
			return 0, []models.BlogPost{}, nil
		}
		if err != nil {
			return 0, nil, err
		}
		f.AuthorID = u.ID
	}
	return s.Repo.ListBlogs(ctx, f, offset, limit)
}

// Get applies visibility: hidden posts look missing to everyone but their
// author and admins.
func (s *BlogService) Get(ctx context.Context, actor *Actor, id uint) (*models.BlogPost, error) {
	v, err := viewerFor(ctx, s.Repo, actor)
	if err != nil {
		return nil, err
	}
	b, err := s.Repo.GetBlog(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !canSee(v, b.AuthorID, b.Hidden) {
		return nil, ErrNotFound
	}
	if v.UserID != 0 {
		vote, err := s.Repo.UserVote(ctx, v.UserID, models.TargetBlog, b.ID)
		if err != nil {
			return nil, err
		}
		b.MyVote = &vote
	}
	return b, nil
}

func (s *BlogService) Create(ctx context.Context, actor Actor, in BlogInput) (*models.BlogPost, error) {
	u, err := activeUser(ctx, s.Repo, actor.Username)
	if err != nil {
		return nil, err
	}

	title, err := requireText("title", in.Title, maxTitleLen)
	if err != nil {
		return nil, err
	}
	content, err := requireText("content", in.Content, 0)
	if err != nil {
		return nil, err
	}
	if err := checkTags(in.Tags); err != nil {
		return nil, err
	}

	b := &models.BlogPost{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Content:     content,
		AuthorID:    u.ID,
	}
	if err := s.Repo.CreateBlog(ctx, b, in.Tags, in.TemplateIDs); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("unknown template id")
		}
		return nil, err
	}
	b.Author = *u

	s.index(ctx, b)
	publish(ctx, s.Events, mykafka.TopicContentEvents, mykafka.NewEvent("blog.created", b.ID, u.Username, nil))
	return b, nil
}

func (s *BlogService) Update(ctx context.Context, actor Actor, id uint, p BlogPatch) (*models.BlogPost, error) {
	u, err := activeUser(ctx, s.Repo, actor.Username)
	if err != nil {
		return nil, err
	}
	b, err := s.Repo.GetBlog(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if b.AuthorID != u.ID {
		if b.Hidden && !actor.Admin {
			return nil, ErrNotFound
		}
		return nil, ErrForbidden
	}
	if b.Hidden {
		return nil, ErrHidden
	}

	if p.Title != nil {
		if b.Title, err = requireText("title", *p.Title, maxTitleLen); err != nil {
			return nil, err
		}
	}
	if p.Description != nil {
		b.Description = strings.TrimSpace(*p.Description)
	}
	if p.Content != nil {
		if b.Content, err = requireText("content", *p.Content, 0); err != nil {
			return nil, err
		}
	}
	if p.Tags != nil {
		if err := checkTags(*p.Tags); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.UpdateBlog(ctx, b, p.Tags, p.TemplateIDs); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("unknown template id")
		}
		return nil, err
	}

	s.index(ctx, b)
	publish(ctx, s.Events, mykafka.TopicContentEvents, mykafka.NewEvent("blog.updated", b.ID, u.Username, nil))
	return b, nil
}

func (s *BlogService) Delete(ctx context.Context, actor Actor, id uint) error {
	u, err := activeUser(ctx, s.Repo, actor.Username)
	if err != nil {
		return err
	}
	b, err := s.Repo.GetBlog(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if b.AuthorID != u.ID && !actor.Admin {
		return ErrForbidden
	}
	if err := s.Repo.DeleteBlog(ctx, id); err != nil {
		return notFound(err)
	}

	if s.Index != nil {
		if err := s.Index.Remove(ctx, search.KindBlog, id); err != nil {
			logging.FromContext(ctx).Warn("unindex_blog_error", "id", id, "error", err)
		}
	}
	publish(ctx, s.Events, mykafka.TopicContentEvents, mykafka.NewEvent("blog.deleted", id, u.Username, nil))
	return nil
}
