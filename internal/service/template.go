package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/scriptorium/internal/logging"
	"github.com/Skotchmaster/scriptorium/internal/models"
	"github.com/Skotchmaster/scriptorium/internal/mykafka"
	"github.com/Skotchmaster/scriptorium/internal/repo"
	"github.com/Skotchmaster/scriptorium/internal/search"
)

type TemplateService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
	Index  search.Index
}

type TemplateInput struct {
	Title       string   `json:"title"`
	Explanation string   `json:"explanation"`
	Code        string   `json:"code"`
	Language    string   `json:"language"`
	Tags        []string `json:"tags"`
}

type TemplatePatch struct {
	Title       *string   `json:"title"`
	Explanation *string   `json:"explanation"`
	Code        *string   `json:"code"`
	Language    *string   `json:"language"`
	Tags        *[]string `json:"tags"`
}

type TemplateQuery struct {
	Query  string
	Tag    string
	Author string
	Mine   bool
}

func templateDoc(t *models.Template) search.Document {
	return search.Document{
		ID:    t.ID,
		Kind:  search.KindTemplate,
		Title: t.Title,
		Body:  t.Explanation + "\n" + t.Code,
		Tags:  models.TagNames(t.Tags),
	}
}

func (s *TemplateService) index(ctx context.Context, t *models.Template) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Put(ctx, templateDoc(t)); err != nil {
		logging.FromContext(ctx).Warn("index_template_error", "id", t.ID, "error", err)
	}
}

func (s *TemplateService) List(ctx context.Context, actor *Actor, q TemplateQuery, offset, limit int) (int64, []models.Template, error) {
	f := repo.TemplateFilter{Query: strings.TrimSpace(q.Query), Tag: q.Tag}

	author := strings.TrimSpace(q.Author)
	if q.Mine {
		if actor == nil {
			return 0, nil, ErrForbidden
		}
		author = actor.Username
	}
	if author != "" {
		u, err := activeUser(ctx, s.Repo, author)
		if errors.Is(err, ErrUserNotFound) {
			return 0, []models.Template{}, nil
		}
		if err != nil {
			return 0, nil, err
		}
		f.AuthorID = u.ID
	}

	return s.Repo.ListTemplates(ctx, f, offset, limit)
}

func (s *TemplateService) Get(ctx context.Context, id uint) (*models.Template, error) {
	t, err := s.Repo.GetTemplate(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

func (s *TemplateService) Create(ctx context.Context, actor Actor, in TemplateInput) (*models.Template, error) {
	u, err := activeUser(ctx, s.Repo, actor.Username)
	if err != nil {
		return nil, err
	}

	t, err := buildTemplate(in)
	if err != nil {
		return nil, err
	}
	t.AuthorID = u.ID

	if err := s.Repo.CreateTemplate(ctx, t, in.Tags); err != nil {
		return nil, err
	}
	t.Author = *u

	s.index(ctx, t)
	publish(ctx, s.Events, mykafka.TopicContentEvents, mykafka.NewEvent("template.created", t.ID, u.Username, nil))
	return t, nil
}

func buildTemplate(in TemplateInput) (*models.Template, error) {
	title, err := requireText("title", in.Title, maxTitleLen)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Code) == "" {
		return nil, invalid("code is required")
	}
	lang, err := requireText("language", in.Language, 50)
	if err != nil {
		return nil, err
	}
	if err := checkTags(in.Tags); err != nil {
		return nil, err
	}
	return &models.Template{
		Title:       title,
		Explanation: strings.TrimSpace(in.Explanation),
		Code:        in.Code,
		Language:    strings.ToLower(lang),
	}, nil
}

func (s *TemplateService) Update(ctx context.Context, actor Actor, id uint, p TemplatePatch) (*models.Template, error) {
	u, err := activeUser(ctx, s.Repo, actor.Username)
	if err != nil {
		return nil, err
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.AuthorID != u.ID {
		return nil, ErrForbidden
	}

	if p.Title != nil {
		if t.Title, err = requireText("title", *p.Title, maxTitleLen); err != nil {
			return nil, err
		}
	}
	if p.Explanation != nil {
		t.Explanation = strings.TrimSpace(*p.Explanation)
	}
	if p.Code != nil {
		if strings.TrimSpace(*p.Code) == "" {
			return nil, invalid("code is required")
		}
		t.Code = *p.Code
	}
	if p.Language != nil {
		lang, err := requireText("language", *p.Language, 50)
		if err != nil {
			return nil, err
		}
		t.Language = strings.ToLower(lang)
	}
	if p.Tags != nil {
		if err := checkTags(*p.Tags); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.UpdateTemplate(ctx, t, p.Tags); err != nil {
		return nil, err
	}

	s.index(ctx, t)
	publish(ctx, s.Events, mykafka.TopicContentEvents, mykafka.NewEvent("template.updated", t.ID, u.Username, nil))
	return t, nil
}

func (s *TemplateService) Delete(ctx context.Context, actor Actor, id uint) error {
	u, err := activeUser(ctx, s.Repo, actor.Username)
	if err != nil {
		return err
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if t.AuthorID != u.ID && !actor.Admin {
		return ErrForbidden
	}
	if err := s.Repo.DeleteTemplate(ctx, id); err != nil {
		return notFound(err)
	}

	if s.Index != nil {
		if err := s.Index.Remove(ctx, search.KindTemplate, id); err != nil {
			logging.FromContext(ctx).Warn("unindex_template_error", "id", id, "error", err)
		}
	}
	publish(ctx, s.Events, mykafka.TopicContentEvents, mykafka.NewEvent("template.deleted", id, u.Username, nil))
	return nil
}

// Fork copies a template into the caller's account and records its origin.
func (s *TemplateService) Fork(ctx context.Context, actor Actor, id uint) (*models.Template, error) {
	u, err := activeUser(ctx, s.Repo, actor.Username)
	if err != nil {
		return nil, err
	}
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fork := &models.Template{
		Title:        src.Title,
		Explanation:  src.Explanation,
		Code:         src.Code,
		Language:     src.Language,
		AuthorID:     u.ID,
		ForkedFromID: &src.ID,
	}
	if err := s.Repo.CreateTemplate(ctx, fork, models.TagNames(src.Tags)); err != nil {
		return nil, err
	}
	fork.Author = *u

	s.index(ctx, fork)
	publish(ctx, s.Events, mykafka.TopicContentEvents,
		mykafka.NewEvent("template.forked", fork.ID, u.Username, map[string]uint{"forkedFrom": src.ID}))
	return fork, nil
}
