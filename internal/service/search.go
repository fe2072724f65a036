package service

import (
	"context"
	"strings"

	"github.com/Skotchmaster/scriptorium/internal/logging"
	"github.com/Skotchmaster/scriptorium/internal/models"
	"github.com/Skotchmaster/scriptorium/internal/repo"
	"github.com/Skotchmaster/scriptorium/internal/search"
)

// SearchService runs full-text queries through Elasticsearch and falls
// back to database matching when the index is unavailable.
type SearchService struct {
	Repo  *repo.GormRepo
	Index search.Index
}

func (s *SearchService) Blogs(ctx context.Context, actor *Actor, q string, offset, limit int) (int64, []models.BlogPost, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, invalid("q is required")
	}
	v, err := viewerFor(ctx, s.Repo, actor)
	if err != nil {
		return 0, nil, err
	}

	if total, ids, ok := s.query(ctx, search.KindBlog, q, offset, limit); ok {
		rows, err := s.Repo.BlogsByIDs(ctx, ids, v)
		if err != nil {
			return 0, nil, err
		}
		byID := make(map[uint]models.BlogPost, len(rows))
		for _, b := range rows {
			byID[b.ID] = b
		}
		items := ordered(ids, byID)
		return adjustTotal(total, len(ids), len(items)), items, nil
	}

	return s.Repo.ListBlogs(ctx, repo.BlogFilter{Query: q, Viewer: v}, offset, limit)
}

func (s *SearchService) Templates(ctx context.Context, q string, offset, limit int) (int64, []models.Template, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, invalid("q is required")
	}

	if total, ids, ok := s.query(ctx, search.KindTemplate, q, offset, limit); ok {
		rows, err := s.Repo.TemplatesByIDs(ctx, ids)
		if err != nil {
			return 0, nil, err
		}
		byID := make(map[uint]models.Template, len(rows))
		for _, t := range rows {
			byID[t.ID] = t
		}
		items := ordered(ids, byID)
		return adjustTotal(total, len(ids), len(items)), items, nil
	}

	return s.Repo.ListTemplates(ctx, repo.TemplateFilter{Query: q}, offset, limit)
}

func (s *SearchService) query(ctx context.Context, kind, q string, offset, limit int) (int64, []uint, bool) {
	if s.Index == nil {
		return 0, nil, false
	}
	total, ids, err := s.Index.Search(ctx, kind, q, offset, limit)
	if err != nil {
		logging.FromContext(ctx).Warn("search_fallback", "kind", kind, "error", err)
		return 0, nil, false
	}
	return total, ids, true
}

// ordered keeps the relevance order of ids, skipping rows that were
// deleted or are not visible since they were indexed.
func ordered[T any](ids []uint, byID map[uint]T) []T {
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			out = append(out, row)
		}
	}
	return out
}

// adjustTotal discounts index hits on this page that no longer resolve to a
// row the viewer can read. Hits on other pages are not rechecked, so the
// total stays an estimate until those pages are fetched.
func adjustTotal(total int64, hits, kept int) int64 {
	total -= int64(hits - kept)
	if total < int64(kept) {
		return int64(kept)
	}
	return total
}
