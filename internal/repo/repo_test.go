package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/scriptorium/internal/db/dbtest"
	"github.com/Skotchmaster/scriptorium/internal/models"
)

func newRepo(t *testing.T) *GormRepo {
	t.Helper()
	return &GormRepo{DB: dbtest.InitTestDB(t)}
}

func mustUser(t *testing.T, r *GormRepo, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, r.CreateUserIfNotExists(context.Background(), u))
	return u
}

func mustBlog(t *testing.T, r *GormRepo, author *models.User, title string, tags []string, tpl []uint) *models.BlogPost {
	t.Helper()
	b := &models.BlogPost{Title: title, Content: title + " body", AuthorID: author.ID}
	require.NoError(t, r.CreateBlog(context.Background(), b, tags, tpl))
	return b
}

func TestCreateUserIfNotExists_Duplicate(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	mustUser(t, r, "alice")
	err := r.CreateUserIfNotExists(ctx, &models.User{Username: "alice", PasswordHash: "y"})
	require.ErrorIs(t, err, ErrUserAlreadyExist)

	u, err := r.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "x", u.PasswordHash)
}

func TestListUsers_SkipsDeleted(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	mustUser(t, r, "alice")
	bob := mustUser(t, r, "bob")
	bob.Deleted = true
	require.NoError(t, r.SaveUser(ctx, bob))

	total, items, err := r.ListUsers(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "alice", items[0].Username)
}

func TestBlogs_CreateWithTagsAndTemplates(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	alice := mustUser(t, r, "alice")

	tpl := &models.Template{Title: "Hello", Code: "print(1)", Language: "python", AuthorID: alice.ID}
	require.NoError(t, r.CreateTemplate(ctx, tpl, []string{"Python", " python "}))
	require.Len(t, tpl.Tags, 1)

	b := mustBlog(t, r, alice, "Intro", []string{"go", "web"}, []uint{tpl.ID})

	got, err := r.GetBlog(ctx, b.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"go", "web"}, models.TagNames(got.Tags))
	require.Len(t, got.Templates, 1)
	assert.Equal(t, tpl.ID, got.Templates[0].ID)
	assert.Equal(t, "alice", got.Author.Username)

	err = r.CreateBlog(ctx, &models.BlogPost{Title: "x", Content: "y", AuthorID: alice.ID}, nil, []uint{999})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestBlogs_UpdateReplacesTags(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	alice := mustUser(t, r, "alice")
	b := mustBlog(t, r, alice, "Intro", []string{"go"}, nil)

	b.Title = "Renamed"
	tags := []string{"rust"}
	require.NoError(t, r.UpdateBlog(ctx, b, &tags, nil))

	got, err := r.GetBlog(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, []string{"rust"}, models.TagNames(got.Tags))
}

func TestListBlogs_Filters(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	alice := mustUser(t, r, "alice")
	bob := mustUser(t, r, "bob")

	tpl := &models.Template{Title: "T", Code: "c", Language: "go", AuthorID: alice.ID}
	require.NoError(t, r.CreateTemplate(ctx, tpl, nil))

	mustBlog(t, r, alice, "Learning Go", []string{"go"}, []uint{tpl.ID})
	mustBlog(t, r, bob, "Rust notes", []string{"rust"}, nil)
	hidden := mustBlog(t, r, bob, "Secret go", []string{"go"}, nil)
	require.NoError(t, r.SetBlogHidden(ctx, hidden.ID, true))
	deleted := mustBlog(t, r, alice, "Old go", []string{"go"}, nil)
	require.NoError(t, r.DeleteBlog(ctx, deleted.ID))

	tests := []struct {
		name   string
		filter BlogFilter
		want   []string
	}{
		{"anonymous sees visible", BlogFilter{}, []string{"Rust notes", "Learning Go"}},
		{"author sees own hidden", BlogFilter{Viewer: Viewer{UserID: bob.ID}}, []string{"Secret go", "Rust notes", "Learning Go"}},
		{"admin sees all", BlogFilter{Viewer: Viewer{Admin: true}}, []string{"Secret go", "Rust notes", "Learning Go"}},
		{"query", BlogFilter{Query: "GO"}, []string{"Learning Go"}},
		{"tag", BlogFilter{Tag: "Rust"}, []string{"Rust notes"}},
		{"template", BlogFilter{TemplateID: tpl.ID}, []string{"Learning Go"}},
		{"author", BlogFilter{AuthorID: alice.ID}, []string{"Learning Go"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, items, err := r.ListBlogs(ctx, tt.filter, 0, 10)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)
			titles := make([]string, 0, len(items))
			for _, b := range items {
				titles = append(titles, b.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}

	_, err := r.GetBlog(ctx, deleted.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestVote_CountersFollowInteractions(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	alice := mustUser(t, r, "alice")
	bob := mustUser(t, r, "bob")
	b := mustBlog(t, r, alice, "Post", nil, nil)

	tally, err := r.Vote(ctx, alice.ID, models.TargetBlog, b.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, Tally{Upvotes: 1}, *tally)

	tally, err = r.Vote(ctx, alice.ID, models.TargetBlog, b.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, Tally{Upvotes: 1}, *tally)

	tally, err = r.Vote(ctx, bob.ID, models.TargetBlog, b.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, Tally{Upvotes: 1, Downvotes: 1}, *tally)

	tally, err = r.Vote(ctx, alice.ID, models.TargetBlog, b.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, Tally{Downvotes: 2}, *tally)

	tally, err = r.Vote(ctx, bob.ID, models.TargetBlog, b.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, Tally{Downvotes: 1}, *tally)

	v, err := r.UserVote(ctx, bob.ID, models.TargetBlog, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	_, err = r.Vote(ctx, alice.ID, models.TargetBlog, 999, 1)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = r.Vote(ctx, alice.ID, "video", b.ID, 1)
	require.ErrorIs(t, err, ErrUnknownTarget)
}

func TestListBlogs_SortByRating(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	alice := mustUser(t, r, "alice")

	low := mustBlog(t, r, alice, "low", nil, nil)
	high := mustBlog(t, r, alice, "high", nil, nil)
	mustBlog(t, r, alice, "zero", nil, nil)

	_, err := r.Vote(ctx, alice.ID, models.TargetBlog, low.ID, -1)
	require.NoError(t, err)
	_, err = r.Vote(ctx, alice.ID, models.TargetBlog, high.ID, 1)
	require.NoError(t, err)

	_, items, err := r.ListBlogs(ctx, BlogFilter{Sort: SortRating}, 0, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "high", items[0].Title)
	assert.Equal(t, "zero", items[1].Title)
	assert.Equal(t, "low", items[2].Title)
}

func TestReports(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	alice := mustUser(t, r, "alice")
	bob := mustUser(t, r, "bob")

	once := mustBlog(t, r, alice, "once", nil, nil)
	twice := mustBlog(t, r, alice, "twice", nil, nil)
	mustBlog(t, r, alice, "clean", nil, nil)

	report := func(reporter *models.User, target uint) error {
		return r.CreateReport(ctx, &models.Report{
			ReporterID: reporter.ID,
			TargetType: models.TargetBlog,
			TargetID:   target,
			Reason:     "spam",
		})
	}
	require.NoError(t, report(alice, once.ID))
	require.NoError(t, report(alice, twice.ID))
	require.NoError(t, report(bob, twice.ID))
	require.ErrorIs(t, report(bob, twice.ID), ErrAlreadyReported)

	total, items, err := r.ListReportedBlogs(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "twice", items[0].Title)
	assert.Equal(t, 2, items[0].ReportCount)

	byTarget, err := r.ReportsFor(ctx, models.TargetBlog, []uint{once.ID, twice.ID})
	require.NoError(t, err)
	assert.Len(t, byTarget[twice.ID], 2)
	assert.Equal(t, "alice", byTarget[once.ID][0].Reporter.Username)
}

func TestComments_ListAndHide(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	alice := mustUser(t, r, "alice")
	bob := mustUser(t, r, "bob")
	b := mustBlog(t, r, alice, "Post", nil, nil)

	first := &models.Comment{Content: "first", AuthorID: alice.ID, BlogPostID: b.ID}
	require.NoError(t, r.CreateComment(ctx, first))
	reply := &models.Comment{Content: "reply", AuthorID: bob.ID, BlogPostID: b.ID, ParentID: &first.ID}
	require.NoError(t, r.CreateComment(ctx, reply))
	require.NoError(t, r.SetCommentHidden(ctx, reply.ID, true))

	total, items, err := r.ListComments(ctx, CommentFilter{BlogPostID: b.ID}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "first", items[0].Content)

	total, _, err = r.ListComments(ctx, CommentFilter{BlogPostID: b.ID, Viewer: Viewer{UserID: bob.ID}}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	require.NoError(t, r.DeleteComment(ctx, first.ID))
	require.ErrorIs(t, r.DeleteComment(ctx, first.ID), gorm.ErrRecordNotFound)
	require.ErrorIs(t, r.SetCommentHidden(ctx, 999, true), gorm.ErrRecordNotFound)
}

func TestTemplates_ListAndDelete(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	alice := mustUser(t, r, "alice")

	a := &models.Template{Title: "Binary search", Code: "func search()", Language: "go", AuthorID: alice.ID}
	require.NoError(t, r.CreateTemplate(ctx, a, []string{"algo"}))
	b := &models.Template{Title: "Hello", Code: "print('hi')", Language: "python", AuthorID: alice.ID}
	require.NoError(t, r.CreateTemplate(ctx, b, nil))

	total, items, err := r.ListTemplates(ctx, TemplateFilter{Tag: "ALGO"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, a.ID, items[0].ID)

	total, _, err = r.ListTemplates(ctx, TemplateFilter{Query: "print"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	require.NoError(t, r.DeleteTemplate(ctx, b.ID))
	total, _, err = r.ListTemplates(ctx, TemplateFilter{}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	tpls, err := r.TemplatesByIDs(ctx, []uint{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, tpls, 1)
}
