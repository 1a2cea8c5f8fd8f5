// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/blogicum/internal/blog"
)

// testDB creates a migrated database in a temp dir.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "store-test.db"))
	require.NoError(t, err, "NewDB")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db, DriverSQLite), "Migrate")
	return db
}

func mustUser(t *testing.T, q *Queries, username string) User {
	t.Helper()
	u, err := q.CreateUser(context.Background(), CreateUserParams{
		Username:     username,
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)
	return u
}

func mustCategory(t *testing.T, q *Queries, slug string, published bool) Category {
	t.Helper()
	c, err := q.CreateCategory(context.Background(), CreateCategoryParams{
		Title:       slug,
		Slug:        slug,
		IsPublished: published,
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)
	return c
}

func mustPost(t *testing.T, q *Queries, p CreatePostParams) int64 {
	t.Helper()
	if p.Title == "" {
		p.Title = "title"
	}
	if p.Text == "" {
		p.Text = "text"
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	id, err := q.CreatePost(context.Background(), p)
	require.NoError(t, err)
	return id
}

func TestCreateUser(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	u, err := q.CreateUser(ctx, CreateUserParams{
		Username:     "leo",
		Email:        "leo@example.com",
		FirstName:    "Leo",
		LastName:     "Tolstoy",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "leo", u.Username)
	assert.Equal(t, "Leo Tolstoy", u.FullName())
	assert.False(t, u.LastLoginAt.Valid)

	_, err = q.CreateUser(ctx, CreateUserParams{Username: "leo", PasswordHash: "x", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := q.GetUserByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = q.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpdateUserProfile(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	a := mustUser(t, q, "anna")
	mustUser(t, q, "boris")

	taken, err := q.UsernameTaken(ctx, "boris", a.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = q.UsernameTaken(ctx, "anna", a.ID)
	require.NoError(t, err)
	assert.False(t, taken, "own username is not taken")

	err = q.UpdateUserProfile(ctx, UpdateUserProfileParams{ID: a.ID, Username: "boris", UpdatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrDuplicate)

	require.NoError(t, q.UpdateUserProfile(ctx, UpdateUserProfileParams{
		ID:        a.ID,
		Username:  "anna_k",
		Email:     "anna@example.com",
		FirstName: "Anna",
		UpdatedAt: time.Now(),
	}))
	got, err := q.GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "anna_k", got.Username)
	assert.Equal(t, "Anna", got.FullName())

	require.NoError(t, q.UpdateUserLastLogin(ctx, a.ID, time.Now()))
	got, err = q.GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.LastLoginAt.Valid)
}

// TestVisibleQueriesMatchRule builds every combination of the visibility
// inputs and checks the SQL listing returns exactly what blog.IsVisible allows.
func TestVisibleQueriesMatchRule(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	now := time.Now().UTC().Truncate(time.Second)
	author := mustUser(t, q, "author")
	reader := mustUser(t, q, "reader")
	open := mustCategory(t, q, "open", true)
	hidden := mustCategory(t, q, "hidden", false)

	categories := []sql.NullInt64{
		{},
		{Int64: open.ID, Valid: true},
		{Int64: hidden.ID, Valid: true},
	}
	pubDates := []time.Time{now.Add(-time.Hour), now, now.Add(time.Hour)}

	var ids []int64
	for _, cat := range categories {
		for _, pd := range pubDates {
			for _, published := range []bool{true, false} {
				ids = append(ids, mustPost(t, q, CreatePostParams{
					Title:       fmt.Sprintf("c%v-%s-%v", cat.Int64, pd.Format(time.TimeOnly), published),
					PubDate:     pd,
					IsPublished: published,
					AuthorID:    author.ID,
					CategoryID:  cat,
				}))
			}
		}
	}

	var all []PostDetail
	for _, id := range ids {
		p, err := q.GetPostByID(ctx, id)
		require.NoError(t, err)
		all = append(all, p)
	}

	want := visibleTo(all, reader.ID, now)

	listed, err := q.ListVisiblePosts(ctx, now, 100, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, postIDs(want), postIDs(listed))

	count, err := q.CountVisiblePosts(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(len(want)), count)

	// Only published, past-or-now posts in the open category survive.
	assert.Len(t, want, 2)

	// The author's own profile listing includes everything.
	own, err := q.ListPostsByAuthor(ctx, author.ID, true, now, 100, 0)
	require.NoError(t, err)
	assert.Len(t, own, len(ids))
	ownFiltered := visibleTo(all, author.ID, now)
	assert.Len(t, ownFiltered, len(ids))

	public, err := q.ListPostsByAuthor(ctx, author.ID, false, now, 100, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, postIDs(want), postIDs(public))

	byCat, err := q.ListVisiblePostsByCategory(ctx, open.ID, now, 100, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, postIDs(want), postIDs(byCat))

	byHidden, err := q.CountVisiblePostsByCategory(ctx, hidden.ID, now)
	require.NoError(t, err)
	assert.Zero(t, byHidden)
}

func TestListVisiblePosts_PaginationCoversAll(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	now := time.Now()
	author := mustUser(t, q, "author")
	cat := mustCategory(t, q, "travel", true)
	for i := range 23 {
		mustPost(t, q, CreatePostParams{
			PubDate:     now.Add(-time.Duration(i+1) * time.Minute),
			IsPublished: true,
			AuthorID:    author.ID,
			CategoryID:  sql.NullInt64{Int64: cat.ID, Valid: true},
		})
	}

	total, err := q.CountVisiblePosts(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(23), total)

	first := blog.NewPage(1, total, blog.PostsPerPage)
	seen := map[int64]bool{}
	var prev time.Time
	for n := 1; n <= first.TotalPages; n++ {
		page := blog.NewPage(n, total, blog.PostsPerPage)
		posts, err := q.ListVisiblePosts(ctx, now, page.Limit(), page.Offset())
		require.NoError(t, err)
		assert.Len(t, posts, page.ItemsOnPage())
		for _, p := range posts {
			assert.False(t, seen[p.ID], "post %d listed twice", p.ID)
			seen[p.ID] = true
			if !prev.IsZero() {
				assert.False(t, p.PubDate.After(prev), "posts must be newest first")
			}
			prev = p.PubDate
		}
	}
	assert.Len(t, seen, 23)
}

func TestGetPostByID(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	author := mustUser(t, q, "author")
	cat := mustCategory(t, q, "travel", true)
	loc, err := q.CreateLocation(ctx, "Moscow", false, time.Now())
	require.NoError(t, err)

	pub := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	id := mustPost(t, q, CreatePostParams{
		Title:       "Hello",
		Text:        "World",
		PubDate:     pub,
		Image:       sql.NullString{String: "/img.png", Valid: true},
		IsPublished: true,
		AuthorID:    author.ID,
		CategoryID:  sql.NullInt64{Int64: cat.ID, Valid: true},
		LocationID:  sql.NullInt64{Int64: loc.ID, Valid: true},
	})

	p, err := q.GetPostByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Hello", p.Title)
	assert.True(t, p.PubDate.Equal(pub), "PubDate = %v", p.PubDate)
	assert.Equal(t, "author", p.AuthorUsername)
	assert.Equal(t, "travel", p.CategorySlug.String)
	assert.True(t, p.CategoryIsPublished.Bool)
	assert.Equal(t, "Moscow", p.LocationName.String)
	assert.False(t, p.ShowLocation(), "unpublished location is hidden")
	assert.Equal(t, "/img.png", p.Image.String)

	_, err = q.GetPostByID(ctx, id+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePost_OwnerOnly(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	author := mustUser(t, q, "author")
	other := mustUser(t, q, "other")
	id := mustPost(t, q, CreatePostParams{Title: "Original", PubDate: time.Now(), IsPublished: true, AuthorID: author.ID})

	err := q.UpdatePost(ctx, UpdatePostParams{ID: id, AuthorID: other.ID, Title: "Hijacked", Text: "x", PubDate: time.Now()})
	assert.ErrorIs(t, err, ErrNotFound)

	p, err := q.GetPostByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Original", p.Title)

	require.NoError(t, q.UpdatePost(ctx, UpdatePostParams{ID: id, AuthorID: author.ID, Title: "Edited", Text: "x", PubDate: time.Now(), IsPublished: true}))
	// Saving identical values still counts as a match.
	require.NoError(t, q.UpdatePost(ctx, UpdatePostParams{ID: id, AuthorID: author.ID, Title: "Edited", Text: "x", PubDate: p.PubDate, IsPublished: true}))

	p, err = q.GetPostByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Edited", p.Title)
}

func TestDeletePostWithComments(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	author := mustUser(t, q, "author")
	other := mustUser(t, q, "other")
	id := mustPost(t, q, CreatePostParams{PubDate: time.Now(), IsPublished: true, AuthorID: author.ID})
	keep := mustPost(t, q, CreatePostParams{PubDate: time.Now(), IsPublished: true, AuthorID: author.ID})
	for i := range 3 {
		_, err := q.CreateComment(ctx, CreateCommentParams{Text: fmt.Sprint(i), CreatedAt: time.Now(), PostID: id, AuthorID: other.ID})
		require.NoError(t, err)
	}
	_, err := q.CreateComment(ctx, CreateCommentParams{Text: "stays", CreatedAt: time.Now(), PostID: keep, AuthorID: other.ID})
	require.NoError(t, err)

	err = DeletePostWithComments(ctx, db, id, other.ID)
	assert.ErrorIs(t, err, ErrNotFound, "non-author cannot delete")
	n, err := q.CountCommentsForPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "failed delete must roll back comment removal")

	require.NoError(t, DeletePostWithComments(ctx, db, id, author.ID))

	_, err = q.GetPostByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	n, err = q.CountCommentsForPost(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = q.CountCommentsForPost(ctx, keep)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestQueries_WithTx(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	author := mustUser(t, q, "author")
	id := mustPost(t, q, CreatePostParams{PubDate: time.Now(), IsPublished: true, AuthorID: author.ID})
	_, err := q.CreateComment(ctx, CreateCommentParams{Text: "first", CreatedAt: time.Now(), PostID: id, AuthorID: author.ID})
	require.NoError(t, err)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, q.WithTx(tx).DeleteCommentsForPost(ctx, id))
	require.NoError(t, tx.Rollback())

	n, err := q.CountCommentsForPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "rolled back delete must leave the comment")

	assert.ErrorIs(t, q.DeletePost(ctx, id+100, author.ID), ErrNotFound)
}

func TestComments(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	author := mustUser(t, q, "author")
	other := mustUser(t, q, "other")
	postID := mustPost(t, q, CreatePostParams{PubDate: time.Now(), IsPublished: true, AuthorID: author.ID})
	otherPost := mustPost(t, q, CreatePostParams{PubDate: time.Now(), IsPublished: true, AuthorID: author.ID})

	base := time.Now().Add(-time.Hour)
	second, err := q.CreateComment(ctx, CreateCommentParams{Text: "second", CreatedAt: base.Add(time.Minute), PostID: postID, AuthorID: other.ID})
	require.NoError(t, err)
	first, err := q.CreateComment(ctx, CreateCommentParams{Text: "first", CreatedAt: base, PostID: postID, AuthorID: author.ID})
	require.NoError(t, err)

	list, err := q.ListCommentsForPost(ctx, postID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first, list[0].ID, "oldest comment first")
	assert.Equal(t, second, list[1].ID)
	assert.Equal(t, "other", list[1].AuthorUsername)

	p, err := q.GetPostByID(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.CommentCount)

	_, err = q.GetCommentForPost(ctx, second, otherPost)
	assert.ErrorIs(t, err, ErrNotFound, "comment must belong to the post")

	err = q.UpdateCommentText(ctx, second, postID, author.ID, "hijacked")
	assert.ErrorIs(t, err, ErrNotFound)
	c, err := q.GetCommentForPost(ctx, second, postID)
	require.NoError(t, err)
	assert.Equal(t, "second", c.Text)

	require.NoError(t, q.UpdateCommentText(ctx, second, postID, other.ID, "edited"))
	c, err = q.GetCommentForPost(ctx, second, postID)
	require.NoError(t, err)
	assert.Equal(t, "edited", c.Text)

	assert.ErrorIs(t, q.DeleteComment(ctx, second, postID, author.ID), ErrNotFound)
	require.NoError(t, q.DeleteComment(ctx, second, postID, other.ID))
	_, err = q.GetCommentForPost(ctx, second, postID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListPublishedCategoriesWithCounts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	now := time.Now()
	author := mustUser(t, q, "author")
	travel := mustCategory(t, q, "travel", true)
	mustCategory(t, q, "secret", false)
	mustCategory(t, q, "empty", true)

	cat := sql.NullInt64{Int64: travel.ID, Valid: true}
	mustPost(t, q, CreatePostParams{PubDate: now.Add(-time.Hour), IsPublished: true, AuthorID: author.ID, CategoryID: cat})
	mustPost(t, q, CreatePostParams{PubDate: now.Add(time.Hour), IsPublished: true, AuthorID: author.ID, CategoryID: cat})
	mustPost(t, q, CreatePostParams{PubDate: now.Add(-time.Hour), IsPublished: false, AuthorID: author.ID, CategoryID: cat})

	list, err := q.ListPublishedCategoriesWithCounts(ctx, now)
	require.NoError(t, err)
	require.Len(t, list, 2)

	counts := map[string]int64{}
	for _, c := range list {
		counts[c.Slug] = c.PostCount
	}
	assert.Equal(t, map[string]int64{"travel": 1, "empty": 0}, counts)
}

func TestCountPostsGoingLive(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	now := time.Now()
	author := mustUser(t, q, "author")
	cat := mustCategory(t, q, "travel", true)
	catID := sql.NullInt64{Int64: cat.ID, Valid: true}

	mustPost(t, q, CreatePostParams{PubDate: now.Add(-30 * time.Second), IsPublished: true, AuthorID: author.ID, CategoryID: catID})
	mustPost(t, q, CreatePostParams{PubDate: now.Add(-2 * time.Hour), IsPublished: true, AuthorID: author.ID, CategoryID: catID})
	mustPost(t, q, CreatePostParams{PubDate: now.Add(time.Hour), IsPublished: true, AuthorID: author.ID, CategoryID: catID})

	n, err := q.CountPostsGoingLive(ctx, now.Add(-time.Minute), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSeed_Idempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, Seed(ctx, db, logger))
	require.NoError(t, Seed(ctx, db, logger))

	q := New(db)
	cats, err := q.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, len(DefaultCategories))

	_, err = q.GetCategoryBySlug(ctx, "everyday-life")
	assert.NoError(t, err)

	locs, err := q.ListLocations(ctx)
	require.NoError(t, err)
	assert.Len(t, locs, len(DefaultLocations))
}

func TestSeedCategories_InvalidSlug(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	q := New(db)

	err := seedCategories(ctx, q, []SeedCategory{{Title: "Travel", Slug: "Bad Slug"}}, time.Now(), logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid slug")

	// A title with nothing sluggable yields an empty slug.
	err = seedCategories(ctx, q, []SeedCategory{{Title: "!!!"}}, time.Now(), logger)
	require.Error(t, err)

	cats, err := q.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestDSNs(t *testing.T) {
	dsn := SQLiteDSN("/tmp/x.db")
	assert.Contains(t, dsn, "file:/tmp/x.db?")
	assert.Contains(t, dsn, "_time_format=sqlite")

	my, err := MySQLDSN("user:pass@tcp(localhost:3306)/blog")
	require.NoError(t, err)
	assert.Contains(t, my, "parseTime=true")
	assert.Contains(t, my, "clientFoundRows=true")

	_, err = Open("postgres", "x", DefaultDBConfig("postgres"))
	assert.Error(t, err)
}

func postIDs(posts []PostDetail) []int64 {
	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

// visibleTo applies blog.IsVisible to posts, keeping their order.
func visibleTo(posts []PostDetail, viewerID int64, now time.Time) []PostDetail {
	var out []PostDetail
	for _, p := range posts {
		if blog.IsVisible(p.Candidate(), viewerID, now) {
			out = append(out, p)
		}
	}
	return out
}
