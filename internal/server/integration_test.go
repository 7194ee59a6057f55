package server

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/newsboard/internal/apperr"
	"github.com/emilythestrangee/newsboard/internal/config"
	"github.com/emilythestrangee/newsboard/internal/database"
	"github.com/emilythestrangee/newsboard/internal/database/dbtest"
	"github.com/emilythestrangee/newsboard/internal/discussion"
	"github.com/emilythestrangee/newsboard/internal/feed"
	"github.com/emilythestrangee/newsboard/internal/middleware"
	"github.com/emilythestrangee/newsboard/internal/models"
	"github.com/emilythestrangee/newsboard/internal/remote"
	"github.com/emilythestrangee/newsboard/internal/vote"
)

var dsn string

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var teardown func(context.Context) error
	var err error
	dsn, teardown, err = dbtest.Start(ctx)
	if err != nil {
		log.Printf("integration tests skipped: %v", err)
		os.Exit(m.Run())
	}

	code := m.Run()

	if err := teardown(ctx); err != nil {
		log.Printf("could not teardown postgres container: %v", err)
	}
	os.Exit(code)
}

// backend starts the full server on a fresh schema and returns its URL.
func backend(t *testing.T) string {
	t.Helper()
	if dsn == "" {
		t.Skip("postgres container not available")
	}
	gin.SetMode(gin.TestMode)

	db, err := database.Open(dsn, "newsboard")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.GetDB().Exec("TRUNCATE users, posts, comments, votes RESTART IDENTITY CASCADE").Error)

	mr := miniredis.RunT(t)
	limiter, err := middleware.NewRateLimiter("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = limiter.Close() })

	cfg := config.Config{CORSOrigin: "*", JWTSecret: "integration", JWTTTL: time.Hour}
	srv := httptest.NewServer(New(cfg, db, limiter, nil).RegisterRoutes())
	t.Cleanup(srv.Close)
	return srv.URL
}

func signup(t *testing.T, url, name string) *remote.Client {
	t.Helper()
	c := remote.NewClient(url, remote.NewSession())
	_, err := c.Signup(context.Background(), models.Signup{
		Username:        name,
		Email:           name + "@example.com",
		Password:        "correct horse",
		ConfirmPassword: "correct horse",
	})
	require.NoError(t, err)
	return c
}

func TestAuthRoundTrip(t *testing.T) {
	url := backend(t)
	ctx := context.Background()
	signup(t, url, "ada")

	c := remote.NewClient(url, remote.NewSession())
	_, err := c.Authenticate(ctx, models.Login{Username: "ada", Password: "wrong password"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	user, err := c.Authenticate(ctx, models.Login{Username: "ada", Password: "correct horse"})
	require.NoError(t, err)
	me, err := c.CurrentViewer(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)

	_, err = remote.NewClient(url, nil).Signup(ctx, models.Signup{
		Username: "ada", Email: "other@example.com", Password: "correct horse", ConfirmPassword: "correct horse",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestFeedPagingAndVoting(t *testing.T) {
	url := backend(t)
	ctx := context.Background()
	ada := signup(t, url, "ada")

	for i := 0; i < 25; i++ {
		_, err := ada.CreatePost(ctx, models.PostCreate{Title: fmt.Sprintf("post number %02d", i), Text: "body"})
		require.NoError(t, err)
	}

	f := feed.New(ada)
	require.NoError(t, f.LoadPage(ctx, models.SortNew, true))
	first := f.Entries()
	require.Len(t, first, 20)
	assert.Equal(t, "post number 24", first[0].Post.Title)
	assert.Equal(t, "ada", first[0].Post.AuthorName)
	assert.True(t, f.State().HasMore)

	require.NoError(t, f.LoadMore(ctx))
	assert.Len(t, f.Entries(), 25)
	assert.False(t, f.State().HasMore)

	target := first[3].Post.ID
	eff, err := f.Vote(ctx, target, vote.DirUp)
	require.NoError(t, err)
	assert.Equal(t, 1, eff.Delta)
	_, err = f.Vote(ctx, target, vote.DirDown)
	require.NoError(t, err)

	require.NoError(t, f.LoadPage(ctx, models.SortTop, true))
	top := f.Entries()
	last := top[len(top)-1]
	assert.Equal(t, target, last.Post.ID, "the downvoted post sorts last")
	assert.Equal(t, -1, last.Post.Points)
	assert.Equal(t, vote.Down, last.Vote.Mark())

	require.NoError(t, f.Search(ctx, "number 07"))
	require.Len(t, f.Entries(), 1)
	assert.False(t, f.State().HasMore)
}

func TestDiscussionFlow(t *testing.T) {
	url := backend(t)
	ctx := context.Background()
	ada := signup(t, url, "ada")
	bob := signup(t, url, "bob")

	post, err := ada.CreatePost(ctx, models.PostCreate{Title: "Show: threads", URL: "https://example.com/threads"})
	require.NoError(t, err)

	d := discussion.New(ada)
	require.NoError(t, d.Load(ctx, post.ID))
	assert.Equal(t, 0, d.State().Forest.Len())

	root, err := d.Reply(ctx, nil, "top level")
	require.NoError(t, err)
	child, err := d.Reply(ctx, &root.ID, "nested")
	require.NoError(t, err)

	st := d.State()
	require.Len(t, st.Forest.Roots, 1)
	require.Len(t, st.Forest.Roots[0].Children, 1)
	assert.Equal(t, child.ID, st.Forest.Roots[0].Children[0].Comment.ID)
	assert.Equal(t, 2, st.Post.CommentCount)

	_, err = d.EditComment(ctx, child.ID, "nested, edited")
	require.NoError(t, err)
	assert.Equal(t, "nested, edited", d.State().Forest.Find(child.ID).Comment.Content)

	// Calling the client directly skips the controller's author check.
	bd := discussion.New(bob)
	require.NoError(t, bd.Load(ctx, post.ID))
	_, err = bob.UpdateComment(ctx, child.ID, models.CommentUpdate{Content: "hijacked"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = bob.CreateComment(ctx, post.ID+1000, models.CommentCreate{Content: "nowhere"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	eff, err := bd.VoteComment(ctx, root.ID, vote.DirUp)
	require.NoError(t, err)
	assert.Equal(t, vote.Up, eff.To)
	v, _ := bd.CommentVote(root.ID)
	assert.Equal(t, 1, v.Score())
}

func TestCommentRateLimit(t *testing.T) {
	url := backend(t)
	ctx := context.Background()
	ada := signup(t, url, "ada")

	post, err := ada.CreatePost(ctx, models.PostCreate{Title: "busy thread", Text: "talk"})
	require.NoError(t, err)

	for i := 0; i < commentLimit; i++ {
		_, err := ada.CreateComment(ctx, post.ID, models.CommentCreate{Content: fmt.Sprintf("comment %d", i)})
		require.NoError(t, err)
	}
	_, err = ada.CreateComment(ctx, post.ID, models.CommentCreate{Content: "one too many"})
	assert.ErrorIs(t, err, apperr.ErrRateLimited)
}
