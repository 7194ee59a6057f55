// Package remote talks to the authoritative newsboard backend. Store is the
// contract the controllers are written against; Client implements it over
// HTTP with an explicit Session.
package remote

import (
	"context"

	"github.com/emilythestrangee/newsboard/internal/models"
	"github.com/emilythestrangee/newsboard/internal/vote"
)

type Store interface {
	FetchPosts(ctx context.Context, sort models.Sort, limit, offset int) ([]models.Post, error)
	SearchPosts(ctx context.Context, query string, sort models.Sort) ([]models.Post, error)
	FetchPost(ctx context.Context, postID int) (models.Post, error)
	CreatePost(ctx context.Context, in models.PostCreate) (models.Post, error)
	ToggleVote(ctx context.Context, item vote.Item, dir vote.Direction) (vote.Result, error)

	FetchComments(ctx context.Context, postID int) ([]models.Comment, error)
	CreateComment(ctx context.Context, postID int, in models.CommentCreate) (models.Comment, error)
	UpdateComment(ctx context.Context, commentID int, in models.CommentUpdate) (models.Comment, error)

	Signup(ctx context.Context, in models.Signup) (models.User, error)
	Authenticate(ctx context.Context, in models.Login) (models.User, error)
	CurrentViewer(ctx context.Context) (models.User, error)
	Logout()
	Authenticated() bool
	Viewer() (models.User, bool)
}

var _ Store = (*Client)(nil)
