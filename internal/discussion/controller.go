// Package discussion drives the page of a single post: the post itself, its
// vote state and the threaded comment forest.
package discussion

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/emilythestrangee/newsboard/internal/apperr"
	"github.com/emilythestrangee/newsboard/internal/logging"
	"github.com/emilythestrangee/newsboard/internal/models"
	"github.com/emilythestrangee/newsboard/internal/remote"
	"github.com/emilythestrangee/newsboard/internal/thread"
	"github.com/emilythestrangee/newsboard/internal/vote"
)

var log = logging.NewLogger("discussion")

// Store is the part of remote.Store the controller uses.
type Store interface {
	vote.Remote
	FetchPost(ctx context.Context, postID int) (models.Post, error)
	FetchComments(ctx context.Context, postID int) ([]models.Comment, error)
	CreateComment(ctx context.Context, postID int, in models.CommentCreate) (models.Comment, error)
	UpdateComment(ctx context.Context, commentID int, in models.CommentUpdate) (models.Comment, error)
	Viewer() (models.User, bool)
}

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// State is what a view renders. A failed load keeps the data of the last
// successful one.
type State struct {
	Status Status
	Post   models.Post
	Vote   *vote.State
	Forest *thread.Forest
	Err    error
}

type Controller struct {
	store Store

	mu           sync.RWMutex
	seq          uint64
	postID       int // post of the published state
	state        State
	commentVotes map[int]*vote.State
}

func New(store Store) *Controller {
	return &Controller{store: store}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// CommentVote returns the vote state of a loaded comment.
func (c *Controller) CommentVote(commentID int) (*vote.State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.commentVotes[commentID]
	return v, ok
}

// Load fetches the post and its comments and publishes a freshly built forest.
// If another Load was issued while this one was outstanding, its result wins
// and this call returns apperr.ErrSuperseded.
func (c *Controller) Load(ctx context.Context, postID int) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.state.Status = StatusLoading
	c.state.Err = nil
	c.mu.Unlock()

	var (
		post     models.Post
		comments []models.Comment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		post, err = c.store.FetchPost(gctx, postID)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = c.store.FetchComments(gctx, postID)
		return err
	})
	err := g.Wait()

	var forest *thread.Forest
	var votes map[int]*vote.State
	if err == nil {
		forest = thread.Build(comments)
		if len(forest.Orphans) > 0 || len(forest.Cycles) > 0 {
			log.Warningf("post %d: orphans promoted %v, cycles broken at %v", postID, forest.Orphans, forest.Cycles)
		}
		votes = make(map[int]*vote.State, len(comments))
		forest.Walk(func(n *thread.Node, _ int) bool {
			cm := n.Comment
			votes[cm.ID] = vote.New(vote.Item{Kind: vote.KindComment, ID: cm.ID}, cm.Points, vote.MarkFromValue(cm.ViewerVote))
			return true
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		log.Debugf("post %d: dropping load %d, latest is %d", postID, seq, c.seq)
		return apperr.ErrSuperseded
	}
	if err != nil {
		c.state.Status = StatusFailed
		c.state.Err = err
		log.Errorf("post %d: load failed: %v", postID, err)
		return fmt.Errorf("load post %d: %w", postID, err)
	}
	c.state = State{
		Status: StatusReady,
		Post:   post,
		Vote:   vote.New(vote.Item{Kind: vote.KindPost, ID: post.ID}, post.Points, vote.MarkFromValue(post.ViewerVote)),
		Forest: forest,
	}
	c.postID = postID
	c.commentVotes = votes
	return nil
}

// Reply posts a comment under parentID (nil for top level) and reloads the
// whole discussion.
func (c *Controller) Reply(ctx context.Context, parentID *int, content string) (models.Comment, error) {
	content, err := remote.ValidateContent(content)
	if err != nil {
		return models.Comment{}, err
	}
	if !c.store.Authenticated() {
		return models.Comment{}, apperr.Unauthorized("login required to comment")
	}

	c.mu.RLock()
	postID, forest := c.postID, c.state.Forest
	c.mu.RUnlock()
	if postID == 0 {
		return models.Comment{}, apperr.NotFound("no post loaded")
	}
	if parentID != nil && forest.Find(*parentID) == nil {
		return models.Comment{}, apperr.NotFound(fmt.Sprintf("comment %d not in this discussion", *parentID))
	}

	created, err := c.store.CreateComment(ctx, postID, models.CommentCreate{Content: content, ParentID: parentID})
	if err != nil {
		return models.Comment{}, err
	}
	log.Infof("post %d: comment %d created", postID, created.ID)
	return created, c.Load(ctx, postID)
}

// EditComment replaces the content of one comment. Only that node changes in
// the published forest; nothing is refetched.
func (c *Controller) EditComment(ctx context.Context, commentID int, content string) (models.Comment, error) {
	content, err := remote.ValidateContent(content)
	if err != nil {
		return models.Comment{}, err
	}
	if !c.store.Authenticated() {
		return models.Comment{}, apperr.Unauthorized("login required to edit")
	}

	c.mu.RLock()
	node := c.state.Forest.Find(commentID)
	c.mu.RUnlock()
	if node == nil {
		return models.Comment{}, apperr.NotFound(fmt.Sprintf("comment %d not in this discussion", commentID))
	}
	if viewer, ok := c.store.Viewer(); ok && viewer.ID != node.Comment.AuthorID {
		return models.Comment{}, apperr.Forbidden("only the author can edit a comment")
	}

	updated, err := c.store.UpdateComment(ctx, commentID, models.CommentUpdate{Content: content})
	if err != nil {
		return models.Comment{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if next, ok := c.state.Forest.WithContent(commentID, updated.Content, updated.UpdatedAt); ok {
		c.state.Forest = next
	}
	return updated, nil
}

// VotePost toggles the viewer's vote on the loaded post.
func (c *Controller) VotePost(ctx context.Context, dir vote.Direction) (vote.Effect, error) {
	c.mu.RLock()
	v := c.state.Vote
	c.mu.RUnlock()
	if v == nil {
		return vote.Effect{}, apperr.NotFound("no post loaded")
	}
	return v.Apply(ctx, dir, c.store)
}

// VoteComment toggles the viewer's vote on one loaded comment.
func (c *Controller) VoteComment(ctx context.Context, commentID int, dir vote.Direction) (vote.Effect, error) {
	v, ok := c.CommentVote(commentID)
	if !ok {
		return vote.Effect{}, apperr.NotFound(fmt.Sprintf("comment %d not in this discussion", commentID))
	}
	return v.Apply(ctx, dir, c.store)
}
