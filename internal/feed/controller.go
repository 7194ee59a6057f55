// Package feed drives the post listing: paging by sort key, search mode and
// one vote state per visible post.
package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/emilythestrangee/newsboard/internal/apperr"
	"github.com/emilythestrangee/newsboard/internal/logging"
	"github.com/emilythestrangee/newsboard/internal/models"
	"github.com/emilythestrangee/newsboard/internal/vote"
)

var log = logging.NewLogger("feed")

const DefaultPageSize = 20

type Store interface {
	vote.Remote
	FetchPosts(ctx context.Context, sort models.Sort, limit, offset int) ([]models.Post, error)
	SearchPosts(ctx context.Context, query string, sort models.Sort) ([]models.Post, error)
}

// Entry is one visible post and its vote state.
type Entry struct {
	Post models.Post
	Vote *vote.State
}

type State struct {
	Sort    models.Sort
	Query   string
	Entries []Entry
	HasMore bool
	Loading bool
	Err     error
}

// Searching reports whether the list shows search results.
func (s State) Searching() bool {
	return s.Query != ""
}

type Controller struct {
	store    Store
	pageSize int

	mu     sync.RWMutex
	seq    uint64
	cursor int
	state  State
}

type Option func(*Controller)

// WithPageSize sets the page width, capped at models.MaxPageSize.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = min(n, models.MaxPageSize)
		}
	}
}

// WithSort sets the sort used before the first load.
func WithSort(sort models.Sort) Option {
	return func(c *Controller) {
		if sort != "" {
			c.state.Sort = sort
		}
	}
}

func New(store Store, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		pageSize: DefaultPageSize,
		state:    State{Sort: models.SortNew},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) PageSize() int {
	return c.pageSize
}

// State returns a copy of the current state. The Entries slice is copied; the
// vote states are shared.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := c.state
	st.Entries = append([]Entry(nil), c.state.Entries...)
	return st
}

func (c *Controller) Entries() []Entry {
	return c.State().Entries
}

// begin issues a new sequence number and marks the state loading.
func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.state.Loading = true
	c.state.Err = nil
	return c.seq
}

// LoadPage fetches one page ordered by sort. With reset it starts over from
// offset 0 and replaces the list; otherwise it appends the page at the cursor.
// Leaving search mode or switching sort always resets.
func (c *Controller) LoadPage(ctx context.Context, sort models.Sort, reset bool) error {
	if _, err := models.ParseSort(string(sort)); err != nil || sort == "" {
		return apperr.Validation(fmt.Sprintf("unknown sort %q", sort))
	}

	c.mu.RLock()
	offset := c.cursor
	if c.state.Searching() || sort != c.state.Sort {
		reset = true
	}
	c.mu.RUnlock()
	if reset {
		offset = 0
	}

	seq := c.begin()
	posts, err := c.store.FetchPosts(ctx, sort, c.pageSize, offset)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		log.Debugf("dropping page %s@%d, request %d superseded by %d", sort, offset, seq, c.seq)
		return apperr.ErrSuperseded
	}
	c.state.Loading = false
	if err != nil {
		c.state.Err = err
		log.Errorf("load %s page at %d: %v", sort, offset, err)
		return fmt.Errorf("load %s page: %w", sort, err)
	}

	fresh := entries(posts)
	if reset {
		c.state.Entries = fresh
	} else {
		c.state.Entries = append(c.state.Entries, fresh...)
	}
	c.cursor = offset + c.pageSize
	c.state.Sort = sort
	c.state.Query = ""
	c.state.HasMore = len(posts) == c.pageSize
	return nil
}

// LoadMore appends the next page of the active sort. It does nothing while
// searching or when the last page was short.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.RLock()
	st := c.state
	c.mu.RUnlock()
	if st.Searching() || !st.HasMore {
		return nil
	}
	return c.LoadPage(ctx, st.Sort, false)
}

// Search replaces the list with the matches for query under the active sort.
// Search results are not paged. An empty query leaves search mode and reloads
// the first page.
func (c *Controller) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)

	c.mu.RLock()
	sort := c.state.Sort
	c.mu.RUnlock()

	if query == "" {
		return c.LoadPage(ctx, sort, true)
	}
	return c.search(ctx, query, sort)
}

func (c *Controller) search(ctx context.Context, query string, sort models.Sort) error {
	seq := c.begin()
	posts, err := c.store.SearchPosts(ctx, query, sort)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		log.Debugf("dropping search %q, request %d superseded by %d", query, seq, c.seq)
		return apperr.ErrSuperseded
	}
	c.state.Loading = false
	if err != nil {
		c.state.Err = err
		log.Errorf("search %q: %v", query, err)
		return fmt.Errorf("search %q: %w", query, err)
	}
	c.state.Entries = entries(posts)
	c.state.Query = query
	c.state.Sort = sort
	c.state.HasMore = false
	c.cursor = 0
	return nil
}

// SetSort switches the ordering. Outside search mode the feed restarts from
// the first page; in search mode the active query is re-run.
func (c *Controller) SetSort(ctx context.Context, sort models.Sort) error {
	if _, err := models.ParseSort(string(sort)); err != nil || sort == "" {
		return apperr.Validation(fmt.Sprintf("unknown sort %q", sort))
	}

	c.mu.RLock()
	query := c.state.Query
	c.mu.RUnlock()

	if query != "" {
		return c.search(ctx, query, sort)
	}
	return c.LoadPage(ctx, sort, true)
}

// Vote toggles the viewer's vote on one visible post.
func (c *Controller) Vote(ctx context.Context, postID int, dir vote.Direction) (vote.Effect, error) {
	c.mu.RLock()
	var v *vote.State
	for _, e := range c.state.Entries {
		if e.Post.ID == postID {
			v = e.Vote
			break
		}
	}
	c.mu.RUnlock()
	if v == nil {
		return vote.Effect{}, apperr.NotFound(fmt.Sprintf("post %d is not in the feed", postID))
	}
	return v.Apply(ctx, dir, c.store)
}

func entries(posts []models.Post) []Entry {
	out := make([]Entry, len(posts))
	for i, p := range posts {
		out[i] = Entry{
			Post: p,
			Vote: vote.New(vote.Item{Kind: vote.KindPost, ID: p.ID}, p.Points, vote.MarkFromValue(p.ViewerVote)),
		}
	}
	return out
}
