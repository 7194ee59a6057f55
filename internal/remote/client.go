package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/emilythestrangee/newsboard/internal/apperr"
	"github.com/emilythestrangee/newsboard/internal/logging"
	"github.com/emilythestrangee/newsboard/internal/models"
	"github.com/emilythestrangee/newsboard/internal/vote"
)

var log = logging.NewLogger("remote")

// Client is the HTTP implementation of Store. Each call makes a single
// attempt; there is no retry.
type Client struct {
	baseURL  string
	http     *http.Client
	session  *Session
	validate *validator.Validate
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func NewClient(baseURL string, session *Session, opts ...Option) *Client {
	if session == nil {
		session = NewSession()
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
		session:  session,
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) Authenticated() bool {
	return c.session.Authenticated()
}

func (c *Client) Viewer() (models.User, bool) {
	return c.session.Viewer()
}

func (c *Client) Logout() {
	c.session.End()
}

// Posts

func (c *Client) FetchPosts(ctx context.Context, sort models.Sort, limit, offset int) ([]models.Post, error) {
	q := url.Values{}
	q.Set("sort", string(sort))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var posts []models.Post
	if err := c.do(ctx, http.MethodGet, "/api/posts", q, nil, &posts); err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}
	return posts, nil
}

func (c *Client) SearchPosts(ctx context.Context, query string, sort models.Sort) ([]models.Post, error) {
	q := url.Values{}
	q.Set("q", query)
	if sort != "" {
		q.Set("sort", string(sort))
	}

	var posts []models.Post
	if err := c.do(ctx, http.MethodGet, "/api/posts/search", q, nil, &posts); err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return posts, nil
}

func (c *Client) FetchPost(ctx context.Context, postID int) (models.Post, error) {
	var post models.Post
	if err := c.do(ctx, http.MethodGet, "/api/posts/"+strconv.Itoa(postID), nil, nil, &post); err != nil {
		return models.Post{}, fmt.Errorf("fetch post %d: %w", postID, err)
	}
	return post, nil
}

func (c *Client) CreatePost(ctx context.Context, in models.PostCreate) (models.Post, error) {
	if err := c.checkPost(&in); err != nil {
		return models.Post{}, err
	}
	if !c.Authenticated() {
		return models.Post{}, apperr.Unauthorized("login required to submit")
	}

	var post models.Post
	if err := c.do(ctx, http.MethodPost, "/api/posts", nil, in, &post); err != nil {
		return models.Post{}, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

func (c *Client) ToggleVote(ctx context.Context, item vote.Item, dir vote.Direction) (vote.Result, error) {
	if !c.Authenticated() {
		return vote.Result{}, apperr.Unauthorized("login required to vote")
	}

	var path string
	switch item.Kind {
	case vote.KindPost:
		path = "/api/posts/" + strconv.Itoa(item.ID) + "/vote"
	case vote.KindComment:
		path = "/api/comments/" + strconv.Itoa(item.ID) + "/vote"
	default:
		return vote.Result{}, apperr.Validation(fmt.Sprintf("unknown item kind %q", item.Kind))
	}

	var resp models.VoteResponse
	if err := c.do(ctx, http.MethodPost, path, nil, models.VoteRequest{Direction: dir.Sign()}, &resp); err != nil {
		return vote.Result{}, err
	}
	return vote.Result{Score: resp.Score, Mark: vote.MarkFromValue(resp.Mark)}, nil
}

// Comments

func (c *Client) FetchComments(ctx context.Context, postID int) ([]models.Comment, error) {
	var comments []models.Comment
	path := "/api/posts/" + strconv.Itoa(postID) + "/comments"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &comments); err != nil {
		return nil, fmt.Errorf("fetch comments of post %d: %w", postID, err)
	}
	return comments, nil
}

func (c *Client) CreateComment(ctx context.Context, postID int, in models.CommentCreate) (models.Comment, error) {
	content, err := ValidateContent(in.Content)
	if err != nil {
		return models.Comment{}, err
	}
	in.Content = content
	if !c.Authenticated() {
		return models.Comment{}, apperr.Unauthorized("login required to comment")
	}

	var comment models.Comment
	path := "/api/posts/" + strconv.Itoa(postID) + "/comments"
	if err := c.do(ctx, http.MethodPost, path, nil, in, &comment); err != nil {
		return models.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

func (c *Client) UpdateComment(ctx context.Context, commentID int, in models.CommentUpdate) (models.Comment, error) {
	content, err := ValidateContent(in.Content)
	if err != nil {
		return models.Comment{}, err
	}
	in.Content = content
	if !c.Authenticated() {
		return models.Comment{}, apperr.Unauthorized("login required to edit")
	}

	var comment models.Comment
	if err := c.do(ctx, http.MethodPut, "/api/comments/"+strconv.Itoa(commentID), nil, in, &comment); err != nil {
		return models.Comment{}, fmt.Errorf("update comment %d: %w", commentID, err)
	}
	return comment, nil
}

// Auth

func (c *Client) Signup(ctx context.Context, in models.Signup) (models.User, error) {
	if err := c.checkSignup(&in); err != nil {
		return models.User{}, err
	}
	return c.startSession(ctx, "/api/register", in)
}

func (c *Client) Authenticate(ctx context.Context, in models.Login) (models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := c.check(&in); err != nil {
		return models.User{}, err
	}
	return c.startSession(ctx, "/api/login", in)
}

func (c *Client) startSession(ctx context.Context, path string, body any) (models.User, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, path, nil, body, &resp); err != nil {
		return models.User{}, err
	}
	if resp.Token == "" {
		return models.User{}, apperr.New(apperr.KindRemote, "backend returned no token")
	}
	if err := c.session.Begin(resp.Token, resp.User); err != nil {
		log.Warningf("session not persisted: %v", err)
	}
	log.Infof("signed in as %s", resp.User.Username)
	return resp.User, nil
}

// CurrentViewer resolves the token to a user. An Unauthorized answer ends the
// session.
func (c *Client) CurrentViewer(ctx context.Context) (models.User, error) {
	if !c.Authenticated() {
		return models.User{}, apperr.Unauthorized("not logged in")
	}
	var user models.User
	err := c.do(ctx, http.MethodGet, "/api/me", nil, nil, &user)
	if apperr.KindOf(err) == apperr.KindUnauthorized {
		log.Infof("session rejected by backend, clearing token")
		c.session.End()
		return models.User{}, err
	}
	if err != nil {
		return models.User{}, fmt.Errorf("current viewer: %w", err)
	}
	c.session.SetViewer(user)
	return user, nil
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperr.Wrap(apperr.KindValidation, "encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return apperr.Wrap(apperr.KindRemote, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log.Debugf("%s %s", method, target)
	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindRemote, method+" "+path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Wrap(apperr.KindRemote, "read response", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return apperr.FromStatus(resp.StatusCode, eb.Error)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Wrap(apperr.KindRemote, "decode response", err)
	}
	return nil
}
