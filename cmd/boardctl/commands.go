package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emilythestrangee/newsboard/internal/apperr"
	"github.com/emilythestrangee/newsboard/internal/discussion"
	"github.com/emilythestrangee/newsboard/internal/feed"
	"github.com/emilythestrangee/newsboard/internal/models"
	"github.com/emilythestrangee/newsboard/internal/thread"
	"github.com/emilythestrangee/newsboard/internal/vote"
)

var out io.Writer = os.Stdout

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func runFeed(ctx context.Context, a *app, args []string) error {
	fs := newFlags("feed")
	sortKey := fs.String("sort", "new", "new, top or best")
	pages := fs.Int("pages", 1, "Number of pages to load")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sort, err := models.ParseSort(*sortKey)
	if err != nil {
		return apperr.Validation(err.Error())
	}

	f := feed.New(a.client, feed.WithPageSize(a.cfg.PageSize))
	if err := f.LoadPage(ctx, sort, true); err != nil {
		return err
	}
	for i := 1; i < *pages; i++ {
		if err := f.LoadMore(ctx); err != nil {
			return err
		}
	}
	printFeed(f.State())
	return nil
}

func runSearch(ctx context.Context, a *app, args []string) error {
	fs := newFlags("search")
	sortKey := fs.String("sort", "new", "new, top or best")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sort, err := models.ParseSort(*sortKey)
	if err != nil {
		return apperr.Validation(err.Error())
	}

	f := feed.New(a.client, feed.WithSort(sort))
	if err := f.Search(ctx, strings.Join(fs.Args(), " ")); err != nil {
		return err
	}
	printFeed(f.State())
	return nil
}

func printFeed(st feed.State) {
	if len(st.Entries) == 0 {
		fmt.Fprintln(out, "no posts")
		return
	}
	for i, e := range st.Entries {
		p := e.Post
		where := "text"
		if p.IsLink() {
			where = *p.URL
		}
		fmt.Fprintf(out, "%3d. [%d] %s (%s)\n", i+1, p.ID, p.Title, where)
		fmt.Fprintf(out, "     %d points%s by %s, %d comments, %s\n",
			e.Vote.Score(), markSuffix(e.Vote.Mark()), p.AuthorName, p.CommentCount, p.CreatedAt.Format("2006-01-02 15:04"))
	}
	if st.HasMore {
		fmt.Fprintln(out, "more posts available (-pages)")
	}
}

func markSuffix(m vote.Mark) string {
	if m == vote.None {
		return ""
	}
	return " (voted " + m.String() + ")"
}

func postID(s string) (int, error) {
	var id int
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil || id <= 0 {
		return 0, apperr.Validation(fmt.Sprintf("invalid post id %q", s))
	}
	return id, nil
}

func load(ctx context.Context, a *app, id int) (*discussion.Controller, error) {
	d := discussion.New(a.client)
	if err := d.Load(ctx, id); err != nil {
		return nil, err
	}
	return d, nil
}

func runThread(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return apperr.Validation("usage: thread <post id>")
	}
	id, err := postID(args[0])
	if err != nil {
		return err
	}
	d, err := load(ctx, a, id)
	if err != nil {
		return err
	}
	printThread(d.State())
	return nil
}

func printThread(st discussion.State) {
	p := st.Post
	fmt.Fprintf(out, "[%d] %s\n", p.ID, p.Title)
	if p.IsLink() {
		fmt.Fprintf(out, "%s\n", *p.URL)
	} else if p.Text != nil {
		fmt.Fprintf(out, "\n%s\n", *p.Text)
	}
	fmt.Fprintf(out, "%d points%s by %s, %d comments\n\n", st.Vote.Score(), markSuffix(st.Vote.Mark()), p.AuthorName, p.CommentCount)

	st.Forest.Walk(func(n *thread.Node, depth int) bool {
		indent := strings.Repeat("  ", depth)
		c := n.Comment
		fmt.Fprintf(out, "%s#%d %s, %d points\n", indent, c.ID, c.AuthorName, c.Points)
		for _, line := range strings.Split(c.Content, "\n") {
			fmt.Fprintf(out, "%s  %s\n", indent, line)
		}
		return true
	})
	if len(st.Forest.Orphans) > 0 {
		fmt.Fprintf(out, "\n(comments %v reply to missing comments and are shown at top level)\n", st.Forest.Orphans)
	}
}

func runSubmit(ctx context.Context, a *app, args []string) error {
	fs := newFlags("submit")
	title := fs.String("title", "", "Post title")
	url := fs.String("url", "", "Link to submit")
	text := fs.String("text", "", "Text to submit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	post, err := a.client.CreatePost(ctx, models.PostCreate{Title: *title, URL: *url, Text: *text})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "submitted post %d\n", post.ID)
	return nil
}

func runReply(ctx context.Context, a *app, args []string) error {
	fs := newFlags("reply")
	post := fs.Int("post", 0, "Post to reply on")
	parent := fs.Int("parent", 0, "Comment to reply to (top level when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := load(ctx, a, *post)
	if err != nil {
		return err
	}
	var parentID *int
	if *parent > 0 {
		parentID = parent
	}
	created, err := d.Reply(ctx, parentID, strings.Join(fs.Args(), " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "comment %d posted\n\n", created.ID)
	printThread(d.State())
	return nil
}

func runEdit(ctx context.Context, a *app, args []string) error {
	fs := newFlags("edit")
	post := fs.Int("post", 0, "Post the comment belongs to")
	comment := fs.Int("comment", 0, "Comment to edit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Resolve the viewer so authorship is checked before the request.
	if _, err := a.client.CurrentViewer(ctx); err != nil {
		return err
	}
	d, err := load(ctx, a, *post)
	if err != nil {
		return err
	}
	if _, err := d.EditComment(ctx, *comment, strings.Join(fs.Args(), " ")); err != nil {
		return err
	}
	printThread(d.State())
	return nil
}

func runVote(ctx context.Context, a *app, args []string) error {
	fs := newFlags("vote")
	post := fs.Int("post", 0, "Post to vote on, or holding the comment")
	comment := fs.Int("comment", 0, "Comment to vote on")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return apperr.Validation("usage: vote -post id [-comment id] up|down")
	}
	dir, err := vote.ParseDirection(fs.Arg(0))
	if err != nil {
		return err
	}

	d, err := load(ctx, a, *post)
	if err != nil {
		return err
	}

	if *comment > 0 {
		if _, err := d.VoteComment(ctx, *comment, dir); err != nil {
			return err
		}
		v, _ := d.CommentVote(*comment)
		fmt.Fprintf(out, "comment %d: %d points%s\n", *comment, v.Score(), markSuffix(v.Mark()))
		return nil
	}

	if _, err := d.VotePost(ctx, dir); err != nil {
		return err
	}
	v := d.State().Vote
	fmt.Fprintf(out, "post %d: %d points%s\n", *post, v.Score(), markSuffix(v.Mark()))
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	username := fs.String("u", "", "Username")
	password := fs.String("p", "", "Password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.client.Authenticate(ctx, models.Login{Username: *username, Password: *password})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "logged in as %s\n", user.Username)
	return nil
}

func runSignup(ctx context.Context, a *app, args []string) error {
	fs := newFlags("signup")
	username := fs.String("u", "", "Username")
	email := fs.String("e", "", "Email")
	password := fs.String("p", "", "Password")
	confirm := fs.String("confirm", "", "Password again")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.client.Signup(ctx, models.Signup{
		Username:        *username,
		Email:           *email,
		Password:        *password,
		ConfirmPassword: *confirm,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "welcome, %s\n", user.Username)
	return nil
}

func runLogout(_ context.Context, a *app, _ []string) error {
	a.client.Logout()
	fmt.Fprintln(out, "logged out")
	return nil
}

func runWhoami(ctx context.Context, a *app, _ []string) error {
	user, err := a.client.CurrentViewer(ctx)
	if errors.Is(err, apperr.ErrUnauthorized) {
		fmt.Fprintln(out, "not logged in")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s <%s>\n", user.Username, user.Email)
	return nil
}
