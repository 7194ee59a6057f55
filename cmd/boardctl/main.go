// Command boardctl reads and writes a newsboard from the terminal.
//
//	boardctl [flags] <command> [command flags] [args]
//
// Commands: feed, search, thread, submit, reply, edit, vote, login, signup,
// logout, whoami.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/emilythestrangee/newsboard/internal/config"
	"github.com/emilythestrangee/newsboard/internal/logging"
	"github.com/emilythestrangee/newsboard/internal/remote"
)

var log = logging.NewLogger("boardctl")

type command struct {
	usage string
	run   func(ctx context.Context, app *app, args []string) error
}

var commands = map[string]command{
	"feed":   {"feed [-sort new|top|best] [-pages n]", runFeed},
	"search": {"search [-sort new|top|best] <query>", runSearch},
	"thread": {"thread <post id>", runThread},
	"submit": {"submit -title t (-url u | -text x)", runSubmit},
	"reply":  {"reply -post id [-parent id] <text>", runReply},
	"edit":   {"edit -post id -comment id <text>", runEdit},
	"vote":   {"vote -post id [-comment id] up|down", runVote},
	"login":  {"login -u username -p password", runLogin},
	"signup": {"signup -u username -e email -p password -confirm password", runSignup},
	"logout": {"logout", runLogout},
	"whoami": {"whoami", runWhoami},
}

type app struct {
	cfg    config.Config
	client *remote.Client
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "newsboard", "token")
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: boardctl [flags] <command> [args]\n\nflags:\n")
	flag.PrintDefaults()
	fmt.Fprintf(flag.CommandLine.Output(), "\ncommands:\n")
	for _, name := range []string{"feed", "search", "thread", "submit", "reply", "edit", "vote", "login", "signup", "logout", "whoami"} {
		fmt.Fprintf(flag.CommandLine.Output(), "  %s\n", commands[name].usage)
	}
}

func main() {
	cfg := config.Load()
	if cfg.TokenFile == "" {
		cfg.TokenFile = defaultTokenFile()
	}

	apiURL := flag.String("api", cfg.APIURL, "Base URL of the newsboard API")
	timeout := flag.Duration("timeout", cfg.HTTPTimeout, "Timeout of a single request")
	pageSize := flag.Int("page-size", cfg.PageSize, "Posts per feed page")
	tokenFile := flag.String("token-file", cfg.TokenFile, "File keeping the session token (empty for none)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	cfg.APIURL, cfg.HTTPTimeout, cfg.PageSize, cfg.TokenFile = *apiURL, *timeout, *pageSize, *tokenFile
	if cfg.TokenFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.TokenFile), 0o700); err != nil {
			log.Warningf("token will not be saved: %v", err)
			cfg.TokenFile = ""
		}
	}

	session, err := remote.LoadSession(cfg.TokenFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "boardctl:", err)
		os.Exit(1)
	}

	a := &app{
		cfg:    cfg,
		client: remote.NewClient(cfg.APIURL, session, remote.WithTimeout(cfg.HTTPTimeout)),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	err = cmd.run(ctx, a, flag.Args()[1:])
	log.Debugf("%s finished in %s", flag.Arg(0), time.Since(start))
	if err != nil {
		fmt.Fprintln(os.Stderr, "boardctl:", err)
		os.Exit(1)
	}
}
