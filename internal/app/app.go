// Package app wires the client together and maps CLI commands onto session
// operations.
package app

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/KameniAlexNea/zindi/internal/api"
	"github.com/KameniAlexNea/zindi/internal/board"
	"github.com/KameniAlexNea/zindi/internal/config"
	"github.com/KameniAlexNea/zindi/internal/logger"
	"github.com/KameniAlexNea/zindi/internal/progress"
	"github.com/KameniAlexNea/zindi/internal/session"
)

// Options configure one invocation of the client.
type Options struct {
	ConfigPath  string
	Username    string
	Password    string // usually from ZINDI_PASSWORD; prompted when empty
	ChallengeID string // preselects a challenge for challenge-scoped commands
	Timeout     time.Duration // overrides the configured HTTP timeout when > 0
	Args        []string
}

// Run signs in, optionally preselects a challenge, and executes the command
// named by the first argument.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(os.Stderr, logger.ParseLevel(cfg.LogLevel))

	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}
	client, err := api.NewClient(cfg.APIBase, cfg.UserAgent, cfg.Timeout, log)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	if strings.TrimSpace(opts.Username) == "" {
		return fmt.Errorf("username is required (use -username or the config file)")
	}

	sess := session.New(client, log, session.NewTerminalPrompter(), os.Stdout, progress.Writer(os.Stdout))
	if err := sess.SignIn(ctx, opts.Username, opts.Password); err != nil {
		return err
	}

	if opts.ChallengeID != "" {
		if err := sess.SelectChallenge(ctx, session.SelectOptions{ChallengeID: opts.ChallengeID}); err != nil {
			return err
		}
	}

	if len(opts.Args) == 0 {
		return fmt.Errorf("no command given; see -h for usage")
	}
	return dispatch(ctx, client, sess, opts.Args[0], opts.Args[1:])
}

func dispatch(ctx context.Context, client *api.Client, sess *session.Session, command string, args []string) error {
	switch command {
	case "challenges":
		return listChallenges(ctx, client, args)
	case "select":
		return selectChallenge(ctx, sess, args)
	case "which":
		sess.WhichChallenge()
		return nil
	case "download":
		return download(ctx, sess, args)
	case "submit":
		return submit(ctx, sess, args)
	case "leaderboard":
		return leaderboard(ctx, sess, args)
	case "board":
		return submissionBoard(ctx, sess, args)
	case "rank":
		_, err := sess.MyRank(ctx)
		return err
	case "remaining":
		_, _, err := sess.RemainingSubmissions(ctx)
		return err
	case "team":
		return team(ctx, sess, args)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func listChallenges(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("challenges", flag.ContinueOnError)
	query := fs.String("query", "", "free-text filter")
	kind := fs.String("kind", "competition", "competition or hackathon")
	reward := fs.String("reward", "", "prize, points or knowledge")
	all := fs.Bool("all", false, "include inactive challenges")
	perPage := fs.Int("per-page", 20, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := client.Challenges(ctx, api.Filter{
		Query:   *query,
		Kind:    *kind,
		Reward:  *reward,
		Active:  !*all,
		PerPage: *perPage,
	})
	if err != nil {
		return fmt.Errorf("fetch challenges: %w", err)
	}
	board.Challenges(os.Stdout, list)
	return nil
}

func selectChallenge(ctx context.Context, sess *session.Session, args []string) error {
	fs := flag.NewFlagSet("select", flag.ContinueOnError)
	id := fs.String("id", "", "challenge id for direct selection")
	query := fs.String("query", "", "free-text filter")
	kind := fs.String("kind", "competition", "competition or hackathon")
	reward := fs.String("reward", "", "prize, points or knowledge")
	all := fs.Bool("all", false, "include inactive challenges")
	index := fs.Int("index", -1, "0-based index into the filtered list (interactive when omitted)")
	perPage := fs.Int("per-page", 20, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := session.SelectOptions{
		ChallengeID: *id,
		Query:       *query,
		Kind:        *kind,
		Reward:      *reward,
		Active:      !*all,
		PerPage:     *perPage,
	}
	if *index >= 0 {
		opts.Index = index
	}
	return sess.SelectChallenge(ctx, opts)
}

func download(ctx context.Context, sess *session.Session, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	dest := fs.String("dest", ".", "destination directory")
	noCreate := fs.Bool("no-create", false, "fail instead of creating the destination")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return sess.DownloadDataset(ctx, *dest, !*noCreate)
}

func submit(ctx context.Context, sess *session.Session, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	comments := fs.String("comments", "", "comma-separated comments, matched to files in order")
	if err := fs.Parse(args); err != nil {
		return err
	}
	files := fs.Args()
	if len(files) == 0 {
		return fmt.Errorf("submit needs at least one file")
	}
	var commentList []string
	if *comments != "" {
		commentList = strings.Split(*comments, ",")
	}
	return sess.Submit(ctx, files, commentList)
}

func leaderboard(ctx context.Context, sess *session.Session, args []string) error {
	fs := flag.NewFlagSet("leaderboard", flag.ContinueOnError)
	perPage := fs.Int("per-page", 50, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	_, err := sess.Leaderboard(ctx, true, *perPage)
	return err
}

func submissionBoard(ctx context.Context, sess *session.Session, args []string) error {
	fs := flag.NewFlagSet("board", flag.ContinueOnError)
	perPage := fs.Int("per-page", 50, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	_, err := sess.SubmissionBoard(ctx, true, *perPage)
	return err
}

func team(ctx context.Context, sess *session.Session, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("team needs a subcommand: create, invite or disband")
	}
	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("team create", flag.ContinueOnError)
		name := fs.String("name", "", "team name")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if strings.TrimSpace(*name) == "" {
			return fmt.Errorf("team create needs -name")
		}
		return sess.CreateTeam(ctx, *name, fs.Args())
	case "invite":
		if len(args) == 1 {
			return fmt.Errorf("team invite needs at least one username")
		}
		return sess.TeamUp(ctx, args[1:])
	case "disband":
		return sess.DisbandTeam(ctx)
	default:
		return fmt.Errorf("unknown team subcommand %q", args[0])
	}
}
