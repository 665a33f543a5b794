// Package session holds the signed-in user's state and exposes the public
// operations of the client: challenge selection, dataset download,
// submissions, leaderboards and team management.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KameniAlexNea/zindi/internal/api"
	"github.com/KameniAlexNea/zindi/internal/board"
	"github.com/KameniAlexNea/zindi/internal/logger"
	"github.com/KameniAlexNea/zindi/internal/progress"
)

// ErrNoChallenge is returned by challenge-scoped operations before a
// challenge has been selected. No network call is issued in that state.
var ErrNoChallenge = errors.New("select a challenge before running this operation")

const (
	defaultPerPage = 50
	boardPageSize  = 1000
)

// Session is one signed-in user's in-memory state. It is not persisted:
// the session lives for the process and dies with it.
type Session struct {
	client *api.Client
	log    logger.Logger
	prompt Prompter
	out    io.Writer
	meters progress.Factory

	challenge   *api.Challenge
	leaderboard []api.LeaderboardEntry
	submissions []api.Submission
	rank        int
}

// New builds a session around an API client. meters may be nil to silence
// transfer progress.
func New(client *api.Client, log logger.Logger, prompt Prompter, out io.Writer, meters progress.Factory) *Session {
	if meters == nil {
		meters = progress.Discard
	}
	return &Session{
		client: client,
		log:    log,
		prompt: prompt,
		out:    out,
		meters: meters,
	}
}

// SignIn authenticates the user. An empty password is read from the prompter
// (masked terminal input); it is never logged either way.
func (s *Session) SignIn(ctx context.Context, username, password string) error {
	if password == "" {
		var err error
		password, err = s.prompt.Password()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}

	result, err := s.client.SignIn(ctx, username, password)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	fmt.Fprintf(s.out, "Welcome %s\n", result.User.Username)
	return nil
}

// WhichChallenge reports the currently selected challenge id, if any.
func (s *Session) WhichChallenge() (string, bool) {
	if s.challenge == nil {
		fmt.Fprintln(s.out, "You have not yet selected any challenge.")
		return "", false
	}
	fmt.Fprintf(s.out, "You are currently enrolled in %s\n\t%s\n", s.challenge.ID, s.challenge.Subtitle)
	return s.challenge.ID, true
}

// selected guards challenge-scoped operations.
func (s *Session) selected() (*api.Challenge, error) {
	if s.challenge == nil {
		return nil, ErrNoChallenge
	}
	return s.challenge, nil
}

// setSelected transitions the session into the selected state, dropping any
// caches from a previously selected challenge.
func (s *Session) setSelected(c *api.Challenge) {
	s.challenge = c
	s.leaderboard = nil
	s.submissions = nil
	s.rank = 0
	fmt.Fprintf(s.out, "You chose the challenge %s\n\t%s\n", c.ID, c.Subtitle)
}

// DownloadDataset fetches the selected challenge's dataset manifest and
// downloads every file into dest. Duplicate manifest records are collapsed,
// keeping first-seen order. Files are fetched one at a time; a failure in one
// surfaces as an error.
func (s *Session) DownloadDataset(ctx context.Context, dest string, makeDest bool) error {
	ch, err := s.selected()
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(dest); statErr != nil {
		if !os.IsNotExist(statErr) {
			return fmt.Errorf("stat destination: %w", statErr)
		}
		if !makeDest {
			return fmt.Errorf("destination %s does not exist", dest)
		}
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return fmt.Errorf("create destination: %w", err)
		}
	}

	files, err := s.client.Datafiles(ctx, ch.ID)
	if err != nil {
		return fmt.Errorf("fetch manifest: %w", err)
	}
	files = dedupDatafiles(files)

	for _, f := range files {
		target := filepath.Join(dest, f.Filename)
		if err := s.client.Download(ctx, ch.ID, f.Filename, target, s.meters); err != nil {
			return err
		}
	}
	fmt.Fprintf(s.out, "Dataset downloaded to %s\n", dest)
	return nil
}

// dedupDatafiles removes duplicates by full record equality, first-seen wins.
func dedupDatafiles(files []api.Datafile) []api.Datafile {
	seen := make(map[api.Datafile]struct{}, len(files))
	out := files[:0]
	for _, f := range files {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Submit uploads each (filepath, comment) pair independently. A shorter
// comment list is right-padded with empty strings. Invalid extensions,
// missing files and per-file upload failures are reported as diagnostics and
// never abort the rest of the batch.
func (s *Session) Submit(ctx context.Context, filepaths, comments []string) error {
	ch, err := s.selected()
	if err != nil {
		return err
	}

	for len(comments) < len(filepaths) {
		comments = append(comments, "")
	}

	for i, path := range filepaths {
		if !strings.EqualFold(filepath.Ext(path), ".csv") {
			fmt.Fprintf(s.out, "Submission file must be a CSV file (.csv), verify this filepath: %s\n", path)
			continue
		}
		info, statErr := os.Stat(path)
		if statErr != nil || info.IsDir() {
			fmt.Fprintf(s.out, "File does not exist, verify this filepath: %s\n", path)
			continue
		}

		id, err := s.client.Submit(ctx, ch.ID, path, comments[i], s.meters)
		if err != nil {
			fmt.Fprintf(s.out, "Something went wrong with file %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(s.out, "Submission ID: %s - file submitted: %s\n", id, path)
	}
	return nil
}

// Leaderboard fetches the first page of the leaderboard, caches it, updates
// the caller's rank and optionally renders the table.
func (s *Session) Leaderboard(ctx context.Context, toPrint bool, perPage int) ([]api.LeaderboardEntry, error) {
	ch, err := s.selected()
	if err != nil {
		return nil, err
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	entries, err := s.client.Leaderboard(ctx, ch.ID, 0, perPage)
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	s.leaderboard = entries

	rank, err := s.lookupRank(ctx, entries)
	if err != nil {
		return nil, err
	}
	s.rank = rank

	if toPrint {
		board.Leaderboard(s.out, entries, rank)
	}
	return entries, nil
}

// SubmissionBoard fetches the caller's submissions, caches them and
// optionally renders the table.
func (s *Session) SubmissionBoard(ctx context.Context, toPrint bool, perPage int) ([]api.Submission, error) {
	ch, err := s.selected()
	if err != nil {
		return nil, err
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	subs, err := s.client.Submissions(ctx, ch.ID, perPage)
	if err != nil {
		return nil, fmt.Errorf("fetch submission board: %w", err)
	}
	s.submissions = subs

	if toPrint {
		board.Submissions(s.out, subs)
	}
	return subs, nil
}

// lookupRank resolves whether the caller competes as a team for the selected
// challenge, then locates their entry on the given page. A participations
// response lacking the challenge altogether is a malformed-response error,
// not "no team".
func (s *Session) lookupRank(ctx context.Context, entries []api.LeaderboardEntry) (int, error) {
	parts, err := s.client.Participations(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch participations: %w", err)
	}
	p, ok := parts[s.challenge.ID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", api.ErrParticipationMissing, s.challenge.ID)
	}
	return FindRank(entries, p.TeamID, s.client.Username()), nil
}
