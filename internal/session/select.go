package session

import (
	"context"
	"fmt"

	"github.com/KameniAlexNea/zindi/internal/api"
	"github.com/KameniAlexNea/zindi/internal/board"
)

// SelectOptions configure challenge selection. A non-empty ChallengeID
// selects directly and ignores the filter fields. A nil Index triggers the
// interactive picker when the filtered search matches more than zero
// challenges.
type SelectOptions struct {
	ChallengeID string

	Query   string
	Kind    string
	Reward  string
	Active  bool
	Index   *int
	PerPage int
}

// SelectChallenge transitions the session from unselected to selected, then
// joins the challenge. Joining twice is idempotent from the caller's
// perspective.
func (s *Session) SelectChallenge(ctx context.Context, opts SelectOptions) error {
	if opts.ChallengeID != "" {
		return s.selectByID(ctx, opts.ChallengeID)
	}
	return s.selectFiltered(ctx, opts)
}

func (s *Session) selectByID(ctx context.Context, id string) error {
	c, err := s.client.Challenge(ctx, id)
	if err != nil {
		if _, ok := api.AsAPIError(err); ok {
			// Service-level "not found": report and stay unselected.
			fmt.Fprintf(s.out, "Challenge %q not found.\n", id)
			return nil
		}
		return err
	}
	s.setSelected(c)
	return s.join(ctx)
}

func (s *Session) selectFiltered(ctx context.Context, opts SelectOptions) error {
	list, err := s.client.Challenges(ctx, api.Filter{
		Query:   opts.Query,
		Kind:    opts.Kind,
		Reward:  opts.Reward,
		Active:  opts.Active,
		PerPage: opts.PerPage,
	})
	if err != nil {
		return fmt.Errorf("fetch challenges: %w", err)
	}

	n := len(list)
	if n == 0 {
		fmt.Fprintln(s.out, "No challenges found matching your criteria.")
		return nil
	}

	var idx int
	if opts.Index != nil {
		idx = *opts.Index
		if idx < 0 || idx >= n {
			return fmt.Errorf("index must be an integer in range [0, %d)", n)
		}
	} else {
		board.Challenges(s.out, list)
		idx, err = s.prompt.ChallengeIndex(n)
		if err != nil {
			return err
		}
		if idx < 0 {
			fmt.Fprintln(s.out, "Selection aborted.")
			return nil
		}
	}

	s.setSelected(&list[idx])
	return s.join(ctx)
}

// join enrolls the user in the selected challenge and classifies the
// response: already joined is a silent no-op, a secret-code gate prompts once
// and retries, anything else surfaces the service message verbatim. A second
// secret-code response after the retry is raised, not looped on.
func (s *Session) join(ctx context.Context) error {
	return s.classifyJoin(ctx, s.client.Join(ctx, s.challenge.ID, ""), true)
}

func (s *Session) classifyJoin(ctx context.Context, err error, allowCodePrompt bool) error {
	if err == nil {
		fmt.Fprintln(s.out, "Welcome for the first time to this challenge.")
		return nil
	}
	apiErr, ok := api.AsAPIError(err)
	if !ok {
		return err
	}
	switch {
	case apiErr.AlreadyJoined():
		return nil
	case apiErr.SecretCodeRequired() && allowCodePrompt:
		code, promptErr := s.prompt.SecretCode()
		if promptErr != nil {
			return promptErr
		}
		return s.classifyJoin(ctx, s.client.Join(ctx, s.challenge.ID, code), false)
	default:
		return fmt.Errorf("join challenge: %w", apiErr)
	}
}
