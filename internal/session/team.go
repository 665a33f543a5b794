package session

import (
	"context"
	"fmt"

	"github.com/KameniAlexNea/zindi/internal/api"
)

// CreateTeam creates a team for the selected challenge. A "leader can only be
// part of one team" response is a benign notice, not an error. When teammates
// are supplied they are invited right away.
func (s *Session) CreateTeam(ctx context.Context, name string, teammates []string) error {
	ch, err := s.selected()
	if err != nil {
		return err
	}

	title, err := s.client.CreateTeam(ctx, ch.ID, name)
	if err != nil {
		apiErr, ok := api.AsAPIError(err)
		if !ok || !apiErr.AlreadyTeamLeader() {
			return fmt.Errorf("create team: %w", err)
		}
		fmt.Fprintln(s.out, "You are already the leader of a team.")
	} else {
		fmt.Fprintf(s.out, "Your team was created as: %s\n", title)
	}

	if len(teammates) > 0 {
		return s.TeamUp(ctx, teammates)
	}
	fmt.Fprintln(s.out, "You can send invitations to join your team with the team invite command.")
	return nil
}

// TeamUp invites each username in turn. "Already invited" is a benign
// per-invitee notice; any other error aborts the remaining invites.
func (s *Session) TeamUp(ctx context.Context, usernames []string) error {
	ch, err := s.selected()
	if err != nil {
		return err
	}

	for _, username := range usernames {
		err := s.client.InviteTeammate(ctx, ch.ID, username)
		if err != nil {
			apiErr, ok := api.AsAPIError(err)
			if ok && apiErr.AlreadyInvited() {
				fmt.Fprintf(s.out, "An invitation to join your team was already sent to %s.\n", username)
				continue
			}
			return fmt.Errorf("invite %s: %w", username, err)
		}
		fmt.Fprintf(s.out, "An invitation to join your team was sent to %s.\n", username)
	}
	return nil
}

// DisbandTeam deletes the caller's team and prints the service's reply.
func (s *Session) DisbandTeam(ctx context.Context) error {
	ch, err := s.selected()
	if err != nil {
		return err
	}

	msg, err := s.client.DisbandTeam(ctx, ch.ID)
	if err != nil {
		return fmt.Errorf("disband team: %w", err)
	}
	fmt.Fprintln(s.out, msg)
	return nil
}
