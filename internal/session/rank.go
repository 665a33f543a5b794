package session

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/KameniAlexNea/zindi/internal/api"
)

// FindRank locates the caller on a leaderboard page and returns their 1-based
// rank, or 0 when no entry matches. With a non-nil teamID only team entries
// are considered; otherwise only individual entries matching username.
// Entries without any rank never match. An entry's rank is its public_rank
// when present, else its ordinal position on the page.
func FindRank(entries []api.LeaderboardEntry, teamID *string, username string) int {
	for i, e := range entries {
		if _, ok := e.Rank(); !ok {
			continue
		}
		entrant := e.Entrant()
		if teamID != nil {
			if entrant.Kind == api.EntrantTeam && entrant.TeamID == *teamID {
				return positionRank(e, i)
			}
			continue
		}
		if entrant.Kind == api.EntrantUser && entrant.Name == username {
			return positionRank(e, i)
		}
	}
	return 0
}

func positionRank(e api.LeaderboardEntry, idx int) int {
	if e.PublicRank != nil {
		return *e.PublicRank
	}
	return idx + 1
}

// MyRank fetches the caller's public rank from the dedicated participation
// endpoint, caches it and prints an ordinal rendering. Without a selected
// challenge it returns the sentinel 0 and no error.
func (s *Session) MyRank(ctx context.Context) (int, error) {
	if s.challenge == nil {
		fmt.Fprintln(s.out, "You have not yet selected any challenge.")
		return 0, nil
	}

	p, err := s.client.MyParticipation(ctx, s.challenge.ID)
	if err != nil {
		return 0, fmt.Errorf("fetch participation: %w", err)
	}

	rank := 0
	if p.PublicRank != nil {
		rank = *p.PublicRank
	}
	s.rank = rank

	if rank == 0 {
		fmt.Fprintf(s.out, "You are not yet ranked on the leaderboard of %s.\n", s.challenge.ID)
	} else {
		fmt.Fprintf(s.out, "You are %s on the leaderboard of %s, keep going.\n", Ordinal(rank), s.challenge.ID)
	}
	return rank, nil
}

// Ordinal renders n with its English ordinal suffix, with the 11th/12th/13th
// exception for two-digit endings.
func Ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}

var quotaPattern = regexp.MustCompile(`maximum of\s+(\d+)\s+submissions per day`)

// ParseQuota extracts the daily submission quota from a challenge's
// informational pages. A missing Rules page, a missing phrase or an
// unparsable number all yield 0 without error.
func ParseQuota(pages []api.Page) int {
	for _, p := range pages {
		if !strings.EqualFold(strings.TrimSpace(p.Title), "Rules") {
			continue
		}
		match := quotaPattern.FindStringSubmatch(p.ContentHTML)
		if match == nil {
			return 0
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// CountRecent counts submissions created within the trailing window from now.
func CountRecent(subs []api.Submission, now time.Time, window time.Duration) int {
	count := 0
	for _, sub := range subs {
		created, ok := sub.CreatedTime()
		if !ok {
			continue
		}
		if now.Sub(created) <= window && !created.After(now) {
			count++
		}
	}
	return count
}

// RemainingSubmissions reports how many submissions are left today for the
// selected challenge: the rules-page quota minus the count of submissions in
// the trailing 24 hours, clamped at zero. Without a selected challenge it
// reports ok=false and no error.
func (s *Session) RemainingSubmissions(ctx context.Context) (int, bool, error) {
	if s.challenge == nil {
		fmt.Fprintln(s.out, "You have not yet selected any challenge.")
		return 0, false, nil
	}

	// Re-fetch the challenge: list entries do not carry the pages.
	ch, err := s.client.Challenge(ctx, s.challenge.ID)
	if err != nil {
		return 0, false, fmt.Errorf("fetch challenge pages: %w", err)
	}
	quota := ParseQuota(ch.Pages)

	subs, err := s.client.Submissions(ctx, s.challenge.ID, boardPageSize)
	if err != nil {
		return 0, false, fmt.Errorf("fetch submissions: %w", err)
	}
	s.submissions = subs

	remaining := quota - CountRecent(subs, time.Now(), 24*time.Hour)
	if remaining < 0 {
		remaining = 0
	}
	fmt.Fprintf(s.out, "You have %d remaining submissions today for %s.\n", remaining, s.challenge.ID)
	return remaining, true, nil
}
