// Package board renders challenge, leaderboard and submission tables.
package board

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/KameniAlexNea/zindi/internal/api"
)

const (
	nameWidth     = 40
	filenameWidth = 30
	commentWidth  = 40
	submittedAt   = "02 January 2006, 15:04"
)

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	selfStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

func render(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style { return cellStyle }).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t)
}

// Challenges renders the filtered challenge list with 0-based indexes for
// interactive selection.
func Challenges(w io.Writer, challenges []api.Challenge) {
	rows := make([][]string, 0, len(challenges))
	for i, c := range challenges {
		rows = append(rows, []string{
			strconv.Itoa(i),
			challengeLabel(c),
			truncate(strings.Join(c.ProblemTypes, ", "), 24),
			c.Reward,
			truncate(c.ID, nameWidth),
		})
	}
	render(w, []string{"#", "kind", "problem", "reward", "id"}, rows)
}

func challengeLabel(c api.Challenge) string {
	visibility := "Public"
	if c.SecretCodeRequired {
		visibility = "Private"
	}
	return visibility + " " + c.Kind
}

// Leaderboard renders leaderboard entries. Rows without a rank are skipped,
// team rows carry a distinct marker, and the row matching callerRank is
// highlighted.
func Leaderboard(w io.Writer, entries []api.LeaderboardEntry, callerRank int) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rank, ok := e.Rank()
		if !ok {
			continue
		}

		name := entrantCell(e.Entrant())
		if callerRank > 0 && rank == callerRank {
			name = selfStyle.Render(name + " ●")
		}

		score := ""
		if v, ok := e.Score(); ok {
			score = fmt.Sprintf("%.2f", v)
		}

		rows = append(rows, []string{
			strconv.Itoa(rank),
			score,
			name,
			strconv.Itoa(e.SubmissionCount),
			formatTime(e.SubmittedAt()),
		})
	}
	render(w, []string{"rank", "score", "name", "counter", "last submission"}, rows)
}

func entrantCell(e api.Entrant) string {
	if e.Kind == api.EntrantTeam {
		return "TEAM - " + truncate(e.Name, nameWidth)
	}
	return truncate(e.Name, nameWidth)
}

// Submissions renders the caller's submission board.
func Submissions(w io.Writer, subs []api.Submission) {
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, []string{
			statusCell(s),
			s.ID.String(),
			formatTime(s.CreatedAt),
			scoreCell(s),
			truncate(s.Filename, filenameWidth),
			truncate(commentCell(s), commentWidth),
		})
	}
	render(w, []string{"status", "id", "date", "score", "filename", "comment"}, rows)
}

func statusCell(s api.Submission) string {
	if s.Status == api.StatusFailed {
		return failStyle.Render("✗")
	}
	return okStyle.Render("●")
}

// scoreCell shows the private score for scored submissions, a literal
// "In processing" while the service is still working, and a dash otherwise.
func scoreCell(s api.Submission) string {
	switch {
	case s.Status == api.StatusSuccessful && s.PrivateScore != nil:
		return fmt.Sprintf("%.2f", s.PrivateScore.Float64())
	case s.InProgress():
		return "In processing"
	default:
		return "-"
	}
}

// commentCell prefers the failure description so error states stay visible.
func commentCell(s api.Submission) string {
	if s.Status == api.StatusFailed && s.StatusDescription != "" {
		return s.StatusDescription
	}
	return s.Comment
}

func formatTime(raw string) string {
	if raw == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.Format(submittedAt)
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
