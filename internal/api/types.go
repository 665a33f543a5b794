package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// FlexFloat is a float64 that can be unmarshaled from either a JSON number or
// a quoted numeric string. Some score fields arrive in either form.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler for FlexFloat.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexFloat(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("FlexFloat: parse %q: %w", s, err)
		}
		*f = FlexFloat(parsed)
		return nil
	}

	return fmt.Errorf("FlexFloat: cannot unmarshal %s", string(data))
}

// Float64 returns the underlying value.
func (f FlexFloat) Float64() float64 { return float64(f) }

// FlexString is a string that can be unmarshaled from either a string or a
// number, for id fields the service is inconsistent about.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler for FlexString.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	return fmt.Errorf("FlexString: cannot unmarshal %s", string(data))
}

// String returns the string value.
func (f FlexString) String() string { return string(f) }

// Challenge describes a competition or hackathon as returned by the service.
type Challenge struct {
	ID                 string     `json:"id"`
	Kind               string     `json:"kind"`
	Subtitle           string     `json:"subtitle"`
	Reward             string     `json:"reward"`
	ProblemTypes       []string   `json:"type_of_problem"`
	DataTypes          []string   `json:"data_type"`
	SecretCodeRequired bool       `json:"secret_code_required"`
	Sealed             bool       `json:"sealed"`
	Active             bool       `json:"active"`
	Datafiles          []Datafile `json:"datafiles"`
	Pages              []Page     `json:"pages"`
}

// Datafile is one entry of a challenge's dataset manifest.
type Datafile struct {
	ID       FlexString `json:"id"`
	Filename string     `json:"filename"`
}

// Page is an informational page attached to a challenge (Overview, Rules, ...).
type Page struct {
	Title       string `json:"title"`
	ContentHTML string `json:"content_html"`
}

// User identifies an individual account.
type User struct {
	Username string `json:"username"`
}

// Team identifies a team entry on the leaderboard.
type Team struct {
	Title string `json:"title"`
	ID    string `json:"id"`
}

// LeaderboardEntry is one row of a challenge leaderboard. Exactly one of
// User or Team is set.
type LeaderboardEntry struct {
	PublicRank             *int       `json:"public_rank"`
	PrivateRank            *int       `json:"private_rank"`
	BestPublicScore        *FlexFloat `json:"best_public_score"`
	BestPrivateScore       *FlexFloat `json:"best_private_score"`
	SubmissionCount        int        `json:"submission_count"`
	BestPublicSubmittedAt  string     `json:"best_public_submitted_at"`
	BestPrivateSubmittedAt string     `json:"best_private_submitted_at"`
	User                   *User      `json:"user"`
	Team                   *Team      `json:"team"`
}

// Rank returns the entry's rank, preferring the public one. Entries with
// neither rank report false and must be excluded from rendering and lookup.
func (e LeaderboardEntry) Rank() (int, bool) {
	if e.PublicRank != nil {
		return *e.PublicRank, true
	}
	if e.PrivateRank != nil {
		return *e.PrivateRank, true
	}
	return 0, false
}

// Score returns the entry's best score, preferring the public one.
func (e LeaderboardEntry) Score() (float64, bool) {
	if e.BestPublicScore != nil {
		return e.BestPublicScore.Float64(), true
	}
	if e.BestPrivateScore != nil {
		return e.BestPrivateScore.Float64(), true
	}
	return 0, false
}

// SubmittedAt returns the entry's last-submission timestamp, empty when the
// service reported none.
func (e LeaderboardEntry) SubmittedAt() string {
	if e.BestPublicSubmittedAt != "" {
		return e.BestPublicSubmittedAt
	}
	return e.BestPrivateSubmittedAt
}

// EntrantKind discriminates leaderboard participants.
type EntrantKind int

const (
	EntrantUser EntrantKind = iota
	EntrantTeam
)

// Entrant is the tagged participant variant of a leaderboard row: an
// individual user or a team.
type Entrant struct {
	Kind   EntrantKind
	Name   string
	TeamID string // set only for teams
}

// Entrant returns the row's participant.
func (e LeaderboardEntry) Entrant() Entrant {
	if e.Team != nil {
		return Entrant{Kind: EntrantTeam, Name: e.Team.Title, TeamID: e.Team.ID}
	}
	if e.User != nil {
		return Entrant{Kind: EntrantUser, Name: e.User.Username}
	}
	return Entrant{Kind: EntrantUser}
}

// Submission statuses the board classifier cares about. Anything else is
// treated as in progress.
const (
	StatusSuccessful = "successful"
	StatusFailed     = "failed"
)

// Submission is one row of the caller's submission board.
type Submission struct {
	ID                FlexString `json:"id"`
	Status            string     `json:"status"`
	CreatedAt         string     `json:"created_at"`
	Filename          string     `json:"filename"`
	PublicScore       *FlexFloat `json:"public_score"`
	PrivateScore      *FlexFloat `json:"private_score"`
	Comment           string     `json:"comment"`
	StatusDescription string     `json:"status_description"`
}

// CreatedTime parses the submission's creation timestamp.
func (s Submission) CreatedTime() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, s.CreatedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// InProgress reports whether the submission is still being scored.
func (s Submission) InProgress() bool {
	return s.Status != StatusSuccessful && s.Status != StatusFailed
}

// Participation is a user's enrollment record for one challenge.
type Participation struct {
	TeamID *string `json:"team_id"`
}

// MyParticipation mirrors the dedicated my-participation endpoint.
type MyParticipation struct {
	PublicRank *int `json:"public_rank"`
}

// SignInResult carries the auth payload returned on a successful sign-in.
type SignInResult struct {
	AuthToken string `json:"auth_token"`
	User      User   `json:"user"`
}
