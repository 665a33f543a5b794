// Package api implements the HTTP client for the Zindi competition service.
//
// Every response arrives wrapped in a {"data": ...} envelope; an
// application-level failure is signaled by an "errors" key inside that
// envelope even when the transport status is 2xx. The client normalizes both
// concerns here so callers only ever see typed payloads or a single error
// shape.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/KameniAlexNea/zindi/internal/logger"
)

// Client talks to the Zindi HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	log       logger.Logger

	token    string
	username string
}

// authStyle selects the channel an endpoint expects the auth token on.
// The service is not uniform about this: some endpoints read an "auth-token"
// header, others an "auth_token" header, form field, or query parameter.
type authStyle int

const (
	authNone authStyle = iota
	authHeaderDash
	authHeaderScore
)

// NewClient builds a Client for the given API base URL, e.g.
// "https://api.zindi.africa/v1".
func NewClient(base, userAgent string, timeout time.Duration, log logger.Logger) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		return nil, fmt.Errorf("api base is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base %q: %w", base, err)
	}
	return &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
		log:       log,
	}, nil
}

// Username returns the signed-in username, empty before SignIn.
func (c *Client) Username() string { return c.username }

// Token returns the auth token, empty before SignIn.
func (c *Client) Token() string { return c.token }

// SignIn authenticates and stores the auth token and user identity on the
// client. The password is never logged.
func (c *Client) SignIn(ctx context.Context, username, password string) (*SignInResult, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var payload SignInResult
	if err := c.submitForm(ctx, http.MethodPost, []string{"auth", "signin"}, form, authNone, &payload); err != nil {
		return nil, err
	}
	c.token = payload.AuthToken
	c.username = payload.User.Username
	c.log.Info("signed in", "username", c.username)
	return &payload, nil
}

// Challenge fetches a single challenge descriptor by id.
func (c *Client) Challenge(ctx context.Context, id string) (*Challenge, error) {
	var payload Challenge
	if err := c.get(ctx, []string{"competitions", id}, nil, authHeaderDash, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Filter narrows a challenge listing. Invalid enum values fall back to
// defaults instead of failing: an unknown kind means "competition", an
// unknown reward means no reward filter.
type Filter struct {
	Query   string
	Kind    string // competition | hackathon
	Reward  string // prize | points | knowledge
	Active  bool
	PerPage int
}

func (f Filter) values() url.Values {
	v := url.Values{}
	v.Set("page", "0")

	perPage := f.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	v.Set("per_page", strconv.Itoa(perPage))

	kind := strings.ToLower(strings.TrimSpace(f.Kind))
	if kind != "competition" && kind != "hackathon" {
		kind = "competition"
	}
	v.Set("kind", kind)

	reward := strings.ToLower(strings.TrimSpace(f.Reward))
	switch reward {
	case "prize", "points", "knowledge":
	default:
		reward = ""
	}
	v.Set("prize", reward)

	if f.Active {
		v.Set("active", "1")
	} else {
		v.Set("active", "")
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		v.Set("query", q)
	}
	return v
}

// Challenges fetches one page of challenge descriptors matching the filter.
func (c *Client) Challenges(ctx context.Context, f Filter) ([]Challenge, error) {
	var payload []Challenge
	if err := c.get(ctx, []string{"competitions"}, f.values(), authHeaderDash, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Join enrolls the signed-in user in a challenge. secretCode may be empty;
// gated challenges reject the first attempt with a message the caller can
// classify via (*APIError).SecretCodeRequired.
func (c *Client) Join(ctx context.Context, challengeID, secretCode string) error {
	form := url.Values{}
	form.Set("auth_token", c.token)

	path := []string{"competitions", challengeID, "participations"}
	if secretCode == "" {
		return c.submitForm(ctx, http.MethodPost, path, form, authHeaderDash, nil)
	}

	query := url.Values{}
	query.Set("secret_code", secretCode)
	return c.submitFormQuery(ctx, http.MethodPost, path, query, form, authHeaderDash, nil)
}

// Datafiles fetches the dataset manifest for a challenge.
func (c *Client) Datafiles(ctx context.Context, challengeID string) ([]Datafile, error) {
	var payload struct {
		Datafiles []Datafile `json:"datafiles"`
	}
	if err := c.get(ctx, []string{"competitions", challengeID}, nil, authHeaderScore, &payload); err != nil {
		return nil, err
	}
	return payload.Datafiles, nil
}

// Leaderboard fetches one page of leaderboard entries for a challenge.
func (c *Client) Leaderboard(ctx context.Context, challengeID string, page, perPage int) ([]LeaderboardEntry, error) {
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("per_page", strconv.Itoa(perPage))

	var payload []LeaderboardEntry
	if err := c.get(ctx, []string{"competitions", challengeID, "participations"}, v, authHeaderScore, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Submissions fetches the caller's own submissions for a challenge.
func (c *Client) Submissions(ctx context.Context, challengeID string, perPage int) ([]Submission, error) {
	v := url.Values{}
	v.Set("per_page", strconv.Itoa(perPage))

	var payload []Submission
	if err := c.get(ctx, []string{"competitions", challengeID, "submissions"}, v, authHeaderDash, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// MyParticipation fetches the caller's enrollment record for a challenge,
// including the public rank.
func (c *Client) MyParticipation(ctx context.Context, challengeID string) (*MyParticipation, error) {
	var payload MyParticipation
	if err := c.get(ctx, []string{"competitions", challengeID, "participations", "my_participation"}, nil, authHeaderDash, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Participations fetches the caller's enrollment records keyed by challenge id.
func (c *Client) Participations(ctx context.Context) (map[string]Participation, error) {
	var payload map[string]Participation
	if err := c.get(ctx, []string{"participations"}, nil, authHeaderDash, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// CreateTeam creates a team for a challenge and returns its title.
func (c *Client) CreateTeam(ctx context.Context, challengeID, title string) (string, error) {
	form := url.Values{}
	form.Set("title", title)
	form.Set("auth_token", c.token)

	var payload struct {
		Title string `json:"title"`
	}
	if err := c.submitForm(ctx, http.MethodPost, []string{"competitions", challengeID, "my_team"}, form, authNone, &payload); err != nil {
		return "", err
	}
	return payload.Title, nil
}

// InviteTeammate sends a team invitation to a user.
func (c *Client) InviteTeammate(ctx context.Context, challengeID, username string) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("auth_token", c.token)
	return c.submitForm(ctx, http.MethodPost, []string{"competitions", challengeID, "my_team", "invite"}, form, authNone, nil)
}

// DisbandTeam deletes the caller's team and returns the service's free-form
// success payload.
func (c *Client) DisbandTeam(ctx context.Context, challengeID string) (string, error) {
	form := url.Values{}
	form.Set("auth_token", c.token)

	var payload json.RawMessage
	if err := c.submitForm(ctx, http.MethodDelete, []string{"competitions", challengeID, "my_team"}, form, authNone, &payload); err != nil {
		return "", err
	}
	var msg string
	if err := json.Unmarshal(payload, &msg); err == nil {
		return msg, nil
	}
	return string(payload), nil
}

func (c *Client) get(ctx context.Context, path []string, query url.Values, auth authStyle, dest any) error {
	reqURL := c.baseURL.JoinPath(path...)
	if query != nil {
		reqURL.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.applyAuth(req, auth)
	return c.do(req, dest)
}

func (c *Client) submitForm(ctx context.Context, method string, path []string, form url.Values, auth authStyle, dest any) error {
	return c.submitFormQuery(ctx, method, path, nil, form, auth, dest)
}

func (c *Client) submitFormQuery(ctx context.Context, method string, path []string, query, form url.Values, auth authStyle, dest any) error {
	reqURL := c.baseURL.JoinPath(path...)
	if query != nil {
		reqURL.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.applyAuth(req, auth)
	return c.do(req, dest)
}

func (c *Client) applyAuth(req *http.Request, auth authStyle) {
	switch auth {
	case authHeaderDash:
		req.Header.Set("auth-token", c.token)
	case authHeaderScore:
		req.Header.Set("auth_token", c.token)
	}
}

func (c *Client) do(req *http.Request, dest any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.log.Debug("api request", "method", req.Method, "url", req.URL.Redacted())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.log.Debug("api response", "status", resp.StatusCode, "bytes", len(body))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", req.URL.Path, resp.StatusCode)
	}
	return decodeEnvelope(body, dest)
}

// decodeEnvelope unwraps the {"data": ...} wrapper, surfaces an embedded
// "errors" payload as *APIError, and decodes the remainder into dest.
func decodeEnvelope(body []byte, dest any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	var probe struct {
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(env.Data, &probe); err == nil {
		if len(probe.Errors) > 0 && string(probe.Errors) != "null" {
			return newAPIError(probe.Errors)
		}
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
