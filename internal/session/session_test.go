package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KameniAlexNea/zindi/internal/api"
	"github.com/KameniAlexNea/zindi/internal/logger"
)

// prompterStub scripts the interactive answers.
type prompterStub struct {
	password string
	index    int
	code     string

	indexAsked int
	codeAsked  int
}

func (p *prompterStub) Password() (string, error) { return p.password, nil }

func (p *prompterStub) ChallengeIndex(n int) (int, error) {
	p.indexAsked++
	return p.index, nil
}

func (p *prompterStub) SecretCode() (string, error) {
	p.codeAsked++
	return p.code, nil
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeErrors(w http.ResponseWriter, errs any) {
	writeData(w, map[string]any{"errors": errs})
}

// newTestSession signs a session in against mux and returns it with its
// captured output.
func newTestSession(t *testing.T, mux *http.ServeMux, prompt *prompterStub) (*Session, *bytes.Buffer) {
	t.Helper()

	mux.HandleFunc("POST /auth/signin", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, map[string]any{
			"auth_token": "T",
			"user":       map[string]any{"username": "testuser"},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := api.NewClient(server.URL, "test-agent", 2*time.Second, logger.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	out := &bytes.Buffer{}
	sess := New(client, logger.Nop(), prompt, out, nil)
	if err := sess.SignIn(context.Background(), "testuser", "pw"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	return sess, out
}

func challengePayload(id string) map[string]any {
	return map[string]any{"id": id, "kind": "competition", "subtitle": "subtitle of " + id}
}

func TestSignIn_PromptsWhenPasswordEmpty(t *testing.T) {
	t.Parallel()

	var gotPassword string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signin", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotPassword = r.PostForm.Get("password")
		writeData(w, map[string]any{"auth_token": "T", "user": map[string]any{"username": "u"}})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := api.NewClient(server.URL, "test-agent", 2*time.Second, logger.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	out := &bytes.Buffer{}
	sess := New(client, logger.Nop(), &prompterStub{password: "hunter2"}, out, nil)

	if err := sess.SignIn(context.Background(), "u", ""); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if gotPassword != "hunter2" {
		t.Fatalf("password sent = %q, want prompted hunter2", gotPassword)
	}
	if !strings.Contains(out.String(), "Welcome u") {
		t.Fatalf("welcome message missing from %q", out.String())
	}
}

func TestSignIn_FailureCarriesServiceMessage(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signin", func(w http.ResponseWriter, r *http.Request) {
		writeErrors(w, map[string]any{"message": "bad creds"})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := api.NewClient(server.URL, "test-agent", 2*time.Second, logger.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	sess := New(client, logger.Nop(), &prompterStub{}, &bytes.Buffer{}, nil)

	err = sess.SignIn(context.Background(), "u", "x")
	if err == nil || !strings.Contains(err.Error(), "bad creds") {
		t.Fatalf("SignIn error = %v, want it to contain bad creds", err)
	}
}

func TestChallengeScopedOperations_FailFastWithoutSelection(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/signin" {
			t.Errorf("unexpected network call %s %s without a selected challenge", r.Method, r.URL.Path)
		}
		writeData(w, map[string]any{"auth_token": "T", "user": map[string]any{"username": "testuser"}})
	})
	sess, out := newTestSession(t, mux, &prompterStub{})
	ctx := context.Background()

	if err := sess.DownloadDataset(ctx, t.TempDir(), true); !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("DownloadDataset error = %v, want ErrNoChallenge", err)
	}
	if err := sess.Submit(ctx, []string{"a.csv"}, nil); !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("Submit error = %v, want ErrNoChallenge", err)
	}
	if _, err := sess.Leaderboard(ctx, false, 0); !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("Leaderboard error = %v, want ErrNoChallenge", err)
	}
	if _, err := sess.SubmissionBoard(ctx, false, 0); !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("SubmissionBoard error = %v, want ErrNoChallenge", err)
	}
	if err := sess.CreateTeam(ctx, "t", nil); !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("CreateTeam error = %v, want ErrNoChallenge", err)
	}
	if err := sess.TeamUp(ctx, []string{"u"}); !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("TeamUp error = %v, want ErrNoChallenge", err)
	}
	if err := sess.DisbandTeam(ctx); !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("DisbandTeam error = %v, want ErrNoChallenge", err)
	}

	// MyRank and RemainingSubmissions report sentinels, not errors.
	rank, err := sess.MyRank(ctx)
	if err != nil || rank != 0 {
		t.Fatalf("MyRank = (%d, %v), want (0, nil)", rank, err)
	}
	remaining, ok, err := sess.RemainingSubmissions(ctx)
	if err != nil || ok || remaining != 0 {
		t.Fatalf("RemainingSubmissions = (%d, %v, %v), want (0, false, nil)", remaining, ok, err)
	}
	if !strings.Contains(out.String(), "not yet selected") {
		t.Fatalf("sentinel notices missing from output %q", out.String())
	}
}

func TestSelectChallenge_ExplicitIndexOutOfRange(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /competitions", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []any{challengePayload("a"), challengePayload("b"), challengePayload("c")})
	})
	sess, _ := newTestSession(t, mux, &prompterStub{})

	for _, idx := range []int{-1, 3, 100} {
		idx := idx
		err := sess.SelectChallenge(context.Background(), SelectOptions{Index: &idx})
		if err == nil || !strings.Contains(err.Error(), "range") {
			t.Fatalf("SelectChallenge(index=%d) error = %v, want range error", idx, err)
		}
		if _, selected := sess.WhichChallenge(); selected {
			t.Fatalf("session selected a challenge despite range error")
		}
	}
}

func TestSelectChallenge_InteractivePickAndJoin(t *testing.T) {
	t.Parallel()

	joins := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /competitions", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []any{challengePayload("challenge-1"), challengePayload("challenge-2")})
	})
	mux.HandleFunc("POST /competitions/challenge-2/participations", func(w http.ResponseWriter, r *http.Request) {
		joins++
		writeData(w, map[string]any{"ids": []int{1}})
	})
	prompt := &prompterStub{index: 1}
	sess, out := newTestSession(t, mux, prompt)

	if err := sess.SelectChallenge(context.Background(), SelectOptions{}); err != nil {
		t.Fatalf("SelectChallenge: %v", err)
	}
	if prompt.indexAsked != 1 {
		t.Fatalf("index prompted %d times, want 1", prompt.indexAsked)
	}
	if joins != 1 {
		t.Fatalf("join posted %d times, want 1", joins)
	}
	id, selected := sess.WhichChallenge()
	if !selected || id != "challenge-2" {
		t.Fatalf("selected = (%q, %v), want challenge-2", id, selected)
	}
	if !strings.Contains(out.String(), "Welcome for the first time") {
		t.Fatalf("welcome-once message missing from %q", out.String())
	}
}

func TestSelectChallenge_QuitSentinelAborts(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /competitions", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []any{challengePayload("challenge-1")})
	})
	sess, out := newTestSession(t, mux, &prompterStub{index: -1})

	if err := sess.SelectChallenge(context.Background(), SelectOptions{}); err != nil {
		t.Fatalf("SelectChallenge: %v", err)
	}
	if _, selected := sess.WhichChallenge(); selected {
		t.Fatalf("session selected after quit sentinel")
	}
	if !strings.Contains(out.String(), "aborted") {
		t.Fatalf("abort notice missing from %q", out.String())
	}
}

func TestSelectChallenge_ZeroResultsReports(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /competitions", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []any{})
	})
	sess, out := newTestSession(t, mux, &prompterStub{})

	if err := sess.SelectChallenge(context.Background(), SelectOptions{Query: "nomatch"}); err != nil {
		t.Fatalf("SelectChallenge: %v", err)
	}
	if _, selected := sess.WhichChallenge(); selected {
		t.Fatalf("session selected with zero results")
	}
	if !strings.Contains(out.String(), "No challenges found") {
		t.Fatalf("zero-results notice missing from %q", out.String())
	}
}

func TestSelectChallenge_DirectIDNotFoundStaysUnselected(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /competitions/ghost", func(w http.ResponseWriter, r *http.Request) {
		writeErrors(w, "not found")
	})
	sess, out := newTestSession(t, mux, &prompterStub{})

	if err := sess.SelectChallenge(context.Background(), SelectOptions{ChallengeID: "ghost"}); err != nil {
		t.Fatalf("SelectChallenge: %v", err)
	}
	if _, selected := sess.WhichChallenge(); selected {
		t.Fatalf("session selected a missing challenge")
	}
	if !strings.Contains(out.String(), "not found") {
		t.Fatalf("not-found diagnostic missing from %q", out.String())
	}
}

func TestJoin_AlreadyJoinedIsIdempotent(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /competitions/ch", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, challengePayload("ch"))
	})
	mux.HandleFunc("POST /competitions/ch/participations", func(w http.ResponseWriter, r *http.Request) {
		writeErrors(w, map[string]any{"message": "already in"})
	})
	sess, out := newTestSession(t, mux, &prompterStub{})

	for i := 0; i < 2; i++ {
		if err := sess.SelectChallenge(context.Background(), SelectOptions{ChallengeID: "ch"}); err != nil {
			t.Fatalf("SelectChallenge #%d: %v", i+1, err)
		}
	}
	if strings.Contains(out.String(), "Welcome for the first time") {
		t.Fatalf("already-joined printed the first-time welcome: %q", out.String())
	}
}

func TestJoin_SecretCodeRetry(t *testing.T) {
	t.Parallel()

	var codes []string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /competitions/gated", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, challengePayload("gated"))
	})
	mux.HandleFunc("POST /competitions/gated/participations", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("secret_code")
		codes = append(codes, code)
		if code == "" {
			writeErrors(w, map[string]any{"message": "This competition requires a secret code to join."})
			return
		}
		writeData(w, map[string]any{"ids": []int{1}})
	})
	prompt := &prompterStub{code: "secretcode123"}
	sess, out := newTestSession(t, mux, prompt)

	if err := sess.SelectChallenge(context.Background(), SelectOptions{ChallengeID: "gated"}); err != nil {
		t.Fatalf("SelectChallenge: %v", err)
	}
	if prompt.codeAsked != 1 {
		t.Fatalf("secret code prompted %d times, want 1", prompt.codeAsked)
	}
	if len(codes) != 2 || codes[0] != "" || codes[1] != "secretcode123" {
		t.Fatalf("join attempts carried codes %v, want [\"\" secretcode123]", codes)
	}
	if !strings.Contains(out.String(), "Welcome for the first time") {
		t.Fatalf("welcome missing after gated join: %q", out.String())
	}
}

func TestJoin_SecondSecretCodeResponseRaises(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /competitions/gated", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, challengePayload("gated"))
	})
	mux.HandleFunc("POST /competitions/gated/participations", func(w http.ResponseWriter, r *http.Request) {
		writeErrors(w, map[string]any{"message": "This competition requires a secret code to join."})
	})
	prompt := &prompterStub{code: "wrong"}
	sess, _ := newTestSession(t, mux, prompt)

	err := sess.SelectChallenge(context.Background(), SelectOptions{ChallengeID: "gated"})
	if err == nil || !strings.Contains(err.Error(), "secret code") {
		t.Fatalf("error = %v, want surfaced secret-code failure", err)
	}
	if prompt.codeAsked != 1 {
		t.Fatalf("secret code prompted %d times, want exactly 1", prompt.codeAsked)
	}
}

func selectChallenge(t *testing.T, sess *Session, id string) {
	t.Helper()
	if err := sess.SelectChallenge(context.Background(), SelectOptions{ChallengeID: id}); err != nil {
		t.Fatalf("SelectChallenge(%s): %v", id, err)
	}
}

// selectable registers detail + join handlers so tests can move the session
// into the selected state.
func selectable(mux *http.ServeMux, id string, extra map[string]any) {
	payload := challengePayload(id)
	for k, v := range extra {
		payload[k] = v
	}
	mux.HandleFunc("GET /competitions/"+id, func(w http.ResponseWriter, r *http.Request) {
		writeData(w, payload)
	})
	mux.HandleFunc("POST /competitions/"+id+"/participations", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, map[string]any{"ids": []int{1}})
	})
}

func TestSubmit_BatchSkipsInvalidWithoutAborting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "a.csv")
	if err := os.WriteFile(good, []byte("id,target\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	wrongExt := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(wrongExt, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	missing := filepath.Join(dir, "missing.csv")

	uploads := 0
	mux := http.NewServeMux()
	selectable(mux, "ch", nil)
	mux.HandleFunc("POST /competitions/ch/submissions", func(w http.ResponseWriter, r *http.Request) {
		uploads++
		writeData(w, map[string]any{"id": "sub-1"})
	})
	sess, out := newTestSession(t, mux, &prompterStub{})
	selectChallenge(t, sess, "ch")

	if err := sess.Submit(context.Background(), []string{good, wrongExt, missing}, []string{"ok"}); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if uploads != 1 {
		t.Fatalf("uploads = %d, want exactly 1", uploads)
	}
	if !strings.Contains(out.String(), "CSV") {
		t.Fatalf("extension diagnostic missing from %q", out.String())
	}
	if !strings.Contains(out.String(), "does not exist") {
		t.Fatalf("missing-file diagnostic missing from %q", out.String())
	}
	if !strings.Contains(out.String(), "sub-1") {
		t.Fatalf("success line missing from %q", out.String())
	}
}

func TestSubmit_PerFileServiceErrorContinuesBatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")
	for _, p := range []string{first, second} {
		if err := os.WriteFile(p, []byte("x\n"), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	uploads := 0
	mux := http.NewServeMux()
	selectable(mux, "ch", nil)
	mux.HandleFunc("POST /competitions/ch/submissions", func(w http.ResponseWriter, r *http.Request) {
		uploads++
		if uploads == 1 {
			writeErrors(w, map[string]any{"base": "Submission failed"})
			return
		}
		writeData(w, map[string]any{"id": "sub-2"})
	})
	sess, out := newTestSession(t, mux, &prompterStub{})
	selectChallenge(t, sess, "ch")

	if err := sess.Submit(context.Background(), []string{first, second}, nil); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if uploads != 2 {
		t.Fatalf("uploads = %d, want both files attempted", uploads)
	}
	if !strings.Contains(out.String(), "Submission failed") {
		t.Fatalf("per-file failure diagnostic missing from %q", out.String())
	}
}

func TestDownloadDataset_DeduplicatesManifest(t *testing.T) {
	t.Parallel()

	fetches := map[string]int{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /competitions/ch", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, map[string]any{
			"id":       "ch",
			"subtitle": "sub",
			"datafiles": []any{
				map[string]any{"id": "1", "filename": "train.csv"},
				map[string]any{"id": "1", "filename": "train.csv"},
				map[string]any{"id": "2", "filename": "test.csv"},
			},
		})
	})
	mux.HandleFunc("POST /competitions/ch/participations", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, map[string]any{"ids": []int{1}})
	})
	mux.HandleFunc("GET /competitions/ch/files/{name}", func(w http.ResponseWriter, r *http.Request) {
		fetches[r.PathValue("name")]++
		_, _ = w.Write([]byte("data," + r.PathValue("name") + "\n"))
	})
	sess, _ := newTestSession(t, mux, &prompterStub{})
	selectChallenge(t, sess, "ch")

	dest := filepath.Join(t.TempDir(), "dataset")
	if err := sess.DownloadDataset(context.Background(), dest, true); err != nil {
		t.Fatalf("DownloadDataset: %v", err)
	}
	if fetches["train.csv"] != 1 || fetches["test.csv"] != 1 {
		t.Fatalf("fetch counts = %v, want one per unique record", fetches)
	}
	for _, name := range []string{"train.csv", "test.csv"} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Fatalf("downloaded file %s missing: %v", name, err)
		}
	}
}

func TestDownloadDataset_MissingDestinationWithoutCreate(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	selectable(mux, "ch", nil)
	sess, _ := newTestSession(t, mux, &prompterStub{})
	selectChallenge(t, sess, "ch")

	dest := filepath.Join(t.TempDir(), "nope")
	if err := sess.DownloadDataset(context.Background(), dest, false); err == nil {
		t.Fatalf("DownloadDataset returned nil error for missing destination")
	}
}

func TestLeaderboard_CachesAndFindsRank(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	selectable(mux, "ch", nil)
	mux.HandleFunc("GET /competitions/ch/participations", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []any{
			map[string]any{"public_rank": 1, "best_public_score": 0.95, "user": map[string]any{"username": "leader"}, "submission_count": 5},
			map[string]any{"public_rank": 2, "best_public_score": 0.92, "user": map[string]any{"username": "testuser"}, "submission_count": 3},
		})
	})
	mux.HandleFunc("GET /participations", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, map[string]any{"ch": map[string]any{"team_id": nil}})
	})
	sess, out := newTestSession(t, mux, &prompterStub{})
	selectChallenge(t, sess, "ch")

	entries, err := sess.Leaderboard(context.Background(), true, 50)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if sess.rank != 2 {
		t.Fatalf("cached rank = %d, want 2", sess.rank)
	}
	if !strings.Contains(out.String(), "testuser") {
		t.Fatalf("rendered table missing caller row: %q", out.String())
	}
}

func TestLeaderboard_MissingParticipationIsLookupError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	selectable(mux, "ch", nil)
	mux.HandleFunc("GET /competitions/ch/participations", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []any{})
	})
	mux.HandleFunc("GET /participations", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, map[string]any{"other-challenge": map[string]any{"team_id": nil}})
	})
	sess, _ := newTestSession(t, mux, &prompterStub{})
	selectChallenge(t, sess, "ch")

	_, err := sess.Leaderboard(context.Background(), false, 50)
	if !errors.Is(err, api.ErrParticipationMissing) {
		t.Fatalf("Leaderboard error = %v, want ErrParticipationMissing", err)
	}
}

func TestMyRank_FetchesAndPrintsOrdinal(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	selectable(mux, "ch", nil)
	mux.HandleFunc("GET /competitions/ch/participations/my_participation", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, map[string]any{"public_rank": 22})
	})
	sess, out := newTestSession(t, mux, &prompterStub{})
	selectChallenge(t, sess, "ch")

	rank, err := sess.MyRank(context.Background())
	if err != nil {
		t.Fatalf("MyRank: %v", err)
	}
	if rank != 22 {
		t.Fatalf("rank = %d, want 22", rank)
	}
	if !strings.Contains(out.String(), "22nd") {
		t.Fatalf("ordinal rendering missing from %q", out.String())
	}
}

func TestRemainingSubmissions_WindowMath(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	mux := http.NewServeMux()
	selectable(mux, "ch", map[string]any{
		"pages": []any{
			map[string]any{"title": "Rules", "content_html": "You may make a maximum of 5 submissions per day."},
		},
	})
	mux.HandleFunc("GET /competitions/ch/submissions", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []any{
			map[string]any{"id": "old", "created_at": now.Add(-25 * time.Hour).Format(time.RFC3339)},
			map[string]any{"id": "new1", "created_at": now.Add(-1 * time.Hour).Format(time.RFC3339)},
			map[string]any{"id": "new2", "created_at": now.Add(-23 * time.Hour).Format(time.RFC3339)},
		})
	})
	sess, out := newTestSession(t, mux, &prompterStub{})
	selectChallenge(t, sess, "ch")

	remaining, ok, err := sess.RemainingSubmissions(context.Background())
	if err != nil {
		t.Fatalf("RemainingSubmissions: %v", err)
	}
	if !ok || remaining != 3 {
		t.Fatalf("remaining = (%d, %v), want (3, true)", remaining, ok)
	}
	if !strings.Contains(out.String(), "3 remaining") {
		t.Fatalf("remaining notice missing from %q", out.String())
	}
}

func TestRemainingSubmissions_ClampsAtZero(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	var todays []any
	for i := 0; i < 4; i++ {
		todays = append(todays, map[string]any{
			"id":         fmt.Sprintf("s%d", i),
			"created_at": now.Add(-time.Duration(i+1) * time.Hour).Format(time.RFC3339),
		})
	}
	mux := http.NewServeMux()
	selectable(mux, "ch", map[string]any{
		"pages": []any{
			map[string]any{"title": "Rules", "content_html": "maximum of 2 submissions per day"},
		},
	})
	mux.HandleFunc("GET /competitions/ch/submissions", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, todays)
	})
	sess, _ := newTestSession(t, mux, &prompterStub{})
	selectChallenge(t, sess, "ch")

	remaining, ok, err := sess.RemainingSubmissions(context.Background())
	if err != nil || !ok {
		t.Fatalf("RemainingSubmissions = (%v, %v), want ok", ok, err)
	}
	if remaining != 0 {
		t.Fatalf("remaining = %d, want clamped 0", remaining)
	}
}

func TestCreateTeam_AlreadyLeaderIsBenignAndInvites(t *testing.T) {
	t.Parallel()

	invites := 0
	mux := http.NewServeMux()
	selectable(mux, "ch", nil)
	mux.HandleFunc("POST /competitions/ch/my_team", func(w http.ResponseWriter, r *http.Request) {
		writeErrors(w, map[string]any{"base": "Leader can only be part of one team per competition."})
	})
	mux.HandleFunc("POST /competitions/ch/my_team/invite", func(w http.ResponseWriter, r *http.Request) {
		invites++
		writeData(w, map[string]any{"ok": true})
	})
	sess, out := newTestSession(t, mux, &prompterStub{})
	selectChallenge(t, sess, "ch")

	if err := sess.CreateTeam(context.Background(), "Dream Team", []string{"alice", "bob"}); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if invites != 2 {
		t.Fatalf("invites = %d, want 2", invites)
	}
	if !strings.Contains(out.String(), "already the leader") {
		t.Fatalf("benign leader notice missing from %q", out.String())
	}
}

func TestTeamUp_UnexpectedErrorAbortsRemaining(t *testing.T) {
	t.Parallel()

	var invited []string
	mux := http.NewServeMux()
	selectable(mux, "ch", nil)
	mux.HandleFunc("POST /competitions/ch/my_team/invite", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		username := r.PostForm.Get("username")
		invited = append(invited, username)
		switch username {
		case "alice":
			writeErrors(w, map[string]any{"base": "alice is already invited"})
		case "mallory":
			writeErrors(w, map[string]any{"base": "no such user"})
		default:
			writeData(w, map[string]any{"ok": true})
		}
	})
	sess, out := newTestSession(t, mux, &prompterStub{})
	selectChallenge(t, sess, "ch")

	err := sess.TeamUp(context.Background(), []string{"alice", "mallory", "carol"})
	if err == nil || !strings.Contains(err.Error(), "no such user") {
		t.Fatalf("TeamUp error = %v, want surfaced invite failure", err)
	}
	if len(invited) != 2 {
		t.Fatalf("invited = %v, want loop to stop after mallory", invited)
	}
	if !strings.Contains(out.String(), "already sent") {
		t.Fatalf("already-invited notice missing from %q", out.String())
	}
}

func TestDisbandTeam_PrintsServicePayload(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	selectable(mux, "ch", nil)
	mux.HandleFunc("DELETE /competitions/ch/my_team", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, "Team disbanded")
	})
	sess, out := newTestSession(t, mux, &prompterStub{})
	selectChallenge(t, sess, "ch")

	if err := sess.DisbandTeam(context.Background()); err != nil {
		t.Fatalf("DisbandTeam: %v", err)
	}
	if !strings.Contains(out.String(), "Team disbanded") {
		t.Fatalf("service payload missing from %q", out.String())
	}
}
