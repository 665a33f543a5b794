package api

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrParticipationMissing reports a participations response that lacks the
// selected challenge entirely, which indicates a malformed response rather
// than "no team".
var ErrParticipationMissing = errors.New("challenge missing from participations response")

// APIError is an application-level failure reported inside a 2xx response.
// The service signals it through an "errors" key whose shape varies: a plain
// string, {"base": "..."} or {"message": "..."}. All shapes are normalized
// into the single Message field.
type APIError struct {
	Message string
}

func (e *APIError) Error() string { return e.Message }

// newAPIError extracts a human-readable message from a raw "errors" payload.
func newAPIError(raw json.RawMessage) *APIError {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &APIError{Message: s}
	}

	var obj struct {
		Base    string `json:"base"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Message != "" {
			return &APIError{Message: obj.Message}
		}
		if obj.Base != "" {
			return &APIError{Message: obj.Base}
		}
	}

	return &APIError{Message: string(raw)}
}

// AsAPIError unwraps err into an *APIError when the failure is
// application-level rather than transport-level.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Benign-condition classifiers. The service distinguishes expected
// "already done" outcomes only by message content.

// AlreadyJoined reports the join response for a challenge the user is
// already participating in.
func (e *APIError) AlreadyJoined() bool {
	return strings.Contains(e.Message, "already in")
}

// SecretCodeRequired reports a join attempt gated behind a secret code.
func (e *APIError) SecretCodeRequired() bool {
	return strings.Contains(strings.ToLower(e.Message), "secret code")
}

// AlreadyInvited reports an invite sent to a user who already has one pending.
func (e *APIError) AlreadyInvited() bool {
	return strings.Contains(e.Message, "already invited")
}

// AlreadyTeamLeader reports a team-create attempt by an existing leader.
func (e *APIError) AlreadyTeamLeader() bool {
	return strings.Contains(e.Message, "Leader can only be")
}
