package assertion

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Assertion is the provider's claim about the current cookie bearer.
// It is constructed fresh per request and never persisted.
type Assertion struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Admin         bool   `json:"admin"`
	Avatar        string `json:"avatar,omitempty"`
}

var (
	// ErrMalformedResponse indicates the provider responded with something
	// that is not a well-formed assertion: invalid JSON, a missing or
	// non-boolean "authenticated" field, or an authenticated claim without
	// a username. Malformed responses are always treated as unauthenticated.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrUnauthenticated is the normal not-logged-in outcome: the provider
	// answered correctly and reports no live session for the bearer. It is
	// a marker, not a failure; no account action may follow it.
	ErrUnauthenticated = errors.New("provider reports bearer unauthenticated")
)

// Parse validates a raw provider response body and returns the assertion.
//
// The "authenticated" field must be present and a JSON boolean. When it is
// false the other fields are untrusted and ignored; Parse returns
// ErrUnauthenticated without inspecting them. When it is true, a non-empty
// username is required: an incomplete authenticated claim must never
// half-provision an account, so it degrades to ErrMalformedResponse.
func Parse(raw []byte) (*Assertion, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	rawAuth, ok := fields["authenticated"]
	if !ok {
		return nil, fmt.Errorf("%w: missing \"authenticated\" field", ErrMalformedResponse)
	}

	var authenticated bool
	if err := json.Unmarshal(rawAuth, &authenticated); err != nil {
		return nil, fmt.Errorf("%w: \"authenticated\" is not a boolean", ErrMalformedResponse)
	}

	if !authenticated {
		return nil, ErrUnauthenticated
	}

	var a Assertion
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if strings.TrimSpace(a.Username) == "" {
		return nil, fmt.Errorf("%w: authenticated assertion without username", ErrMalformedResponse)
	}

	return &a, nil
}
