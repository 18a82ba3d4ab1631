package provider

import (
	"errors"
	"fmt"
	"time"
)

// DefaultFetchTimeout bounds each assertion fetch so a stalled provider
// cannot stall the host's request handling.
const DefaultFetchTimeout = 8 * time.Second

// Config holds the operator-supplied provider settings. It is immutable
// for the duration of a request; hot reloads swap the whole value.
type Config struct {
	// AssertionURL is the provider endpoint that reports session state.
	AssertionURL string `json:"assertion_url"`

	// SharedCookieName is the cookie shared between the forum and the
	// provider, read from the incoming request.
	SharedCookieName string `json:"shared_cookie_name"`

	// ProviderCookieName is the cookie name the provider expects on the
	// assertion request. It may equal SharedCookieName.
	ProviderCookieName string `json:"provider_cookie_name"`

	// LogoutURL is pinged with the session cookie to end the remote
	// session.
	LogoutURL string `json:"logout_url"`

	// LoginRedirectURL is where unauthenticated visitors are sent to log
	// in on the remote system.
	LoginRedirectURL string `json:"login_redirect_url"`

	// FetchTimeout bounds each assertion fetch. Zero selects
	// DefaultFetchTimeout.
	FetchTimeout time.Duration `json:"fetch_timeout,omitempty"`

	// InsecureSkipTLSVerify disables certificate validation on provider
	// requests. Verification is on by default; disabling it is an
	// intentional opt-in for test environments only.
	InsecureSkipTLSVerify bool `json:"insecure_skip_tls_verify,omitempty"`
}

// ErrConfigurationMissing is returned when a required provider setting is
// empty. It indicates operator misconfiguration and must reach the
// operator log.
var ErrConfigurationMissing = errors.New("provider configuration missing")

// Validate checks that every operator setting has a value. Nothing beyond
// non-emptiness is enforced here.
func (c Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"assertion_url", c.AssertionURL},
		{"shared_cookie_name", c.SharedCookieName},
		{"provider_cookie_name", c.ProviderCookieName},
		{"logout_url", c.LogoutURL},
		{"login_redirect_url", c.LoginRedirectURL},
	}

	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s", ErrConfigurationMissing, r.key)
		}
	}
	return nil
}

// withDefaults fills unset tuning knobs.
func (c Config) withDefaults() Config {
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	return c
}

// ConfigField describes one operator setting for the host's admin surface.
type ConfigField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Help  string `json:"help"`
}

// ConfigFields lists the settings this provider needs from the operator,
// with display labels and help text for the host's configuration UI.
func ConfigFields() []ConfigField {
	return []ConfigField{
		{
			Key:   "assertion_url",
			Label: "JSON Auth URL",
			Help:  `URL of the remote authenticator's JSON session page. That page should return e.g. {"username": "xxxxxxx", "admin": false, "authenticated": true, "email": "xxxx@xxxxxxx.com", "avatar": "/media/img/xxxx.png"}`,
		},
		{
			Key:   "shared_cookie_name",
			Label: "Shared cookie name",
			Help:  "Name of the cookie which is shared between the remote system and the forum.",
		},
		{
			Key:   "provider_cookie_name",
			Label: "Remote cookie name",
			Help:  "Name of the cookie on the remote system (can be the same as the shared cookie name).",
		},
		{
			Key:   "logout_url",
			Label: "Location to ping to log the user out",
			Help:  "URL that we should access with the session cookie in order to log the user out.",
		},
		{
			Key:   "login_redirect_url",
			Label: "Where to redirect the user to log in",
			Help:  "Page to send the user to in order to log in on the remote system.",
		},
	}
}
