package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larry-brewer/jsonauth/pkg/accounts"
	"github.com/larry-brewer/jsonauth/pkg/assertion"
	"github.com/larry-brewer/jsonauth/pkg/observability"
	"github.com/larry-brewer/jsonauth/pkg/reconcile"
)

// fakeReconciler returns a canned result per normalized username.
type fakeReconciler struct {
	users map[string]*accounts.User
	errs  map[string]error
	calls int
}

func (f *fakeReconciler) Reconcile(_ context.Context, a *assertion.Assertion) (*accounts.User, error) {
	f.calls++
	key := accounts.NormalizeUsername(a.Username)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if u, ok := f.users[key]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("unexpected reconcile for %q", key)
}

// assertionServer serves a fixed response body keyed by cookie value.
func assertionServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("appsession")
		if err != nil {
			w.Write([]byte(`{"authenticated": false}`))
			return
		}
		body, ok := responses[c.Value]
		if !ok {
			w.Write([]byte(`{"authenticated": false}`))
			return
		}
		w.Write([]byte(body))
	}))
}

func newTestProvider(t *testing.T, url string, rec Reconciler) *JSONProvider {
	t.Helper()
	cfg := validConfig()
	cfg.AssertionURL = url
	p, err := NewJSONProvider(cfg, rec, observability.NewNopLogger(), nil)
	require.NoError(t, err)
	return p
}

func reqWithCookie(value string) *RequestContext {
	return NewRequestContext(map[string]string{"appsession": value})
}

func TestNewJSONProvider_RejectsIncompleteConfig(t *testing.T) {
	cfg := validConfig()
	cfg.AssertionURL = ""
	_, err := NewJSONProvider(cfg, &fakeReconciler{}, observability.NewNopLogger(), nil)
	assert.ErrorIs(t, err, ErrConfigurationMissing)
}

func TestTryAutoLogin_NoCookieIsNoOp(t *testing.T) {
	rec := &fakeReconciler{}
	p := newTestProvider(t, "http://unused.invalid", rec)

	v := p.TryAutoLogin(context.Background(), NewRequestContext(nil))
	assert.Equal(t, StatusNoAssertion, v.Status)
	assert.Zero(t, rec.calls)
}

func TestTryAutoLogin_UnauthenticatedDenies(t *testing.T) {
	server := assertionServer(t, map[string]string{"s1": `{"authenticated": false}`})
	defer server.Close()

	rec := &fakeReconciler{}
	p := newTestProvider(t, server.URL, rec)

	v := p.TryAutoLogin(context.Background(), reqWithCookie("s1"))
	assert.Equal(t, StatusDenied, v.Status)
	assert.Equal(t, ReasonUnauthenticated, v.Reason)
	assert.Zero(t, rec.calls, "unauthenticated assertions must not reach reconciliation")
}

func TestTryAutoLogin_Grants(t *testing.T) {
	server := assertionServer(t, map[string]string{
		"s1": `{"authenticated": true, "username": "alice", "admin": false, "email": "a@x.com"}`,
	})
	defer server.Close()

	alice := &accounts.User{ID: 7, Username: "alice", UsernameClean: "alice", Role: accounts.RoleNormal}
	p := newTestProvider(t, server.URL, &fakeReconciler{users: map[string]*accounts.User{"alice": alice}})

	v := p.TryAutoLogin(context.Background(), reqWithCookie("s1"))
	require.True(t, v.Granted())
	assert.Equal(t, alice, v.User)
}

func TestTryAutoLogin_MalformedResponseDenies(t *testing.T) {
	server := assertionServer(t, map[string]string{"s1": `{"authenticated": true}`})
	defer server.Close()

	rec := &fakeReconciler{}
	p := newTestProvider(t, server.URL, rec)

	v := p.TryAutoLogin(context.Background(), reqWithCookie("s1"))
	assert.Equal(t, StatusDenied, v.Status)
	assert.Equal(t, ReasonMalformedResponse, v.Reason)
	assert.Zero(t, rec.calls)
}

func TestTryAutoLogin_FetchFailureDenies(t *testing.T) {
	server := assertionServer(t, nil)
	server.Close()

	p := newTestProvider(t, server.URL, &fakeReconciler{})

	v := p.TryAutoLogin(context.Background(), reqWithCookie("s1"))
	assert.Equal(t, StatusDenied, v.Status)
	assert.Equal(t, ReasonFetchFailed, v.Reason)
}

func TestTryAutoLogin_ReconcileErrorsMapToReasons(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason DenyReason
	}{
		{"disabled account", reconcile.ErrAccountDisabled, ReasonAccountDisabled},
		{"creation race", reconcile.ErrCreationRaceOrFailure, ReasonCreationFailed},
		{"group resolution", reconcile.ErrGroupResolution, ReasonGroupResolution},
		{"other", errors.New("db down"), ReasonReconcileFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := assertionServer(t, map[string]string{
				"s1": `{"authenticated": true, "username": "alice", "email": "a@x.com"}`,
			})
			defer server.Close()

			rec := &fakeReconciler{errs: map[string]error{"alice": tt.err}}
			p := newTestProvider(t, server.URL, rec)

			v := p.TryAutoLogin(context.Background(), reqWithCookie("s1"))
			assert.Equal(t, StatusDenied, v.Status)
			assert.Equal(t, tt.reason, v.Reason)
			assert.Nil(t, v.User)
		})
	}
}

func TestLogin_IgnoresLocalCredentials(t *testing.T) {
	server := assertionServer(t, map[string]string{
		"s1": `{"authenticated": true, "username": "alice", "email": "a@x.com"}`,
	})
	defer server.Close()

	alice := &accounts.User{ID: 7, UsernameClean: "alice"}
	p := newTestProvider(t, server.URL, &fakeReconciler{users: map[string]*accounts.User{"alice": alice}})

	// Whatever the host passes as credentials is irrelevant.
	v := p.Login(context.Background(), reqWithCookie("s1"), "bob", "wrong-password")
	require.True(t, v.Granted())
	assert.Equal(t, alice, v.User)
}

func TestLogin_UnauthenticatedCarriesRedirect(t *testing.T) {
	server := assertionServer(t, map[string]string{"s1": `{"authenticated": false}`})
	defer server.Close()

	p := newTestProvider(t, server.URL, &fakeReconciler{})

	v := p.Login(context.Background(), reqWithCookie("s1"), "", "")
	assert.Equal(t, StatusDenied, v.Status)
	assert.Equal(t, ReasonUnauthenticated, v.Reason)
	assert.Equal(t, "https://auth.example.com/login", v.RedirectURL)
}

func TestLogin_NoCookieCarriesRedirect(t *testing.T) {
	p := newTestProvider(t, "http://unused.invalid", &fakeReconciler{})

	v := p.Login(context.Background(), NewRequestContext(nil), "", "")
	assert.Equal(t, StatusDenied, v.Status)
	assert.Equal(t, "https://auth.example.com/login", v.RedirectURL)
}

func TestLogin_FetchFailureHasNoRedirect(t *testing.T) {
	server := assertionServer(t, nil)
	server.Close()

	p := newTestProvider(t, server.URL, &fakeReconciler{})

	v := p.Login(context.Background(), reqWithCookie("s1"), "", "")
	assert.Equal(t, ReasonFetchFailed, v.Reason)
	assert.Empty(t, v.RedirectURL, "transient failures should not bounce the user to the login page")
}

func TestValidateSession(t *testing.T) {
	server := assertionServer(t, map[string]string{
		"alice-session": `{"authenticated": true, "username": "Alice", "email": "a@x.com"}`,
		"anon-session":  `{"authenticated": false}`,
	})
	defer server.Close()

	p := newTestProvider(t, server.URL, &fakeReconciler{})
	alice := &accounts.User{ID: 7, Username: "Alice", UsernameClean: "alice"}

	t.Run("matching username", func(t *testing.T) {
		assert.True(t, p.ValidateSession(context.Background(), reqWithCookie("alice-session"), alice))
	})

	t.Run("username mismatch", func(t *testing.T) {
		bob := &accounts.User{ID: 8, Username: "bob", UsernameClean: "bob"}
		assert.False(t, p.ValidateSession(context.Background(), reqWithCookie("alice-session"), bob))
	})

	t.Run("missing cookie", func(t *testing.T) {
		assert.False(t, p.ValidateSession(context.Background(), NewRequestContext(nil), alice))
	})

	t.Run("unauthenticated assertion", func(t *testing.T) {
		assert.False(t, p.ValidateSession(context.Background(), reqWithCookie("anon-session"), alice))
	})

	t.Run("nil account", func(t *testing.T) {
		assert.False(t, p.ValidateSession(context.Background(), reqWithCookie("alice-session"), nil))
	})
}

func TestValidateSession_FetchFailure(t *testing.T) {
	server := assertionServer(t, nil)
	server.Close()

	p := newTestProvider(t, server.URL, &fakeReconciler{})
	alice := &accounts.User{ID: 7, UsernameClean: "alice"}
	assert.False(t, p.ValidateSession(context.Background(), reqWithCookie("s"), alice))
}

func TestLogout_PingsLogoutURL(t *testing.T) {
	var pinged int
	var gotCookie string
	logout := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pinged++
		if c, err := r.Cookie("appsession"); err == nil {
			gotCookie = c.Value
		}
	}))
	defer logout.Close()

	cfg := validConfig()
	cfg.AssertionURL = "http://unused.invalid"
	cfg.LogoutURL = logout.URL
	p, err := NewJSONProvider(cfg, &fakeReconciler{}, observability.NewNopLogger(), nil)
	require.NoError(t, err)

	require.NoError(t, p.Logout(context.Background(), reqWithCookie("s1")))
	assert.Equal(t, 1, pinged)
	assert.Equal(t, "s1", gotCookie)
}

func TestLogout_NoCookieIsNoOp(t *testing.T) {
	p := newTestProvider(t, "http://unused.invalid", &fakeReconciler{})
	assert.NoError(t, p.Logout(context.Background(), NewRequestContext(nil)))
}

func TestUpdateConfig(t *testing.T) {
	first := assertionServer(t, map[string]string{"s1": `{"authenticated": false}`})
	defer first.Close()
	second := assertionServer(t, map[string]string{
		"s1": `{"authenticated": true, "username": "alice", "email": "a@x.com"}`,
	})
	defer second.Close()

	alice := &accounts.User{ID: 7, UsernameClean: "alice"}
	p := newTestProvider(t, first.URL, &fakeReconciler{users: map[string]*accounts.User{"alice": alice}})

	v := p.TryAutoLogin(context.Background(), reqWithCookie("s1"))
	assert.Equal(t, StatusDenied, v.Status)

	cfg := validConfig()
	cfg.AssertionURL = second.URL
	require.NoError(t, p.UpdateConfig(cfg))

	v = p.TryAutoLogin(context.Background(), reqWithCookie("s1"))
	assert.True(t, v.Granted())
}

func TestUpdateConfig_RejectsIncomplete(t *testing.T) {
	p := newTestProvider(t, "http://unused.invalid", &fakeReconciler{})

	bad := validConfig()
	bad.SharedCookieName = ""
	assert.ErrorIs(t, p.UpdateConfig(bad), ErrConfigurationMissing)
}

func TestRequestContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "appsession", Value: "v1"})
	req.AddCookie(&http.Cookie{Name: "other", Value: "v2"})

	rc := RequestContextFromHTTP(req)

	v, ok := rc.Cookie("appsession")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	_, ok = rc.Cookie("missing")
	assert.False(t, ok)
}
