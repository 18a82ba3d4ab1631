package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/larry-brewer/jsonauth/pkg/accounts"
	"github.com/larry-brewer/jsonauth/pkg/httputil"
	"github.com/larry-brewer/jsonauth/pkg/provider"
	"github.com/larry-brewer/jsonauth/pkg/sessions"
)

// verdictResponse is a verdict plus the session token minted on grants.
type verdictResponse struct {
	provider.Verdict
	SessionToken string `json:"session_token,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionRequest struct {
	Token string `json:"token"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

// autoLogin runs the silent-login path from the forwarded cookies.
func (s *Server) autoLogin(w http.ResponseWriter, r *http.Request) {
	req := provider.RequestContextFromHTTP(r)
	verdict := s.provider.TryAutoLogin(r.Context(), req)
	s.respondVerdict(w, r, verdict)
}

// login runs an explicit login attempt. The body is optional; local
// credentials do not influence the verdict for this provider.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if r.Body != nil && r.ContentLength != 0 {
		if !httputil.ParseJSONOrError(w, r, &body) {
			return
		}
	}

	req := provider.RequestContextFromHTTP(r)
	verdict := s.provider.Login(r.Context(), req, body.Username, body.Password)
	s.respondVerdict(w, r, verdict)
}

// respondVerdict registers granted sessions and writes the verdict.
func (s *Server) respondVerdict(w http.ResponseWriter, r *http.Request, verdict provider.Verdict) {
	resp := verdictResponse{Verdict: verdict}

	if verdict.Granted() && s.registry != nil {
		token, err := s.registerSession(r, verdict.User)
		if err != nil {
			s.logger.WithError(err).Error("Failed to register granted session")
			httputil.WriteInternalError(w, errors.New("failed to register session"))
			return
		}
		resp.SessionToken = token
	}

	httputil.WriteSuccess(w, resp)
}

func (s *Server) registerSession(r *http.Request, user *accounts.User) (string, error) {
	cookieValue := ""
	if c, err := r.Cookie(s.provider.SharedCookieName()); err == nil {
		cookieValue = c.Value
	}

	now := time.Now()
	entry := sessions.Entry{
		Token:           uuid.NewString(),
		UserID:          user.ID,
		Username:        user.Username,
		CookieValue:     cookieValue,
		GrantedAt:       now,
		LastValidatedAt: now,
	}
	if err := s.registry.Put(r.Context(), entry); err != nil {
		return "", err
	}
	return entry.Token, nil
}

// validate re-checks a granted session against the provider. Stale
// sessions are dropped from the registry.
func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	var body sessionRequest
	if !httputil.ParseJSONOrError(w, r, &body) {
		return
	}
	if body.Token == "" {
		httputil.WriteBadRequest(w, "token is required")
		return
	}

	entry, err := s.registry.Get(r.Context(), body.Token)
	if errors.Is(err, sessions.ErrSessionNotFound) {
		httputil.WriteSuccess(w, validateResponse{Valid: false})
		return
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	current := &accounts.User{
		ID:            entry.UserID,
		Username:      entry.Username,
		UsernameClean: accounts.NormalizeUsername(entry.Username),
	}
	req := provider.RequestContextFromHTTP(r)

	if !s.provider.ValidateSession(r.Context(), req, current) {
		if err := s.registry.Delete(r.Context(), body.Token); err != nil {
			s.logger.WithError(err).Warn("Failed to drop invalidated session")
		}
		httputil.WriteSuccess(w, validateResponse{Valid: false})
		return
	}

	if err := s.registry.Touch(r.Context(), body.Token, time.Now()); err != nil {
		s.logger.WithError(err).Warn("Failed to refresh validated session")
	}
	httputil.WriteSuccess(w, validateResponse{Valid: true})
}

// logout drops the session and pings the provider's logout URL.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var body sessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if !httputil.ParseJSONOrError(w, r, &body) {
			return
		}
	}

	if body.Token != "" {
		if err := s.registry.Delete(r.Context(), body.Token); err != nil {
			s.logger.WithError(err).Warn("Failed to delete session on logout")
		}
	}

	req := provider.RequestContextFromHTTP(r)
	if err := s.provider.Logout(r.Context(), req); err != nil {
		// Provider logout is best effort; the local session is gone.
		s.logger.WithError(err).Warn("Provider logout ping failed")
	}

	httputil.WriteNoContent(w)
}

// configSchema reports the operator settings the provider needs, for
// admin panels to render.
func (s *Server) configSchema(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteSuccess(w, map[string]interface{}{
		"fields": s.provider.ConfigFields(),
	})
}
