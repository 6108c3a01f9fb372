package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/xy-planning-network/basecamp"
	"github.com/xy-planning-network/basecamp/logger"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	sessionCookie = "basecamp_session"
	stateCookie   = "basecamp_oauth_state"
	stateMaxAge   = 600 // seconds
)

// An IdentifyFunc resolves an exchanged OAuth token into a stable user identifier.
type IdentifyFunc func(ctx context.Context, p ProviderConfig, token *oauth2.Token) (string, error)

// A Config provides the required values for constructing a Service.
type Config struct {
	// Secret signs stateless session tokens. Its length is validated at
	// startup by basecamp.ValidateEnv; an empty Secret means the auth
	// capability is off and the Service must not be constructed.
	Secret string

	// Strategy comes from the capability snapshot's SessionStrategy.
	Strategy basecamp.SessionStrategy

	// Providers is the ordered list from NewProviders, handed over unmodified.
	Providers []ProviderConfig

	// DB backs session records; required for the DATABASE strategy only.
	DB *gorm.DB

	Env        basecamp.Environment
	SessionTTL time.Duration
	Identify   IdentifyFunc
	Logger     logger.Logger
}

// A Service owns login, logout, and session resolution for a basecamp app.
type Service struct {
	env       basecamp.Environment
	providers []ProviderConfig
	sessions  SessionStore
	strategy  basecamp.SessionStrategy
	ttl       time.Duration
	identify  IdentifyFunc
	l         logger.Logger
}

// NewService constructs a Service from cfg.
//
// Call it only when the auth capability is on. Constructing the subsystem
// with no secret is an error to surface, not a degraded mode to paper over.
func NewService(cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("%w: Secret cannot be empty", basecamp.ErrBadConfig)
	}

	s := &Service{
		env:       cfg.Env,
		providers: cfg.Providers,
		strategy:  cfg.Strategy,
		ttl:       cfg.SessionTTL,
		identify:  cfg.Identify,
		l:         cfg.Logger,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}

	if s.identify == nil {
		s.identify = DefaultIdentity
	}

	if s.l == nil {
		s.l = logger.New()
	}

	var err error
	switch cfg.Strategy {
	case basecamp.SessionDatabase:
		if cfg.DB == nil {
			return nil, fmt.Errorf("%w: DATABASE session strategy requires a database", basecamp.ErrBadConfig)
		}

		s.sessions, err = newDBSessions(cfg.DB)
		if err != nil {
			return nil, err
		}

	case basecamp.SessionJWT:
		s.sessions = newJWTSessions([]byte(cfg.Secret))

	default:
		return nil, fmt.Errorf("%w: unknown session strategy %q", basecamp.ErrBadConfig, cfg.Strategy)
	}

	return s, nil
}

// Providers returns the ordered provider configurations the Service registered.
func (s *Service) Providers() []ProviderConfig {
	ps := make([]ProviderConfig, len(s.providers))
	copy(ps, s.providers)
	return ps
}

// Strategy returns the session persistence strategy the Service was wired with.
func (s *Service) Strategy() basecamp.SessionStrategy { return s.strategy }

// Authenticate resolves the session cookie on r to a user identifier.
func (s *Service) Authenticate(r *http.Request) (string, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return "", ErrNoSession
	}

	return s.sessions.Lookup(r.Context(), c.Value)
}

// PurgeExpiredSessions deletes expired session records,
// returning how many went. Stateless strategies have nothing to purge.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	if db, ok := s.sessions.(*dbSessions); ok {
		return db.purgeExpired(ctx)
	}

	return 0, nil
}

// BeginLogin redirects to the named provider's consent page.
// Requests for a provider that is not registered 404.
func (s *Service) BeginLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.provider(mux.Vars(r)["provider"])
		if !ok {
			http.NotFound(w, r)
			return
		}

		state := uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     stateCookie,
			Value:    state,
			Path:     "/",
			MaxAge:   stateMaxAge,
			HttpOnly: true,
			Secure:   s.secureCookies(),
			SameSite: http.SameSiteLaxMode,
		})

		http.Redirect(w, r, p.Config.AuthCodeURL(state), http.StatusFound)
	}
}

// Callback finishes a login: it checks state, exchanges the code through
// the provider's OAuth client, resolves an identity, and opens a session.
func (s *Service) Callback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.provider(mux.Vars(r)["provider"])
		if !ok {
			http.NotFound(w, r)
			return
		}

		c, err := r.Cookie(stateCookie)
		if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
			s.l.Warn("oauth state mismatch", &logger.LogContext{Request: r})
			http.Error(w, "state mismatch", http.StatusForbidden)
			return
		}
		s.clearCookie(w, stateCookie)

		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		token, err := p.Config.Exchange(r.Context(), code)
		if err != nil {
			s.l.Error("oauth exchange failed", &logger.LogContext{Error: err, Data: map[string]any{"provider": p.Name}})
			http.Error(w, "login failed", http.StatusBadGateway)
			return
		}

		userID, err := s.identify(r.Context(), p, token)
		if err != nil {
			s.l.Error("identity fetch failed", &logger.LogContext{Error: err, Data: map[string]any{"provider": p.Name}})
			http.Error(w, "login failed", http.StatusBadGateway)
			return
		}

		sessionToken, err := s.sessions.Create(r.Context(), userID, s.ttl)
		if err != nil {
			s.l.Error("session create failed", &logger.LogContext{Error: err})
			http.Error(w, "login failed", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sessionToken,
			Path:     "/",
			MaxAge:   int(s.ttl.Seconds()),
			HttpOnly: true,
			Secure:   s.secureCookies(),
			SameSite: http.SameSiteLaxMode,
		})

		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// Logout closes the current session, if any, and clears its cookie.
func (s *Service) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
			if err := s.sessions.Destroy(r.Context(), c.Value); err != nil {
				s.l.Warn("session destroy failed", &logger.LogContext{Error: err})
			}
		}

		s.clearCookie(w, sessionCookie)
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

func (s *Service) provider(name string) (ProviderConfig, bool) {
	for _, p := range s.providers {
		if string(p.Name) == name {
			return p, true
		}
	}

	return ProviderConfig{}, false
}

func (s *Service) secureCookies() bool {
	return !(s.env.IsDevelopment() || s.env.IsTesting())
}

func (s *Service) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}

// NotConfiguredHandler answers auth routes in deployments where the auth
// capability is off. The subsystem itself is never constructed there.
func NotConfiguredHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		err := fmt.Errorf("%w: authentication", basecamp.ErrNotConfigured)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
	}
}
