package auth_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/basecamp"
	"github.com/xy-planning-network/basecamp/auth"
	"github.com/xy-planning-network/basecamp/logger"
	"golang.org/x/oauth2"
)

func quietLogger() logger.Logger {
	return logger.New(logger.WithLogger(log.New(io.Discard, "", 0)))
}

func testSecret() string { return strings.Repeat("s", 32) }

func TestNewService(t *testing.T) {
	t.Run("Empty-Secret", func(t *testing.T) {
		_, err := auth.NewService(auth.Config{Secret: "  ", Strategy: basecamp.SessionJWT})
		require.ErrorIs(t, err, basecamp.ErrBadConfig)
	})

	t.Run("Database-Strategy-Without-Database", func(t *testing.T) {
		_, err := auth.NewService(auth.Config{
			Secret:   testSecret(),
			Strategy: basecamp.SessionDatabase,
		})
		require.ErrorIs(t, err, basecamp.ErrBadConfig)
	})

	t.Run("Unknown-Strategy", func(t *testing.T) {
		_, err := auth.NewService(auth.Config{Secret: testSecret(), Strategy: "COOKIE"})
		require.ErrorIs(t, err, basecamp.ErrBadConfig)
	})

	t.Run("JWT-Strategy", func(t *testing.T) {
		// Act
		svc, err := auth.NewService(auth.Config{
			Secret:   testSecret(),
			Strategy: basecamp.SessionJWT,
			Env:      basecamp.Testing,
			Logger:   quietLogger(),
		})

		// Assert
		require.NoError(t, err)
		require.Equal(t, basecamp.SessionJWT, svc.Strategy())
		require.Empty(t, svc.Providers())
	})
}

// loginRouter registers svc's handlers the way an app would,
// so path variables resolve.
func loginRouter(svc *auth.Service) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/auth/{provider}/login", svc.BeginLogin()).Methods(http.MethodGet)
	r.HandleFunc("/auth/{provider}/callback", svc.Callback()).Methods(http.MethodGet)
	r.HandleFunc("/logout", svc.Logout()).Methods(http.MethodPost)
	return r
}

func testService(t *testing.T, providers []auth.ProviderConfig, identify auth.IdentifyFunc) *auth.Service {
	t.Helper()

	svc, err := auth.NewService(auth.Config{
		Secret:    testSecret(),
		Strategy:  basecamp.SessionJWT,
		Providers: providers,
		Env:       basecamp.Testing,
		Identify:  identify,
		Logger:    quietLogger(),
	})
	require.NoError(t, err)

	return svc
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}

	return nil
}

func TestBeginLogin(t *testing.T) {
	// Arrange
	provider := auth.ProviderConfig{
		Name: basecamp.ProviderGitHub,
		Config: &oauth2.Config{
			ClientID: "id",
			Endpoint: oauth2.Endpoint{AuthURL: "https://example.com/authorize"},
		},
	}
	r := loginRouter(testService(t, []auth.ProviderConfig{provider}, nil))

	t.Run("Redirects-To-Consent", func(t *testing.T) {
		// Act
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/github/login", nil))

		// Assert
		require.Equal(t, http.StatusFound, w.Code)
		require.True(t, strings.HasPrefix(w.Header().Get("Location"), "https://example.com/authorize"))

		state := cookieNamed(w.Result().Cookies(), "basecamp_oauth_state")
		require.NotNil(t, state)
		require.NotEmpty(t, state.Value)
		require.Contains(t, w.Header().Get("Location"), "state="+state.Value)
	})

	t.Run("Unknown-Provider", func(t *testing.T) {
		// Act
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))

		// Assert
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCallback(t *testing.T) {
	// Arrange: a stand-in token endpoint so the exchange stays local.
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "exchanged-token",
			"token_type":   "bearer",
		})
	}))
	defer tokenSrv.Close()

	provider := auth.ProviderConfig{
		Name: basecamp.ProviderGitHub,
		Config: &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{TokenURL: tokenSrv.URL},
		},
	}

	identify := func(ctx context.Context, p auth.ProviderConfig, token *oauth2.Token) (string, error) {
		return fmt.Sprintf("%s:42", p.Name), nil
	}

	svc := testService(t, []auth.ProviderConfig{provider}, identify)
	r := loginRouter(svc)

	t.Run("Opens-A-Session", func(t *testing.T) {
		// Arrange
		req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?state=abc&code=xyz", nil)
		req.AddCookie(&http.Cookie{Name: "basecamp_oauth_state", Value: "abc"})

		// Act
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		// Assert
		require.Equal(t, http.StatusFound, w.Code)
		session := cookieNamed(w.Result().Cookies(), "basecamp_session")
		require.NotNil(t, session)
		require.NotEmpty(t, session.Value)

		authed := httptest.NewRequest(http.MethodGet, "/", nil)
		authed.AddCookie(session)
		userID, err := svc.Authenticate(authed)
		require.NoError(t, err)
		require.Equal(t, "github:42", userID)
	})

	t.Run("State-Mismatch", func(t *testing.T) {
		// Arrange
		req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?state=evil&code=xyz", nil)
		req.AddCookie(&http.Cookie{Name: "basecamp_oauth_state", Value: "abc"})

		// Act
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		// Assert
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Missing-Code", func(t *testing.T) {
		// Arrange
		req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?state=abc", nil)
		req.AddCookie(&http.Cookie{Name: "basecamp_oauth_state", Value: "abc"})

		// Act
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		// Assert
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogout(t *testing.T) {
	// Arrange
	svc := testService(t, nil, nil)
	r := loginRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "basecamp_session", Value: "whatever"})

	// Act
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// Assert
	require.Equal(t, http.StatusFound, w.Code)
	cleared := cookieNamed(w.Result().Cookies(), "basecamp_session")
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)
	require.Less(t, cleared.MaxAge, 0)
}

func TestAuthenticate(t *testing.T) {
	// Arrange
	svc := testService(t, nil, nil)

	t.Run("No-Cookie", func(t *testing.T) {
		_, err := svc.Authenticate(httptest.NewRequest(http.MethodGet, "/", nil))
		require.ErrorIs(t, err, auth.ErrNoSession)
	})

	t.Run("Bad-Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "basecamp_session", Value: "garbage"})
		_, err := svc.Authenticate(req)
		require.ErrorIs(t, err, auth.ErrNoSession)
	})
}

func TestPurgeExpiredSessions(t *testing.T) {
	// Arrange: stateless strategies have nothing to purge.
	svc := testService(t, nil, nil)

	// Act
	n, err := svc.PurgeExpiredSessions(context.Background())

	// Assert
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestNotConfiguredHandler(t *testing.T) {
	// Act
	w := httptest.NewRecorder()
	auth.NotConfiguredHandler()(w, httptest.NewRequest(http.MethodGet, "/auth/github/login", nil))

	// Assert
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Contains(t, body["error"], basecamp.ErrNotConfigured.Error())
}
