package camp

import (
	"context"
	"net/http"

	"github.com/xy-planning-network/basecamp"
	bauth "github.com/xy-planning-network/basecamp/auth"
	"github.com/xy-planning-network/basecamp/cache"
	"github.com/xy-planning-network/basecamp/http/session"
	"github.com/xy-planning-network/basecamp/logger"
	"gorm.io/gorm"
)

// A CampOption configures a *Camp either (1) directly, immediately upon
// being called or (2) in the OptFollowup it returns.
// Some CampOptions require data in others and thus an OptFollowup can be
// returned in order to be called at a later time when that data is available.
type CampOption func(c *Camp) (OptFollowup, error)
type OptFollowup func() error

// WithAuth exposes the provided *auth.Service to the basecamp app,
// overriding the capability-gated default.
func WithAuth(svc *bauth.Service) CampOption {
	return func(c *Camp) (OptFollowup, error) {
		c.auth = svc
		return nil, nil
	}
}

// WithCache exposes the provided cache.Cacher to the basecamp app.
func WithCache(store cache.Cacher) CampOption {
	return func(c *Camp) (OptFollowup, error) {
		c.cache = store
		c.redis = nil
		return nil, nil
	}
}

// WithContext exposes the provided context.Context to the basecamp app.
func WithContext(ctx context.Context) CampOption {
	return func(c *Camp) (OptFollowup, error) {
		c.ctx = ctx
		return nil, nil
	}
}

// WithDB exposes the provided *gorm.DB to the basecamp app.
//
// WithDB assumes a connection has already been established.
func WithDB(db *gorm.DB) CampOption {
	return func(c *Camp) (OptFollowup, error) {
		c.db = db
		return nil, nil
	}
}

// WithEnv casts the provided string into a valid Environment,
// or, reads from the named environment variable a valid Environment.
//
// If both fail, the default Environment is set to Development.
func WithEnv(envVar string) CampOption {
	e := basecamp.Environment(envVar)
	if err := e.Valid(); err == nil {
		return func(c *Camp) (OptFollowup, error) {
			c.env = e
			return nil, nil
		}
	}

	return func(c *Camp) (OptFollowup, error) {
		c.env = basecamp.EnvVarOrEnv(envVar, basecamp.Development)
		return nil, nil
	}
}

// WithLogger exposes the provided logger.Logger to the basecamp app.
func WithLogger(l logger.Logger) CampOption {
	return func(c *Camp) (OptFollowup, error) {
		c.l = l
		return nil, nil
	}
}

// WithServer exposes the *http.Server to the basecamp app.
func WithServer(s *http.Server) CampOption {
	return func(c *Camp) (OptFollowup, error) {
		old := c.srv
		c.srv = s

		if old != nil {
			c.srv.Handler = old.Handler
		}

		return nil, nil
	}
}

// WithSessionStore exposes the session.SessionStorer to the basecamp app.
func WithSessionStore(store session.SessionStorer) CampOption {
	return func(c *Camp) (OptFollowup, error) {
		c.sessions = store
		return nil, nil
	}
}

// WithTask registers the named Task on the scheduled-task endpoint.
func WithTask(name string, t Task) CampOption {
	return func(c *Camp) (OptFollowup, error) {
		c.tasks[name] = t
		return nil, nil
	}
}
