package camp

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/xy-planning-network/basecamp"
	bauth "github.com/xy-planning-network/basecamp/auth"
	"github.com/xy-planning-network/basecamp/cache"
	"github.com/xy-planning-network/basecamp/health"
	"github.com/xy-planning-network/basecamp/http/middleware"
	"github.com/xy-planning-network/basecamp/http/router"
	"github.com/xy-planning-network/basecamp/http/session"
	"github.com/xy-planning-network/basecamp/logger"
	"github.com/xy-planning-network/basecamp/postgres"
)

const (
	baseURLEnvVar     = "BASE_URL"
	environmentEnvVar = "ENVIRONMENT"
	hostEnvVar        = "HOST"
	logLevelEnvVar    = "LOG_LEVEL"
	portEnvVar        = "PORT"

	idleTimeoutEnvVar  = "SERVER_IDLE_TIMEOUT"
	proxyHeadersEnvVar = "SERVER_PROXY_HEADERS"
	readTimeoutEnvVar  = "SERVER_READ_TIMEOUT"
	writeTimeoutEnvVar = "SERVER_WRITE_TIMEOUT"

	defaultBaseURL      = "http://localhost:3000"
	defaultHost         = "localhost"
	defaultPort         = "3000"
	defaultIdleTimeout  = 120 * time.Second
	defaultReadTimeout  = 5 * time.Second
	defaultWriteTimeout = 10 * time.Second

	defaultSessionName = "basecamp"
)

// defaultOpts is the standard wiring of a basecamp app. Each component
// consults the capability snapshot resolved in New rather than the raw
// environment; the snapshot is the single source of what is on.
//
// Options passed to New run after these and overwrite them. Components
// that depend on the final shape of others (auth, health, routes) are
// wired in followups so user-supplied replacements are in place first.
func defaultOpts() []CampOption {
	return []CampOption{
		WithEnv(environmentEnvVar),
		withDefaultLogger(),
		withDefaultURL(),
		withDefaultDB(),
		withDefaultCache(),
		withDefaultSessionStore(),
		withDefaultAuth(),
		withDefaultHealth(),
		withDefaultRouter(),
	}
}

func withDefaultLogger() CampOption {
	return func(c *Camp) (OptFollowup, error) {
		c.l = logger.New(
			logger.WithEnv(c.env.String()),
			logger.WithLevel(logger.NewLogLevel(basecamp.EnvVarOrString(logLevelEnvVar, "INFO"))),
		)
		return nil, nil
	}
}

func withDefaultURL() CampOption {
	return func(c *Camp) (OptFollowup, error) {
		c.url = basecamp.EnvVarOrURL(baseURLEnvVar, defaultBaseURL)
		return nil, nil
	}
}

func withDefaultDB() CampOption {
	return func(c *Camp) (OptFollowup, error) {
		if !c.caps.Database {
			return nil, nil
		}

		db, err := postgres.Connect(postgres.NewConfig(), c.env)
		if err != nil {
			return nil, err
		}

		c.db = db
		return nil, nil
	}
}

// withDefaultCache picks the backend off the snapshot: Redis when the
// cache capability is on, the in-process store otherwise. A Redis URL
// that fails to parse falls back rather than aborting startup.
func withDefaultCache() CampOption {
	return func(c *Camp) (OptFollowup, error) {
		if !c.caps.Cache {
			c.cache = cache.NewMemoryCache()
			return nil, nil
		}

		opts, err := redis.ParseURL(os.Getenv(basecamp.RedisURLEnvVar))
		if err != nil {
			c.l.Error("invalid redis url, caching in process", &logger.LogContext{Error: err})
			c.cache = cache.NewMemoryCache()
			return nil, nil
		}

		c.redis = cache.NewRedisStore(opts, c.l)
		c.cache = c.redis
		return nil, nil
	}
}

// withDefaultSessionStore backs web sessions with Redis when the cache
// capability is on and cookies otherwise. A Redis store that cannot be
// reached at startup degrades to cookies with a warning.
func withDefaultSessionStore() CampOption {
	return func(c *Camp) (OptFollowup, error) {
		cfg := session.Config{
			Env:         c.env,
			SessionName: defaultSessionName,
			AuthKey:     os.Getenv(basecamp.SessionAuthKeyEnvVar),
			EncryptKey:  os.Getenv(basecamp.SessionEncryptKeyEnvVar),
		}

		if c.caps.Cache {
			if opts, err := redis.ParseURL(os.Getenv(basecamp.RedisURLEnvVar)); err == nil {
				store, err := session.NewStoreService(cfg, session.WithRedis(opts.Addr, opts.Password))
				if err == nil {
					c.sessions = store
					return nil, nil
				}

				c.l.Warn("redis session store unavailable, using cookies", &logger.LogContext{Error: err})
			}
		}

		store, err := session.NewStoreService(cfg)
		if err != nil {
			return nil, err
		}

		c.sessions = store
		return nil, nil
	}
}

// withDefaultAuth constructs the auth subsystem only when its capability
// is on; no capability, no construction. A construction failure leaves
// auth routes answering 503 instead of refusing to boot.
func withDefaultAuth() CampOption {
	return func(c *Camp) (OptFollowup, error) {
		return func() error {
			if !c.caps.Auth || c.auth != nil {
				return nil
			}

			svc, err := bauth.NewService(bauth.Config{
				Secret:    os.Getenv(basecamp.AuthSecretEnvVar),
				Strategy:  c.caps.SessionStrategy(),
				Providers: bauth.NewProviders(c.caps, nil, c.url),
				DB:        c.db,
				Env:       c.env,
				Logger:    c.l,
			})
			if err != nil {
				c.l.Error("auth unavailable", &logger.LogContext{Error: err})
				return nil
			}

			c.auth = svc
			return nil
		}, nil
	}
}

// withDefaultHealth registers the standard subsystems in reporting order.
// All are optional: an enabled subsystem that fails its probe degrades
// the report, it never turns it unhealthy.
func withDefaultHealth() CampOption {
	return func(c *Camp) (OptFollowup, error) {
		return func() error {
			if c.health != nil {
				return nil
			}

			a := health.NewAggregator()
			a.Register("auth", c.caps.Auth, false, nil)

			var dbProbe health.Probe
			if c.db != nil {
				dbProbe = postgres.Probe(c.db)
			}
			a.Register("database", c.caps.Database && c.db != nil, false, dbProbe)
			a.Register("cache", c.caps.Cache, false, c.cacheProbe())

			c.health = a
			return nil
		}, nil
	}
}

func (c *Camp) cacheProbe() health.Probe {
	return func(ctx context.Context) error {
		p, ok := c.cache.(interface{ Probe(context.Context) error })
		if !ok {
			return nil
		}

		return p.Probe(ctx)
	}
}

// withDefaultRouter registers the routes every basecamp app serves.
// Auth routes are always present; in deployments without the auth
// capability they answer 503 so the surface never varies.
func withDefaultRouter() CampOption {
	return func(c *Camp) (OptFollowup, error) {
		return func() error {
			if c.Router == nil {
				c.Router = router.New(c.env.String())
				c.OnEveryRequest(middleware.RequestID(), middleware.LogRequest(c.l))
			}

			c.Handle(router.Route{
				Path:    "/health",
				Method:  http.MethodGet,
				Handler: health.Handler(c.health),
			})

			c.Handle(router.Route{
				Path:    "/tasks/{name}",
				Method:  http.MethodPost,
				Handler: c.taskHandler(),
				Middlewares: []middleware.Adapter{
					middleware.RequireBearer(os.Getenv(basecamp.CronSecretEnvVar)),
					middleware.RateLimit(middleware.NewVisitors()),
				},
			})

			login := bauth.NotConfiguredHandler()
			callback := bauth.NotConfiguredHandler()
			logout := bauth.NotConfiguredHandler()
			if c.auth != nil {
				login, callback, logout = c.auth.BeginLogin(), c.auth.Callback(), c.auth.Logout()
			}

			c.Handle(router.Route{Path: "/auth/{provider}/login", Method: http.MethodGet, Handler: login})
			c.Handle(router.Route{Path: "/auth/{provider}/callback", Method: http.MethodGet, Handler: callback})
			c.Handle(router.Route{Path: "/logout", Method: http.MethodPost, Handler: logout})

			if c.auth != nil && c.caps.Database {
				if _, ok := c.tasks[sessionCleanupTask]; !ok {
					c.tasks[sessionCleanupTask] = c.sessionCleanup()
				}
			}

			if c.srv == nil {
				c.srv = defaultServer()
			}

			return nil
		}, nil
	}
}

func defaultServer() *http.Server {
	return &http.Server{
		Addr: fmt.Sprintf(
			"%s:%s",
			basecamp.EnvVarOrString(hostEnvVar, defaultHost),
			basecamp.EnvVarOrString(portEnvVar, defaultPort),
		),
		IdleTimeout:  basecamp.EnvVarOrDuration(idleTimeoutEnvVar, defaultIdleTimeout),
		ReadTimeout:  basecamp.EnvVarOrDuration(readTimeoutEnvVar, defaultReadTimeout),
		WriteTimeout: basecamp.EnvVarOrDuration(writeTimeoutEnvVar, defaultWriteTimeout),
	}
}
