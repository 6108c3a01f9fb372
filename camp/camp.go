package camp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/xy-planning-network/basecamp"
	bauth "github.com/xy-planning-network/basecamp/auth"
	"github.com/xy-planning-network/basecamp/cache"
	"github.com/xy-planning-network/basecamp/health"
	"github.com/xy-planning-network/basecamp/http/router"
	"github.com/xy-planning-network/basecamp/http/session"
	"github.com/xy-planning-network/basecamp/logger"
	"github.com/xy-planning-network/basecamp/postgres"
	"gorm.io/gorm"
)

// A Camp manages and exposes all components of a basecamp app to one another.
type Camp struct {
	*router.Router

	auth     *bauth.Service
	cache    cache.Cacher
	caps     basecamp.CapabilitySet
	ctx      context.Context
	db       *gorm.DB
	env      basecamp.Environment
	health   *health.Aggregator
	l        logger.Logger
	redis    *cache.RedisStore
	sessions session.SessionStorer
	srv      *http.Server
	tasks    map[string]Task
	url      *url.URL
}

// New constructs a Camp from the provided options.
// Default options are applied first followed by the options passed into New.
// Options supplied to New overwrite default configurations.
//
// New resolves the capability snapshot once and fails fast on the fatal
// validation tier; everything after that degrades instead of failing.
func New(opts ...CampOption) (*Camp, error) {
	if err := basecamp.ValidateEnv(nil); err != nil {
		return nil, err
	}

	c := &Camp{
		caps:  basecamp.ResolveCapabilities(nil),
		tasks: make(map[string]Task),
	}

	followups := make([]OptFollowup, 0)

	// NOTE: calling an option configures the *Camp under construction.
	// Some options require data from other options and so return an
	// OptFollowup to be called after the initial set of options are run.
	for _, opt := range append(defaultOpts(), opts...) {
		fn, err := opt(c)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", basecamp.ErrBadConfig, err)
		}

		if fn != nil {
			followups = append(followups, fn)
		}
	}

	for _, fn := range followups {
		if err := fn(); err != nil {
			return nil, fmt.Errorf("%w: %s", basecamp.ErrBadConfig, err)
		}
	}

	return c, nil
}

func (c *Camp) EmitAuth() *bauth.Service                 { return c.auth }
func (c *Camp) EmitCache() cache.Cacher                  { return c.cache }
func (c *Camp) EmitCapabilities() basecamp.CapabilitySet { return c.caps }
func (c *Camp) EmitDB() *gorm.DB                         { return c.db }
func (c *Camp) EmitHealth() *health.Aggregator           { return c.health }
func (c *Camp) EmitLogger() logger.Logger                { return c.l }
func (c *Camp) EmitSessionStore() session.SessionStorer  { return c.sessions }

// Guide begins the web server.
//
// These, and (*Camp).Shutdown, stop Guide:
//
// - os.Interrupt
// - syscall.SIGHUP
// - syscall.SIGINT
// - syscall.SIGQUIT
// - syscall.SIGTERM
func (c *Camp) Guide() error {
	var cancel context.CancelFunc
	c.ctx, cancel = context.WithCancel(context.Background())

	ch := make(chan os.Signal, 1)
	signal.Notify(
		ch,
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)

	go func() {
		s := <-ch
		c.l.Info(fmt.Sprint("received shutdown signal: ", s), nil)
		cancel()
	}()

	go func() {
		c.l.Info(fmt.Sprintf("running web server at %s", c.srv.Addr), nil)

		// Forwarded headers are trusted by default since deployments sit
		// behind a load balancer; switch off when serving directly.
		c.srv.Handler = http.Handler(c.Router)
		if basecamp.EnvVarOrBool(proxyHeadersEnvVar, true) {
			c.srv.Handler = handlers.ProxyHeaders(c.Router)
		}
		if err := c.srv.ListenAndServe(); err != http.ErrServerClosed {
			err = fmt.Errorf("could not listen: %w", err)
			c.l.Error(err.Error(), nil)
		}
	}()

	<-c.ctx.Done()
	return c.Shutdown()
}

// Shutdown stops the web server and tears down process-scoped resources.
func (c *Camp) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.l.Info("shutting down web server", nil)
	err := c.srv.Shutdown(shutdownCtx)
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("could not shutdown: %w", err)
	}

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.l.Warn("could not close cache", &logger.LogContext{Error: err})
		}
	}

	if c.db != nil {
		if err := postgres.Close(c.db); err != nil {
			c.l.Warn("could not close database", &logger.LogContext{Error: err})
		}
	}

	c.l.Info("web server shutdown successfully", nil)
	return nil
}
