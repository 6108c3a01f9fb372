package basecamp

import (
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Environment variables making up the entire configuration surface of a basecamp app.
// A subsystem switches on when its variables are set; it is never an error to leave one unset.
const (
	AuthSecretEnvVar  = "AUTH_SECRET"
	CronSecretEnvVar  = "CRON_SECRET"
	DatabaseURLEnvVar = "DATABASE_URL"
	RedisURLEnvVar    = "REDIS_URL"

	GithubClientIDEnvVar      = "GITHUB_CLIENT_ID"
	GithubClientSecretEnvVar  = "GITHUB_CLIENT_SECRET"
	GoogleClientIDEnvVar      = "GOOGLE_CLIENT_ID"
	GoogleClientSecretEnvVar  = "GOOGLE_CLIENT_SECRET"
	DiscordClientIDEnvVar     = "DISCORD_CLIENT_ID"
	DiscordClientSecretEnvVar = "DISCORD_CLIENT_SECRET"

	SessionAuthKeyEnvVar    = "SESSION_AUTH_KEY"
	SessionEncryptKeyEnvVar = "SESSION_ENCRYPTION_KEY"
)

const (
	minAuthSecretLen = 32
	minCronSecretLen = 16
)

// A SessionStrategy is how the authentication subsystem persists sessions.
// Exactly one strategy is active at any time.
type SessionStrategy string

const (
	SessionDatabase SessionStrategy = "DATABASE"
	SessionJWT      SessionStrategy = "JWT"
)

// A Provider identifies a supported OAuth identity provider.
type Provider string

const (
	ProviderGitHub  Provider = "github"
	ProviderGoogle  Provider = "google"
	ProviderDiscord Provider = "discord"
)

// A CapabilitySet is an immutable snapshot of which optional subsystems
// the environment switches on.
//
// Resolve it once and hand the same value to every consumer;
// no component should re-derive a capability by re-reading raw environment state.
type CapabilitySet struct {
	Auth     bool
	Database bool
	Cache    bool
	GitHub   bool
	Google   bool
	Discord  bool
}

// ResolveCapabilities derives a CapabilitySet from the environment reached
// through lookup, os.Getenv being the usual choice.
//
// A capability is true iff every one of its environment variables is
// non-empty after trimming whitespace. A provider capability requires both
// its client ID and client secret; one without the other reads as off.
//
// ResolveCapabilities never fails. Malformed values count as present here
// and are caught by ValidateEnv instead.
func ResolveCapabilities(lookup func(string) string) CapabilitySet {
	if lookup == nil {
		lookup = os.Getenv
	}

	set := func(keys ...string) bool {
		for _, k := range keys {
			if strings.TrimSpace(lookup(k)) == "" {
				return false
			}
		}

		return true
	}

	return CapabilitySet{
		Auth:     set(AuthSecretEnvVar),
		Database: set(DatabaseURLEnvVar),
		Cache:    set(RedisURLEnvVar),
		GitHub:   set(GithubClientIDEnvVar, GithubClientSecretEnvVar),
		Google:   set(GoogleClientIDEnvVar, GoogleClientSecretEnvVar),
		Discord:  set(DiscordClientIDEnvVar, DiscordClientSecretEnvVar),
	}
}

// SessionStrategy selects how sessions persist: database-backed records
// when a database is available, stateless JWTs otherwise.
//
// This is the only place that decision lives; wiring consults it rather
// than re-deriving it.
func (c CapabilitySet) SessionStrategy() SessionStrategy {
	if c.Database {
		return SessionDatabase
	}

	return SessionJWT
}

// EnabledProviders lists the switched-on providers in a stable order:
// github, google, discord. An empty list is a valid result.
func (c CapabilitySet) EnabledProviders() []Provider {
	var ps []Provider
	if c.GitHub {
		ps = append(ps, ProviderGitHub)
	}

	if c.Google {
		ps = append(ps, ProviderGoogle)
	}

	if c.Discord {
		ps = append(ps, ProviderDiscord)
	}

	return ps
}

// A ValidationError collects field-level problems with configured
// environment variables. It aborts startup; it never degrades at runtime.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	probs := make([]string, 0, len(keys))
	for _, k := range keys {
		probs = append(probs, k+": "+e.Fields[k])
	}

	return fmt.Sprintf("%s: %s", ErrBadConfig, strings.Join(probs, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrBadConfig }

// ValidateEnv checks the format of environment variables that are set.
//
// Presence switches a capability on; ValidateEnv separately rejects values
// that are present but unusable, such as an undersized secret. Callers
// must treat a non-nil return as fatal and not serve traffic.
func ValidateEnv(lookup func(string) string) error {
	if lookup == nil {
		lookup = os.Getenv
	}

	fields := make(map[string]string)

	if v := strings.TrimSpace(lookup(AuthSecretEnvVar)); v != "" && len(v) < minAuthSecretLen {
		fields[AuthSecretEnvVar] = fmt.Sprintf("must be at least %d characters", minAuthSecretLen)
	}

	if v := strings.TrimSpace(lookup(CronSecretEnvVar)); v != "" && len(v) < minCronSecretLen {
		fields[CronSecretEnvVar] = fmt.Sprintf("must be at least %d characters", minCronSecretLen)
	}

	for _, key := range []string{SessionAuthKeyEnvVar, SessionEncryptKeyEnvVar} {
		if v := strings.TrimSpace(lookup(key)); v != "" {
			if _, err := hex.DecodeString(v); err != nil {
				fields[key] = "must be hex encoded"
			}
		}
	}

	if len(fields) == 0 {
		return nil
	}

	return &ValidationError{Fields: fields}
}
