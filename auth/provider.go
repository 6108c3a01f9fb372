package auth

import (
	"net/url"
	"os"
	"strings"

	"github.com/xy-planning-network/basecamp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// Discord does not ship with x/oauth2.
var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

// A ProviderConfig pairs a provider identifier with its OAuth client configuration.
type ProviderConfig struct {
	Name   basecamp.Provider
	Config *oauth2.Config
}

// NewProviders constructs one ProviderConfig for each provider the
// CapabilitySet switches on, in the set's stable order.
//
// A provider only appears when both of its secrets are present;
// the resolver guarantees that, so no partial configuration reaches here.
// An empty list is a valid result.
func NewProviders(caps basecamp.CapabilitySet, lookup func(string) string, base *url.URL) []ProviderConfig {
	if lookup == nil {
		lookup = os.Getenv
	}

	var ps []ProviderConfig
	for _, name := range caps.EnabledProviders() {
		var cfg *oauth2.Config
		switch name {
		case basecamp.ProviderGitHub:
			cfg = &oauth2.Config{
				ClientID:     strings.TrimSpace(lookup(basecamp.GithubClientIDEnvVar)),
				ClientSecret: strings.TrimSpace(lookup(basecamp.GithubClientSecretEnvVar)),
				Endpoint:     github.Endpoint,
				Scopes:       []string{"read:user", "user:email"},
			}

		case basecamp.ProviderGoogle:
			cfg = &oauth2.Config{
				ClientID:     strings.TrimSpace(lookup(basecamp.GoogleClientIDEnvVar)),
				ClientSecret: strings.TrimSpace(lookup(basecamp.GoogleClientSecretEnvVar)),
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "profile", "email"},
			}

		case basecamp.ProviderDiscord:
			cfg = &oauth2.Config{
				ClientID:     strings.TrimSpace(lookup(basecamp.DiscordClientIDEnvVar)),
				ClientSecret: strings.TrimSpace(lookup(basecamp.DiscordClientSecretEnvVar)),
				Endpoint:     discordEndpoint,
				Scopes:       []string{"identify", "email"},
			}
		}

		if base != nil {
			cb := *base
			cb.Path = "/auth/" + string(name) + "/callback"
			cfg.RedirectURL = cb.String()
		}

		ps = append(ps, ProviderConfig{Name: name, Config: cfg})
	}

	return ps
}
