package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/xy-planning-network/basecamp"
	"golang.org/x/oauth2"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const (
	githubUserURL  = "https://api.github.com/user"
	discordUserURL = "https://discord.com/api/users/@me"
)

// DefaultIdentity resolves an exchanged token to a provider-scoped user
// identifier, e.g. "github:1234". All network access goes through the
// token-bearing OAuth client.
func DefaultIdentity(ctx context.Context, p ProviderConfig, token *oauth2.Token) (string, error) {
	switch p.Name {
	case basecamp.ProviderGoogle:
		user, err := FetchGoogleUser(ctx, p.Config, token)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("google:%s", user.Id), nil

	case basecamp.ProviderGitHub:
		var user struct {
			ID int64 `json:"id"`
		}
		if err := fetchJSON(ctx, p.Config, token, githubUserURL, &user); err != nil {
			return "", err
		}

		return fmt.Sprintf("github:%d", user.ID), nil

	case basecamp.ProviderDiscord:
		var user struct {
			ID string `json:"id"`
		}
		if err := fetchJSON(ctx, p.Config, token, discordUserURL, &user); err != nil {
			return "", err
		}

		return fmt.Sprintf("discord:%s", user.ID), nil

	default:
		return "", fmt.Errorf("%w: provider %q", ErrNotValid, p.Name)
	}
}

// FetchGoogleUser fetches the Google profile the token grants access to.
func FetchGoogleUser(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*goauth2.Userinfo, error) {
	service, err := goauth2.NewService(ctx, option.WithTokenSource(cfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnexpected, err)
	}

	user, err := service.Userinfo.Get().Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnexpected, err)
	}

	return user, nil
}

func fetchJSON(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, url string, out any) error {
	res, err := cfg.Client(ctx, token).Get(url)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnexpected, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s answered %d", ErrUnexpected, url, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s", ErrUnexpected, err)
	}

	return nil
}
