package basecamp_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/basecamp"
)

func lookupFrom(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func TestResolveCapabilities(t *testing.T) {
	for _, tc := range []struct {
		name     string
		env      map[string]string
		expected basecamp.CapabilitySet
	}{
		{"Zero-Value", nil, basecamp.CapabilitySet{}},
		{
			"Auth-Only",
			map[string]string{basecamp.AuthSecretEnvVar: strings.Repeat("a", 32)},
			basecamp.CapabilitySet{Auth: true},
		},
		{
			"Whitespace-Is-Unset",
			map[string]string{
				basecamp.AuthSecretEnvVar:  "   ",
				basecamp.DatabaseURLEnvVar: "\t\n",
			},
			basecamp.CapabilitySet{},
		},
		{
			"Provider-ID-Without-Secret",
			map[string]string{basecamp.GithubClientIDEnvVar: "id"},
			basecamp.CapabilitySet{},
		},
		{
			"Provider-Secret-Without-ID",
			map[string]string{basecamp.GoogleClientSecretEnvVar: "secret"},
			basecamp.CapabilitySet{},
		},
		{
			"Provider-Complete",
			map[string]string{
				basecamp.DiscordClientIDEnvVar:     "id",
				basecamp.DiscordClientSecretEnvVar: "secret",
			},
			basecamp.CapabilitySet{Discord: true},
		},
		{
			"Everything",
			map[string]string{
				basecamp.AuthSecretEnvVar:          strings.Repeat("a", 32),
				basecamp.DatabaseURLEnvVar:         "postgres://localhost:5432/app",
				basecamp.RedisURLEnvVar:            "redis://localhost:6379",
				basecamp.GithubClientIDEnvVar:      "id",
				basecamp.GithubClientSecretEnvVar:  "secret",
				basecamp.GoogleClientIDEnvVar:      "id",
				basecamp.GoogleClientSecretEnvVar:  "secret",
				basecamp.DiscordClientIDEnvVar:     "id",
				basecamp.DiscordClientSecretEnvVar: "secret",
			},
			basecamp.CapabilitySet{
				Auth:     true,
				Database: true,
				Cache:    true,
				GitHub:   true,
				Google:   true,
				Discord:  true,
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			actual := basecamp.ResolveCapabilities(lookupFrom(tc.env))

			// Assert
			require.Equal(t, tc.expected, actual)
			require.Equal(t, actual, basecamp.ResolveCapabilities(lookupFrom(tc.env)))
		})
	}
}

func TestCapabilitySetSessionStrategy(t *testing.T) {
	// Arrange + Act + Assert
	require.Equal(t, basecamp.SessionJWT, basecamp.CapabilitySet{}.SessionStrategy())
	require.Equal(t, basecamp.SessionJWT, basecamp.CapabilitySet{Auth: true, Cache: true}.SessionStrategy())
	require.Equal(t, basecamp.SessionDatabase, basecamp.CapabilitySet{Database: true}.SessionStrategy())
}

func TestCapabilitySetEnabledProviders(t *testing.T) {
	for _, tc := range []struct {
		name     string
		caps     basecamp.CapabilitySet
		expected []basecamp.Provider
	}{
		{"None", basecamp.CapabilitySet{}, nil},
		{"One", basecamp.CapabilitySet{Google: true}, []basecamp.Provider{basecamp.ProviderGoogle}},
		{
			"All-In-Stable-Order",
			basecamp.CapabilitySet{Discord: true, GitHub: true, Google: true},
			[]basecamp.Provider{basecamp.ProviderGitHub, basecamp.ProviderGoogle, basecamp.ProviderDiscord},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, tc.caps.EnabledProviders())
		})
	}
}

func TestValidateEnv(t *testing.T) {
	t.Run("Unset-Is-Valid", func(t *testing.T) {
		require.NoError(t, basecamp.ValidateEnv(lookupFrom(nil)))
	})

	t.Run("Well-Formed", func(t *testing.T) {
		// Arrange
		env := map[string]string{
			basecamp.AuthSecretEnvVar:        strings.Repeat("a", 32),
			basecamp.CronSecretEnvVar:        strings.Repeat("b", 16),
			basecamp.SessionAuthKeyEnvVar:    strings.Repeat("ab", 32),
			basecamp.SessionEncryptKeyEnvVar: strings.Repeat("cd", 16),
		}

		// Act + Assert
		require.NoError(t, basecamp.ValidateEnv(lookupFrom(env)))
	})

	t.Run("Collects-Every-Problem", func(t *testing.T) {
		// Arrange
		env := map[string]string{
			basecamp.AuthSecretEnvVar:     "too-short",
			basecamp.CronSecretEnvVar:     "short",
			basecamp.SessionAuthKeyEnvVar: "not-hex!",
		}

		// Act
		err := basecamp.ValidateEnv(lookupFrom(env))

		// Assert
		require.Error(t, err)
		require.ErrorIs(t, err, basecamp.ErrBadConfig)

		var verr *basecamp.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Fields, 3)
		require.Contains(t, verr.Fields, basecamp.AuthSecretEnvVar)
		require.Contains(t, verr.Fields, basecamp.CronSecretEnvVar)
		require.Contains(t, verr.Fields, basecamp.SessionAuthKeyEnvVar)
	})

	t.Run("Error-Is-Stable", func(t *testing.T) {
		// Arrange
		env := map[string]string{
			basecamp.CronSecretEnvVar:        "short",
			basecamp.AuthSecretEnvVar:        "short",
			basecamp.SessionEncryptKeyEnvVar: "zz!",
		}

		// Act
		first := basecamp.ValidateEnv(lookupFrom(env))
		second := basecamp.ValidateEnv(lookupFrom(env))

		// Assert
		require.Equal(t, first.Error(), second.Error())
		require.True(t, strings.Index(first.Error(), basecamp.AuthSecretEnvVar) <
			strings.Index(first.Error(), basecamp.CronSecretEnvVar))
	})

	t.Run("Unwraps-To-Sentinel", func(t *testing.T) {
		err := basecamp.ValidateEnv(lookupFrom(map[string]string{basecamp.CronSecretEnvVar: "nope"}))
		require.True(t, errors.Is(err, basecamp.ErrBadConfig))
	})
}
