package basecamp_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/basecamp"
)

func TestEnvironmentValid(t *testing.T) {
	for _, e := range []basecamp.Environment{
		basecamp.Development,
		basecamp.Production,
		basecamp.Review,
		basecamp.Staging,
		basecamp.Testing,
	} {
		require.NoError(t, e.Valid())
	}

	require.ErrorIs(t, basecamp.Environment("local").Valid(), basecamp.ErrNotValid)
	require.ErrorIs(t, basecamp.Environment("").Valid(), basecamp.ErrNotValid)
}

func TestEnvVarOrBool(t *testing.T) {
	// Arrange
	t.Setenv("BASECAMP_TEST_TRUE", "TRUE")
	t.Setenv("BASECAMP_TEST_FALSE", "false")
	t.Setenv("BASECAMP_TEST_NOT_BOOL", "yes")

	// Act + Assert
	require.True(t, basecamp.EnvVarOrBool("BASECAMP_TEST_TRUE", false))
	require.False(t, basecamp.EnvVarOrBool("BASECAMP_TEST_FALSE", true))
	require.True(t, basecamp.EnvVarOrBool("BASECAMP_TEST_NOT_BOOL", true))
	require.False(t, basecamp.EnvVarOrBool("BASECAMP_TEST_UNSET", false))
}

func TestEnvVarOrString(t *testing.T) {
	// Arrange
	t.Setenv("BASECAMP_TEST_STRING", "set")

	// Act + Assert
	require.Equal(t, "set", basecamp.EnvVarOrString("BASECAMP_TEST_STRING", "default"))
	require.Equal(t, "default", basecamp.EnvVarOrString("BASECAMP_TEST_UNSET", "default"))
}

func TestEnvVarOrInt(t *testing.T) {
	// Arrange
	t.Setenv("BASECAMP_TEST_INT", "42")
	t.Setenv("BASECAMP_TEST_NOT_INT", "forty-two")

	// Act + Assert
	require.Equal(t, 42, basecamp.EnvVarOrInt("BASECAMP_TEST_INT", 7))
	require.Equal(t, 7, basecamp.EnvVarOrInt("BASECAMP_TEST_NOT_INT", 7))
	require.Equal(t, 7, basecamp.EnvVarOrInt("BASECAMP_TEST_UNSET", 7))
}

func TestEnvVarOrDuration(t *testing.T) {
	// Arrange
	t.Setenv("BASECAMP_TEST_DURATION", "90s")
	t.Setenv("BASECAMP_TEST_NOT_DURATION", "soon")

	// Act + Assert
	require.Equal(t, 90*time.Second, basecamp.EnvVarOrDuration("BASECAMP_TEST_DURATION", time.Minute))
	require.Equal(t, time.Minute, basecamp.EnvVarOrDuration("BASECAMP_TEST_NOT_DURATION", time.Minute))
}

func TestEnvVarOrEnv(t *testing.T) {
	// Arrange
	t.Setenv("BASECAMP_TEST_ENV", "STAGING")
	t.Setenv("BASECAMP_TEST_BAD_ENV", "local")

	// Act + Assert
	require.Equal(t, basecamp.Staging, basecamp.EnvVarOrEnv("BASECAMP_TEST_ENV", basecamp.Development))
	require.Equal(t, basecamp.Development, basecamp.EnvVarOrEnv("BASECAMP_TEST_BAD_ENV", basecamp.Development))
}

func TestEnvVarOrURL(t *testing.T) {
	// Arrange
	t.Setenv("BASECAMP_TEST_URL", "https://app.example.com")

	// Act
	u := basecamp.EnvVarOrURL("BASECAMP_TEST_URL", "http://localhost:3000")
	d := basecamp.EnvVarOrURL("BASECAMP_TEST_UNSET", "http://localhost:3000")

	// Assert
	require.Equal(t, "https://app.example.com", u.String())
	require.Equal(t, "http://localhost:3000", d.String())
}
