package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/basecamp"
	"github.com/xy-planning-network/basecamp/http/middleware"
)

func TestRequestID(t *testing.T) {
	// Arrange
	var seen []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := r.Context().Value(basecamp.RequestIDKey).(string)
		require.True(t, ok)
		seen = append(seen, id)
	})
	wrapped := middleware.RequestID()(handler)

	// Act
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	}

	// Assert: every request gets its own well-formed id.
	require.Len(t, seen, 2)
	require.NotEqual(t, seen[0], seen[1])
	for _, id := range seen {
		_, err := uuid.Parse(id)
		require.NoError(t, err)
	}
}
