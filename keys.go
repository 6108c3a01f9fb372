package basecamp

type Key string

const (
	// CurrentUserKey stashes the current user ID for a session.
	CurrentUserKey Key = "CurrentUserKey"

	// RequestIDKey stashes a unique UUID for each HTTP request.
	RequestIDKey Key = "RequestIDKey"
)

// String formats the stringified key with additional contextual information.
func (k Key) String() string {
	return "basecamp context key: " + string(k)
}
