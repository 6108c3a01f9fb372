package session

import (
	"fmt"
	"net/http"

	gorilla "github.com/gorilla/sessions"
	"github.com/xy-planning-network/basecamp"
)

// A Session wraps a gorilla session to expose the small surface a basecamp
// app needs from one.
type Session struct {
	s *gorilla.Session
}

// CurrentUserID retrieves the user identifier stashed in the Session.
func (s Session) CurrentUserID() (string, error) {
	id, ok := s.s.Values[basecamp.CurrentUserKey].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("%w: no current user", basecamp.ErrNotExist)
	}

	return id, nil
}

// Delete removes all values from the Session and expires it.
func (s Session) Delete(w http.ResponseWriter, r *http.Request) error {
	s.s.Values = make(map[any]any)
	s.s.Options.MaxAge = -1
	return s.s.Save(r, w)
}

// Get retrieves the value paired to key from the Session.
func (s Session) Get(key any) any { return s.s.Values[key] }

// Set pairs value to key in the Session and saves it.
func (s Session) Set(w http.ResponseWriter, r *http.Request, key, value any) error {
	s.s.Values[key] = value
	return s.s.Save(r, w)
}
