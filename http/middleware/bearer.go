package middleware

import (
	"crypto/subtle"
	"net/http"
)

// RequireBearer guards a handler behind an exact bearer-token match.
//
// The check fails closed: an unconfigured secret, a missing Authorization
// header, or anything other than an exact "Bearer <secret>" match answers
// 401 without reaching the guarded handler.
func RequireBearer(secret string) Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				unauthorized(w)
				return
			}

			header := r.Header.Get("Authorization")
			want := "Bearer " + secret
			if subtle.ConstantTimeCompare([]byte(header), []byte(want)) != 1 {
				unauthorized(w)
				return
			}

			h.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="basecamp"`)
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}
