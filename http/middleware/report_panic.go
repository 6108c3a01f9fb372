package middleware

import (
	"net/http"
	"strings"

	sentryhttp "github.com/getsentry/sentry-go/http"
)

// ReportPanic encloses the env and returns an Adapter wrapping handlers in
// sentryhttp in order to recover and report panics.
//
// In development, panics surface locally instead of shipping to Sentry.
func ReportPanic(env string) Adapter {
	if strings.EqualFold(env, "development") {
		return NoopAdapter
	}

	sh := sentryhttp.New(sentryhttp.Options{
		Repanic:         false,
		WaitForDelivery: true,
	})

	return func(h http.Handler) http.Handler {
		return sh.Handle(h)
	}
}
