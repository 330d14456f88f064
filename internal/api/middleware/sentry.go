package middleware

import (
	"github.com/getsentry/sentry-go"
)

// SetSentryUser adds the authenticated caller to the Sentry scope so
// panics and errors reported downstream carry their identity.
func SetSentryUser(userID, ip string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{ID: userID, IPAddress: ip})
	})
}
