// Package log builds the slog loggers of netspider. Every logger is wrapped
// by SecureHandler, which masks credentials and session data before a
// record reaches its output.
//
// The crawler signs in with a real account and drives a browser holding
// its session cookies, so sign-in and browser failures can carry secrets.
// SecureHandler masks them by attribute key (password, username, cookie,
// the site's session cookie names) and by value (e-mail addresses, bearer
// tokens, JWTs). Profile labels are people's names; they are logged by
// default and masked with Options.RedactLabels.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, log.Options{Verbose: true})
//	logger.Info("signing in", "username", "jane@example.com") // masked
//	slog.SetDefault(logger)
package log
