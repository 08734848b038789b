package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoBaseURL is returned when no site base URL is configured.
	ErrNoBaseURL = errors.New("no base URL specified: set url in the config file or use --url")

	// ErrInvalidBaseURL is returned when the base URL is not an absolute
	// http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http(s) URL")

	// ErrNoCredentials is returned when the username or password is missing.
	// The password may also come from the NETSPIDER_PASSWORD environment
	// variable.
	ErrNoCredentials = errors.New("no credentials specified: set username and password (or NETSPIDER_PASSWORD)")

	// ErrInvalidBackend is returned for a store backend other than sqlite,
	// json or redis.
	ErrInvalidBackend = errors.New("invalid store backend: must be sqlite, json or redis")

	// ErrNoRedisAddr is returned when the redis backend is selected without
	// a server address.
	ErrNoRedisAddr = errors.New("no redis address specified: set store.redisAddr")

	// ErrInvalidMaxRetries is returned when the retry count is negative.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidMaxVisits is returned when the visit limit is negative.
	// Use 0 for no limit.
	ErrInvalidMaxVisits = errors.New("invalid max visits: must be non-negative")

	// ErrInvalidEndorsementLists is returned when fewer than one endorsement
	// list per profile is requested.
	ErrInvalidEndorsementLists = errors.New("invalid endorsement lists: must be at least 1")

	// ErrInvalidNavigationRate is returned when the navigation cap is
	// negative. Use 0 for no cap.
	ErrInvalidNavigationRate = errors.New("invalid navigation rate: must be non-negative")

	// ErrInvalidActionTimeout is returned when the browser action timeout is
	// not positive.
	ErrInvalidActionTimeout = errors.New("invalid action timeout: must be positive")

	// ErrNoKafkaTopic is returned when Kafka brokers are configured without
	// a topic.
	ErrNoKafkaTopic = errors.New("no kafka topic specified: set events.kafkaTopic")
)
