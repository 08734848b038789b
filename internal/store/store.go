package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/nao1215/netspider/internal/model"
)

// Document names used by the crawler.
const (
	// DocFrontier holds pending targets in visiting order.
	DocFrontier = "frontier"

	// DocVisitedProfiles holds every profile already processed.
	DocVisitedProfiles = "visited-profiles"

	// DocVisitedCompanies holds every organization already processed.
	DocVisitedCompanies = "visited-companies"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
	BackendRedis  = "redis"
)

var (
	// ErrCorruptDocument is returned when a stored document exists but
	// cannot be read or decoded.
	ErrCorruptDocument = errors.New("corrupt or unreadable document")

	// ErrInvalidDocumentName is returned for names that are not lowercase
	// letters, digits and dashes. Names become file names and keys.
	ErrInvalidDocumentName = errors.New("invalid document name")

	// ErrUnknownBackend is returned by Open for unsupported backend names.
	ErrUnknownBackend = errors.New("unknown store backend")
)

// documentNamePattern restricts names to characters safe in file names,
// SQL values and Redis keys alike.
var documentNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Store persists named documents.
//
// Implementations must guarantee that a Load following an interrupted Save
// observes either the previous or the new document, never a mix.
type Store interface {
	// Load returns the document called name, or an empty batch after
	// initializing storage for it when it does not exist yet.
	Load(ctx context.Context, name string) (*model.Batch, error)

	// Save overwrites the document called name.
	Save(ctx context.Context, name string, batch *model.Batch) error

	// Checkpoint saves several documents as one unit of persistence.
	// Backends that cannot commit documents atomically together write them
	// in the order given.
	Checkpoint(ctx context.Context, docs ...Document) error

	// Close releases the backend's resources.
	Close() error
}

// Document pairs a document name with its content for Checkpoint.
type Document struct {
	Name  string
	Batch *model.Batch
}

// Run is the record of one crawl run.
type Run struct {
	// ID is a random UUID assigned at start.
	ID string `json:"id"`

	// StartedAt is when the run entered its first state.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is zero while the run is in progress or if it crashed.
	FinishedAt time.Time `json:"finished_at,omitempty"`

	// Status is "running", "done" or "failed".
	Status string `json:"status"`

	// Visited is the number of targets processed during the run.
	Visited int `json:"visited"`

	// Error is the failure message of a failed run.
	Error string `json:"error,omitempty"`
}

// Run status values.
const (
	RunStatusRunning = "running"
	RunStatusDone    = "done"
	RunStatusFailed  = "failed"
)

// RunRecorder is implemented by backends that keep a history of runs.
// The crawler records runs only when its store implements this interface.
type RunRecorder interface {
	// StartRun inserts a new run record.
	StartRun(ctx context.Context, run Run) error

	// FinishRun updates the status, counters and finish time of a run.
	FinishRun(ctx context.Context, run Run) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// Options configures Open.
type Options struct {
	// Dir is the state directory used by the sqlite and json backends.
	Dir string

	// RedisAddr is the host:port of the Redis server for the redis backend.
	RedisAddr string

	// RedisPrefix is prepended to every Redis key.
	RedisPrefix string
}

// Open creates the store for the named backend.
func Open(ctx context.Context, backend string, opts Options) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		return OpenSQLite(opts.Dir, DefaultSQLiteOptions())
	case BackendJSON:
		return NewJSONStore(opts.Dir)
	case BackendRedis:
		return NewRedisStore(ctx, opts.RedisAddr, opts.RedisPrefix)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// validateName checks that name can be used as a document name.
func validateName(name string) error {
	if !documentNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidDocumentName, name)
	}
	return nil
}
