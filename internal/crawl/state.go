package crawl

// State is a state of the crawl state machine.
type State int

// Crawl states in the order they are first entered.
const (
	StateStart State = iota
	StateSignIn
	StateSeeding
	StateProcessNext
	StateExtractCascade
	StateCheckpoint
	StateDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStart:
		return "START"
	case StateSignIn:
		return "SIGNIN"
	case StateSeeding:
		return "SEEDING"
	case StateProcessNext:
		return "PROCESS_NEXT"
	case StateExtractCascade:
		return "EXTRACT_CASCADE"
	case StateCheckpoint:
		return "CHECKPOINT"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Observer is notified of every state transition.
// It runs on the crawl goroutine and must not block.
type Observer func(from, to State)
