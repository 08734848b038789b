package model

// Kind identifies the entity class a crawl target belongs to.
type Kind int

const (
	// KindProfile is a person profile, keyed by its profile slug.
	KindProfile Kind = iota

	// KindCompany is an organization, keyed by its company or search URL.
	KindCompany
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindProfile:
		return "profile"
	case KindCompany:
		return "company"
	default:
		return "unknown"
	}
}

// Entry is a single crawl target.
// ID is the opaque identifier that uniquely names the target across runs;
// Label is the human-readable name shown on the page where it was found.
type Entry struct {
	// ID is compared by exact string equality.
	ID string `json:"id"`

	// Label is informational only and never used for deduplication.
	Label string `json:"label"`
}
