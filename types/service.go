package types

// Service represents one entry of the public services catalog. The catalog
// is read-only content sourced from a static JSON document, not from the
// database.
type Service struct {
	// ID is the stable identifier of the service, used in detail URLs.
	ID string `json:"id"`

	// Title is the human-readable name of the service.
	Title string `json:"title"`

	// Summary is the short description shown on the listing page.
	Summary string `json:"summary"`

	// Description contains the full service description.
	Description string `json:"description"`

	// Category is a free-form grouping label.
	Category string `json:"category"`

	// Tags are free-form labels used for filtering.
	Tags []string `json:"tags"`
}
