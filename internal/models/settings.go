package models

// FlavorKind selects one of the two flavor catalogs.
type FlavorKind string

const (
	FlavorKindTone FlavorKind = "tone"
	FlavorKindTime FlavorKind = "time"
)

// FlavorOption is one entry of a flavor catalog. IDs are the stable values
// sessions reference; labels and descriptions feed the prompt compositor.
type FlavorOption struct {
	ID          string `json:"id" db:"id"`
	Label       string `json:"label" db:"label"`
	Description string `json:"description" db:"description"`
}

// FlavorCatalog bundles both catalogs for the settings endpoint.
type FlavorCatalog struct {
	ToneStyles  []FlavorOption `json:"toneStyles"`
	TimeFlavors []FlavorOption `json:"timeFlavors"`
}
