package catalog

import "strings"

const (
	// DefaultTestType is used when a record carries no test type labels.
	DefaultTestType = "General"
	// DefaultAdaptiveSupport is reported when the adaptive support cell is empty.
	DefaultAdaptiveSupport = "No"
	// DefaultRemoteSupport is reported when the remote support cell is empty.
	DefaultRemoteSupport = "Yes"
)

// Category is a bit set of assessment families derived from the test type labels.
type Category uint8

const (
	CategoryKnowledge Category = 1 << iota
	CategoryPersonality
)

// Has reports whether all bits of other are present in c.
func (c Category) Has(other Category) bool {
	return other != 0 && c&other == other
}

// String lists the set categories, "none" when empty.
func (c Category) String() string {
	var parts []string
	if c.Has(CategoryKnowledge) {
		parts = append(parts, "knowledge")
	}
	if c.Has(CategoryPersonality) {
		parts = append(parts, "personality")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Record is one assessment of the catalog. Records are built once by the loader
// and never mutated afterwards.
type Record struct {
	// ID is the zero-based row position in the source file.
	ID          int
	URL         string
	Name        string
	Description string

	// RawDuration and RawTestType keep the source cells untouched.
	RawDuration string
	RawTestType string

	AdaptiveSupport string
	RemoteSupport   string

	// Minutes is the first number found in RawDuration. HasMinutes is false
	// when RawDuration carries no digits.
	Minutes    int
	HasMinutes bool

	TestTypes  []string
	Categories Category
}

// Key identifies the record when deduplicating results.
func (r Record) Key() string {
	if r.URL != "" {
		return r.URL
	}
	return "#" + strings.TrimSpace(r.Name) + "#" + itoa(r.ID)
}

// CombinedText is the text fed to the embedding model.
func (r Record) CombinedText() string {
	return r.Name + " " + r.Description + " " + r.RawTestType
}

// DurationOr returns the parsed minutes or fallback when none were found.
func (r Record) DurationOr(fallback int) int {
	if !r.HasMinutes {
		return fallback
	}
	return r.Minutes
}

// TestTypesOrDefault never returns an empty slice.
func (r Record) TestTypesOrDefault() []string {
	if len(r.TestTypes) == 0 {
		return []string{DefaultTestType}
	}
	out := make([]string, len(r.TestTypes))
	copy(out, r.TestTypes)
	return out
}

// AdaptiveOrDefault returns the adaptive support flag, "No" when unset.
func (r Record) AdaptiveOrDefault() string {
	return orDefault(r.AdaptiveSupport, DefaultAdaptiveSupport)
}

// RemoteOrDefault returns the remote support flag, "Yes" when unset.
func (r Record) RemoteOrDefault() string {
	return orDefault(r.RemoteSupport, DefaultRemoteSupport)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
