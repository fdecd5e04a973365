// Package query extracts ranking hints from the free-text query: technical or
// behavioural intent and an optional duration limit.
package query

import (
	"strings"

	"golang.org/x/text/cases"
)

// Intent tells which assessment families the query asks for. Both flags may be set.
type Intent struct {
	Technical  bool
	Behavioral bool
}

// Hybrid reports whether the query asks for both families.
func (i Intent) Hybrid() bool {
	return i.Technical && i.Behavioral
}

var (
	technicalCues  = []string{"java", "python", "sql", "coding", "technical", "developer", "data"}
	behavioralCues = []string{"lead", "communicat", "collaborat", "personality", "behavior", "manager", "sales"}
)

// DetectIntent matches the query against fixed cue lists, ignoring case.
// Cues are substrings, so "leadership" hits "lead" and "database" hits "data".
func DetectIntent(query string) Intent {
	folded := cases.Fold().String(query)
	return Intent{
		Technical:  containsAny(folded, technicalCues),
		Behavioral: containsAny(folded, behavioralCues),
	}
}

func containsAny(s string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(s, cue) {
			return true
		}
	}
	return false
}
