package recommend

import (
	"encoding/json"
	"os"

	"github.com/spigell/assessment-recommender/internal/ai"
	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/utils"
)

const (
	// DefaultDuration is reported for assessments whose duration has no digits.
	DefaultDuration = 30

	descriptionPreviewLength = 230
	placeholderQueryLength   = 20
)

// Result is the serialized shape of a single recommendation.
type Result struct {
	URL             string   `json:"url"`
	Name            string   `json:"name"`
	AdaptiveSupport string   `json:"adaptive support"`
	Description     string   `json:"description"`
	Duration        int      `json:"duration"`
	RemoteSupport   string   `json:"remote support"`
	TestType        []string `json:"test_type"`
	Score           float64  `json:"score"`
}

// Format converts a scored record into a Result. The score is passed through unchanged.
func Format(rec catalog.Record, score float64) Result {
	return Result{
		URL:             rec.URL,
		Name:            rec.Name,
		AdaptiveSupport: rec.AdaptiveOrDefault(),
		Description:     rec.Description,
		Duration:        rec.DurationOr(DefaultDuration),
		RemoteSupport:   rec.RemoteOrDefault(),
		TestType:        rec.TestTypesOrDefault(),
		Score:           score,
	}
}

// MatchPercent is the score shown to people, truncated to a whole percent.
func (r Result) MatchPercent() int {
	return int(r.Score * 100)
}

// DescriptionPreview returns the start of the description for terminal output.
func (r Result) DescriptionPreview() string {
	return utils.Preview(r.Description, descriptionPreviewLength)
}

// Results is an ordered recommendation list.
type Results []Result

func (rs Results) Len() int {
	return len(rs)
}

// Recommendations reduces the list to what an explainer needs.
func (rs Results) Recommendations() []ai.Recommendation {
	out := make([]ai.Recommendation, len(rs))
	for i, r := range rs {
		types := make([]string, len(r.TestType))
		copy(types, r.TestType)
		out[i] = ai.Recommendation{Name: r.Name, TestTypes: types}
	}
	return out
}

// DumpToTmpFile writes the list as indented JSON and returns the file name.
func (rs Results) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "recommendations_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rs); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// Placeholder is the explanation shown when no credential was supplied.
func Placeholder(query string) string {
	return "**AI Strategy:** Selected a balanced mix of technical modules and behavioral scenarios matching '" +
		utils.Preview(query, placeholderQueryLength) + "'."
}
