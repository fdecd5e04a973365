package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const advancedCSV = `url,name,description,duration,test_type,adaptive_support,remote_support
https://example.com/java,Java Coding Test,Core Java skills,40 mins,"Knowledge & Skills",Yes,Yes
https://example.com/lead,Leadership Assessment,Leadership behaviours,20 mins,Personality & Behavior,,No
https://example.com/sql,SQL Fundamentals,Queries and joins,Untimed,"Knowledge & Skills, Simulations",No,
`

const basicCSV = `name,url,description
Verbal Reasoning,https://example.com/verbal,Reading comprehension
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPrimary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	primary := writeFile(t, dir, "advanced.csv", advancedCSV)

	c, err := Load(Source{Primary: primary, Fallback: filepath.Join(dir, "missing.csv")}, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())
	require.Equal(t, primary, c.Source())

	java := c.Records()[0]
	require.Equal(t, 0, java.ID)
	require.Equal(t, "https://example.com/java", java.URL)
	require.Equal(t, 40, java.Minutes)
	require.True(t, java.HasMinutes)
	require.Equal(t, []string{"Knowledge & Skills"}, java.TestTypes)
	require.True(t, java.Categories.Has(CategoryKnowledge))
	require.False(t, java.Categories.Has(CategoryPersonality))

	lead := c.Records()[1]
	require.Equal(t, "", lead.AdaptiveSupport)
	require.Equal(t, "No", lead.AdaptiveOrDefault())
	require.Equal(t, "No", lead.RemoteOrDefault())
	require.True(t, lead.Categories.Has(CategoryPersonality))

	sql := c.Records()[2]
	require.False(t, sql.HasMinutes)
	require.Equal(t, 30, sql.DurationOr(30))
	require.Equal(t, 999, sql.DurationOr(999))
	require.Equal(t, []string{"Knowledge & Skills", "Simulations"}, sql.TestTypes)
	require.Equal(t, "Yes", sql.RemoteOrDefault())
}

func TestLoadFallsBackWhenPrimaryMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fallback := writeFile(t, dir, "basic.csv", basicCSV)

	core, observed := observer.New(zapcore.WarnLevel)
	c, err := Load(Source{Primary: filepath.Join(dir, "advanced.csv"), Fallback: fallback}, zap.New(core))
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	require.Equal(t, fallback, c.Source())

	record := c.Records()[0]
	require.Equal(t, "Verbal Reasoning", record.Name)
	require.Equal(t, "", record.RawDuration)
	require.Empty(t, record.TestTypes)
	require.Equal(t, []string{DefaultTestType}, record.TestTypesOrDefault())
	require.Equal(t, "Verbal Reasoning Reading comprehension ", record.CombinedText())

	require.Len(t, observed.FilterMessage("primary catalog is unavailable").All(), 1)
}

func TestLoadFailsWithoutSources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := Load(Source{
		Primary:  filepath.Join(dir, "a.csv"),
		Fallback: filepath.Join(dir, "b.csv"),
	}, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNoSource))
	require.True(t, errors.Is(err, os.ErrNotExist))

	_, err = Load(Source{}, nil)
	require.ErrorIs(t, err, ErrNoSource)
}

func TestLoadRejectsEmptyCatalog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	primary := writeFile(t, dir, "empty.csv", "url,name,description\n")

	_, err := Load(Source{Primary: primary}, nil)
	require.ErrorIs(t, err, ErrEmpty)
}

func TestParseRequiresColumns(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader("url,name\nhttps://x,Test\n"))
	require.ErrorIs(t, err, ErrMissingColumn)
	require.Contains(t, err.Error(), "description")

	_, err = Parse(strings.NewReader(""))
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseShortRowsAndHeaderCase(t *testing.T) {
	t.Parallel()

	data := "\ufeffURL, Name ,Description,Duration\nhttps://x,Short,Only three\n"
	records, err := Parse(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "https://x", records[0].URL)
	require.Equal(t, "Short", records[0].Name)
	require.Equal(t, "", records[0].RawDuration)
	require.False(t, records[0].HasMinutes)
}

func TestNewAssignsRowIDs(t *testing.T) {
	t.Parallel()

	c := New([]Record{{Name: "a", ID: 7}, {Name: "b", ID: 7}}, "memory")
	require.Equal(t, 0, c.Records()[0].ID)
	require.Equal(t, 1, c.Records()[1].ID)
	require.Equal(t, []string{"a  ", "b  "}, c.Texts())
}
