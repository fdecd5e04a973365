package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

var (
	// ErrNoSource is returned when neither the primary nor the fallback file can be opened.
	ErrNoSource = errors.New("no readable catalog source")
	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("catalog is missing a required column")
	// ErrEmpty is returned when a readable source holds no assessments.
	ErrEmpty = errors.New("catalog has no assessments")
)

var requiredColumns = []string{"url", "name", "description"}

// Source lists the files the catalog may be loaded from.
type Source struct {
	Primary  string
	Fallback string
}

// row mirrors the tabular columns. Absent columns decode to empty strings.
type row struct {
	URL             string `mapstructure:"url"`
	Name            string `mapstructure:"name"`
	Description     string `mapstructure:"description"`
	Duration        string `mapstructure:"duration"`
	TestType        string `mapstructure:"test_type"`
	AdaptiveSupport string `mapstructure:"adaptive_support"`
	RemoteSupport   string `mapstructure:"remote_support"`
}

// Catalog is the immutable, ordered set of assessments.
type Catalog struct {
	records []Record
	source  string
}

// New wraps already built records, assigning row positions as IDs.
func New(records []Record, source string) *Catalog {
	owned := make([]Record, len(records))
	copy(owned, records)
	for i := range owned {
		owned[i].ID = i
	}
	return &Catalog{records: owned, source: source}
}

// Load reads the primary source, falling back to the secondary one when the
// primary cannot be opened. A source that opens but fails to parse is an error.
func Load(src Source, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	path, file, err := open(src, logger)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %q: %w", path, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}

	logger.Info("catalog loaded",
		zap.String("path", path),
		zap.Int("assessments", len(records)),
	)

	return &Catalog{records: records, source: path}, nil
}

func open(src Source, logger *zap.Logger) (string, *os.File, error) {
	primary := strings.TrimSpace(src.Primary)
	fallback := strings.TrimSpace(src.Fallback)

	var errs []error
	if primary != "" {
		file, err := os.Open(primary)
		if err == nil {
			return primary, file, nil
		}
		errs = append(errs, err)
		logger.Warn("primary catalog is unavailable",
			zap.String("path", primary),
			zap.String("fallback", fallback),
			zap.Error(err),
		)
	}

	if fallback != "" {
		file, err := os.Open(fallback)
		if err == nil {
			return fallback, file, nil
		}
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		errs = append(errs, errors.New("no catalog path configured"))
	}

	return "", nil, fmt.Errorf("%w: %w", ErrNoSource, errors.Join(errs...))
}

// Parse decodes CSV data with a header row into records.
func Parse(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty header", ErrMissingColumn)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	present := make(map[string]bool, len(header))
	for i, cell := range header {
		name := cleanHeader(cell)
		columns[i] = name
		present[name] = true
	}

	for _, required := range requiredColumns {
		if !present[required] {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	var records []Record
	for line := 2; ; line++ {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		values := make(map[string]string, len(columns))
		for i, column := range columns {
			if column == "" {
				continue
			}
			if i < len(cells) {
				values[column] = cells[i]
			} else {
				values[column] = ""
			}
		}

		var decoded row
		if err := mapstructure.Decode(values, &decoded); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", line, err)
		}

		records = append(records, decoded.toRecord(len(records)))
	}

	return records, nil
}

func (r row) toRecord(id int) Record {
	minutes, ok := ExtractMinutes(r.Duration)
	return Record{
		ID:              id,
		URL:             strings.TrimSpace(r.URL),
		Name:            r.Name,
		Description:     r.Description,
		RawDuration:     r.Duration,
		RawTestType:     r.TestType,
		AdaptiveSupport: strings.TrimSpace(r.AdaptiveSupport),
		RemoteSupport:   strings.TrimSpace(r.RemoteSupport),
		Minutes:         minutes,
		HasMinutes:      ok,
		TestTypes:       SplitTestTypes(r.TestType),
		Categories:      Categorize(r.TestType),
	}
}

func cleanHeader(cell string) string {
	cell = strings.TrimPrefix(cell, "\ufeff")
	return strings.ToLower(strings.TrimSpace(cell))
}

// Len returns the number of assessments.
func (c *Catalog) Len() int {
	return len(c.records)
}

// Records returns the records in source order. Callers must not modify the slice.
func (c *Catalog) Records() []Record {
	return c.records
}

// Texts returns the embedding inputs in source order.
func (c *Catalog) Texts() []string {
	texts := make([]string, len(c.records))
	for i, record := range c.records {
		texts[i] = record.CombinedText()
	}
	return texts
}

// Source returns the path the catalog was loaded from.
func (c *Catalog) Source() string {
	return c.source
}
