package catalog

import "testing"

func TestExtractMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		want   int
		wantOK bool
	}{
		{name: "minutes suffix", input: "45 minutes", want: 45, wantOK: true},
		{name: "first run wins", input: "Approx 20-30 mins", want: 20, wantOK: true},
		{name: "no digits", input: "Untimed", wantOK: false},
		{name: "empty", input: "", wantOK: false},
		{name: "overflow", input: "99999999999999999999999", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ExtractMinutes(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("ExtractMinutes(%q) = %d, %v; expected %d, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSplitTestTypes(t *testing.T) {
	t.Parallel()

	got := SplitTestTypes(" Knowledge & Skills ,, Personality & Behavior ,")
	if len(got) != 2 || got[0] != "Knowledge & Skills" || got[1] != "Personality & Behavior" {
		t.Fatalf("unexpected tokens: %q", got)
	}

	if empty := SplitTestTypes("   "); len(empty) != 0 {
		t.Fatalf("expected no tokens, got %q", empty)
	}
}

func TestCategorize(t *testing.T) {
	t.Parallel()

	c := Categorize("knowledge & skills, PERSONALITY & Behavior")
	if !c.Has(CategoryKnowledge) || !c.Has(CategoryPersonality) {
		t.Fatalf("expected both categories, got %s", c)
	}

	if c := Categorize("Ability & Aptitude"); c != 0 {
		t.Fatalf("expected no category, got %s", c)
	}

	if Category(0).Has(0) {
		t.Fatalf("empty category must not match")
	}
}

func TestCategoryString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category Category
		expect   string
	}{
		{category: 0, expect: "none"},
		{category: CategoryKnowledge, expect: "knowledge"},
		{category: CategoryPersonality, expect: "personality"},
		{category: CategoryKnowledge | CategoryPersonality, expect: "knowledge|personality"},
	}

	for _, tt := range tests {
		if got := tt.category.String(); got != tt.expect {
			t.Fatalf("Category(%d).String() = %q, expected %q", tt.category, got, tt.expect)
		}
	}
}
