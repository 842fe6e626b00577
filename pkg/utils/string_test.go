package utils

import "testing"

func TestTrimPrefixFold(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		prefix string
		want   string
	}{
		{"exact", "Production Solaire", "Production ", "Solaire"},
		{"lower case", "production solaire", "Production ", "solaire"},
		{"absent", "Solaire", "Production ", "Solaire"},
		{"shorter than prefix", "Prod", "Production ", "Prod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimPrefixFold(tt.input, tt.prefix); got != tt.want {
				t.Errorf("TrimPrefixFold(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCutSuffixFold(t *testing.T) {
	got, ok := CutSuffixFold("Éolienne RENOUVELABLE (gwh)", " renouvelable (GWh)")
	if !ok || got != "Éolienne" {
		t.Errorf("CutSuffixFold = (%q, %v), want (\"Éolienne\", true)", got, ok)
	}

	got, ok = CutSuffixFold("Éolienne", " (GWh)")
	if ok || got != "Éolienne" {
		t.Errorf("CutSuffixFold = (%q, %v), want (\"Éolienne\", false)", got, ok)
	}
}

func TestContainsAll(t *testing.T) {
	if !ContainsAll("Production Solaire (GWh)", "Production", "(GWh)") {
		t.Error("expected match for production column")
	}

	if ContainsAll("Production Notes", "Production", "(GWh)") {
		t.Error("expected no match without (GWh)")
	}

	if ContainsAll("Capacity (GWh)", "Production", "(GWh)") {
		t.Error("expected no match without Production")
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	if got := NormalizeWhitespace("  Nom   INSEE\trégion "); got != "Nom INSEE région" {
		t.Errorf("NormalizeWhitespace = %q", got)
	}
}
