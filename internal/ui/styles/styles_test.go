package styles

import "testing"

func TestTruncateText(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Saga", 10, "Saga"},
		{"Saga Volume 1", 8, "Saga Vo…"},
		{"ワンピース", 5, "ワン…"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		if got := TruncateText(tt.in, tt.width); got != tt.want {
			t.Errorf("TruncateText(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestNextThemeCycles(t *testing.T) {
	defer SetCurrentTheme(DarkTheme.Name)

	seen := map[string]bool{CurrentTheme().Name: true}
	for range BuiltinThemes[1:] {
		seen[NextTheme()] = true
	}
	if len(seen) != len(BuiltinThemes) {
		t.Errorf("visited %d themes, want %d", len(seen), len(BuiltinThemes))
	}
	if got := NextTheme(); got != DarkTheme.Name {
		t.Errorf("cycle did not wrap, got %q", got)
	}
}
