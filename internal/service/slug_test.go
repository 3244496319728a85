package service

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"Hello, World!", "hello-world"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"UPPER case TITLE", "upper-case-title"},
		{"multiple---separators___here", "multiple-separators-here"},
		{"2024 year in review", "2024-year-in-review"},
		{"café notes", "cafe-notes"}, // combining accent dropped
		{"!!!", "post"},                    // nothing usable left
		{"", "post"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := slugify(tt.title); got != tt.want {
				t.Errorf("slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}
