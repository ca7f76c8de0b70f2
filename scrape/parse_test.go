package scrape

import "testing"

func TestParseLastOnlineDays(t *testing.T) {
	tests := []struct {
		text string
		days int
	}{
		{"3 days ago", 3},
		{"1 day ago", 1},
		{"27 days ago", 27},
		{"5 minutes ago", 0},
		{"42 seconds ago", 0},
		{"2 hours ago", 0},
		{"Just now", 0},
		{"a while back", UnknownLastOnlineDays},
		{"", UnknownLastOnlineDays},
		{"Unknown", UnknownLastOnlineDays},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := ParseLastOnlineDays(tt.text); got != tt.days {
				t.Fatalf("ParseLastOnlineDays(%q) = %d, expected %d", tt.text, got, tt.days)
			}
		})
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		text string
		n    int
	}{
		{"1,234", 1234},
		{"  567 ", 567},
		{"0", 0},
		{"12,345,678", 12345678},
		{"-3", 0},
		{"n/a", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parseCount(tt.text); got != tt.n {
			t.Errorf("parseCount(%q) = %d, expected %d", tt.text, got, tt.n)
		}
	}
}
