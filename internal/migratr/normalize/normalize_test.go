package normalize

import (
	"testing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"plain", "Providencia", "Providencia", true},
		{"padded", "  Providencia  ", "Providencia", true},
		{"blank", "", "", false},
		{"whitespace only", "   \t ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CleanText(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("CleanText(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"all caps", "JUAN PEREZ", "Juan Perez", true},
		{"lowercase", "maría josé", "María José", true},
		{"mixed", "  aNA soto ", "Ana Soto", true},
		{"blank", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TitleCase(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("TitleCase(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCleanRUT(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"dotted", "12.345.678-9", "123456789", true},
		{"dashed", "12345678-k", "12345678K", true},
		{"already clean", "12345678K", "12345678K", true},
		{"blank", "", "", false},
		{"punctuation only", ".-", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CleanRUT(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("CleanRUT(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// All three accepted layouts must canonicalize to the same YYYY-MM-DD value;
// everything else is absent.
func TestParseDate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"slash day-first", "05/03/2024", "2024-03-05", true},
		{"slash single digits", "5/3/2024", "2024-03-05", true},
		{"dash day-first", "05-03-2024", "2024-03-05", true},
		{"already ISO", "2024-03-05", "2024-03-05", true},
		{"month out of range", "05/13/2024", "", false},
		{"day out of range", "31/04/2024", "", false},
		{"two digit year", "05/03/24", "", false},
		{"US-looking garbage", "2024/03/05", "", false},
		{"free text", "next tuesday", "", false},
		{"blank", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseDate(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCombineDateTime(t *testing.T) {
	tests := []struct {
		name   string
		date   string
		tod    string
		want   string
		wantOK bool
	}{
		{"date and time", "05/03/2024", "15:30", "2024-03-05 15:30:00", true},
		{"single digit hour", "05/03/2024", "9:30", "2024-03-05 09:30:00", true},
		{"missing time defaults to midnight", "05/03/2024", "", "2024-03-05 00:00:00", true},
		{"malformed time defaults to midnight", "05/03/2024", "mediodía", "2024-03-05 00:00:00", true},
		{"absent date", "", "15:30", "", false},
		{"bad date", "31/04/2024", "15:30", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CombineDateTime(tt.date, tt.tod)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("CombineDateTime(%q, %q) = (%q, %v), want (%q, %v)",
					tt.date, tt.tod, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCleanAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"currency and separator", "$1,250", 1250},
		{"plain", "35000", 35000},
		{"decimal truncated", "1250.75", 1250},
		{"spaced", " $ 45,000 ", 45000},
		{"unparseable", "n/a", 0},
		{"blank", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanAmount(tt.input); got != tt.want {
				t.Errorf("CleanAmount(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanPercent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"plain", "40", 40},
		{"decimal", "40.5", 40.5},
		{"with sign", "40%", 40},
		{"unparseable", "alta", 0},
		{"blank", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanPercent(tt.input); got != tt.want {
				t.Errorf("CleanPercent(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
