package textutil

import "testing"

func TestFormatCentavos(t *testing.T) {
	tests := []struct {
		name     string
		cents    int64
		expected string
	}{
		{
			name:     "zero",
			cents:    0,
			expected: "R$ 0,00",
		},
		{
			name:     "under one real",
			cents:    7,
			expected: "R$ 0,07",
		},
		{
			name:     "exact reais",
			cents:    5000,
			expected: "R$ 50,00",
		},
		{
			name:     "thousands grouping",
			cents:    123456789,
			expected: "R$ 1.234.567,89",
		},
		{
			name:     "exactly one thousand",
			cents:    100000,
			expected: "R$ 1.000,00",
		},
		{
			name:     "negative",
			cents:    -1050,
			expected: "-R$ 10,50",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCentavos(tt.cents); got != tt.expected {
				t.Errorf("FormatCentavos(%d) = %q, want %q", tt.cents, got, tt.expected)
			}
		})
	}
}

func TestFormatPlace(t *testing.T) {
	if got := FormatPlace(1); got != "1º" {
		t.Errorf("FormatPlace(1) = %q", got)
	}
	if got := FormatPlace(23); got != "23º" {
		t.Errorf("FormatPlace(23) = %q", got)
	}
}

func TestParseInts(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{
			name:  "commas",
			input: "4,8,15,16,23,42",
			want:  []int{4, 8, 15, 16, 23, 42},
		},
		{
			name:  "commas and spaces",
			input: "4, 8, 15",
			want:  []int{4, 8, 15},
		},
		{
			name:  "spaces only",
			input: "1 2 3",
			want:  []int{1, 2, 3},
		},
		{
			name:  "empty",
			input: "",
			want:  []int{},
		},
		{
			name:    "garbage",
			input:   "1,two,3",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInts(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseInts(%q): expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseInts(%q): %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseInts(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseInts(%q)[%d] = %d, want %d", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}
