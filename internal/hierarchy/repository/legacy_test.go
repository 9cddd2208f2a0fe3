package repository

import "testing"

func TestExtractNumericID(t *testing.T) {
	tests := []struct {
		input  string
		want   int64
		wantOK bool
	}{
		{"55", 55, true},
		{" 55 ", 55, true},
		{"55/2", 55, true},
		{"55/?", 55, true},
		{"55abc", 55, true},
		{"abc", 0, false},
		{"", 0, false},
		{"/2", 0, false},
	}
	for _, tt := range tests {
		got, ok := extractNumericID(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("extractNumericID(%q) = %d, %v, want %d, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNumericIDs(t *testing.T) {
	got := numericIDs([]string{"55", "80/3", "junk", "91"})
	want := []int64{55, 80, 91}
	if len(got) != len(want) {
		t.Fatalf("numericIDs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("numericIDs = %v, want %v", got, want)
		}
	}
}
