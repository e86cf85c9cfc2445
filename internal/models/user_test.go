package models

import "testing"

func TestFormatDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Meera Bai", "Meera B."},
		{"Tulsidas", "Tulsidas"},
		{"  Adi   Shankara  ", "Adi S."},
		{"Ramana Maharshi Venkataraman", "Ramana V."},
		{"Ānanda Ātman", "Ānanda Ā."},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FormatDisplayName(tt.in); got != tt.want {
			t.Errorf("FormatDisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	u := User{Name: "Kabir Das"}
	if got := u.DisplayName(); got != "Kabir D." {
		t.Errorf("DisplayName() = %q, want %q", got, "Kabir D.")
	}
}
