package common

import "testing"

func TestNormalizeCity(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"London", "London"},
		{"  London  ", "London"},
		{"New   York", "New York"},
		{"\tSan\nJosé ", "San José"},
		{"Zürich", "Zürich"},
		{"   ", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := NormalizeCity(tc.in); got != tc.want {
			t.Errorf("NormalizeCity(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
