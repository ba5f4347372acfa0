package provider

import "testing"

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   any
		want string
		ok   bool
	}{
		{"2025-04-01", "2025-04-01", true},
		{"2025-04-01T12:30:00Z", "2025-04-01", true},
		{"04/15/2025", "2025-04-15", true},
		{"", "", false},
		{"   ", "", false},
		{"not a date", "", false},
		{42, "", false},
		{nil, "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeDate(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("NormalizeDate(%v) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestIsEmptyValue(t *testing.T) {
	if !IsEmptyValue(nil) || !IsEmptyValue("") || !IsEmptyValue("  ") || !IsEmptyValue([]any{}) {
		t.Error("expected empty values to be detected")
	}
	if IsEmptyValue("x") || IsEmptyValue(0) || IsEmptyValue(false) {
		t.Error("zero scalars are values, not absences")
	}
}

func TestWhitelistFields(t *testing.T) {
	got := WhitelistFields(
		map[string]any{"title": "a", "secret": "b", "status": "open"},
		map[string]bool{"title": true, "status": true},
	)
	if len(got) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(got))
	}
	if _, ok := got["secret"]; ok {
		t.Fatal("non-whitelisted field survived")
	}
}
