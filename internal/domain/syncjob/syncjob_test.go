package syncjob

import "testing"

func TestValidate(t *testing.T) {
	valid := Sync{
		Name:            "site issues",
		SourceProvider:  "procore",
		SourceProjectID: "sp-1",
		DestProvider:    "fieldwire",
		DestProjectID:   "dp-1",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid sync rejected: %v", err)
	}

	same := valid
	same.DestProvider = "procore"
	if err := same.Validate(); err == nil {
		t.Fatal("same source and destination provider must be rejected")
	}

	unnamed := valid
	unnamed.Name = ""
	if err := unnamed.Validate(); err == nil {
		t.Fatal("unnamed sync must be rejected")
	}

	noProject := valid
	noProject.DestProjectID = ""
	if err := noProject.Validate(); err == nil {
		t.Fatal("missing project id must be rejected")
	}
}

func TestRunResultStatus(t *testing.T) {
	cases := []struct {
		name string
		r    RunResult
		want RunStatus
	}{
		{"zero work", RunResult{}, RunSuccess},
		{"all created", RunResult{Created: 5}, RunSuccess},
		{"some errors", RunResult{Created: 8, Errors: make([]RecordError, 2)}, RunPartial},
		{"updates count as success", RunResult{Updated: 3, Errors: make([]RecordError, 1)}, RunPartial},
		{"only errors", RunResult{Errors: make([]RecordError, 3)}, RunError},
		{"skips alone stay success", RunResult{Skipped: 4}, RunSuccess},
	}
	for _, tc := range cases {
		if got := tc.r.Status(); got != tc.want {
			t.Errorf("%s: Status() = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestIssueMappings(t *testing.T) {
	var s Sync
	if m := s.IssueMappings(); m != nil {
		t.Fatalf("nil mapping doc must yield nil, got %v", m)
	}

	s.Mappings = MappingDoc{
		DataTypeIssues: {{SourceField: "title", DestField: "title"}},
	}
	if m := s.IssueMappings(); len(m) != 1 {
		t.Fatalf("expected 1 mapping, got %d", len(m))
	}
}
