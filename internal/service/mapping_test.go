package service

import (
	"testing"

	"github.com/brixworks/sitesync/internal/domain/syncjob"
	"github.com/brixworks/sitesync/internal/port/provider"
)

var allTags = []string{
	TagString, TagText, TagEmail, TagURL,
	TagNumber, TagInteger, TagFloat,
	TagDate, TagDatetime, TagTimestamp,
	TagBoolean, TagSelect, TagEnum,
	TagUser, TagReference,
	TagList, TagArray, TagMultiselect,
	TagObject, TagJSON,
}

// The compatibility relation must hold in both directions for every pair,
// including unknown tags.
func TestClassifyIsSymmetric(t *testing.T) {
	tags := append([]string{"bogus"}, allTags...)
	for _, a := range tags {
		for _, b := range tags {
			la, _ := Classify(a, b)
			lb, _ := Classify(b, a)
			if la != lb {
				t.Errorf("Classify(%s,%s)=%s but Classify(%s,%s)=%s", a, b, la, b, a, lb)
			}
		}
	}
}

func TestClassifyLevels(t *testing.T) {
	cases := []struct {
		a, b string
		want string
	}{
		{TagString, TagString, CompatPerfect},
		{TagText, TagString, CompatPerfect},     // alias collapse
		{TagInteger, TagFloat, CompatPerfect},   // both number
		{TagDatetime, TagDate, CompatPerfect},   // both date
		{TagString, TagEmail, CompatGood},
		{TagString, TagSelect, CompatGood},
		{TagString, TagDate, CompatIncompatible},
		{TagString, TagNumber, CompatIncompatible},
		{TagList, TagSelect, CompatIncompatible},
		{TagBoolean, TagDate, CompatIncompatible},
		{TagObject, TagUser, CompatIncompatible},
		{"bogus", TagString, CompatIncompatible},
	}
	for _, tc := range cases {
		if got, _ := Classify(tc.a, tc.b); got != tc.want {
			t.Errorf("Classify(%s,%s) = %s, want %s", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestClassifySuggestions(t *testing.T) {
	level, s := Classify(TagString, TagDate)
	if level != CompatIncompatible || s == "" {
		t.Errorf("string->date must be incompatible with a suggestion, got %s %q", level, s)
	}
	_, s = Classify(TagDate, TagString)
	if s == "" {
		t.Error("suggestion must be present in both directions")
	}
	_, s = Classify(TagString, TagString)
	if s != "" {
		t.Errorf("perfect match needs no suggestion, got %q", s)
	}
}

// Every incompatible pairing must surface an actionable remediation hint,
// including pairs outside the suggestion table and unknown tags.
func TestClassifyIncompatibleCarriesSuggestion(t *testing.T) {
	tags := append([]string{"bogus"}, allTags...)
	for _, a := range tags {
		for _, b := range tags {
			level, s := Classify(a, b)
			if level == CompatIncompatible && s == "" {
				t.Errorf("Classify(%s,%s) is incompatible with no suggestion", a, b)
			}
		}
	}
}

func TestValidateUnknownFieldIsError(t *testing.T) {
	svc := NewMappingService()
	source := provider.FieldCatalog{"title": TagString}
	dest := provider.FieldCatalog{"title": TagString}

	res := svc.Validate([]syncjob.FieldMapping{
		{SourceField: "title", DestField: "title"},
		{SourceField: "ghost", DestField: "title"},
	}, source, dest)

	if res.Valid {
		t.Fatal("unknown source field must fail validation")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(res.Errors))
	}
}

func TestValidateIncompatibilityIsWarning(t *testing.T) {
	svc := NewMappingService()
	source := provider.FieldCatalog{"flag": TagBoolean}
	dest := provider.FieldCatalog{"due_date": TagDate}

	res := svc.Validate([]syncjob.FieldMapping{
		{SourceField: "flag", DestField: "due_date"},
	}, source, dest)

	if !res.Valid {
		t.Fatal("incompatibility must not fail validation")
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(res.Warnings))
	}
	if res.Warnings[0].Suggestion == "" {
		t.Fatalf("incompatibility warning must carry a suggestion, got %+v", res.Warnings[0])
	}
}

func TestValidateEmptyFieldNames(t *testing.T) {
	svc := NewMappingService()
	res := svc.Validate([]syncjob.FieldMapping{
		{SourceField: "", DestField: "title"},
	}, provider.FieldCatalog{}, provider.FieldCatalog{"title": TagString})

	if res.Valid || len(res.Errors) != 1 {
		t.Fatalf("expected a structural error, got %+v", res)
	}
}

func TestRequireTitleMapping(t *testing.T) {
	if err := RequireTitleMapping([]syncjob.FieldMapping{
		{SourceField: "name", DestField: "title"},
	}); err != nil {
		t.Fatalf("title mapping present, got %v", err)
	}
	if err := RequireTitleMapping([]syncjob.FieldMapping{
		{SourceField: "status", DestField: "status"},
	}); err == nil {
		t.Fatal("expected error without title mapping")
	}
}
