package service

import (
	"fmt"

	"github.com/brixworks/sitesync/internal/domain/syncjob"
	"github.com/brixworks/sitesync/internal/port/provider"
)

// Field type tags providers may declare in their catalogs. The set is
// closed: an unknown tag falls back to incompatible rather than guessing.
const (
	TagString      = "string"
	TagText        = "text"
	TagEmail       = "email"
	TagURL         = "url"
	TagNumber      = "number"
	TagInteger     = "integer"
	TagFloat       = "float"
	TagDate        = "date"
	TagDatetime    = "datetime"
	TagTimestamp   = "timestamp"
	TagBoolean     = "boolean"
	TagSelect      = "select"
	TagEnum        = "enum"
	TagUser        = "user"
	TagReference   = "reference"
	TagList        = "list"
	TagArray       = "array"
	TagMultiselect = "multiselect"
	TagObject      = "object"
	TagJSON        = "json"
)

// Compatibility classification for a (source tag, dest tag) pair.
const (
	CompatPerfect      = "perfect"
	CompatGood         = "good"
	CompatIncompatible = "incompatible"
)

// canonical maps tag aliases onto one representative so the relation stays
// small: text→string, integer/float→number, datetime/timestamp→date,
// enum→select, reference→user, array/multiselect→list, json→object.
var canonical = map[string]string{
	TagString:      TagString,
	TagText:        TagString,
	TagEmail:       TagEmail,
	TagURL:         TagURL,
	TagNumber:      TagNumber,
	TagInteger:     TagNumber,
	TagFloat:       TagNumber,
	TagDate:        TagDate,
	TagDatetime:    TagDate,
	TagTimestamp:   TagDate,
	TagBoolean:     TagBoolean,
	TagSelect:      TagSelect,
	TagEnum:        TagSelect,
	TagUser:        TagUser,
	TagReference:   TagUser,
	TagList:        TagList,
	TagArray:       TagList,
	TagMultiselect: TagList,
	TagObject:      TagObject,
	TagJSON:        TagObject,
}

// goodPairs is the related-but-not-identical part of the compatibility
// relation, stored once per unordered pair: the value is still written as-is
// but may need validation on the destination side, so the hint surfaces as a
// lossy warning. pairKey orders the two tags so both directions hit the
// same entry.
var goodPairs = map[[2]string]string{
	pairKey(TagString, TagEmail):  "validate the value as an email address before writing",
	pairKey(TagString, TagURL):    "validate the value as a URL before writing",
	pairKey(TagString, TagSelect): "the value must match one of the destination's options",
}

// incompatibleSuggestions is the remediation table for pairs outside the
// compatibility relation: crossing these families needs an explicit
// conversion the engine does not perform. Pairs absent from the table fall
// back to suggestionFallback, so every incompatible classification carries
// an actionable hint.
var incompatibleSuggestions = map[[2]string]string{
	pairKey(TagString, TagDate):    "parse the string as a date; accepted layouts are RFC3339, YYYY-MM-DD, MM/DD/YYYY",
	pairKey(TagString, TagNumber):  "parse the string as a number; non-numeric values fail",
	pairKey(TagString, TagBoolean): "interpret true/false, yes/no, 1/0",
	pairKey(TagString, TagUser):    "resolve the name or email to a destination user id",
	pairKey(TagString, TagList):    "join the array with a separator, or split the string on one",
	pairKey(TagSelect, TagUser):    "map each option to a destination user",
	pairKey(TagList, TagSelect):    "take the first element, or map each element to an option",
	pairKey(TagNumber, TagSelect):  "map numeric codes to the destination's options",
}

const suggestionFallback = "convert the value to text on the source side and map it to a string destination field"

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// Classify returns the compatibility level and a conversion suggestion for
// mapping a source field tag onto a destination field tag. The relation is
// symmetric: Classify(a, b) and Classify(b, a) always agree. An incompatible
// result always carries a non-empty suggestion.
func Classify(sourceTag, destTag string) (level, suggestion string) {
	sc, sok := canonical[sourceTag]
	dc, dok := canonical[destTag]
	if !sok || !dok {
		return CompatIncompatible, suggestionFallback
	}
	if sc == dc {
		return CompatPerfect, ""
	}
	if hint, ok := goodPairs[pairKey(sc, dc)]; ok {
		return CompatGood, hint
	}
	if hint, ok := incompatibleSuggestions[pairKey(sc, dc)]; ok {
		return CompatIncompatible, hint
	}
	return CompatIncompatible, suggestionFallback
}

// ValidationIssue describes one problem found in a mapping document.
type ValidationIssue struct {
	SourceField string `json:"source_field"`
	DestField   string `json:"dest_field"`
	Message     string `json:"message"`
	Suggestion  string `json:"suggestion,omitempty"`
}

// ValidationResult is the outcome of validating a mapping document against
// the two field catalogs. Errors block execution; warnings do not.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

// MappingService validates field mapping documents against provider field
// catalogs before a sync is allowed to run.
type MappingService struct{}

// NewMappingService creates a MappingService.
func NewMappingService() *MappingService {
	return &MappingService{}
}

// Validate checks every mapping against the catalogs. A reference to a
// field absent from its catalog is a structural error and fails validation;
// a type incompatibility only warns, since the engine transfers the raw
// value and the destination may still accept it.
func (s *MappingService) Validate(mappings []syncjob.FieldMapping, sourceCatalog, destCatalog provider.FieldCatalog) ValidationResult {
	res := ValidationResult{Valid: true}

	for _, m := range mappings {
		if m.SourceField == "" || m.DestField == "" {
			res.Errors = append(res.Errors, ValidationIssue{
				SourceField: m.SourceField,
				DestField:   m.DestField,
				Message:     "mapping must name both a source and a destination field",
			})
			continue
		}

		sourceTag, sourceOK := sourceCatalog[m.SourceField]
		if !sourceOK {
			res.Errors = append(res.Errors, ValidationIssue{
				SourceField: m.SourceField,
				DestField:   m.DestField,
				Message:     fmt.Sprintf("source field %q does not exist", m.SourceField),
			})
		}
		destTag, destOK := destCatalog[m.DestField]
		if !destOK {
			res.Errors = append(res.Errors, ValidationIssue{
				SourceField: m.SourceField,
				DestField:   m.DestField,
				Message:     fmt.Sprintf("destination field %q does not exist", m.DestField),
			})
		}
		if !sourceOK || !destOK {
			continue
		}

		if level, suggestion := Classify(sourceTag, destTag); level == CompatIncompatible {
			res.Warnings = append(res.Warnings, ValidationIssue{
				SourceField: m.SourceField,
				DestField:   m.DestField,
				Message:     fmt.Sprintf("%s field %q does not convert to %s field %q", sourceTag, m.SourceField, destTag, m.DestField),
				Suggestion:  suggestion,
			})
		} else if level == CompatGood && suggestion != "" {
			res.Warnings = append(res.Warnings, ValidationIssue{
				SourceField: m.SourceField,
				DestField:   m.DestField,
				Message:     fmt.Sprintf("mapping %q (%s) to %q (%s) may lose information", m.SourceField, sourceTag, m.DestField, destTag),
				Suggestion:  suggestion,
			})
		}
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// RequireTitleMapping enforces the engine's hard precondition: without a
// mapping targeting the destination title, every created record would be
// unusable.
func RequireTitleMapping(mappings []syncjob.FieldMapping) error {
	for _, m := range mappings {
		if m.DestField == "title" {
			return nil
		}
	}
	return fmt.Errorf("no mapping targets the destination title field")
}
