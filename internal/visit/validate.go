package visit

import (
	"strings"
	"time"
)

// DateLayout is the stored visit_date format.
const DateLayout = "2006-01-02"

// ParseGender validates s against the gender enumeration.
func ParseGender(s string) (Gender, error) {
	return parseEnum("gender", "Please select a gender.", s, Genders)
}

// ParseAgeGroup validates s against the age band enumeration.
func ParseAgeGroup(s string) (AgeGroup, error) {
	return parseEnum("age_group", "Please select an age group.", s, AgeGroups)
}

// ParseResidence validates s against the residence enumeration.
func ParseResidence(s string) (Residence, error) {
	return parseEnum("residence", "Please select where you live.", s, Residences)
}

// ParseVisitType validates s against the visit type enumeration.
func ParseVisitType(s string) (VisitType, error) {
	return parseEnum("visit_type", "Please select how many times you have visited.", s, VisitTypes)
}

func parseEnum[T ~string](field, missing, s string, set []T) (T, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &ValidationError{Field: field, Message: missing}
	}
	if !contains(set, T(s)) {
		return "", &ValidationError{Field: field, Message: "unknown value " + `"` + s + `"`}
	}
	return T(s), nil
}

// ParsePurposes validates a non-empty selection of purpose tags.
func ParsePurposes(ss []string) ([]Purpose, error) {
	if len(ss) == 0 {
		return nil, &ValidationError{Field: "purpose", Message: "Please select at least one purpose."}
	}
	tags := make([]Purpose, 0, len(ss))
	for _, s := range ss {
		p := Purpose(strings.TrimSpace(s))
		if !p.IsValid() {
			return nil, &ValidationError{Field: "purpose", Message: "unknown value " + `"` + s + `"`}
		}
		tags = append(tags, p)
	}
	return tags, nil
}

// ValidateOtherText rejects free text that would not survive the
// comma-joined purpose encoding.
func ValidateOtherText(s string) error {
	if strings.Contains(s, ",") {
		return &ValidationError{Field: "other_text", Message: "The other-purpose note cannot contain commas."}
	}
	return nil
}

// ParseDate validates a YYYY-MM-DD visit date and returns it trimmed.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", &ValidationError{Field: "visit_date", Message: "Visit date must be in YYYY-MM-DD format."}
	}
	return s, nil
}
