// Package visit provides the visit record model, the purpose codec and
// the SQLite-backed record store.
package visit

import "time"

// Gender is the visitor's self-reported gender.
type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
	GenderOther  Gender = "other"
)

// Genders lists genders in form and export order.
var Genders = []Gender{GenderFemale, GenderMale, GenderOther}

// AgeGroup is one of the fixed age bands.
type AgeGroup string

const (
	Age19to24 AgeGroup = "19-24"
	Age25to29 AgeGroup = "25-29"
	Age30to34 AgeGroup = "30-34"
	Age35to39 AgeGroup = "35-39"
)

// AgeGroups lists age bands in form and export order.
var AgeGroups = []AgeGroup{Age19to24, Age25to29, Age30to34, Age35to39}

// Residence is where the visitor lives.
type Residence string

const (
	ResidenceDistrictA   Residence = "district A"
	ResidenceDistrictB   Residence = "district B"
	ResidenceNonResident Residence = "non-resident-but-active"
	ResidenceOther       Residence = "other"
)

// Residences lists residences in form and export order.
var Residences = []Residence{ResidenceDistrictA, ResidenceDistrictB, ResidenceNonResident, ResidenceOther}

// VisitType records whether this is a first or repeat visit.
type VisitType string

const (
	FirstVisit  VisitType = "first-visit"
	RepeatVisit VisitType = "repeat-visit"
)

// VisitTypes lists visit types in form and export order.
var VisitTypes = []VisitType{FirstVisit, RepeatVisit}

// Purpose is a single purpose tag. A record carries one or more.
type Purpose string

const (
	PurposeProgram   Purpose = "program-participation"
	PurposeStudy     Purpose = "study/personal-work"
	PurposeMeeting   Purpose = "meeting/workshop"
	PurposeSharedPC  Purpose = "shared-PC/printer"
	PurposeMeal      Purpose = "light-meal-space"
	PurposeCuriosity Purpose = "curiosity"
	PurposeOther     Purpose = "other"
)

// Purposes lists purpose tags in form and export order. Other is last.
var Purposes = []Purpose{
	PurposeProgram,
	PurposeStudy,
	PurposeMeeting,
	PurposeSharedPC,
	PurposeMeal,
	PurposeCuriosity,
	PurposeOther,
}

// IsValid reports whether g is a known gender.
func (g Gender) IsValid() bool { return contains(Genders, g) }

// IsValid reports whether a is a known age band.
func (a AgeGroup) IsValid() bool { return contains(AgeGroups, a) }

// IsValid reports whether r is a known residence.
func (r Residence) IsValid() bool { return contains(Residences, r) }

// IsValid reports whether t is a known visit type.
func (t VisitType) IsValid() bool { return contains(VisitTypes, t) }

// IsValid reports whether p is a known purpose tag.
func (p Purpose) IsValid() bool { return contains(Purposes, p) }

func contains[T ~string](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Record is one visit as stored.
type Record struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	VisitDate string    `json:"visit_date"` // YYYY-MM-DD
	Gender    Gender    `json:"gender"`
	AgeGroup  AgeGroup  `json:"age_group"`
	Residence Residence `json:"residence"`
	Purpose   string    `json:"purpose"` // comma-joined tags, see EncodePurpose
	VisitType VisitType `json:"visit_type"`
}

// Field names a single-valued categorical column of Record.
type Field string

const (
	FieldGender    Field = "gender"
	FieldAgeGroup  Field = "age_group"
	FieldResidence Field = "residence"
	FieldVisitType Field = "visit_type"
)

// Fields lists the single-valued categorical columns.
var Fields = []Field{FieldGender, FieldAgeGroup, FieldResidence, FieldVisitType}

// Value returns the record's raw value for f. Unknown fields yield "".
func (r *Record) Value(f Field) string {
	switch f {
	case FieldGender:
		return string(r.Gender)
	case FieldAgeGroup:
		return string(r.AgeGroup)
	case FieldResidence:
		return string(r.Residence)
	case FieldVisitType:
		return string(r.VisitType)
	default:
		return ""
	}
}

// Options returns the allowed values of f in enumeration order.
func (f Field) Options() []string {
	switch f {
	case FieldGender:
		return labels(Genders)
	case FieldAgeGroup:
		return labels(AgeGroups)
	case FieldResidence:
		return labels(Residences)
	case FieldVisitType:
		return labels(VisitTypes)
	default:
		return nil
	}
}

// Title returns a human-readable column heading for f.
func (f Field) Title() string {
	switch f {
	case FieldGender:
		return "Gender"
	case FieldAgeGroup:
		return "Age"
	case FieldResidence:
		return "Residence"
	case FieldVisitType:
		return "Visit type"
	default:
		return string(f)
	}
}

// PurposeLabels returns the purpose tags as strings.
func PurposeLabels() []string { return labels(Purposes) }

func labels[T ~string](set []T) []string {
	out := make([]string, len(set))
	for i, v := range set {
		out[i] = string(v)
	}
	return out
}
