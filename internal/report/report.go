package report

import (
	"time"

	"github.com/evcraddock/visitlog/internal/visit"
)

// Report bundles every aggregate the admin console shows for one range.
type Report struct {
	Records   []*visit.Record `json:"records"`
	Purpose   []Ratio         `json:"purpose"`
	Gender    []Ratio         `json:"gender"`
	AgeGroup  []Ratio         `json:"age_group"`
	Residence []Ratio         `json:"residence"`
	VisitType []Ratio         `json:"visit_type"`
	Daily     *Daily          `json:"daily"`
}

// Build computes all aggregates over records for [start, end].
// It fails only when the range itself is invalid.
func Build(records []*visit.Record, start, end string, excluded time.Weekday) (*Report, error) {
	daily, err := DailySeries(records, start, end, excluded)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*visit.Record{}
	}
	return &Report{
		Records:   records,
		Purpose:   RatioByPurpose(records),
		Gender:    RatioByField(records, visit.FieldGender),
		AgeGroup:  RatioByField(records, visit.FieldAgeGroup),
		Residence: RatioByField(records, visit.FieldResidence),
		VisitType: RatioByField(records, visit.FieldVisitType),
		Daily:     daily,
	}, nil
}
