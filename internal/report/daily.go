package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evcraddock/visitlog/internal/visit"
)

// InvalidRangeError is returned when a report range cannot be used.
type InvalidRangeError struct {
	Start  string
	End    string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range %s ~ %s: %s", e.Start, e.End, e.Reason)
}

// DayCount is the number of visits attributed to one date.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Summary describes a daily series.
type Summary struct {
	Start           string       `json:"start"`
	End             string       `json:"end"`
	ExcludedWeekday time.Weekday `json:"excluded_weekday"`
	ExcludedCount   int          `json:"excluded_count"`
	IncludedCount   int          `json:"included_count"`
	Total           int          `json:"total"`
	Average         float64      `json:"average"` // Total / IncludedCount, unrounded
}

// Daily is a calendar-complete per-day series with its summary.
type Daily struct {
	Series  []DayCount `json:"series"`
	Summary Summary    `json:"summary"`
}

// DailySeries counts records per date over [start, end], skipping dates
// that fall on the excluded weekday. Every other date in the range is
// present in the series, with a zero count when nothing matched.
func DailySeries(records []*visit.Record, start, end string, excluded time.Weekday) (*Daily, error) {
	from, to, err := ParseRange(start, end)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]int)
	for _, rec := range records {
		if rec != nil {
			byDate[rec.VisitDate]++
		}
	}

	d := &Daily{
		Series: []DayCount{},
		Summary: Summary{
			Start:           from.Format(visit.DateLayout),
			End:             to.Format(visit.DateLayout),
			ExcludedWeekday: excluded,
		},
	}

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if day.Weekday() == excluded {
			d.Summary.ExcludedCount++
			continue
		}
		date := day.Format(visit.DateLayout)
		n := byDate[date]
		d.Series = append(d.Series, DayCount{Date: date, Count: n})
		d.Summary.IncludedCount++
		d.Summary.Total += n
	}

	if d.Summary.IncludedCount > 0 {
		d.Summary.Average = float64(d.Summary.Total) / float64(d.Summary.IncludedCount)
	}

	return d, nil
}

// ParseRange parses an inclusive YYYY-MM-DD date range.
func ParseRange(start, end string) (from, to time.Time, err error) {
	from, err = time.Parse(visit.DateLayout, strings.TrimSpace(start))
	if err != nil {
		return from, to, &InvalidRangeError{Start: start, End: end, Reason: "start date must be YYYY-MM-DD"}
	}
	to, err = time.Parse(visit.DateLayout, strings.TrimSpace(end))
	if err != nil {
		return from, to, &InvalidRangeError{Start: start, End: end, Reason: "end date must be YYYY-MM-DD"}
	}
	if to.Before(from) {
		return from, to, &InvalidRangeError{Start: start, End: end, Reason: "end date is before start date"}
	}
	return from, to, nil
}

// AverageText renders the average to two decimal places.
func (s Summary) AverageText() string {
	return decimal.NewFromFloat(s.Average).StringFixed(2)
}

// Lines renders the summary as short human-readable lines.
func (s Summary) Lines() []string {
	excluded := s.ExcludedWeekday.String() + "s"
	lines := []string{fmt.Sprintf("Period: %s ~ %s", s.Start, s.End)}
	if s.IncludedCount == 0 {
		return append(lines, fmt.Sprintf("No days to count (%s excluded).", excluded))
	}
	return append(lines,
		fmt.Sprintf("%s excluded: %d", excluded, s.ExcludedCount),
		fmt.Sprintf("Days counted: %d", s.IncludedCount),
		fmt.Sprintf("Total visits: %d", s.Total),
		fmt.Sprintf("Average visitors per open day: %s", s.AverageText()),
	)
}
