// Package export builds the one-hot checksheet matrix and renders it as a
// grouped-header xlsx workbook.
package export

import (
	"github.com/evcraddock/visitlog/internal/visit"
)

// TotalMarker replaces the id in the totals row.
const TotalMarker = "total"

// Group is a named run of contiguous columns. Start and End are 1-based
// and inclusive.
type Group struct {
	Title   string
	Columns []string
	Start   int
	End     int
}

// Row is one record flattened to flags. Flags excludes the id column.
type Row struct {
	ID    int64
	Flags []int
}

// Matrix is the checksheet for a set of records.
type Matrix struct {
	Groups []Group
	Totals []int
	Rows   []Row

	// DroppedTokens counts purpose tokens that matched no column.
	DroppedTokens int
}

// Headers returns the sub-header labels for every column, id first.
func (m *Matrix) Headers() []string {
	var out []string
	for _, g := range m.Groups {
		out = append(out, g.Columns...)
	}
	return out
}

// Width is the total number of columns including the id column.
func (m *Matrix) Width() int {
	if len(m.Groups) == 0 {
		return 0
	}
	return m.Groups[len(m.Groups)-1].End
}

// Layout returns the column groups in export order.
func Layout() []Group {
	blocks := []struct {
		title   string
		columns []string
	}{
		{"Visit", []string{"no."}},
		{visit.FieldGender.Title(), visit.FieldGender.Options()},
		{visit.FieldAgeGroup.Title(), visit.FieldAgeGroup.Options()},
		{visit.FieldResidence.Title(), visit.FieldResidence.Options()},
		{"Purpose", visit.PurposeLabels()},
		{visit.FieldVisitType.Title(), visit.FieldVisitType.Options()},
	}

	groups := make([]Group, 0, len(blocks))
	col := 1
	for _, b := range blocks {
		groups = append(groups, Group{
			Title:   b.title,
			Columns: b.columns,
			Start:   col,
			End:     col + len(b.columns) - 1,
		})
		col += len(b.columns)
	}
	return groups
}

// BuildMatrix flattens records into one-hot rows in the given order.
// A single-valued field whose value is outside its enumeration leaves its
// block all zero. The purpose block may carry several flags.
func BuildMatrix(records []*visit.Record) *Matrix {
	m := &Matrix{
		Groups: Layout(),
		Rows:   make([]Row, 0, len(records)),
	}
	m.Totals = make([]int, m.Width()-1)

	for _, rec := range records {
		if rec == nil {
			continue
		}

		flags := make([]int, 0, len(m.Totals))
		flags = oneHot(flags, visit.FieldGender.Options(), string(rec.Gender))
		flags = oneHot(flags, visit.FieldAgeGroup.Options(), string(rec.AgeGroup))
		flags = oneHot(flags, visit.FieldResidence.Options(), string(rec.Residence))

		d := visit.DecodePurpose(rec.Purpose)
		m.DroppedTokens += len(d.Dropped)
		for _, p := range visit.Purposes {
			flags = append(flags, bit(d.Has(p)))
		}

		flags = oneHot(flags, visit.FieldVisitType.Options(), string(rec.VisitType))

		for i, f := range flags {
			m.Totals[i] += f
		}
		m.Rows = append(m.Rows, Row{ID: rec.ID, Flags: flags})
	}

	return m
}

func oneHot(dst []int, options []string, value string) []int {
	for _, o := range options {
		dst = append(dst, bit(o == value))
	}
	return dst
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}
