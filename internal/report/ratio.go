// Package report computes the admin console aggregates: categorical
// ratio breakdowns and the per-day visit series.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/evcraddock/visitlog/internal/visit"
)

var hundred = decimal.NewFromInt(100)

// Ratio is one row of a breakdown table.
type Ratio struct {
	Value   string  `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"` // one decimal place
}

// RatioByField counts records by the exact value of a single-valued field.
// Missing values count under "". Rows are ordered by count descending,
// then value ascending. Empty input yields an empty slice.
func RatioByField(records []*visit.Record, field visit.Field) []Ratio {
	counts := make(map[string]int)
	total := 0
	for _, rec := range records {
		if rec == nil {
			continue
		}
		counts[rec.Value(field)]++
		total++
	}
	return ratios(counts, total)
}

// RatioByPurpose explodes each record's purpose into its tag tokens and
// counts tokens. Percentages are over tag instances, not records, so a
// record with three tags adds three to the denominator.
func RatioByPurpose(records []*visit.Record) []Ratio {
	counts := make(map[string]int)
	total := 0
	for _, rec := range records {
		if rec == nil {
			continue
		}
		for _, tok := range visit.PurposeTokens(rec.Purpose) {
			counts[tok]++
			total++
		}
	}
	return ratios(counts, total)
}

func ratios(counts map[string]int, total int) []Ratio {
	out := make([]Ratio, 0, len(counts))
	if total == 0 {
		return out
	}

	denom := decimal.NewFromInt(int64(total))
	for v, c := range counts {
		pct := decimal.NewFromInt(int64(c)).Mul(hundred).Div(denom).Round(1)
		out = append(out, Ratio{Value: v, Count: c, Percent: pct.InexactFloat64()})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
