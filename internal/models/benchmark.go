// internal/models/benchmark.go
package models

import "time"

// BenchmarkStat holds normative statistics for one competency across all
// completed assessments sharing a template lineage within an agency.
type BenchmarkStat struct {
	CompetencyID string  `json:"competencyId"`
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	P25          float64 `json:"p25"`
	P75          float64 `json:"p75"`
	StdDev       float64 `json:"stdDev"`
	SampleSize   int     `json:"sampleSize"`
}

// Benchmark is keyed uniquely by (AgencyID, TemplateID), where TemplateID
// is the lineage root. Each recomputation replaces the full row; sample
// size only grows unless an explicit rebuild removes assessments.
type Benchmark struct {
	ID           string          `json:"id"`
	AgencyID     string          `json:"agencyId"`
	TemplateID   string          `json:"templateId"`
	Competencies []BenchmarkStat `json:"competencies"`
	SampleSize   int             `json:"sampleSize"`
	ComputedAt   time.Time       `json:"computedAt"`
}

// Stat returns the per-competency statistics row, if present.
func (b *Benchmark) Stat(competencyID string) (BenchmarkStat, bool) {
	for _, s := range b.Competencies {
		if s.CompetencyID == competencyID {
			return s, true
		}
	}
	return BenchmarkStat{}, false
}
