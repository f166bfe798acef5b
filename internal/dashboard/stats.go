// Package dashboard aggregates session-wide statistics over project records.
package dashboard

import (
	"math"
	"sort"

	"github.com/josephgoksu/ReqWing/internal/project"
)

// Priority is a histogram bucket.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
)

// Priorities lists the buckets in display order.
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium}

// Score thresholds.
const (
	CriticalThreshold = 8
	HighThreshold     = 5
)

// RecentLimit is how many recent projects Compute returns.
const RecentLimit = 5

// Bucket is one histogram entry.
type Bucket struct {
	Priority Priority `json:"priority"`
	Count    int      `json:"count"`
}

// ProjectSummary is the dashboard view of one record.
type ProjectSummary struct {
	ID               int64         `json:"id"`
	Title            string        `json:"title"`
	RequirementCount int           `json:"requirement_count"`
	Stage            project.Stage `json:"stage"`
}

// Stats is the aggregation result.
type Stats struct {
	TotalProjects             int              `json:"total_projects"`
	TotalRequirements         int              `json:"total_requirements"`
	AvgRequirementsPerProject float64          `json:"avg_requirements_per_project"`
	PriorityHistogram         []Bucket         `json:"priority_histogram"`
	RecentProjects            []ProjectSummary `json:"recent_projects"`
}

// Count returns the histogram count for p.
func (s Stats) Count(p Priority) int {
	for _, b := range s.PriorityHistogram {
		if b.Priority == p {
			return b.Count
		}
	}
	return 0
}

// HistogramTotal sums all buckets.
func (s Stats) HistogramTotal() int {
	total := 0
	for _, b := range s.PriorityHistogram {
		total += b.Count
	}
	return total
}

// Classify maps a score to its bucket.
func Classify(score int) Priority {
	switch {
	case score >= CriticalThreshold:
		return PriorityCritical
	case score >= HighThreshold:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Compute aggregates records. It never mutates them. An empty input yields
// a zeroed Stats with all three histogram buckets present.
func Compute(records []*project.Record) Stats {
	counts := map[Priority]int{}
	stats := Stats{
		TotalProjects:  len(records),
		RecentProjects: []ProjectSummary{},
	}

	for _, r := range records {
		stats.TotalRequirements += len(r.Requirements)
		// Scores keyed by stale requirement text are simply never looked up.
		for _, req := range r.Requirements {
			counts[Classify(r.Score(req))]++
		}
	}

	stats.PriorityHistogram = make([]Bucket, 0, len(Priorities))
	for _, p := range Priorities {
		stats.PriorityHistogram = append(stats.PriorityHistogram, Bucket{Priority: p, Count: counts[p]})
	}

	if stats.TotalProjects > 0 {
		avg := float64(stats.TotalRequirements) / float64(stats.TotalProjects)
		stats.AvgRequirementsPerProject = math.RoundToEven(avg*10) / 10
	}

	sorted := make([]*project.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID > sorted[j].ID
	})
	if len(sorted) > RecentLimit {
		sorted = sorted[:RecentLimit]
	}
	for _, r := range sorted {
		stats.RecentProjects = append(stats.RecentProjects, ProjectSummary{
			ID:               r.ID,
			Title:            r.Title,
			RequirementCount: len(r.Requirements),
			Stage:            r.Stage,
		})
	}

	return stats
}
