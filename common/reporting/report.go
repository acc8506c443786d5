package reporting

import (
	"time"
)

// NewReport aggregates the activities of child and assesses the result.
func NewReport(child Child, activities []Activity, generatedAt time.Time) Report {
	stats := Aggregate(activities)
	return Report{
		Child:               child,
		Statistics:          stats,
		CognitiveAssessment: Assess(stats),
		GeneratedAt:         generatedAt.UTC(),
	}
}
