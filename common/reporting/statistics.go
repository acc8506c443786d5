package reporting

import (
	"sort"
)

const (
	ActivityTypeGame       = "game"
	ActivityTypeAssessment = "assessment"
	ActivityTypeTherapy    = "therapy"

	RecentActivitiesCount = 10
)

type bucket struct {
	count int
	sum   float64
}

func (b bucket) average() float64 {
	if b.count == 0 {
		return 0
	}
	return b.sum / float64(b.count)
}

// Aggregate reduces the activities of one child into its statistics.
// An activity without a percentage counts for 0 in every average.
func Aggregate(activities []Activity) Statistics {
	stats := Statistics{
		ByActivityType:   map[string]ActivityStats{},
		ProgressOverTime: []ProgressPoint{},
		RecentActivities: []Activity{},
	}
	if len(activities) == 0 {
		return stats
	}

	sorted := make([]Activity, len(activities))
	copy(sorted, activities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CompletedAt.After(sorted[j].CompletedAt)
	})

	var total bucket
	byName := map[string]bucket{}
	byDay := map[string]bucket{}

	for _, activity := range sorted {
		score := activity.PercentageOrZero()

		total.count++
		total.sum += score

		switch activity.ActivityType {
		case ActivityTypeGame:
			stats.TotalGames++
		case ActivityTypeAssessment:
			stats.TotalAssessments++
		case ActivityTypeTherapy:
			stats.TotalTherapy++
		}

		name := byName[activity.ActivityName]
		name.count++
		name.sum += score
		byName[activity.ActivityName] = name

		dayKey := activity.CompletedAt.UTC().Format(DateLayout)
		day := byDay[dayKey]
		day.count++
		day.sum += score
		byDay[dayKey] = day
	}

	stats.TotalActivities = total.count
	stats.AverageScore = total.average()

	for name, b := range byName {
		stats.ByActivityType[name] = ActivityStats{Count: b.count, AverageScore: b.average()}
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	for _, d := range days {
		stats.ProgressOverTime = append(stats.ProgressOverTime, ProgressPoint{
			Date:          d,
			ActivityCount: byDay[d].count,
			AverageScore:  byDay[d].average(),
		})
	}

	recent := sorted
	if len(recent) > RecentActivitiesCount {
		recent = recent[:RecentActivitiesCount]
	}
	stats.RecentActivities = append(stats.RecentActivities, recent...)

	return stats
}
