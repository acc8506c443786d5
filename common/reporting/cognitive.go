package reporting

import (
	"fmt"
	"sort"
)

const (
	LevelNotAssessed  = "Not Assessed"
	LevelExcellent    = "Excellent"
	LevelGood         = "Good"
	LevelFair         = "Fair"
	LevelNeedsSupport = "Needs Support"

	TrendImproving = "Improving"
	TrendDeclining = "Declining"
	TrendStable    = "Stable"

	strengthThreshold    = 75
	improvementThreshold = 60
	trendWindow          = 3
	trendDelta           = 5
)

const (
	RecommendationBaseline      = "Start with a few games and a baseline assessment so progress can be measured."
	RecommendationKeepGoing     = "Progress is improving: continue with the current approach and routine."
	RecommendationAdjust        = "Scores are declining: consider adjusting the difficulty or the session length."
	RecommendationMoreGames     = "Encourage more game sessions to build engagement and gather more data."
	RecommendationMoreAssess    = "Schedule regular assessments to track development more accurately."
	RecommendationFoundational  = "Focus on foundational skills with shorter and simpler activities."
	RecommendationConsultExpert = "Consider consulting a specialist for a personalised intervention plan."
)

// Assess maps the statistics of a child to a qualitative assessment.
func Assess(stats Statistics) CognitiveAssessment {
	assessment := CognitiveAssessment{
		Strengths:        []string{},
		ImprovementAreas: []string{},
		Recommendations:  []string{},
		ProgressTrend:    TrendStable,
	}

	if stats.TotalActivities == 0 {
		assessment.OverallLevel = LevelNotAssessed
		assessment.Recommendations = append(assessment.Recommendations, RecommendationBaseline)
		return assessment
	}

	assessment.OverallLevel = OverallLevel(stats.AverageScore)

	names := make([]string, 0, len(stats.ByActivityType))
	for name := range stats.ByActivityType {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		avg := stats.ByActivityType[name].AverageScore
		switch {
		case avg >= strengthThreshold:
			assessment.Strengths = append(assessment.Strengths, describe(name, avg))
		case avg < improvementThreshold:
			assessment.ImprovementAreas = append(assessment.ImprovementAreas, describe(name, avg))
		}
	}

	assessment.ProgressTrend = Trend(stats.ProgressOverTime)

	switch assessment.ProgressTrend {
	case TrendImproving:
		assessment.Recommendations = append(assessment.Recommendations, RecommendationKeepGoing)
	case TrendDeclining:
		assessment.Recommendations = append(assessment.Recommendations, RecommendationAdjust)
	}
	if stats.TotalGames < 5 {
		assessment.Recommendations = append(assessment.Recommendations, RecommendationMoreGames)
	}
	if stats.TotalAssessments < 2 {
		assessment.Recommendations = append(assessment.Recommendations, RecommendationMoreAssess)
	}
	if stats.AverageScore < improvementThreshold {
		assessment.Recommendations = append(assessment.Recommendations, RecommendationFoundational, RecommendationConsultExpert)
	}

	return assessment
}

func OverallLevel(averageScore float64) string {
	switch {
	case averageScore >= 85:
		return LevelExcellent
	case averageScore >= 70:
		return LevelGood
	case averageScore >= 55:
		return LevelFair
	default:
		return LevelNeedsSupport
	}
}

// Trend compares the mean of the last three daily averages with the mean of the first three.
// With fewer than six days both windows overlap.
func Trend(points []ProgressPoint) string {
	if len(points) < trendWindow {
		return TrendStable
	}
	first := meanScore(points[:trendWindow])
	last := meanScore(points[len(points)-trendWindow:])

	switch diff := last - first; {
	case diff > trendDelta:
		return TrendImproving
	case diff < -trendDelta:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func meanScore(points []ProgressPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range points {
		sum += p.AverageScore
	}
	return sum / float64(len(points))
}

func describe(name string, avg float64) string {
	return fmt.Sprintf("%s (%.1f%%)", name, avg)
}
