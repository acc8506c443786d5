package reporting

import (
	"encoding/json"
	"time"
)

const DateLayout = "2006-01-02"

// Child is the profile block of a report.
type Child struct {
	Id           string    `json:"id"`
	CaregiverId  string    `json:"caregiverId"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Gender       string    `json:"gender"`
	DateOfBirth  string    `json:"dateOfBirth,omitempty"` // yyyy-mm-dd
	Diagnosis    string    `json:"diagnosis,omitempty"`
	SpecialNeeds string    `json:"specialNeeds,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	ImageUri     string    `json:"imageUri,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Activity struct {
	Id               string          `json:"id"`
	ChildId          string          `json:"childId"`
	CaregiverId      string          `json:"caregiverId"`
	ActivityType     string          `json:"activityType"`
	ActivityName     string          `json:"activityName"`
	Score            *float64        `json:"score,omitempty"`
	MaxScore         *float64        `json:"maxScore,omitempty"`
	Percentage       *float64        `json:"percentage,omitempty"`
	Duration         *int64          `json:"duration,omitempty"` // seconds
	Attempts         *int64          `json:"attempts,omitempty"`
	Difficulty       string          `json:"difficulty,omitempty"`
	CorrectAnswers   *int64          `json:"correctAnswers,omitempty"`
	IncorrectAnswers *int64          `json:"incorrectAnswers,omitempty"`
	Details          json.RawMessage `json:"details,omitempty"`
	CompletedAt      time.Time       `json:"completedAt"`
}

// PercentageOrZero is the score an activity contributes to averages.
func (a Activity) PercentageOrZero() float64 {
	if a.Percentage == nil {
		return 0
	}
	return *a.Percentage
}

type ActivityStats struct {
	Count        int     `json:"count"`
	AverageScore float64 `json:"averageScore"`
}

type ProgressPoint struct {
	Date          string  `json:"date"` // yyyy-mm-dd, UTC
	ActivityCount int     `json:"activityCount"`
	AverageScore  float64 `json:"averageScore"`
}

type Statistics struct {
	TotalActivities  int                      `json:"totalActivities"`
	AverageScore     float64                  `json:"averageScore"`
	TotalGames       int                      `json:"totalGames"`
	TotalAssessments int                      `json:"totalAssessments"`
	TotalTherapy     int                      `json:"totalTherapy"`
	ByActivityType   map[string]ActivityStats `json:"byActivityType"` // keyed by activity name
	ProgressOverTime []ProgressPoint          `json:"progressOverTime"`
	RecentActivities []Activity               `json:"recentActivities"`
}

type CognitiveAssessment struct {
	OverallLevel     string   `json:"overallLevel"`
	Strengths        []string `json:"strengths"`
	ImprovementAreas []string `json:"improvementAreas"`
	Recommendations  []string `json:"recommendations"`
	ProgressTrend    string   `json:"progressTrend"`
}

type Report struct {
	Child               Child               `json:"child"`
	Statistics          Statistics          `json:"statistics"`
	CognitiveAssessment CognitiveAssessment `json:"cognitiveAssessment"`
	GeneratedAt         time.Time           `json:"generatedAt"`
}
