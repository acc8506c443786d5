package insights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/reports"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/api"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/llm"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/log"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/reporting"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/tracing"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const (
	maxFocusLength = 200
	systemPrompt   = "You are a supportive child development assistant helping the caregiver of an autistic child. " +
		"Write a short narrative (at most three paragraphs) about the child's recent progress, in plain and encouraging language. " +
		"Only use the data you are given, do not make a diagnosis, and suggest one or two concrete activities for the coming week."
)

var ErrFocusTooLong = shared.Invalid(fmt.Sprintf("focus cannot exceed %d characters", maxFocusLength))

type Service interface {
	GenerateInsight(ctx context.Context, request api.InsightRequest) (api.InsightTransport, error)
}

type InsightService struct {
	Reports reports.Service `inject:""`
	Llm     llm.Completer   `inject:""`
	Logger  *log.Logger     `inject:""`
}

func (c *InsightService) GenerateInsight(ctx context.Context, request api.InsightRequest) (insight api.InsightTransport, err error) {
	ctx, span := tracing.Start(ctx, "insights.generate", attribute.String("child.id", request.ChildId))
	defer func() { tracing.End(span, err) }()

	focus := strings.TrimSpace(request.Focus)
	if len(focus) > maxFocusLength {
		return api.InsightTransport{}, ErrFocusTooLong
	}

	report, err := c.Reports.Report(ctx, request.ChildId)
	if err != nil {
		return api.InsightTransport{}, errors.Wrap(err, "failed to generate insight")
	}

	completion, err := c.Llm.Complete(ctx, systemPrompt, Prompt(report, focus))
	if err != nil {
		c.Logger.Warn(ctx, "language model call failed", "childId", request.ChildId, "err", err)
		return api.InsightTransport{}, errors.Wrap(err, "failed to generate insight")
	}
	c.Logger.Info(ctx, "insight generated", "childId", request.ChildId, "model", completion.Model)

	return api.InsightTransport{
		ChildId:     request.ChildId,
		Insight:     completion.Text,
		Model:       completion.Model,
		GeneratedAt: report.GeneratedAt,
	}, nil
}

// Prompt describes the report to the language model. Activity details are left out.
func Prompt(report reporting.Report, focus string) string {
	b := &strings.Builder{}
	child := report.Child
	fmt.Fprintf(b, "Child: %s, %d years old", child.Name, child.Age)
	if child.Gender != "" {
		fmt.Fprintf(b, ", %s", child.Gender)
	}
	b.WriteString(".\n")
	if child.Diagnosis != "" {
		fmt.Fprintf(b, "Diagnosis: %s.\n", child.Diagnosis)
	}
	if child.SpecialNeeds != "" {
		fmt.Fprintf(b, "Special needs: %s.\n", child.SpecialNeeds)
	}

	stats := report.Statistics
	if stats.TotalActivities == 0 {
		b.WriteString("No activities have been recorded yet.\n")
	} else {
		fmt.Fprintf(b, "Activities: %d (%d games, %d assessments, %d therapy sessions), average score %.1f%%.\n",
			stats.TotalActivities, stats.TotalGames, stats.TotalAssessments, stats.TotalTherapy, stats.AverageScore)
		for _, point := range stats.ProgressOverTime {
			fmt.Fprintf(b, "- %s: %d activities, average %.1f%%\n", point.Date, point.ActivityCount, point.AverageScore)
		}
	}

	assessment := report.CognitiveAssessment
	fmt.Fprintf(b, "Overall level: %s. Trend: %s.\n", assessment.OverallLevel, assessment.ProgressTrend)
	if len(assessment.Strengths) > 0 {
		fmt.Fprintf(b, "Strengths: %s.\n", strings.Join(assessment.Strengths, ", "))
	}
	if len(assessment.ImprovementAreas) > 0 {
		fmt.Fprintf(b, "Areas to improve: %s.\n", strings.Join(assessment.ImprovementAreas, ", "))
	}
	if focus != "" {
		fmt.Fprintf(b, "The caregiver is especially interested in: %s\n", focus)
	}
	fmt.Fprintf(b, "Report date: %s.", report.GeneratedAt.UTC().Format(time.RFC1123))
	return b.String()
}
