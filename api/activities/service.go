package activities

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/children"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/api"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/claims"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/log"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store"

	"github.com/araddon/dateparse"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrInvalidType        = shared.Invalid("activityType must be game, assessment or therapy")
	ErrMissingName        = shared.Invalid("activityName is required")
	ErrNegativeScore      = shared.Invalid("score cannot be negative")
	ErrInvalidMaxScore    = shared.Invalid("maxScore must be greater than 0")
	ErrInvalidPercentage  = shared.Invalid("percentage must be between 0 and 100")
	ErrNegativeCounter    = shared.Invalid("duration, attempts and answer counts cannot be negative")
	ErrInvalidCompletedAt = shared.Invalid("completedAt is not a valid date")
	ErrInvalidLimit       = shared.Invalid("limit must be a positive number")
)

var activityTypes = []string{store.ActivityTypeGame, store.ActivityTypeAssessment, store.ActivityTypeTherapy}

type Service interface {
	RecordActivity(ctx context.Context, request api.ActivityRequest) (store.Activity, error)
	ListActivities(ctx context.Context, childId string, limit int) ([]store.Activity, error)
}

type ActivityService struct {
	Store interface {
		AddActivity(tx *gorm.DB, activity store.Activity) (store.Activity, error)
		ListActivities(tx *gorm.DB, childId string, limit int) ([]store.Activity, error)
	} `inject:""`
	Guard  *children.Guard   `inject:""`
	Config *shared.AppConfig `inject:""`
	Logger *log.Logger       `inject:""`
}

func (c *ActivityService) RecordActivity(ctx context.Context, request api.ActivityRequest) (store.Activity, error) {
	child, err := c.Guard.Load(ctx, request.ChildId, children.Write)
	if err != nil {
		return store.Activity{}, errors.Wrap(err, "failed to record activity")
	}

	activity, err := transportToStore(request)
	if err != nil {
		return store.Activity{}, err
	}
	activity.ChildId = child.ChildId
	activity.CaregiverId = store.DbNullString(claims.GetUserId(ctx))

	recorded, err := c.Store.AddActivity(nil, activity)
	if err != nil {
		return store.Activity{}, errors.Wrap(err, "failed to record activity")
	}
	c.Logger.Info(ctx, "activity recorded", "childId", child.ChildId.String, "activityId", recorded.ActivityId.String, "activityType", recorded.ActivityType.String)
	return recorded, nil
}

func (c *ActivityService) ListActivities(ctx context.Context, childId string, limit int) ([]store.Activity, error) {
	if _, err := c.Guard.Load(ctx, childId, children.Read); err != nil {
		return nil, errors.Wrap(err, "failed to list activities")
	}
	if limit <= 0 || limit > c.Config.ActivityScanLimit {
		limit = c.Config.ActivityScanLimit
	}
	activities, err := c.Store.ListActivities(nil, childId, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list activities")
	}
	return activities, nil
}

// Percentage derives the 0-100 score of an activity when the caller did not provide one.
func Percentage(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	p := math.Round(score/maxScore*10000) / 100
	return math.Max(0, math.Min(100, p))
}

func transportToStore(request api.ActivityRequest) (store.Activity, error) {
	activityType := strings.ToLower(strings.TrimSpace(request.ActivityType))
	if !validType(activityType) {
		return store.Activity{}, ErrInvalidType
	}
	name := strings.TrimSpace(request.ActivityName)
	if name == "" {
		return store.Activity{}, ErrMissingName
	}

	if request.Score != nil && *request.Score < 0 {
		return store.Activity{}, ErrNegativeScore
	}
	if request.MaxScore != nil && *request.MaxScore <= 0 {
		return store.Activity{}, ErrInvalidMaxScore
	}
	if request.Percentage != nil && (*request.Percentage < 0 || *request.Percentage > 100) {
		return store.Activity{}, ErrInvalidPercentage
	}
	for _, counter := range []*int64{request.Duration, request.Attempts, request.CorrectAnswers, request.IncorrectAnswers} {
		if counter != nil && *counter < 0 {
			return store.Activity{}, ErrNegativeCounter
		}
	}

	percentage := request.Percentage
	if percentage == nil && request.Score != nil && request.MaxScore != nil {
		derived := Percentage(*request.Score, *request.MaxScore)
		percentage = &derived
	}

	activity := store.Activity{
		ActivityType:     store.DbNullString(activityType),
		ActivityName:     store.DbNullString(name),
		Score:            store.DbNullFloat64(request.Score),
		MaxScore:         store.DbNullFloat64(request.MaxScore),
		Percentage:       store.DbNullFloat64(percentage),
		Duration:         store.DbNullInt64(request.Duration),
		Attempts:         store.DbNullInt64(request.Attempts),
		Difficulty:       store.DbNullString(strings.TrimSpace(request.Difficulty)),
		CorrectAnswers:   store.DbNullInt64(request.CorrectAnswers),
		IncorrectAnswers: store.DbNullInt64(request.IncorrectAnswers),
	}

	if len(request.Details) > 0 {
		details, err := json.Marshal(request.Details)
		if err != nil {
			return store.Activity{}, shared.Invalid("details must be a json object")
		}
		activity.Details = store.DbNullString(string(details))
	}

	if request.CompletedAt != "" {
		completedAt, err := dateparse.ParseIn(request.CompletedAt, time.UTC)
		if err != nil {
			return store.Activity{}, errors.Wrap(ErrInvalidCompletedAt, err.Error())
		}
		activity.CompletedAt = completedAt.UTC()
	}
	return activity, nil
}

func validType(activityType string) bool {
	for _, t := range activityTypes {
		if t == activityType {
			return true
		}
	}
	return false
}
