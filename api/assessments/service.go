package assessments

import (
	"context"
	"fmt"
	"strings"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/api"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/claims"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/log"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

const (
	MinOptions = 3
	MaxOptions = 4
)

var (
	Levels     = []string{"easy", "intermediate", "advanced", "sensory", "screening"}
	Categories = []string{"social", "communication", "behavior", "sensory", "cognitive", "motor"}
)

var (
	ErrInvalidLevel    = shared.Invalid(fmt.Sprintf("level must be one of %v", Levels))
	ErrMissingTitle    = shared.Invalid("title is required")
	ErrMissingQuestion = shared.Invalid("at least one question is required")
)

type Service interface {
	ListActive(ctx context.Context) ([]store.Assessment, error)
	GetActiveByLevel(ctx context.Context, level string) (store.Assessment, error)
	ListAll(ctx context.Context) ([]store.Assessment, error)
	AddAssessment(ctx context.Context, request api.AssessmentTransport) (store.Assessment, error)
	UpdateAssessment(ctx context.Context, request api.AssessmentTransport) (store.Assessment, error)
	ToggleAssessment(ctx context.Context, assessmentId string) (store.Assessment, error)
	DeleteAssessment(ctx context.Context, assessmentId string) error
}

type AssessmentService struct {
	Store interface {
		Tx() *gorm.DB
		AddAssessment(tx *gorm.DB, assessment store.Assessment) (store.Assessment, error)
		GetAssessment(tx *gorm.DB, assessmentId string) (store.Assessment, error)
		GetActiveAssessmentByLevel(tx *gorm.DB, level string) (store.Assessment, error)
		ListAssessments(tx *gorm.DB, activeOnly bool) ([]store.Assessment, error)
		CountAssessments(tx *gorm.DB) (int, error)
		UpdateAssessment(tx *gorm.DB, assessment store.Assessment) (store.Assessment, error)
		SetAssessmentActive(tx *gorm.DB, assessmentId string, active bool, updatedBy string) (store.Assessment, error)
		DeleteAssessment(tx *gorm.DB, assessmentId string) error
	} `inject:""`
	Logger *log.Logger `inject:""`
}

func (c *AssessmentService) ListActive(ctx context.Context) ([]store.Assessment, error) {
	assessments, err := c.Store.ListAssessments(nil, true)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list assessments")
	}
	return assessments, nil
}

func (c *AssessmentService) GetActiveByLevel(ctx context.Context, level string) (store.Assessment, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if !contains(Levels, level) {
		return store.Assessment{}, ErrInvalidLevel
	}
	assessment, err := c.Store.GetActiveAssessmentByLevel(nil, level)
	if err != nil {
		return store.Assessment{}, errors.Wrap(err, "failed to get assessment")
	}
	return assessment, nil
}

func (c *AssessmentService) ListAll(ctx context.Context) ([]store.Assessment, error) {
	assessments, err := c.Store.ListAssessments(nil, false)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list assessments")
	}
	return assessments, nil
}

func (c *AssessmentService) AddAssessment(ctx context.Context, request api.AssessmentTransport) (store.Assessment, error) {
	assessment, err := transportToStore(request, true)
	if err != nil {
		return store.Assessment{}, err
	}
	assessment.IsActive = request.IsActive == nil || *request.IsActive
	assessment.CreatedBy = store.DbNullString(claims.GetUserId(ctx))
	assessment.UpdatedBy = assessment.CreatedBy

	created, err := c.Store.AddAssessment(nil, assessment)
	if err != nil {
		return store.Assessment{}, errors.Wrap(err, "failed to create assessment")
	}
	c.Logger.Info(ctx, "assessment created", "assessmentId", created.AssessmentId.String, "level", created.Level.String)
	return created, nil
}

func (c *AssessmentService) UpdateAssessment(ctx context.Context, request api.AssessmentTransport) (store.Assessment, error) {
	assessment, err := transportToStore(request, false)
	if err != nil {
		return store.Assessment{}, err
	}
	assessment.AssessmentId = store.DbNullString(request.Id)
	assessment.UpdatedBy = store.DbNullString(claims.GetUserId(ctx))

	tx := c.Store.Tx()
	if tx.Error != nil {
		return store.Assessment{}, errors.Wrap(tx.Error, "failed to update assessment")
	}

	updated, err := c.Store.UpdateAssessment(tx, assessment)
	if err != nil {
		tx.Rollback()
		return store.Assessment{}, errors.Wrap(err, "failed to update assessment")
	}
	if request.IsActive != nil && *request.IsActive != updated.IsActive {
		if updated, err = c.Store.SetAssessmentActive(tx, request.Id, *request.IsActive, claims.GetUserId(ctx)); err != nil {
			tx.Rollback()
			return store.Assessment{}, errors.Wrap(err, "failed to update assessment")
		}
	}

	if err := tx.Commit().Error; err != nil {
		return store.Assessment{}, errors.Wrap(err, "failed to update assessment")
	}
	return updated, nil
}

func (c *AssessmentService) ToggleAssessment(ctx context.Context, assessmentId string) (store.Assessment, error) {
	current, err := c.Store.GetAssessment(nil, assessmentId)
	if err != nil {
		return store.Assessment{}, errors.Wrap(err, "failed to toggle assessment")
	}
	toggled, err := c.Store.SetAssessmentActive(nil, assessmentId, !current.IsActive, claims.GetUserId(ctx))
	if err != nil {
		return store.Assessment{}, errors.Wrap(err, "failed to toggle assessment")
	}
	c.Logger.Info(ctx, "assessment toggled", "assessmentId", assessmentId, "isActive", toggled.IsActive)
	return toggled, nil
}

func (c *AssessmentService) DeleteAssessment(ctx context.Context, assessmentId string) error {
	if err := c.Store.DeleteAssessment(nil, assessmentId); err != nil {
		return errors.Wrap(err, "failed to delete assessment")
	}
	c.Logger.Info(ctx, "assessment deleted", "assessmentId", assessmentId)
	return nil
}

// transportToStore validates request. On update every field is optional but the questions, when given,
// replace the whole list.
func transportToStore(request api.AssessmentTransport, strict bool) (store.Assessment, error) {
	level := strings.ToLower(strings.TrimSpace(request.Level))
	if (strict || level != "") && !contains(Levels, level) {
		return store.Assessment{}, ErrInvalidLevel
	}
	title := strings.TrimSpace(request.Title)
	if strict && title == "" {
		return store.Assessment{}, ErrMissingTitle
	}
	if strict && len(request.Questions) == 0 {
		return store.Assessment{}, ErrMissingQuestion
	}

	assessment := store.Assessment{
		Level:       store.DbNullString(level),
		Title:       store.DbNullString(title),
		Description: store.DbNullString(strings.TrimSpace(request.Description)),
	}
	if len(request.Questions) > 0 {
		questions, err := validateQuestions(request.Questions)
		if err != nil {
			return store.Assessment{}, err
		}
		assessment.Questions = questions
	}
	return assessment, nil
}

func validateQuestions(questions []api.QuestionTransport) (store.Questions, error) {
	ret := store.Questions{}
	seen := map[string]bool{}
	for i, q := range questions {
		position := i + 1
		id := strings.TrimSpace(q.Id)
		if id == "" {
			id = fmt.Sprintf("q%d", position)
		}
		if seen[id] {
			return nil, shared.Invalid(fmt.Sprintf("question %d: id %s is used twice", position, id))
		}
		seen[id] = true

		if strings.TrimSpace(q.Question) == "" {
			return nil, shared.Invalid(fmt.Sprintf("question %d: text is required", position))
		}
		category := strings.ToLower(strings.TrimSpace(q.Category))
		if !contains(Categories, category) {
			return nil, shared.Invalid(fmt.Sprintf("question %d: category must be one of %v", position, Categories))
		}
		if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
			return nil, shared.Invalid(fmt.Sprintf("question %d: must have 3 or 4 options", position))
		}
		if len(q.Scores) != len(q.Options) {
			return nil, shared.Invalid(fmt.Sprintf("question %d: scores must have one entry per option", position))
		}
		ret = append(ret, store.Question{
			Id:       id,
			Category: category,
			Question: strings.TrimSpace(q.Question),
			Options:  q.Options,
			Scores:   q.Scores,
		})
	}
	return ret, nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
