package store

import (
	"database/sql"
	"time"

	"github.com/jinzhu/gorm"
)

const (
	ActivityTypeGame       = "game"
	ActivityTypeAssessment = "assessment"
	ActivityTypeTherapy    = "therapy"

	DefaultActivityScanLimit = 1000
)

// Activity is append only: there is no update path.
type Activity struct {
	ActivityId       sql.NullString `gorm:"primary_key"`
	ChildId          sql.NullString
	CaregiverId      sql.NullString
	ActivityType     sql.NullString
	ActivityName     sql.NullString
	Score            sql.NullFloat64
	MaxScore         sql.NullFloat64
	Percentage       sql.NullFloat64
	Duration         sql.NullInt64
	Attempts         sql.NullInt64
	Difficulty       sql.NullString
	CorrectAnswers   sql.NullInt64
	IncorrectAnswers sql.NullInt64
	Details          sql.NullString
	CompletedAt      time.Time
	CreatedAt        time.Time
}

func (s *Store) AddActivity(tx *gorm.DB, activity Activity) (Activity, error) {
	db := s.dbOrTx(tx)

	activity.ActivityId = s.newId()
	if activity.CompletedAt.IsZero() {
		activity.CompletedAt = time.Now().UTC()
	}
	if err := db.Create(&activity).Error; err != nil {
		return Activity{}, err
	}
	return activity, nil
}

// ListActivities returns the most recent activities of a child, newest first.
func (s *Store) ListActivities(tx *gorm.DB, childId string, limit int) ([]Activity, error) {
	db := s.dbOrTx(tx)

	if limit <= 0 {
		limit = DefaultActivityScanLimit
	}

	activities := []Activity{}
	err := db.Model(&Activity{}).
		Where("child_id = ?", childId).
		Order("completed_at desc").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

func (s *Store) DeleteActivitiesOfChild(tx *gorm.DB, childId string) (int64, error) {
	db := s.dbOrTx(tx)

	res := db.Where("child_id = ?", childId).Delete(&Activity{})
	return res.RowsAffected, res.Error
}
