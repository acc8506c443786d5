package store

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrActiveLevelExists  = errors.New("an active assessment already exists for this level")
)

type Question struct {
	Id       string   `json:"id" yaml:"id"`
	Category string   `json:"category" yaml:"category"`
	Question string   `json:"question" yaml:"question"`
	Options  []string `json:"options" yaml:"options"`
	Scores   []int    `json:"scores" yaml:"scores"`
}

// Questions is persisted as a json document in a text column.
type Questions []Question

func (q Questions) Value() (driver.Value, error) {
	if q == nil {
		return "[]", nil
	}
	b, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (q *Questions) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*q = Questions{}
		return nil
	case string:
		return json.Unmarshal([]byte(v), q)
	case []byte:
		return json.Unmarshal(v, q)
	default:
		return errors.New("questions must be stored as a json string")
	}
}

type Assessment struct {
	AssessmentId sql.NullString `gorm:"primary_key"`
	Level        sql.NullString
	Title        sql.NullString
	Description  sql.NullString
	Questions    Questions `gorm:"type:text"`
	IsActive     bool
	CreatedBy    sql.NullString
	UpdatedBy    sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s *Store) AddAssessment(tx *gorm.DB, assessment Assessment) (Assessment, error) {
	db := s.dbOrTx(tx)

	if assessment.IsActive {
		if err := s.checkLevelAvailable(db, assessment.Level.String, ""); err != nil {
			return Assessment{}, err
		}
	}

	assessment.AssessmentId = s.newId()
	if err := db.Create(&assessment).Error; err != nil {
		return Assessment{}, translateConstraintError(err)
	}
	return assessment, nil
}

func (s *Store) checkLevelAvailable(db *gorm.DB, level, excludedId string) error {
	query := db.Model(&Assessment{}).Where("level = ? AND is_active = ?", level, true)
	if excludedId != "" {
		query = query.Where("assessment_id <> ?", excludedId)
	}
	count := 0
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrActiveLevelExists
	}
	return nil
}

func (s *Store) GetAssessment(tx *gorm.DB, assessmentId string) (Assessment, error) {
	return s.findAssessment(tx, "assessment_id = ?", assessmentId)
}

func (s *Store) GetActiveAssessmentByLevel(tx *gorm.DB, level string) (Assessment, error) {
	return s.findAssessment(tx, "level = ? AND is_active = ?", level, true)
}

func (s *Store) findAssessment(tx *gorm.DB, where string, args ...interface{}) (Assessment, error) {
	db := s.dbOrTx(tx)

	assessment := Assessment{}
	res := db.Where(where, args...).First(&assessment)
	if res.RecordNotFound() {
		return Assessment{}, ErrAssessmentNotFound
	}
	if res.Error != nil {
		return Assessment{}, res.Error
	}
	return assessment, nil
}

func (s *Store) ListAssessments(tx *gorm.DB, activeOnly bool) ([]Assessment, error) {
	db := s.dbOrTx(tx)

	query := db.Model(&Assessment{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	assessments := []Assessment{}
	if err := query.Order("level asc").Order("created_at desc").Find(&assessments).Error; err != nil {
		return nil, err
	}
	return assessments, nil
}

func (s *Store) CountAssessments(tx *gorm.DB) (int, error) {
	db := s.dbOrTx(tx)

	count := 0
	if err := db.Model(&Assessment{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateAssessment writes the non blank fields of assessment; activation goes through SetAssessmentActive.
func (s *Store) UpdateAssessment(tx *gorm.DB, assessment Assessment) (Assessment, error) {
	db := s.dbOrTx(tx)

	current, err := s.GetAssessment(db, assessment.AssessmentId.String)
	if err != nil {
		return Assessment{}, err
	}

	if current.IsActive && assessment.Level.Valid && assessment.Level.String != current.Level.String {
		if err := s.checkLevelAvailable(db, assessment.Level.String, current.AssessmentId.String); err != nil {
			return Assessment{}, err
		}
	}

	assessment.IsActive = false
	if err := db.Model(&Assessment{}).Where("assessment_id = ?", current.AssessmentId.String).Updates(assessment).Error; err != nil {
		return Assessment{}, translateConstraintError(err)
	}
	return s.GetAssessment(db, current.AssessmentId.String)
}

func (s *Store) SetAssessmentActive(tx *gorm.DB, assessmentId string, active bool, updatedBy string) (Assessment, error) {
	db := s.dbOrTx(tx)

	current, err := s.GetAssessment(db, assessmentId)
	if err != nil {
		return Assessment{}, err
	}
	if active && !current.IsActive {
		if err := s.checkLevelAvailable(db, current.Level.String, assessmentId); err != nil {
			return Assessment{}, err
		}
	}

	columns := map[string]interface{}{"is_active": active}
	if updatedBy != "" {
		columns["updated_by"] = updatedBy
	}
	if err := db.Model(&Assessment{}).Where("assessment_id = ?", assessmentId).Updates(columns).Error; err != nil {
		return Assessment{}, translateConstraintError(err)
	}
	return s.GetAssessment(db, assessmentId)
}

func (s *Store) DeleteAssessment(tx *gorm.DB, assessmentId string) error {
	db := s.dbOrTx(tx)

	res := db.Where("assessment_id = ?", assessmentId).Delete(&Assessment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAssessmentNotFound
	}
	return nil
}
