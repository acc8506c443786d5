package store

import (
	"database/sql"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrChildNotFound = errors.New("child not found")
)

type Child struct {
	ChildId      sql.NullString `gorm:"primary_key"`
	CaregiverId  sql.NullString
	Name         sql.NullString
	Age          sql.NullInt64
	Gender       sql.NullString
	DateOfBirth  *time.Time
	Diagnosis    sql.NullString
	SpecialNeeds sql.NullString
	Notes        sql.NullString
	ImageUri     sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s *Store) AddChild(tx *gorm.DB, child Child) (Child, error) {
	db := s.dbOrTx(tx)

	child.ChildId = s.newId()
	if err := db.Create(&child).Error; err != nil {
		return Child{}, err
	}
	return child, nil
}

func (s *Store) GetChild(tx *gorm.DB, childId string) (Child, error) {
	db := s.dbOrTx(tx)

	child := Child{}
	res := db.Where("child_id = ?", childId).First(&child)
	if res.RecordNotFound() {
		return Child{}, ErrChildNotFound
	}
	if res.Error != nil {
		return Child{}, res.Error
	}
	return child, nil
}

func (s *Store) ListChildren(tx *gorm.DB, options SearchOptions) ([]Child, error) {
	db := s.dbOrTx(tx)

	query := db.Model(&Child{})
	if options.CaregiverId != "" {
		query = query.Where("caregiver_id = ?", options.CaregiverId)
	}

	children := []Child{}
	if err := query.Order("created_at desc").Find(&children).Error; err != nil {
		return nil, err
	}
	return children, nil
}

// UpdateChild writes the non blank fields of child. The owning caregiver never changes.
func (s *Store) UpdateChild(tx *gorm.DB, child Child) (Child, error) {
	db := s.dbOrTx(tx)

	if _, err := s.GetChild(db, child.ChildId.String); err != nil {
		return Child{}, err
	}

	child.CaregiverId = sql.NullString{}
	if err := db.Model(&Child{}).Where("child_id = ?", child.ChildId.String).Updates(child).Error; err != nil {
		return Child{}, err
	}
	return s.GetChild(db, child.ChildId.String)
}

func (s *Store) DeleteChild(tx *gorm.DB, childId string) error {
	db := s.dbOrTx(tx)

	res := db.Where("child_id = ?", childId).Delete(&Child{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrChildNotFound
	}
	return nil
}

func (s *Store) CountChildren(tx *gorm.DB, options SearchOptions) (int, error) {
	db := s.dbOrTx(tx)

	query := db.Model(&Child{})
	if options.CaregiverId != "" {
		query = query.Where("caregiver_id = ?", options.CaregiverId)
	}
	count := 0
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
