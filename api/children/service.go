package children

import (
	"context"
	"strings"
	"time"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/api"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/claims"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/log"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/storage"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store"

	"github.com/araddon/dateparse"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

const (
	MinAge = 1
	MaxAge = 18
)

var (
	ErrMissingName        = shared.Invalid("name is required")
	ErrMissingAge         = shared.Invalid("age is required")
	ErrInvalidAge         = shared.Invalid("age must be between 1 and 18")
	ErrInvalidGender      = shared.Invalid("gender must be male, female or other")
	ErrInvalidDateOfBirth = shared.Invalid("dateOfBirth is not a valid date")
	ErrEmptyChild         = shared.Invalid("childId cannot be empty")
)

var genders = []string{"male", "female", "other"}

type Service interface {
	AddChild(ctx context.Context, request api.ChildRequest) (store.Child, error)
	GetChild(ctx context.Context, childId string) (store.Child, error)
	ListChildren(ctx context.Context) ([]store.Child, error)
	UpdateChild(ctx context.Context, request api.ChildRequest) (store.Child, error)
	DeleteChild(ctx context.Context, childId string) error
	ImageUrl(ctx context.Context, child store.Child) string
}

type ChildService struct {
	Store interface {
		Tx() *gorm.DB
		AddChild(tx *gorm.DB, child store.Child) (store.Child, error)
		GetChild(tx *gorm.DB, childId string) (store.Child, error)
		ListChildren(tx *gorm.DB, options store.SearchOptions) ([]store.Child, error)
		UpdateChild(tx *gorm.DB, child store.Child) (store.Child, error)
		DeleteChild(tx *gorm.DB, childId string) error
		DeleteActivitiesOfChild(tx *gorm.DB, childId string) (int64, error)
	} `inject:""`
	Guard   *Guard          `inject:""`
	Storage storage.Storage `inject:""`
	Logger  *log.Logger     `inject:""`
}

func imageFolder(childId string) string {
	return "children/" + childId
}

// isStoredObject tells an object name kept in the bucket apart from an external url.
func isStoredObject(imageUri string) bool {
	return imageUri != "" && !strings.HasPrefix(imageUri, "http://") && !strings.HasPrefix(imageUri, "https://")
}

func (c *ChildService) ImageUrl(ctx context.Context, child store.Child) string {
	if !isStoredObject(child.ImageUri.String) {
		return child.ImageUri.String
	}
	uri, err := c.Storage.Get(ctx, child.ImageUri.String)
	if err != nil {
		c.Logger.Warn(ctx, "failed to generate image uri", "imageUri", child.ImageUri.String, "err", err.Error())
		return ""
	}
	return uri
}

func (c *ChildService) AddChild(ctx context.Context, request api.ChildRequest) (store.Child, error) {
	childToCreate, err := transportToStore(request, true)
	if err != nil {
		return store.Child{}, err
	}
	childToCreate.CaregiverId = store.DbNullString(claims.GetUserId(ctx))

	image := childToCreate.ImageUri.String
	if storage.IsDataUri(image) {
		childToCreate.ImageUri = store.DbNullString("")
	}

	tx := c.Store.Tx()
	if tx.Error != nil {
		return store.Child{}, errors.Wrap(tx.Error, "failed to add child")
	}

	child, err := c.Store.AddChild(tx, childToCreate)
	if err != nil {
		tx.Rollback()
		return store.Child{}, errors.Wrap(err, "failed to add child")
	}

	if storage.IsDataUri(image) {
		objectName, err := c.Storage.Store(ctx, image, imageFolder(child.ChildId.String))
		if err != nil {
			tx.Rollback()
			return store.Child{}, errors.Wrap(err, "failed to store image")
		}
		if child, err = c.Store.UpdateChild(tx, store.Child{ChildId: child.ChildId, ImageUri: store.DbNullString(objectName)}); err != nil {
			tx.Rollback()
			c.deleteImage(ctx, objectName)
			return store.Child{}, errors.Wrap(err, "failed to add child")
		}
	}

	if err := tx.Commit().Error; err != nil {
		return store.Child{}, errors.Wrap(err, "failed to add child")
	}
	c.Logger.Info(ctx, "child added", "childId", child.ChildId.String)
	return child, nil
}

func (c *ChildService) GetChild(ctx context.Context, childId string) (store.Child, error) {
	child, err := c.Guard.Load(ctx, childId, Read)
	if err != nil {
		return store.Child{}, errors.Wrap(err, "failed to get child")
	}
	return child, nil
}

func (c *ChildService) ListChildren(ctx context.Context) ([]store.Child, error) {
	options := store.SearchOptions{}
	if !claims.GetRole(ctx).SeesAllChildren() {
		options.CaregiverId = claims.GetUserId(ctx)
	}
	children, err := c.Store.ListChildren(nil, options)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list children")
	}
	return children, nil
}

func (c *ChildService) UpdateChild(ctx context.Context, request api.ChildRequest) (store.Child, error) {
	if request.Id == "" {
		return store.Child{}, ErrEmptyChild
	}
	current, err := c.Guard.Load(ctx, request.Id, Write)
	if err != nil {
		return store.Child{}, errors.Wrap(err, "failed to update child")
	}

	childToUpdate, err := transportToStore(request, false)
	if err != nil {
		return store.Child{}, err
	}

	var uploaded string
	if storage.IsDataUri(request.ImageUri) {
		if uploaded, err = c.Storage.Store(ctx, request.ImageUri, imageFolder(current.ChildId.String)); err != nil {
			return store.Child{}, errors.Wrap(err, "failed to store image")
		}
		childToUpdate.ImageUri = store.DbNullString(uploaded)
	}

	child, err := c.Store.UpdateChild(nil, childToUpdate)
	if err != nil {
		c.deleteImage(ctx, uploaded)
		return store.Child{}, errors.Wrap(err, "failed to update child")
	}

	if childToUpdate.ImageUri.Valid && current.ImageUri.String != child.ImageUri.String && isStoredObject(current.ImageUri.String) {
		c.deleteImage(ctx, current.ImageUri.String)
	}
	return child, nil
}

// DeleteChild removes the child then its activities. The two writes are independent: activities left
// behind by a failure are reported but the child stays deleted.
func (c *ChildService) DeleteChild(ctx context.Context, childId string) error {
	child, err := c.Guard.Load(ctx, childId, Write)
	if err != nil {
		return errors.Wrap(err, "failed to delete child")
	}

	if err := c.Store.DeleteChild(nil, childId); err != nil {
		return errors.Wrap(err, "failed to delete child")
	}

	deleted, err := c.Store.DeleteActivitiesOfChild(nil, childId)
	if err != nil {
		return errors.Wrap(err, "failed to delete child activities")
	}

	if isStoredObject(child.ImageUri.String) {
		c.deleteImage(ctx, child.ImageUri.String)
	}
	c.Logger.Info(ctx, "child deleted", "childId", childId, "deletedActivities", deleted)
	return nil
}

func (c *ChildService) deleteImage(ctx context.Context, objectName string) {
	if objectName == "" {
		return
	}
	if err := c.Storage.Delete(ctx, objectName); err != nil {
		c.Logger.Warn(ctx, "failed to delete child image", "imageUri", objectName, "err", err.Error())
	}
}

// transportToStore validates request. Name and age are mandatory on creation only.
func transportToStore(request api.ChildRequest, strict bool) (store.Child, error) {
	child := store.Child{
		ChildId:      store.DbNullString(request.Id),
		Name:         store.DbNullString(strings.TrimSpace(request.Name)),
		Gender:       store.DbNullString(strings.ToLower(strings.TrimSpace(request.Gender))),
		Diagnosis:    store.DbNullString(request.Diagnosis),
		SpecialNeeds: store.DbNullString(request.SpecialNeeds),
		Notes:        store.DbNullString(request.Notes),
		ImageUri:     store.DbNullString(request.ImageUri),
	}

	if strict && !child.Name.Valid {
		return store.Child{}, ErrMissingName
	}

	if request.Age == nil {
		if strict {
			return store.Child{}, ErrMissingAge
		}
	} else {
		if *request.Age < MinAge || *request.Age > MaxAge {
			return store.Child{}, ErrInvalidAge
		}
		age := int64(*request.Age)
		child.Age = store.DbNullInt64(&age)
	}

	if child.Gender.Valid && !validGender(child.Gender.String) {
		return store.Child{}, ErrInvalidGender
	}

	if request.DateOfBirth != "" {
		dob, err := dateparse.ParseIn(request.DateOfBirth, time.UTC)
		if err != nil {
			return store.Child{}, errors.Wrap(ErrInvalidDateOfBirth, err.Error())
		}
		dob = time.Date(dob.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, time.UTC)
		if dob.After(time.Now()) {
			return store.Child{}, ErrInvalidDateOfBirth
		}
		child.DateOfBirth = &dob
	}
	return child, nil
}

func validGender(gender string) bool {
	for _, g := range genders {
		if g == gender {
			return true
		}
	}
	return false
}
