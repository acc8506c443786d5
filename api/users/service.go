package users

import (
	"context"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/api"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/claims"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/log"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/roles"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var (
	ErrMissingName    = shared.Invalid("name is required")
	ErrMissingContact = shared.Invalid("email or phoneNumber is required")
	ErrMissingRole    = shared.Invalid("role is required")
	ErrDeleteSelf     = shared.Invalid("you cannot delete your own account")
)

type Service interface {
	AddUser(ctx context.Context, request api.UserRequest) (store.User, error)
	GetUser(ctx context.Context, userId string) (store.User, error)
	ListUsers(ctx context.Context, filter store.UserFilter) ([]store.User, error)
	UpdateUser(ctx context.Context, request api.UserRequest) (store.User, error)
	DeleteUser(ctx context.Context, userId string) error
	Stats(ctx context.Context) (api.UserStatsTransport, error)
}

type UserService struct {
	Store interface {
		Tx() *gorm.DB
		AddUser(tx *gorm.DB, user store.User) (store.User, error)
		GetUser(tx *gorm.DB, userId string) (store.User, error)
		ListUsers(tx *gorm.DB, filter store.UserFilter) ([]store.User, error)
		CountUsers(tx *gorm.DB, filter store.UserFilter) (int, error)
		UpdateUser(tx *gorm.DB, user store.User) (store.User, error)
		SetPassword(tx *gorm.DB, userId, passwordHash string) error
		SetVerificationFlags(tx *gorm.DB, userId string, emailVerified, phoneVerified bool) error
		DeleteUser(tx *gorm.DB, userId string) error

		CountChildren(tx *gorm.DB, options store.SearchOptions) (int, error)
		CountAssessments(tx *gorm.DB) (int, error)
	} `inject:""`
	Config *shared.AppConfig `inject:""`
	Logger *log.Logger       `inject:""`
}

func (c *UserService) AddUser(ctx context.Context, request api.UserRequest) (store.User, error) {
	request.Email = shared.NormalizeEmail(request.Email)
	request.PhoneNumber = shared.NormalizePhoneNumber(request.PhoneNumber)

	if request.Name == "" {
		return store.User{}, ErrMissingName
	}
	if request.Email == "" && request.PhoneNumber == "" {
		return store.User{}, ErrMissingContact
	}
	if request.Role == "" {
		return store.User{}, ErrMissingRole
	}
	role, err := roles.Parse(request.Role)
	if err != nil {
		return store.User{}, shared.Invalid(err.Error())
	}

	user := store.User{
		Name:            store.DbNullString(request.Name),
		Email:           store.DbNullString(request.Email),
		PhoneNumber:     store.DbNullString(request.PhoneNumber),
		Role:            store.DbNullString(role.String()),
		IsEmailVerified: request.Email != "",
		IsPhoneVerified: request.PhoneNumber != "",
	}
	if request.IsEmailVerified != nil {
		user.IsEmailVerified = *request.IsEmailVerified
	}
	if request.IsPhoneVerified != nil {
		user.IsPhoneVerified = *request.IsPhoneVerified
	}

	if request.Email != "" {
		if err := shared.ValidateEmail(request.Email); err != nil {
			return store.User{}, err
		}
		hash, err := shared.HashPassword(request.Password, c.Config.BcryptCost)
		if err != nil {
			return store.User{}, err
		}
		user.Password = store.DbNullString(hash)
	}

	created, err := c.Store.AddUser(nil, user)
	if err != nil {
		return store.User{}, errors.Wrap(err, "failed to create user")
	}
	c.Logger.Info(ctx, "user created by admin", "createdUserId", created.UserId.String, "createdRole", role.String())
	return created, nil
}

func (c *UserService) GetUser(ctx context.Context, userId string) (store.User, error) {
	user, err := c.Store.GetUser(nil, userId)
	if err != nil {
		return store.User{}, errors.Wrap(err, "failed to get user")
	}
	return user, nil
}

func (c *UserService) ListUsers(ctx context.Context, filter store.UserFilter) ([]store.User, error) {
	if filter.Role != "" {
		role, err := roles.Parse(filter.Role)
		if err != nil {
			return nil, shared.Invalid(err.Error())
		}
		filter.Role = role.String()
	}
	users, err := c.Store.ListUsers(nil, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	return users, nil
}

func (c *UserService) UpdateUser(ctx context.Context, request api.UserRequest) (store.User, error) {
	request.Email = shared.NormalizeEmail(request.Email)
	request.PhoneNumber = shared.NormalizePhoneNumber(request.PhoneNumber)

	current, err := c.Store.GetUser(nil, request.Id)
	if err != nil {
		return store.User{}, errors.Wrap(err, "failed to update user")
	}

	update := store.User{
		UserId:      current.UserId,
		Name:        store.DbNullString(request.Name),
		Email:       store.DbNullString(request.Email),
		PhoneNumber: store.DbNullString(request.PhoneNumber),
	}
	if request.Email != "" {
		if err := shared.ValidateEmail(request.Email); err != nil {
			return store.User{}, err
		}
	}
	if request.Role != "" {
		role, err := roles.Parse(request.Role)
		if err != nil {
			return store.User{}, shared.Invalid(err.Error())
		}
		update.Role = store.DbNullString(role.String())
	}

	var passwordHash string
	if request.Password != "" {
		if passwordHash, err = shared.HashPassword(request.Password, c.Config.BcryptCost); err != nil {
			return store.User{}, err
		}
	}

	tx := c.Store.Tx()
	if tx.Error != nil {
		return store.User{}, errors.Wrap(tx.Error, "failed to update user")
	}

	if _, err := c.Store.UpdateUser(tx, update); err != nil {
		tx.Rollback()
		return store.User{}, errors.Wrap(err, "failed to update user")
	}
	if passwordHash != "" {
		if err := c.Store.SetPassword(tx, current.UserId.String, passwordHash); err != nil {
			tx.Rollback()
			return store.User{}, errors.Wrap(err, "failed to update user password")
		}
	}
	if request.IsEmailVerified != nil || request.IsPhoneVerified != nil {
		emailVerified, phoneVerified := current.IsEmailVerified, current.IsPhoneVerified
		if request.IsEmailVerified != nil {
			emailVerified = *request.IsEmailVerified
		}
		if request.IsPhoneVerified != nil {
			phoneVerified = *request.IsPhoneVerified
		}
		if err := c.Store.SetVerificationFlags(tx, current.UserId.String, emailVerified, phoneVerified); err != nil {
			tx.Rollback()
			return store.User{}, errors.Wrap(err, "failed to update user verification")
		}
	}

	updated, err := c.Store.GetUser(tx, current.UserId.String)
	if err != nil {
		tx.Rollback()
		return store.User{}, errors.Wrap(err, "failed to update user")
	}
	if err := tx.Commit().Error; err != nil {
		return store.User{}, errors.Wrap(err, "failed to update user")
	}
	return updated, nil
}

func (c *UserService) DeleteUser(ctx context.Context, userId string) error {
	if userId == claims.GetUserId(ctx) {
		return ErrDeleteSelf
	}
	if err := c.Store.DeleteUser(nil, userId); err != nil {
		return errors.Wrap(err, "failed to delete user")
	}
	c.Logger.Info(ctx, "user deleted by admin", "deletedUserId", userId)
	return nil
}

// Stats counts users by role and verification channel, each count in its own query.
func (c *UserService) Stats(ctx context.Context) (api.UserStatsTransport, error) {
	verified := true
	stats := api.UserStatsTransport{ByRole: map[string]int{}}
	byRole := make([]int, len(roles.All))

	var g errgroup.Group
	g.Go(func() (err error) {
		stats.TotalUsers, err = c.Store.CountUsers(nil, store.UserFilter{})
		return
	})
	for i, role := range roles.All {
		i, role := i, role
		g.Go(func() (err error) {
			byRole[i], err = c.Store.CountUsers(nil, store.UserFilter{Role: role.String()})
			return
		})
	}
	g.Go(func() (err error) {
		stats.VerifiedEmail, err = c.Store.CountUsers(nil, store.UserFilter{IsEmailVerified: &verified})
		return
	})
	g.Go(func() (err error) {
		stats.VerifiedPhone, err = c.Store.CountUsers(nil, store.UserFilter{IsPhoneVerified: &verified})
		return
	})
	g.Go(func() (err error) {
		stats.TotalChildren, err = c.Store.CountChildren(nil, store.SearchOptions{})
		return
	})
	g.Go(func() (err error) {
		stats.TotalAssessments, err = c.Store.CountAssessments(nil)
		return
	})

	if err := g.Wait(); err != nil {
		return api.UserStatsTransport{}, errors.Wrap(err, "failed to compute stats")
	}
	for i, role := range roles.All {
		stats.ByRole[role.String()] = byRole[i]
	}
	return stats, nil
}
