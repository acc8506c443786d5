package store

import (
	"database/sql"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email is already registered")
	ErrPhoneTaken   = errors.New("phoneNumber is already registered")
	ErrUserInUse    = errors.New("user still owns children, delete them first")
)

type User struct {
	UserId          sql.NullString `gorm:"primary_key"`
	Name            sql.NullString
	Email           sql.NullString
	PhoneNumber     sql.NullString
	Password        sql.NullString
	FirebaseUid     sql.NullString
	IsEmailVerified bool
	IsPhoneVerified bool
	Role            sql.NullString
	Otp             sql.NullString
	OtpExpiresAt    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (u User) IsVerified() bool {
	return u.IsEmailVerified || u.IsPhoneVerified
}

type UserFilter struct {
	Role            string
	IsEmailVerified *bool
	IsPhoneVerified *bool
}

func (f UserFilter) apply(query *gorm.DB) *gorm.DB {
	if f.Role != "" {
		query = query.Where("role = ?", f.Role)
	}
	if f.IsEmailVerified != nil {
		query = query.Where("is_email_verified = ?", *f.IsEmailVerified)
	}
	if f.IsPhoneVerified != nil {
		query = query.Where("is_phone_verified = ?", *f.IsPhoneVerified)
	}
	return query
}

func (s *Store) AddUser(tx *gorm.DB, user User) (User, error) {
	db := s.dbOrTx(tx)

	if err := s.checkUserUniqueness(db, "", user); err != nil {
		return User{}, err
	}

	user.UserId = s.newId()
	if err := db.Create(&user).Error; err != nil {
		return User{}, translateConstraintError(err)
	}
	return user, nil
}

func (s *Store) checkUserUniqueness(db *gorm.DB, excludedUserId string, user User) error {
	taken := func(column, value string) (bool, error) {
		query := db.Model(&User{}).Where(column+" = ?", value)
		if excludedUserId != "" {
			query = query.Where("user_id <> ?", excludedUserId)
		}
		count := 0
		if err := query.Count(&count).Error; err != nil {
			return false, err
		}
		return count > 0, nil
	}

	if user.Email.Valid {
		exists, err := taken("email", user.Email.String)
		if err != nil {
			return err
		}
		if exists {
			return ErrEmailTaken
		}
	}
	if user.PhoneNumber.Valid {
		exists, err := taken("phone_number", user.PhoneNumber.String)
		if err != nil {
			return err
		}
		if exists {
			return ErrPhoneTaken
		}
	}
	return nil
}

func (s *Store) GetUser(tx *gorm.DB, userId string) (User, error) {
	return s.findUser(tx, "user_id = ?", userId)
}

func (s *Store) GetUserByEmail(tx *gorm.DB, email string) (User, error) {
	return s.findUser(tx, "email = ?", email)
}

func (s *Store) GetUserByPhone(tx *gorm.DB, phoneNumber string) (User, error) {
	return s.findUser(tx, "phone_number = ?", phoneNumber)
}

func (s *Store) findUser(tx *gorm.DB, where string, value string) (User, error) {
	db := s.dbOrTx(tx)

	user := User{}
	res := db.Where(where, value).First(&user)
	if res.RecordNotFound() {
		return User{}, ErrUserNotFound
	}
	if res.Error != nil {
		return User{}, res.Error
	}
	return user, nil
}

func (s *Store) ListUsers(tx *gorm.DB, filter UserFilter) ([]User, error) {
	db := s.dbOrTx(tx)

	users := []User{}
	if err := filter.apply(db.Model(&User{})).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) CountUsers(tx *gorm.DB, filter UserFilter) (int, error) {
	db := s.dbOrTx(tx)

	count := 0
	if err := filter.apply(db.Model(&User{})).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateUser only writes the non blank fields of user.
func (s *Store) UpdateUser(tx *gorm.DB, user User) (User, error) {
	db := s.dbOrTx(tx)

	if _, err := s.GetUser(db, user.UserId.String); err != nil {
		return User{}, err
	}
	if err := s.checkUserUniqueness(db, user.UserId.String, user); err != nil {
		return User{}, err
	}

	if err := db.Model(&User{}).Where("user_id = ?", user.UserId.String).Updates(user).Error; err != nil {
		return User{}, translateConstraintError(err)
	}
	return s.GetUser(db, user.UserId.String)
}

func (s *Store) updateUserColumns(tx *gorm.DB, userId string, columns map[string]interface{}) error {
	db := s.dbOrTx(tx)

	res := db.Model(&User{}).Where("user_id = ?", userId).Updates(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) SetOtp(tx *gorm.DB, userId, otp string, expiresAt time.Time) error {
	return s.updateUserColumns(tx, userId, map[string]interface{}{
		"otp":            otp,
		"otp_expires_at": expiresAt.UTC(),
	})
}

func (s *Store) ClearOtp(tx *gorm.DB, userId string) error {
	return s.updateUserColumns(tx, userId, map[string]interface{}{
		"otp":            gorm.Expr("NULL"),
		"otp_expires_at": gorm.Expr("NULL"),
	})
}

func (s *Store) MarkEmailVerified(tx *gorm.DB, userId string) error {
	return s.updateUserColumns(tx, userId, map[string]interface{}{"is_email_verified": true})
}

func (s *Store) MarkPhoneVerified(tx *gorm.DB, userId string) error {
	return s.updateUserColumns(tx, userId, map[string]interface{}{"is_phone_verified": true})
}

func (s *Store) SetPassword(tx *gorm.DB, userId, passwordHash string) error {
	return s.updateUserColumns(tx, userId, map[string]interface{}{"password": passwordHash})
}

func (s *Store) SetVerificationFlags(tx *gorm.DB, userId string, emailVerified, phoneVerified bool) error {
	return s.updateUserColumns(tx, userId, map[string]interface{}{
		"is_email_verified": emailVerified,
		"is_phone_verified": phoneVerified,
	})
}

// DeleteUser refuses to remove a caregiver that still owns children.
func (s *Store) DeleteUser(tx *gorm.DB, userId string) error {
	db := s.dbOrTx(tx)

	owned := 0
	if err := db.Model(&Child{}).Where("caregiver_id = ?", userId).Count(&owned).Error; err != nil {
		return err
	}
	if owned > 0 {
		return ErrUserInUse
	}

	res := db.Where("user_id = ?", userId).Delete(&User{})
	if res.Error != nil {
		return translateConstraintError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
