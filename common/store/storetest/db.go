package storetest

import (
	"database/sql"
	"time"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"golang.org/x/crypto/bcrypt"
)

const (
	FixturePassword = "winteriscoming"
	UnverifiedOtp   = "654321"
)

var FixtureDay = time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

// NewDbInstance opens a private in-memory database holding the full schema.
func NewDbInstance(verbose bool, logger ...interface {
	Print(v ...interface{})
}) *gorm.DB {
	db, err := gorm.Open("sqlite3", ":memory:")
	if err != nil {
		panic(err)
	}
	// every connection of an in-memory sqlite database sees its own schema
	db.DB().SetMaxOpenConns(1)
	db.LogMode(verbose)
	if len(logger) > 0 {
		db.SetLogger(logger[0])
	}
	if err := db.AutoMigrate(store.Models()...).Error; err != nil {
		panic(err)
	}
	return db
}

func nullString(value string) sql.NullString {
	return store.DbNullString(value)
}

func nullFloat(value float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: value, Valid: true}
}

func nullInt(value int64) sql.NullInt64 {
	return sql.NullInt64{Int64: value, Valid: true}
}

// SetDbInitialState loads the fixtures used across the api test suites:
//   - id-admin (admin), id-expert (expert), id-caregiver-1 and id-caregiver-2 (caregivers),
//     all verified with FixturePassword
//   - id-phone (caregiver, phone only)
//   - id-unverified (caregiver) whose pending otp is UnverifiedOtp
//   - childid-1 owned by id-caregiver-1 with three activities, childid-2 owned by id-caregiver-2
func SetDbInitialState(db *gorm.DB) {
	hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	password := nullString(string(hash))
	created := FixtureDay.Add(-30 * 24 * time.Hour)
	otpExpiry := time.Now().Add(time.Hour).UTC()

	users := []store.User{
		{UserId: nullString("id-admin"), Name: nullString("Eddard Stark"), Email: nullString("ned@stark.io"), Password: password, Role: nullString("admin"), IsEmailVerified: true, CreatedAt: created},
		{UserId: nullString("id-expert"), Name: nullString("Maester Luwin"), Email: nullString("luwin@citadel.io"), Password: password, Role: nullString("expert"), IsEmailVerified: true, CreatedAt: created.Add(time.Hour)},
		{UserId: nullString("id-caregiver-1"), Name: nullString("Catelyn Stark"), Email: nullString("catelyn@stark.io"), Password: password, Role: nullString("caregiver"), IsEmailVerified: true, CreatedAt: created.Add(2 * time.Hour)},
		{UserId: nullString("id-caregiver-2"), Name: nullString("Lysa Arryn"), Email: nullString("lysa@arryn.io"), Password: password, Role: nullString("caregiver"), IsEmailVerified: true, CreatedAt: created.Add(3 * time.Hour)},
		{UserId: nullString("id-phone"), Name: nullString("Old Nan"), PhoneNumber: nullString("+15550000001"), Role: nullString("caregiver"), IsPhoneVerified: true, CreatedAt: created.Add(4 * time.Hour)},
		{UserId: nullString("id-unverified"), Name: nullString("Sansa Stark"), Email: nullString("sansa@stark.io"), Password: password, Role: nullString("caregiver"), Otp: nullString(UnverifiedOtp), OtpExpiresAt: &otpExpiry, CreatedAt: created.Add(5 * time.Hour)},
	}
	for _, user := range users {
		mustCreate(db, &user)
	}

	dob := time.Date(2016, time.May, 4, 0, 0, 0, 0, time.UTC)
	children := []store.Child{
		{ChildId: nullString("childid-1"), CaregiverId: nullString("id-caregiver-1"), Name: nullString("Rickon"), Age: nullInt(7), Gender: nullString("male"), DateOfBirth: &dob, Diagnosis: nullString("ASD level 1"), Notes: nullString("likes wolves"), CreatedAt: created},
		{ChildId: nullString("childid-2"), CaregiverId: nullString("id-caregiver-2"), Name: nullString("Robin"), Age: nullInt(6), Gender: nullString("male"), CreatedAt: created.Add(time.Hour)},
	}
	for _, child := range children {
		mustCreate(db, &child)
	}

	activities := []store.Activity{
		{ActivityId: nullString("activityid-1"), ChildId: nullString("childid-1"), CaregiverId: nullString("id-caregiver-1"), ActivityType: nullString("game"), ActivityName: nullString("Memory Match"), Score: nullFloat(8), MaxScore: nullFloat(10), Percentage: nullFloat(80), Duration: nullInt(95), CompletedAt: FixtureDay.Add(9 * time.Hour)},
		{ActivityId: nullString("activityid-2"), ChildId: nullString("childid-1"), CaregiverId: nullString("id-caregiver-1"), ActivityType: nullString("game"), ActivityName: nullString("Memory Match"), Score: nullFloat(9), MaxScore: nullFloat(10), Percentage: nullFloat(90), Duration: nullInt(80), CompletedAt: FixtureDay.Add(33 * time.Hour)},
		{ActivityId: nullString("activityid-3"), ChildId: nullString("childid-1"), CaregiverId: nullString("id-caregiver-1"), ActivityType: nullString("assessment"), ActivityName: nullString("Emotion Quiz"), Score: nullFloat(5), MaxScore: nullFloat(10), Percentage: nullFloat(50), Duration: nullInt(120), Difficulty: nullString("easy"), CompletedAt: FixtureDay.Add(57 * time.Hour)},
	}
	for _, activity := range activities {
		mustCreate(db, &activity)
	}
}

func mustCreate(db *gorm.DB, value interface{}) {
	if err := db.Create(value).Error; err != nil {
		panic(err)
	}
}
