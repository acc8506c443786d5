package api

import (
	"time"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/reporting"
)

type (
	ChildTransport    = reporting.Child
	ActivityTransport = reporting.Activity
	ReportTransport   = reporting.Report
)

type UserTransport struct {
	Id              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	PhoneNumber     string    `json:"phoneNumber,omitempty"`
	Role            string    `json:"role"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	IsPhoneVerified bool      `json:"isPhoneVerified"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type SessionTransport struct {
	Token string        `json:"token"`
	User  UserTransport `json:"user"`
}

type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

type RegisterResponse struct {
	UserId      string `json:"userId"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type VerifyOtpRequest struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Otp         string `json:"otp"`
}

type LoginRequest struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

// IdentifierRequest names an account by its email or phone number.
type IdentifierRequest struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Otp         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type FirebaseLoginRequest struct {
	IdToken string `json:"idToken"`
	Name    string `json:"name"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UserRequest is used by admins to create or update an account. Blank fields are left untouched on update.
type UserRequest struct {
	Id              string `json:"-"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phoneNumber"`
	Password        string `json:"password"`
	Role            string `json:"role"`
	IsEmailVerified *bool  `json:"isEmailVerified"`
	IsPhoneVerified *bool  `json:"isPhoneVerified"`
}

type UserStatsTransport struct {
	TotalUsers       int            `json:"totalUsers"`
	ByRole           map[string]int `json:"byRole"`
	VerifiedEmail    int            `json:"verifiedEmail"`
	VerifiedPhone    int            `json:"verifiedPhone"`
	TotalChildren    int            `json:"totalChildren"`
	TotalAssessments int            `json:"totalAssessments"`
}

// ChildRequest carries a child profile. ImageUri may hold a 'data:image/jpeg;base64,' payload to upload.
type ChildRequest struct {
	Id           string `json:"-"`
	Name         string `json:"name"`
	Age          *int   `json:"age"`
	Gender       string `json:"gender"`
	DateOfBirth  string `json:"dateOfBirth"`
	Diagnosis    string `json:"diagnosis"`
	SpecialNeeds string `json:"specialNeeds"`
	Notes        string `json:"notes"`
	ImageUri     string `json:"imageUri"`
}

type ActivityRequest struct {
	ChildId          string                 `json:"-"`
	ActivityType     string                 `json:"activityType"`
	ActivityName     string                 `json:"activityName"`
	Score            *float64               `json:"score"`
	MaxScore         *float64               `json:"maxScore"`
	Percentage       *float64               `json:"percentage"`
	Duration         *int64                 `json:"duration"`
	Attempts         *int64                 `json:"attempts"`
	Difficulty       string                 `json:"difficulty"`
	CorrectAnswers   *int64                 `json:"correctAnswers"`
	IncorrectAnswers *int64                 `json:"incorrectAnswers"`
	Details          map[string]interface{} `json:"details"`
	CompletedAt      string                 `json:"completedAt"`
}

type QuestionTransport struct {
	Id       string   `json:"id" yaml:"id"`
	Category string   `json:"category" yaml:"category"`
	Question string   `json:"question" yaml:"question"`
	Options  []string `json:"options" yaml:"options"`
	Scores   []int    `json:"scores" yaml:"scores"`
}

type AssessmentTransport struct {
	Id          string              `json:"id"`
	Level       string              `json:"level" yaml:"level"`
	Title       string              `json:"title" yaml:"title"`
	Description string              `json:"description" yaml:"description"`
	Questions   []QuestionTransport `json:"questions" yaml:"questions"`
	IsActive    *bool               `json:"isActive,omitempty" yaml:"isActive"`
	CreatedBy   string              `json:"createdBy,omitempty"`
	UpdatedBy   string              `json:"updatedBy,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

type InsightRequest struct {
	ChildId string `json:"-"`
	Focus   string `json:"focus"`
}

type InsightTransport struct {
	ChildId     string    `json:"childId"`
	Insight     string    `json:"insight"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generatedAt"`
}
