package authentication

import (
	"context"
	"strings"
	"time"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/api"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/claims"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/firebase"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/log"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/notification"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/roles"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/throttle"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrMissingName        = shared.Invalid("name is required")
	ErrMissingContact     = shared.Invalid("email or phoneNumber is required")
	ErrMissingOtp         = shared.Invalid("otp is required")
	ErrMissingIdToken     = shared.Invalid("idToken is required")
	ErrInvalidRole        = shared.Invalid("role must be caregiver or expert")
	ErrInvalidOtp         = shared.Invalid("invalid otp")
	ErrOtpExpired         = shared.Invalid("otp has expired, please request a new one")
	ErrAlreadyVerified    = shared.Invalid("account is already verified")
	ErrNoPassword         = shared.Invalid("this account signs in with its phone number")
	ErrWrongPassword      = shared.Invalid("current password is incorrect")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("account is not verified, please verify the code we sent you")
	ErrDeliveryFailed     = errors.New("failed to deliver the verification code")
	ErrTooManyOtpAttempts = errors.New("too many wrong codes, please request a new one")
)

type Session struct {
	Token string
	User  store.User
}

type Service interface {
	Register(ctx context.Context, request api.RegisterRequest) (store.User, error)
	VerifyOtp(ctx context.Context, request api.VerifyOtpRequest) (Session, error)
	Login(ctx context.Context, request api.LoginRequest) (Session, error)
	ResendOtp(ctx context.Context, request api.IdentifierRequest) error
	ForgotPassword(ctx context.Context, request api.IdentifierRequest) error
	ResetPassword(ctx context.Context, request api.ResetPasswordRequest) error
	FirebaseLogin(ctx context.Context, request api.FirebaseLoginRequest) (Session, error)
	Profile(ctx context.Context) (store.User, error)
	ChangePassword(ctx context.Context, request api.ChangePasswordRequest) error
}

type AuthenticationService struct {
	Store interface {
		AddUser(tx *gorm.DB, user store.User) (store.User, error)
		GetUser(tx *gorm.DB, userId string) (store.User, error)
		GetUserByEmail(tx *gorm.DB, email string) (store.User, error)
		GetUserByPhone(tx *gorm.DB, phoneNumber string) (store.User, error)
		UpdateUser(tx *gorm.DB, user store.User) (store.User, error)
		SetOtp(tx *gorm.DB, userId, otp string, expiresAt time.Time) error
		ClearOtp(tx *gorm.DB, userId string) error
		MarkEmailVerified(tx *gorm.DB, userId string) error
		MarkPhoneVerified(tx *gorm.DB, userId string) error
		SetPassword(tx *gorm.DB, userId, passwordHash string) error
		DeleteUser(tx *gorm.DB, userId string) error
	} `inject:""`
	StringGenerator interface {
		GenerateOtp() string
		GenerateRandomName() string
	} `inject:""`
	FirebaseClient interface {
		VerifyPhoneToken(ctx context.Context, idToken string) (firebase.PhoneIdentity, error)
	} `inject:"autismartFirebaseClient"`
	EmailSender         notification.EmailSender `inject:""`
	SmsSender           notification.SmsSender   `inject:""`
	OtpThrottler        throttle.Throttler       `inject:"otpThrottler"`
	OtpAttemptThrottler throttle.Throttler       `inject:"otpAttemptThrottler"`
	LoginThrottler      throttle.Throttler       `inject:"loginThrottler"`
	Tokens              *TokenSigner             `inject:""`
	Config              *shared.AppConfig        `inject:""`
	Logger              *log.Logger              `inject:""`
}

// identifier is the channel an account is reached through: its email when set, its phone number otherwise.
type identifier struct {
	email       string
	phoneNumber string
}

func newIdentifier(email, phoneNumber string) (identifier, error) {
	id := identifier{
		email:       shared.NormalizeEmail(email),
		phoneNumber: shared.NormalizePhoneNumber(phoneNumber),
	}
	if id.email == "" && id.phoneNumber == "" {
		return identifier{}, ErrMissingContact
	}
	return id, nil
}

func (i identifier) byEmail() bool {
	return i.email != ""
}

func (i identifier) String() string {
	if i.byEmail() {
		return i.email
	}
	return i.phoneNumber
}

func (c *AuthenticationService) findUser(id identifier) (store.User, error) {
	if id.byEmail() {
		return c.Store.GetUserByEmail(nil, id.email)
	}
	return c.Store.GetUserByPhone(nil, id.phoneNumber)
}

func (c *AuthenticationService) Register(ctx context.Context, request api.RegisterRequest) (store.User, error) {
	request.Name = strings.TrimSpace(request.Name)
	if request.Name == "" {
		return store.User{}, ErrMissingName
	}
	id, err := newIdentifier(request.Email, request.PhoneNumber)
	if err != nil {
		return store.User{}, err
	}

	role := roles.ROLE_CAREGIVER
	if request.Role != "" {
		if role, err = roles.Parse(request.Role); err != nil || !role.SelfRegistrable() {
			return store.User{}, ErrInvalidRole
		}
	}

	user := store.User{
		Name:        store.DbNullString(request.Name),
		Email:       store.DbNullString(id.email),
		PhoneNumber: store.DbNullString(id.phoneNumber),
		Role:        store.DbNullString(role.String()),
	}
	if id.email != "" {
		if err := shared.ValidateEmail(id.email); err != nil {
			return store.User{}, err
		}
		hash, err := shared.HashPassword(request.Password, c.Config.BcryptCost)
		if err != nil {
			return store.User{}, err
		}
		user.Password = store.DbNullString(hash)
	}

	otp := c.StringGenerator.GenerateOtp()
	expiresAt := time.Now().Add(c.Config.OtpTtl).UTC()
	user.Otp = store.DbNullString(otp)
	user.OtpExpiresAt = &expiresAt

	created, err := c.Store.AddUser(nil, user)
	if err != nil {
		return store.User{}, errors.Wrap(err, "failed to register")
	}

	if err := c.sendOtp(ctx, id, created, otp, notification.PurposeVerification); err != nil {
		if deleteErr := c.Store.DeleteUser(nil, created.UserId.String); deleteErr != nil {
			c.Logger.Err(ctx, "failed to roll back registration", "registeredUserId", created.UserId.String, "err", deleteErr.Error())
		}
		return store.User{}, err
	}

	c.Logger.Info(ctx, "user registered", "registeredUserId", created.UserId.String, "role", role.String())
	return created, nil
}

func (c *AuthenticationService) sendOtp(ctx context.Context, id identifier, user store.User, otp string, purpose notification.Purpose) error {
	message := notification.OtpMessage{
		Recipient: id.String(),
		Name:      user.Name.String,
		Otp:       otp,
		Purpose:   purpose,
		ExpiresIn: c.Config.OtpTtl,
	}

	var err error
	if id.byEmail() {
		err = c.EmailSender.SendOtpEmail(ctx, message)
	} else {
		err = c.SmsSender.SendOtpSms(ctx, message)
	}
	if err != nil {
		c.Logger.Err(ctx, "failed to send otp", "recipient", id.String(), "err", err.Error())
		return errors.Wrap(ErrDeliveryFailed, err.Error())
	}
	return nil
}

// checkOtp rejects an expired code even when it matches.
func checkOtp(user store.User, otp string, now time.Time) error {
	if !user.Otp.Valid || user.OtpExpiresAt == nil {
		return ErrInvalidOtp
	}
	if now.After(*user.OtpExpiresAt) {
		return ErrOtpExpired
	}
	if user.Otp.String != strings.TrimSpace(otp) {
		return ErrInvalidOtp
	}
	return nil
}

// consumeOtp checks a submitted code and counts the wrong ones. Once the attempts of the window are spent
// the pending code is discarded, so even the right code is refused until a new one is requested.
func (c *AuthenticationService) consumeOtp(ctx context.Context, id identifier, user store.User, otp string) error {
	key := "otp-check:" + id.String()
	err := checkOtp(user, otp, time.Now())
	if err == nil {
		if err := c.OtpAttemptThrottler.Reset(ctx, key); err != nil {
			c.Logger.Warn(ctx, "failed to reset otp attempts", "err", err.Error())
		}
		return nil
	}
	if err != ErrInvalidOtp || !user.Otp.Valid {
		return err
	}

	allowed, throttleErr := c.OtpAttemptThrottler.Allow(ctx, key)
	if throttleErr != nil {
		c.Logger.Warn(ctx, "otp attempt throttle unavailable", "err", throttleErr.Error())
		return err
	}
	if allowed {
		return err
	}
	if clearErr := c.Store.ClearOtp(nil, user.UserId.String); clearErr != nil {
		return errors.Wrap(clearErr, "failed to discard otp")
	}
	c.Logger.Warn(ctx, "otp discarded after too many wrong codes", "targetUserId", user.UserId.String)
	return ErrTooManyOtpAttempts
}

func (c *AuthenticationService) VerifyOtp(ctx context.Context, request api.VerifyOtpRequest) (Session, error) {
	id, err := newIdentifier(request.Email, request.PhoneNumber)
	if err != nil {
		return Session{}, err
	}
	if request.Otp == "" {
		return Session{}, ErrMissingOtp
	}

	user, err := c.findUser(id)
	if err != nil {
		return Session{}, errors.Wrap(err, "failed to verify otp")
	}
	if err := c.consumeOtp(ctx, id, user, request.Otp); err != nil {
		return Session{}, err
	}

	if id.byEmail() {
		err = c.Store.MarkEmailVerified(nil, user.UserId.String)
	} else {
		err = c.Store.MarkPhoneVerified(nil, user.UserId.String)
	}
	if err != nil {
		return Session{}, errors.Wrap(err, "failed to verify otp")
	}
	if err := c.Store.ClearOtp(nil, user.UserId.String); err != nil {
		return Session{}, errors.Wrap(err, "failed to verify otp")
	}

	return c.openSession(ctx, user.UserId.String)
}

func (c *AuthenticationService) openSession(ctx context.Context, userId string) (Session, error) {
	user, err := c.Store.GetUser(nil, userId)
	if err != nil {
		return Session{}, errors.Wrap(err, "failed to open session")
	}
	role, err := roles.Parse(user.Role.String)
	if err != nil {
		return Session{}, errors.Wrap(err, "failed to open session")
	}
	token, err := c.Tokens.Sign(user.UserId.String, role, time.Now())
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

func (c *AuthenticationService) Login(ctx context.Context, request api.LoginRequest) (Session, error) {
	id, err := newIdentifier(request.Email, request.PhoneNumber)
	if err != nil {
		return Session{}, err
	}

	allowed, err := c.LoginThrottler.Allow(ctx, "login:"+id.String())
	if err != nil {
		c.Logger.Warn(ctx, "login throttle unavailable", "err", err.Error())
	}
	if err == nil && !allowed {
		return Session{}, throttle.ErrTooManyRequests
	}

	user, err := c.findUser(id)
	if err == store.ErrUserNotFound {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, errors.Wrap(err, "failed to login")
	}
	if !shared.CheckPassword(user.Password.String, request.Password) {
		return Session{}, ErrInvalidCredentials
	}
	if !user.IsVerified() {
		return Session{}, ErrNotVerified
	}

	if err := c.LoginThrottler.Reset(ctx, "login:"+id.String()); err != nil {
		c.Logger.Warn(ctx, "failed to reset login throttle", "err", err.Error())
	}
	return c.openSession(ctx, user.UserId.String)
}

func (c *AuthenticationService) issueOtp(ctx context.Context, id identifier, user store.User, purpose notification.Purpose) error {
	allowed, err := c.OtpThrottler.Allow(ctx, "otp:"+id.String())
	if err != nil {
		c.Logger.Warn(ctx, "otp throttle unavailable", "err", err.Error())
	}
	if err == nil && !allowed {
		return throttle.ErrTooManyRequests
	}

	otp := c.StringGenerator.GenerateOtp()
	if err := c.Store.SetOtp(nil, user.UserId.String, otp, time.Now().Add(c.Config.OtpTtl)); err != nil {
		return errors.Wrap(err, "failed to store otp")
	}
	return c.sendOtp(ctx, id, user, otp, purpose)
}

func (c *AuthenticationService) ResendOtp(ctx context.Context, request api.IdentifierRequest) error {
	id, err := newIdentifier(request.Email, request.PhoneNumber)
	if err != nil {
		return err
	}
	user, err := c.findUser(id)
	if err != nil {
		return errors.Wrap(err, "failed to resend otp")
	}
	if (id.byEmail() && user.IsEmailVerified) || (!id.byEmail() && user.IsPhoneVerified) {
		return ErrAlreadyVerified
	}
	return c.issueOtp(ctx, id, user, notification.PurposeVerification)
}

func (c *AuthenticationService) ForgotPassword(ctx context.Context, request api.IdentifierRequest) error {
	id, err := newIdentifier(request.Email, request.PhoneNumber)
	if err != nil {
		return err
	}
	user, err := c.findUser(id)
	if err != nil {
		return errors.Wrap(err, "failed to reset password")
	}
	return c.issueOtp(ctx, id, user, notification.PurposePasswordReset)
}

func (c *AuthenticationService) ResetPassword(ctx context.Context, request api.ResetPasswordRequest) error {
	id, err := newIdentifier(request.Email, request.PhoneNumber)
	if err != nil {
		return err
	}
	if request.Otp == "" {
		return ErrMissingOtp
	}
	user, err := c.findUser(id)
	if err != nil {
		return errors.Wrap(err, "failed to reset password")
	}
	if err := c.consumeOtp(ctx, id, user, request.Otp); err != nil {
		return err
	}

	hash, err := shared.HashPassword(request.NewPassword, c.Config.BcryptCost)
	if err != nil {
		return err
	}
	if err := c.Store.SetPassword(nil, user.UserId.String, hash); err != nil {
		return errors.Wrap(err, "failed to reset password")
	}
	if err := c.Store.ClearOtp(nil, user.UserId.String); err != nil {
		return errors.Wrap(err, "failed to reset password")
	}
	c.Logger.Info(ctx, "password reset", "resetUserId", user.UserId.String)
	return nil
}

func (c *AuthenticationService) FirebaseLogin(ctx context.Context, request api.FirebaseLoginRequest) (Session, error) {
	if request.IdToken == "" {
		return Session{}, ErrMissingIdToken
	}
	identity, err := c.FirebaseClient.VerifyPhoneToken(ctx, request.IdToken)
	if err != nil {
		return Session{}, err
	}
	phoneNumber := shared.NormalizePhoneNumber(identity.PhoneNumber)

	user, err := c.Store.GetUserByPhone(nil, phoneNumber)
	switch {
	case err == store.ErrUserNotFound:
		name := strings.TrimSpace(request.Name)
		if name == "" {
			name = c.StringGenerator.GenerateRandomName()
		}
		user, err = c.Store.AddUser(nil, store.User{
			Name:            store.DbNullString(name),
			PhoneNumber:     store.DbNullString(phoneNumber),
			FirebaseUid:     store.DbNullString(identity.Uid),
			IsPhoneVerified: true,
			Role:            store.DbNullString(roles.ROLE_CAREGIVER.String()),
		})
		if err != nil {
			return Session{}, errors.Wrap(err, "failed to register phone user")
		}
		c.Logger.Info(ctx, "phone user registered", "registeredUserId", user.UserId.String)
	case err != nil:
		return Session{}, errors.Wrap(err, "failed to login")
	default:
		if !user.IsPhoneVerified {
			if err := c.Store.MarkPhoneVerified(nil, user.UserId.String); err != nil {
				return Session{}, errors.Wrap(err, "failed to login")
			}
		}
		if user.FirebaseUid.String != identity.Uid {
			if _, err := c.Store.UpdateUser(nil, store.User{UserId: user.UserId, FirebaseUid: store.DbNullString(identity.Uid)}); err != nil {
				return Session{}, errors.Wrap(err, "failed to login")
			}
		}
	}

	return c.openSession(ctx, user.UserId.String)
}

func (c *AuthenticationService) Profile(ctx context.Context) (store.User, error) {
	user, err := c.Store.GetUser(nil, claims.GetUserId(ctx))
	if err != nil {
		return store.User{}, errors.Wrap(err, "failed to get profile")
	}
	return user, nil
}

func (c *AuthenticationService) ChangePassword(ctx context.Context, request api.ChangePasswordRequest) error {
	user, err := c.Store.GetUser(nil, claims.GetUserId(ctx))
	if err != nil {
		return errors.Wrap(err, "failed to change password")
	}
	if !user.Password.Valid {
		return ErrNoPassword
	}
	if !shared.CheckPassword(user.Password.String, request.CurrentPassword) {
		return ErrWrongPassword
	}
	hash, err := shared.HashPassword(request.NewPassword, c.Config.BcryptCost)
	if err != nil {
		return err
	}
	if err := c.Store.SetPassword(nil, user.UserId.String, hash); err != nil {
		return errors.Wrap(err, "failed to change password")
	}
	return nil
}
