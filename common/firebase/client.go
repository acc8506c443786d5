package firebase

import (
	"context"

	"firebase.google.com/go/auth"
	"github.com/pkg/errors"
)

var (
	ErrInvalidIdToken = errors.New("invalid firebase id token")
	ErrNoPhoneNumber  = errors.New("firebase token does not carry a phone number")
	ErrNotConfigured  = errors.New("firebase is not configured")
)

type PhoneIdentity struct {
	Uid         string
	PhoneNumber string
}

// Client exchanges firebase phone sign-in assertions for verified identities.
type Client struct {
	FirebaseClient interface {
		VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	} `inject:""`
}

func (c *Client) VerifyPhoneToken(ctx context.Context, idToken string) (PhoneIdentity, error) {
	if c.FirebaseClient == nil {
		return PhoneIdentity{}, ErrNotConfigured
	}
	token, err := c.FirebaseClient.VerifyIDToken(ctx, idToken)
	if err == ErrNotConfigured {
		return PhoneIdentity{}, err
	}
	if err != nil {
		return PhoneIdentity{}, errors.Wrap(ErrInvalidIdToken, err.Error())
	}

	phoneNumber, _ := token.Claims["phone_number"].(string)
	if phoneNumber == "" {
		return PhoneIdentity{}, ErrNoPhoneNumber
	}
	return PhoneIdentity{Uid: token.UID, PhoneNumber: phoneNumber}, nil
}

// Disabled stands in for the firebase admin client when phone sign-in is turned off.
type Disabled struct{}

func (Disabled) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	return nil, ErrNotConfigured
}
