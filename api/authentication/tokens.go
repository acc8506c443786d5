package authentication

import (
	"time"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/roles"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type SessionClaims struct {
	UserId string `mapstructure:"userId"`
	Role   string `mapstructure:"role"`
}

// TokenSigner issues and verifies HS256 session tokens.
type TokenSigner struct {
	Secret []byte
	Ttl    time.Duration
}

func (s *TokenSigner) Sign(userId string, role roles.Role, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userId,
		"role":   role.String(),
		"iat":    now.Unix(),
		"exp":    now.Add(s.Ttl).Unix(),
	})
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

func (s *TokenSigner) Parse(tokenString string) (SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(*jwt.Token) (interface{}, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return SessionClaims{}, errors.Wrap(ErrInvalidToken, err.Error())
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return SessionClaims{}, ErrInvalidToken
	}

	claims := SessionClaims{}
	if err := mapstructure.Decode(map[string]interface{}(mapClaims), &claims); err != nil {
		return SessionClaims{}, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if claims.UserId == "" {
		return SessionClaims{}, ErrInvalidToken
	}
	return claims, nil
}
