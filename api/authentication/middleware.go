package authentication

import (
	"net/http"
	"strings"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/claims"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/log"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/roles"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrMissingToken = errors.New("authorization token is missing")
	ErrUnknownUser  = errors.New("user of this token no longer exists")
)

type Authenticator struct {
	Tokens *TokenSigner `inject:""`
	Store  interface {
		GetUser(tx *gorm.DB, userId string) (store.User, error)
	} `inject:""`
	Logger *log.Logger `inject:""`
}

// Roles rejects requests whose user does not hold one of the given roles.
func (a *Authenticator) Roles(next http.Handler, allowed ...roles.Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		if !claims.IsAuthenticated(ctx) {
			shared.WriteError(w, shared.ErrUnauthorized, http.StatusUnauthorized)
			return
		}
		if !roles.In(claims.GetRole(ctx), allowed...) {
			a.Logger.Warn(ctx, "forbidden role", "path", req.URL.Path)
			shared.WriteError(w, shared.ErrForbidden, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// Session resolves the bearer token to its user and stores the claims in the request context.
func (a *Authenticator) Session(next http.Handler, publicPaths []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		for _, path := range publicPaths {
			if req.URL.Path == path {
				next.ServeHTTP(w, req)
				return
			}
		}

		ctx := req.Context()
		tokenString, err := bearerToken(req)
		if err != nil {
			shared.WriteError(w, err, http.StatusUnauthorized)
			return
		}

		session, err := a.Tokens.Parse(tokenString)
		if err != nil {
			a.Logger.Debug(ctx, "rejected session token", "err", err.Error())
			shared.WriteError(w, ErrInvalidToken, http.StatusUnauthorized)
			return
		}

		user, err := a.Store.GetUser(nil, session.UserId)
		if err == store.ErrUserNotFound {
			shared.WriteError(w, ErrUnknownUser, http.StatusUnauthorized)
			return
		}
		if err != nil {
			a.Logger.Err(ctx, "failed to load session user", "err", err.Error())
			shared.WriteError(w, err, http.StatusInternalServerError)
			return
		}

		role, err := roles.Parse(user.Role.String)
		if err != nil {
			shared.WriteError(w, ErrInvalidToken, http.StatusUnauthorized)
			return
		}

		ctx = claims.WithClaims(ctx, claims.New(user.UserId.String, role))
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func bearerToken(req *http.Request) (string, error) {
	header := req.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}
