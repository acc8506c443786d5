package claims

import (
	"context"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/roles"
)

const ContextKey = "claims"

func New(userId string, role roles.Role) map[string]interface{} {
	return map[string]interface{}{
		"userId": userId,
		"role":   role,
	}
}

func WithClaims(ctx context.Context, claims map[string]interface{}) context.Context {
	return context.WithValue(ctx, ContextKey, claims)
}

func get(ctx context.Context) map[string]interface{} {
	claims, _ := ctx.Value(ContextKey).(map[string]interface{})
	return claims
}

func GetUserId(ctx context.Context) string {
	claims := get(ctx)
	if claims != nil && claims["userId"] != nil {
		return claims["userId"].(string)
	}
	return ""
}

func GetRole(ctx context.Context) roles.Role {
	claims := get(ctx)
	if claims == nil {
		return ""
	}
	switch role := claims["role"].(type) {
	case roles.Role:
		return role
	case string:
		r, _ := roles.Parse(role)
		return r
	}
	return ""
}

func IsAdmin(ctx context.Context) bool {
	return GetRole(ctx) == roles.ROLE_ADMIN
}

func IsCaregiver(ctx context.Context) bool {
	return GetRole(ctx) == roles.ROLE_CAREGIVER
}

func IsAuthenticated(ctx context.Context) bool {
	return GetUserId(ctx) != ""
}
