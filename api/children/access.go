package children

import (
	"context"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/claims"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var ErrNotOwner = errors.New("this child belongs to another caregiver")

type Access int

const (
	Read Access = iota
	Write
)

// Guard loads children on behalf of the user in the request context.
type Guard struct {
	Store interface {
		GetChild(tx *gorm.DB, childId string) (store.Child, error)
	} `inject:""`
}

// Load returns ErrChildNotFound when the child does not exist and ErrNotOwner when the requester
// may not access it. Experts and admins read every child, only admins modify children they do not own.
func (g *Guard) Load(ctx context.Context, childId string, access Access) (store.Child, error) {
	child, err := g.Store.GetChild(nil, childId)
	if err != nil {
		return store.Child{}, err
	}
	if err := CheckAccess(ctx, child, access); err != nil {
		return store.Child{}, err
	}
	return child, nil
}

func CheckAccess(ctx context.Context, child store.Child, access Access) error {
	if child.CaregiverId.String == claims.GetUserId(ctx) {
		return nil
	}
	role := claims.GetRole(ctx)
	switch access {
	case Read:
		if role.SeesAllChildren() {
			return nil
		}
	case Write:
		if role.ManagesAllChildren() {
			return nil
		}
	}
	return ErrNotOwner
}
