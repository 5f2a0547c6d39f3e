package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrPlatformNotFound    = errors.New("platform not found")
	ErrTrackingSetNotFound = errors.New("tracking param set not found")
	ErrTagNotFound         = errors.New("personalized tag not found")
	ErrTemplateNotFound    = errors.New("email template not found")
	ErrNetworkNotFound     = errors.New("offer network not found")
	ErrOfferLinkNotFound   = errors.New("offer link not found")

	// ErrDuplicate signals a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
)

// translate maps gorm errors onto repository sentinels.
func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
