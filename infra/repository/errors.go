package repository

import (
	"errors"

	"github.com/andrevalim/pixhub/pkg/domain"
	"gorm.io/gorm"
)

// mapError converts gorm errors to domain errors, walking the chain
// because gorm wraps driver errors. notFound names the domain sentinel
// for a missing row, which differs per aggregate.
func mapError(err, notFound error) error {
	if err == nil {
		return nil
	}
	for current := err; current != nil; current = errors.Unwrap(current) {
		switch {
		case errors.Is(current, gorm.ErrDuplicatedKey):
			return domain.ErrDuplicateKey
		case errors.Is(current, gorm.ErrRecordNotFound):
			return notFound
		}
	}
	return err
}
