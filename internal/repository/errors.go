package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("record not found")
	// ErrInUse is returned when other rows still reference the one being deleted.
	ErrInUse = errors.New("record is still referenced")
)

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
