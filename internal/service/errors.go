package service

import (
	"errors"
	"fmt"

	"go-inventory-odoo/pkg/validator"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateSKU        = errors.New("SKU already exists")
	ErrProductInUse        = errors.New("product has recorded transactions")
	// ErrInsufficientStock rejects a transaction that would take quantity below zero.
	ErrInsufficientStock = errors.New("insufficient stock available")
	// ErrProductNotLinked means the product has no Odoo id to push changes to.
	ErrProductNotLinked = errors.New("product is not linked to an odoo product")
	// ErrRemoteWrite means Odoo refused the change; nothing was committed locally.
	ErrRemoteWrite = errors.New("failed to update odoo")
	ErrValidation  = errors.New("validation failed")
)

func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, validator.Summary(errs))
	}
	return nil
}
