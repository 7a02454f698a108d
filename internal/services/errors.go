// Package services defines the business logic for receipt ingestion, price
// comparison, and watch subscriptions. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

var (
	// ErrEmptyReceipt is returned when an upload contains no line items at all.
	ErrEmptyReceipt = errors.New("receipt has no items")

	// ErrNoValidItems is returned when sanitization rejected every line item
	// on the receipt.
	ErrNoValidItems = errors.New("no valid items after sanitization")

	// ErrUnsupportedCurrency is returned when the receipt currency is not one
	// the price index accepts.
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrWatchNotFound indicates that the requested watch does not exist or is
	// not accessible to the current user.
	ErrWatchNotFound = errors.New("watch not found")

	// ErrDuplicateWatch is returned when the user already watches this item in
	// this city.
	ErrDuplicateWatch = errors.New("watch already exists")

	// ErrInvalidAlertType is returned when the alert type is outside the
	// allowed set (any_drop, threshold, percentage).
	ErrInvalidAlertType = errors.New("invalid alert type")

	// ErrMissingTarget is returned when a threshold watch has no target price
	// or a percentage watch has no drop percentage.
	ErrMissingTarget = errors.New("alert type requires a target value")

	// ErrEmptyItemName is returned when a watch request names no item.
	ErrEmptyItemName = errors.New("item name is empty")
)
