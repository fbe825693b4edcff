// Package models defines the booking domain types, the error taxonomy and
// the MongoDB repositories. Sentinel errors below are shared across the
// services and handlers so failure kinds survive wrapping; handlers
// translate them into HTTP status codes with errors.Is.
package models

import "errors"

// ErrNotFound is returned when a booking, package or user does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidArgument is returned for malformed or out-of-range input, such
// as a table count below one or a non-positive payment amount.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrInvalidState is returned when an operation is not legal for the
// booking's current payment status, e.g. recording a payment against a
// cancelled booking.
var ErrInvalidState = errors.New("invalid state")

// ErrCapacityExceeded is returned when the requested event date already
// carries the maximum number of bookings.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrCodeGenerationFailed is returned when every attempt at generating a
// unique booking code collided with an existing one.
var ErrCodeGenerationFailed = errors.New("booking code generation failed")

// ErrConflict signals a missed optimistic-version update. It never reaches
// handlers; services re-read and retry once before surfacing a failure.
var ErrConflict = errors.New("conflict")
