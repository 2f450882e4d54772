package domain

import "errors"

// Error categories. Every domain error matches exactly one of them via errors.Is,
// which is what the transport layer uses to pick a status code.
var (
	ErrValidation    = errors.New("validation error")
	ErrPermission    = errors.New("permission denied")
	ErrStateConflict = errors.New("state conflict")
	ErrNotFound      = errors.New("not found")
)

// Error is a domain error tagged with its category.
type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Unwrap exposes the category so errors.Is(err, ErrStateConflict) holds.
func (e *Error) Unwrap() error { return e.kind }

// Validation errors.
var (
	ErrInvalidAmount    = newError(ErrValidation, "invalid amount")
	ErrInvalidCurrency  = newError(ErrValidation, "invalid currency code")
	ErrCurrencyMismatch = newError(ErrValidation, "currency mismatch")
	ErrInvalidCondition = newError(ErrValidation, "invalid lot condition")
	ErrMissingField     = newError(ErrValidation, "missing required field")
)

// Permission errors.
var (
	ErrOwnerCannotBid = newError(ErrPermission, "owner cannot bid on own lot")
	ErrNotOwner       = newError(ErrPermission, "actor is not the lot owner")
	ErrForbidden      = newError(ErrPermission, "access forbidden")
)

// State conflicts.
var (
	ErrAuctionClosed    = newError(ErrStateConflict, "auction closed")
	ErrLotStillActive   = newError(ErrStateConflict, "lot is still active")
	ErrLotNotModifiable = newError(ErrStateConflict, "lot is not modifiable")
	ErrBidTooLow        = newError(ErrStateConflict, "bid price too low")
)

// Absence. Soft-deleted records report the same errors as missing ones.
var (
	ErrLotNotFound     = newError(ErrNotFound, "lot not found")
	ErrBidNotFound     = newError(ErrNotFound, "bid not found")
	ErrSaleNotFound    = newError(ErrNotFound, "sale not found")
	ErrProfileNotFound = newError(ErrNotFound, "profile not found")
)

// Identity errors belong to the dev token-issuing collaborator.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrIdentityExists     = errors.New("identity already exists")
)

// ErrSaleExists is returned by sale stores when a lot already has a sale.
var ErrSaleExists = errors.New("sale already exists")
