package core

import "errors"

// Engine error taxonomy. Callers branch with errors.Is; every service wraps
// these with operation context via fmt.Errorf("...: %w", ...).
var (
	// ErrValidation covers malformed input: non-positive quantities, missing
	// required selections, commission rates outside 0–100.
	ErrValidation = errors.New("validation failed")

	ErrProductNotFound     = errors.New("product not found")
	ErrPartnerNotFound     = errors.New("partner not found")
	ErrConsignmentNotFound = errors.New("consignment not found")

	// ErrPartnerMismatch rejects merges whose target and sources belong to
	// different partners.
	ErrPartnerMismatch = errors.New("consignments belong to different partners")

	// ErrInsufficientStock rejects any deduction that would drive a product's
	// stock below zero: adjustment OUT, consignment confirm, direct sale.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrOverAllocation rejects a sale or return registration that would push
	// sold + returned past the shipped quantity for any item.
	ErrOverAllocation = errors.New("quantity exceeds remaining consigned stock")

	// ErrInvalidStatus rejects state-machine transitions from the wrong state.
	ErrInvalidStatus = errors.New("invalid status for this operation")

	// ErrOutstandingRemainder gates completion: an order can only be
	// COMPLETED when every item's remaining quantity is zero.
	ErrOutstandingRemainder = errors.New("consignment has unreconciled remaining quantity")
)
