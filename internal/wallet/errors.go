/*
errors.go - domain error taxonomy (spec section 7, second stratum)

PURPOSE:
  Backend errors (internal/dynamo) describe what the store did; these
  describe what it means for a wallet operation. Engine methods translate
  a transaction cancellation (and a whole-transaction conflict) into one
  of these sentinels; any other backend failure is returned unchanged as
  the *dynamo.Error the Store produced.

  Follows the teacher's generic/errors.go convention: sentinel errors
  plus IsX predicate helpers, rather than the original's exception-class
  hierarchy.

SEE ALSO:
  - engine.go: raises every one of these
  - internal/api/errors.go: maps each to an HTTP status code
*/
package wallet

import "errors"

var (
	// ErrWalletNotFound means the referenced wallet_id has no wallet
	// item - either GetBalance's target, or a transfer's missing target
	// wallet (spec section 4.4.3 slot [2]), or a deposit's missing
	// wallet (slot [1]).
	ErrWalletNotFound = errors.New("wallet: not found")

	// ErrWalletAlreadyExistsForUser means Create's user-link slot
	// collided: this user_id already owns a wallet (spec section
	// 4.4.1).
	ErrWalletAlreadyExistsForUser = errors.New("wallet: already exists for user")

	// ErrTransactionAlreadyRegistered means the (wallet_id, nonce) pair
	// (or, for Create, the wallet_id alone) already has a transaction
	// record - a replay (spec section 4.4.1/4.4.2/4.4.3 slot [0]).
	ErrTransactionAlreadyRegistered = errors.New("wallet: transaction already registered")

	// ErrInsufficientFunds means a transfer's debit leg failed its
	// balance >= amount condition - which, per spec section 4.4.3 and
	// the open question in section 9, is indistinguishable from the
	// source wallet not existing at all.
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")

	// ErrTransactionConflict is a transient, backend-detected
	// conflicting write. Callers may retry with the same nonce.
	ErrTransactionConflict = errors.New("wallet: transaction conflict, retry with same nonce")

	// ErrInvalidArgument covers the engine's local precondition
	// failures: amount <= 0 or non-integer, malformed nonce,
	// self-transfer. An oversized batch is rejected by the Store with a
	// CodeValidation *dynamo.Error, not with this error.
	ErrInvalidArgument = errors.New("wallet: invalid argument")

	// ErrBase is the fallback for anything the engine can't attribute
	// to a more specific cause.
	ErrBase = errors.New("wallet: operation failed")
)

// IsNotFound reports whether err is (or wraps) ErrWalletNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrWalletNotFound) }

// IsConflict reports whether err is a replay, a user/wallet collision,
// insufficient funds, or a transaction conflict - the four outcomes that
// map to HTTP 409 (spec section 6).
func IsConflict(err error) bool {
	return errors.Is(err, ErrWalletAlreadyExistsForUser) ||
		errors.Is(err, ErrTransactionAlreadyRegistered) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrTransactionConflict)
}

// IsInvalidArgument reports whether err is a local precondition failure.
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }
