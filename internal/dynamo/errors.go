/*
errors.go - Error Mapper for the backing store (spec section 4.3)

PURPOSE:
  Translates the backend's two failure shapes - a single-operation error
  code, or a TransactWriteItems cancellation carrying one reason per
  submitted operation - into the fixed taxonomy spec section 7 calls
  "backend errors". Nothing above this layer ever inspects an AWS SDK
  type directly; everything goes through Map, which hands cancellations
  to mapCancellation.

WHY NOT A CLASS REGISTRY:
  The original (src/storage/exceptions.py) walks BaseStorageError's
  registered __subclasses__() by botocore error code. Go has no runtime
  subclass registry, so this is an explicit table instead - same mapping,
  different mechanism (see DESIGN.md).

SEE ALSO:
  - itemfactory.go: produces the TransactWriteItem values whose
    cancellation reasons this file interprets
  - internal/wallet/engine.go: attaches per-slot roles to MultiOpCancelled
*/
package dynamo

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// Code is the semantic backend error taxonomy of spec section 4.3/7.
type Code string

const (
	CodeNotFound               Code = "NotFound"
	CodeConditionalCheckFailed Code = "ConditionalCheckFailed"
	CodeTransactionConflict    Code = "TransactionConflict"
	CodeValidation             Code = "Validation"
	CodeMultiOpCancelled       Code = "MultiOpCancelled"
	CodeUnknown                Code = "Unknown"
)

// singleOpCodes maps the backend's single-operation error codes to the
// semantic taxonomy, mirroring exceptions.py's botocore_code sets.
var singleOpCodes = map[string]Code{
	"ResourceNotFoundException":       CodeNotFound,
	"ConditionalCheckFailedException": CodeConditionalCheckFailed,
	"TransactionConflictException":    CodeTransactionConflict,
	"ValidationException":             CodeValidation,
}

// Error is the Store's own error type. Every Store method that fails
// returns one of these; callers switch on Code (and Reasons, for
// CodeMultiOpCancelled) rather than inspecting the backend's error type.
type Error struct {
	Code    Code
	Message string
	// Reasons holds one slot per operation submitted to
	// TransactionWriteItems, populated only when Code is
	// CodeMultiOpCancelled. A nil slot means that operation neither
	// failed nor caused the cancellation.
	Reasons []*ReasonSlot
	cause   error
}

// ReasonSlot is the per-item cancellation reason the backend reports for
// one slot of a TransactWriteItems batch.
type ReasonSlot struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Code == CodeMultiOpCancelled {
		return fmt.Sprintf("dynamo: transaction cancelled: %s", e.Message)
	}
	return fmt.Sprintf("dynamo: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Map translates any backend error returned by a Store method into the
// semantic taxonomy: a TransactionCanceledException becomes
// CodeMultiOpCancelled, any other API error is mapped by its code.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		return mapCancellation(canceled)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code, ok := singleOpCodes[apiErr.ErrorCode()]
		if !ok {
			code = CodeUnknown
		}
		return &Error{Code: code, Message: apiErr.ErrorMessage(), cause: err}
	}

	return &Error{Code: CodeUnknown, Message: err.Error(), cause: err}
}

// mapCancellation translates TransactionCanceledException's positional
// CancellationReasons into a MultiOpCancelled error, per spec section 4.3:
// "A TransactionCanceledException becomes a MultiOpCancelled whose reason
// list has one slot per submitted op, each either null... or a specific
// sub-error."
func mapCancellation(canceled *types.TransactionCanceledException) error {
	reasons := make([]*ReasonSlot, len(canceled.CancellationReasons))
	for i, r := range canceled.CancellationReasons {
		if r.Code == nil || *r.Code == "None" {
			continue
		}
		code, ok := singleOpCodes[*r.Code]
		if !ok {
			switch *r.Code {
			case "ConditionalCheckFailed":
				code = CodeConditionalCheckFailed
			case "TransactionConflict":
				code = CodeTransactionConflict
			case "ValidationError":
				code = CodeValidation
			default:
				code = CodeUnknown
			}
		}
		msg := ""
		if r.Message != nil {
			msg = *r.Message
		}
		reasons[i] = &ReasonSlot{Code: code, Message: msg}
	}

	msg := ""
	if canceled.Message != nil {
		msg = *canceled.Message
	}
	return &Error{Code: CodeMultiOpCancelled, Message: msg, Reasons: reasons, cause: canceled}
}

// IsCode reports whether err is a *Error carrying the given Code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
