/*
errors.go - semantic-error to HTTP-status mapping (spec section 6)

PURPOSE:
  The one place that turns a wallet.Err* into a status code and a JSON
  body. Spec section 6's status table collapses onto four buckets: not
  found, conflict, validation, and everything else.

SEE ALSO:
  - internal/wallet/errors.go: the errors this file switches on
  - handlers.go: the only caller of writeEngineError
*/
package api

import (
	"errors"
	"net/http"

	"github.com/warp/wallet-service/internal/wallet"
)

// statusFor maps a domain error to its HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, wallet.ErrWalletNotFound):
		return http.StatusNotFound
	case wallet.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, wallet.ErrInvalidArgument):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeEngineError writes err as a JSON error body with the status
// spec section 6 assigns it.
func writeEngineError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error(), nil)
}
