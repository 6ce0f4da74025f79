/*
dto.go - request/response data structures and wire-level validation
(spec section 6)

PURPOSE:
  The JSON shapes of the four HTTP operations, plus the two validation
  regexes spec section 6 states verbatim: amount is a base-10 digit
  string 1-20 characters long, nonce is 8-16 ASCII letters or digits
  (hex nonces fit; the check does not restrict to hex digits). These duplicate the engine's own precondition checks
  (internal/wallet validates amount/nonce again) by design - spec
  section 9 notes both layers must remain, because only the engine's
  checks protect direct callers that skip this HTTP surface.

SEE ALSO:
  - handlers.go: decodes into these types and calls the engine
  - internal/wallet/engine.go: validateAmount/validateNonce, the
    engine-level counterpart to amountPattern/noncePattern
*/
package api

import "regexp"

var (
	amountPattern = regexp.MustCompile(`^\d{1,20}$`)
	noncePattern  = regexp.MustCompile(`^[0-9a-zA-Z]{8,16}$`)
)

// CreateWalletRequest is the POST /wallets/ body.
type CreateWalletRequest struct {
	UserID string `json:"user_id"`
}

// WalletResponse is returned by POST /wallets/ and GET /wallets/{id}/balance.
type WalletResponse struct {
	ID      string `json:"id"`
	Balance string `json:"balance"`
}

// AmountRequest is the shared body shape for deposit and transfer.
type AmountRequest struct {
	Amount string `json:"amount"`
	Nonce  string `json:"nonce"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func validAmountString(s string) bool { return amountPattern.MatchString(s) }

func validNonce(s string) bool { return noncePattern.MatchString(s) }
