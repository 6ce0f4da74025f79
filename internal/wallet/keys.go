/*
keys.go - key-encoding contract (spec section 4.4.5 / section 3)

PURPOSE:
  Every primary key this engine ever writes or reads goes through one of
  these three functions. The suffixes (#wallet, #user, #transaction) and
  the "_" join between wallet_id and nonce are an on-disk contract: spec
  section 4.4.5 calls changing them without a migration out of bounds, so
  nothing outside this file should ever format a pk by hand.

SEE ALSO:
  - engine.go: the only caller of these functions
  - internal/dynamo/store.go: treats every pk as an opaque string
*/
package wallet

import "fmt"

func walletKey(walletID string) string {
	return fmt.Sprintf("%s#wallet", walletID)
}

func userKey(userID string) string {
	return fmt.Sprintf("%s#user", userID)
}

// transactionKey returns the create-transaction key when nonce is empty,
// and the nonce-qualified key otherwise.
func transactionKey(walletID, nonce string) string {
	if nonce == "" {
		return fmt.Sprintf("%s#transaction", walletID)
	}
	return fmt.Sprintf("%s_%s#transaction", walletID, nonce)
}
