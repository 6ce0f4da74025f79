/*
engine.go - Wallet Engine (spec section 4.4)

PURPOSE:
  The payments core. Each of Create/Deposit/Transfer is exactly one call
  to Store.TransactionWriteItems; nothing here keeps cross-call state,
  and nothing here retries - idempotency (the transaction record insert
  in slot "tx") is what makes a caller-driven retry safe.

PER-ITEM-POSITION ERROR INTERPRETATION:
  Spec section 9 flags the source's bare positional reason list as
  fragile and asks for slots addressable by role instead. batch here is
  that structure: every add call names a role (roleTx, roleWallet, ...),
  and interpretCreate/interpretDeposit/interpretTransfer look reasons up
  by role through batch.reasonFor rather than by bare index.

SEE ALSO:
  - keys.go: the pk format every op below composes
  - errors.go: the domain errors this file raises
  - internal/dynamo: Store, ItemFactory, the backend error taxonomy
*/
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/wallet-service/internal/dynamo"
)

const (
	minNonceLen = 8
	maxNonceLen = 16
)

type transactionKind string

const (
	kindCreate   transactionKind = "create"
	kindDeposit  transactionKind = "deposit"
	kindTransfer transactionKind = "transfer"
)

// Store is the slice of *dynamo.Store this engine actually calls.
// Defined as an interface, rather than depending on *dynamo.Store
// directly, so tests (and any other caller) can substitute an in-memory
// fake - the same Store-abstraction idiom the teacher uses for its own
// backend.
type Store interface {
	Get(ctx context.Context, pk string) (map[string]interface{}, error)
	TransactionWriteItems(ctx context.Context, items []types.TransactWriteItem) error
}

// ItemFactory is the slice of *dynamo.ItemFactory this engine calls.
type ItemFactory interface {
	PutIfAbsent(item map[string]types.AttributeValue) types.TransactWriteItem
	AddIfExists(key map[string]types.AttributeValue, n decimal.Decimal) (types.TransactWriteItem, error)
	SubtractIfAtLeast(key map[string]types.AttributeValue, n decimal.Decimal) (types.TransactWriteItem, error)
}

// Engine is the wallet transaction engine. It holds no state beyond a
// reference to the Store and Item Factory it was built with (spec
// section 5: "the engine itself is entirely stateless beyond a
// reference to the Store").
type Engine struct {
	store Store
	items ItemFactory
	clock func() int64
	ttl   int64
}

// NewEngine builds an Engine writing through s, using factory to build
// batch slots, with transaction records expiring ttlSeconds after
// creation. clock returns the current unix time; pass time.Now().Unix
// in production and a fixed stub in tests.
func NewEngine(s Store, factory ItemFactory, ttlSeconds int64, clock func() int64) *Engine {
	return &Engine{store: s, items: factory, ttl: ttlSeconds, clock: clock}
}

// slotRole names a batch slot for error interpretation, replacing the
// source's bare positional index (spec section 9).
type slotRole string

const (
	roleTx     slotRole = "tx"
	roleWallet slotRole = "wallet"
	roleUser   slotRole = "user"
	roleDebit  slotRole = "debit"
	roleCredit slotRole = "credit"
)

// batch is an ordered TransactWriteItems payload whose slots are
// addressable by role.
type batch struct {
	items []types.TransactWriteItem
	roles []slotRole
}

func (b *batch) add(role slotRole, item types.TransactWriteItem) {
	b.items = append(b.items, item)
	b.roles = append(b.roles, role)
}

// reasonFor returns the cancellation reason attached to role, or nil if
// that slot wasn't present or wasn't the cause.
func (b *batch) reasonFor(err *dynamo.Error, role slotRole) *dynamo.ReasonSlot {
	for i, r := range b.roles {
		if r == role && i < len(err.Reasons) {
			return err.Reasons[i]
		}
	}
	return nil
}

func (e *Engine) transactionItem(kind transactionKind, key string, data map[string]interface{}) (types.TransactWriteItem, error) {
	item, err := dynamo.EncodeItem(map[string]interface{}{
		"pk":   key,
		"type": string(kind),
		"data": data,
		"ttl":  e.clock() + e.ttl,
	})
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("wallet: encode transaction record: %w", err)
	}
	return e.items.PutIfAbsent(item), nil
}

// Create provisions a fresh wallet for userID (spec section 4.4.1).
func (e *Engine) Create(ctx context.Context, userID string) (walletID string, err error) {
	walletID = uuid.NewString()

	var b batch

	txItem, err := e.transactionItem(kindCreate, transactionKey(walletID, ""), map[string]interface{}{"amount": 0})
	if err != nil {
		return "", err
	}
	b.add(roleTx, txItem)

	walletItem, err := dynamo.EncodeItem(map[string]interface{}{
		"pk":      walletKey(walletID),
		"balance": 0,
	})
	if err != nil {
		return "", fmt.Errorf("wallet: encode wallet item: %w", err)
	}
	b.add(roleWallet, e.items.PutIfAbsent(walletItem))

	userItem, err := dynamo.EncodeItem(map[string]interface{}{
		"pk":     userKey(userID),
		"wallet": walletID,
	})
	if err != nil {
		return "", fmt.Errorf("wallet: encode user link: %w", err)
	}
	b.add(roleUser, e.items.PutIfAbsent(userItem))

	if err := e.store.TransactionWriteItems(ctx, b.items); err != nil {
		return "", interpretCreate(&b, err)
	}
	return walletID, nil
}

// interpretCreate applies spec section 4.4.1's per-slot rule: a tx-slot
// failure always means a reused create record; any other failure (the
// wallet slot, the theoretically-possible UUID collision, or the user
// slot) means the user already owns a wallet.
func interpretCreate(b *batch, err error) error {
	var dErr *dynamo.Error
	if !errors.As(err, &dErr) || dErr.Code != dynamo.CodeMultiOpCancelled {
		return err
	}
	if b.reasonFor(dErr, roleTx) != nil {
		return fmt.Errorf("%w", ErrTransactionAlreadyRegistered)
	}
	return fmt.Errorf("%w", ErrWalletAlreadyExistsForUser)
}

// Deposit credits walletID by amount, guarded by nonce (spec section
// 4.4.2).
func (e *Engine) Deposit(ctx context.Context, walletID string, amount decimal.Decimal, nonce string) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if err := validateNonce(nonce); err != nil {
		return err
	}

	var b batch

	txItem, err := e.transactionItem(kindDeposit, transactionKey(walletID, nonce), map[string]interface{}{"amount": amount.String()})
	if err != nil {
		return err
	}
	b.add(roleTx, txItem)

	creditItem, err := e.items.AddIfExists(dynamo.Key(walletKey(walletID)), amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	b.add(roleWallet, creditItem)

	if err := e.store.TransactionWriteItems(ctx, b.items); err != nil {
		err = interpretDeposit(&b, err)
		if errors.Is(err, ErrTransactionAlreadyRegistered) {
			return fmt.Errorf("%w: nonce %s", err, nonce)
		}
		return err
	}
	return nil
}

func interpretDeposit(b *batch, err error) error {
	var dErr *dynamo.Error
	if !errors.As(err, &dErr) {
		return err
	}
	if dErr.Code == dynamo.CodeTransactionConflict {
		return fmt.Errorf("%w", ErrTransactionConflict)
	}
	if dErr.Code != dynamo.CodeMultiOpCancelled {
		return err
	}
	for _, r := range dErr.Reasons {
		if r != nil && r.Code == dynamo.CodeTransactionConflict {
			return fmt.Errorf("%w", ErrTransactionConflict)
		}
	}
	if b.reasonFor(dErr, roleTx) != nil {
		return fmt.Errorf("%w", ErrTransactionAlreadyRegistered)
	}
	if r := b.reasonFor(dErr, roleWallet); r != nil {
		return fmt.Errorf("%w", ErrWalletNotFound)
	}
	return fmt.Errorf("%w", ErrBase)
}

// Transfer moves amount from sourceID to targetID, guarded by nonce
// (spec section 4.4.3).
func (e *Engine) Transfer(ctx context.Context, sourceID, targetID string, amount decimal.Decimal, nonce string) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if err := validateNonce(nonce); err != nil {
		return err
	}
	if sourceID == targetID {
		return fmt.Errorf("%w: source and target wallets must differ", ErrInvalidArgument)
	}

	var b batch

	txItem, err := e.transactionItem(kindTransfer, transactionKey(sourceID, nonce), map[string]interface{}{
		"amount":        amount.String(),
		"target_wallet": targetID,
	})
	if err != nil {
		return err
	}
	b.add(roleTx, txItem)

	debitItem, err := e.items.SubtractIfAtLeast(dynamo.Key(walletKey(sourceID)), amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	b.add(roleDebit, debitItem)

	creditItem, err := e.items.AddIfExists(dynamo.Key(walletKey(targetID)), amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	b.add(roleCredit, creditItem)

	if err := e.store.TransactionWriteItems(ctx, b.items); err != nil {
		return interpretTransfer(&b, err)
	}
	return nil
}

func interpretTransfer(b *batch, err error) error {
	var dErr *dynamo.Error
	if !errors.As(err, &dErr) {
		return err
	}
	if dErr.Code == dynamo.CodeTransactionConflict {
		return fmt.Errorf("%w", ErrTransactionConflict)
	}
	if dErr.Code != dynamo.CodeMultiOpCancelled {
		return err
	}
	for _, r := range dErr.Reasons {
		if r != nil && r.Code == dynamo.CodeTransactionConflict {
			return fmt.Errorf("%w", ErrTransactionConflict)
		}
	}
	if b.reasonFor(dErr, roleTx) != nil {
		return fmt.Errorf("%w", ErrTransactionAlreadyRegistered)
	}
	// The debit condition is "attribute_exists(pk) AND balance >= n", so
	// a missing source wallet fails it the same way insufficient funds
	// does - spec section 9's open question, preserved as-is.
	if r := b.reasonFor(dErr, roleDebit); r != nil {
		return fmt.Errorf("%w", ErrInsufficientFunds)
	}
	if r := b.reasonFor(dErr, roleCredit); r != nil {
		return fmt.Errorf("%w", ErrWalletNotFound)
	}
	return fmt.Errorf("%w", ErrBase)
}

// GetBalance returns walletID's current balance (spec section 4.4.4).
func (e *Engine) GetBalance(ctx context.Context, walletID string) (decimal.Decimal, error) {
	item, err := e.store.Get(ctx, walletKey(walletID))
	if err != nil {
		if dynamo.IsCode(err, dynamo.CodeNotFound) {
			return decimal.Zero, fmt.Errorf("%w", ErrWalletNotFound)
		}
		return decimal.Zero, err
	}

	raw, ok := item["balance"]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: wallet item missing balance attribute", ErrBase)
	}
	balance, err := decimal.NewFromString(fmt.Sprintf("%v", raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrBase, err)
	}
	return balance, nil
}

func validateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidArgument, amount.String())
	}
	if !amount.IsInteger() {
		return fmt.Errorf("%w: amount must be an integer number of minor units, got %s", ErrInvalidArgument, amount.String())
	}
	return nil
}

func validateNonce(nonce string) error {
	if len(nonce) < minNonceLen || len(nonce) > maxNonceLen {
		return fmt.Errorf("%w: nonce must be %d-%d characters, got %d", ErrInvalidArgument, minNonceLen, maxNonceLen, len(nonce))
	}
	return nil
}
