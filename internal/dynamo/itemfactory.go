/*
itemfactory.go - Item Factory (spec section 4.2)

PURPOSE:
  Builds the three conditional write primitives every wallet operation is
  assembled from, each as one types.TransactWriteItem slot ready to hand
  to Store.TransactionWriteItems:

    PutIfAbsent        - attribute_not_exists(pk), for first-writer-wins
                         creation (wallet creation, idempotency records).
    AddIfExists        - attribute_exists(pk), attr := attr + :n, for
                         unconditional credits (deposit, transfer credit
                         leg).
    SubtractIfAtLeast  - attribute_exists(pk) AND attr >= :n,
                         attr := attr - :n, for guarded debits (transfer
                         debit leg) - the condition and the update ride
                         in the same expression, so insufficient balance
                         fails the whole transaction atomically.

  AddIfExists/SubtractIfAtLeast both reject n <= 0 up front: there is no
  such thing as crediting or debiting by a non-positive amount, and
  catching that here means the backend never sees a malformed update
  expression.

SEE ALSO:
  - store.go: TransactionWriteItems, the only consumer of these items
  - internal/wallet/engine.go: assembles these into Create/Deposit/Transfer
  - errors.go: interprets what happens when one of these conditions fails
*/
package dynamo

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

const balanceAttr = "balance"

// ItemFactory builds TransactWriteItem values scoped to one table.
type ItemFactory struct {
	table string
}

// NewItemFactory returns an ItemFactory that writes into the given table.
func NewItemFactory(table string) *ItemFactory {
	return &ItemFactory{table: table}
}

// PutIfAbsent builds a conditional put that succeeds only when no item
// with this key already exists.
func (f *ItemFactory) PutIfAbsent(item map[string]types.AttributeValue) types.TransactWriteItem {
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName:           awsTableName(f.table),
			Item:                item,
			ConditionExpression: awsString("attribute_not_exists(pk)"),
		},
	}
}

// AddIfExists builds a conditional update that adds n to balanceAttr,
// succeeding only when the keyed item already exists.
func (f *ItemFactory) AddIfExists(key map[string]types.AttributeValue, n decimal.Decimal) (types.TransactWriteItem, error) {
	if n.Sign() <= 0 {
		return types.TransactWriteItem{}, fmt.Errorf("dynamo: AddIfExists: amount must be positive, got %s", n.String())
	}
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName:           awsTableName(f.table),
			Key:                 key,
			UpdateExpression:    awsString("SET #bal = #bal + :n"),
			ConditionExpression: awsString("attribute_exists(pk)"),
			ExpressionAttributeNames: map[string]string{
				"#bal": balanceAttr,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":n": numberValue(n),
			},
		},
	}, nil
}

// SubtractIfAtLeast builds a conditional update that subtracts n from
// balanceAttr, succeeding only when the keyed item exists and its
// current balance is at least n. The condition and the update share one
// expression, so a guarded debit either fully applies or fails the
// surrounding transaction - there is no window where balance could go
// negative.
func (f *ItemFactory) SubtractIfAtLeast(key map[string]types.AttributeValue, n decimal.Decimal) (types.TransactWriteItem, error) {
	if n.Sign() <= 0 {
		return types.TransactWriteItem{}, fmt.Errorf("dynamo: SubtractIfAtLeast: amount must be positive, got %s", n.String())
	}
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName:           awsTableName(f.table),
			Key:                 key,
			UpdateExpression:    awsString("SET #bal = #bal - :n"),
			ConditionExpression: awsString("attribute_exists(pk) AND #bal >= :n"),
			ExpressionAttributeNames: map[string]string{
				"#bal": balanceAttr,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":n": numberValue(n),
			},
		},
	}, nil
}

func numberValue(n decimal.Decimal) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: n.String()}
}

func awsString(s string) *string { return &s }

func awsTableName(t string) *string { return &t }
