/*
store.go - Store component (spec section 4.1)

PURPOSE:
  Store is the one seam between the wallet engine and DynamoDB. It knows
  about tables, keys, and transactional writes; it knows nothing about
  wallets, balances, or nonces - that vocabulary belongs to
  internal/wallet. Every method returns errors already translated by
  errors.go, so callers never type-switch on an AWS SDK error.

TABLE SHAPE:
  One table, one partition key "pk" (string), no sort key - spec section
  4.1's "single wide table, every record addressed by one key string".
  Items beyond pk are opaque attribute maps the caller supplies; Store
  only imposes the key attribute name.

LIFECYCLE:
  CreateTable/DropTable/TableExists mirror the original's
  src/storage/storage.py Storage.create_table/delete_table/table_exists,
  including the original's "creating a table that already exists is a
  warning, not a failure" behavior (spec section 6's Admin command) -
  Store reports that case back as (created=false, err=nil) so the
  decision to log it is the caller's, not this package's.

SEE ALSO:
  - itemfactory.go: builds the TransactWriteItem values passed to
    TransactionWriteItems
  - errors.go: the taxonomy every method's error belongs to
  - cmd/server/createtable.go: the only caller of CreateTable
*/
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const pkAttr = "pk"

// waitTimeout bounds how long CreateTable/DropTable wait for the table
// to settle into its new state.
const waitTimeout = 60 * time.Second

// Store wraps a *dynamodb.Client scoped to one table.
type Store struct {
	client *dynamodb.Client
	table  string
}

// NewStore returns a Store that reads and writes the given table through
// client.
func NewStore(client *dynamodb.Client, table string) *Store {
	return &Store{client: client, table: table}
}

// Key builds the single-attribute partition key DynamoDB expects for pk.
func Key(pk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkAttr: &types.AttributeValueMemberS{Value: pk},
	}
}

// EncodeItem converts a native Go map into the attribute-value map
// DynamoDB items are made of.
func EncodeItem(v map[string]interface{}) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(v)
}

// decodeItem converts a DynamoDB item back into native Go values. It
// decodes numbers as json.Number rather than float64 - balances can run
// up to 20 digits (spec section 6), well past float64's safe integer
// range, and this engine needs the exact digit string back.
func decodeItem(av map[string]types.AttributeValue) (map[string]interface{}, error) {
	decoder := attributevalue.NewDecoder(func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	var out map[string]interface{}
	if err := decoder.Decode(&types.AttributeValueMemberM{Value: av}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches the item keyed by pk. A missing item is reported as a
// *Error with Code CodeNotFound, not a nil map.
func (s *Store) Get(ctx context.Context, pk string) (map[string]interface{}, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &s.table,
		Key:            Key(pk),
		ConsistentRead: boolPtr(true),
	})
	if err != nil {
		return nil, Map(err)
	}
	if len(out.Item) == 0 {
		return nil, &Error{Code: CodeNotFound, Message: "item not found: " + pk}
	}
	return decodeItem(out.Item)
}

// Put writes item unconditionally. Wallet operations go through
// TransactionWriteItems instead; Put exists for maintenance paths (the
// create-table command seeding no data, tests) that don't need a
// condition.
func (s *Store) Put(ctx context.Context, item map[string]types.AttributeValue) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      item,
	})
	return Map(err)
}

// Delete removes the item keyed by pk. Deleting an absent key is not an
// error, matching DynamoDB's own DeleteItem semantics.
func (s *Store) Delete(ctx context.Context, pk string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.table,
		Key:       Key(pk),
	})
	return Map(err)
}

// MaxTransactItems is DynamoDB's own cap on a single TransactWriteItems
// call (spec section 4.1).
const MaxTransactItems = 25

// TransactionWriteItems submits items atomically: all conditions across
// every slot must hold or none of them are applied. Use itemfactory.go
// to build the slots.
func (s *Store) TransactionWriteItems(ctx context.Context, items []types.TransactWriteItem) error {
	if len(items) > MaxTransactItems {
		return &Error{Code: CodeValidation, Message: fmt.Sprintf("batch of %d exceeds max %d items", len(items), MaxTransactItems)}
	}
	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return Map(err)
}

// TableExists reports whether the table has been created.
func (s *Store) TableExists(ctx context.Context) (bool, error) {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &s.table})
	if err == nil {
		return true, nil
	}
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, Map(err)
}

// CreateTable creates the table with a string pk partition key and the
// given provisioned throughput, waiting for it to become active. If the
// table already exists, CreateTable returns (false, nil) rather than an
// error - see the file header.
func (s *Store) CreateTable(ctx context.Context, readCapacity, writeCapacity int64, enableTTL bool) (created bool, err error) {
	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &s.table,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: awsString(pkAttr), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: awsString(pkAttr), KeyType: types.KeyTypeHash},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  &readCapacity,
			WriteCapacityUnits: &writeCapacity,
		},
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return false, nil
		}
		return false, Map(err)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: &s.table}, waitTimeout); err != nil {
		return true, Map(err)
	}

	if enableTTL {
		_, err := s.client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
			TableName: &s.table,
			TimeToLiveSpecification: &types.TimeToLiveSpecification{
				AttributeName: awsString("ttl"),
				Enabled:       boolPtr(true),
			},
		})
		if err != nil {
			return true, Map(err)
		}
	}

	return true, nil
}

// DropTable deletes the table and waits for removal to finish.
func (s *Store) DropTable(ctx context.Context) error {
	_, err := s.client.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: &s.table})
	if err != nil {
		return Map(err)
	}
	waiter := dynamodb.NewTableNotExistsWaiter(s.client)
	return Map(waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: &s.table}, waitTimeout))
}

func boolPtr(b bool) *bool { return &b }
