package wallet

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/warp/wallet-service/internal/dynamo"
)

// fakeStore is an in-memory stand-in for *dynamo.Store, modeled on the
// teacher's generic/store/memory.go in-process Store implementation. It
// understands exactly the three condition-expression shapes
// itemfactory.go produces; anything else is a test bug, not a feature
// to support.
type fakeStore struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	// conflictOn, if set, makes the next TransactionWriteItems call
	// whose batch touches this pk fail with a whole-transaction
	// TransactionConflict instead of evaluating conditions - simulating
	// a concurrent writer winning the race (spec section 5).
	conflictOn map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[string]map[string]types.AttributeValue{}}
}

func (s *fakeStore) Get(ctx context.Context, pk string) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[pk]
	if !ok {
		return nil, &dynamo.Error{Code: dynamo.CodeNotFound, Message: "not found: " + pk}
	}
	out := map[string]interface{}{}
	for k, v := range item {
		if n, ok := v.(*types.AttributeValueMemberN); ok {
			out[k] = n.Value
		} else if sVal, ok := v.(*types.AttributeValueMemberS); ok {
			out[k] = sVal.Value
		}
	}
	return out, nil
}

func (s *fakeStore) TransactionWriteItems(ctx context.Context, items []types.TransactWriteItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range items {
		var pk string
		if it.Put != nil {
			pk = attrString(it.Put.Item["pk"])
		} else if it.Update != nil {
			pk = attrString(it.Update.Key["pk"])
		}
		if s.conflictOn[pk] {
			delete(s.conflictOn, pk)
			return &dynamo.Error{Code: dynamo.CodeTransactionConflict, Message: "conflict: " + pk}
		}
	}

	reasons := make([]*dynamo.ReasonSlot, len(items))
	failed := false

	for i, it := range items {
		switch {
		case it.Put != nil:
			pk := attrString(it.Put.Item["pk"])
			if _, exists := s.items[pk]; exists {
				reasons[i] = &dynamo.ReasonSlot{Code: dynamo.CodeConditionalCheckFailed, Message: "exists: " + pk}
				failed = true
			}
		case it.Update != nil:
			pk := attrString(it.Update.Key["pk"])
			current, exists := s.items[pk]
			cond := *it.Update.ConditionExpression
			switch cond {
			case "attribute_exists(pk)":
				if !exists {
					reasons[i] = &dynamo.ReasonSlot{Code: dynamo.CodeConditionalCheckFailed, Message: "missing: " + pk}
					failed = true
				}
			case "attribute_exists(pk) AND #bal >= :n":
				n := decimal.RequireFromString(attrNumber(it.Update.ExpressionAttributeValues[":n"]))
				if !exists {
					reasons[i] = &dynamo.ReasonSlot{Code: dynamo.CodeConditionalCheckFailed, Message: "missing: " + pk}
					failed = true
					break
				}
				bal := decimal.RequireFromString(attrNumber(current["balance"]))
				if bal.LessThan(n) {
					reasons[i] = &dynamo.ReasonSlot{Code: dynamo.CodeConditionalCheckFailed, Message: "insufficient: " + pk}
					failed = true
				}
			default:
				panic("fakeStore: unsupported condition expression " + cond)
			}
		}
	}

	if failed {
		return &dynamo.Error{Code: dynamo.CodeMultiOpCancelled, Reasons: reasons}
	}

	for _, it := range items {
		switch {
		case it.Put != nil:
			pk := attrString(it.Put.Item["pk"])
			s.items[pk] = it.Put.Item
		case it.Update != nil:
			pk := attrString(it.Update.Key["pk"])
			current := s.items[pk]
			bal := decimal.RequireFromString(attrNumber(current["balance"]))
			n := decimal.RequireFromString(attrNumber(it.Update.ExpressionAttributeValues[":n"]))
			if *it.Update.UpdateExpression == "SET #bal = #bal + :n" {
				bal = bal.Add(n)
			} else {
				bal = bal.Sub(n)
			}
			current["balance"] = &types.AttributeValueMemberN{Value: bal.String()}
			s.items[pk] = current
		}
	}
	return nil
}

func (s *fakeStore) balance(pk string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[pk]
	if !ok {
		return decimal.Zero
	}
	return decimal.RequireFromString(attrNumber(item["balance"]))
}

func attrString(v types.AttributeValue) string {
	if s, ok := v.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func attrNumber(v types.AttributeValue) string {
	if n, ok := v.(*types.AttributeValueMemberN); ok {
		return n.Value
	}
	return "0"
}
