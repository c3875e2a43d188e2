package dynamodb

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/storefront/pkg/domain"
	"github.com/aretw0/storefront/pkg/ports"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo is a single-table, single-key in-memory DynamoDB.
// Scan returns at most pageSize items per call to exercise pagination.
type fakeDynamo struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	pageSize int
	scans    int
	err      error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue), pageSize: 1}
}

func userKey(k map[string]types.AttributeValue) string {
	return k[attrUserID].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[userKey(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.items[userKey(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	delete(f.items, userKey(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.scans++

	ids := make([]string, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if in.ExclusiveStartKey != nil {
		last := userKey(in.ExclusiveStartKey)
		start = sort.SearchStrings(ids, last) + 1
	}
	end := start + f.pageSize
	if end > len(ids) {
		end = len(ids)
	}

	out := &dynamodb.ScanOutput{}
	for _, id := range ids[start:end] {
		out.Items = append(out.Items, f.items[id])
	}
	if end < len(ids) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			attrUserID: &types.AttributeValueMemberS{Value: ids[end-1]},
		}
	}
	return out, nil
}

func mustNewStore(t *testing.T, api dynamodbAPI, opts ...Option) *Store {
	t.Helper()
	s, err := New(api, "sessions", opts...)
	require.NoError(t, err)
	return s
}

func TestDynamoStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, mustNewStore(t, newFakeDynamo()))
}

func TestDynamoStore_ListPaginates(t *testing.T) {
	db := newFakeDynamo()
	store := mustNewStore(t, db)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, id, domain.NewSession(id)))
	}

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, 3, db.scans)
}

func TestDynamoStore_TTL(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	db := newFakeDynamo()
	store := mustNewStore(t, db, WithTTL(time.Hour), WithClock(clock))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "u1", domain.NewSession("u1")))
	ttl := db.items["u1"][attrTTL].(*types.AttributeValueMemberN).Value
	assert.Equal(t, "1700003600", ttl)

	now = now.Add(2 * time.Hour)
	_, err := store.Load(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDynamoStore_Unavailable(t *testing.T) {
	db := newFakeDynamo()
	db.err = errors.New("throttled")
	store := mustNewStore(t, db)

	_, err := store.Load(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, store.Save(context.Background(), "u1", domain.NewSession("u1")), domain.ErrStoreUnavailable)
}

func TestNew_Validates(t *testing.T) {
	_, err := New(nil, "t")
	assert.Error(t, err)
	_, err = New(newFakeDynamo(), " ")
	assert.Error(t, err)
}
