// Package dynamodb implements ports.StateStore on a DynamoDB table keyed by user_id.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/storefront/pkg/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	attrUserID      = "user_id"
	attrState       = "state"
	attrLastEventID = "last_event_id"
	attrSealed      = "sealed"
	attrUpdatedAt   = "updated_at"
	attrTTL         = "ttl"
)

// dynamodbAPI is the minimal DynamoDB interface required by Store.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Store implements ports.StateStore with one item per user.
type Store struct {
	api       dynamodbAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

type Option func(*Store)

// WithTTL writes a "ttl" attribute for DynamoDB's TTL feature.
// Expired items are treated as absent even before DynamoDB removes them.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock overrides the clock used for TTL computation.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store over a DynamoDB client.
func New(api dynamodbAPI, tableName string, opts ...Option) (*Store, error) {
	if api == nil {
		return nil, errors.New("dynamodb: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("dynamodb: table name must not be empty")
	}
	s := &Store{api: api, tableName: tableName, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func key(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrUserID: &types.AttributeValueMemberS{Value: userID},
	}
}

// Save writes the session item.
func (s *Store) Save(ctx context.Context, userID string, session *domain.Session) error {
	updated := session.UpdatedAt
	if updated.IsZero() {
		updated = s.now()
	}
	item := map[string]types.AttributeValue{
		attrUserID:      &types.AttributeValueMemberS{Value: userID},
		attrState:       &types.AttributeValueMemberS{Value: string(session.State)},
		attrLastEventID: &types.AttributeValueMemberS{Value: session.LastEventID},
		attrSealed:      &types.AttributeValueMemberS{Value: session.Sealed},
		attrUpdatedAt:   &types.AttributeValueMemberS{Value: updated.UTC().Format(time.RFC3339Nano)},
	}
	if s.ttl > 0 {
		item[attrTTL] = &types.AttributeValueMemberN{Value: strconv.FormatInt(s.now().Add(s.ttl).Unix(), 10)}
	}

	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("%w: dynamodb put: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Load reads the session item with a consistent read.
func (s *Store) Load(ctx context.Context, userID string) (*domain.Session, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            key(userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: dynamodb get: %v", domain.ErrStoreUnavailable, err)
	}
	if out == nil || len(out.Item) == 0 || s.expired(out.Item) {
		return nil, domain.ErrSessionNotFound
	}

	session, err := itemToSession(out.Item)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return session, nil
}

// Delete removes the session item.
func (s *Store) Delete(ctx context.Context, userID string) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       key(userID),
	})
	if err != nil {
		return fmt.Errorf("%w: dynamodb delete: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// List scans the table for user IDs, following pagination.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:            aws.String(s.tableName),
			ProjectionExpression: aws.String("#u, #t"),
			ExpressionAttributeNames: map[string]string{
				"#u": attrUserID,
				"#t": attrTTL,
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: dynamodb scan: %v", domain.ErrStoreUnavailable, err)
		}
		for _, item := range out.Items {
			if s.expired(item) {
				continue
			}
			if id, err := strAttr(item, attrUserID); err == nil {
				ids = append(ids, id)
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return ids, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func (s *Store) expired(item map[string]types.AttributeValue) bool {
	n, ok := item[attrTTL].(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	exp, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return false
	}
	return s.now().Unix() >= exp
}

func itemToSession(item map[string]types.AttributeValue) (*domain.Session, error) {
	userID, err := strAttr(item, attrUserID)
	if err != nil {
		return nil, err
	}
	state, err := strAttr(item, attrState)
	if err != nil {
		return nil, err
	}
	session := &domain.Session{UserID: userID, State: domain.State(state)}
	session.LastEventID, _ = strAttr(item, attrLastEventID)
	session.Sealed, _ = strAttr(item, attrSealed)
	if raw, err := strAttr(item, attrUpdatedAt); err == nil {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			session.UpdatedAt = ts
		}
	}
	return session, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("dynamodb: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("dynamodb: attribute %q is not a string", key)
	}
	return s.Value, nil
}
