package dynamodb

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/application/ports"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/domain/chat"
	pkgerrors "github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/errors"
)

// batchWriteMaxItems is the DynamoDB BatchWriteItem request ceiling.
const batchWriteMaxItems = 25

// MessageRepository implements ports.MessageRepository using DynamoDB
type MessageRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *MessageRepository {
	return &MessageRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// messageItem represents the DynamoDB item structure for a message
type messageItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	MessageID  string `dynamodbav:"MessageID"`
	SessionID  string `dynamodbav:"SessionID"`
	Role       string `dynamodbav:"Role"`
	Content    string `dynamodbav:"Content"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

func messagePK(sessionID string) string { return fmt.Sprintf("SESSION#%s", sessionID) }

// messageSK sorts chronologically within a session; the ID suffix breaks
// ties for messages created in the same nanosecond.
func messageSK(m *chat.Message) string {
	return fmt.Sprintf("MSG#%020d#%s", m.CreatedAt.UnixNano(), m.ID)
}

// Save persists a message
func (r *MessageRepository) Save(ctx context.Context, message *chat.Message) error {
	item := messageItem{
		PK:         messagePK(message.SessionID),
		SK:         messageSK(message),
		EntityType: "MESSAGE",
		MessageID:  message.ID,
		SessionID:  message.SessionID,
		Role:       string(message.Role),
		Content:    message.Content,
		CreatedAt:  message.CreatedAt.Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal message", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("Failed to save message",
			zap.String("messageID", message.ID),
			zap.String("sessionID", message.SessionID),
			zap.Error(err),
		)
		return pkgerrors.NewDatabaseError("save message", err)
	}

	return nil
}

// ListBySession retrieves a page of messages in chronological order.
// An empty cursor starts from the beginning; the returned NextCursor is
// non-empty while more pages remain.
func (r *MessageRepository) ListBySession(ctx context.Context, sessionID string, limit int, cursor string) (*ports.MessagePage, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(messagePK(sessionID))).
		And(expression.Key("SK").BeginsWith("MSG#"))

	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build message query", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}
	if cursor != "" {
		startKey, err := decodeMessageCursor(sessionID, cursor)
		if err != nil {
			return nil, err
		}
		input.ExclusiveStartKey = startKey
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list messages", err)
	}

	messages := make([]*chat.Message, 0, len(result.Items))
	for _, raw := range result.Items {
		var item messageItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, pkgerrors.NewDatabaseError("unmarshal message", err)
		}
		message, err := item.toDomain()
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	page := &ports.MessagePage{Messages: messages}
	if result.LastEvaluatedKey != nil {
		page.NextCursor = encodeMessageCursor(result.LastEvaluatedKey)
	}
	return page, nil
}

// ListRecent retrieves the last limit messages in chronological order.
// The query walks the SK backwards and the page is reversed afterwards.
func (r *MessageRepository) ListRecent(ctx context.Context, sessionID string, limit int) ([]*chat.Message, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(messagePK(sessionID))).
		And(expression.Key("SK").BeginsWith("MSG#"))

	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build recent messages query", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list recent messages", err)
	}

	messages := make([]*chat.Message, len(result.Items))
	for idx, raw := range result.Items {
		var item messageItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, pkgerrors.NewDatabaseError("unmarshal message", err)
		}
		message, err := item.toDomain()
		if err != nil {
			return nil, err
		}
		messages[len(messages)-1-idx] = message
	}
	return messages, nil
}

// DeleteBySession removes all messages for a session
func (r *MessageRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	keyEx := expression.Key("PK").Equal(expression.Value(messagePK(sessionID))).
		And(expression.Key("SK").BeginsWith("MSG#"))
	proj := expression.NamesList(expression.Name("PK"), expression.Name("SK"))

	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).WithProjection(proj).Build()
	if err != nil {
		return pkgerrors.NewDatabaseError("build message delete query", err)
	}

	var startKey map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ProjectionExpression:      expr.Projection(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return pkgerrors.NewDatabaseError("query messages for delete", err)
		}

		if err := r.batchDelete(ctx, result.Items); err != nil {
			return err
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return nil
}

func (r *MessageRepository) batchDelete(ctx context.Context, keys []map[string]types.AttributeValue) error {
	for start := 0; start < len(keys); start += batchWriteMaxItems {
		end := start + batchWriteMaxItems
		if end > len(keys) {
			end = len(keys)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, key := range keys[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: key},
			})
		}

		input := &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: requests},
		}
		for len(input.RequestItems[r.tableName]) > 0 {
			result, err := r.client.BatchWriteItem(ctx, input)
			if err != nil {
				return pkgerrors.NewDatabaseError("batch delete messages", err)
			}
			unprocessed := result.UnprocessedItems[r.tableName]
			if len(unprocessed) == 0 {
				break
			}
			r.logger.Warn("Retrying unprocessed message deletes",
				zap.Int("count", len(unprocessed)),
			)
			input.RequestItems = map[string][]types.WriteRequest{r.tableName: unprocessed}
		}
	}
	return nil
}

func (i *messageItem) toDomain() (*chat.Message, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, i.CreatedAt)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("parse message CreatedAt", err)
	}

	return &chat.Message{
		ID:        i.MessageID,
		SessionID: i.SessionID,
		Role:      chat.Role(i.Role),
		Content:   i.Content,
		CreatedAt: createdAt,
	}, nil
}

// encodeMessageCursor packs the SK of the last returned item; the PK is
// implied by the session being paged.
func encodeMessageCursor(lastKey map[string]types.AttributeValue) string {
	sk, ok := lastKey["SK"].(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(sk.Value))
}

func decodeMessageCursor(sessionID, cursor string) (map[string]types.AttributeValue, error) {
	sk, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, pkgerrors.NewValidationError("invalid pagination cursor")
	}
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: messagePK(sessionID)},
		"SK": &types.AttributeValueMemberS{Value: string(sk)},
	}, nil
}

var _ ports.MessageRepository = (*MessageRepository)(nil)
