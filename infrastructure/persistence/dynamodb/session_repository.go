// Package dynamodb implements the persistence ports against a single
// DynamoDB table. Sessions live under their owner's partition
// (PK USER#<userID>, SK SESSION#<sessionID>) with a GSI for direct lookup
// by session ID; messages live under their session's partition.
package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/domain/chat"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/application/ports"
	pkgerrors "github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/errors"
)

// listFetchCeiling caps how many items a list query pulls before the
// client-side recency sort; session partitions are small (tens of
// conversations), so one page is plenty.
const listFetchCeiling = 200

// SessionRepository implements ports.SessionRepository using DynamoDB
type SessionRepository struct {
	client    *dynamodb.Client
	tableName string
	indexName string // GSI for lookup by session ID
	logger    *zap.Logger
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// sessionItem represents the DynamoDB item structure for a session
type sessionItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	GSI1PK       string `dynamodbav:"GSI1PK"`
	GSI1SK       string `dynamodbav:"GSI1SK"`
	EntityType   string `dynamodbav:"EntityType"`
	SessionID    string `dynamodbav:"SessionID"`
	UserID       string `dynamodbav:"UserID"`
	Title        string `dynamodbav:"Title"`
	TitleLower   string `dynamodbav:"TitleLower"` // for contains() search filters
	MessageCount int    `dynamodbav:"MessageCount"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
	UpdatedAt    string `dynamodbav:"UpdatedAt"`
}

func sessionPK(userID string) string    { return fmt.Sprintf("USER#%s", userID) }
func sessionSK(sessionID string) string { return fmt.Sprintf("SESSION#%s", sessionID) }

// Save persists a session (create or update)
func (r *SessionRepository) Save(ctx context.Context, session *chat.Session) error {
	item := sessionItem{
		PK:           sessionPK(session.UserID),
		SK:           sessionSK(session.ID),
		GSI1PK:       fmt.Sprintf("SESSIONID#%s", session.ID),
		GSI1SK:       "METADATA",
		EntityType:   "SESSION",
		SessionID:    session.ID,
		UserID:       session.UserID,
		Title:        session.Title,
		TitleLower:   strings.ToLower(session.Title),
		MessageCount: session.MessageCount,
		CreatedAt:    session.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:    session.UpdatedAt.Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal session", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("Failed to save session",
			zap.String("sessionID", session.ID),
			zap.Error(err),
		)
		return pkgerrors.NewDatabaseError("save session", err)
	}

	return nil
}

// GetByID retrieves a session by its ID via the GSI
func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (*chat.Session, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.indexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("SESSIONID#%s", sessionID)},
			":sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(1),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get session", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("session")
	}

	var item sessionItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal session", err)
	}

	return item.toDomain()
}

// ListByUser retrieves up to limit sessions for a user, most recently
// active first
func (r *SessionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*chat.Session, error) {
	return r.queryByUser(ctx, userID, limit, nil)
}

// Search retrieves up to limit sessions whose title contains query
func (r *SessionRepository) Search(ctx context.Context, userID, query string, limit int) ([]*chat.Session, error) {
	filter := expression.Contains(
		expression.Name("TitleLower"),
		strings.ToLower(strings.TrimSpace(query)),
	)
	return r.queryByUser(ctx, userID, limit, &filter)
}

// CountByUser returns how many sessions the user owns
func (r *SessionRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(sessionPK(userID))).
		And(expression.Key("SK").BeginsWith("SESSION#"))

	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("build session count query", err)
	}

	count := 0
	var startKey map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Select:                    types.SelectCount,
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return 0, pkgerrors.NewDatabaseError("count sessions", err)
		}

		count += int(result.Count)
		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}
	return count, nil
}

// Delete removes a session
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	// The table key is owner-scoped, so resolve the owner first.
	session, err := r.GetByID(ctx, sessionID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil // idempotent
		}
		return err
	}

	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: sessionPK(session.UserID)},
			"SK": &types.AttributeValueMemberS{Value: sessionSK(sessionID)},
		},
	}); err != nil {
		return pkgerrors.NewDatabaseError("delete session", err)
	}

	return nil
}

// DeleteBatch removes multiple sessions
func (r *SessionRepository) DeleteBatch(ctx context.Context, sessionIDs []string) error {
	for _, sessionID := range sessionIDs {
		if err := r.Delete(ctx, sessionID); err != nil {
			return err
		}
	}
	return nil
}

func (r *SessionRepository) queryByUser(ctx context.Context, userID string, limit int, filter *expression.ConditionBuilder) ([]*chat.Session, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(sessionPK(userID))).
		And(expression.Key("SK").BeginsWith("SESSION#"))

	builder := expression.NewBuilder().WithKeyCondition(keyEx)
	if filter != nil {
		builder = builder.WithFilter(*filter)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build session query", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(listFetchCeiling),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list sessions", err)
	}

	sessions := make([]*chat.Session, 0, len(result.Items))
	for _, raw := range result.Items {
		var item sessionItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, pkgerrors.NewDatabaseError("unmarshal session", err)
		}
		session, err := item.toDomain()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	// The SK orders by session ID, not activity; recency is sorted here.
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

func (i *sessionItem) toDomain() (*chat.Session, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, i.CreatedAt)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("parse session CreatedAt", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, i.UpdatedAt)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("parse session UpdatedAt", err)
	}

	return &chat.Session{
		ID:           i.SessionID,
		UserID:       i.UserID,
		Title:        i.Title,
		MessageCount: i.MessageCount,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

var _ ports.SessionRepository = (*SessionRepository)(nil)
