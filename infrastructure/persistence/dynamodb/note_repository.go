// Package dynamodb stores notes in a single DynamoDB table keyed by owner.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"maswada-backend/domain/note"
	appErrors "maswada-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const (
	ownerPrefix = "USER#"
	notePrefix  = "NOTE#"
)

// DynamoDBAPI is the subset of the DynamoDB client the repository uses.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// noteItem is the stored representation of a note.
type noteItem struct {
	PK        string  `dynamodbav:"PK"` // USER#<owner>
	SK        string  `dynamodbav:"SK"` // NOTE#<id>
	ID        string  `dynamodbav:"id"`
	UserID    string  `dynamodbav:"user_id"`
	Title     string  `dynamodbav:"title"`
	Content   string  `dynamodbav:"content"`
	Summary   *string `dynamodbav:"summary,omitempty"`
	CreatedAt string  `dynamodbav:"created_at"`
	UpdatedAt string  `dynamodbav:"updated_at"`
}

func ownerKey(ownerID string) string { return ownerPrefix + ownerID }
func noteKey(id string) string       { return notePrefix + id }

func toItem(n *note.Note) noteItem {
	return noteItem{
		PK:        ownerKey(n.OwnerID),
		SK:        noteKey(n.ID),
		ID:        n.ID,
		UserID:    n.OwnerID,
		Title:     n.Title,
		Content:   n.Content,
		Summary:   n.Summary,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: n.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (i noteItem) toNote() (*note.Note, error) {
	created, err := time.Parse(time.RFC3339Nano, i.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	updated, err := time.Parse(time.RFC3339Nano, i.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &note.Note{
		ID:        i.ID,
		OwnerID:   i.UserID,
		Title:     i.Title,
		Content:   i.Content,
		Summary:   i.Summary,
		CreatedAt: created.UTC(),
		UpdatedAt: updated.UTC(),
	}, nil
}

// NoteRepository implements ports.NoteRepository on DynamoDB.
type NoteRepository struct {
	client    DynamoDBAPI
	tableName string
	logger    *zap.Logger
}

// NewNoteRepository creates a repository over the given table.
func NewNoteRepository(client DynamoDBAPI, tableName string, logger *zap.Logger) *NoteRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteRepository{client: client, tableName: tableName, logger: logger}
}

func key(id, ownerID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: ownerKey(ownerID)},
		"SK": &types.AttributeValueMemberS{Value: noteKey(id)},
	}
}

// ListByOwner queries the owner's partition and orders by updated_at DESC.
func (r *NoteRepository) ListByOwner(ctx context.Context, ownerID string) ([]*note.Note, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(ownerKey(ownerID))).
		And(expression.Key("SK").BeginsWith(notePrefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build query expression: %w", err)
	}

	notes := make([]*note.Note, 0)
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("query notes: %w", err)
		}

		var items []noteItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal notes: %w", err)
		}
		for _, item := range items {
			n, err := item.toNote()
			if err != nil {
				r.logger.Warn("Skipping malformed note item",
					zap.String("sk", item.SK), zap.Error(err))
				continue
			}
			notes = append(notes, n)
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	return notes, nil
}

// GetByIDAndOwner reads a single item by its composite key.
func (r *NoteRepository) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*note.Note, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            key(id, ownerID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, appErrors.NewNotFoundError("Note")
	}

	var item noteItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal note: %w", err)
	}
	return item.toNote()
}

// Create writes a new item; it fails if the key already exists.
func (r *NoteRepository) Create(ctx context.Context, n *note.Note) error {
	cond := expression.AttributeNotExists(expression.Name("PK"))
	return r.put(ctx, n, cond)
}

// Update overwrites an existing item; a missing key is reported as NotFound.
func (r *NoteRepository) Update(ctx context.Context, n *note.Note) error {
	cond := expression.AttributeExists(expression.Name("PK"))
	err := r.put(ctx, n, cond)
	if isConditionalCheckFailed(err) {
		return appErrors.NewNotFoundError("Note")
	}
	return err
}

func (r *NoteRepository) put(ctx context.Context, n *note.Note, cond expression.ConditionBuilder) error {
	item, err := attributevalue.MarshalMap(toItem(n))
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("build condition: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return fmt.Errorf("put note: %w", err)
	}
	return nil
}

// Delete removes the item; a missing key is reported as NotFound.
func (r *NoteRepository) Delete(ctx context.Context, id, ownerID string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("build condition: %w", err)
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       key(id, ownerID),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionalCheckFailed(err) {
		return appErrors.NewNotFoundError("Note")
	}
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// Ping checks that the table is reachable.
func (r *NoteRepository) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return fmt.Errorf("describe table: %w", err)
	}
	return nil
}

func isConditionalCheckFailed(err error) bool {
	if err == nil {
		return false
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && strings.Contains(apiErr.ErrorCode(), "ConditionalCheckFailed")
}
