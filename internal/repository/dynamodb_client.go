package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"wallet-agent/internal/domain"
)

const (
	skPrefixTransfer = "XFER#"
	skPrefixVoice    = "VOICE#"
	ttlDuration      = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Client wraps a DynamoDB table for the append-only transfer audit trail.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// chatPK returns the DynamoDB partition key for a conversation.
func chatPK(conversationID string) string {
	return "CHAT#" + conversationID
}

// sortKey returns a time-ordered sort key under the given prefix.
func sortKey(prefix string, ts time.Time) string {
	return prefix + ts.UTC().Format(time.RFC3339Nano)
}

// ttlValue returns a Unix timestamp 30 days in the future.
func ttlValue() int64 {
	return time.Now().Add(ttlDuration).Unix()
}

// RecordTransfer appends an audit row for a freshly extracted transfer
// request. The row is never read back by the bot.
func (c *Client) RecordTransfer(ctx context.Context, conversationID, userID string, intent domain.TransferIntent) error {
	rec := NewTransferRecord(conversationID, userID, intent)

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                transferItem(rec),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: RecordTransfer: %w", err)
	}
	return nil
}

// RecordVoiceNote appends an audit row for a processed voice message.
func (c *Client) RecordVoiceNote(ctx context.Context, conversationID, userID, fileID string, durationSec int, transcript string) error {
	note := NewVoiceNote(conversationID, userID, fileID, durationSec, transcript)

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      voiceItem(note),
	})
	if err != nil {
		return fmt.Errorf("repository: RecordVoiceNote: %w", err)
	}
	return nil
}

// RecentTransfers returns the newest transfer audit rows for a conversation,
// most recent first. It exists for administrative inspection only.
func (c *Client) RecentTransfers(ctx context.Context, conversationID string, limit int) ([]domain.TransferRecord, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: chatPK(conversationID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixTransfer},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	}

	out, err := c.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: RecentTransfers query: %w", err)
	}

	recs := make([]domain.TransferRecord, 0, len(out.Items))
	for _, item := range out.Items {
		rec, err := itemToTransfer(item)
		if err != nil {
			return nil, fmt.Errorf("repository: RecentTransfers unmarshal: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// NewTransferRecord constructs a TransferRecord with PK/SK/TTL set from the
// conversation ID and current time.
func NewTransferRecord(conversationID, userID string, intent domain.TransferIntent) domain.TransferRecord {
	now := time.Now().UTC()
	return domain.TransferRecord{
		PK:             chatPK(conversationID),
		SK:             sortKey(skPrefixTransfer, now),
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		UserID:         userID,
		Amount:         intent.Amount,
		Token:          intent.Token,
		Recipient:      intent.Recipient,
		TTL:            ttlValue(),
	}
}

// NewVoiceNote constructs a VoiceNote record.
func NewVoiceNote(conversationID, userID, fileID string, durationSec int, transcript string) domain.VoiceNote {
	now := time.Now().UTC()
	return domain.VoiceNote{
		PK:             chatPK(conversationID),
		SK:             sortKey(skPrefixVoice, now),
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		UserID:         userID,
		FileID:         fileID,
		DurationSec:    durationSec,
		Transcript:     transcript,
		TTL:            ttlValue(),
	}
}

// itemToTransfer converts a DynamoDB attribute map to a TransferRecord.
func itemToTransfer(item map[string]types.AttributeValue) (domain.TransferRecord, error) {
	pk, err := strAttr(item, "PK")
	if err != nil {
		return domain.TransferRecord{}, err
	}
	sk, err := strAttr(item, "SK")
	if err != nil {
		return domain.TransferRecord{}, err
	}
	amount, err := strAttr(item, "amount")
	if err != nil {
		return domain.TransferRecord{}, err
	}
	token, err := strAttr(item, "token")
	if err != nil {
		return domain.TransferRecord{}, err
	}
	recipient, err := strAttr(item, "recipient")
	if err != nil {
		return domain.TransferRecord{}, err
	}
	id, _ := strAttr(item, "id")         // allow empty
	userID, _ := strAttr(item, "userId") // allow empty

	return domain.TransferRecord{
		PK:        pk,
		SK:        sk,
		ID:        id,
		UserID:    userID,
		Amount:    amount,
		Token:     token,
		Recipient: recipient,
	}, nil
}

func transferItem(rec domain.TransferRecord) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":             &types.AttributeValueMemberS{Value: rec.PK},
		"SK":             &types.AttributeValueMemberS{Value: rec.SK},
		"id":             &types.AttributeValueMemberS{Value: rec.ID},
		"conversationId": &types.AttributeValueMemberS{Value: rec.ConversationID},
		"userId":         &types.AttributeValueMemberS{Value: rec.UserID},
		"amount":         &types.AttributeValueMemberS{Value: rec.Amount},
		"token":          &types.AttributeValueMemberS{Value: rec.Token},
		"recipient":      &types.AttributeValueMemberS{Value: rec.Recipient},
		"ttl":            &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.TTL, 10)},
	}
}

func voiceItem(note domain.VoiceNote) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":             &types.AttributeValueMemberS{Value: note.PK},
		"SK":             &types.AttributeValueMemberS{Value: note.SK},
		"id":             &types.AttributeValueMemberS{Value: note.ID},
		"conversationId": &types.AttributeValueMemberS{Value: note.ConversationID},
		"userId":         &types.AttributeValueMemberS{Value: note.UserID},
		"fileId":         &types.AttributeValueMemberS{Value: note.FileID},
		"durationSec":    &types.AttributeValueMemberN{Value: strconv.Itoa(note.DurationSec)},
		"transcript":     &types.AttributeValueMemberS{Value: note.Transcript},
		"ttl":            &types.AttributeValueMemberN{Value: strconv.FormatInt(note.TTL, 10)},
	}
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
