package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spacesedan/textflow/internal/analysis"
	"github.com/spacesedan/textflow/internal/models"
)

const (
	DEFAULT_ARCHIVE_TABLE = "TextAnalysisResults"
	maxBatchSize          = 25
	itemTTL               = 24 * time.Hour
)

// BatchWriter is the DynamoDB call the archive needs.
type BatchWriter interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// ResultItem is one archived document result.
type ResultItem struct {
	BatchID    string `dynamodbav:"batch_id"`
	DocumentID string `dynamodbav:"document_id"`
	Backend    string `dynamodbav:"backend"`
	Kind       string `dynamodbav:"kind"`
	Text       string `dynamodbav:"text,omitempty"`
	Language   string `dynamodbav:"language,omitempty"`
	Succeeded  bool   `dynamodbav:"succeeded"`
	ErrorCode  string `dynamodbav:"error_code,omitempty"`
	ErrorMsg   string `dynamodbav:"error_message,omitempty"`
	Payload    string `dynamodbav:"payload"`
	CreatedAt  int64  `dynamodbav:"created_at"`
	TTL        int64  `dynamodbav:"ttl"`
}

// Archive writes every result of a batch to a DynamoDB table.
type Archive struct {
	client BatchWriter
	table  string
}

func NewArchive(client BatchWriter, table string) *Archive {
	if table == "" {
		table = DEFAULT_ARCHIVE_TABLE
	}
	return &Archive{client: client, table: table}
}

func (a *Archive) Record(ctx context.Context, batch analysis.Batch) error {
	items, err := ResultItems(batch)
	if err != nil {
		return err
	}

	for i := 0; i < len(items); i += maxBatchSize {
		select {
		case <-ctx.Done():
			slog.Warn("[DynamoDB] context canceled")
			return ctx.Err()
		default:
		}

		end := i + maxBatchSize
		if end > len(items) {
			end = len(items)
		}

		writeRequests := make([]types.WriteRequest, 0, end-i)
		for _, item := range items[i:end] {
			av, err := attributevalue.MarshalMap(item)
			if err != nil {
				return fmt.Errorf("[DynamoDB] Failed to marshal result item: %w", err)
			}
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: av},
			})
		}

		out, err := a.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				a.table: writeRequests,
			},
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Failed to batch write results: %w", err)
		}

		if out != nil && len(out.UnprocessedItems[a.table]) > 0 {
			slog.Error("[DynamoDB] Some results were not written",
				slog.String("batch_id", batch.ID),
				slog.Int("remaining_items", len(out.UnprocessedItems[a.table])))
		}
	}

	slog.Info("[DynamoDB] Archived batch results",
		slog.String("batch_id", batch.ID),
		slog.Int("count", len(items)))
	return nil
}

// ResultItems flattens a batch into table items, one per document.
func ResultItems(batch analysis.Batch) ([]ResultItem, error) {
	docs := make(map[string]models.Document, len(batch.Documents))
	for _, doc := range batch.Documents {
		docs[doc.ID] = doc
	}

	created := batch.CompletedAt.Unix()
	expires := batch.CompletedAt.Add(itemTTL).Unix()

	items := make([]ResultItem, 0, len(batch.Results))
	for _, r := range batch.Results {
		payload, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Failed to encode result %s: %w", r.ID, err)
		}
		item := ResultItem{
			BatchID:    batch.ID,
			DocumentID: r.ID,
			Backend:    batch.Backend,
			Kind:       string(batch.Kind),
			Text:       docs[r.ID].Text,
			Language:   docs[r.ID].Language,
			Succeeded:  !r.Failed(),
			Payload:    string(payload),
			CreatedAt:  created,
			TTL:        expires,
		}
		if r.Error != nil {
			item.ErrorCode = r.Error.Code
			item.ErrorMsg = r.Error.Message
		}
		items = append(items, item)
	}
	return items, nil
}
