// Package bigquery exports the ledger's transactions to a BigQuery table
// for analytics.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/ledgerbook/internal/domain"
)

const (
	transactionsTable = "transactions"
	insertBatchSize   = 500
)

// Exporter appends ledger transactions to <project>.<dataset>.transactions.
type Exporter struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	log       zerolog.Logger
	now       func() time.Time
}

// NewExporter creates an exporter with its own BigQuery client.
func NewExporter(ctx context.Context, projectID, datasetID string, log zerolog.Logger) (*Exporter, error) {
	if projectID == "" {
		return nil, fmt.Errorf("NewExporter: project ID is required")
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewExporter: bigquery client: %w", err)
	}
	return &Exporter{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		log:       log.With().Str("component", "bigquery_export").Logger(),
		now:       time.Now,
	}, nil
}

// Close closes the BigQuery client connection.
func (e *Exporter) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

func (e *Exporter) table() *bigquery.Table {
	return e.client.DatasetInProject(e.projectID, e.datasetID).Table(transactionsTable)
}

// EnsureTable creates the transactions table, partitioned by date, when it
// does not exist yet.
func (e *Exporter) EnsureTable(ctx context.Context) error {
	_, err := e.table().Metadata(ctx)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("EnsureTable: table metadata: %w", err)
	}

	schema, err := bigquery.InferSchema(TransactionRow{})
	if err != nil {
		return fmt.Errorf("EnsureTable: infer schema: %w", err)
	}
	meta := &bigquery.TableMetadata{
		Schema:           schema,
		TimePartitioning: &bigquery.TimePartitioning{Field: "transaction_date"},
	}
	if err := e.table().Create(ctx, meta); err != nil {
		return fmt.Errorf("EnsureTable: create table: %w", err)
	}
	e.log.Info().Str("dataset", e.datasetID).Msg("Created transactions table")
	return nil
}

// ExistingTransactionIDs returns the IDs already exported.
func (e *Exporter) ExistingTransactionIDs(ctx context.Context) (map[string]bool, error) {
	q := e.client.Query(fmt.Sprintf(
		"SELECT transaction_id FROM `%s.%s.%s`", e.projectID, e.datasetID, transactionsTable,
	))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ExistingTransactionIDs: query read: %w", err)
	}

	ids := make(map[string]bool)
	for {
		var r struct {
			TransactionID string `bigquery:"transaction_id"`
		}
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ExistingTransactionIDs: iter next: %w", err)
		}
		ids[r.TransactionID] = true
	}
	return ids, nil
}

// ExportTransactions inserts the transactions not exported yet and returns
// how many rows were written.
func (e *Exporter) ExportTransactions(ctx context.Context, txs []domain.Transaction) (int, error) {
	if err := e.EnsureTable(ctx); err != nil {
		return 0, err
	}
	existing, err := e.ExistingTransactionIDs(ctx)
	if err != nil {
		return 0, err
	}

	rows := PendingRows(txs, existing, e.now())
	inserter := e.table().Inserter()
	for i := 0; i < len(rows); i += insertBatchSize {
		end := i + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := inserter.Put(ctx, rows[i:end]); err != nil {
			return i, fmt.Errorf("ExportTransactions: inserting rows: %w", err)
		}
	}

	e.log.Info().
		Int("exported", len(rows)).
		Int("already_present", len(txs)-len(rows)).
		Msg("Transactions exported to BigQuery")
	return len(rows), nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
