package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/ledgerbook/internal/domain"
	"github.com/dvloznov/ledgerbook/internal/report"
)

// TransactionRow is one ledger transaction in the analytics table.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED, partition column
	BookedAt        time.Time  `bigquery:"booked_at"`        // REQUIRED

	Type          string `bigquery:"type"`           // INCOME or EXPENSE
	Category      string `bigquery:"category"`       // slug
	CategoryLabel string `bigquery:"category_label"` // display label

	Description string   `bigquery:"description"`
	Amount      *big.Rat `bigquery:"amount"`   // REQUIRED NUMERIC
	Currency    string   `bigquery:"currency"` // REQUIRED STRING
	UserName    string   `bigquery:"user_name"`

	ContactID   bigquery.NullString `bigquery:"contact_id"`   // NULLABLE
	ContactName bigquery.NullString `bigquery:"contact_name"` // NULLABLE
	ProductID   bigquery.NullString `bigquery:"product_id"`   // NULLABLE
	ProductName bigquery.NullString `bigquery:"product_name"` // NULLABLE
	Quantity    bigquery.NullInt64  `bigquery:"quantity"`     // NULLABLE

	ExportedTS time.Time `bigquery:"exported_ts"`
}

// NewTransactionRow maps a ledger transaction to a table row.
func NewTransactionRow(tx domain.Transaction, exportedAt time.Time) *TransactionRow {
	row := &TransactionRow{
		TransactionID:   tx.ID,
		TransactionDate: civil.DateOf(tx.Date),
		BookedAt:        tx.Date,
		Type:            string(tx.Type),
		Category:        string(tx.Category),
		CategoryLabel:   tx.Category.Label(),
		Description:     tx.Description,
		Amount:          tx.Amount.Decimal().Rat(),
		Currency:        report.Currency,
		UserName:        tx.User,
		ContactID:       nullString(tx.ContactID),
		ContactName:     nullString(tx.ContactName),
		ProductID:       nullString(tx.ProductID),
		ProductName:     nullString(tx.ProductName),
		ExportedTS:      exportedAt,
	}
	if q, ok := tx.LinkedQuantity(); ok {
		row.Quantity = bigquery.NullInt64{Int64: q, Valid: true}
	}
	return row
}

// PendingRows maps the transactions whose IDs are not in existing.
func PendingRows(txs []domain.Transaction, existing map[string]bool, exportedAt time.Time) []*TransactionRow {
	var rows []*TransactionRow
	for _, tx := range txs {
		if existing[tx.ID] {
			continue
		}
		rows = append(rows, NewTransactionRow(tx, exportedAt))
	}
	return rows
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}
