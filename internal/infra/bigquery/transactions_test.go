package bigquery

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/dvloznov/ledgerbook/internal/domain"
)

func TestNewTransactionRow(t *testing.T) {
	date := time.Date(2025, 2, 10, 14, 30, 0, 0, time.UTC)
	exported := date.Add(24 * time.Hour)
	amount, err := domain.ParseMoney("20000.50")
	require.NoError(t, err)

	row := NewTransactionRow(domain.Transaction{
		ID:          "tx-1",
		Date:        date,
		Description: "Penjualan Kopi (2 Gelas)",
		Amount:      amount,
		Type:        domain.Income,
		Category:    domain.CategorySales,
		User:        domain.DefaultUser,
		ProductID:   "p-1",
		ProductName: "Kopi",
		Quantity:    domain.Qty(2),
	}, exported)

	assert.Equal(t, "tx-1", row.TransactionID)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.February, Day: 10}, row.TransactionDate)
	assert.Equal(t, "INCOME", row.Type)
	assert.Equal(t, "sales", row.Category)
	assert.Equal(t, "Penjualan", row.CategoryLabel)
	assert.Equal(t, "IDR", row.Currency)
	assert.Equal(t, "40001/2", row.Amount.String())
	assert.True(t, row.ProductID.Valid)
	assert.Equal(t, "Kopi", row.ProductName.StringVal)
	assert.False(t, row.ContactID.Valid)
	assert.Equal(t, int64(2), row.Quantity.Int64)
	assert.True(t, row.Quantity.Valid)
	assert.Equal(t, exported, row.ExportedTS)
}

func TestNewTransactionRow_Unlinked(t *testing.T) {
	row := NewTransactionRow(domain.Transaction{
		ID:       "tx-2",
		Amount:   domain.NewMoney(150000),
		Type:     domain.Expense,
		Category: domain.CategoryOperational,
	}, time.Now())

	assert.False(t, row.Quantity.Valid)
	assert.False(t, row.ProductID.Valid)
	assert.Equal(t, "150000/1", row.Amount.String())
}

func TestPendingRows(t *testing.T) {
	var txs []domain.Transaction
	for i := 0; i < 4; i++ {
		txs = append(txs, domain.Transaction{ID: fmt.Sprintf("tx-%d", i), Type: domain.Expense, Category: domain.CategoryOperational})
	}

	rows := PendingRows(txs, map[string]bool{"tx-1": true, "tx-3": true}, time.Now())
	require.Len(t, rows, 2)
	assert.Equal(t, "tx-0", rows[0].TransactionID)
	assert.Equal(t, "tx-2", rows[1].TransactionID)

	assert.Empty(t, PendingRows(txs[:1], map[string]bool{"tx-0": true}, time.Now()))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusNotFound})))
	assert.False(t, isNotFound(&googleapi.Error{Code: http.StatusForbidden}))
	assert.False(t, isNotFound(errors.New("not found")))
}
