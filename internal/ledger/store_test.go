package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/ledgerbook/internal/domain"
	"github.com/dvloznov/ledgerbook/internal/logger"
	"github.com/dvloznov/ledgerbook/internal/report"
	"github.com/dvloznov/ledgerbook/internal/storage"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func openStore(t *testing.T, kv storage.KV) *Store {
	t.Helper()
	s, err := Open(context.Background(), kv, logger.Nop(),
		WithIDGenerator(sequentialIDs()),
		WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	return s
}

func money(units int64) *domain.Money {
	m := domain.NewMoney(units)
	return &m
}

// seedProduct adds product P: price 10000, cost 7000, stock 10.
func seedProduct(t *testing.T, s *Store) domain.Product {
	t.Helper()
	p, err := s.AddProduct(context.Background(), ProductInput{
		Name:     "Kopi Susu",
		Category: "Minuman",
		Unit:     "Gelas",
		Stock:    10,
		Price:    domain.NewMoney(10000),
		Cost:     domain.NewMoney(7000),
	})
	require.NoError(t, err)
	return p
}

func stockOf(t *testing.T, s *Store, id string) int64 {
	t.Helper()
	p, err := s.Product(id)
	require.NoError(t, err)
	return p.Stock
}

func TestAddTransaction_SaleWithBlankAmount(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemory())
	p := seedProduct(t, s)

	tx, err := s.AddTransaction(ctx, TransactionDraft{
		Type:      domain.Income,
		ProductID: p.ID,
		Quantity:  domain.Qty(2),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(8), stockOf(t, s, p.ID))
	assert.Equal(t, "20000", tx.Amount.String())
	assert.Equal(t, "Penjualan Kopi Susu (2 Gelas)", tx.Description)
	assert.Equal(t, domain.CategorySales, tx.Category)
	assert.Equal(t, "Kopi Susu", tx.ProductName)
	assert.Equal(t, domain.DefaultUser, tx.User)
	assert.Equal(t, fixedNow, tx.Date)
}

func TestAddTransaction_ExplicitAmountWins(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemory())
	p := seedProduct(t, s)

	_, err := s.AddTransaction(ctx, TransactionDraft{
		Type:      domain.Income,
		Amount:    money(100000),
		ProductID: p.ID,
		Quantity:  domain.Qty(2),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(8), stockOf(t, s, p.ID))
	assert.Equal(t, "100000", report.TotalByType(s.Transactions(), domain.Income).String())
}

func TestAddTransaction_PurchaseUsesCost(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemory())
	p := seedProduct(t, s)

	tx, err := s.AddTransaction(ctx, TransactionDraft{
		Type:      domain.Expense,
		ProductID: p.ID,
		Quantity:  domain.Qty(5),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(15), stockOf(t, s, p.ID))
	assert.Equal(t, "35000", tx.Amount.String())
	assert.Equal(t, "Pembelian Stok Kopi Susu (5 Gelas)", tx.Description)
	assert.Equal(t, domain.CategoryInventoryPurchase, tx.Category)
}

func TestDeleteTransaction_RestoresStock(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemory())
	p := seedProduct(t, s)

	sale, err := s.AddTransaction(ctx, TransactionDraft{Type: domain.Income, ProductID: p.ID, Quantity: domain.Qty(3)})
	require.NoError(t, err)
	purchase, err := s.AddTransaction(ctx, TransactionDraft{Type: domain.Expense, ProductID: p.ID, Quantity: domain.Qty(4)})
	require.NoError(t, err)
	require.Equal(t, int64(11), stockOf(t, s, p.ID))

	assert.True(t, s.DeleteTransaction(ctx, sale.ID))
	assert.Equal(t, int64(14), stockOf(t, s, p.ID))

	assert.True(t, s.DeleteTransaction(ctx, purchase.ID))
	assert.Equal(t, int64(10), stockOf(t, s, p.ID))
	assert.Empty(t, s.Transactions())
}

func TestDeleteTransaction_UnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemory())
	p := seedProduct(t, s)
	_, err := s.AddTransaction(ctx, TransactionDraft{Type: domain.Income, ProductID: p.ID, Quantity: domain.Qty(1)})
	require.NoError(t, err)

	before := s.Snapshot()
	assert.False(t, s.DeleteTransaction(ctx, "missing"))
	after := s.Snapshot()

	assert.Equal(t, before.Transactions, after.Transactions)
	assert.Equal(t, before.Products[0].Stock, after.Products[0].Stock)
}

func TestTransactions_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemory())

	for _, d := range []string{"first", "second", "third"} {
		_, err := s.AddTransaction(ctx, TransactionDraft{Type: domain.Expense, Description: d, Amount: money(1000)})
		require.NoError(t, err)
	}

	txs := s.Transactions()
	require.Len(t, txs, 3)
	assert.Equal(t, "third", txs[0].Description)
	assert.Equal(t, "first", txs[2].Description)
	assert.Equal(t, domain.CategoryOperational, txs[0].Category)
}

func TestDanglingProductReference(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemory())
	p := seedProduct(t, s)
	other, err := s.AddProduct(ctx, ProductInput{Name: "Teh", Stock: 4, Price: domain.NewMoney(5000), Cost: domain.NewMoney(2000)})
	require.NoError(t, err)

	sale, err := s.AddTransaction(ctx, TransactionDraft{Type: domain.Income, ProductID: p.ID, Quantity: domain.Qty(2)})
	require.NoError(t, err)
	require.True(t, s.DeleteProduct(ctx, p.ID))

	// Deleting the sale after its product is gone leaves other stock alone.
	assert.True(t, s.DeleteTransaction(ctx, sale.ID))
	assert.Equal(t, int64(4), stockOf(t, s, other.ID))

	// New transactions against the deleted product are still recorded.
	tx, err := s.AddTransaction(ctx, TransactionDraft{
		Type:        domain.Income,
		Description: "Penjualan lama",
		Amount:      money(20000),
		ProductID:   p.ID,
		Quantity:    domain.Qty(2),
	})
	require.NoError(t, err)
	assert.Equal(t, p.ID, tx.ProductID)
	assert.Empty(t, tx.ProductName)
	assert.Len(t, s.Transactions(), 1)
}

func TestSnapshotNamesSurviveDeletion(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemory())
	c, err := s.AddContact(ctx, ContactInput{Name: "Bu Sari", Role: domain.RoleCustomer})
	require.NoError(t, err)

	tx, err := s.AddTransaction(ctx, TransactionDraft{
		Type:        domain.Income,
		Description: "Catering",
		Amount:      money(250000),
		Category:    domain.CategoryService,
		ContactID:   c.ID,
	})
	require.NoError(t, err)
	require.True(t, s.DeleteContact(ctx, c.ID))

	got, err := s.Transaction(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bu Sari", got.ContactName)
	assert.Equal(t, c.ID, got.ContactID)

	_, err = s.Contact(c.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAddTransaction_Validation(t *testing.T) {
	s := openStore(t, storage.NewMemory())
	p := seedProduct(t, s)

	tests := []struct {
		name  string
		draft TransactionDraft
		field string
	}{
		{"bad type", TransactionDraft{Type: "TRANSFER", Description: "x", Amount: money(1)}, "type"},
		{"empty description", TransactionDraft{Type: domain.Expense, Amount: money(1)}, "description"},
		{"missing amount", TransactionDraft{Type: domain.Expense, Description: "x"}, "amount"},
		{"negative amount", TransactionDraft{Type: domain.Expense, Description: "x", Amount: money(-5)}, "amount"},
		{"unknown category", TransactionDraft{Type: domain.Expense, Description: "x", Amount: money(1), Category: "travel"}, "category"},
		{"wrong side", TransactionDraft{Type: domain.Expense, Description: "x", Amount: money(1), Category: domain.CategorySales}, "category"},
		{"product without quantity", TransactionDraft{Type: domain.Income, ProductID: p.ID}, "quantity"},
		{"zero quantity", TransactionDraft{Type: domain.Income, ProductID: p.ID, Quantity: domain.Qty(0)}, "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddTransaction(context.Background(), tt.draft)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	assert.Empty(t, s.Transactions())
	assert.Equal(t, int64(10), stockOf(t, s, p.ID))
}

func TestAddProductAndContact_Validation(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemory())

	_, err := s.AddProduct(ctx, ProductInput{Name: "  "})
	assert.Error(t, err)
	_, err = s.AddProduct(ctx, ProductInput{Name: "Gula", Price: domain.NewMoney(-1)})
	assert.Error(t, err)

	p, err := s.AddProduct(ctx, ProductInput{Name: "Gula"})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultUnit, p.Unit)

	_, err = s.AddContact(ctx, ContactInput{Name: "Pak Budi", Role: "partner"})
	assert.Error(t, err)
	c, err := s.AddContact(ctx, ContactInput{Name: "Pak Budi", Role: "supplier"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSupplier, c.Role)
}

func TestReopenRestoresState(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := openStore(t, kv)
	p := seedProduct(t, s)
	_, err := s.AddTransaction(ctx, TransactionDraft{Type: domain.Income, ProductID: p.ID, Quantity: domain.Qty(2)})
	require.NoError(t, err)
	_, err = s.AddContact(ctx, ContactInput{Name: "Andi", Role: domain.RoleEmployee})
	require.NoError(t, err)
	s.SetRiskAssessment(ctx, domain.RiskAssessment{OverallScore: 42, GeneralAdvice: "Cek stok", LastUpdated: fixedNow})

	reopened := openStore(t, kv)
	assert.Equal(t, int64(8), stockOf(t, reopened, p.ID))
	require.Len(t, reopened.Transactions(), 1)
	assert.Equal(t, "20000", reopened.Transactions()[0].Amount.String())
	assert.Len(t, reopened.Contacts(), 1)
	require.NotNil(t, reopened.RiskAssessment())
	assert.Equal(t, 42.0, reopened.RiskAssessment().OverallScore)
}

func TestOpen_EmptyStore(t *testing.T) {
	s := openStore(t, storage.NewMemory())
	assert.Empty(t, s.Transactions())
	assert.Empty(t, s.Products())
	assert.Empty(t, s.Contacts())
	assert.Nil(t, s.RiskAssessment())
}

func TestOpen_CorruptPayload(t *testing.T) {
	kv := storage.NewMemory()
	require.NoError(t, kv.Put(context.Background(), storage.KeyProducts, []byte("{not json")))

	_, err := Open(context.Background(), kv, logger.Nop())
	assert.Error(t, err)
}

type failingKV struct {
	storage.KV
	puts int
}

func (f *failingKV) Put(ctx context.Context, key string, payload []byte) error {
	f.puts++
	return errors.New("disk full")
}

func TestPersistFailureIsNotSurfaced(t *testing.T) {
	kv := &failingKV{KV: storage.NewMemory()}
	s := openStore(t, kv)

	tx, err := s.AddTransaction(context.Background(), TransactionDraft{
		Type:        domain.Expense,
		Description: "Listrik",
		Amount:      money(150000),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, kv.puts)

	got, err := s.Transaction(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "Listrik", got.Description)
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemory())
	p := seedProduct(t, s)
	_, err := s.AddTransaction(ctx, TransactionDraft{Type: domain.Income, ProductID: p.ID, Quantity: domain.Qty(1)})
	require.NoError(t, err)

	txs := s.Transactions()
	*txs[0].Quantity = 99
	txs[0].Description = "changed"
	products := s.Products()
	products[0].Stock = -100

	fresh := s.Transactions()
	assert.Equal(t, int64(1), *fresh[0].Quantity)
	assert.NotEqual(t, "changed", fresh[0].Description)
	assert.Equal(t, int64(9), stockOf(t, s, p.ID))
}

func TestAddTransaction_DateIsCreationTime(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	s, err := Open(context.Background(), storage.NewMemory(), logger.Nop(),
		WithClock(func() time.Time { return fixedNow.In(jakarta) }),
	)
	require.NoError(t, err)

	var draft TransactionDraft
	body := `{"type":"INCOME","description":"x","amount":5,"date":"2001-01-01T00:00:00Z"}`
	require.NoError(t, json.Unmarshal([]byte(body), &draft))

	tx, err := s.AddTransaction(context.Background(), draft)
	require.NoError(t, err)
	assert.True(t, tx.Date.Equal(fixedNow))
	assert.Equal(t, time.UTC, tx.Date.Location())

	stored, err := s.Transaction(tx.ID)
	require.NoError(t, err)
	assert.True(t, stored.Date.Equal(fixedNow))
}

func TestAddTransaction_CategoryLabel(t *testing.T) {
	s := openStore(t, storage.NewMemory())

	tx, err := s.AddTransaction(context.Background(), TransactionDraft{
		Type:        domain.Expense,
		Description: "Iklan",
		Amount:      money(50000),
		Category:    "Pemasaran",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryMarketing, tx.Category)
}

func TestReadsOfEmptyLedgerAreNonNil(t *testing.T) {
	s := openStore(t, storage.NewMemory())
	assert.NotNil(t, s.Products())
	assert.NotNil(t, s.Contacts())
	assert.NotNil(t, s.Transactions())
}
