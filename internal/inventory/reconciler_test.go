package inventory

import (
	"testing"

	"github.com/dvloznov/ledgerbook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id string, stock int64) domain.Product {
	return domain.Product{ID: id, Name: "Kopi " + id, Unit: "Pcs", Stock: stock, Price: domain.NewMoney(10000), Cost: domain.NewMoney(6000)}
}

func sale(productID string, qty int64) domain.Transaction {
	return domain.Transaction{ID: "t-sale", Type: domain.Income, Category: domain.CategorySales, ProductID: productID, Quantity: domain.Qty(qty)}
}

func purchase(productID string, qty int64) domain.Transaction {
	return domain.Transaction{ID: "t-buy", Type: domain.Expense, Category: domain.CategoryInventoryPurchase, ProductID: productID, Quantity: domain.Qty(qty)}
}

func TestApplyTransactionEffect(t *testing.T) {
	tests := []struct {
		name string
		tx   domain.Transaction
		want int64
	}{
		{"sale decrements", sale("p1", 2), 8},
		{"purchase increments", purchase("p1", 5), 15},
		{"sale may go negative", sale("p1", 12), -2},
		{"no product link", domain.Transaction{Type: domain.Income, Quantity: domain.Qty(3)}, 10},
		{"no quantity", domain.Transaction{Type: domain.Income, ProductID: "p1"}, 10},
		{"other product", sale("p2", 3), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyTransactionEffect(product("p1", 10), tt.tx)
			assert.Equal(t, tt.want, got.Stock)
		})
	}
}

func TestRoundTripIsIdentity(t *testing.T) {
	for _, start := range []int64{-4, 0, 3, 10} {
		for _, tx := range []domain.Transaction{sale("p1", 1), sale("p1", 7), purchase("p1", 2), purchase("p1", 50)} {
			p := product("p1", start)
			got := ReverseTransactionEffect(ApplyTransactionEffect(p, tx), tx)
			assert.Equal(t, p, got, "start=%d tx=%s", start, tx.Type)
		}
	}
}

func TestReconcile(t *testing.T) {
	products := []domain.Product{product("p1", 10), product("p2", 1)}

	out, outcome := Reconcile(products, sale("p2", 3), Apply)
	assert.Equal(t, Adjusted, outcome)
	assert.Equal(t, int64(-2), out[1].Stock)
	assert.Equal(t, int64(1), products[1].Stock, "input must not be modified")

	out, outcome = Reconcile(out, sale("p2", 3), Reverse)
	assert.Equal(t, Adjusted, outcome)
	assert.Equal(t, int64(1), out[1].Stock)

	out, outcome = Reconcile(products, sale("gone", 3), Apply)
	assert.Equal(t, Missed, outcome)
	assert.Equal(t, products, out)

	_, outcome = Reconcile(products, domain.Transaction{Type: domain.Expense}, Apply)
	assert.Equal(t, Unlinked, outcome)
}

func TestRebuildMatchesIncrementalReconcile(t *testing.T) {
	opening := []domain.Product{product("p1", 10), product("p2", 0)}
	txs := []domain.Transaction{sale("p1", 2), purchase("p2", 4), sale("p2", 6), purchase("p1", 1), sale("gone", 9)}

	incremental := opening
	for _, tx := range txs {
		incremental, _ = Reconcile(incremental, tx, Apply)
	}

	rebuilt := Rebuild(opening, txs)
	require.Len(t, rebuilt, 2)
	assert.Equal(t, incremental, rebuilt)
	assert.Equal(t, int64(9), rebuilt[0].Stock)
	assert.Equal(t, int64(-2), rebuilt[1].Stock)
}

func TestDangling(t *testing.T) {
	products := []domain.Product{product("p1", 10)}
	txs := []domain.Transaction{sale("p1", 1), sale("gone", 2), {ID: "plain", Type: domain.Expense}}

	got := Dangling(products, txs)
	require.Len(t, got, 1)
	assert.Equal(t, "gone", got[0].ProductID)
}

func TestNetMovements(t *testing.T) {
	m := NetMovements([]domain.Transaction{sale("p1", 2), purchase("p1", 5), sale("p2", 1)})
	assert.Equal(t, int64(3), m["p1"])
	assert.Equal(t, int64(-1), m["p2"])
}
