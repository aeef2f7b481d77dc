package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/dvloznov/ledgerbook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfitAndLoss(t *testing.T) {
	st := ProfitAndLoss(sampleLedger())

	require.Len(t, st.Income, 2)
	assert.Equal(t, domain.CategorySales, st.Income[0].Category)
	assert.Equal(t, "Penjualan", st.Income[0].Label)
	assert.Equal(t, domain.CategoryService, st.Income[1].Category)

	require.Len(t, st.Expenses, 2)
	assert.Equal(t, domain.CategoryOperational, st.Expenses[0].Category)
	assert.Equal(t, "30000", st.Expenses[0].Amount.String())
	assert.Equal(t, domain.CategoryInventoryPurchase, st.Expenses[1].Category)

	assert.Equal(t, "65000", st.NetProfit.String())
}

func TestProfitAndLoss_Empty(t *testing.T) {
	st := ProfitAndLoss(nil)
	assert.Empty(t, st.Income)
	assert.Empty(t, st.Expenses)
	assert.True(t, st.NetProfit.IsZero())
}

func TestStatementRender(t *testing.T) {
	var buf bytes.Buffer
	err := ProfitAndLoss(sampleLedger()).Render(&buf, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Per 2025-03-31")
	assert.Contains(t, out, "Penjualan")
	assert.Contains(t, out, "Pembelian Stok")
	assert.Contains(t, out, "LABA / (RUGI) BERSIH")
	assert.Contains(t, out, FormatMoney(domain.NewMoney(65000)))
}

func TestFormatMoney(t *testing.T) {
	assert.Contains(t, FormatMoney(domain.NewMoney(20000)), "20.000")
	assert.Contains(t, FormatMoney(domain.NewMoney(20000)), "Rp")
}

func TestDashboard(t *testing.T) {
	products := []domain.Product{
		{ID: "a", Stock: 2, Cost: domain.NewMoney(1000)},
		{ID: "b", Stock: 20, Cost: domain.NewMoney(500)},
	}

	view := Dashboard(sampleLedger(), products, nil, DefaultLowStockThreshold)
	assert.Nil(t, view.RiskScore)
	require.Len(t, view.LowStock, 1)
	assert.Equal(t, "a", view.LowStock[0].ID)
	assert.Equal(t, "12000", view.StockValue.String())
	assert.Len(t, view.RecentEntries, 6)
	assert.Equal(t, "f", view.RecentEntries[0].ID)

	view = Dashboard(nil, nil, &domain.RiskAssessment{OverallScore: 35}, DefaultLowStockThreshold)
	require.NotNil(t, view.RiskScore)
	assert.Equal(t, 35.0, *view.RiskScore)
	assert.NotNil(t, view.LowStock)
}
