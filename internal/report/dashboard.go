package report

import (
	"github.com/dvloznov/ledgerbook/internal/domain"
)

// ChartSize is how many recent transactions the dashboard chart shows.
const ChartSize = 10

// DashboardView is everything the dashboard screen renders.
type DashboardView struct {
	Summary       domain.FinancialSummary `json:"summary"`
	LowStock      []domain.Product        `json:"lowStock"`
	StockValue    domain.Money            `json:"stockValue"`
	RiskScore     *float64                `json:"riskScore"` // nil until the first analysis
	RecentEntries []domain.Transaction    `json:"recentEntries"`
}

// Dashboard assembles the dashboard from a ledger snapshot. risk may be nil.
func Dashboard(txs []domain.Transaction, products []domain.Product, risk *domain.RiskAssessment, threshold int64) DashboardView {
	view := DashboardView{
		Summary:       Summarize(txs),
		LowStock:      LowStockItems(products, threshold),
		StockValue:    TotalStockValue(products),
		RecentEntries: RecentTransactions(txs, ChartSize),
	}
	if view.LowStock == nil {
		view.LowStock = []domain.Product{}
	}
	if risk != nil {
		score := risk.OverallScore
		view.RiskScore = &score
	}
	return view
}
