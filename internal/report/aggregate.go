// Package report derives financial summaries from a ledger snapshot. Every
// function is pure and recomputes from its inputs; nothing is cached.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/ledgerbook/internal/domain"
)

// DefaultLowStockThreshold is the stock level at or below which a product
// is reported as low.
const DefaultLowStockThreshold = 5

// TotalByType sums the amounts of transactions of type t.
func TotalByType(txs []domain.Transaction, t domain.TransactionType) domain.Money {
	total := domain.Zero
	for _, tx := range txs {
		if tx.Type == t {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// NetProfit is total income minus total expense. It may be negative.
func NetProfit(txs []domain.Transaction) domain.Money {
	return TotalByType(txs, domain.Income).Sub(TotalByType(txs, domain.Expense))
}

// GroupByCategory sums amounts per category for transactions of type t.
// Categories without transactions are absent from the result.
func GroupByCategory(txs []domain.Transaction, t domain.TransactionType) map[domain.Category]domain.Money {
	out := make(map[domain.Category]domain.Money)
	for _, tx := range txs {
		if tx.Type != t {
			continue
		}
		out[tx.Category] = out[tx.Category].Add(tx.Amount)
	}
	return out
}

// LowStockItems returns products whose stock is at or below threshold, in
// their original order. Negative stock is included.
func LowStockItems(products []domain.Product, threshold int64) []domain.Product {
	var out []domain.Product
	for _, p := range products {
		if p.Stock <= threshold {
			out = append(out, p)
		}
	}
	return out
}

// TotalStockValue values inventory at acquisition cost: sum of stock * cost.
func TotalStockValue(products []domain.Product) domain.Money {
	total := domain.Zero
	for _, p := range products {
		total = total.Add(p.Cost.MulInt(p.Stock))
	}
	return total
}

// RecentTransactions returns up to n transactions, newest first. Ties keep
// their input order. n <= 0 returns all of them.
func RecentTransactions(txs []domain.Transaction, n int) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Summarize computes the dashboard headline figures.
func Summarize(txs []domain.Transaction) domain.FinancialSummary {
	income := TotalByType(txs, domain.Income)
	expense := TotalByType(txs, domain.Expense)
	return domain.FinancialSummary{
		TotalIncome:      income,
		TotalExpense:     expense,
		NetProfit:        income.Sub(expense),
		TransactionCount: len(txs),
	}
}

// FilterTransactions keeps transactions whose description, category label
// or contact name contains term (case-insensitive), newest first. An empty
// term keeps everything.
func FilterTransactions(txs []domain.Transaction, term string) []domain.Transaction {
	term = strings.ToLower(strings.TrimSpace(term))
	var out []domain.Transaction
	for _, tx := range txs {
		if term == "" ||
			strings.Contains(strings.ToLower(tx.Description), term) ||
			strings.Contains(strings.ToLower(tx.Category.Label()), term) ||
			strings.Contains(strings.ToLower(string(tx.Category)), term) ||
			strings.Contains(strings.ToLower(tx.ContactName), term) {
			out = append(out, tx)
		}
	}
	return RecentTransactions(out, 0)
}

// FilterByDate keeps transactions dated on or after the day of from and on
// or before the day of to, both inclusive. A zero bound is open. Order is
// preserved.
func FilterByDate(txs []domain.Transaction, from, to time.Time) []domain.Transaction {
	if from.IsZero() && to.IsZero() {
		return txs
	}
	var start, end time.Time
	if !from.IsZero() {
		start = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	}
	if !to.IsZero() {
		end = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location()).AddDate(0, 0, 1)
	}

	out := []domain.Transaction{}
	for _, tx := range txs {
		if !start.IsZero() && tx.Date.Before(start) {
			continue
		}
		if !end.IsZero() && !tx.Date.Before(end) {
			continue
		}
		out = append(out, tx)
	}
	return out
}
