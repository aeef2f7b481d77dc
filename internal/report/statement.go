package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/dvloznov/ledgerbook/internal/domain"
)

// Currency is the ISO code used when rendering amounts.
const Currency = money.IDR

// Line is one category row of the profit-and-loss statement.
type Line struct {
	Category domain.Category `json:"category"`
	Label    string          `json:"label"`
	Amount   domain.Money    `json:"amount"`
}

// Statement is a profit-and-loss statement over a transaction snapshot.
type Statement struct {
	Income       []Line       `json:"income"`
	Expenses     []Line       `json:"expenses"`
	TotalIncome  domain.Money `json:"totalIncome"`
	TotalExpense domain.Money `json:"totalExpense"`
	NetProfit    domain.Money `json:"netProfit"`
}

// ProfitAndLoss groups txs into income and expense lines ordered like the
// category enumeration.
func ProfitAndLoss(txs []domain.Transaction) Statement {
	income := TotalByType(txs, domain.Income)
	expense := TotalByType(txs, domain.Expense)
	return Statement{
		Income:       lines(GroupByCategory(txs, domain.Income)),
		Expenses:     lines(GroupByCategory(txs, domain.Expense)),
		TotalIncome:  income,
		TotalExpense: expense,
		NetProfit:    income.Sub(expense),
	}
}

func lines(groups map[domain.Category]domain.Money) []Line {
	out := make([]Line, 0, len(groups))
	for cat, amt := range groups {
		out = append(out, Line{Category: cat, Label: cat.Label(), Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := out[i].Category.Order(), out[j].Category.Order()
		if oi != oj {
			return oi < oj
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// FormatMoney renders an amount in Currency, e.g. "Rp20.000,00".
func FormatMoney(m domain.Money) string {
	cur := money.GetCurrency(Currency)
	fraction := 2
	if cur != nil {
		fraction = cur.Fraction
	}
	return money.New(m.MinorUnits(fraction), Currency).Display()
}

// Render writes the statement as plain text.
func (s Statement) Render(w io.Writer, asOf time.Time) error {
	p := &printer{w: w}
	p.printf("LAPORAN LABA RUGI\n")
	p.printf("Per %s\n\n", asOf.Format("2006-01-02"))

	p.printf("PENDAPATAN\n")
	for _, l := range s.Income {
		p.printf("  %-28s %20s\n", l.Label, FormatMoney(l.Amount))
	}
	p.printf("  %-28s %20s\n\n", "Total Pendapatan", FormatMoney(s.TotalIncome))

	p.printf("BEBAN / PENGELUARAN\n")
	for _, l := range s.Expenses {
		p.printf("  %-28s %20s\n", l.Label, FormatMoney(l.Amount))
	}
	p.printf("  %-28s %20s\n\n", "Total Beban", "("+FormatMoney(s.TotalExpense)+")")

	p.printf("%-30s %20s\n", "LABA / (RUGI) BERSIH", FormatMoney(s.NetProfit))
	return p.err
}

// printer remembers the first write error so Render can stay linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
