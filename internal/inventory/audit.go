package inventory

import "github.com/dvloznov/ledgerbook/internal/domain"

// Issue names what is wrong with a product's stock.
type Issue string

const (
	IssueNone Issue = ""
	// IssueNegativeStock means more was sold than was ever in stock.
	IssueNegativeStock Issue = "NEGATIVE STOCK"
	// IssueNegativeOpening means the recorded movements imply the product
	// started below zero.
	IssueNegativeOpening Issue = "NEGATIVE OPENING"
	// IssueDrift means opening stock plus movements does not give the
	// stored stock.
	IssueDrift Issue = "DRIFT"
)

// AuditLine is the stock audit of one product.
type AuditLine struct {
	Product  domain.Product
	Net      int64 // signed movement from live transactions
	Opening  int64
	Expected int64 // Opening + Net
	Issue    Issue
}

// Audit checks every product's stored stock against Rebuild. opening holds
// known opening stock by product id; products missing from it get the
// opening implied by their stored stock, which can only reveal negative
// stock, never drift.
func Audit(products []domain.Product, txs []domain.Transaction, opening map[string]int64) []AuditLine {
	moves := NetMovements(txs)

	start := make([]domain.Product, len(products))
	for i, p := range products {
		if o, ok := opening[p.ID]; ok {
			p.Stock = o
		} else {
			p.Stock -= moves[p.ID]
		}
		start[i] = p
	}
	rebuilt := Rebuild(start, txs)

	out := make([]AuditLine, len(products))
	for i, p := range products {
		line := AuditLine{
			Product:  p,
			Net:      moves[p.ID],
			Opening:  start[i].Stock,
			Expected: rebuilt[i].Stock,
		}
		switch {
		case line.Expected != p.Stock:
			line.Issue = IssueDrift
		case p.Stock < 0:
			line.Issue = IssueNegativeStock
		case line.Opening < 0:
			line.Issue = IssueNegativeOpening
		}
		out[i] = line
	}
	return out
}
