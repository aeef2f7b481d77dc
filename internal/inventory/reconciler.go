// Package inventory keeps product stock consistent with the transactions
// that reference products. Sales (INCOME) consume stock, purchases
// (EXPENSE) replenish it. Stock is never clamped: negative stock is left for
// risk analysis to flag.
package inventory

import (
	"github.com/dvloznov/ledgerbook/internal/domain"
)

// Direction selects whether a transaction's effect is applied or undone.
type Direction int

const (
	// Apply is used when a transaction is recorded.
	Apply Direction = iota
	// Reverse is used when a transaction is deleted.
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "apply"
}

// Outcome reports what Reconcile did.
type Outcome int

const (
	// Unlinked means the transaction carries no product quantity.
	Unlinked Outcome = iota
	// Adjusted means the referenced product's stock was changed.
	Adjusted
	// Missed means the referenced product no longer exists.
	Missed
)

func (o Outcome) String() string {
	switch o {
	case Adjusted:
		return "adjusted"
	case Missed:
		return "missed"
	default:
		return "unlinked"
	}
}

// StockDelta is the signed stock change recording tx causes: -q for INCOME,
// +q for EXPENSE. ok is false when tx does not move stock.
func StockDelta(tx domain.Transaction) (delta int64, ok bool) {
	q, ok := tx.LinkedQuantity()
	if !ok {
		return 0, false
	}
	if tx.Type == domain.Income {
		return -q, true
	}
	return q, true
}

// ApplyTransactionEffect returns p with tx's stock movement applied. It is
// a no-op when tx has no product quantity or references another product.
func ApplyTransactionEffect(p domain.Product, tx domain.Transaction) domain.Product {
	return adjust(p, tx, Apply)
}

// ReverseTransactionEffect is the exact inverse of ApplyTransactionEffect.
func ReverseTransactionEffect(p domain.Product, tx domain.Transaction) domain.Product {
	return adjust(p, tx, Reverse)
}

func adjust(p domain.Product, tx domain.Transaction, dir Direction) domain.Product {
	if tx.ProductID != p.ID {
		return p
	}
	delta, ok := StockDelta(tx)
	if !ok {
		return p
	}
	if dir == Reverse {
		delta = -delta
	}
	p.Stock += delta
	return p
}

// Reconcile applies or reverses tx against a product collection. The input
// slice is not modified; a new slice is returned when stock changes. A
// dangling product reference leaves the collection as is and reports Missed.
func Reconcile(products []domain.Product, tx domain.Transaction, dir Direction) ([]domain.Product, Outcome) {
	if _, ok := StockDelta(tx); !ok {
		return products, Unlinked
	}

	idx := indexOf(products, tx.ProductID)
	if idx < 0 {
		return products, Missed
	}

	out := make([]domain.Product, len(products))
	copy(out, products)
	out[idx] = adjust(out[idx], tx, dir)
	return out, Adjusted
}

// NetMovements sums the signed stock deltas of txs per product id. Ids of
// products that no longer exist are included.
func NetMovements(txs []domain.Transaction) map[string]int64 {
	out := make(map[string]int64)
	for _, tx := range txs {
		if d, ok := StockDelta(tx); ok {
			out[tx.ProductID] += d
		}
	}
	return out
}

// Rebuild recomputes stock for every product from its opening stock plus the
// net movement of txs. It is the invariant the ledger maintains
// incrementally.
func Rebuild(opening []domain.Product, txs []domain.Transaction) []domain.Product {
	moves := NetMovements(txs)
	out := make([]domain.Product, len(opening))
	for i, p := range opening {
		p.Stock += moves[p.ID]
		out[i] = p
	}
	return out
}

// Dangling returns the stock-moving transactions whose product is gone.
func Dangling(products []domain.Product, txs []domain.Transaction) []domain.Transaction {
	var out []domain.Transaction
	for _, tx := range txs {
		if _, ok := StockDelta(tx); !ok {
			continue
		}
		if indexOf(products, tx.ProductID) < 0 {
			out = append(out, tx)
		}
	}
	return out
}

func indexOf(products []domain.Product, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}
