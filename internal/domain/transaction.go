package domain

import (
	"fmt"
	"strings"
	"time"
)

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	// Income is money coming in (sales, services). Sales consume stock.
	Income TransactionType = "INCOME"
	// Expense is money going out. Stock purchases replenish stock.
	Expense TransactionType = "EXPENSE"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Category is the fixed classification of a transaction.
type Category string

const (
	CategorySales             Category = "sales"
	CategoryService           Category = "service"
	CategoryOtherIncome       Category = "other-income"
	CategoryCostOfGoods       Category = "cost-of-goods"
	CategoryOperational       Category = "operational"
	CategorySalary            Category = "salary"
	CategoryMarketing         Category = "marketing"
	CategoryOtherExpense      Category = "other-expense"
	CategoryInventoryPurchase Category = "inventory-purchase"
)

// Categories lists every category in statement order.
var Categories = []Category{
	CategorySales,
	CategoryService,
	CategoryOtherIncome,
	CategoryCostOfGoods,
	CategoryOperational,
	CategorySalary,
	CategoryMarketing,
	CategoryOtherExpense,
	CategoryInventoryPurchase,
}

var categoryLabels = map[Category]string{
	CategorySales:             "Penjualan",
	CategoryService:           "Jasa",
	CategoryOtherIncome:       "Pendapatan Lain",
	CategoryCostOfGoods:       "HPP (Bahan Baku)",
	CategoryOperational:       "Operasional",
	CategorySalary:            "Gaji Karyawan",
	CategoryMarketing:         "Pemasaran",
	CategoryOtherExpense:      "Pengeluaran Lain",
	CategoryInventoryPurchase: "Pembelian Stok",
}

// Label returns the display label used on reports.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Side returns the transaction type a category belongs to.
func (c Category) Side() TransactionType {
	switch c {
	case CategorySales, CategoryService, CategoryOtherIncome:
		return Income
	default:
		return Expense
	}
}

// Order returns the position of c in Categories, or len(Categories) when unknown.
func (c Category) Order() int {
	for i, cat := range Categories {
		if cat == c {
			return i
		}
	}
	return len(Categories)
}

// ParseCategory accepts either the slug ("inventory-purchase") or the
// display label ("Pembelian Stok"), case-insensitively.
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if string(c) == norm || strings.ToLower(c.Label()) == norm {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// DefaultUser is recorded on transactions when no operator is given.
const DefaultUser = "Pemilik"

// Transaction is one income or expense entry. Once created it is never
// edited, only deleted.
//
// ContactName and ProductName are snapshots taken at creation time and are
// not kept in sync with later edits of the referenced records. ContactID and
// ProductID are weak references and may dangle.
type Transaction struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      Money           `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    Category        `json:"category"`
	User        string          `json:"user,omitempty"`

	ContactID   string `json:"contactId,omitempty"`
	ContactName string `json:"contactName,omitempty"`
	ProductID   string `json:"productId,omitempty"`
	ProductName string `json:"productName,omitempty"`
	Quantity    *int64 `json:"quantity,omitempty"` // set iff ProductID is set
}

// LinkedQuantity returns the product quantity when the transaction moves
// stock, and false otherwise.
func (t Transaction) LinkedQuantity() (int64, bool) {
	if t.ProductID == "" || t.Quantity == nil {
		return 0, false
	}
	return *t.Quantity, true
}

// Qty is a helper for building optional quantities.
func Qty(n int64) *int64 { return &n }
