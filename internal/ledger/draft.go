package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/ledgerbook/internal/domain"
)

// TransactionDraft is the transaction form as submitted. Blank fields are
// filled from the linked product where possible. The date is always the
// creation time and cannot be supplied.
type TransactionDraft struct {
	Description string                 `json:"description"`
	Amount      *domain.Money          `json:"amount,omitempty"` // nil means left blank
	Type        domain.TransactionType `json:"type"`
	Category    domain.Category        `json:"category,omitempty"`
	User        string                 `json:"user,omitempty"`
	ContactID   string                 `json:"contactId,omitempty"`
	ProductID   string                 `json:"productId,omitempty"`
	Quantity    *int64                 `json:"quantity,omitempty"`
}

// ProductInput is the product form.
type ProductInput struct {
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Unit     string       `json:"unit,omitempty"`
	Stock    int64        `json:"stock"`
	Price    domain.Money `json:"price"`
	Cost     domain.Money `json:"cost"`
}

// ContactInput is the contact form.
type ContactInput struct {
	Name  string             `json:"name"`
	Role  domain.ContactRole `json:"role"`
	Phone string             `json:"phone,omitempty"`
}

// build turns a draft into a transaction. product and contact are the
// looked-up references, nil when absent or dangling.
func (d TransactionDraft) build(id string, now time.Time, product *domain.Product, contact *domain.Contact) (domain.Transaction, error) {
	if !d.Type.Valid() {
		return domain.Transaction{}, invalid("type", "must be INCOME or EXPENSE, got %q", d.Type)
	}

	tx := domain.Transaction{
		ID:          id,
		Date:        now.UTC(),
		Description: strings.TrimSpace(d.Description),
		Type:        d.Type,
		Category:    d.Category,
		User:        strings.TrimSpace(d.User),
		ContactID:   d.ContactID,
		ProductID:   d.ProductID,
	}
	if tx.User == "" {
		tx.User = domain.DefaultUser
	}

	if d.ProductID != "" {
		if d.Quantity == nil || *d.Quantity <= 0 {
			return domain.Transaction{}, invalid("quantity", "must be positive when a product is selected")
		}
		tx.Quantity = domain.Qty(*d.Quantity)
	}

	if product != nil {
		tx.ProductName = product.Name
		qty := *d.Quantity
		unit := product.Unit
		if unit == "" {
			unit = domain.DefaultUnit
		}
		unitPrice := product.Cost
		verb := "Pembelian Stok"
		defaultCategory := domain.CategoryInventoryPurchase
		if d.Type == domain.Income {
			unitPrice = product.Price
			verb = "Penjualan"
			defaultCategory = domain.CategorySales
		}
		if d.Amount == nil {
			a := unitPrice.MulInt(qty)
			d.Amount = &a
		}
		if tx.Description == "" {
			tx.Description = fmt.Sprintf("%s %s (%d %s)", verb, product.Name, qty, unit)
		}
		if tx.Category == "" {
			tx.Category = defaultCategory
		}
	}
	if contact != nil {
		tx.ContactName = contact.Name
	}

	if tx.Category == "" {
		tx.Category = domain.CategorySales
		if d.Type == domain.Expense {
			tx.Category = domain.CategoryOperational
		}
	}
	if !tx.Category.Valid() {
		c, err := domain.ParseCategory(string(tx.Category))
		if err != nil {
			return domain.Transaction{}, invalid("category", "unknown category %q", tx.Category)
		}
		tx.Category = c
	}
	if tx.Category.Side() != tx.Type {
		return domain.Transaction{}, invalid("category", "%s is not an %s category", tx.Category.Label(), strings.ToLower(string(tx.Type)))
	}
	if tx.Description == "" {
		return domain.Transaction{}, invalid("description", "must not be empty")
	}
	if d.Amount == nil {
		return domain.Transaction{}, invalid("amount", "is required")
	}
	if d.Amount.IsNegative() {
		return domain.Transaction{}, invalid("amount", "must not be negative")
	}
	tx.Amount = *d.Amount
	return tx, nil
}

func (in ProductInput) build(id string) (domain.Product, error) {
	p := domain.Product{
		ID:       id,
		Name:     strings.TrimSpace(in.Name),
		Category: strings.TrimSpace(in.Category),
		Unit:     strings.TrimSpace(in.Unit),
		Stock:    in.Stock,
		Price:    in.Price,
		Cost:     in.Cost,
	}
	if p.Name == "" {
		return domain.Product{}, invalid("name", "must not be empty")
	}
	if p.Unit == "" {
		p.Unit = domain.DefaultUnit
	}
	if p.Price.IsNegative() {
		return domain.Product{}, invalid("price", "must not be negative")
	}
	if p.Cost.IsNegative() {
		return domain.Product{}, invalid("cost", "must not be negative")
	}
	return p, nil
}

func (in ContactInput) build(id string) (domain.Contact, error) {
	c := domain.Contact{
		ID:    id,
		Name:  strings.TrimSpace(in.Name),
		Phone: strings.TrimSpace(in.Phone),
	}
	if c.Name == "" {
		return domain.Contact{}, invalid("name", "must not be empty")
	}
	role, err := domain.ParseContactRole(string(in.Role))
	if err != nil {
		return domain.Contact{}, invalid("role", "must be CUSTOMER, SUPPLIER or EMPLOYEE")
	}
	c.Role = role
	return c, nil
}
