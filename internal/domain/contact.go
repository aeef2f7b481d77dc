package domain

import (
	"fmt"
	"strings"
)

// ContactRole classifies a directory entry.
type ContactRole string

const (
	RoleCustomer ContactRole = "CUSTOMER"
	RoleSupplier ContactRole = "SUPPLIER"
	RoleEmployee ContactRole = "EMPLOYEE"
)

// ParseContactRole normalizes a role string.
func ParseContactRole(s string) (ContactRole, error) {
	switch r := ContactRole(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleCustomer, RoleSupplier, RoleEmployee:
		return r, nil
	default:
		return "", fmt.Errorf("unknown contact role %q", s)
	}
}

// CounterpartyRole is the role expected on the other side of a transaction
// type: customers buy, suppliers sell.
func CounterpartyRole(t TransactionType) ContactRole {
	if t == Income {
		return RoleCustomer
	}
	return RoleSupplier
}

// Contact is a customer, supplier or employee. Deleting a contact does not
// touch transactions that reference it.
type Contact struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Role  ContactRole `json:"role"`
	Phone string      `json:"phone,omitempty"`
}
