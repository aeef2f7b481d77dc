package domain

// DefaultUnit is used when a product is created without a unit.
const DefaultUnit = "Pcs"

// Product is an inventory record. Stock is signed: negative stock is an
// anomaly surfaced by risk analysis, not an error.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
	Stock    int64  `json:"stock"`
	Price    Money  `json:"price"` // selling price
	Cost     Money  `json:"cost"`  // acquisition cost
}
