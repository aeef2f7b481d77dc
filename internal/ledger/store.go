// Package ledger owns the business's transactions, products, contacts and
// latest risk assessment. Every mutation goes through Store, which keeps
// product stock reconciled with the transactions that reference it and
// writes the touched collections back to storage.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerbook/internal/domain"
	"github.com/dvloznov/ledgerbook/internal/inventory"
	"github.com/dvloznov/ledgerbook/internal/metrics"
	"github.com/dvloznov/ledgerbook/internal/storage"
)

// Snapshot is a consistent copy of the ledger at one point in time.
type Snapshot struct {
	Transactions []domain.Transaction
	Products     []domain.Product
	Contacts     []domain.Contact
	Risk         *domain.RiskAssessment
}

// Store is the single owner of ledger state. Reads return copies.
type Store struct {
	mu sync.RWMutex

	kv      storage.KV
	log     zerolog.Logger
	metrics *metrics.Metrics
	newID   func() string
	now     func() time.Time

	transactions []domain.Transaction // newest first
	products     []domain.Product
	contacts     []domain.Contact
	risk         *domain.RiskAssessment
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics counts mutations, reconciliations and failed writes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithClock overrides time.Now for default transaction dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// Open loads all collections from kv. Missing keys start empty.
func Open(ctx context.Context, kv storage.KV, log zerolog.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		kv:    kv,
		log:   log.With().Str("component", "ledger").Logger(),
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := load(ctx, kv, storage.KeyTransactions, &s.transactions); err != nil {
		return nil, err
	}
	if err := load(ctx, kv, storage.KeyProducts, &s.products); err != nil {
		return nil, err
	}
	if err := load(ctx, kv, storage.KeyContacts, &s.contacts); err != nil {
		return nil, err
	}
	if err := load(ctx, kv, storage.KeyRisk, &s.risk); err != nil {
		return nil, err
	}

	s.log.Info().
		Int("transactions", len(s.transactions)).
		Int("products", len(s.products)).
		Int("contacts", len(s.contacts)).
		Bool("has_risk", s.risk != nil).
		Msg("Ledger loaded")
	return s, nil
}

func load(ctx context.Context, kv storage.KV, key string, dst any) error {
	payload, err := kv.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("Open: reading %s: %w", key, err)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("Open: decoding %s: %w", key, err)
	}
	return nil
}

// persist writes one collection. Failures are logged and counted only.
// Must be called with s.mu held.
func (s *Store) persist(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err == nil {
		err = s.kv.Put(ctx, key, payload)
	}
	if err != nil {
		s.metrics.PersistFailed(key)
		s.log.Error().Err(err).Str("key", key).Msg("Failed to persist collection")
	}
}

// reconcile applies or reverses tx against the product collection.
// Must be called with s.mu held.
func (s *Store) reconcile(tx domain.Transaction, dir inventory.Direction) inventory.Outcome {
	products, outcome := inventory.Reconcile(s.products, tx, dir)
	s.products = products
	s.metrics.Reconciled(dir.String(), outcome.String())

	switch outcome {
	case inventory.Missed:
		s.log.Warn().
			Str("transaction_id", tx.ID).
			Str("product_id", tx.ProductID).
			Str("direction", dir.String()).
			Msg("Product not found, stock not adjusted")
	case inventory.Adjusted:
		delta, _ := inventory.StockDelta(tx)
		if dir == inventory.Reverse {
			delta = -delta
		}
		s.log.Debug().
			Str("transaction_id", tx.ID).
			Str("product_id", tx.ProductID).
			Int64("delta", delta).
			Msg("Stock adjusted")
	}
	return outcome
}

// AddTransaction validates the draft, records the transaction at the head
// of the log and reconciles the linked product's stock.
func (s *Store) AddTransaction(ctx context.Context, draft TransactionDraft) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var product *domain.Product
	if draft.ProductID != "" {
		if i := s.productIndex(draft.ProductID); i >= 0 {
			p := s.products[i]
			product = &p
		}
	}
	var contact *domain.Contact
	if draft.ContactID != "" {
		if i := s.contactIndex(draft.ContactID); i >= 0 {
			c := s.contacts[i]
			contact = &c
		}
	}

	tx, err := draft.build(s.newID(), s.now(), product, contact)
	if err != nil {
		return domain.Transaction{}, err
	}

	s.transactions = append([]domain.Transaction{tx}, s.transactions...)
	outcome := s.reconcile(tx, inventory.Apply)
	s.metrics.Mutation(storage.KeyTransactions, "add")

	s.persist(ctx, storage.KeyTransactions, s.transactions)
	if outcome == inventory.Adjusted {
		s.persist(ctx, storage.KeyProducts, s.products)
	}

	s.log.Info().
		Str("transaction_id", tx.ID).
		Str("type", string(tx.Type)).
		Str("amount", tx.Amount.String()).
		Msg("Transaction recorded")
	return cloneTransaction(tx), nil
}

// DeleteTransaction removes a transaction and reverses its stock effect.
// Unknown ids are a no-op; the result reports whether anything was removed.
func (s *Store) DeleteTransaction(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := -1
	for j := range s.transactions {
		if s.transactions[j].ID == id {
			i = j
			break
		}
	}
	if i < 0 {
		s.log.Debug().Str("transaction_id", id).Msg("Delete of unknown transaction ignored")
		return false
	}

	tx := s.transactions[i]
	s.transactions = append(s.transactions[:i:i], s.transactions[i+1:]...)
	outcome := s.reconcile(tx, inventory.Reverse)
	s.metrics.Mutation(storage.KeyTransactions, "delete")

	s.persist(ctx, storage.KeyTransactions, s.transactions)
	if outcome == inventory.Adjusted {
		s.persist(ctx, storage.KeyProducts, s.products)
	}
	return true
}

// AddProduct appends a product to the inventory.
func (s *Store) AddProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := in.build(s.newID())
	if err != nil {
		return domain.Product{}, err
	}
	s.products = append(s.products, p)
	s.metrics.Mutation(storage.KeyProducts, "add")
	s.persist(ctx, storage.KeyProducts, s.products)
	return p, nil
}

// DeleteProduct removes a product. Transactions referencing it keep their
// snapshot name and a dangling id.
func (s *Store) DeleteProduct(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.productIndex(id)
	if i < 0 {
		return false
	}
	s.products = append(s.products[:i:i], s.products[i+1:]...)
	s.metrics.Mutation(storage.KeyProducts, "delete")
	s.persist(ctx, storage.KeyProducts, s.products)
	return true
}

// AddContact appends a contact to the directory.
func (s *Store) AddContact(ctx context.Context, in ContactInput) (domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := in.build(s.newID())
	if err != nil {
		return domain.Contact{}, err
	}
	s.contacts = append(s.contacts, c)
	s.metrics.Mutation(storage.KeyContacts, "add")
	s.persist(ctx, storage.KeyContacts, s.contacts)
	return c, nil
}

// DeleteContact removes a contact without touching transactions.
func (s *Store) DeleteContact(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.contactIndex(id)
	if i < 0 {
		return false
	}
	s.contacts = append(s.contacts[:i:i], s.contacts[i+1:]...)
	s.metrics.Mutation(storage.KeyContacts, "delete")
	s.persist(ctx, storage.KeyContacts, s.contacts)
	return true
}

// SetRiskAssessment replaces the stored assessment.
func (s *Store) SetRiskAssessment(ctx context.Context, ra domain.RiskAssessment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ra = cloneRisk(ra)
	s.risk = &ra
	s.metrics.Mutation(storage.KeyRisk, "set")
	s.persist(ctx, storage.KeyRisk, s.risk)
}

// Transactions returns the transaction log, newest first.
func (s *Store) Transactions() []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTransactions(s.transactions)
}

// Products returns the inventory in insertion order.
func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]domain.Product, 0, len(s.products)), s.products...)
}

// Contacts returns the directory in insertion order.
func (s *Store) Contacts() []domain.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]domain.Contact, 0, len(s.contacts)), s.contacts...)
}

// RiskAssessment returns the latest assessment, or nil before the first
// analysis.
func (s *Store) RiskAssessment() *domain.RiskAssessment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.risk == nil {
		return nil
	}
	ra := cloneRisk(*s.risk)
	return &ra
}

// Snapshot returns all collections under one read lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Transactions: cloneTransactions(s.transactions),
		Products:     append([]domain.Product(nil), s.products...),
		Contacts:     append([]domain.Contact(nil), s.contacts...),
	}
	if s.risk != nil {
		ra := cloneRisk(*s.risk)
		snap.Risk = &ra
	}
	return snap
}

// Transaction looks up one transaction.
func (s *Store) Transaction(id string) (domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tx := range s.transactions {
		if tx.ID == id {
			return cloneTransaction(tx), nil
		}
	}
	return domain.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
}

// Product looks up one product.
func (s *Store) Product(id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.productIndex(id); i >= 0 {
		return s.products[i], nil
	}
	return domain.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
}

// Contact looks up one contact.
func (s *Store) Contact(id string) (domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.contactIndex(id); i >= 0 {
		return s.contacts[i], nil
	}
	return domain.Contact{}, fmt.Errorf("contact %s: %w", id, ErrNotFound)
}

func (s *Store) productIndex(id string) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) contactIndex(id string) int {
	for i := range s.contacts {
		if s.contacts[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneTransaction(tx domain.Transaction) domain.Transaction {
	if tx.Quantity != nil {
		tx.Quantity = domain.Qty(*tx.Quantity)
	}
	return tx
}

func cloneTransactions(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = cloneTransaction(tx)
	}
	return out
}

func cloneRisk(ra domain.RiskAssessment) domain.RiskAssessment {
	ra.Anomalies = append([]domain.RiskAnomaly(nil), ra.Anomalies...)
	return ra
}
