package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerbook/internal/api/middleware"
	"github.com/dvloznov/ledgerbook/internal/domain"
	"github.com/dvloznov/ledgerbook/internal/ledger"
	"github.com/dvloznov/ledgerbook/internal/report"
)

// LedgerHandler handles transaction, product and contact endpoints.
type LedgerHandler struct {
	store *ledger.Store
	log   zerolog.Logger
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(store *ledger.Store, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{
		store: store,
		log:   log,
	}
}

// ListTransactions handles GET /api/transactions
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs := h.store.Transactions()
	if q := r.URL.Query().Get("q"); q != "" {
		txs = report.FilterTransactions(txs, q)
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// CreateTransaction handles POST /api/transactions
func (h *LedgerHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var draft ledger.TransactionDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.store.AddTransaction(r.Context(), draft)
	if err != nil {
		h.writeMutationError(w, err, "Failed to record transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *LedgerHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.store.DeleteTransaction(r.Context(), id) {
		h.log.Debug().Str("transaction_id", id).Msg("Delete requested for unknown transaction")
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProducts handles GET /api/products
func (h *LedgerHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.store.Products()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

// CreateProduct handles POST /api/products
func (h *LedgerHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in ledger.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.store.AddProduct(r.Context(), in)
	if err != nil {
		h.writeMutationError(w, err, "Failed to add product")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, p)
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *LedgerHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	h.store.DeleteProduct(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// ListContacts handles GET /api/contacts
func (h *LedgerHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts := h.store.Contacts()
	query := r.URL.Query()

	var role domain.ContactRole
	if roleStr := query.Get("role"); roleStr != "" {
		parsed, err := domain.ParseContactRole(roleStr)
		if err != nil {
			middleware.WriteFieldError(w, "role", "Unknown contact role")
			return
		}
		role = parsed
	} else if typeStr := query.Get("type"); typeStr != "" {
		// The transaction form offers customers for income and suppliers
		// for expenses.
		t := domain.TransactionType(strings.ToUpper(typeStr))
		if !t.Valid() {
			middleware.WriteFieldError(w, "type", "must be INCOME or EXPENSE")
			return
		}
		role = domain.CounterpartyRole(t)
	}

	if role != "" {
		filtered := []domain.Contact{}
		for _, c := range contacts {
			if c.Role == role {
				filtered = append(filtered, c)
			}
		}
		contacts = filtered
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"contacts": contacts,
		"count":    len(contacts),
	})
}

// CreateContact handles POST /api/contacts
func (h *LedgerHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var in ledger.ContactInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.store.AddContact(r.Context(), in)
	if err != nil {
		h.writeMutationError(w, err, "Failed to add contact")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, c)
}

// DeleteContact handles DELETE /api/contacts/{id}
func (h *LedgerHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	h.store.DeleteContact(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) writeMutationError(w http.ResponseWriter, err error, message string) {
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		middleware.WriteFieldError(w, verr.Field, verr.Error())
		return
	}
	h.log.Error().Err(err).Msg(message)
	middleware.WriteError(w, http.StatusInternalServerError, message)
}
