// Package gateway asks an external text-generation model for a risk
// assessment of the ledger and for strategy recommendations.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerbook/internal/domain"
	"github.com/dvloznov/ledgerbook/internal/report"
)

// MaxTransactionWindow caps how many of the most recent transactions are
// sent for analysis.
const MaxTransactionWindow = 50

// InsufficientDataAdvice is returned without calling out when the ledger is
// empty.
const InsufficientDataAdvice = "Belum ada data transaksi atau inventaris untuk dianalisis."

// Gateway wraps a Generator with the ledger-specific prompts.
type Gateway struct {
	gen Generator
	log zerolog.Logger
	now func() time.Time
}

// New creates a Gateway. A nil gen means no credential is configured:
// AssessRisk returns ErrUnavailable and RecommendStrategy returns "".
func New(gen Generator, log zerolog.Logger) *Gateway {
	return &Gateway{
		gen: gen,
		log: log.With().Str("component", "gateway").Logger(),
		now: time.Now,
	}
}

// Available reports whether a generator is configured.
func (g *Gateway) Available() bool {
	return g.gen != nil
}

type inventoryItem struct {
	Name  string       `json:"name"`
	Stock int64        `json:"stock"`
	Cost  domain.Money `json:"cost"`
	Price domain.Money `json:"price"`
}

type riskPayload struct {
	Transactions []domain.Transaction `json:"transactions"`
	Inventory    []inventoryItem      `json:"inventory"`
}

type riskResponse struct {
	OverallScore  float64              `json:"overallScore"`
	GeneralAdvice string               `json:"generalAdvice"`
	Anomalies     []domain.RiskAnomaly `json:"anomalies"`
}

// AssessRisk scores the most recent transactions and the inventory.
func (g *Gateway) AssessRisk(ctx context.Context, txs []domain.Transaction, products []domain.Product) (*domain.RiskAssessment, error) {
	if len(txs) == 0 && len(products) == 0 {
		return &domain.RiskAssessment{
			OverallScore:  0,
			GeneralAdvice: InsufficientDataAdvice,
			Anomalies:     []domain.RiskAnomaly{},
			LastUpdated:   g.now(),
		}, nil
	}
	if g.gen == nil {
		g.log.Warn().Msg("No API key configured, risk analysis unavailable")
		return nil, ErrUnavailable
	}

	payload := riskPayload{
		Transactions: report.RecentTransactions(txs, MaxTransactionWindow),
		Inventory:    make([]inventoryItem, 0, len(products)),
	}
	for _, p := range products {
		payload.Inventory = append(payload.Inventory, inventoryItem{Name: p.Name, Stock: p.Stock, Cost: p.Cost, Price: p.Price})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("AssessRisk: marshal payload: %w", err)
	}

	g.log.Info().
		Int("transactions", len(payload.Transactions)).
		Int("products", len(payload.Inventory)).
		Msg("Requesting risk assessment")

	raw, err := g.gen.Generate(ctx, Request{
		Prompt:            buildRiskPrompt(string(data)),
		SystemInstruction: riskSystemInstruction,
		Schema:            riskSchema,
	})
	if err != nil {
		g.log.Error().Err(err).Msg("Risk assessment call failed")
		return nil, &ServiceError{Op: "AssessRisk", Err: err}
	}

	var resp riskResponse
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &resp); err != nil {
		g.log.Error().Err(err).Str("raw_response", raw).Msg("Unparseable risk response")
		return nil, &ServiceError{Op: "AssessRisk", Err: fmt.Errorf("unmarshal JSON: %w", err)}
	}

	ra := &domain.RiskAssessment{
		OverallScore:  clampScore(resp.OverallScore),
		GeneralAdvice: strings.TrimSpace(resp.GeneralAdvice),
		Anomalies:     make([]domain.RiskAnomaly, 0, len(resp.Anomalies)),
		LastUpdated:   g.now(),
	}
	for _, a := range resp.Anomalies {
		a.Severity = normalizeSeverity(a.Severity)
		ra.Anomalies = append(ra.Anomalies, a)
	}
	return ra, nil
}

// RecommendStrategy returns Markdown advice for the summary, or "" when the
// model is unavailable or the call fails.
func (g *Gateway) RecommendStrategy(ctx context.Context, summary domain.FinancialSummary) string {
	if g.gen == nil {
		g.log.Warn().Msg("No API key configured, cannot generate recommendations")
		return ""
	}

	text, err := g.gen.Generate(ctx, Request{Prompt: buildRecommendationPrompt(summary)})
	if err != nil {
		g.log.Error().Err(err).Msg("Recommendation call failed")
		return ""
	}
	return strings.TrimSpace(text)
}

func clampScore(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Max(0, math.Min(100, score))
}

func normalizeSeverity(s domain.Severity) domain.Severity {
	switch v := domain.Severity(strings.ToUpper(strings.TrimSpace(string(s)))); v {
	case domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh:
		return v
	default:
		return domain.SeverityMedium
	}
}
