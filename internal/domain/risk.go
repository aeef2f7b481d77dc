package domain

import "time"

// Severity grades a risk anomaly.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// RiskAnomaly is one flagged data pattern.
type RiskAnomaly struct {
	TransactionID  string   `json:"transactionId,omitempty"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
}

// RiskAssessment is replaced wholesale on every successful analysis.
type RiskAssessment struct {
	OverallScore  float64       `json:"overallScore"` // 0-100, higher is riskier
	GeneralAdvice string        `json:"generalAdvice"`
	Anomalies     []RiskAnomaly `json:"anomalies"`
	LastUpdated   time.Time     `json:"lastUpdated"`
}

// FinancialSummary is the headline of the dashboard and the input of
// strategy recommendations.
type FinancialSummary struct {
	TotalIncome      Money `json:"totalIncome"`
	TotalExpense     Money `json:"totalExpense"`
	NetProfit        Money `json:"netProfit"`
	TransactionCount int   `json:"transactionCount"`
}
