package gateway

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/ledgerbook/internal/domain"
	"github.com/dvloznov/ledgerbook/internal/report"
)

const riskSystemInstruction = "Anda adalah asisten kepatuhan UMKM yang teliti."

// riskSchema constrains the risk response to the RiskAssessment shape.
var riskSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"overallScore": {
			Type:        genai.TypeNumber,
			Description: "A risk score from 0 to 100. 0 is safe, 100 is critical risk.",
		},
		"generalAdvice": {
			Type:        genai.TypeString,
			Description: "General strategic advice for the business owner on financial health, inventory and compliance.",
		},
		"anomalies": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"transactionId": {Type: genai.TypeString},
					"severity": {
						Type: genai.TypeString,
						Enum: []string{string(domain.SeverityLow), string(domain.SeverityMedium), string(domain.SeverityHigh)},
					},
					"description": {
						Type:        genai.TypeString,
						Description: "Why this transaction or data point is considered anomalous.",
					},
					"recommendation": {
						Type:        genai.TypeString,
						Description: "Actionable step to fix or investigate this anomaly.",
					},
				},
				Required: []string{"transactionId", "severity", "description", "recommendation"},
			},
		},
	},
	Required: []string{"overallScore", "generalAdvice", "anomalies"},
}

func buildRiskPrompt(dataJSON string) string {
	var b strings.Builder
	b.WriteString("Bertindaklah sebagai Auditor Internal dan Ahli Keuangan AI untuk UMKM.\n")
	b.WriteString("Analisis data JSON berikut (Transaksi & Stok).\n\n")
	b.WriteString("Tugas Anda:\n")
	b.WriteString("1. Deteksi anomali keuangan: transaksi ganda, nilai tidak wajar.\n")
	b.WriteString("2. Deteksi anomali stok/inventaris:\n")
	b.WriteString("   - Barang dengan stok negatif (indikasi lupa catat pembelian).\n")
	b.WriteString("   - Barang dengan stok menumpuk tanpa transaksi penjualan (dead stock).\n")
	b.WriteString("   - Margin keuntungan terlalu tipis (harga jual vs harga beli).\n")
	b.WriteString("3. Evaluasi kontrol internal: transaksi tanpa data pelanggan/suplier yang jelas.\n")
	b.WriteString("4. Berikan skor risiko (0-100).\n")
	b.WriteString("5. Saran strategis singkat.\n\n")
	b.WriteString("Data:\n")
	b.WriteString(dataJSON)
	b.WriteString("\n")
	return b.String()
}

func buildRecommendationPrompt(s domain.FinancialSummary) string {
	return fmt.Sprintf(
		"Ringkasan Keuangan:\n"+
			"Pendapatan: %s\n"+
			"Pengeluaran: %s\n"+
			"Laba Bersih: %s\n"+
			"Jumlah Transaksi: %d\n\n"+
			"Berikan 3 rekomendasi strategis singkat (Markdown) untuk meningkatkan efisiensi operasional "+
			"dan literasi digital UMKM ini.\n",
		report.FormatMoney(s.TotalIncome),
		report.FormatMoney(s.TotalExpense),
		report.FormatMoney(s.NetProfit),
		s.TransactionCount,
	)
}

// cleanModelJSON strips Markdown fences and any text around the outermost
// JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
