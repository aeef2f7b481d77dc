package notionsync

import (
	"strings"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/ledgerbook/internal/domain"
	"github.com/dvloznov/ledgerbook/internal/report"
)

// Property names of the Notion transactions database.
const (
	PropDescription   = "Description"
	PropTransactionID = "Transaction ID"
	PropDate          = "Date"
	PropAmount        = "Amount"
	PropType          = "Type"
	PropCategory      = "Category"
	PropContact       = "Contact"
	PropProduct       = "Product"
	PropQuantity      = "Quantity"
	PropUser          = "User"
)

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: s},
		},
	}
}

// TransactionToNotionProperties converts a ledger transaction to page
// properties. Optional fields are only set when present.
func TransactionToNotionProperties(tx domain.Transaction) notionapi.Properties {
	date := notionapi.Date(tx.Date)
	props := notionapi.Properties{
		PropDescription: notionapi.TitleProperty{
			Title: richText(tx.Description),
		},
		PropTransactionID: notionapi.RichTextProperty{
			RichText: richText(tx.ID),
		},
		PropDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &date},
		},
		PropAmount: notionapi.NumberProperty{
			Number: tx.Amount.InexactFloat64(),
		},
		PropType: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(tx.Type)},
		},
		PropCategory: notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.Category.Label()},
		},
	}

	if tx.ContactName != "" {
		props[PropContact] = notionapi.RichTextProperty{RichText: richText(tx.ContactName)}
	}
	if tx.ProductName != "" {
		props[PropProduct] = notionapi.RichTextProperty{RichText: richText(tx.ProductName)}
	}
	if q, ok := tx.LinkedQuantity(); ok {
		props[PropQuantity] = notionapi.NumberProperty{Number: float64(q)}
	}
	if tx.User != "" {
		props[PropUser] = notionapi.RichTextProperty{RichText: richText(tx.User)}
	}

	return props
}

// PageTitle is the one-line summary used in dry-run logs.
func PageTitle(tx domain.Transaction) string {
	var b strings.Builder
	b.WriteString(tx.Description)
	b.WriteString(" · ")
	b.WriteString(report.FormatMoney(tx.Amount))
	return b.String()
}

// extractTransactionID reads the Transaction ID property of a page, or "".
func extractTransactionID(page notionapi.Page) string {
	if prop, ok := page.Properties[PropTransactionID]; ok {
		if rt, ok := prop.(*notionapi.RichTextProperty); ok {
			if len(rt.RichText) > 0 {
				return rt.RichText[0].PlainText
			}
		}
	}
	return ""
}
