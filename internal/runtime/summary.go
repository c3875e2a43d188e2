package runtime

import (
	"strings"

	"github.com/aretw0/storefront/internal/phrases"
	"github.com/aretw0/storefront/pkg/domain"
)

// SummaryLine is one rendered cart line.
type SummaryLine struct {
	ProductID string
	Name      string
	UnitPrice int64
	Quantity  int
	Cost      int64
	Text      string
}

// CartSummary is the rendered cart. Total is computed from the lines on every call.
type CartSummary struct {
	Text  string
	Total int64
	Lines []SummaryLine
}

// SummarizeCart renders cart lines and their total. The total line is always
// last; an empty cart gets the "cart is empty" notice in place of line blocks.
func SummarizeCart(lines []domain.LineItem, p phrases.Phrases) CartSummary {
	out := CartSummary{Lines: make([]SummaryLine, 0, len(lines))}
	blocks := make([]string, 0, len(lines)+1)
	if len(lines) == 0 && p.CartEmpty != "" {
		blocks = append(blocks, p.CartEmpty)
	}
	for _, l := range lines {
		cost := l.Cost()
		out.Total += cost
		text := phrases.Format(p.CartLine,
			"name", l.Name,
			"price", domain.FormatMinor(l.UnitPrice),
			"quantity", l.Quantity,
			"cost", domain.FormatMinor(cost),
			"unit", p.Unit,
		)
		out.Lines = append(out.Lines, SummaryLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Cost:      cost,
			Text:      text,
		})
		blocks = append(blocks, text)
	}
	blocks = append(blocks, phrases.Format(p.CartTotal, "total", domain.FormatMinor(out.Total)))
	out.Text = strings.Join(blocks, "\n\n")
	return out
}
