package runtime

import (
	"github.com/aretw0/storefront/internal/phrases"
	"github.com/aretw0/storefront/pkg/domain"
)

func (e *Engine) renderMenu(products []domain.ProductSummary) domain.Reply {
	b := e.phrases.Buttons
	rows := make([][]domain.Button, 0, len(products)+1)
	for _, p := range products {
		rows = append(rows, []domain.Button{{Label: p.Name, Token: p.ID}})
	}
	rows = append(rows, []domain.Button{{Label: b.Cart, Token: domain.TokenCart}})
	return domain.Reply{Text: e.phrases.MenuPrompt, Buttons: rows}
}

func (e *Engine) renderProduct(p *domain.Product, imageURL string) domain.Reply {
	b := e.phrases.Buttons
	qty := make([]domain.Button, 0, len(e.phrases.Quantities))
	for _, q := range e.phrases.Quantities {
		qty = append(qty, domain.Button{
			Label: phrases.Format(b.Quantity, "quantity", q, "unit", e.phrases.Unit),
			Token: domain.AddToken(q, p.ID),
		})
	}
	text := phrases.Format(e.phrases.ProductCard,
		"name", p.Name,
		"description", p.Description,
		"price", p.PriceDisplay,
		"unit", e.phrases.Unit,
	)
	return domain.Reply{
		Text:     text,
		ImageURL: imageURL,
		Buttons: [][]domain.Button{
			qty,
			{{Label: b.Cart, Token: domain.TokenCart}, {Label: b.Back, Token: domain.TokenMenu}},
		},
	}
}

// renderCart builds the remove buttons from the same snapshot as the summary text.
func (e *Engine) renderCart(lines []domain.LineItem) domain.Reply {
	b := e.phrases.Buttons
	summary := SummarizeCart(lines, e.phrases)
	rows := make([][]domain.Button, 0, len(summary.Lines)+1)
	seen := make(map[string]bool, len(summary.Lines))
	for _, l := range summary.Lines {
		if seen[l.ProductID] {
			continue
		}
		seen[l.ProductID] = true
		rows = append(rows, []domain.Button{{
			Label: phrases.Format(b.Remove, "name", l.Name),
			Token: domain.RemoveToken(l.ProductID),
		}})
	}
	rows = append(rows, []domain.Button{
		{Label: b.Menu, Token: domain.TokenMenu},
		{Label: b.Checkout, Token: domain.TokenCheckout},
	})
	return domain.Reply{Text: summary.Text, Buttons: rows}
}

func (e *Engine) renderEmailPrompt() domain.Reply {
	b := e.phrases.Buttons
	return domain.Reply{
		Text: e.phrases.EmailPrompt,
		Buttons: [][]domain.Button{{
			{Label: b.Menu, Token: domain.TokenMenu},
			{Label: b.Cart, Token: domain.TokenCart},
		}},
	}
}
