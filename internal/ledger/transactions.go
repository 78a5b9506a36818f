package ledger

import (
	"sort"

	"github.com/mbp16/travelnote/internal/models"
)

// Transaction is one row in a person's activity feed: either cash added to
// their pool or a payment they made for an expense.
type Transaction struct {
	ID          int64   `json:"id"`
	Amount      float64 `json:"amount"`
	Positive    bool    `json:"positive"` // cash in vs. payment out
	Description string  `json:"description"`
	Method      string  `json:"method"` // empty for cash entries
	CreatedAt   int64   `json:"createdAt"`
}

// Transactions merges a person's cash entries and expense payments into one
// feed sorted newest-first. Payments take their timestamp and description
// from the owning expense; payments whose expense is missing are dropped.
func Transactions(personID int64, entries []models.CashEntry, expenses []models.Expense) []Transaction {
	var feed []Transaction

	for _, e := range entries {
		if e.PersonID != personID {
			continue
		}
		feed = append(feed, Transaction{
			ID:          e.ID,
			Amount:      e.Amount,
			Positive:    true,
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
		})
	}

	for _, exp := range expenses {
		for _, pay := range exp.Payments {
			if pay.PersonID != personID {
				continue
			}
			feed = append(feed, Transaction{
				ID:          pay.ID,
				Amount:      pay.Amount,
				Positive:    false,
				Description: exp.Title,
				Method:      string(pay.Method),
				CreatedAt:   exp.CreatedAt,
			})
		}
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].CreatedAt > feed[j].CreatedAt
	})
	return feed
}
