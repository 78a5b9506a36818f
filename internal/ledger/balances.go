// Package ledger computes per-person balances and pairwise settlement
// transfers for a trip. All functions are pure: they fold the trip's event
// streams (cash entries, payments, shares) on every call and hold no state,
// so recomputation after any store change is just calling them again.
package ledger

import "github.com/mbp16/travelnote/internal/models"

// Epsilon absorbs floating-point drift in money comparisons. Any magnitude
// at or below it counts as zero.
const Epsilon = 0.001

// PersonBalance is the display-facing cash position for one person.
type PersonBalance struct {
	Person    models.Person `json:"person"`
	TotalCash float64       `json:"totalCash"` // sum of cash entries
	CashSpent float64       `json:"cashSpent"` // sum of CASH payments
	CardSpent float64       `json:"cardSpent"` // sum of CARD payments
}

// RemainingCash is the person's cash pool after cash spending. Card spending
// does not draw the pool down.
func (b PersonBalance) RemainingCash() float64 {
	return b.TotalCash - b.CashSpent
}

// NetBalance is the settlement-facing ledger position for one person:
// payments fronted minus shares consumed. Positive means the person is owed
// money, negative means they owe.
type NetBalance struct {
	Person models.Person `json:"person"`
	Net    float64       `json:"net"`
}

// Balances folds cash entries and expense payments into display positions,
// one per person, in the order of the persons slice. Events referencing a
// person outside the slice are ignored.
func Balances(persons []models.Person, entries []models.CashEntry, expenses []models.Expense) []PersonBalance {
	balances := make([]PersonBalance, len(persons))
	index := make(map[int64]int, len(persons))
	for i, p := range persons {
		balances[i] = PersonBalance{Person: p}
		index[p.ID] = i
	}

	for _, e := range entries {
		if i, ok := index[e.PersonID]; ok {
			balances[i].TotalCash += e.Amount
		}
	}

	for _, exp := range expenses {
		for _, pay := range exp.Payments {
			i, ok := index[pay.PersonID]
			if !ok {
				continue
			}
			if pay.Method == models.MethodCash {
				balances[i].CashSpent += pay.Amount
			} else {
				balances[i].CardSpent += pay.Amount
			}
		}
	}

	return balances
}

// NetBalances folds payments and shares into ledger positions, one per
// person, in the order of the persons slice.
func NetBalances(persons []models.Person, expenses []models.Expense) []NetBalance {
	nets := make([]NetBalance, len(persons))
	index := make(map[int64]int, len(persons))
	for i, p := range persons {
		nets[i] = NetBalance{Person: p}
		index[p.ID] = i
	}

	for _, exp := range expenses {
		for _, pay := range exp.Payments {
			if i, ok := index[pay.PersonID]; ok {
				nets[i].Net += pay.Amount
			}
		}
		for _, share := range exp.Shares {
			if i, ok := index[share.PersonID]; ok {
				nets[i].Net -= share.Amount
			}
		}
	}

	return nets
}

// Residual is the imbalance left over in a ledger: the sum of all net
// positions. A closed trip sums to ~0; a nonzero residual means the input
// was inconsistent and Settle will leave that much unsettled. Informational
// only, never an error.
func Residual(nets []NetBalance) float64 {
	var sum float64
	for _, n := range nets {
		sum += n.Net
	}
	return sum
}
