package ledger

import (
	"math"

	"github.com/mbp16/travelnote/internal/models"
)

// Transfer is one directed settlement instruction: From pays To.
type Transfer struct {
	FromPersonID int64   `json:"fromPersonId"`
	FromName     string  `json:"fromName"`
	ToPersonID   int64   `json:"toPersonId"`
	ToName       string  `json:"toName"`
	Amount       float64 `json:"amount"`
}

type party struct {
	person    models.Person
	remaining float64
}

// Settle emits a list of transfers that drives every net balance to within
// Epsilon of zero, assuming the ledger is balanced.
//
// Greedy bipartite match: split persons into creditors (net > Epsilon) and
// debtors (net < -Epsilon), keeping the input order. For each creditor in
// turn, walk the debtors and transfer min(remaining, remaining) until the
// creditor is exhausted. Transfers at or below Epsilon are not emitted.
//
// The result is small but not globally minimal in transfer count; trip
// groups are small enough that min-cost matching is not worth it. An
// unbalanced ledger yields a partial settlement, not an error — callers that
// care can check Residual.
func Settle(nets []NetBalance) []Transfer {
	var creditors, debtors []party
	for _, n := range nets {
		switch {
		case n.Net > Epsilon:
			creditors = append(creditors, party{person: n.Person, remaining: n.Net})
		case n.Net < -Epsilon:
			debtors = append(debtors, party{person: n.Person, remaining: -n.Net})
		}
	}

	var transfers []Transfer
	for c := range creditors {
		creditor := &creditors[c]
		for d := range debtors {
			if creditor.remaining <= Epsilon {
				break
			}
			debtor := &debtors[d]
			if debtor.remaining <= Epsilon {
				continue
			}

			amount := math.Min(creditor.remaining, debtor.remaining)
			if amount > Epsilon {
				transfers = append(transfers, Transfer{
					FromPersonID: debtor.person.ID,
					FromName:     debtor.person.Name,
					ToPersonID:   creditor.person.ID,
					ToName:       creditor.person.Name,
					Amount:       amount,
				})
			}
			creditor.remaining -= amount
			debtor.remaining -= amount
		}
	}

	return transfers
}
