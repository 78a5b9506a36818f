package models

import "fmt"

// PaymentMethod distinguishes cash payments, which draw down a person's cash
// pool, from card payments, which do not.
type PaymentMethod string

const (
	MethodCash PaymentMethod = "CASH"
	MethodCard PaymentMethod = "CARD"
)

// ParsePaymentMethod validates a serialized method string.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case MethodCash:
		return MethodCash, nil
	case MethodCard:
		return MethodCard, nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// Expense is a shared purchase on a trip. TotalAmount is stored redundantly;
// the UI keeps it in line with the payment sum, the data layer does not.
type Expense struct {
	// ID is the store-assigned identifier.
	ID int64 `json:"id"`

	// TripID is the trip this expense belongs to.
	TripID int64 `json:"tripId"`

	// Title is the human-readable name of the expense.
	Title string `json:"title"`

	// TotalAmount is the full expense amount.
	TotalAmount float64 `json:"totalAmount"`

	// Description is a free-text note.
	Description string `json:"description"`

	// PhotoURIs are attachment references, in order. Persisted as a
	// comma-joined string.
	PhotoURIs []string `json:"photoUris"`

	// CreatedAt is epoch milliseconds. User-editable: it represents the
	// date of use, not the insert time.
	CreatedAt int64 `json:"createdAt"`

	// Payments record who fronted money for this expense.
	Payments []Payment `json:"payments"`

	// Shares record who consumed this expense, independent of who paid.
	Shares []Share `json:"expenseUsers"`
}

// Payment records that one person fronted an amount for an expense, by the
// given method. Multiple payments per expense model a split payment.
type Payment struct {
	// ID is the store-assigned identifier.
	ID int64 `json:"id"`

	// ExpenseID is the expense this payment belongs to.
	ExpenseID int64 `json:"expenseId"`

	// PersonID is who paid.
	PersonID int64 `json:"personId"`

	// Amount is how much was fronted.
	Amount float64 `json:"amount"`

	// Method is CASH or CARD.
	Method PaymentMethod `json:"method"`
}

// Share attributes part of an expense to a person as its consumer.
type Share struct {
	// ID is the store-assigned identifier.
	ID int64 `json:"id"`

	// ExpenseID is the expense this share belongs to.
	ExpenseID int64 `json:"expenseId"`

	// PersonID is who consumed this part of the expense.
	PersonID int64 `json:"personId"`

	// Amount is the consumed amount.
	Amount float64 `json:"amount"`

	// Description is a free-text note.
	Description string `json:"description"`
}
