package models

// Person is a traveler on a trip. Payments and shares reference persons by
// ID; cash entries belong to a person.
type Person struct {
	// ID is the store-assigned identifier.
	ID int64 `json:"id"`

	// TripID is the trip this person belongs to.
	TripID int64 `json:"tripId"`

	// Name is the display name.
	Name string `json:"name"`
}

// CashEntry records cash added to a person's personal pool. Positive amounts
// add money; card spending never draws the pool down.
type CashEntry struct {
	// ID is the store-assigned identifier.
	ID int64 `json:"id"`

	// PersonID is the owner of the cash pool.
	PersonID int64 `json:"personId"`

	// Amount is the cash added.
	Amount float64 `json:"amount"`

	// Description is a free-text note.
	Description string `json:"description"`

	// CreatedAt is epoch milliseconds; preserved across export/import.
	CreatedAt int64 `json:"createdAt"`
}
