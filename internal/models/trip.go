package models

// Trip is the root aggregate: one travel period, one currency, and the
// people and expenses that belong to it. Deleting a trip cascades to every
// dependent entity.
type Trip struct {
	// ID is the store-assigned identifier.
	ID int64 `json:"id"`

	// Name is the display name of the trip (e.g., "Tokyo 2025").
	Name string `json:"name"`

	// StartDate and EndDate are epoch milliseconds.
	StartDate int64 `json:"startDate"`
	EndDate   int64 `json:"endDate"`

	// Currency is the trip's currency code (e.g., "KRW", "JPY").
	Currency string `json:"currency"`
}
