// Package snapshot serializes trips to a versioned, self-contained export
// document (optionally bundled with photo attachments in a zip archive) and
// imports such documents back, replacing the store's contents wholesale.
package snapshot

// FormatVersion identifies the current export document layout. Legacy
// documents without a version field parse as version 0 and import the same
// way.
const FormatVersion = 1

// Document is the export root. It is the single source of truth for import;
// an archive is this document plus binary photo payloads keyed by the
// relative paths in PhotoFiles.
type Document struct {
	Version          int            `json:"version"`
	ExportedAt       int64          `json:"exportedAt"`
	StandardCurrency string         `json:"standardCurrency"`
	Travels          []TripSnapshot `json:"travels"`
}

// TripSnapshot is one trip with its full nested graph. IDs are the exporting
// store's identifiers; they are remapped to fresh ones on import.
type TripSnapshot struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	StartDate int64             `json:"startDate"`
	EndDate   int64             `json:"endDate"`
	Currency  string            `json:"currency"`
	Persons   []PersonSnapshot  `json:"persons"`
	Expenses  []ExpenseSnapshot `json:"expenses"`
}

type PersonSnapshot struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	CashEntries []CashEntrySnapshot `json:"cashEntries"`
}

type CashEntrySnapshot struct {
	ID          int64   `json:"id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CreatedAt   int64   `json:"createdAt"`
}

// ExpenseSnapshot carries two photo fields: PhotoURIs is the comma-joined
// reference string as stored, and PhotoFiles lists archive-relative entry
// paths. PhotoFiles is only set by the archive serializer, which also
// rewrites PhotoURIs to the same relative paths.
type ExpenseSnapshot struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	TotalAmount float64           `json:"totalAmount"`
	Description string            `json:"description"`
	PhotoURIs   *string           `json:"photoUris"`
	PhotoFiles  []string          `json:"photoFiles,omitempty"`
	CreatedAt   int64             `json:"createdAt"`
	Payments    []PaymentSnapshot `json:"payments"`
	Shares      []ShareSnapshot   `json:"expenseUsers"`
}

type PaymentSnapshot struct {
	ID       int64   `json:"id"`
	PersonID int64   `json:"personId"`
	Amount   float64 `json:"amount"`
	Method   string  `json:"method"`
}

type ShareSnapshot struct {
	ID          int64   `json:"id"`
	PersonID    int64   `json:"personId"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}
