// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mbp16/travelnote/internal/models"
)

// Loader is the write surface available inside an atomic Replace. The
// snapshot importer loads a whole document through it so that a failure
// anywhere rolls the entire reload back.
type Loader interface {
	// CreateTrip persists a new trip and populates its ID.
	CreateTrip(ctx context.Context, trip *models.Trip) error

	// CreatePerson persists a new person and populates its ID.
	CreatePerson(ctx context.Context, person *models.Person) error

	// CreateCashEntry persists a new cash entry and populates its ID.
	// A zero CreatedAt is filled with the current time.
	CreateCashEntry(ctx context.Context, entry *models.CashEntry) error

	// CreateExpense persists an expense together with its nested payments
	// and shares, populating all IDs.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// SetStandardCurrency persists the display currency setting.
	SetStandardCurrency(ctx context.Context, currency string) error

	// SetActiveTripID persists the active trip selection; 0 clears it.
	SetActiveTripID(ctx context.Context, tripID int64) error
}

// Store defines the interface for trip storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the server layer.
type Store interface {
	Loader

	GetTrip(ctx context.Context, tripID int64) (*models.Trip, error)
	ListTrips(ctx context.Context) ([]models.Trip, error)
	UpdateTrip(ctx context.Context, trip *models.Trip) error
	// DeleteTrip removes a trip and, by cascade, every dependent entity.
	DeleteTrip(ctx context.Context, tripID int64) error

	ListPersonsByTrip(ctx context.Context, tripID int64) ([]models.Person, error)
	UpdatePerson(ctx context.Context, person *models.Person) error
	DeletePerson(ctx context.Context, personID int64) error

	ListCashEntriesByPerson(ctx context.Context, personID int64) ([]models.CashEntry, error)
	// ListCashEntriesByTrip returns entries for every person on the trip.
	ListCashEntriesByTrip(ctx context.Context, tripID int64) ([]models.CashEntry, error)
	UpdateCashEntry(ctx context.Context, entry *models.CashEntry) error
	DeleteCashEntry(ctx context.Context, entryID int64) error

	GetExpense(ctx context.Context, expenseID int64) (*models.Expense, error)
	// ListExpensesByTrip returns expenses with payments and shares loaded.
	ListExpensesByTrip(ctx context.Context, tripID int64) ([]models.Expense, error)
	// UpdateExpense rewrites the expense row and replaces its payments and
	// shares wholesale.
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, expenseID int64) error

	// StandardCurrency returns the display currency, defaulting to "KRW".
	StandardCurrency(ctx context.Context) (string, error)
	// ActiveTripID returns the selected trip, 0 when none is selected.
	ActiveTripID(ctx context.Context) (int64, error)
	// WidgetTripID returns the trip pinned to a home-screen widget, 0 when
	// unset.
	WidgetTripID(ctx context.Context, widgetID string) (int64, error)
	SetWidgetTripID(ctx context.Context, widgetID string, tripID int64) error

	// Replace atomically wipes the store and repopulates it through load.
	// If load returns an error nothing is applied. Writers are serialized:
	// no concurrent mutation observes a partial reload.
	Replace(ctx context.Context, load func(Loader) error) error

	// ResetAll unconditionally wipes every entity and clears the active
	// trip selection.
	ResetAll(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
