package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
)

// Setting keys. These live outside the relational entities and survive a
// ResetAll only where documented.
const (
	settingActiveTrip       = "activeTripId"
	settingStandardCurrency = "standardCurrency"
	widgetTripPrefix        = "widgetTrip:"

	defaultCurrency = "KRW"
)

func getSetting(ctx context.Context, q dbtx, key, fallback string) (string, error) {
	var value string
	err := q.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

func setSetting(ctx context.Context, q dbtx, key, value string) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

func getTripIDSetting(ctx context.Context, q dbtx, key string) (int64, error) {
	value, err := getSetting(ctx, q, key, "0")
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt setting %s: %w", key, err)
	}
	return id, nil
}

// StandardCurrency returns the display currency, defaulting to "KRW".
func (s *SQLiteStore) StandardCurrency(ctx context.Context) (string, error) {
	return getSetting(ctx, s.db, settingStandardCurrency, defaultCurrency)
}

// SetStandardCurrency persists the display currency setting.
func (s *SQLiteStore) SetStandardCurrency(ctx context.Context, currency string) error {
	return setSetting(ctx, s.db, settingStandardCurrency, currency)
}

func (l *txLoader) SetStandardCurrency(ctx context.Context, currency string) error {
	return setSetting(ctx, l.tx, settingStandardCurrency, currency)
}

// ActiveTripID returns the selected trip, 0 when none is selected.
func (s *SQLiteStore) ActiveTripID(ctx context.Context) (int64, error) {
	return getTripIDSetting(ctx, s.db, settingActiveTrip)
}

// SetActiveTripID persists the active trip selection; 0 clears it.
func (s *SQLiteStore) SetActiveTripID(ctx context.Context, tripID int64) error {
	return setSetting(ctx, s.db, settingActiveTrip, strconv.FormatInt(tripID, 10))
}

func (l *txLoader) SetActiveTripID(ctx context.Context, tripID int64) error {
	return setSetting(ctx, l.tx, settingActiveTrip, strconv.FormatInt(tripID, 10))
}

// WidgetTripID returns the trip pinned to a widget, 0 when unset.
func (s *SQLiteStore) WidgetTripID(ctx context.Context, widgetID string) (int64, error) {
	return getTripIDSetting(ctx, s.db, widgetTripPrefix+widgetID)
}

// SetWidgetTripID pins a trip to a widget.
func (s *SQLiteStore) SetWidgetTripID(ctx context.Context, widgetID string, tripID int64) error {
	return setSetting(ctx, s.db, widgetTripPrefix+widgetID, strconv.FormatInt(tripID, 10))
}
