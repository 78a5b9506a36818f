package snapshot

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/mbp16/travelnote/internal/storage"
)

// documentEntry is the archive entry holding the export document.
const documentEntry = "data.json"

// Exporter builds export documents and archives from the store.
type Exporter struct {
	store storage.Store
	// photoDir resolves relative photo references; absolute references are
	// opened as-is.
	photoDir string
}

// NewExporter creates an Exporter reading photos from photoDir.
func NewExporter(store storage.Store, photoDir string) *Exporter {
	return &Exporter{store: store, photoDir: photoDir}
}

// BuildDocument reads the full graph of the given trips (all trips when
// tripIDs is empty) into an export document.
func (e *Exporter) BuildDocument(ctx context.Context, tripIDs []int64) (*Document, error) {
	trips, err := e.store.ListTrips(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}

	include := make(map[int64]bool, len(tripIDs))
	for _, id := range tripIDs {
		include[id] = true
	}

	currency, err := e.store.StandardCurrency(ctx)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Version:          FormatVersion,
		ExportedAt:       time.Now().UnixMilli(),
		StandardCurrency: currency,
	}

	for _, trip := range trips {
		if len(include) > 0 && !include[trip.ID] {
			continue
		}

		snap := TripSnapshot{
			ID:        trip.ID,
			Name:      trip.Name,
			StartDate: trip.StartDate,
			EndDate:   trip.EndDate,
			Currency:  trip.Currency,
		}

		persons, err := e.store.ListPersonsByTrip(ctx, trip.ID)
		if err != nil {
			return nil, err
		}
		for _, person := range persons {
			ps := PersonSnapshot{ID: person.ID, Name: person.Name}
			entries, err := e.store.ListCashEntriesByPerson(ctx, person.ID)
			if err != nil {
				return nil, err
			}
			for _, entry := range entries {
				ps.CashEntries = append(ps.CashEntries, CashEntrySnapshot{
					ID:          entry.ID,
					Amount:      entry.Amount,
					Description: entry.Description,
					CreatedAt:   entry.CreatedAt,
				})
			}
			snap.Persons = append(snap.Persons, ps)
		}

		expenses, err := e.store.ListExpensesByTrip(ctx, trip.ID)
		if err != nil {
			return nil, err
		}
		for _, expense := range expenses {
			es := ExpenseSnapshot{
				ID:          expense.ID,
				Title:       expense.Title,
				TotalAmount: expense.TotalAmount,
				Description: expense.Description,
				CreatedAt:   expense.CreatedAt,
			}
			if len(expense.PhotoURIs) > 0 {
				joined := strings.Join(expense.PhotoURIs, ",")
				es.PhotoURIs = &joined
			}
			for _, pay := range expense.Payments {
				es.Payments = append(es.Payments, PaymentSnapshot{
					ID:       pay.ID,
					PersonID: pay.PersonID,
					Amount:   pay.Amount,
					Method:   string(pay.Method),
				})
			}
			for _, share := range expense.Shares {
				es.Shares = append(es.Shares, ShareSnapshot{
					ID:          share.ID,
					PersonID:    share.PersonID,
					Amount:      share.Amount,
					Description: share.Description,
				})
			}
			snap.Expenses = append(snap.Expenses, es)
		}

		doc.Travels = append(doc.Travels, snap)
	}

	return doc, nil
}

// WriteDocument writes the plain JSON export for the given trips.
func (e *Exporter) WriteDocument(ctx context.Context, w io.Writer, tripIDs []int64) error {
	doc, err := e.BuildDocument(ctx, tripIDs)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export document: %w", err)
	}
	return nil
}

// WriteArchive writes a zip archive: the export document as data.json plus
// one entry per readable photo under photos/. Photo references in the
// document are rewritten to the archive-relative entry paths; unreadable
// photos are dropped from both the document and the archive.
func (e *Exporter) WriteArchive(ctx context.Context, w io.Writer, tripIDs []int64) error {
	doc, err := e.BuildDocument(ctx, tripIDs)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for t := range doc.Travels {
		for x := range doc.Travels[t].Expenses {
			expense := &doc.Travels[t].Expenses[x]
			e.bundlePhotos(zw, expense)
		}
	}

	entry, err := zw.Create(documentEntry)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", documentEntry, err)
	}
	enc := json.NewEncoder(entry)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export document: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

// bundlePhotos copies an expense's readable photos into the archive and
// rewrites the snapshot's photo references to the new entry paths.
// Best effort: unreadable photos are logged and skipped.
func (e *Exporter) bundlePhotos(zw *zip.Writer, expense *ExpenseSnapshot) {
	var names []string
	for i, ref := range splitRefs(expense.PhotoURIs) {
		src, err := e.openPhoto(ref)
		if err != nil {
			slog.Warn("Skipping unreadable photo", "expense_id", expense.ID, "ref", ref, "error", err)
			continue
		}

		name := fmt.Sprintf("photos/expense_%d_%d%s", expense.ID, i, photoExt(ref))
		entry, err := zw.Create(name)
		if err == nil {
			_, err = io.Copy(entry, src)
		}
		src.Close()
		if err != nil {
			slog.Warn("Skipping photo after copy failure", "expense_id", expense.ID, "ref", ref, "error", err)
			continue
		}
		names = append(names, name)
	}

	expense.PhotoFiles = names
	if len(names) > 0 {
		joined := strings.Join(names, ",")
		expense.PhotoURIs = &joined
	} else {
		expense.PhotoURIs = nil
	}
}

func (e *Exporter) openPhoto(ref string) (io.ReadCloser, error) {
	if !filepath.IsAbs(ref) {
		ref = filepath.Join(e.photoDir, ref)
	}
	return os.Open(ref)
}

func splitRefs(joined *string) []string {
	if joined == nil || *joined == "" {
		return nil
	}
	return strings.Split(*joined, ",")
}

// photoExt extracts a file extension from a photo reference, defaulting to
// .jpg for device URIs that carry none.
func photoExt(ref string) string {
	if ext := path.Ext(path.Base(ref)); ext != "" {
		return ext
	}
	return ".jpg"
}
