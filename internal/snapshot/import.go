package snapshot

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mbp16/travelnote/internal/models"
	"github.com/mbp16/travelnote/internal/storage"
)

// zipMagic is the 4-byte local-file-header signature every zip starts with.
// Input without it is treated as a legacy plain JSON document.
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// Importer replaces the store's contents with an export document's.
type Importer struct {
	store storage.Store
	// photoDir receives relocated photo files from archive imports.
	photoDir string
}

// NewImporter creates an Importer relocating photos into photoDir.
func NewImporter(store storage.Store, photoDir string) *Importer {
	return &Importer{store: store, photoDir: photoDir}
}

// Result reports what an import inserted and what it skipped.
type Result struct {
	Trips           int `json:"trips"`
	Persons         int `json:"persons"`
	CashEntries     int `json:"cashEntries"`
	Expenses        int `json:"expenses"`
	Payments        int `json:"payments"`
	Shares          int `json:"shares"`
	SkippedPayments int `json:"skippedPayments"`
	SkippedShares   int `json:"skippedShares"`
	MissingPhotos   int `json:"missingPhotos"`
}

// Import reads an archive or plain document and destructively reloads the
// store from it. Parse failures leave the store untouched; the clear+reload
// runs as one transaction, so a failure (or cancellation) mid-reload rolls
// everything back. Payments and shares referencing a person the document
// never declares are skipped and counted, matching the exporting app.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read import data: %w", err)
	}

	docBytes := data
	var scratch string
	fromArchive := false
	if bytes.HasPrefix(data, zipMagic) {
		scratch, err = os.MkdirTemp("", "travelnote-import-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create scratch area: %w", err)
		}
		defer os.RemoveAll(scratch)

		docBytes, err = extractArchive(data, scratch)
		if err != nil {
			return nil, err
		}
		fromArchive = true
	}

	var doc Document
	if err := json.Unmarshal(docBytes, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse export document: %w", err)
	}
	if err := validate(&doc); err != nil {
		return nil, err
	}

	// Relocate photos before touching the store so the reload transaction
	// does no file I/O. Copies are rolled back if the reload fails.
	photoRefs, copied, missing, err := im.relocatePhotos(&doc, scratch, fromArchive)
	if err != nil {
		removeAll(copied)
		return nil, err
	}

	result := &Result{MissingPhotos: missing}
	err = im.store.Replace(ctx, func(load storage.Loader) error {
		return im.reload(ctx, load, &doc, photoRefs, result)
	})
	if err != nil {
		removeAll(copied)
		return nil, fmt.Errorf("import failed: %w", err)
	}
	return result, nil
}

// extractArchive pulls data.json out of the archive and writes photo
// entries into the scratch dir.
func extractArchive(data []byte, scratch string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	var docBytes []byte
	for _, f := range zr.File {
		name := filepath.ToSlash(f.Name)
		switch {
		case name == documentEntry:
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open %s: %w", documentEntry, err)
			}
			docBytes, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", documentEntry, err)
			}
		case strings.HasPrefix(name, "photos/") && !strings.Contains(name, ".."):
			dest := filepath.Join(scratch, filepath.FromSlash(name))
			if err := extractFile(f, dest); err != nil {
				return nil, err
			}
		}
	}
	if docBytes == nil {
		return nil, fmt.Errorf("archive missing %s", documentEntry)
	}
	return docBytes, nil
}

func extractFile(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to prepare scratch dir: %w", err)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create scratch file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return nil
}

// validate rejects documents that cannot be loaded at all. Per-record
// inconsistencies (unmapped person references) are not errors.
func validate(doc *Document) error {
	for _, trip := range doc.Travels {
		for _, expense := range trip.Expenses {
			for _, pay := range expense.Payments {
				if _, err := models.ParsePaymentMethod(pay.Method); err != nil {
					return fmt.Errorf("invalid export document: %w", err)
				}
			}
		}
	}
	return nil
}

// relocatePhotos resolves every expense's photo references. Archive imports
// copy each extracted payload to permanent storage under a fresh name;
// plain-document imports carry references over verbatim. Returns the new
// reference lists indexed by [trip][expense], the copied files (for rollback)
// and the count of references with no payload.
func (im *Importer) relocatePhotos(doc *Document, scratch string, fromArchive bool) ([][][]string, []string, int, error) {
	refs := make([][][]string, len(doc.Travels))
	var copied []string
	missing := 0

	for t, trip := range doc.Travels {
		refs[t] = make([][]string, len(trip.Expenses))
		for x, expense := range trip.Expenses {
			if !fromArchive {
				refs[t][x] = splitRefs(expense.PhotoURIs)
				continue
			}

			entries := expense.PhotoFiles
			if entries == nil {
				entries = splitRefs(expense.PhotoURIs)
			}
			for _, entry := range entries {
				src := filepath.Join(scratch, filepath.FromSlash(entry))
				dest := filepath.Join(im.photoDir, uuid.New().String()+photoExt(entry))
				if err := copyFile(src, dest); err != nil {
					if os.IsNotExist(err) {
						slog.Warn("Archive entry missing for photo", "expense_id", expense.ID, "entry", entry)
						missing++
						continue
					}
					return nil, copied, missing, fmt.Errorf("failed to relocate photo %s: %w", entry, err)
				}
				copied = append(copied, dest)
				refs[t][x] = append(refs[t][x], filepath.Base(dest))
			}
		}
	}
	return refs, copied, missing, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func removeAll(files []string) {
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			slog.Warn("Failed to remove relocated photo", "file", f, "error", err)
		}
	}
}

// reload inserts the document graph with fresh identifiers, recording the
// old-to-new person mapping so payments and shares can follow.
func (im *Importer) reload(ctx context.Context, load storage.Loader, doc *Document, photoRefs [][][]string, result *Result) error {
	personIDs := make(map[int64]int64)

	for t, trip := range doc.Travels {
		newTrip := &models.Trip{
			Name:      trip.Name,
			StartDate: trip.StartDate,
			EndDate:   trip.EndDate,
			Currency:  trip.Currency,
		}
		if err := load.CreateTrip(ctx, newTrip); err != nil {
			return err
		}
		result.Trips++

		for _, person := range trip.Persons {
			newPerson := &models.Person{TripID: newTrip.ID, Name: person.Name}
			if err := load.CreatePerson(ctx, newPerson); err != nil {
				return err
			}
			personIDs[person.ID] = newPerson.ID
			result.Persons++

			for _, entry := range person.CashEntries {
				if err := load.CreateCashEntry(ctx, &models.CashEntry{
					PersonID:    newPerson.ID,
					Amount:      entry.Amount,
					Description: entry.Description,
					CreatedAt:   entry.CreatedAt,
				}); err != nil {
					return err
				}
				result.CashEntries++
			}
		}

		for x, expense := range trip.Expenses {
			newExpense := &models.Expense{
				TripID:      newTrip.ID,
				Title:       expense.Title,
				TotalAmount: expense.TotalAmount,
				Description: expense.Description,
				PhotoURIs:   photoRefs[t][x],
				CreatedAt:   expense.CreatedAt,
			}

			for _, pay := range expense.Payments {
				personID, ok := personIDs[pay.PersonID]
				if !ok {
					slog.Warn("Skipping payment with unmapped person", "expense_id", expense.ID, "person_id", pay.PersonID)
					result.SkippedPayments++
					continue
				}
				method, _ := models.ParsePaymentMethod(pay.Method)
				newExpense.Payments = append(newExpense.Payments, models.Payment{
					PersonID: personID,
					Amount:   pay.Amount,
					Method:   method,
				})
			}

			for _, share := range expense.Shares {
				personID, ok := personIDs[share.PersonID]
				if !ok {
					slog.Warn("Skipping share with unmapped person", "expense_id", expense.ID, "person_id", share.PersonID)
					result.SkippedShares++
					continue
				}
				newExpense.Shares = append(newExpense.Shares, models.Share{
					PersonID:    personID,
					Amount:      share.Amount,
					Description: share.Description,
				})
			}

			if err := load.CreateExpense(ctx, newExpense); err != nil {
				return err
			}
			result.Expenses++
			result.Payments += len(newExpense.Payments)
			result.Shares += len(newExpense.Shares)
		}
	}

	if doc.StandardCurrency != "" {
		if err := load.SetStandardCurrency(ctx, doc.StandardCurrency); err != nil {
			return err
		}
	}
	// Force the user to re-select a trip.
	return load.SetActiveTripID(ctx, 0)
}
