package snapshot

import (
	"archive/zip"
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mbp16/travelnote/internal/ledger"
	"github.com/mbp16/travelnote/internal/models"
	"github.com/mbp16/travelnote/internal/storage"
	"github.com/mbp16/travelnote/internal/storage/sqlite"
)

type fixture struct {
	store    storage.Store
	photoDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := sqlite.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	photoDir := filepath.Join(dir, "photos")
	if err := os.MkdirAll(photoDir, 0755); err != nil {
		t.Fatalf("Failed to create photo dir: %v", err)
	}
	return &fixture{store: store, photoDir: photoDir}
}

// seedTrip populates a trip where Alice paid 300 for a 300 dinner, consumed
// 100, and Bob consumed 200. Returns the trip.
func (f *fixture) seedTrip(t *testing.T, withPhotos bool) *models.Trip {
	t.Helper()
	ctx := context.Background()

	trip := &models.Trip{Name: "Tokyo", StartDate: 1700000000000, EndDate: 1700600000000, Currency: "JPY"}
	if err := f.store.CreateTrip(ctx, trip); err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}

	alice := &models.Person{TripID: trip.ID, Name: "Alice"}
	bob := &models.Person{TripID: trip.ID, Name: "Bob"}
	for _, p := range []*models.Person{alice, bob} {
		if err := f.store.CreatePerson(ctx, p); err != nil {
			t.Fatalf("CreatePerson failed: %v", err)
		}
	}

	if err := f.store.CreateCashEntry(ctx, &models.CashEntry{
		PersonID: alice.ID, Amount: 500, Description: "exchange", CreatedAt: 1700000001000,
	}); err != nil {
		t.Fatalf("CreateCashEntry failed: %v", err)
	}

	expense := &models.Expense{
		TripID:      trip.ID,
		Title:       "Dinner",
		TotalAmount: 300,
		CreatedAt:   1700000002000,
		Payments: []models.Payment{
			{PersonID: alice.ID, Amount: 300, Method: models.MethodCash},
		},
		Shares: []models.Share{
			{PersonID: alice.ID, Amount: 100},
			{PersonID: bob.ID, Amount: 200},
		},
	}
	if withPhotos {
		name := "receipt.jpg"
		if err := os.WriteFile(filepath.Join(f.photoDir, name), []byte("jpeg-bytes-dinner"), 0644); err != nil {
			t.Fatalf("Failed to write photo: %v", err)
		}
		expense.PhotoURIs = []string{name}
	}
	if err := f.store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	return trip
}

func balancesByName(t *testing.T, store storage.Store, tripID int64) map[string]ledger.NetBalance {
	t.Helper()
	ctx := context.Background()
	persons, err := store.ListPersonsByTrip(ctx, tripID)
	if err != nil {
		t.Fatalf("ListPersonsByTrip failed: %v", err)
	}
	expenses, err := store.ListExpensesByTrip(ctx, tripID)
	if err != nil {
		t.Fatalf("ListExpensesByTrip failed: %v", err)
	}
	byName := make(map[string]ledger.NetBalance)
	for _, n := range ledger.NetBalances(persons, expenses) {
		byName[n.Person.Name] = n
	}
	return byName
}

func TestDocumentRoundTrip(t *testing.T) {
	src := newFixture(t)
	trip := src.seedTrip(t, false)
	ctx := context.Background()

	before := balancesByName(t, src.store, trip.ID)

	var buf bytes.Buffer
	if err := NewExporter(src.store, src.photoDir).WriteDocument(ctx, &buf, nil); err != nil {
		t.Fatalf("WriteDocument failed: %v", err)
	}

	dst := newFixture(t)
	result, err := NewImporter(dst.store, dst.photoDir).Import(ctx, &buf)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Trips != 1 || result.Persons != 2 || result.CashEntries != 1 ||
		result.Expenses != 1 || result.Payments != 1 || result.Shares != 2 {
		t.Errorf("unexpected result: %+v", result)
	}

	trips, err := dst.store.ListTrips(ctx)
	if err != nil {
		t.Fatalf("ListTrips failed: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(trips))
	}

	after := balancesByName(t, dst.store, trips[0].ID)
	for name, b := range before {
		if math.Abs(after[name].Net-b.Net) > ledger.Epsilon {
			t.Errorf("net for %s changed across round-trip: %v vs %v", name, b.Net, after[name].Net)
		}
	}

	// Import clears the trip selection and adopts the exported currency.
	if id, _ := dst.store.ActiveTripID(ctx); id != 0 {
		t.Errorf("expected cleared active trip, got %d", id)
	}
	currency, _ := dst.store.StandardCurrency(ctx)
	srcCurrency, _ := src.store.StandardCurrency(ctx)
	if currency != srcCurrency {
		t.Errorf("currency = %s, want %s", currency, srcCurrency)
	}

	// Timestamps survive, identifiers do not have to.
	entries, _ := dst.store.ListCashEntriesByTrip(ctx, trips[0].ID)
	if len(entries) != 1 || entries[0].CreatedAt != 1700000001000 {
		t.Errorf("expected preserved cash entry timestamp, got %+v", entries)
	}
}

func TestArchiveRoundTripPhotos(t *testing.T) {
	src := newFixture(t)
	src.seedTrip(t, true)
	ctx := context.Background()

	var buf bytes.Buffer
	if err := NewExporter(src.store, src.photoDir).WriteArchive(ctx, &buf, nil); err != nil {
		t.Fatalf("WriteArchive failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), zipMagic) {
		t.Fatal("archive does not start with zip magic")
	}

	dst := newFixture(t)
	result, err := NewImporter(dst.store, dst.photoDir).Import(ctx, &buf)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.MissingPhotos != 0 {
		t.Errorf("missing photos = %d, want 0", result.MissingPhotos)
	}

	trips, _ := dst.store.ListTrips(ctx)
	expenses, err := dst.store.ListExpensesByTrip(ctx, trips[0].ID)
	if err != nil {
		t.Fatalf("ListExpensesByTrip failed: %v", err)
	}
	if len(expenses) != 1 || len(expenses[0].PhotoURIs) != 1 {
		t.Fatalf("expected 1 expense with 1 photo, got %+v", expenses)
	}

	// Relocated photo is a fresh file with identical contents.
	ref := expenses[0].PhotoURIs[0]
	if ref == "receipt.jpg" {
		t.Error("expected a fresh photo name after relocation")
	}
	got, err := os.ReadFile(filepath.Join(dst.photoDir, ref))
	if err != nil {
		t.Fatalf("relocated photo unreadable: %v", err)
	}
	if string(got) != "jpeg-bytes-dinner" {
		t.Errorf("photo contents changed: %q", got)
	}
}

func TestArchiveSkipsUnreadablePhotos(t *testing.T) {
	src := newFixture(t)
	trip := src.seedTrip(t, false)
	ctx := context.Background()

	expense := &models.Expense{
		TripID: trip.ID, Title: "Lost receipt", TotalAmount: 10,
		PhotoURIs: []string{"nope.jpg"},
	}
	if err := src.store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	var buf bytes.Buffer
	if err := NewExporter(src.store, src.photoDir).WriteArchive(ctx, &buf, nil); err != nil {
		t.Fatalf("WriteArchive failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Failed to reopen archive: %v", err)
	}
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "photos/") {
			t.Errorf("unexpected archive entry %s", f.Name)
		}
	}
}

func TestImportLegacyDocument(t *testing.T) {
	// Documents written before the version field existed: no version, no
	// expenseUsers, photoUri carried verbatim.
	legacy := `{
	  "exportedAt": 1700000000000,
	  "standardCurrency": "KRW",
	  "travels": [
	    {
	      "id": 7, "name": "Busan", "startDate": 1, "endDate": 2, "currency": "KRW",
	      "persons": [
	        {"id": 3, "name": "Cho", "cashEntries": [{"id": 1, "amount": 100, "description": "", "createdAt": 5}]}
	      ],
	      "expenses": [
	        {
	          "id": 9, "title": "Taxi", "totalAmount": 20, "description": "",
	          "photoUris": "content://media/42", "createdAt": 6,
	          "payments": [{"id": 1, "personId": 3, "amount": 20, "method": "CARD"}]
	        }
	      ]
	    }
	  ]
	}`

	dst := newFixture(t)
	result, err := NewImporter(dst.store, dst.photoDir).Import(context.Background(), strings.NewReader(legacy))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Trips != 1 || result.Payments != 1 {
		t.Errorf("unexpected result: %+v", result)
	}

	trips, _ := dst.store.ListTrips(context.Background())
	expenses, _ := dst.store.ListExpensesByTrip(context.Background(), trips[0].ID)
	// No archive payload: the reference string carries over verbatim.
	if len(expenses[0].PhotoURIs) != 1 || expenses[0].PhotoURIs[0] != "content://media/42" {
		t.Errorf("photo reference not carried over: %v", expenses[0].PhotoURIs)
	}
}

func TestImportParseFailureLeavesStoreUntouched(t *testing.T) {
	dst := newFixture(t)
	ctx := context.Background()
	trip := dst.seedTrip(t, false)

	_, err := NewImporter(dst.store, dst.photoDir).Import(ctx, strings.NewReader("{not json"))
	if err == nil {
		t.Fatal("Expected parse error")
	}

	trips, _ := dst.store.ListTrips(ctx)
	if len(trips) != 1 || trips[0].ID != trip.ID {
		t.Errorf("store mutated by failed import: %+v", trips)
	}
}

func TestImportUnknownMethodFails(t *testing.T) {
	doc := `{"version":1,"standardCurrency":"KRW","travels":[{"id":1,"name":"T","persons":[{"id":1,"name":"A","cashEntries":[]}],"expenses":[{"id":1,"title":"X","totalAmount":1,"payments":[{"id":1,"personId":1,"amount":1,"method":"CHECK"}],"expenseUsers":[]}]}]}`

	dst := newFixture(t)
	_, err := NewImporter(dst.store, dst.photoDir).Import(context.Background(), strings.NewReader(doc))
	if err == nil {
		t.Fatal("Expected invalid-method error")
	}
	trips, _ := dst.store.ListTrips(context.Background())
	if len(trips) != 0 {
		t.Errorf("store mutated by rejected import: %+v", trips)
	}
}

func TestImportSkipsUnmappedPersons(t *testing.T) {
	doc := `{
	  "version": 1, "standardCurrency": "KRW",
	  "travels": [
	    {
	      "id": 1, "name": "T", "startDate": 0, "endDate": 0, "currency": "KRW",
	      "persons": [{"id": 1, "name": "A", "cashEntries": []}],
	      "expenses": [
	        {
	          "id": 1, "title": "X", "totalAmount": 30, "description": "", "photoUris": null, "createdAt": 0,
	          "payments": [
	            {"id": 1, "personId": 1, "amount": 10, "method": "CASH"},
	            {"id": 2, "personId": 99, "amount": 20, "method": "CASH"}
	          ],
	          "expenseUsers": [
	            {"id": 1, "personId": 99, "amount": 30, "description": ""}
	          ]
	        }
	      ]
	    }
	  ]
	}`

	dst := newFixture(t)
	result, err := NewImporter(dst.store, dst.photoDir).Import(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Payments != 1 || result.SkippedPayments != 1 || result.SkippedShares != 1 {
		t.Errorf("unexpected skip counts: %+v", result)
	}
}

func TestImportMissingArchiveEntry(t *testing.T) {
	// data.json references a photos/ entry the archive does not contain:
	// the expense must still be inserted, with no photo reference.
	doc := `{
	  "version": 1, "standardCurrency": "KRW",
	  "travels": [
	    {
	      "id": 1, "name": "T", "startDate": 0, "endDate": 0, "currency": "KRW",
	      "persons": [],
	      "expenses": [
	        {
	          "id": 1, "title": "X", "totalAmount": 5, "description": "",
	          "photoUris": "photos/expense_1_0.jpg",
	          "photoFiles": ["photos/expense_1_0.jpg"],
	          "createdAt": 0, "payments": [], "expenseUsers": []
	        }
	      ]
	    }
	  ]
	}`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zw.Create("data.json")
	if err != nil {
		t.Fatalf("Failed to create archive entry: %v", err)
	}
	if _, err := entry.Write([]byte(doc)); err != nil {
		t.Fatalf("Failed to write archive entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close archive: %v", err)
	}

	dst := newFixture(t)
	result, err := NewImporter(dst.store, dst.photoDir).Import(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Expenses != 1 || result.MissingPhotos != 1 {
		t.Errorf("unexpected result: %+v", result)
	}

	trips, _ := dst.store.ListTrips(context.Background())
	expenses, _ := dst.store.ListExpensesByTrip(context.Background(), trips[0].ID)
	if len(expenses) != 1 || len(expenses[0].PhotoURIs) != 0 {
		t.Errorf("expected expense without photos, got %+v", expenses)
	}
}
