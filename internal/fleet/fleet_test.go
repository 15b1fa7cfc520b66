package fleet

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/fleettrack/fleettrack/internal/db"
	"github.com/fleettrack/fleettrack/internal/model"
	"github.com/fleettrack/fleettrack/internal/store"
)

var testNow = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

func newTestFleet(t *testing.T) (*Fleet, *sql.DB) {
	t.Helper()

	database := db.NewTestDB(t)
	f, err := New(context.Background(), database)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.SetClock(func() time.Time { return testNow })
	return f, database
}

func testVehicle(van string) model.Vehicle {
	return model.NewVehicle(van, "PLATE-"+van, "VIN-"+van, model.OwnershipOwned)
}

func TestAddAndGet(t *testing.T) {
	f, _ := newTestFleet(t)
	ctx := context.Background()

	v := testVehicle("101")
	if err := f.Add(ctx, v); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := f.Get(v.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.VanNumber != "101" {
		t.Errorf("expected van 101, got %q", got.VanNumber)
	}

	if _, err := f.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestAddRejectsInvalidVehicle(t *testing.T) {
	f, _ := newTestFleet(t)

	v := testVehicle("101")
	v.VIN = ""
	if err := f.Add(context.Background(), v); err == nil {
		t.Fatal("expected validation error for empty vin")
	}
	if len(f.Vehicles()) != 0 {
		t.Error("invalid vehicle must not reach the collection")
	}
}

func TestUpdateFullReplace(t *testing.T) {
	f, _ := newTestFleet(t)
	ctx := context.Background()

	v := testVehicle("101")
	f.Add(ctx, v)
	f.AddMileage(ctx, v.ID, 5000, time.Time{})

	// Full replace: the stored mileage history is replaced by the new
	// value's (empty) history.
	replacement := v
	replacement.PlateNumber = "NEW-PLATE"
	replacement.Status = model.StatusNeedsRepair
	if err := f.Update(ctx, replacement); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := f.Get(v.ID)
	if got.PlateNumber != "NEW-PLATE" {
		t.Errorf("expected updated plate, got %q", got.PlateNumber)
	}
	if got.Status != model.StatusNeedsRepair {
		t.Errorf("expected updated status, got %q", got.Status)
	}
	if got.CurrentMileage() != 0 {
		t.Errorf("full replace: expected empty history to win, got mileage %d", got.CurrentMileage())
	}
	if got.VIN != v.VIN {
		t.Errorf("untouched field changed: %q != %q", got.VIN, v.VIN)
	}
}

func TestUpdateNotFound(t *testing.T) {
	f, _ := newTestFleet(t)

	v := testVehicle("101")
	if err := f.Update(context.Background(), v); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesOnlyMatch(t *testing.T) {
	f, _ := newTestFleet(t)
	ctx := context.Background()

	v1 := testVehicle("101")
	v2 := testVehicle("102")
	f.Add(ctx, v1)
	f.Add(ctx, v2)
	f.AddDamage(ctx, v2.ID, "scratched bumper", true, nil)

	if err := f.Delete(ctx, v1.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	vehicles := f.Vehicles()
	if len(vehicles) != 1 {
		t.Fatalf("expected 1 vehicle left, got %d", len(vehicles))
	}
	if vehicles[0].ID != v2.ID {
		t.Error("wrong vehicle deleted")
	}
	if len(vehicles[0].Damages) != 1 {
		t.Error("surviving vehicle's nested records must be untouched")
	}

	if err := f.Delete(ctx, v1.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestAddPhoto(t *testing.T) {
	f, _ := newTestFleet(t)
	ctx := context.Background()

	v := testVehicle("101")
	f.Add(ctx, v)

	if err := f.AddPhoto(ctx, v.ID, []byte{0xff, 0xd8}, "front view"); err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}

	got, _ := f.Get(v.ID)
	if len(got.Photos) != 1 {
		t.Fatalf("expected 1 photo, got %d", len(got.Photos))
	}
	photo := got.Photos[0]
	if photo.ID == "" {
		t.Error("expected a generated photo id")
	}
	if !photo.Timestamp.Equal(testNow) {
		t.Errorf("expected timestamp from injected clock, got %v", photo.Timestamp)
	}
	if photo.Description != "front view" {
		t.Errorf("expected description, got %q", photo.Description)
	}

	if err := f.AddPhoto(ctx, "missing", nil, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAddDamage(t *testing.T) {
	f, _ := newTestFleet(t)
	ctx := context.Background()

	v := testVehicle("101")
	f.Add(ctx, v)

	photos := []model.Photo{model.NewPhoto([]byte{1}, "close-up", testNow)}
	if err := f.AddDamage(ctx, v.ID, "cracked windshield", true, photos); err != nil {
		t.Fatalf("AddDamage: %v", err)
	}

	got, _ := f.Get(v.ID)
	if len(got.Damages) != 1 {
		t.Fatalf("expected 1 damage record, got %d", len(got.Damages))
	}
	damage := got.Damages[0]
	if damage.Description != "cracked windshield" || !damage.IsNewDamage {
		t.Errorf("unexpected damage record: %+v", damage)
	}
	if !damage.DateReported.Equal(testNow) {
		t.Errorf("expected report date from injected clock, got %v", damage.DateReported)
	}
	if len(damage.Photos) != 1 {
		t.Errorf("expected 1 damage photo, got %d", len(damage.Photos))
	}
}

func TestAddMileageAppendsWithoutReordering(t *testing.T) {
	f, _ := newTestFleet(t)
	ctx := context.Background()

	v := testVehicle("101")
	f.Add(ctx, v)

	f.AddMileage(ctx, v.ID, 5000, testNow.AddDate(0, 0, -2))
	f.AddMileage(ctx, v.ID, 5200, testNow.AddDate(0, 0, -1))
	f.AddMileage(ctx, v.ID, 5300, time.Time{}) // zero date means now

	got, _ := f.Get(v.ID)
	if len(got.MileageRecords) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got.MileageRecords))
	}
	if got.MileageRecords[0].Mileage != 5000 || got.MileageRecords[2].Mileage != 5300 {
		t.Error("appending must preserve prior records and their order")
	}
	if !got.MileageRecords[2].Date.Equal(testNow) {
		t.Errorf("expected zero date to default to the clock, got %v", got.MileageRecords[2].Date)
	}
	if got.CurrentMileage() != 5300 {
		t.Errorf("expected current mileage 5300, got %d", got.CurrentMileage())
	}
}

func TestAddMileageValidation(t *testing.T) {
	f, _ := newTestFleet(t)
	ctx := context.Background()

	v := testVehicle("101")
	f.Add(ctx, v)
	f.AddMileage(ctx, v.ID, 5000, time.Time{})

	if err := f.AddMileage(ctx, v.ID, 4900, time.Time{}); !errors.Is(err, ErrMileageDecrease) {
		t.Errorf("expected ErrMileageDecrease, got %v", err)
	}
	if err := f.AddMileage(ctx, v.ID, -1, time.Time{}); !errors.Is(err, ErrNegativeMileage) {
		t.Errorf("expected ErrNegativeMileage, got %v", err)
	}

	got, _ := f.Get(v.ID)
	if len(got.MileageRecords) != 1 {
		t.Errorf("rejected readings must not mutate the history, got %d records", len(got.MileageRecords))
	}

	// An equal reading is allowed (e.g. correcting the date).
	if err := f.AddMileage(ctx, v.ID, 5000, time.Time{}); err != nil {
		t.Errorf("equal reading should be accepted: %v", err)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	f, database := newTestFleet(t)
	ctx := context.Background()

	v := testVehicle("101")
	f.Add(ctx, v)
	f.AddMileage(ctx, v.ID, 5000, time.Time{})
	f.SetDSP(ctx, true)

	// A second repository over the same database sees everything.
	reloaded, err := New(ctx, database)
	if err != nil {
		t.Fatalf("New (reload): %v", err)
	}
	got, err := reloaded.Get(v.ID)
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if got.CurrentMileage() != 5000 {
		t.Errorf("expected mileage to survive reload, got %d", got.CurrentMileage())
	}
	if !reloaded.IsDSP() {
		t.Error("expected DSP flag to survive reload")
	}
	if !reloaded.HasCompletedOnboarding() {
		t.Error("expected onboarding flag to survive reload")
	}
}

func TestNewCorruptSlot(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// Garbage in the persisted slot must surface at load, not read as an
	// empty fleet.
	if err := store.SetSlot(ctx, database, "fleetVehicles", []byte("][")); err != nil {
		t.Fatalf("SetSlot: %v", err)
	}

	if _, err := New(ctx, database); err == nil {
		t.Fatal("expected New to propagate the decode error")
	}
}

func TestPersistFailureKeepsInMemoryState(t *testing.T) {
	f, database := newTestFleet(t)
	ctx := context.Background()

	v := testVehicle("101")
	if err := f.Add(ctx, v); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// With the database gone every save fails, but the mutation stays
	// applied in memory.
	database.Close()

	v2 := testVehicle("102")
	if err := f.Add(ctx, v2); err == nil {
		t.Fatal("expected Add to return the persistence error")
	}
	if len(f.Vehicles()) != 2 {
		t.Errorf("expected both vehicles in memory, got %d", len(f.Vehicles()))
	}

	if err := f.AddMileage(ctx, v.ID, 5000, time.Time{}); err == nil {
		t.Fatal("expected AddMileage to return the persistence error")
	}
	got, err := f.Get(v.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CurrentMileage() != 5000 {
		t.Errorf("expected the reading applied in memory, got %d", got.CurrentMileage())
	}
}

func TestReturnedVehiclesAreCopies(t *testing.T) {
	f, _ := newTestFleet(t)
	ctx := context.Background()

	v := testVehicle("101")
	f.Add(ctx, v)
	f.AddMileage(ctx, v.ID, 5000, time.Time{})

	got, _ := f.Get(v.ID)
	got.MileageRecords[0].Mileage = 999999

	fresh, _ := f.Get(v.ID)
	if fresh.CurrentMileage() != 5000 {
		t.Errorf("mutating a returned record leaked into the repository: %d", fresh.CurrentMileage())
	}

	listed := f.Vehicles()
	listed[0].MileageRecords[0].Mileage = 1

	fresh, _ = f.Get(v.ID)
	if fresh.CurrentMileage() != 5000 {
		t.Errorf("mutating a listed record leaked into the repository: %d", fresh.CurrentMileage())
	}
}

func TestSortedViewDoesNotMutate(t *testing.T) {
	f, _ := newTestFleet(t)
	ctx := context.Background()

	v1 := testVehicle("202")
	v2 := testVehicle("101")
	f.Add(ctx, v1)
	f.Add(ctx, v2)

	sorted := f.Sorted(model.SortVanNumber)
	if sorted[0].VanNumber != "101" {
		t.Errorf("expected sorted view, got van %s first", sorted[0].VanNumber)
	}

	stored := f.Vehicles()
	if stored[0].VanNumber != "202" {
		t.Error("sorted view must not change the stored order")
	}
}
