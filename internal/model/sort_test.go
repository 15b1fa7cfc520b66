package model

import (
	"testing"
	"time"
)

func fleetForSorting() []Vehicle {
	end1 := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	end2 := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

	v1 := NewVehicle("203", "AAA-111", "VIN-1", OwnershipOwned)
	v1.Status = StatusGrounded

	v2 := NewVehicle("101", "BBB-222", "VIN-2", OwnershipRented)
	v2.Status = StatusActive
	v2.RentalEndDate = &end1

	v3 := NewVehicle("150", "CCC-333", "VIN-3", OwnershipRented)
	v3.Status = StatusNeedsRepair
	v3.RentalEndDate = &end2

	return []Vehicle{v1, v2, v3}
}

func TestSortReset(t *testing.T) {
	vehicles := fleetForSorting()
	sorted := SortVehicles(vehicles, SortReset)

	for i := range vehicles {
		if sorted[i].ID != vehicles[i].ID {
			t.Fatalf("reset must keep insertion order, position %d changed", i)
		}
	}
}

func TestSortByVanNumber(t *testing.T) {
	sorted := SortVehicles(fleetForSorting(), SortVanNumber)

	want := []string{"101", "150", "203"}
	for i, w := range want {
		if sorted[i].VanNumber != w {
			t.Errorf("position %d: expected van %s, got %s", i, w, sorted[i].VanNumber)
		}
	}
}

func TestSortByStatusRawLabel(t *testing.T) {
	sorted := SortVehicles(fleetForSorting(), SortStatus)

	// Lexicographic on the raw label: "Needs Repair" < "active" < "grounded".
	want := []Status{StatusNeedsRepair, StatusActive, StatusGrounded}
	for i, w := range want {
		if sorted[i].Status != w {
			t.Errorf("position %d: expected status %q, got %q", i, w, sorted[i].Status)
		}
	}
}

func TestSortByRentalEndDateMissingLast(t *testing.T) {
	sorted := SortVehicles(fleetForSorting(), SortRentalEndDate)

	if sorted[0].VanNumber != "150" {
		t.Errorf("expected earliest end date first, got van %s", sorted[0].VanNumber)
	}
	if sorted[1].VanNumber != "101" {
		t.Errorf("expected later end date second, got van %s", sorted[1].VanNumber)
	}
	if sorted[2].RentalEndDate != nil {
		t.Error("expected vehicle without an end date to sort last")
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	vehicles := fleetForSorting()
	first := vehicles[0].ID

	SortVehicles(vehicles, SortVanNumber)

	if vehicles[0].ID != first {
		t.Error("sorting must not mutate the input slice")
	}
}

func TestParseSortOption(t *testing.T) {
	if got := ParseSortOption("vanNumber"); got != SortVanNumber {
		t.Errorf("expected vanNumber, got %q", got)
	}
	if got := ParseSortOption("bogus"); got != SortReset {
		t.Errorf("expected fallback to reset, got %q", got)
	}
}
