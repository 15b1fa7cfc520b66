package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fleettrack/fleettrack/internal/db"
	"github.com/fleettrack/fleettrack/internal/model"
)

func TestLoadVehiclesEmptySlot(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	vehicles, err := LoadVehicles(ctx, database)
	if err != nil {
		t.Fatalf("LoadVehicles: %v", err)
	}
	if len(vehicles) != 0 {
		t.Errorf("expected empty fleet for fresh database, got %d vehicles", len(vehicles))
	}
}

func TestSaveAndLoadVehicles(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	v1 := model.NewVehicle("101", "ABC-123", "VIN-1", model.OwnershipOwned)
	v1.MileageRecords = []model.MileageRecord{
		{ID: "m1", Mileage: 5000, Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	v2 := model.NewVehicle("102", "DEF-456", "VIN-2", model.OwnershipRented)
	v2.RentalCompany = "Acme"
	v2.Damages = []model.DamageRecord{
		model.NewDamageRecord("dented door", true, nil, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)),
	}

	if err := SaveVehicles(ctx, database, []model.Vehicle{v1, v2}); err != nil {
		t.Fatalf("SaveVehicles: %v", err)
	}

	loaded, err := LoadVehicles(ctx, database)
	if err != nil {
		t.Fatalf("LoadVehicles: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 vehicles, got %d", len(loaded))
	}
	if loaded[0].ID != v1.ID || loaded[1].ID != v2.ID {
		t.Error("expected stored order to be preserved")
	}
	if loaded[0].CurrentMileage() != 5000 {
		t.Errorf("expected nested mileage records to survive, got %d", loaded[0].CurrentMileage())
	}
	if len(loaded[1].Damages) != 1 || loaded[1].Damages[0].Description != "dented door" {
		t.Error("expected nested damage records to survive")
	}
	if loaded[1].RentalCompany != "Acme" {
		t.Errorf("expected rental company to survive, got %q", loaded[1].RentalCompany)
	}
}

func TestLoadVehiclesCorruptSlot(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := SetSlot(ctx, database, vehiclesSlot, []byte("{definitely not json")); err != nil {
		t.Fatalf("SetSlot: %v", err)
	}

	_, err := LoadVehicles(ctx, database)
	if err == nil {
		t.Fatal("expected a decode error for a corrupt slot")
	}
	if !strings.Contains(err.Error(), "decoding vehicle list") {
		t.Errorf("expected a wrapped decode error, got %v", err)
	}
}

func TestSaveVehiclesOverwrites(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	v := model.NewVehicle("101", "ABC-123", "VIN-1", model.OwnershipOwned)
	SaveVehicles(ctx, database, []model.Vehicle{v})
	SaveVehicles(ctx, database, nil)

	loaded, err := LoadVehicles(ctx, database)
	if err != nil {
		t.Fatalf("LoadVehicles: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty fleet after overwrite, got %d vehicles", len(loaded))
	}
}
