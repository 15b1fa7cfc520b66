package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fleettrack/fleettrack/internal/model"
)

// vehiclesSlot holds the whole fleet as one JSON-encoded array, in stored
// (insertion) order. The slot name matches the original persisted format.
const vehiclesSlot = "fleetVehicles"

// LoadVehicles reads the full vehicle list. A never-written slot yields an
// empty fleet; a corrupt slot is an error.
func LoadVehicles(ctx context.Context, db *sql.DB) ([]model.Vehicle, error) {
	data, err := GetSlot(ctx, db, vehiclesSlot)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var vehicles []model.Vehicle
	if err := json.Unmarshal(data, &vehicles); err != nil {
		return nil, fmt.Errorf("decoding vehicle list: %w", err)
	}
	return vehicles, nil
}

// SaveVehicles re-serializes the full vehicle list and overwrites the slot.
// There is no incremental save; the fleet is small enough that a full
// rewrite per mutation is fine.
func SaveVehicles(ctx context.Context, db *sql.DB, vehicles []model.Vehicle) error {
	if vehicles == nil {
		vehicles = []model.Vehicle{}
	}

	data, err := json.Marshal(vehicles)
	if err != nil {
		return fmt.Errorf("encoding vehicle list: %w", err)
	}
	return SetSlot(ctx, db, vehiclesSlot, data)
}
