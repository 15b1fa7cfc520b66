// Package fleet holds the authoritative in-memory vehicle collection and
// mediates every mutation through a single persistence path.
package fleet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fleettrack/fleettrack/internal/model"
	"github.com/fleettrack/fleettrack/internal/store"
)

var (
	// ErrNotFound is returned when no vehicle matches the given id.
	ErrNotFound = errors.New("vehicle not found")

	// ErrNegativeMileage is returned for a mileage reading below zero.
	ErrNegativeMileage = errors.New("mileage must be a non-negative number")

	// ErrMileageDecrease is returned when a new reading is below the
	// vehicle's current mileage.
	ErrMileageDecrease = errors.New("new mileage cannot be less than current mileage")
)

// Fleet is the repository for all vehicles. Every mutation is applied in
// memory first and then re-persists the full list; if the write fails the
// in-memory state is kept and the error is returned, so the durable copy
// may lag behind.
//
// Safe for concurrent use.
type Fleet struct {
	mu  sync.Mutex
	db  *sql.DB
	now func() time.Time

	vehicles  []model.Vehicle
	isDSP     bool
	onboarded bool
}

// New loads the fleet from the database. Slots that have never been
// written load as an empty fleet and unset flags.
func New(ctx context.Context, db *sql.DB) (*Fleet, error) {
	vehicles, err := store.LoadVehicles(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("loading fleet: %w", err)
	}

	isDSP, err := store.GetDSP(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("loading dsp flag: %w", err)
	}

	onboarded, err := store.GetOnboardingComplete(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("loading onboarding flag: %w", err)
	}

	return &Fleet{
		db:        db,
		now:       time.Now,
		vehicles:  vehicles,
		isDSP:     isDSP,
		onboarded: onboarded,
	}, nil
}

// SetClock overrides the timestamp source for new photos, damage reports
// and mileage records. Intended for tests.
func (f *Fleet) SetClock(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// persist must be called with the mutex held.
func (f *Fleet) persist(ctx context.Context) error {
	return store.SaveVehicles(ctx, f.db, f.vehicles)
}

// find must be called with the mutex held. Returns the index of the
// vehicle with the given id, or -1.
func (f *Fleet) find(id string) int {
	return slices.IndexFunc(f.vehicles, func(v model.Vehicle) bool {
		return v.ID == id
	})
}

// cloneAll deep-copies vehicles so callers cannot reach repository state
// through nested record slices.
func cloneAll(vehicles []model.Vehicle) []model.Vehicle {
	cloned := make([]model.Vehicle, len(vehicles))
	for i := range vehicles {
		cloned[i] = vehicles[i].Clone()
	}
	return cloned
}

// Vehicles returns the fleet in stored (insertion) order. The returned
// vehicles are deep copies; mutating them does not touch the repository.
func (f *Fleet) Vehicles() []model.Vehicle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneAll(f.vehicles)
}

// Sorted returns a read-only ordering of the fleet without mutating the
// stored order. The returned vehicles are deep copies.
func (f *Fleet) Sorted(option model.SortOption) []model.Vehicle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneAll(model.SortVehicles(f.vehicles, option))
}

// Get returns a deep copy of the vehicle with the given id.
func (f *Fleet) Get(id string) (model.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.find(id)
	if i < 0 {
		return model.Vehicle{}, ErrNotFound
	}
	return f.vehicles[i].Clone(), nil
}

// Add validates and appends a new vehicle.
func (f *Fleet) Add(ctx context.Context, v model.Vehicle) error {
	if err := v.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.vehicles = append(f.vehicles, v)
	return f.persist(ctx)
}

// Update replaces the vehicle with matching id. Full-replace semantics:
// everything in the new value wins, including nested collections.
func (f *Fleet) Update(ctx context.Context, v model.Vehicle) error {
	if err := v.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.find(v.ID)
	if i < 0 {
		return ErrNotFound
	}
	f.vehicles[i] = v
	return f.persist(ctx)
}

// Delete removes all vehicles with the given id.
func (f *Fleet) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	remaining := slices.DeleteFunc(f.vehicles, func(v model.Vehicle) bool {
		return v.ID == id
	})
	if len(remaining) == len(f.vehicles) {
		return ErrNotFound
	}
	f.vehicles = remaining
	return f.persist(ctx)
}

// AddPhoto appends a photo with a fresh id and current timestamp to the
// vehicle with the given id.
func (f *Fleet) AddPhoto(ctx context.Context, vehicleID string, imageData []byte, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.find(vehicleID)
	if i < 0 {
		return ErrNotFound
	}
	photo := model.NewPhoto(imageData, description, f.now())
	f.vehicles[i].Photos = append(f.vehicles[i].Photos, photo)
	return f.persist(ctx)
}

// AddDamage appends a damage report with a fresh id and current timestamp
// to the vehicle with the given id.
func (f *Fleet) AddDamage(ctx context.Context, vehicleID, description string, isNewDamage bool, photos []model.Photo) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.find(vehicleID)
	if i < 0 {
		return ErrNotFound
	}
	damage := model.NewDamageRecord(description, isNewDamage, photos, f.now())
	f.vehicles[i].Damages = append(f.vehicles[i].Damages, damage)
	return f.persist(ctx)
}

// AddMileage appends an odometer reading to the vehicle with the given id.
// A zero date means "now". The reading is rejected before any mutation if
// it is negative or below the vehicle's current mileage.
func (f *Fleet) AddMileage(ctx context.Context, vehicleID string, mileage int, date time.Time) error {
	if mileage < 0 {
		return ErrNegativeMileage
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.find(vehicleID)
	if i < 0 {
		return ErrNotFound
	}
	if mileage < f.vehicles[i].CurrentMileage() {
		return ErrMileageDecrease
	}
	if date.IsZero() {
		date = f.now()
	}

	record := model.MileageRecord{ID: uuid.NewString(), Mileage: mileage, Date: date}
	f.vehicles[i].MileageRecords = append(f.vehicles[i].MileageRecords, record)
	return f.persist(ctx)
}

// IsDSP reports whether the operator runs as a Delivery Service Partner.
func (f *Fleet) IsDSP() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isDSP
}

// HasCompletedOnboarding reports whether onboarding has been finished.
func (f *Fleet) HasCompletedOnboarding() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.onboarded
}

// SetDSP stores the DSP flag and marks onboarding complete.
func (f *Fleet) SetDSP(ctx context.Context, isDSP bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := store.SetDSP(ctx, f.db, isDSP); err != nil {
		return err
	}
	f.isDSP = isDSP
	f.onboarded = true
	return nil
}
