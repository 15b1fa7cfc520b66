package model

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Vehicle statuses. The raw labels are the persisted values and are kept
// as-is for compatibility with existing fleet data.
type Status string

const (
	StatusActive      Status = "active"
	StatusNeedsRepair Status = "Needs Repair"
	StatusGrounded    Status = "grounded"
	StatusReturned    Status = "returned"
)

// Valid reports whether s is a known vehicle status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusNeedsRepair, StatusGrounded, StatusReturned:
		return true
	}
	return false
}

// Vehicle ownership kinds.
type Ownership string

const (
	OwnershipOwned        Ownership = "owned"
	OwnershipRented       Ownership = "rented"
	OwnershipAmazonLeased Ownership = "Amazon Leased"
	OwnershipLeased       Ownership = "Leased"
)

// Valid reports whether o is a known ownership kind.
func (o Ownership) Valid() bool {
	switch o {
	case OwnershipOwned, OwnershipRented, OwnershipAmazonLeased, OwnershipLeased:
		return true
	}
	return false
}

// MileageRecord is a single odometer reading.
type MileageRecord struct {
	ID      string    `json:"id"`
	Mileage int       `json:"mileage"`
	Date    time.Time `json:"date"`
}

// Vehicle is a single van in the fleet. It exclusively owns its nested
// photos, damages and mileage records.
type Vehicle struct {
	ID              string          `json:"id"`
	VanNumber       string          `json:"vanNumber"`
	PlateNumber     string          `json:"plateNumber"`
	VIN             string          `json:"vin"`
	Ownership       Ownership       `json:"ownership"`
	RentalCompany   string          `json:"rentalCompany,omitempty"`
	RentalStartDate *time.Time      `json:"rentalStartDate,omitempty"`
	RentalEndDate   *time.Time      `json:"rentalEndDate,omitempty"`
	Status          Status          `json:"status"`
	Photos          []Photo         `json:"photos"`
	Damages         []DamageRecord  `json:"damages"`
	MileageRecords  []MileageRecord `json:"mileageRecords"`
}

// NewVehicle creates a vehicle with a fresh ID, status active and empty
// nested collections. Optional rental fields are left unset.
func NewVehicle(vanNumber, plateNumber, vin string, ownership Ownership) Vehicle {
	return Vehicle{
		ID:             uuid.NewString(),
		VanNumber:      vanNumber,
		PlateNumber:    plateNumber,
		VIN:            vin,
		Ownership:      ownership,
		Status:         StatusActive,
		Photos:         []Photo{},
		Damages:        []DamageRecord{},
		MileageRecords: []MileageRecord{},
	}
}

// Validate checks the creation/edit invariants: required string fields
// must be non-empty and enum fields must hold known values.
func (v *Vehicle) Validate() error {
	if strings.TrimSpace(v.VanNumber) == "" {
		return errors.New("van number is required")
	}
	if strings.TrimSpace(v.PlateNumber) == "" {
		return errors.New("plate number is required")
	}
	if strings.TrimSpace(v.VIN) == "" {
		return errors.New("vin is required")
	}
	if !v.Ownership.Valid() {
		return errors.New("unknown ownership: " + string(v.Ownership))
	}
	if !v.Status.Valid() {
		return errors.New("unknown status: " + string(v.Status))
	}
	return nil
}

// Clone returns a copy whose nested record slices are independent of the
// original, so mutating an element of the copy never leaks back. Photo
// image bytes are still shared; they are treated as immutable once stored.
func (v Vehicle) Clone() Vehicle {
	c := v
	c.Photos = slices.Clone(v.Photos)
	c.MileageRecords = slices.Clone(v.MileageRecords)
	c.Damages = slices.Clone(v.Damages)
	for i := range c.Damages {
		c.Damages[i].Photos = slices.Clone(c.Damages[i].Photos)
	}
	return c
}

// latestMileageRecord returns the record with the most recent date.
// On equal dates the higher mileage wins, so repeated same-day updates
// resolve to the last reading entered.
func (v *Vehicle) latestMileageRecord() *MileageRecord {
	var latest *MileageRecord
	for i := range v.MileageRecords {
		r := &v.MileageRecords[i]
		if latest == nil || r.Date.After(latest.Date) ||
			(r.Date.Equal(latest.Date) && r.Mileage > latest.Mileage) {
			latest = r
		}
	}
	return latest
}

// CurrentMileage returns the mileage of the most recent mileage record,
// or 0 if the vehicle has none.
func (v *Vehicle) CurrentMileage() int {
	if r := v.latestMileageRecord(); r != nil {
		return r.Mileage
	}
	return 0
}

// LastMileageUpdate returns the date of the most recent mileage record,
// or nil if the vehicle has none.
func (v *Vehicle) LastMileageUpdate() *time.Time {
	if r := v.latestMileageRecord(); r != nil {
		d := r.Date
		return &d
	}
	return nil
}
