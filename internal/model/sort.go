package model

import (
	"slices"
	"strings"
)

// SortOption selects an ordering for a vehicle listing.
type SortOption string

const (
	SortReset         SortOption = "reset"
	SortStatus        SortOption = "status"
	SortVanNumber     SortOption = "vanNumber"
	SortRentalEndDate SortOption = "rentalEndDate"
)

// ParseSortOption maps a user-supplied name to a sort option.
// Unknown names fall back to SortReset.
func ParseSortOption(s string) SortOption {
	switch SortOption(s) {
	case SortStatus, SortVanNumber, SortRentalEndDate:
		return SortOption(s)
	}
	return SortReset
}

// SortVehicles returns a sorted copy of vehicles; the input is never
// mutated. SortReset keeps the stored (insertion) order. SortStatus sorts
// lexicographically on the raw status label, SortVanNumber on the van
// number. SortRentalEndDate sorts ascending by rental end date, with
// vehicles that have no end date after all vehicles that do. All sorts are
// stable so equal keys keep their stored order.
func SortVehicles(vehicles []Vehicle, option SortOption) []Vehicle {
	sorted := slices.Clone(vehicles)

	switch option {
	case SortStatus:
		slices.SortStableFunc(sorted, func(a, b Vehicle) int {
			return strings.Compare(string(a.Status), string(b.Status))
		})
	case SortVanNumber:
		slices.SortStableFunc(sorted, func(a, b Vehicle) int {
			return strings.Compare(a.VanNumber, b.VanNumber)
		})
	case SortRentalEndDate:
		slices.SortStableFunc(sorted, func(a, b Vehicle) int {
			switch {
			case a.RentalEndDate == nil && b.RentalEndDate == nil:
				return 0
			case a.RentalEndDate == nil:
				return 1
			case b.RentalEndDate == nil:
				return -1
			}
			return a.RentalEndDate.Compare(*b.RentalEndDate)
		})
	}

	return sorted
}
