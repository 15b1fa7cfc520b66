// Package report filters the fleet and renders a plain-text report from
// the result. Rendering is pure formatting: given the same vehicles and a
// fixed clock the output is byte-identical.
package report

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fleettrack/fleettrack/internal/model"
)

// Criteria selects a vehicle subset. A nil/unset field means no
// restriction on that dimension; all set fields must match (logical AND).
// The date range applies only when both Start and End are set, and matches
// vehicles whose rental start date falls within [Start, End] inclusive —
// vehicles without a rental start date never match an active date range.
type Criteria struct {
	Status      *model.Status
	Ownership   *model.Ownership
	Start       *time.Time
	End         *time.Time
	DamagedOnly bool
}

func (c Criteria) matches(v model.Vehicle) bool {
	if c.Status != nil && v.Status != *c.Status {
		return false
	}
	if c.Ownership != nil && v.Ownership != *c.Ownership {
		return false
	}
	if c.Start != nil && c.End != nil {
		if v.RentalStartDate == nil {
			return false
		}
		if v.RentalStartDate.Before(*c.Start) || v.RentalStartDate.After(*c.End) {
			return false
		}
	}
	if c.DamagedOnly && len(v.Damages) == 0 {
		return false
	}
	return true
}

// Filter returns the vehicles matching the criteria, preserving input
// order. The input is never mutated.
func Filter(vehicles []model.Vehicle, c Criteria) []model.Vehicle {
	filtered := []model.Vehicle{}
	for _, v := range vehicles {
		if c.matches(v) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// Date formats used in the rendered report.
const (
	timestampFormat = "Jan 2, 2006 at 3:04 PM"
	longDateFormat  = "January 2, 2006"
)

// Renderer produces the text report. Now supplies the generation
// timestamp and defaults to time.Now.
type Renderer struct {
	Now func() time.Time
}

// Render produces the full report for the given vehicles, in input order.
func (r *Renderer) Render(vehicles []model.Vehicle) string {
	now := time.Now
	if r != nil && r.Now != nil {
		now = r.Now
	}

	var b strings.Builder
	b.WriteString("Fleet Management Report\n")
	fmt.Fprintf(&b, "Generated on: %s\n\n", now().Format(timestampFormat))

	writeSummary(&b, vehicles)
	writeMileageSummary(&b, vehicles)

	b.WriteString("Detailed Vehicle List:\n")
	for _, v := range vehicles {
		writeVehicle(&b, v)
	}

	return b.String()
}

func writeSummary(b *strings.Builder, vehicles []model.Vehicle) {
	var active, needsRepair, rented, amazonLeased int
	for _, v := range vehicles {
		if v.Status == model.StatusActive {
			active++
		}
		if v.Status == model.StatusNeedsRepair {
			needsRepair++
		}
		if v.Ownership == model.OwnershipRented {
			rented++
		}
		if v.Ownership == model.OwnershipAmazonLeased {
			amazonLeased++
		}
	}

	b.WriteString("Summary:\n")
	fmt.Fprintf(b, "Total Vehicles: %d\n", len(vehicles))
	fmt.Fprintf(b, "Active Vehicles: %d\n", active)
	fmt.Fprintf(b, "Vehicles Needing Repair: %d\n", needsRepair)
	fmt.Fprintf(b, "Rented Vehicles: %d\n", rented)
	fmt.Fprintf(b, "Amazon Leased Vehicles: %d\n\n", amazonLeased)
}

func writeMileageSummary(b *strings.Builder, vehicles []model.Vehicle) {
	var total, highest, lowest int
	for i, v := range vehicles {
		m := v.CurrentMileage()
		total += m
		if i == 0 || m > highest {
			highest = m
		}
		if i == 0 || m < lowest {
			lowest = m
		}
	}

	// Integer-truncated average; guard the empty fleet.
	average := 0
	if len(vehicles) > 0 {
		average = total / len(vehicles)
	}

	b.WriteString("Mileage Summary:\n")
	fmt.Fprintf(b, "Total Fleet Mileage: %d\n", total)
	fmt.Fprintf(b, "Average Vehicle Mileage: %d\n", average)
	fmt.Fprintf(b, "Highest Mileage: %d\n", highest)
	fmt.Fprintf(b, "Lowest Mileage: %d\n\n", lowest)
}

func writeVehicle(b *strings.Builder, v model.Vehicle) {
	fmt.Fprintf(b, "\nVan #%s\n", v.VanNumber)
	fmt.Fprintf(b, "Plate: %s\n", v.PlateNumber)
	fmt.Fprintf(b, "VIN: %s\n", v.VIN)
	fmt.Fprintf(b, "Status: %s\n", v.Status)
	fmt.Fprintf(b, "Ownership: %s\n", v.Ownership)

	fmt.Fprintf(b, "Current Mileage: %d\n", v.CurrentMileage())
	if last := v.LastMileageUpdate(); last != nil {
		fmt.Fprintf(b, "Last Mileage Update: %s\n", last.Format(longDateFormat))
	}

	if len(v.MileageRecords) > 0 {
		b.WriteString("Mileage History:\n")
		history := slices.Clone(v.MileageRecords)
		slices.SortStableFunc(history, func(x, y model.MileageRecord) int {
			return y.Date.Compare(x.Date)
		})
		for _, record := range history {
			fmt.Fprintf(b, "- %d miles on %s\n", record.Mileage, record.Date.Format(longDateFormat))
		}
	}

	if v.Ownership == model.OwnershipRented {
		company := v.RentalCompany
		if company == "" {
			company = "N/A"
		}
		fmt.Fprintf(b, "Rental Company: %s\n", company)
		if v.RentalStartDate != nil {
			fmt.Fprintf(b, "Rental Start: %s\n", v.RentalStartDate.Format(longDateFormat))
		}
		if v.RentalEndDate != nil {
			fmt.Fprintf(b, "Rental End: %s\n", v.RentalEndDate.Format(longDateFormat))
		}
	}

	if v.Ownership == model.OwnershipAmazonLeased {
		if v.RentalStartDate != nil {
			fmt.Fprintf(b, "Lease Start: %s\n", v.RentalStartDate.Format(longDateFormat))
		}
		if v.RentalEndDate != nil {
			fmt.Fprintf(b, "Lease End: %s\n", v.RentalEndDate.Format(longDateFormat))
		}
	}

	if len(v.Damages) > 0 {
		fmt.Fprintf(b, "Damage Reports: %d\n", len(v.Damages))
		for _, damage := range v.Damages {
			fmt.Fprintf(b, "- %s (%s)\n", damage.Description, damage.DateReported.Format(timestampFormat))
		}
	}

	fmt.Fprintf(b, "Photos: %d\n", len(v.Photos))
	b.WriteString("----------------------------------------\n")
}
