package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fleettrack/fleettrack/internal/fleet"
	"github.com/fleettrack/fleettrack/internal/imaging"
	"github.com/fleettrack/fleettrack/internal/model"
	"github.com/fleettrack/fleettrack/internal/qr"
	"github.com/fleettrack/fleettrack/internal/report"
)

// dispatch runs the given subcommand.
func dispatch(ctx context.Context, f *fleet.Fleet, command string, args []string) error {
	switch command {
	case "add":
		return cmdAdd(ctx, f, args)
	case "list":
		return cmdList(f, args)
	case "show":
		return cmdShow(f, args)
	case "edit":
		return cmdEdit(ctx, f, args)
	case "delete":
		return cmdDelete(ctx, f, args)
	case "mileage":
		return cmdMileage(ctx, f, args)
	case "photo":
		return cmdPhoto(ctx, f, args)
	case "damage":
		return cmdDamage(ctx, f, args)
	case "report":
		return cmdReport(f, args)
	case "qr":
		return cmdQR(f, args)
	case "dsp":
		return cmdDSP(ctx, f, args)
	}
	return fmt.Errorf("unknown command: %s", command)
}

const dateFormat = "2006-01-02"

// Mileage validation messages, shown to the user verbatim.
const (
	msgInvalidMileage  = "Please enter a valid mileage number"
	msgMileageDecrease = "New mileage cannot be less than current mileage"
)

// errReported marks a failure whose message has already been printed, so
// main exits non-zero without adding the generic error prefix.
var errReported = errors.New("already reported")

// parseDate parses a YYYY-MM-DD date.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return &t, nil
}

// parseOwnership accepts both the raw persisted labels and CLI-friendly
// aliases.
func parseOwnership(s string) (model.Ownership, error) {
	switch strings.ToLower(s) {
	case "owned":
		return model.OwnershipOwned, nil
	case "rented":
		return model.OwnershipRented, nil
	case "amazon-leased", "amazon leased":
		return model.OwnershipAmazonLeased, nil
	case "leased":
		return model.OwnershipLeased, nil
	}
	return "", fmt.Errorf("unknown ownership %q (want owned, rented, amazon-leased or leased)", s)
}

// parseStatus accepts both the raw persisted labels and CLI-friendly aliases.
func parseStatus(s string) (model.Status, error) {
	switch strings.ToLower(s) {
	case "active":
		return model.StatusActive, nil
	case "needs-repair", "needs repair":
		return model.StatusNeedsRepair, nil
	case "grounded":
		return model.StatusGrounded, nil
	case "returned":
		return model.StatusReturned, nil
	}
	return "", fmt.Errorf("unknown status %q (want active, needs-repair, grounded or returned)", s)
}

// resolveVehicle finds a vehicle by id, falling back to van number so the
// common case doesn't require typing a UUID.
func resolveVehicle(f *fleet.Fleet, key string) (model.Vehicle, error) {
	if v, err := f.Get(key); err == nil {
		return v, nil
	}
	for _, v := range f.Vehicles() {
		if v.VanNumber == key {
			return v, nil
		}
	}
	return model.Vehicle{}, fmt.Errorf("no vehicle with id or van number %q", key)
}

func cmdAdd(ctx context.Context, f *fleet.Fleet, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	van := fs.String("van", "", "van number")
	plate := fs.String("plate", "", "plate number")
	vin := fs.String("vin", "", "VIN")
	ownership := fs.String("ownership", "owned", "owned, rented, amazon-leased or leased")
	status := fs.String("status", "active", "active, needs-repair, grounded or returned")
	company := fs.String("company", "", "rental company")
	start := fs.String("rental-start", "", "rental/lease start date (YYYY-MM-DD)")
	end := fs.String("rental-end", "", "rental/lease end date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	own, err := parseOwnership(*ownership)
	if err != nil {
		return err
	}
	st, err := parseStatus(*status)
	if err != nil {
		return err
	}

	v := model.NewVehicle(*van, *plate, *vin, own)
	v.Status = st
	v.RentalCompany = *company
	if v.RentalStartDate, err = parseDate(*start); err != nil {
		return err
	}
	if v.RentalEndDate, err = parseDate(*end); err != nil {
		return err
	}

	if err := f.Add(ctx, v); err != nil {
		return err
	}
	fmt.Printf("Added van #%s (%s)\n", v.VanNumber, v.ID)
	return nil
}

func cmdList(f *fleet.Fleet, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	sortBy := fs.String("sort", "reset", "reset, status, vanNumber or rentalEndDate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	vehicles := f.Sorted(model.ParseSortOption(*sortBy))
	if len(vehicles) == 0 {
		fmt.Println("No vehicles yet. Add one with 'fleettrack add'.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VAN\tPLATE\tSTATUS\tOWNERSHIP\tMILEAGE\tID")
	for _, v := range vehicles {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			v.VanNumber, v.PlateNumber, v.Status, ownershipLabel(v.Ownership, f.IsDSP()),
			v.CurrentMileage(), v.ID)
	}
	return w.Flush()
}

// ownershipLabel adjusts leasing terminology for non-DSP operators, who
// see plain "Leased" instead of the Amazon program wording.
func ownershipLabel(o model.Ownership, isDSP bool) string {
	if o == model.OwnershipAmazonLeased && !isDSP {
		return string(model.OwnershipLeased)
	}
	return string(o)
}

func cmdShow(f *fleet.Fleet, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: fleettrack show <id-or-van>")
	}
	v, err := resolveVehicle(f, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Van #%s\n", v.VanNumber)
	fmt.Printf("ID: %s\n", v.ID)
	fmt.Printf("Plate: %s\n", v.PlateNumber)
	fmt.Printf("VIN: %s\n", v.VIN)
	fmt.Printf("Status: %s\n", v.Status)
	fmt.Printf("Ownership: %s\n", ownershipLabel(v.Ownership, f.IsDSP()))
	if v.RentalCompany != "" {
		fmt.Printf("Rental Company: %s\n", v.RentalCompany)
	}
	if v.RentalStartDate != nil {
		fmt.Printf("Rental Start: %s\n", v.RentalStartDate.Format(dateFormat))
	}
	if v.RentalEndDate != nil {
		fmt.Printf("Rental End: %s\n", v.RentalEndDate.Format(dateFormat))
	}
	fmt.Printf("Current Mileage: %d\n", v.CurrentMileage())
	if last := v.LastMileageUpdate(); last != nil {
		fmt.Printf("Last Mileage Update: %s\n", last.Format(dateFormat))
	}
	fmt.Printf("Photos: %d\n", len(v.Photos))
	fmt.Printf("Damage Reports: %d\n", len(v.Damages))
	for _, d := range v.Damages {
		marker := ""
		if d.IsNewDamage {
			marker = " [new]"
		}
		fmt.Printf("- %s (%s)%s\n", d.Description, d.DateReported.Format(dateFormat), marker)
	}
	return nil
}

func cmdEdit(ctx context.Context, f *fleet.Fleet, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	van := fs.String("van", "", "van number")
	plate := fs.String("plate", "", "plate number")
	vin := fs.String("vin", "", "VIN")
	ownership := fs.String("ownership", "", "owned, rented, amazon-leased or leased")
	status := fs.String("status", "", "active, needs-repair, grounded or returned")
	company := fs.String("company", "", "rental company")
	start := fs.String("rental-start", "", "rental/lease start date (YYYY-MM-DD)")
	end := fs.String("rental-end", "", "rental/lease end date (YYYY-MM-DD)")
	clearRental := fs.Bool("clear-rental", false, "unset rental company and dates")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: fleettrack edit [flags] <id-or-van>")
	}

	v, err := resolveVehicle(f, fs.Arg(0))
	if err != nil {
		return err
	}

	// Only flags that were actually set override the stored value.
	var flagErr error
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "van":
			v.VanNumber = *van
		case "plate":
			v.PlateNumber = *plate
		case "vin":
			v.VIN = *vin
		case "ownership":
			own, err := parseOwnership(*ownership)
			if err != nil {
				flagErr = err
				return
			}
			v.Ownership = own
		case "status":
			st, err := parseStatus(*status)
			if err != nil {
				flagErr = err
				return
			}
			v.Status = st
		case "company":
			v.RentalCompany = *company
		case "rental-start":
			v.RentalStartDate, err = parseDate(*start)
			if err != nil {
				flagErr = err
			}
		case "rental-end":
			v.RentalEndDate, err = parseDate(*end)
			if err != nil {
				flagErr = err
			}
		}
	})
	if flagErr != nil {
		return flagErr
	}

	if *clearRental {
		v.RentalCompany = ""
		v.RentalStartDate = nil
		v.RentalEndDate = nil
	}

	if err := f.Update(ctx, v); err != nil {
		return err
	}
	fmt.Printf("Updated van #%s\n", v.VanNumber)
	return nil
}

func cmdDelete(ctx context.Context, f *fleet.Fleet, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: fleettrack delete <id-or-van>")
	}
	v, err := resolveVehicle(f, args[0])
	if err != nil {
		return err
	}
	if err := f.Delete(ctx, v.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted van #%s\n", v.VanNumber)
	return nil
}

func cmdMileage(ctx context.Context, f *fleet.Fleet, args []string) error {
	fs := flag.NewFlagSet("mileage", flag.ContinueOnError)
	date := fs.String("date", "", "reading date (YYYY-MM-DD, default: today)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: fleettrack mileage [flags] <id-or-van> <reading>")
	}

	v, err := resolveVehicle(f, fs.Arg(0))
	if err != nil {
		return err
	}

	mileage, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		fmt.Fprintln(os.Stderr, msgInvalidMileage)
		return errReported
	}

	var when time.Time
	if d, err := parseDate(*date); err != nil {
		return err
	} else if d != nil {
		when = *d
	}

	if err := f.AddMileage(ctx, v.ID, mileage, when); err != nil {
		if errors.Is(err, fleet.ErrMileageDecrease) {
			fmt.Fprintln(os.Stderr, msgMileageDecrease)
			return errReported
		}
		return err
	}
	fmt.Println("Mileage updated successfully")
	return nil
}

func cmdPhoto(ctx context.Context, f *fleet.Fleet, args []string) error {
	fs := flag.NewFlagSet("photo", flag.ContinueOnError)
	file := fs.String("file", "", "photo file (JPEG or PNG)")
	desc := fs.String("desc", "", "photo description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *file == "" {
		return errors.New("usage: fleettrack photo -file <path> [-desc <text>] <id-or-van>")
	}

	v, err := resolveVehicle(f, fs.Arg(0))
	if err != nil {
		return err
	}

	data, err := loadPhoto(*file)
	if err != nil {
		return err
	}
	if err := f.AddPhoto(ctx, v.ID, data, *desc); err != nil {
		return err
	}
	fmt.Printf("Photo added to van #%s\n", v.VanNumber)
	return nil
}

// loadPhoto reads and normalizes an image file for storage.
func loadPhoto(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading photo %q: %w", path, err)
	}
	data, err := imaging.Prepare(raw)
	if err != nil {
		return nil, fmt.Errorf("processing photo %q: %w", path, err)
	}
	return data, nil
}

// fileList collects repeated -photo flags.
type fileList []string

func (l *fileList) String() string { return strings.Join(*l, ", ") }

func (l *fileList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func cmdDamage(ctx context.Context, f *fleet.Fleet, args []string) error {
	fs := flag.NewFlagSet("damage", flag.ContinueOnError)
	desc := fs.String("desc", "", "damage description")
	isNew := fs.Bool("new", false, "damage is new (not pre-existing)")
	var photoFiles fileList
	fs.Var(&photoFiles, "photo", "photo file, may be repeated")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: fleettrack damage -desc <text> [-new] [-photo <path>]... <id-or-van>")
	}
	if strings.TrimSpace(*desc) == "" {
		return errors.New("damage description is required")
	}

	v, err := resolveVehicle(f, fs.Arg(0))
	if err != nil {
		return err
	}

	var photos []model.Photo
	for _, path := range photoFiles {
		data, err := loadPhoto(path)
		if err != nil {
			return err
		}
		photos = append(photos, model.NewPhoto(data, "", time.Now()))
	}

	if err := f.AddDamage(ctx, v.ID, *desc, *isNew, photos); err != nil {
		return err
	}
	fmt.Printf("Damage reported on van #%s\n", v.VanNumber)
	return nil
}

func cmdReport(f *fleet.Fleet, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	status := fs.String("status", "", "filter by status")
	ownership := fs.String("ownership", "", "filter by ownership")
	start := fs.String("start", "", "rental start range begin (YYYY-MM-DD)")
	end := fs.String("end", "", "rental start range end (YYYY-MM-DD)")
	damagedOnly := fs.Bool("damaged-only", false, "only vehicles with damage reports")
	out := fs.String("out", "", "write the report to a file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var criteria report.Criteria
	if *status != "" {
		st, err := parseStatus(*status)
		if err != nil {
			return err
		}
		criteria.Status = &st
	}
	if *ownership != "" {
		own, err := parseOwnership(*ownership)
		if err != nil {
			return err
		}
		criteria.Ownership = &own
	}
	var err error
	if criteria.Start, err = parseDate(*start); err != nil {
		return err
	}
	if criteria.End, err = parseDate(*end); err != nil {
		return err
	}
	criteria.DamagedOnly = *damagedOnly

	filtered := report.Filter(f.Vehicles(), criteria)
	text := (&report.Renderer{}).Render(filtered)

	if *out == "" {
		fmt.Print(text)
		return nil
	}
	if err := os.WriteFile(*out, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	fmt.Printf("Report written to %s\n", *out)
	return nil
}

func cmdQR(f *fleet.Fleet, args []string) error {
	fs := flag.NewFlagSet("qr", flag.ContinueOnError)
	out := fs.String("out", "", "output PNG path (default: <van>-vin.png)")
	size := fs.Int("size", qr.DefaultSize, "edge length in pixels")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: fleettrack qr [flags] <id-or-van>")
	}

	v, err := resolveVehicle(f, fs.Arg(0))
	if err != nil {
		return err
	}

	data, err := qr.VIN(v.VIN, *size)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = v.VanNumber + "-vin.png"
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing qr code: %w", err)
	}
	fmt.Printf("QR code for VIN %s written to %s\n", v.VIN, path)
	return nil
}

func cmdDSP(ctx context.Context, f *fleet.Fleet, args []string) error {
	if len(args) == 0 {
		fmt.Printf("DSP: %t\n", f.IsDSP())
		fmt.Printf("Onboarding complete: %t\n", f.HasCompletedOnboarding())
		return nil
	}
	if len(args) != 1 {
		return errors.New("usage: fleettrack dsp [true|false]")
	}

	isDSP, err := strconv.ParseBool(args[0])
	if err != nil {
		return fmt.Errorf("invalid dsp value %q (want true or false)", args[0])
	}
	if err := f.SetDSP(ctx, isDSP); err != nil {
		return err
	}
	fmt.Printf("DSP set to %t\n", isDSP)
	return nil
}
