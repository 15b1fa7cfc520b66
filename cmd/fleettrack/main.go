package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fleettrack/fleettrack/internal/db"
	"github.com/fleettrack/fleettrack/internal/fleet"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR
// goes to stderr. If logPath is non-empty, all levels are also written to a
// size-rotated file at that path.
func setupLogger(logPath string) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		rotated := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     30, // days
		}
		stdoutW = io.MultiWriter(os.Stdout, rotated)
		stderrW = io.MultiWriter(os.Stderr, rotated)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
}

// envDefault returns the environment value for key, or fallback when unset.
func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage() {
	fmt.Fprint(os.Stdout, `Usage: fleettrack [flags] <command> [command flags]

Flags:
  -d, -db <path>    SQLite database path (default: fleettrack.sqlite3, env: FLEETTRACK_DB)
  -l, -log <path>   log file path (default: no file, env: FLEETTRACK_LOG)
  -h, -help         show this help and exit

Commands:
  add       add a vehicle
  list      list vehicles, optionally sorted
  show      show one vehicle in detail
  edit      edit a vehicle's fields
  delete    delete a vehicle
  mileage   record an odometer reading
  photo     attach a photo to a vehicle
  damage    report damage on a vehicle
  report    generate a filtered fleet report
  qr        render a vehicle's VIN as a QR code PNG
  dsp       show or set the Delivery Service Partner flag

Run 'fleettrack <command> -h' for command flags.
`)
}

func main() {
	// A .env next to the binary supplies defaults; absence is fine.
	_ = godotenv.Load()

	fs := flag.NewFlagSet("fleettrack", flag.ContinueOnError)

	var dbPath string
	fs.StringVar(&dbPath, "db", envDefault("FLEETTRACK_DB", "fleettrack.sqlite3"), "")
	fs.StringVar(&dbPath, "d", envDefault("FLEETTRACK_DB", "fleettrack.sqlite3"), "")

	var logPath string
	fs.StringVar(&logPath, "log", envDefault("FLEETTRACK_LOG", ""), "")
	fs.StringVar(&logPath, "l", envDefault("FLEETTRACK_LOG", ""), "")

	fs.Usage = usage

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		usage()
		os.Exit(1)
	}

	setupLogger(logPath)

	database, err := db.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	f, err := fleet.New(ctx, database)
	if err != nil {
		slog.Error("failed to load fleet", "error", err)
		os.Exit(1)
	}

	command := fs.Arg(0)
	args := fs.Args()[1:]

	if err := dispatch(ctx, f, command, args); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
