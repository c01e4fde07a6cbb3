package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/librepps/gopps"
	"github.com/librepps/gopps/internal/config"
	"github.com/librepps/gopps/internal/fiscal"
	"github.com/librepps/gopps/internal/icd"
	"github.com/librepps/gopps/internal/platform/acquire"
	"github.com/librepps/gopps/internal/platform/db"
	"github.com/librepps/gopps/internal/refdata"
	"github.com/librepps/gopps/internal/server"
	"github.com/librepps/gopps/pkg/claim"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gopps",
		Short: "Medicare claims grouping and pricing service",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(acquireCmd())
	rootCmd.AddCommand(refdataCmd())
	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(versionsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger writes JSON lines, or console format in development.
func newLogger(out io.Writer) zerolog.Logger {
	logger := zerolog.New(out).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	}
	return logger
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the claims processing API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	logger := newLogger(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	proc, err := gopps.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize processor")
	}
	defer proc.Close()

	for _, info := range proc.Engines() {
		logger.Info().
			Str("engine", info.Engine).
			Interface("modules", info.Modules).
			Msg("engine loaded")
	}
	if missing := proc.Store().Validate(ctx); len(missing) > 0 {
		logger.Warn().Strs("tables", missing).Msg("reference tables incomplete, dependent lookups will fail")
	}

	srv := server.New(cfg, proc, logger)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func acquireCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acquire",
		Short: "Download and install the CMS engine jars",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			mgr := acquire.New(cfg.JarDir, cfg.DownloadDir, newLogger(os.Stderr))
			if err := mgr.Acquire(context.Background(), force); err != nil {
				return err
			}
			fmt.Println("All engine artifacts are installed.")
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Redownload artifacts that are already installed")
	return cmd
}

func refdataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refdata",
		Short: "Manage the reference-data store",
	}
	cmd.AddCommand(refdataLoadCmd())
	cmd.AddCommand(refdataBuildCmd())
	cmd.AddCommand(refdataStatusCmd())
	return cmd
}

// openStore opens the configured database with migrations applied. The
// refdata commands never start engine subprocesses.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*refdata.Store, error) {
	dsn := cfg.DatabasePath
	if cfg.DatabaseBackend == db.BackendPostgres {
		dsn = cfg.DatabaseURL
	}
	d, err := db.Open(ctx, cfg.DatabaseBackend, dsn, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, err
	}
	store := refdata.NewStore(d, logger)
	if _, err := store.Migrate(ctx); err != nil {
		d.Close()
		return nil, err
	}
	return store, nil
}

func refdataLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load reference files from disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			ipsfPath, _ := cmd.Flags().GetString("ipsf")
			opsfPath, _ := cmd.Flags().GetString("opsf")
			zip9Root, _ := cmd.Flags().GetString("zip9")
			if ipsfPath == "" && opsfPath == "" && zip9Root == "" {
				return fmt.Errorf("at least one of --ipsf, --opsf or --zip9 is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			store, err := openStore(ctx, cfg, newLogger(os.Stderr))
			if err != nil {
				return err
			}
			defer store.DB.Close()

			if ipsfPath != "" {
				stats, err := loadProviderCSV(ctx, ipsfPath, store.Ipsf.Truncate, store.Ipsf.LoadCSV)
				if err != nil {
					return fmt.Errorf("load ipsf: %w", err)
				}
				fmt.Printf("ipsf: %d rows loaded, %d skipped\n", stats.Inserted, stats.Skipped)
			}
			if opsfPath != "" {
				stats, err := loadProviderCSV(ctx, opsfPath, store.Opsf.Truncate, store.Opsf.LoadCSV)
				if err != nil {
					return fmt.Errorf("load opsf: %w", err)
				}
				fmt.Printf("opsf: %d rows loaded, %d skipped\n", stats.Inserted, stats.Skipped)
			}
			if zip9Root != "" {
				stats, err := store.BuildZip9(ctx, zip9Root, true)
				if err != nil {
					return fmt.Errorf("load zip9: %w", err)
				}
				fmt.Printf("zip9: %d rows loaded, %d skipped\n", stats.Inserted, stats.Skipped)
			}
			return nil
		},
	}
	cmd.Flags().String("ipsf", "", "Path to an inpatient provider export CSV")
	cmd.Flags().String("opsf", "", "Path to an outpatient provider export CSV")
	cmd.Flags().String("zip9", "", "Path to a carrier locality shard directory")
	return cmd
}

// loadProviderCSV truncates a provider table and reloads it from a local
// export file.
func loadProviderCSV(
	ctx context.Context,
	path string,
	truncate func(context.Context) error,
	load func(context.Context, io.Reader) (refdata.LoadStats, error),
) (refdata.LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return refdata.LoadStats{}, err
	}
	defer f.Close()

	if err := truncate(ctx); err != nil {
		return refdata.LoadStats{}, err
	}
	return load(ctx, f)
}

func refdataBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Download and rebuild every reference table",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(os.Stderr)
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
				return err
			}

			ctx := context.Background()
			store, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.DB.Close()

			conv := icd.NewConverter(store.DB, logger)
			if _, err := conv.Migrate(ctx); err != nil {
				return err
			}

			report, err := refdata.Build(ctx, store, conv, cfg.DownloadDir, zipDataRoot(cfg))
			if err != nil {
				return err
			}
			fmt.Printf("ipsf: %d rows loaded, %d skipped\n", report.Ipsf.Inserted, report.Ipsf.Skipped)
			fmt.Printf("opsf: %d rows loaded, %d skipped\n", report.Opsf.Inserted, report.Opsf.Skipped)
			fmt.Printf("zip9: %d rows loaded, %d skipped\n", report.Zip9.Inserted, report.Zip9.Skipped)
			return nil
		},
	}
}

// zipDataRoot resolves the carrier locality dataset directory.
func zipDataRoot(cfg *config.Config) string {
	if cfg.ZipClDir != "" {
		return cfg.ZipClDir
	}
	return filepath.Join(cfg.DataDir, "zipCL-data")
}

func refdataStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show reference table row counts and migration state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			store, err := openStore(ctx, cfg, newLogger(os.Stderr))
			if err != nil {
				return err
			}
			defer store.DB.Close()

			status, err := store.Status(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Backend: %s\n\n", status.Backend)
			fmt.Printf("%-6s %9d rows\n", "ipsf", status.IpsfRows)
			fmt.Printf("%-6s %9d rows\n", "opsf", status.OpsfRows)
			fmt.Printf("%-6s %9d rows\n", "zip9", status.Zip9Rows)

			fmt.Println()
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, m := range status.Migrations {
				state := "pending"
				if m.Applied {
					state = "applied"
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", m.Version, m.Name, state, m.AppliedAt)
			}
			return nil
		},
	}
}

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run one claim file through the module pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			pretty, _ := cmd.Flags().GetBool("pretty")
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			cl, err := loadClaim(file)
			if err != nil {
				return err
			}

			// Logs go to stderr so stdout stays clean for the result.
			logger := newLogger(os.Stderr)
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			proc, err := gopps.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer proc.Close()

			res, err := proc.Process(ctx, cl)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(res)
		},
	}
	cmd.Flags().String("file", "", "Path to a claim JSON file")
	cmd.Flags().Bool("pretty", false, "Indent the result JSON")
	return cmd
}

// loadClaim reads and decodes one claim JSON file.
func loadClaim(path string) (*claim.Claim, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cl claim.Claim
	if err := json.Unmarshal(raw, &cl); err != nil {
		return nil, fmt.Errorf("parse claim file %s: %w", path, err)
	}
	return &cl, nil
}

// pricerTypes lists the per-PPS pricer jar prefixes, which double as the
// supported-years environment prefixes.
var pricerTypes = []string{"esrd", "fqhc", "hha", "hospice", "ipf", "ipps", "irf", "ltch", "opps", "snf"}

func versionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Show grouper versions, pricer years and engine inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dateStr, _ := cmd.Flags().GetString("date")
			asOf, err := resolveDate(dateStr)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			fmt.Printf("Date: %s\n", asOf.Format("2006-01-02"))
			fmt.Printf("MS-DRG version: %s\n\n", fiscal.VersionForDate(asOf))

			fmt.Printf("%-10s %s\n", "PPS", "FISCAL YEARS")
			for _, typ := range pricerTypes {
				years, err := fiscal.SupportedYears(strings.ToUpper(typ), asOf)
				if err != nil {
					return err
				}
				fmt.Printf("%-10s %s\n", typ, joinYears(years))
			}

			fmt.Println()
			fmt.Printf("%-10s %-9s %s\n", "COMPONENT", "STATUS", "MISSING")
			mgr := acquire.New(cfg.JarDir, cfg.DownloadDir, zerolog.Nop())
			for _, st := range mgr.Inventory() {
				state := "complete"
				if !st.Complete {
					state = "missing"
				}
				fmt.Printf("%-10s %-9s %s\n", st.Component, state, strings.Join(st.Missing, ", "))
			}
			return nil
		},
	}
	cmd.Flags().String("date", "", "Discharge date (YYYY-MM-DD), defaults to today")
	return cmd
}

// resolveDate parses a YYYY-MM-DD flag value, defaulting to today.
func resolveDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func joinYears(years []int) string {
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	return strings.Join(parts, ", ")
}
