package refdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/platform/db"
)

// Store aggregates the reference-data repositories over one database
// handle and owns schema migration and dataset builds.
type Store struct {
	DB   *db.DB
	Ipsf IpsfRepo
	Opsf OpsfRepo
	Zip9 Zip9Repo

	log    zerolog.Logger
	client *http.Client

	// Export URLs are fields so tests can point builds at a local server.
	ipsfURL string
	opsfURL string
}

// Status summarizes the state of the reference-data store.
type Status struct {
	Backend    string               `json:"backend"`
	IpsfRows   int                  `json:"ipsf_rows"`
	OpsfRows   int                  `json:"opsf_rows"`
	Zip9Rows   int                  `json:"zip9_rows"`
	Migrations []db.MigrationStatus `json:"migrations"`
}

// NewStore creates a Store over an open database handle.
func NewStore(d *db.DB, log zerolog.Logger) *Store {
	return &Store{
		DB:      d,
		Ipsf:    NewIpsfRepo(d, log),
		Opsf:    NewOpsfRepo(d, log),
		Zip9:    NewZip9Repo(d, log),
		log:     log,
		ipsfURL: IpsfExportURL,
		opsfURL: OpsfExportURL,
	}
}

// SetHTTPClient overrides the download client.
func (s *Store) SetHTTPClient(c *http.Client) { s.client = c }

// SetExportURLs overrides the provider file export endpoints.
func (s *Store) SetExportURLs(ipsfURL, opsfURL string) {
	s.ipsfURL = ipsfURL
	s.opsfURL = opsfURL
}

// Migrate applies any pending schema migrations and returns how many ran.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	return db.NewMigrator(s.DB, Migrations()).Up(ctx)
}

// BuildIpsf refreshes the inpatient provider table. With download set it
// fetches a fresh export and removes the file afterwards; otherwise it
// loads an existing export from downloadDir.
func (s *Store) BuildIpsf(ctx context.Context, downloadDir string, download bool) (LoadStats, error) {
	return s.buildProviderTable(ctx, "ipsf", s.ipsfURL, filepath.Join(downloadDir, ipsfFileName), download, s.Ipsf.Truncate, s.Ipsf.LoadCSV)
}

// BuildOpsf refreshes the outpatient provider table.
func (s *Store) BuildOpsf(ctx context.Context, downloadDir string, download bool) (LoadStats, error) {
	return s.buildProviderTable(ctx, "opsf", s.opsfURL, filepath.Join(downloadDir, opsfFileName), download, s.Opsf.Truncate, s.Opsf.LoadCSV)
}

// BuildZip9 refreshes the carrier/locality table from a shard directory.
func (s *Store) BuildZip9(ctx context.Context, root string, truncate bool) (LoadStats, error) {
	if truncate {
		if err := s.Zip9.Truncate(ctx); err != nil {
			return LoadStats{}, err
		}
	}
	return s.Zip9.LoadShards(ctx, root)
}

func (s *Store) buildProviderTable(
	ctx context.Context,
	component, url, path string,
	download bool,
	truncate func(context.Context) error,
	load func(context.Context, io.Reader) (LoadStats, error),
) (LoadStats, error) {
	if download {
		s.log.Info().Str("component", component).Str("url", url).Msg("downloading provider file")
		if err := fetchToFile(ctx, s.client, component, url, path); err != nil {
			return LoadStats{}, err
		}
		defer os.Remove(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return LoadStats{}, fmt.Errorf("open %s export: %w", component, err)
	}
	defer f.Close()

	if err := truncate(ctx); err != nil {
		return LoadStats{}, err
	}
	return load(ctx, f)
}

// Validate checks that the reference tables exist and hold data. Missing
// or empty tables are logged and returned, never fatal: lookups against
// them surface per-claim not-found errors at processing time.
func (s *Store) Validate(ctx context.Context) []string {
	var missing []string
	counts := []struct {
		table string
		count func(context.Context) (int, error)
	}{
		{"ipsf", s.Ipsf.Count},
		{"opsf", s.Opsf.Count},
		{"zip9_data", s.Zip9.Count},
	}
	for _, c := range counts {
		n, err := c.count(ctx)
		if err != nil {
			s.log.Warn().Err(err).Str("table", c.table).Msg("reference table unavailable")
			missing = append(missing, c.table)
			continue
		}
		if n == 0 {
			s.log.Warn().Str("table", c.table).Msg("reference table is empty")
			missing = append(missing, c.table)
		}
	}
	return missing
}

// Status reports row counts and migration state.
func (s *Store) Status(ctx context.Context) (*Status, error) {
	ipsfRows, err := s.Ipsf.Count(ctx)
	if err != nil {
		return nil, err
	}
	opsfRows, err := s.Opsf.Count(ctx)
	if err != nil {
		return nil, err
	}
	zipRows, err := s.Zip9.Count(ctx)
	if err != nil {
		return nil, err
	}
	migrations, err := db.NewMigrator(s.DB, Migrations()).Status(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{
		Backend:    s.DB.Backend(),
		IpsfRows:   ipsfRows,
		OpsfRows:   opsfRows,
		Zip9Rows:   zipRows,
		Migrations: migrations,
	}, nil
}
