package refdata

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/platform/db"
	"github.com/librepps/gopps/pkg/errdefs"
)

// openEndYear marks a locality row with no published end date.
const openEndYear = "9999"

// Zip9Repo resolves carrier and pricing locality codes from ZIP+4 data.
type Zip9Repo interface {
	// LookupCarrierLocality finds the carrier/locality pair covering the
	// claim's service window. Rows are scanned most-specific first: an
	// exact +4 match wins, a ZIP5-level row (blank +4) is the fallback.
	// Dates are ISO YYYY-MM-DD strings.
	LookupCarrierLocality(ctx context.Context, zip5, plus4, fromDate, thruDate string) (*CarrierLocality, error)
	// LoadShards loads a locality dataset laid out as carriers.txt,
	// localities.txt and records/*.tsv(.gz) shard files under root.
	LoadShards(ctx context.Context, root string) (LoadStats, error)
	Truncate(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

var zip9Columns = []string{
	"state", "zip_code", "carrier", "pricing_locality", "rural_indicator",
	"plus_four_flag", "plus_four", "part_b_payment_indicator",
	"effective_date", "end_date",
}

type zip9Repo struct {
	db  *db.DB
	log zerolog.Logger
}

// NewZip9Repo creates a Zip9Repo over the given store.
func NewZip9Repo(d *db.DB, log zerolog.Logger) Zip9Repo {
	return &zip9Repo{db: d, log: log}
}

func (r *zip9Repo) LookupCarrierLocality(ctx context.Context, zip5, plus4, fromDate, thruDate string) (*CarrierLocality, error) {
	query := r.db.Rebind(`SELECT carrier, pricing_locality, plus_four FROM zip9_data
		WHERE zip_code = ? AND effective_date <= ? AND end_date >= ?
		ORDER BY plus_four DESC`)

	rows, err := r.db.QueryContext(ctx, query, zip5, fromDate, thruDate)
	if err != nil {
		return nil, fmt.Errorf("query zip9 localities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var carrier, locality, rowPlus4 string
		if err := rows.Scan(&carrier, &locality, &rowPlus4); err != nil {
			return nil, fmt.Errorf("scan zip9 row: %w", err)
		}
		rowPlus4 = strings.TrimSpace(rowPlus4)
		if rowPlus4 == "" || (plus4 != "" && plus4 == rowPlus4) {
			return &CarrierLocality{Carrier: carrier, Locality: locality}, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate zip9 rows: %w", err)
	}

	return nil, errdefs.NotFound("carrier/locality", zip5, fromDate)
}

func (r *zip9Repo) LoadShards(ctx context.Context, root string) (LoadStats, error) {
	carriers, err := readLines(filepath.Join(root, "carriers.txt"))
	if err != nil {
		return LoadStats{}, err
	}
	localities, err := readLines(filepath.Join(root, "localities.txt"))
	if err != nil {
		return LoadStats{}, err
	}
	if len(carriers) == 0 || len(localities) == 0 {
		r.log.Warn().Str("root", root).Msg("zip9 dictionaries missing or empty, nothing loaded")
		return LoadStats{}, nil
	}

	recDir := filepath.Join(root, "records")
	entries, err := os.ReadDir(recDir)
	if os.IsNotExist(err) {
		return LoadStats{}, nil
	}
	if err != nil {
		return LoadStats{}, fmt.Errorf("read zip9 records dir: %w", err)
	}

	var shards []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".tsv.gz") {
			shards = append(shards, name)
		}
	}
	sort.Strings(shards)

	insert := r.db.Rebind(`INSERT INTO zip9_data (` + strings.Join(zip9Columns, ", ") + `) VALUES (` + placeholders(len(zip9Columns)) + `)`)

	var stats LoadStats
	batch := make([]*Zip9Locality, 0, loadBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin zip9 batch: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("prepare zip9 insert: %w", err)
		}
		defer stmt.Close()

		for _, z := range batch {
			_, err := stmt.ExecContext(ctx,
				z.State, z.ZipCode, z.Carrier, z.PricingLocality, z.RuralIndicator,
				z.PlusFourFlag, z.PlusFour, z.PartBPaymentIndicator,
				z.EffectiveDate, z.EndDate,
			)
			if err != nil {
				return fmt.Errorf("insert zip9 row: %w", err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit zip9 batch: %w", err)
		}
		stats.Inserted += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, shard := range shards {
		path := filepath.Join(recDir, shard)
		src, closeFn, err := openShard(path)
		if err != nil {
			return stats, err
		}

		scanner := bufio.NewScanner(src)
		line := 0
		for scanner.Scan() {
			line++
			raw := scanner.Text()
			if raw == "" {
				continue
			}
			z, ok := parseShardLine(raw, carriers, localities)
			if !ok {
				stats.Skipped++
				r.log.Warn().Str("shard", shard).Int("line", line).Msg("skipping unresolvable zip9 record")
				continue
			}
			batch = append(batch, z)
			if len(batch) >= loadBatchSize {
				if err := flush(); err != nil {
					closeFn()
					return stats, err
				}
			}
		}
		scanErr := scanner.Err()
		closeFn()
		if scanErr != nil {
			return stats, fmt.Errorf("read zip9 shard %s: %w", shard, scanErr)
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}

	r.log.Info().Int("inserted", stats.Inserted).Int("skipped", stats.Skipped).Msg("zip9 localities loaded")
	return stats, nil
}

func (r *zip9Repo) Truncate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM zip9_data`); err != nil {
		return fmt.Errorf("truncate zip9_data: %w", err)
	}
	return nil
}

func (r *zip9Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM zip9_data`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count zip9_data: %w", err)
	}
	return n, nil
}

// parseShardLine decodes one tab-separated record of the form
// zip5, plus4, startYear, endYear, carrierIdx, localityIdx. Carrier and
// locality are indexes into the dictionary files.
func parseShardLine(raw string, carriers, localities []string) (*Zip9Locality, bool) {
	fields := strings.Split(raw, "\t")
	if len(fields) != 6 {
		return nil, false
	}
	zip5, plus4, sy, ey := fields[0], fields[1], fields[2], fields[3]

	carrierIdx, err := strconv.Atoi(fields[4])
	if err != nil || carrierIdx < 0 || carrierIdx >= len(carriers) {
		return nil, false
	}
	localityIdx, err := strconv.Atoi(fields[5])
	if err != nil || localityIdx < 0 || localityIdx >= len(localities) {
		return nil, false
	}

	plusFourFlag := "1"
	if plus4 == "" {
		plusFourFlag = "0"
	}
	endDate := ey + "-12-31"
	if ey == openEndYear {
		endDate = "9999-12-31"
	}

	return &Zip9Locality{
		ZipCode:         zip5,
		Carrier:         carriers[carrierIdx],
		PricingLocality: localities[localityIdx],
		PlusFourFlag:    plusFourFlag,
		PlusFour:        plus4,
		EffectiveDate:   sy + "-01-01",
		EndDate:         endDate,
	}, true
}

// readLines reads a dictionary file, falling back to a .gz sibling when
// the plain file is absent. A missing dictionary is not an error; the
// caller treats an empty dictionary as nothing to load.
func readLines(path string) ([]string, error) {
	src, closeFn, err := openMaybeGzip(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var lines []string
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return lines, nil
}

func openMaybeGzip(path string) (io.Reader, func() error, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path += ".gz"
	}
	return openShard(path)
}

func openShard(path string) (io.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, f.Close, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("open gzip %s: %w", filepath.Base(path), err)
	}
	closeFn := func() error {
		gz.Close()
		return f.Close()
	}
	return gz, closeFn, nil
}
