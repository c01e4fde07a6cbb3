package icd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// insertBatchSize is the number of conversion rows committed per
// transaction during a table load.
const insertBatchSize = 1000

type conversionRow struct {
	previous  string
	current   string
	effective string
}

// LoadCM parses the published CM conversion table text and loads it,
// returning the number of previous/current pairs inserted. Codes are
// stored without periods.
func (c *Converter) LoadCM(ctx context.Context, src io.Reader) (int, error) {
	entries, err := ParseCMTable(src)
	if err != nil {
		return 0, err
	}

	var rows []conversionRow
	for _, entry := range entries {
		current := stripPeriods(entry.CurrentCode)
		for _, prev := range entry.PreviousCodes {
			rows = append(rows, conversionRow{
				previous:  stripPeriods(prev),
				current:   current,
				effective: entry.EffectiveDate,
			})
		}
	}
	if err := c.insertConversions(ctx, CM, rows); err != nil {
		return 0, err
	}
	c.log.Info().Str("table", CM.table()).Int("inserted", len(rows)).Msg("conversion table loaded")
	return len(rows), nil
}

// LoadPCS loads the tab-separated PCS conversion table. Rows mapping to or
// from NoPCS and self-mappings carry no usable conversion and are skipped,
// as are rows without a four-digit effective year.
func (c *Converter) LoadPCS(ctx context.Context, src io.Reader) (int, error) {
	scanner := bufio.NewScanner(src)

	var rows []conversionRow
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		parts := strings.Split(strings.TrimSpace(scanner.Text()), "\t")
		if len(parts) < 8 {
			continue
		}
		current := parts[0]
		effectiveYear := parts[2]
		previous := splitCodes(parts[3])
		if len(previous) == 0 {
			continue
		}
		if strings.EqualFold(current, "nopcs") || strings.EqualFold(previous[0], "nopcs") || current == previous[0] {
			continue
		}
		if len(effectiveYear) != 4 || !allDigits(effectiveYear) {
			continue
		}
		year, _ := strconv.Atoi(effectiveYear)
		effective := pcsEffectiveDate(year, parts[7])
		for _, prev := range previous {
			rows = append(rows, conversionRow{
				previous:  stripPeriods(prev),
				current:   stripPeriods(current),
				effective: effective,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read pcs conversion table: %w", err)
	}

	if err := c.insertConversions(ctx, PCS, rows); err != nil {
		return 0, err
	}
	c.log.Info().Str("table", PCS.table()).Int("inserted", len(rows)).Msg("conversion table loaded")
	return len(rows), nil
}

// pcsEffectiveDate resolves the effective year plus the optional MM.DD
// column to an ISO date. A missing or unparseable month/day means
// January 1.
func pcsEffectiveDate(year int, monthDay string) string {
	month, day := 1, 1
	if i := strings.Index(monthDay, "."); i >= 0 {
		m, merr := strconv.Atoi(strings.TrimSpace(monthDay[:i]))
		d, derr := strconv.Atoi(strings.TrimSpace(monthDay[i+1:]))
		if merr == nil && derr == nil {
			month, day = m, d
		}
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func splitCodes(raw string) []string {
	var codes []string
	for _, piece := range strings.Split(raw, ",") {
		if code := strings.TrimSpace(piece); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

func (c *Converter) insertConversions(ctx context.Context, kind Kind, rows []conversionRow) error {
	insert := c.db.Rebind(`INSERT INTO ` + kind.table() + ` (previous_code, current_code, effective_date) VALUES (?, ?, ?)`)

	for start := 0; start < len(rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := c.insertBatch(ctx, kind, insert, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Converter) insertBatch(ctx context.Context, kind Kind, insert string, batch []conversionRow) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s batch: %w", kind.table(), err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", kind.table(), err)
	}
	defer stmt.Close()

	for _, row := range batch {
		if _, err := stmt.ExecContext(ctx, row.previous, row.current, row.effective); err != nil {
			return fmt.Errorf("insert %s row: %w", kind.table(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s batch: %w", kind.table(), err)
	}
	return nil
}

// Truncate clears both conversion tables.
func (c *Converter) Truncate(ctx context.Context) error {
	for _, kind := range []Kind{CM, PCS} {
		if _, err := c.db.ExecContext(ctx, `DELETE FROM `+kind.table()); err != nil {
			return fmt.Errorf("truncate %s: %w", kind.table(), err)
		}
	}
	return nil
}

// Count reports the number of loaded rows for one code set.
func (c *Converter) Count(ctx context.Context, kind Kind) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+kind.table()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", kind.table(), err)
	}
	return n, nil
}
