package refdata

import (
	"context"
	"os"

	"github.com/librepps/gopps/internal/icd"
)

// BuildReport summarizes one full reference-data refresh.
type BuildReport struct {
	Ipsf LoadStats `json:"ipsf"`
	Opsf LoadStats `json:"opsf"`
	Zip9 LoadStats `json:"zip9"`
}

// Build refreshes every reference table in one pass: both provider exports
// are downloaded and reloaded, the diagnosis and procedure conversion tables
// fetched, and the carrier/locality shards reloaded. A missing shard
// directory is logged and skipped; everything else fails the run.
func Build(ctx context.Context, store *Store, conv *icd.Converter, downloadDir, zipRoot string) (*BuildReport, error) {
	report := &BuildReport{}

	stats, err := store.BuildIpsf(ctx, downloadDir, true)
	if err != nil {
		return report, err
	}
	report.Ipsf = stats

	stats, err = store.BuildOpsf(ctx, downloadDir, true)
	if err != nil {
		return report, err
	}
	report.Opsf = stats

	if err := conv.Fetch(ctx, downloadDir); err != nil {
		return report, err
	}

	if zipRoot == "" {
		store.log.Warn().Msg("no carrier locality directory configured, skipping zip9 load")
		return report, nil
	}
	if _, err := os.Stat(zipRoot); os.IsNotExist(err) {
		store.log.Warn().Str("dir", zipRoot).Msg("carrier locality directory does not exist, skipping zip9 load")
		return report, nil
	}

	stats, err = store.BuildZip9(ctx, zipRoot, true)
	if err != nil {
		return report, err
	}
	report.Zip9 = stats

	return report, nil
}
