// Package icd maintains the ICD-10 conversion tables published with each
// fiscal code-set update and generates per-claim code mappings between
// grouper versions. Codes are stored period-stripped; claim mappings are
// keyed by the code exactly as billed.
package icd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/fiscal"
	"github.com/librepps/gopps/internal/platform/db"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/errdefs"
	"github.com/librepps/gopps/pkg/output"
)

// Kind distinguishes diagnosis from procedure conversion tables.
type Kind int

const (
	CM Kind = iota
	PCS
)

func (k Kind) table() string {
	if k == PCS {
		return "icd10_pcs_conversions"
	}
	return "icd10_cm_conversions"
}

// TargetPolicy picks the engine-input code from a conversion choice list.
type TargetPolicy interface {
	Choose(choices []string) string
}

// FirstListed selects the first code the conversion table offers.
type FirstListed struct{}

func (FirstListed) Choose(choices []string) string {
	if len(choices) == 0 {
		return ""
	}
	return choices[0]
}

// Converter answers version-conversion queries over the loaded tables.
type Converter struct {
	db     *db.DB
	log    zerolog.Logger
	policy TargetPolicy

	client *http.Client
	cmURL  string
	pcsURL string
	now    func() time.Time
}

// NewConverter creates a Converter with the first-listed target policy.
func NewConverter(d *db.DB, log zerolog.Logger) *Converter {
	return &Converter{
		db:     d,
		log:    log,
		policy: FirstListed{},
		cmURL:  CMExportURL,
		pcsURL: PCSExportURL,
		now:    time.Now,
	}
}

// SetTargetPolicy overrides how a target code is chosen from a choice list.
func (c *Converter) SetTargetPolicy(p TargetPolicy) { c.policy = p }

// SetHTTPClient overrides the client used to fetch published tables.
func (c *Converter) SetHTTPClient(client *http.Client) { c.client = client }

// SetSourceURLs overrides the published URL patterns. Each pattern takes
// the fiscal year as its single %d verb.
func (c *Converter) SetSourceURLs(cmURL, pcsURL string) {
	c.cmURL = cmURL
	c.pcsURL = pcsURL
}

// Migrations returns the conversion-table schema. Versions continue the
// reference-data migration stream.
func Migrations() []db.Migration {
	mk := func(table string) string {
		return `CREATE TABLE IF NOT EXISTS ` + table + ` (
    previous_code TEXT NOT NULL,
    current_code TEXT NOT NULL,
    effective_date TEXT NOT NULL
)`
	}
	return []db.Migration{
		{Version: 9, Name: "create_icd10_cm_conversions", SQL: mk("icd10_cm_conversions")},
		{Version: 10, Name: "index_icd10_cm_current", SQL: `CREATE INDEX IF NOT EXISTS idx_icd10_cm_current ON icd10_cm_conversions (current_code, effective_date)`},
		{Version: 11, Name: "index_icd10_cm_previous", SQL: `CREATE INDEX IF NOT EXISTS idx_icd10_cm_previous ON icd10_cm_conversions (previous_code, effective_date)`},
		{Version: 12, Name: "create_icd10_pcs_conversions", SQL: mk("icd10_pcs_conversions")},
		{Version: 13, Name: "index_icd10_pcs_current", SQL: `CREATE INDEX IF NOT EXISTS idx_icd10_pcs_current ON icd10_pcs_conversions (current_code, effective_date)`},
		{Version: 14, Name: "index_icd10_pcs_previous", SQL: `CREATE INDEX IF NOT EXISTS idx_icd10_pcs_previous ON icd10_pcs_conversions (previous_code, effective_date)`},
	}
}

// Migrate applies the conversion-table schema.
func (c *Converter) Migrate(ctx context.Context) (int, error) {
	return db.NewMigrator(c.db, Migrations()).Up(ctx)
}

// stripPeriods normalizes a code to its stored form.
func stripPeriods(code string) string { return strings.ReplaceAll(code, ".", "") }

// ConvertBackward maps a current code to its predecessor under the newest
// table entry that takes effect after asOf. Nil choices mean no entry.
func (c *Converter) ConvertBackward(ctx context.Context, code string, asOf time.Time, kind Kind) ([]string, error) {
	query := c.db.Rebind(`SELECT previous_code FROM ` + kind.table() + `
		WHERE current_code = ? AND effective_date > ?
		ORDER BY effective_date DESC, previous_code LIMIT 1`)

	var prev string
	err := c.db.QueryRowContext(ctx, query, stripPeriods(code), isoDate(asOf)).Scan(&prev)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query backward conversion: %w", err)
	}
	return []string{prev}, nil
}

// ConvertForward maps a previous code to every successor already effective
// at asOf, oldest first. Nil choices mean no entry.
func (c *Converter) ConvertForward(ctx context.Context, code string, asOf time.Time, kind Kind) ([]string, error) {
	query := c.db.Rebind(`SELECT current_code FROM ` + kind.table() + `
		WHERE previous_code = ? AND effective_date <= ?
		ORDER BY effective_date, current_code`)

	rows, err := c.db.QueryContext(ctx, query, stripPeriods(code), isoDate(asOf))
	if err != nil {
		return nil, fmt.Errorf("query forward conversion: %w", err)
	}
	defer rows.Close()

	var choices []string
	for rows.Next() {
		var cur string
		if err := rows.Scan(&cur); err != nil {
			return nil, fmt.Errorf("scan forward conversion: %w", err)
		}
		choices = append(choices, cur)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate forward conversions: %w", err)
	}
	return choices, nil
}

// GenerateClaimMappings builds the code remapping for a claim. MANUAL mode
// takes both versions from the claim's icd_convert block; AUTO derives the
// billed version from the thru date and takes the target from the caller
// (normally the grouper version selected for the claim). A NONE option or
// equal versions yield no mappings.
func (c *Converter) GenerateClaimMappings(ctx context.Context, cl *claim.Claim, targetVersion string) (*output.IcdConversion, error) {
	if cl.ThruDate == nil {
		return nil, errdefs.Validation("icd conversion requires a claim thru_date")
	}
	if cl.PrincipalDx == nil {
		return nil, errdefs.Validation("icd conversion requires a principal diagnosis")
	}

	var billed, target string
	option := claim.ConvertAuto
	if cl.ICDConvert != nil && cl.ICDConvert.Option != "" {
		option = cl.ICDConvert.Option
	}
	switch option {
	case claim.ConvertNone:
		return nil, nil
	case claim.ConvertManual:
		if cl.ICDConvert.TargetVersion == "" || cl.ICDConvert.BilledVersion == "" {
			return nil, errdefs.Validation("icd convert target_version and billed_version are required for the MANUAL option")
		}
		target, billed = cl.ICDConvert.TargetVersion, cl.ICDConvert.BilledVersion
	case claim.ConvertAuto:
		if targetVersion == "" {
			return nil, errdefs.Validation("a target version is required for the AUTO option")
		}
		target = targetVersion
		billed = fiscal.VersionForDate(cl.ThruDate.Time)
	default:
		return nil, errdefs.Validation("unknown icd convert option %q", option)
	}

	targetYear, err := versionYear(target)
	if err != nil {
		return nil, err
	}
	billedYear, err := versionYear(billed)
	if err != nil {
		return nil, err
	}

	out := &output.IcdConversion{
		BilledVersion: billed,
		TargetVersion: target,
		Mappings:      make(map[string]output.IcdMapping),
	}
	if targetYear == billedYear {
		return out, nil
	}

	targetEff, err := fiscal.EffectiveDate(target)
	if err != nil {
		return nil, errdefs.Validation("invalid icd version %q", target)
	}

	convert := c.ConvertForward
	if targetYear < billedYear {
		convert = c.ConvertBackward
	}

	add := func(code string, kind Kind) error {
		if code == "" {
			return nil
		}
		if _, seen := out.Mappings[code]; seen {
			return nil
		}
		choices, err := convert(ctx, code, targetEff, kind)
		if err != nil {
			return err
		}
		if len(choices) == 0 {
			return nil
		}
		out.Mappings[code] = output.IcdMapping{
			Choices: choices,
			Target:  c.policy.Choose(choices),
		}
		return nil
	}

	if err := add(cl.PrincipalDx.Code, CM); err != nil {
		return nil, err
	}
	if cl.AdmitDx != nil {
		if err := add(cl.AdmitDx.Code, CM); err != nil {
			return nil, err
		}
	}
	for _, dx := range cl.SecondaryDxs {
		if err := add(dx.Code, CM); err != nil {
			return nil, err
		}
	}
	for _, px := range cl.InpatientPxs {
		if err := add(px.Code, PCS); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// versionYear extracts the fiscal year component of a grouper version,
// 42 for "421", and rejects anything outside the two-digit year space.
func versionYear(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, errdefs.Validation("invalid icd version %q", v)
	}
	year := n / 10
	if year >= 100 {
		return 0, errdefs.Validation("invalid icd version %q", v)
	}
	return year, nil
}

func isoDate(t time.Time) string { return t.Format("2006-01-02") }
