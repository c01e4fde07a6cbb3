package refdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/platform/db"
	"github.com/librepps/gopps/pkg/errdefs"
)

// OpsfRepo serves outpatient provider-specific file rows.
type OpsfRepo interface {
	FindProvider(ctx context.Context, key ProviderKey, asOf int) (*OpsfProvider, error)
	LoadCSV(ctx context.Context, src io.Reader) (LoadStats, error)
	Truncate(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

var opsfColumns = []string{
	"provider_ccn", "effective_date", "national_provider_identifier",
	"fiscal_year_begin_date", "export_date", "termination_date",
	"waiver_indicator", "intermediary_number", "provider_type",
	"special_locality_indicator", "change_code_wage_index_reclassification",
	"msa_actual_geographic_location", "msa_wage_index_location",
	"cost_of_living_adjustment", "state_code", "tops_indicator",
	"hospital_quality_indicator", "operating_cost_to_charge_ratio",
	"cbsa_actual_geographic_location", "cbsa_wage_index_location",
	"special_wage_index", "special_payment_indicator",
	"esrd_children_quality_indicator", "device_cost_to_charge_ratio",
	"county_code", "payment_cbsa", "payment_model_adjustment",
	"medicare_performance_adjustment", "supplemental_wage_index_indicator",
	"supplemental_wage_index", "last_updated", "carrier_code", "locality_code",
}

var opsfCols = strings.Join(opsfColumns, ", ")

var opsfIntCols = map[string]bool{
	"effective_date":         true,
	"fiscal_year_begin_date": true,
	"export_date":            true,
	"termination_date":       true,
}

var opsfRealCols = map[string]bool{
	"cost_of_living_adjustment":       true,
	"operating_cost_to_charge_ratio":  true,
	"special_wage_index":              true,
	"device_cost_to_charge_ratio":     true,
	"payment_model_adjustment":        true,
	"medicare_performance_adjustment": true,
	"supplemental_wage_index":         true,
}

type opsfRepo struct {
	db  *db.DB
	log zerolog.Logger
}

// NewOpsfRepo creates an OpsfRepo over the given store.
func NewOpsfRepo(d *db.DB, log zerolog.Logger) OpsfRepo {
	return &opsfRepo{db: d, log: log}
}

func (r *opsfRepo) FindProvider(ctx context.Context, key ProviderKey, asOf int) (*OpsfProvider, error) {
	var filter string
	var arg string
	switch {
	case key.CCN != "":
		filter, arg = "provider_ccn = ?", key.CCN
	case key.NPI != "":
		filter, arg = "national_provider_identifier = ?", key.NPI
	default:
		return nil, errdefs.Validation("opsf lookup requires a provider ccn or npi")
	}

	query := r.db.Rebind(`SELECT ` + opsfCols + ` FROM opsf WHERE ` + filter + `
		AND effective_date <= ?
		AND (termination_date >= ? OR termination_date <= ?)
		ORDER BY effective_date DESC LIMIT 1`)

	p, err := scanOpsf(r.db.QueryRowContext(ctx, query, arg, asOf, asOf, terminationEpoch))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errdefs.NotFound("opsf provider", key.String(), strconv.Itoa(asOf))
	}
	if err != nil {
		return nil, fmt.Errorf("query opsf provider: %w", err)
	}
	if p.TerminationDate <= terminationEpoch {
		p.TerminationDate = TerminationOpen
	}
	return p, nil
}

func (r *opsfRepo) LoadCSV(ctx context.Context, src io.Reader) (LoadStats, error) {
	return loadProviderCSV(ctx, r.db, r.log, "opsf", opsfColumns, opsfIntCols, opsfRealCols, src)
}

func (r *opsfRepo) Truncate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM opsf`); err != nil {
		return fmt.Errorf("truncate opsf: %w", err)
	}
	return nil
}

func (r *opsfRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM opsf`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count opsf: %w", err)
	}
	return n, nil
}

func scanOpsf(row *sql.Row) (*OpsfProvider, error) {
	var p OpsfProvider
	err := row.Scan(
		&p.ProviderCCN, &p.EffectiveDate, &p.NationalProviderIdentifier,
		&p.FiscalYearBeginDate, &p.ExportDate, &p.TerminationDate,
		&p.WaiverIndicator, &p.IntermediaryNumber, &p.ProviderType,
		&p.SpecialLocalityIndicator, &p.ChangeCodeWageIndexReclassification,
		&p.MsaActualGeographicLocation, &p.MsaWageIndexLocation,
		&p.CostOfLivingAdjustment, &p.StateCode, &p.TopsIndicator,
		&p.HospitalQualityIndicator, &p.OperatingCostToChargeRatio,
		&p.CbsaActualGeographicLocation, &p.CbsaWageIndexLocation,
		&p.SpecialWageIndex, &p.SpecialPaymentIndicator,
		&p.EsrdChildrenQualityIndicator, &p.DeviceCostToChargeRatio,
		&p.CountyCode, &p.PaymentCbsa, &p.PaymentModelAdjustment,
		&p.MedicarePerformanceAdjustment, &p.SupplementalWageIndexIndicator,
		&p.SupplementalWageIndex, &p.LastUpdated, &p.CarrierCode,
		&p.LocalityCode,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
