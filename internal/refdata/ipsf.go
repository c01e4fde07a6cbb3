package refdata

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/platform/db"
	"github.com/librepps/gopps/pkg/errdefs"
)

// IpsfRepo serves inpatient provider-specific file rows.
type IpsfRepo interface {
	// FindProvider returns the row with the highest effective_date at or
	// before asOf (YYYYMMDD) that has not terminated by asOf. CCN wins
	// over NPI when the key carries both.
	FindProvider(ctx context.Context, key ProviderKey, asOf int) (*IpsfProvider, error)
	// LoadCSV bulk-loads an export file. Rows with fewer fields than the
	// published layout are skipped and logged, never fatal.
	LoadCSV(ctx context.Context, src io.Reader) (LoadStats, error)
	Truncate(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// LoadStats reports the outcome of a bulk load.
type LoadStats struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// ipsfColumns lists the table columns in published CSV position order.
// Insert args and scan targets both follow this order.
var ipsfColumns = []string{
	"provider_ccn", "effective_date", "fiscal_year_begin_date", "export_date",
	"termination_date", "waiver_indicator", "intermediary_number", "provider_type",
	"census_division", "msa_actual_geographic_location", "msa_wage_index_location",
	"msa_standardized_amount_location",
	"sole_community_or_medicare_dependent_hospital_base_year",
	"change_code_for_lugar_reclassification", "temporary_relief_indicator",
	"federal_pps_blend", "state_code", "pps_facility_specific_rate",
	"cost_of_living_adjustment", "interns_to_beds_ratio", "bed_size",
	"operating_cost_to_charge_ratio", "case_mix_index",
	"supplemental_security_income_ratio", "medicaid_ratio",
	"special_provider_update_factor", "operating_dsh", "fiscal_year_end_date",
	"special_payment_indicator", "hosp_quality_indicator",
	"cbsa_actual_geographic_location", "cbsa_wi_location",
	"cbsa_standardized_amount_location", "special_wage_index",
	"pass_through_amount_for_capital",
	"pass_through_amount_for_direct_medical_education",
	"pass_through_amount_for_organ_acquisition", "pass_through_total_amount",
	"capital_pps_payment_code", "hospital_specific_capital_rate",
	"old_capital_hold_harmless_rate", "new_capital_hold_harmless_rate",
	"capital_cost_to_charge_ratio", "new_hospital",
	"capital_indirect_medical_education_ratio", "capital_exception_payment_rate",
	"vpb_participant_indicator", "vbp_adjustment", "hrr_participant_indicator",
	"hrr_adjustment", "bundle_model_discount",
	"hac_reduction_participant_indicator", "uncompensated_care_amount",
	"ehr_reduction_indicator", "low_volume_adjustment_factor", "county_code",
	"medicare_performance_adjustment", "ltch_dpp_indicator",
	"supplemental_wage_index", "supplemental_wage_index_indicator",
	"change_code_wage_index_reclassification", "national_provider_identifier",
	"pass_through_amount_for_allogenic_stem_cell_acquisition",
	"pps_blend_year_indicator", "last_updated",
	"pass_through_amount_for_direct_graduate_medical_education",
	"pass_through_amount_for_kidney_acquisition",
	"pass_through_amount_for_supply_chain",
}

var ipsfCols = strings.Join(ipsfColumns, ", ")

var ipsfIntCols = map[string]bool{
	"effective_date":            true,
	"fiscal_year_begin_date":    true,
	"export_date":               true,
	"termination_date":          true,
	"bed_size":                  true,
	"fiscal_year_end_date":      true,
	"hrr_participant_indicator": true,
}

var ipsfRealCols = map[string]bool{
	"pps_facility_specific_rate":                                true,
	"cost_of_living_adjustment":                                 true,
	"interns_to_beds_ratio":                                     true,
	"operating_cost_to_charge_ratio":                            true,
	"case_mix_index":                                            true,
	"supplemental_security_income_ratio":                        true,
	"medicaid_ratio":                                            true,
	"special_provider_update_factor":                            true,
	"operating_dsh":                                             true,
	"special_wage_index":                                        true,
	"pass_through_amount_for_capital":                           true,
	"pass_through_amount_for_direct_medical_education":          true,
	"pass_through_amount_for_organ_acquisition":                 true,
	"pass_through_total_amount":                                 true,
	"hospital_specific_capital_rate":                            true,
	"old_capital_hold_harmless_rate":                            true,
	"new_capital_hold_harmless_rate":                            true,
	"capital_cost_to_charge_ratio":                              true,
	"capital_indirect_medical_education_ratio":                  true,
	"capital_exception_payment_rate":                            true,
	"vbp_adjustment":                                            true,
	"hrr_adjustment":                                            true,
	"bundle_model_discount":                                     true,
	"uncompensated_care_amount":                                 true,
	"low_volume_adjustment_factor":                              true,
	"medicare_performance_adjustment":                           true,
	"supplemental_wage_index":                                   true,
	"pass_through_amount_for_allogenic_stem_cell_acquisition":   true,
	"pass_through_amount_for_direct_graduate_medical_education": true,
	"pass_through_amount_for_kidney_acquisition":                true,
	"pass_through_amount_for_supply_chain":                      true,
}

type ipsfRepo struct {
	db  *db.DB
	log zerolog.Logger
}

// NewIpsfRepo creates an IpsfRepo over the given store.
func NewIpsfRepo(d *db.DB, log zerolog.Logger) IpsfRepo {
	return &ipsfRepo{db: d, log: log}
}

func (r *ipsfRepo) FindProvider(ctx context.Context, key ProviderKey, asOf int) (*IpsfProvider, error) {
	var filter string
	var arg string
	switch {
	case key.CCN != "":
		filter, arg = "provider_ccn = ?", key.CCN
	case key.NPI != "":
		filter, arg = "national_provider_identifier = ?", key.NPI
	default:
		return nil, errdefs.Validation("ipsf lookup requires a provider ccn or npi")
	}

	query := r.db.Rebind(`SELECT ` + ipsfCols + ` FROM ipsf WHERE ` + filter + `
		AND effective_date <= ?
		AND (termination_date >= ? OR termination_date <= ?)
		ORDER BY effective_date DESC LIMIT 1`)

	p, err := scanIpsf(r.db.QueryRowContext(ctx, query, arg, asOf, asOf, terminationEpoch))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errdefs.NotFound("ipsf provider", key.String(), strconv.Itoa(asOf))
	}
	if err != nil {
		return nil, fmt.Errorf("query ipsf provider: %w", err)
	}
	if p.TerminationDate <= terminationEpoch {
		p.TerminationDate = TerminationOpen
	}
	return p, nil
}

func (r *ipsfRepo) LoadCSV(ctx context.Context, src io.Reader) (LoadStats, error) {
	return loadProviderCSV(ctx, r.db, r.log, "ipsf", ipsfColumns, ipsfIntCols, ipsfRealCols, src)
}

func (r *ipsfRepo) Truncate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM ipsf`); err != nil {
		return fmt.Errorf("truncate ipsf: %w", err)
	}
	return nil
}

func (r *ipsfRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ipsf`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ipsf: %w", err)
	}
	return n, nil
}

func scanIpsf(row *sql.Row) (*IpsfProvider, error) {
	var p IpsfProvider
	err := row.Scan(
		&p.ProviderCCN, &p.EffectiveDate, &p.FiscalYearBeginDate, &p.ExportDate,
		&p.TerminationDate, &p.WaiverIndicator, &p.IntermediaryNumber, &p.ProviderType,
		&p.CensusDivision, &p.MsaActualGeographicLocation, &p.MsaWageIndexLocation,
		&p.MsaStandardizedAmountLocation,
		&p.SoleCommunityOrMedicareDependentHospitalBaseYear,
		&p.ChangeCodeForLugarReclassification, &p.TemporaryReliefIndicator,
		&p.FederalPpsBlend, &p.StateCode, &p.PpsFacilitySpecificRate,
		&p.CostOfLivingAdjustment, &p.InternsToBedsRatio, &p.BedSize,
		&p.OperatingCostToChargeRatio, &p.CaseMixIndex,
		&p.SupplementalSecurityIncomeRatio, &p.MedicaidRatio,
		&p.SpecialProviderUpdateFactor, &p.OperatingDsh, &p.FiscalYearEndDate,
		&p.SpecialPaymentIndicator, &p.HospQualityIndicator,
		&p.CbsaActualGeographicLocation, &p.CbsaWiLocation,
		&p.CbsaStandardizedAmountLocation, &p.SpecialWageIndex,
		&p.PassThroughAmountForCapital,
		&p.PassThroughAmountForDirectMedicalEducation,
		&p.PassThroughAmountForOrganAcquisition, &p.PassThroughTotalAmount,
		&p.CapitalPpsPaymentCode, &p.HospitalSpecificCapitalRate,
		&p.OldCapitalHoldHarmlessRate, &p.NewCapitalHoldHarmlessRate,
		&p.CapitalCostToChargeRatio, &p.NewHospital,
		&p.CapitalIndirectMedicalEducationRatio, &p.CapitalExceptionPaymentRate,
		&p.VpbParticipantIndicator, &p.VbpAdjustment, &p.HrrParticipantIndicator,
		&p.HrrAdjustment, &p.BundleModelDiscount,
		&p.HacReductionParticipantIndicator, &p.UncompensatedCareAmount,
		&p.EhrReductionIndicator, &p.LowVolumeAdjustmentFactor, &p.CountyCode,
		&p.MedicarePerformanceAdjustment, &p.LtchDppIndicator,
		&p.SupplementalWageIndex, &p.SupplementalWageIndexIndicator,
		&p.ChangeCodeWageIndexReclassification, &p.NationalProviderIdentifier,
		&p.PassThroughAmountForAllogenicStemCellAcquisition,
		&p.PpsBlendYearIndicator, &p.LastUpdated,
		&p.PassThroughAmountForDirectGraduateMedicalEducation,
		&p.PassThroughAmountForKidneyAcquisition,
		&p.PassThroughAmountForSupplyChain,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// loadBatchSize is the number of rows committed per transaction during a
// provider file load.
const loadBatchSize = 1000

// loadProviderCSV streams a provider export into the named table. The
// first record is the header. Short rows are skipped and logged; blank or
// unparseable numeric fields load as zero.
func loadProviderCSV(ctx context.Context, d *db.DB, log zerolog.Logger, table string, columns []string, intCols, realCols map[string]bool, src io.Reader) (LoadStats, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return LoadStats{}, nil
		}
		return LoadStats{}, fmt.Errorf("read %s header: %w", table, err)
	}

	insert := d.Rebind(`INSERT INTO ` + table + ` (` + strings.Join(columns, ", ") + `) VALUES (` + placeholders(len(columns)) + `)`)

	var stats LoadStats
	batch := make([][]interface{}, 0, loadBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		tx, err := d.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin %s batch: %w", table, err)
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("prepare %s insert: %w", table, err)
		}
		defer stmt.Close()

		for _, args := range batch {
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert %s row: %w", table, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s batch: %w", table, err)
		}
		stats.Inserted += len(batch)
		batch = batch[:0]
		return nil
	}

	line := 1
	for {
		line++
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			stats.Skipped++
			log.Warn().Err(err).Str("table", table).Int("line", line).Msg("skipping unparseable row")
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("read %s row: %w", table, err)
		}
		if len(row) < len(columns) {
			stats.Skipped++
			log.Warn().Str("table", table).Int("line", line).Int("fields", len(row)).Msg("skipping short row")
			continue
		}

		batch = append(batch, rowArgs(row, columns, intCols, realCols))
		if len(batch) >= loadBatchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}

	log.Info().Str("table", table).Int("inserted", stats.Inserted).Int("skipped", stats.Skipped).Msg("provider file loaded")
	return stats, nil
}

// rowArgs converts one CSV record into insert arguments in column order.
func rowArgs(row []string, columns []string, intCols, realCols map[string]bool) []interface{} {
	args := make([]interface{}, len(columns))
	for i, name := range columns {
		val := row[i]
		switch {
		case intCols[name]:
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil {
				n = 0
			}
			args[i] = n
		case realCols[name]:
			f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				f = 0
			}
			args[i] = f
		default:
			args[i] = val
		}
	}
	return args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
