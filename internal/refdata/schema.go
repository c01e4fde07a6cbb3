package refdata

import "github.com/librepps/gopps/internal/platform/db"

// Migrations returns the reference-data schema in apply order. Each
// migration is a single statement so it runs unchanged on both backends.
func Migrations() []db.Migration {
	return []db.Migration{
		{Version: 1, Name: "create_ipsf", SQL: createIpsf},
		{Version: 2, Name: "index_ipsf_ccn_effective", SQL: `CREATE INDEX IF NOT EXISTS idx_ipsf_ccn_effective ON ipsf (provider_ccn, effective_date)`},
		{Version: 3, Name: "index_ipsf_npi_effective", SQL: `CREATE INDEX IF NOT EXISTS idx_ipsf_npi_effective ON ipsf (national_provider_identifier, effective_date)`},
		{Version: 4, Name: "create_opsf", SQL: createOpsf},
		{Version: 5, Name: "index_opsf_ccn_effective", SQL: `CREATE INDEX IF NOT EXISTS idx_opsf_ccn_effective ON opsf (provider_ccn, effective_date)`},
		{Version: 6, Name: "index_opsf_npi_effective", SQL: `CREATE INDEX IF NOT EXISTS idx_opsf_npi_effective ON opsf (national_provider_identifier, effective_date)`},
		{Version: 7, Name: "create_zip9_data", SQL: createZip9},
		{Version: 8, Name: "index_zip9_key_open", SQL: `CREATE INDEX IF NOT EXISTS idx_zip9_key_open ON zip9_data (zip_code, plus_four_flag, plus_four, effective_date, end_date)`},
	}
}

// Column order in the provider tables follows the published CSV layout.
const createIpsf = `CREATE TABLE IF NOT EXISTS ipsf (
    provider_ccn TEXT,
    effective_date INTEGER,
    fiscal_year_begin_date INTEGER,
    export_date INTEGER,
    termination_date INTEGER,
    waiver_indicator TEXT,
    intermediary_number TEXT,
    provider_type TEXT,
    census_division TEXT,
    msa_actual_geographic_location TEXT,
    msa_wage_index_location TEXT,
    msa_standardized_amount_location TEXT,
    sole_community_or_medicare_dependent_hospital_base_year TEXT,
    change_code_for_lugar_reclassification TEXT,
    temporary_relief_indicator TEXT,
    federal_pps_blend TEXT,
    state_code TEXT,
    pps_facility_specific_rate REAL,
    cost_of_living_adjustment REAL,
    interns_to_beds_ratio REAL,
    bed_size INTEGER,
    operating_cost_to_charge_ratio REAL,
    case_mix_index REAL,
    supplemental_security_income_ratio REAL,
    medicaid_ratio REAL,
    special_provider_update_factor REAL,
    operating_dsh REAL,
    fiscal_year_end_date INTEGER,
    special_payment_indicator TEXT,
    hosp_quality_indicator TEXT,
    cbsa_actual_geographic_location TEXT,
    cbsa_wi_location TEXT,
    cbsa_standardized_amount_location TEXT,
    special_wage_index REAL,
    pass_through_amount_for_capital REAL,
    pass_through_amount_for_direct_medical_education REAL,
    pass_through_amount_for_organ_acquisition REAL,
    pass_through_total_amount REAL,
    capital_pps_payment_code TEXT,
    hospital_specific_capital_rate REAL,
    old_capital_hold_harmless_rate REAL,
    new_capital_hold_harmless_rate REAL,
    capital_cost_to_charge_ratio REAL,
    new_hospital TEXT,
    capital_indirect_medical_education_ratio REAL,
    capital_exception_payment_rate REAL,
    vpb_participant_indicator TEXT,
    vbp_adjustment REAL,
    hrr_participant_indicator INTEGER,
    hrr_adjustment REAL,
    bundle_model_discount REAL,
    hac_reduction_participant_indicator TEXT,
    uncompensated_care_amount REAL,
    ehr_reduction_indicator TEXT,
    low_volume_adjustment_factor REAL,
    county_code TEXT,
    medicare_performance_adjustment REAL,
    ltch_dpp_indicator TEXT,
    supplemental_wage_index REAL,
    supplemental_wage_index_indicator TEXT,
    change_code_wage_index_reclassification TEXT,
    national_provider_identifier TEXT,
    pass_through_amount_for_allogenic_stem_cell_acquisition REAL,
    pps_blend_year_indicator TEXT,
    last_updated TEXT,
    pass_through_amount_for_direct_graduate_medical_education REAL,
    pass_through_amount_for_kidney_acquisition REAL,
    pass_through_amount_for_supply_chain REAL
)`

const createOpsf = `CREATE TABLE IF NOT EXISTS opsf (
    provider_ccn TEXT,
    effective_date INTEGER,
    national_provider_identifier TEXT,
    fiscal_year_begin_date INTEGER,
    export_date INTEGER,
    termination_date INTEGER,
    waiver_indicator TEXT,
    intermediary_number TEXT,
    provider_type TEXT,
    special_locality_indicator TEXT,
    change_code_wage_index_reclassification TEXT,
    msa_actual_geographic_location TEXT,
    msa_wage_index_location TEXT,
    cost_of_living_adjustment REAL,
    state_code TEXT,
    tops_indicator TEXT,
    hospital_quality_indicator TEXT,
    operating_cost_to_charge_ratio REAL,
    cbsa_actual_geographic_location TEXT,
    cbsa_wage_index_location TEXT,
    special_wage_index REAL,
    special_payment_indicator TEXT,
    esrd_children_quality_indicator TEXT,
    device_cost_to_charge_ratio REAL,
    county_code TEXT,
    payment_cbsa TEXT,
    payment_model_adjustment REAL,
    medicare_performance_adjustment REAL,
    supplemental_wage_index_indicator TEXT,
    supplemental_wage_index REAL,
    last_updated TEXT,
    carrier_code TEXT,
    locality_code TEXT
)`

const createZip9 = `CREATE TABLE IF NOT EXISTS zip9_data (
    state TEXT NOT NULL DEFAULT '',
    zip_code TEXT NOT NULL,
    carrier TEXT NOT NULL,
    pricing_locality TEXT NOT NULL,
    rural_indicator TEXT,
    plus_four_flag TEXT NOT NULL,
    plus_four TEXT NOT NULL,
    part_b_payment_indicator TEXT,
    effective_date TEXT NOT NULL,
    end_date TEXT NOT NULL
)`
