// Package refdata owns the provider and locality reference tables the
// pricers draw on: the inpatient provider-specific file (IPSF), the
// outpatient provider-specific file (OPSF), and the ZIP+4 carrier and
// locality table. Rows are keyed by provider CCN or NPI plus an
// effective-date window; dates in the provider files are YYYYMMDD
// integers, locality dates are ISO strings.
package refdata

import "encoding/json"

// Termination sentinel values. A blank or epoch termination means the
// row is open-ended and is treated as remaining in force until 2099.
const (
	terminationEpoch = 19000101
	TerminationOpen  = 20991231
)

// IpsfProvider is one inpatient provider-specific file row. Field order
// follows the published CSV export layout.
type IpsfProvider struct {
	ProviderCCN                                        string  `json:"provider_ccn"`
	EffectiveDate                                      int     `json:"effective_date"`
	FiscalYearBeginDate                                int     `json:"fiscal_year_begin_date"`
	ExportDate                                         int     `json:"export_date"`
	TerminationDate                                    int     `json:"termination_date"`
	WaiverIndicator                                    string  `json:"waiver_indicator"`
	IntermediaryNumber                                 string  `json:"intermediary_number"`
	ProviderType                                       string  `json:"provider_type"`
	CensusDivision                                     string  `json:"census_division"`
	MsaActualGeographicLocation                        string  `json:"msa_actual_geographic_location"`
	MsaWageIndexLocation                               string  `json:"msa_wage_index_location"`
	MsaStandardizedAmountLocation                      string  `json:"msa_standardized_amount_location"`
	SoleCommunityOrMedicareDependentHospitalBaseYear   string  `json:"sole_community_or_medicare_dependent_hospital_base_year"`
	ChangeCodeForLugarReclassification                 string  `json:"change_code_for_lugar_reclassification"`
	TemporaryReliefIndicator                           string  `json:"temporary_relief_indicator"`
	FederalPpsBlend                                    string  `json:"federal_pps_blend"`
	StateCode                                          string  `json:"state_code"`
	PpsFacilitySpecificRate                            float64 `json:"pps_facility_specific_rate"`
	CostOfLivingAdjustment                             float64 `json:"cost_of_living_adjustment"`
	InternsToBedsRatio                                 float64 `json:"interns_to_beds_ratio"`
	BedSize                                            int     `json:"bed_size"`
	OperatingCostToChargeRatio                         float64 `json:"operating_cost_to_charge_ratio"`
	CaseMixIndex                                       float64 `json:"case_mix_index"`
	SupplementalSecurityIncomeRatio                    float64 `json:"supplemental_security_income_ratio"`
	MedicaidRatio                                      float64 `json:"medicaid_ratio"`
	SpecialProviderUpdateFactor                        float64 `json:"special_provider_update_factor"`
	OperatingDsh                                       float64 `json:"operating_dsh"`
	FiscalYearEndDate                                  int     `json:"fiscal_year_end_date"`
	SpecialPaymentIndicator                            string  `json:"special_payment_indicator"`
	HospQualityIndicator                               string  `json:"hosp_quality_indicator"`
	CbsaActualGeographicLocation                       string  `json:"cbsa_actual_geographic_location"`
	CbsaWiLocation                                     string  `json:"cbsa_wi_location"`
	CbsaStandardizedAmountLocation                     string  `json:"cbsa_standardized_amount_location"`
	SpecialWageIndex                                   float64 `json:"special_wage_index"`
	PassThroughAmountForCapital                        float64 `json:"pass_through_amount_for_capital"`
	PassThroughAmountForDirectMedicalEducation         float64 `json:"pass_through_amount_for_direct_medical_education"`
	PassThroughAmountForOrganAcquisition               float64 `json:"pass_through_amount_for_organ_acquisition"`
	PassThroughTotalAmount                             float64 `json:"pass_through_total_amount"`
	CapitalPpsPaymentCode                              string  `json:"capital_pps_payment_code"`
	HospitalSpecificCapitalRate                        float64 `json:"hospital_specific_capital_rate"`
	OldCapitalHoldHarmlessRate                         float64 `json:"old_capital_hold_harmless_rate"`
	NewCapitalHoldHarmlessRate                         float64 `json:"new_capital_hold_harmless_rate"`
	CapitalCostToChargeRatio                           float64 `json:"capital_cost_to_charge_ratio"`
	NewHospital                                        string  `json:"new_hospital"`
	CapitalIndirectMedicalEducationRatio               float64 `json:"capital_indirect_medical_education_ratio"`
	CapitalExceptionPaymentRate                        float64 `json:"capital_exception_payment_rate"`
	VpbParticipantIndicator                            string  `json:"vpb_participant_indicator"`
	VbpAdjustment                                      float64 `json:"vbp_adjustment"`
	HrrParticipantIndicator                            int     `json:"hrr_participant_indicator"`
	HrrAdjustment                                      float64 `json:"hrr_adjustment"`
	BundleModelDiscount                                float64 `json:"bundle_model_discount"`
	HacReductionParticipantIndicator                   string  `json:"hac_reduction_participant_indicator"`
	UncompensatedCareAmount                            float64 `json:"uncompensated_care_amount"`
	EhrReductionIndicator                              string  `json:"ehr_reduction_indicator"`
	LowVolumeAdjustmentFactor                          float64 `json:"low_volume_adjustment_factor"`
	CountyCode                                         string  `json:"county_code"`
	MedicarePerformanceAdjustment                      float64 `json:"medicare_performance_adjustment"`
	LtchDppIndicator                                   string  `json:"ltch_dpp_indicator"`
	SupplementalWageIndex                              float64 `json:"supplemental_wage_index"`
	SupplementalWageIndexIndicator                     string  `json:"supplemental_wage_index_indicator"`
	ChangeCodeWageIndexReclassification                string  `json:"change_code_wage_index_reclassification"`
	NationalProviderIdentifier                         string  `json:"national_provider_identifier"`
	PassThroughAmountForAllogenicStemCellAcquisition   float64 `json:"pass_through_amount_for_allogenic_stem_cell_acquisition"`
	PpsBlendYearIndicator                              string  `json:"pps_blend_year_indicator"`
	LastUpdated                                        string  `json:"last_updated"`
	PassThroughAmountForDirectGraduateMedicalEducation float64 `json:"pass_through_amount_for_direct_graduate_medical_education"`
	PassThroughAmountForKidneyAcquisition              float64 `json:"pass_through_amount_for_kidney_acquisition"`
	PassThroughAmountForSupplyChain                    float64 `json:"pass_through_amount_for_supply_chain"`
}

// Map returns the row keyed by column name, the shape engine payload
// builders and per-claim overrides work against.
func (p *IpsfProvider) Map() map[string]interface{} {
	return structToMap(p)
}

// OpsfProvider is one outpatient provider-specific file row.
type OpsfProvider struct {
	ProviderCCN                         string  `json:"provider_ccn"`
	EffectiveDate                       int     `json:"effective_date"`
	NationalProviderIdentifier          string  `json:"national_provider_identifier"`
	FiscalYearBeginDate                 int     `json:"fiscal_year_begin_date"`
	ExportDate                          int     `json:"export_date"`
	TerminationDate                     int     `json:"termination_date"`
	WaiverIndicator                     string  `json:"waiver_indicator"`
	IntermediaryNumber                  string  `json:"intermediary_number"`
	ProviderType                        string  `json:"provider_type"`
	SpecialLocalityIndicator            string  `json:"special_locality_indicator"`
	ChangeCodeWageIndexReclassification string  `json:"change_code_wage_index_reclassification"`
	MsaActualGeographicLocation         string  `json:"msa_actual_geographic_location"`
	MsaWageIndexLocation                string  `json:"msa_wage_index_location"`
	CostOfLivingAdjustment              float64 `json:"cost_of_living_adjustment"`
	StateCode                           string  `json:"state_code"`
	TopsIndicator                       string  `json:"tops_indicator"`
	HospitalQualityIndicator            string  `json:"hospital_quality_indicator"`
	OperatingCostToChargeRatio          float64 `json:"operating_cost_to_charge_ratio"`
	CbsaActualGeographicLocation        string  `json:"cbsa_actual_geographic_location"`
	CbsaWageIndexLocation               string  `json:"cbsa_wage_index_location"`
	SpecialWageIndex                    float64 `json:"special_wage_index"`
	SpecialPaymentIndicator             string  `json:"special_payment_indicator"`
	EsrdChildrenQualityIndicator        string  `json:"esrd_children_quality_indicator"`
	DeviceCostToChargeRatio             float64 `json:"device_cost_to_charge_ratio"`
	CountyCode                          string  `json:"county_code"`
	PaymentCbsa                         string  `json:"payment_cbsa"`
	PaymentModelAdjustment              float64 `json:"payment_model_adjustment"`
	MedicarePerformanceAdjustment       float64 `json:"medicare_performance_adjustment"`
	SupplementalWageIndexIndicator      string  `json:"supplemental_wage_index_indicator"`
	SupplementalWageIndex               float64 `json:"supplemental_wage_index"`
	LastUpdated                         string  `json:"last_updated"`
	CarrierCode                         string  `json:"carrier_code"`
	LocalityCode                        string  `json:"locality_code"`
}

// Map returns the row keyed by column name.
func (p *OpsfProvider) Map() map[string]interface{} {
	return structToMap(p)
}

// structToMap round-trips a row through its JSON tags so map keys always
// match the column names. Numbers come back as float64, which is what
// the engine payload encoding produces anyway.
func structToMap(v interface{}) map[string]interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{})
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}

// Zip9Locality is one ZIP+4 carrier/locality row. Dates are ISO strings;
// an open-ended row carries end_date 9999-12-31.
type Zip9Locality struct {
	State                 string `json:"state"`
	ZipCode               string `json:"zip_code"`
	Carrier               string `json:"carrier"`
	PricingLocality       string `json:"pricing_locality"`
	RuralIndicator        string `json:"rural_indicator"`
	PlusFourFlag          string `json:"plus_four_flag"`
	PlusFour              string `json:"plus_four"`
	PartBPaymentIndicator string `json:"part_b_payment_indicator"`
	EffectiveDate         string `json:"effective_date"`
	EndDate               string `json:"end_date"`
}

// CarrierLocality is the resolved pair a claim needs for carrier pricing.
type CarrierLocality struct {
	Carrier  string `json:"carrier"`
	Locality string `json:"locality"`
}

// ProviderKey identifies a provider row by CCN first, NPI as fallback.
type ProviderKey struct {
	CCN string
	NPI string
}

func (k ProviderKey) String() string {
	if k.CCN != "" {
		return k.CCN
	}
	return k.NPI
}
