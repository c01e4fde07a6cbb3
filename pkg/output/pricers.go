package output

// =========================== IPPS ===========================

// IppsCapitalVariables is the capital payment breakdown.
type IppsCapitalVariables struct {
	CapitalCostOutlier                             float64 `json:"capital_cost_outlier,omitempty"`
	CapitalDisproportionateShareHospitalAdjustment float64 `json:"capital_disproportionate_share_hospital_adjustment,omitempty"`
	CapitalDisproportionateShareHospitalAmount     float64 `json:"capital_disproportionate_share_hospital_amount,omitempty"`
	CapitalExceptionAmount                         float64 `json:"capital_exception_amount,omitempty"`
	CapitalFederalRate                             float64 `json:"capital_federal_rate,omitempty"`
	CapitalFederalSpecificPortion                  float64 `json:"capital_federal_specific_portion,omitempty"`
	CapitalFederalSpecificPortion2B                float64 `json:"capital_federal_specific_portion_2b,omitempty"`
	CapitalFederalSpecificPortionPercent           float64 `json:"capital_federal_specific_portion_percent,omitempty"`
	CapitalGeographicAdjustmentFactor              float64 `json:"capital_geographic_adjustment_factor,omitempty"`
	CapitalHospitalSpecificPortion                 float64 `json:"capital_hospital_specific_portion,omitempty"`
	CapitalHospitalSpecificPortionPart             float64 `json:"capital_hospital_specific_portion_part,omitempty"`
	CapitalHospitalSpecificPortionPercent          float64 `json:"capital_hospital_specific_portion_percent,omitempty"`
	CapitalIndirectMedicalEducationAdjustment      float64 `json:"capital_indirect_medical_education_adjustment,omitempty"`
	CapitalIndirectMedicalEducationAmount          float64 `json:"capital_indirect_medical_education_amount,omitempty"`
	CapitalLargeUrbanFactor                        float64 `json:"capital_large_urban_factor,omitempty"`
	CapitalOldHoldHarmlessAmount                   float64 `json:"capital_old_hold_harmless_amount,omitempty"`
	CapitalOldHoldHarmlessRate                     float64 `json:"capital_old_hold_harmless_rate,omitempty"`
	CapitalOutlier                                 float64 `json:"capital_outlier,omitempty"`
	CapitalOutlier2B                               float64 `json:"capital_outlier_2b,omitempty"`
	CapitalPaymentCode                             string  `json:"capital_payment_code,omitempty"`
	CapitalTotalPayment                            float64 `json:"capital_total_payment,omitempty"`
}

// IppsOperatingVariables is the operating payment breakdown.
type IppsOperatingVariables struct {
	OperatingBaseDrgPayment                      float64 `json:"operating_base_drg_payment,omitempty"`
	OperatingDisproportionateShareHospitalAmount float64 `json:"operating_disproportionate_share_hospital_amount,omitempty"`
	OperatingDisproportionateShareHospitalRatio  float64 `json:"operating_disproportionate_share_hospital_ratio,omitempty"`
	OperatingDollarThreshold                     float64 `json:"operating_dollar_threshold,omitempty"`
	OperatingFederalSpecificPortionPart          float64 `json:"operating_federal_specific_portion_part,omitempty"`
	OperatingHospitalSpecificPortionPart         float64 `json:"operating_hospital_specific_portion_part,omitempty"`
	OperatingIndirectMedicalEducationAmount      float64 `json:"operating_indirect_medical_education_amount,omitempty"`
}

// IppsPaymentInformation is the policy adjustment payment block.
type IppsPaymentInformation struct {
	BundledAdjustmentPayment                      float64 `json:"bundled_adjustment_payment,omitempty"`
	ElectronicHealthRecordAdjustmentPayment       float64 `json:"electronic_health_record_adjustment_payment,omitempty"`
	HospitalAcquiredConditionPayment              float64 `json:"hospital_acquired_condition_payment,omitempty"`
	HospitalReadmissionReductionAdjustmentPayment float64 `json:"hospital_readmission_reduction_adjustment_payment,omitempty"`
	StandardValue                                 float64 `json:"standard_value,omitempty"`
	UncompensatedCarePayment                      float64 `json:"uncompensated_care_payment,omitempty"`
	ValueBasedPurchasingAdjustmentPayment         float64 `json:"value_based_purchasing_adjustment_payment,omitempty"`
}

// IppsCalculationVariables is the full calculation trace the pricer returns
// alongside the headline payment fields.
type IppsCalculationVariables struct {
	CostThreshold                            float64 `json:"cost_threshold,omitempty"`
	DischargeFraction                        float64 `json:"discharge_fraction,omitempty"`
	DrgRelativeWeight                        float64 `json:"drg_relative_weight,omitempty"`
	DrgRelativeWeightFraction                float64 `json:"drg_relative_weight_fraction,omitempty"`
	FederalSpecificPortionPercent            float64 `json:"federal_specific_portion_percent,omitempty"`
	Flx7Payment                              float64 `json:"flx7_payment,omitempty"`
	HospitalReadmissionReductionAdjustment   float64 `json:"hospital_readmission_reduction_adjustment,omitempty"`
	HospitalReadmissionReductionIndicator    string  `json:"hospital_readmission_reduction_indicator,omitempty"`
	HospitalSpecificPortionPercent           float64 `json:"hospital_specific_portion_percent,omitempty"`
	HospitalSpecificPortionRate              float64 `json:"hospital_specific_portion_rate,omitempty"`
	IsletIsolationAddOnPayment               float64 `json:"islet_isolation_add_on_payment,omitempty"`
	LowVolumePayment                         float64 `json:"low_volume_payment,omitempty"`
	NationalLaborCost                        float64 `json:"national_labor_cost,omitempty"`
	NationalLaborPercent                     float64 `json:"national_labor_percent,omitempty"`
	NationalNonLaborCost                     float64 `json:"national_non_labor_cost,omitempty"`
	NationalNonLaborPercent                  float64 `json:"national_non_labor_percent,omitempty"`
	NationalPercent                          float64 `json:"national_percent,omitempty"`
	NewTechnologyAddOnPayment                float64 `json:"new_technology_add_on_payment,omitempty"`
	PassthroughTotalPlusMisc                 float64 `json:"passthrough_total_plus_misc,omitempty"`
	RegularLaborCost                         float64 `json:"regular_labor_cost,omitempty"`
	RegularNonLaborCost                      float64 `json:"regular_non_labor_cost,omitempty"`
	RegularPercent                           float64 `json:"regular_percent,omitempty"`
	ValueBasedPurchasingAdjustmentAmount     float64 `json:"value_based_purchasing_adjustment_amount,omitempty"`
	ValueBasedPurchasingParticipantIndicator string  `json:"value_based_purchasing_participant_indicator,omitempty"`
	WageIndex                                float64 `json:"wage_index,omitempty"`

	AdditionalCapitalVariables   IppsCapitalVariables   `json:"additional_capital_variables,omitempty"`
	AdditionalOperatingVariables IppsOperatingVariables `json:"additional_operating_variables,omitempty"`
	AdditionalPaymentInformation IppsPaymentInformation `json:"additional_payment_information,omitempty"`
}

// IppsOutput is the inpatient prospective payment report for one claim.
type IppsOutput struct {
	ClaimID                        string                   `json:"claim_id"`
	ReturnCode                     ReturnCode               `json:"return_code,omitempty"`
	CalculationVersion             string                   `json:"calculation_version,omitempty"`
	AverageLengthOfStay            float64                  `json:"average_length_of_stay,omitempty"`
	DaysCutoff                     float64                  `json:"days_cutoff,omitempty"`
	LifetimeReservedDaysUsed       int                      `json:"lifetime_reserved_days_used,omitempty"`
	OperatingDshAdjustment         float64                  `json:"operating_dsh_adjustment,omitempty"`
	OperatingFspPart               float64                  `json:"operating_fsp_part,omitempty"`
	OperatingHspPart               float64                  `json:"operating_hsp_part,omitempty"`
	OperatingImeAdjustment         float64                  `json:"operating_ime_adjustment,omitempty"`
	OperatingOutlierPaymentPart    float64                  `json:"operating_outlier_payment_part,omitempty"`
	OutlierDays                    int                      `json:"outlier_days,omitempty"`
	RegularDaysUsed                int                      `json:"regular_days_used,omitempty"`
	FinalCbsa                      string                   `json:"final_cbsa,omitempty"`
	FinalWageIndex                 float64                  `json:"final_wage_index,omitempty"`
	TotalPayment                   float64                  `json:"total_payment,omitempty"`
	AdditionalCalculationVariables IppsCalculationVariables `json:"additional_calculation_variables,omitempty"`
}

// =========================== OPPS ===========================

// OppsLineOutput is the priced state of one outpatient service line.
type OppsLineOutput struct {
	BloodDeductible          float64    `json:"blood_deductible,omitempty"`
	CoinsuranceAmount        float64    `json:"coinsurance_amount,omitempty"`
	LineNumber               int        `json:"line_number,omitempty"`
	Payment                  float64    `json:"payment,omitempty"`
	ReducedCoinsuranceAmount float64    `json:"reduced_coinsurance_amount,omitempty"`
	ReimbursementAmount      float64    `json:"reimbursement_amount,omitempty"`
	TotalDeductible          float64    `json:"total_deductible,omitempty"`
	ReturnCode               ReturnCode `json:"return_code,omitempty"`
}

// OppsOutput is the outpatient prospective payment report for one claim.
type OppsOutput struct {
	ClaimID                  string           `json:"claim_id"`
	BloodDeductible          float64          `json:"blood_deductible,omitempty"`
	FinalCbsa                string           `json:"final_cbsa,omitempty"`
	FinalWageIndex           float64          `json:"final_wage_index,omitempty"`
	TotalClaimCharges        float64          `json:"total_claim_charges,omitempty"`
	TotalClaimDeductible     float64          `json:"total_claim_deductible,omitempty"`
	TotalClaimOutlierPayment float64          `json:"total_claim_outlier_payment,omitempty"`
	TotalClaimPayment        float64          `json:"total_claim_payment,omitempty"`
	BloodPintsUsed           int              `json:"blood_pints_used,omitempty"`
	CalculationVersion       string           `json:"calculation_version,omitempty"`
	ReturnCode               ReturnCode       `json:"return_code,omitempty"`
	ServiceLines             []OppsLineOutput `json:"service_lines,omitempty"`
}

// =========================== IPF ===========================

// IpfAdditionalVariables is the psychiatric per-diem calculation trace.
type IpfAdditionalVariables struct {
	AdjustedPerDiemAmount           float64 `json:"adjusted_per_diem_amount,omitempty"`
	BaseLaborAmount                 float64 `json:"base_labor_amount,omitempty"`
	BaseNonLaborAmount              float64 `json:"base_non_labor_amount,omitempty"`
	BudgetRateAmount                float64 `json:"budget_rate_amount,omitempty"`
	ElectroConvulsiveTherapyPayment float64 `json:"electro_convulsive_therapy_payment,omitempty"`
	FactorPayment                   float64 `json:"factor_payment,omitempty"`
	OutlierAdjustedCost             float64 `json:"outlier_adjusted_cost,omitempty"`
	FederalPayment                  float64 `json:"federal_payment,omitempty"`
	OutlierBaseLaborAmount          float64 `json:"outlier_base_labor_amount,omitempty"`
	OutlierBaseNonLaborAmount       float64 `json:"outlier_base_non_labor_amount,omitempty"`
	OutlierCost                     float64 `json:"outlier_cost,omitempty"`
	OutlierPayment                  float64 `json:"outlier_payment,omitempty"`
	OutlierPerDiemAmount            float64 `json:"outlier_per_diem_amount,omitempty"`
	OutlierThresholdAdjustedAmount  float64 `json:"outlier_threshold_adjusted_amount,omitempty"`
	OutlierThresholdAmount          float64 `json:"outlier_threshold_amount,omitempty"`
	StopLossAmount                  float64 `json:"stop_loss_amount,omitempty"`
	TeachingPayment                 float64 `json:"teaching_payment,omitempty"`
	WageAdjustedAmount              float64 `json:"wage_adjusted_amount,omitempty"`
}

// IpfOutput is the inpatient psychiatric facility payment report.
type IpfOutput struct {
	ClaimID                       string                  `json:"claim_id"`
	CalculationVersion            string                  `json:"calculation_version,omitempty"`
	ReturnCode                    ReturnCode              `json:"return_code,omitempty"`
	TotalPayment                  float64                 `json:"total_payment,omitempty"`
	FinalCbsa                     string                  `json:"final_cbsa,omitempty"`
	WageIndex                     float64                 `json:"wage_index,omitempty"`
	AgeAdjustmentPercent          float64                 `json:"age_adjustment_percent,omitempty"`
	ComorbidityFactor             float64                 `json:"comorbidity_factor,omitempty"`
	CostOfLivingAdjustmentPercent float64                 `json:"cost_of_living_adjustment_percent,omitempty"`
	CostToChargeRatio             float64                 `json:"cost_to_charge_ratio,omitempty"`
	DrgFactor                     float64                 `json:"drg_factor,omitempty"`
	EmergencyAdjustmentPercent    float64                 `json:"emergency_adjustment_percent,omitempty"`
	NationalLaborPercent          float64                 `json:"national_labor_percent,omitempty"`
	NationalNonLaborPercent       float64                 `json:"national_non_labor_percent,omitempty"`
	RuralAdjustmentPercent        float64                 `json:"rural_adjustment_percent,omitempty"`
	TeachAdjustmentPercent        float64                 `json:"teach_adjustment_percent,omitempty"`
	AdditionalVariables           *IpfAdditionalVariables `json:"additional_variables,omitempty"`
}

// =========================== LTCH ===========================

// LtchOutput is the long-term care hospital payment report.
type LtchOutput struct {
	ClaimID                         string     `json:"claim_id"`
	CalculationVersion              string     `json:"calculation_version,omitempty"`
	ReturnCode                      ReturnCode `json:"return_code,omitempty"`
	TotalPayment                    float64    `json:"total_payment,omitempty"`
	FinalCbsa                       string     `json:"final_cbsa,omitempty"`
	AdjustedPayment                 float64    `json:"adjusted_payment,omitempty"`
	AverageLengthOfStay             float64    `json:"average_length_of_stay,omitempty"`
	BlendYear                       int        `json:"blend_year,omitempty"`
	BudgetNeutralityRate            float64    `json:"budget_neutrality_rate,omitempty"`
	ChangeOfTherapyIndicator        string     `json:"change_of_therapy_indicator,omitempty"`
	ChargeThresholdAmount           float64    `json:"charge_threshold_amount,omitempty"`
	CostOfLivingAdjustmentPercent   float64    `json:"cost_of_living_adjustment_percent,omitempty"`
	DischargePaymentPercentAmount   float64    `json:"discharge_payment_percent_amount,omitempty"`
	DrgRelativeWeight               float64    `json:"drg_relative_weight,omitempty"`
	FacilityCosts                   float64    `json:"facility_costs,omitempty"`
	FacilitySpecificRate            float64    `json:"facility_specific_rate,omitempty"`
	FederalPayment                  float64    `json:"federal_payment,omitempty"`
	FederalRatePercent              float64    `json:"federal_rate_percent,omitempty"`
	InpatientThreshold              float64    `json:"inpatient_threshold,omitempty"`
	LengthOfStay                    int        `json:"length_of_stay,omitempty"`
	LifetimeReserveDaysUsed         int        `json:"lifetime_reserve_days_used,omitempty"`
	NationalLaborPercent            float64    `json:"national_labor_percent,omitempty"`
	NationalNonLaborPercent         float64    `json:"national_non_labor_percent,omitempty"`
	OutlierPayment                  float64    `json:"outlier_payment,omitempty"`
	OutlierThresholdAmount          float64    `json:"outlier_threshold_amount,omitempty"`
	RegularDaysUsed                 int        `json:"regular_days_used,omitempty"`
	SiteNeutralCostPayment          float64    `json:"site_neutral_cost_payment,omitempty"`
	SiteNeutralIppsPayment          float64    `json:"site_neutral_ipps_payment,omitempty"`
	StandardFullPayment             float64    `json:"standard_full_payment,omitempty"`
	StandardShortStayOutlierPayment float64    `json:"standard_short_stay_outlier_payment,omitempty"`
	SubmittedDiagnosisRelatedGroup  string     `json:"submitted_diagnosis_related_group,omitempty"`
}

// =========================== SNF ===========================

// SnfOutput is the skilled nursing facility payment report.
type SnfOutput struct {
	ClaimID                   string     `json:"claim_id"`
	ReturnCode                ReturnCode `json:"return_code,omitempty"`
	CalculationVersion        string     `json:"calculation_version,omitempty"`
	AidsIndicator             string     `json:"aids_indicator,omitempty"`
	QualityReportingIndicator string     `json:"quality_reporting_indicator,omitempty"`
	RegionIndicator           string     `json:"region_indicator,omitempty"`
	VbpPaymentDifference      float64    `json:"vbp_payment_difference,omitempty"`
	Cbsa                      string     `json:"cbsa,omitempty"`
	WageIndex                 float64    `json:"wage_index,omitempty"`
	TotalPayment              float64    `json:"total_payment,omitempty"`
}

// =========================== HHA ===========================

// HhaRevenuePayment is the per-revenue-code visit payment breakdown.
type HhaRevenuePayment struct {
	RevenueCode      string  `json:"revenue_code,omitempty"`
	AddonVisitAmount float64 `json:"addon_visit_amount,omitempty"`
	Cost             float64 `json:"cost,omitempty"`
	DollarRate       float64 `json:"dollar_rate,omitempty"`
}

// HhaOutput is the home health payment report.
type HhaOutput struct {
	ClaimID               string              `json:"claim_id"`
	ReturnCode            ReturnCode          `json:"return_code,omitempty"`
	HhrgWeight            float64             `json:"hhrg_weight,omitempty"`
	HhrgPayment           float64             `json:"hhrg_payment,omitempty"`
	LateSubmissionPenalty float64             `json:"late_submission_penalty,omitempty"`
	OutlierPayment        float64             `json:"outlier_payment,omitempty"`
	StandardizedPayment   float64             `json:"standardized_payment,omitempty"`
	TotalCoveredVisits    int                 `json:"total_covered_visits,omitempty"`
	VbpAmount             float64             `json:"vbp_amount,omitempty"`
	HhrgCode              string              `json:"hhrg_code,omitempty"`
	TotalPayment          float64             `json:"total_payment,omitempty"`
	RevenuePayments       []HhaRevenuePayment `json:"revenue_payments,omitempty"`
}

// =========================== IRF ===========================

// IrfOutput is the inpatient rehabilitation facility payment report.
type IrfOutput struct {
	ClaimID                        string     `json:"claim_id"`
	ReturnCode                     ReturnCode `json:"return_code,omitempty"`
	CalculationVersion             string     `json:"calculation_version,omitempty"`
	TotalPayment                   float64    `json:"total_payment,omitempty"`
	AverageLengthOfStay            float64    `json:"average_length_of_stay,omitempty"`
	BudgetNeutralityConversionAmt  float64    `json:"budget_neutrality_conversion_amt,omitempty"`
	RelativeWeight                 float64    `json:"relative_weight,omitempty"`
	ChargeOutlierThresholdAmt      float64    `json:"charge_outlier_threshold_amt,omitempty"`
	CostOutlierThresholdID         string     `json:"cost_outlier_threshold_id,omitempty"`
	FacilityCosts                  float64    `json:"facility_costs,omitempty"`
	FacilityRatePercent            float64    `json:"facility_rate_percent,omitempty"`
	FacilitySpecificPayment        float64    `json:"facility_specific_payment,omitempty"`
	FacilitySpecificRatePreBlended float64    `json:"facility_specific_rate_pre_blended,omitempty"`
	FederalPaymentAmt              float64    `json:"federal_payment_amt,omitempty"`
	FederalPenaltyAmt              float64    `json:"federal_penalty_amt,omitempty"`
	FederalRatePercent             float64    `json:"federal_rate_percent,omitempty"`
	LengthOfStay                   int        `json:"length_of_stay,omitempty"`
	LifetimeReserveDaysUsed        int        `json:"lifetime_reserve_days_used,omitempty"`
	LowIncomePayment               float64    `json:"low_income_payment,omitempty"`
	LowIncomePaymentPenaltyAmt     float64    `json:"low_income_payment_penalty_amt,omitempty"`
	LowIncomePaymentPercent        float64    `json:"low_income_payment_percent,omitempty"`
	NationalLaborPercent           float64    `json:"national_labor_percent,omitempty"`
	NationalNonlaborPercent        float64    `json:"national_nonlabor_percent,omitempty"`
	NationalThresholdAdjustmentAmt float64    `json:"national_threshold_adjustment_amt,omitempty"`
	OutlierPayment                 float64    `json:"outlier_payment,omitempty"`
	OutlierPenaltyAmt              float64    `json:"outlier_penalty_amt,omitempty"`
	OutlierThreshold               float64    `json:"outlier_threshold,omitempty"`
	PriceCaseMixGroup              string     `json:"price_case_mix_group,omitempty"`
	RegularDaysUsed                int        `json:"regular_days_used,omitempty"`
	RuralAdjustmentPercent         float64    `json:"rural_adjustment_percent,omitempty"`
	StandardPaymentAmt             float64    `json:"standard_payment_amt,omitempty"`
	SubmittedCaseMixGroup          string     `json:"submitted_case_mix_group,omitempty"`
	TeachingPayment                float64    `json:"teaching_payment,omitempty"`
	TeachingPaymentPenaltyAmt      float64    `json:"teaching_payment_penalty_amt,omitempty"`
	TotalPenaltyAmt                float64    `json:"total_penalty_amt,omitempty"`
	TransferPercent                float64    `json:"transfer_percent,omitempty"`
}

// =========================== Hospice ===========================

// HospiceBillingGroupPayment is one billing-group payment row.
type HospiceBillingGroupPayment struct {
	HcpcsCode     string  `json:"hcpcs_code,omitempty"`
	RevenueCode   string  `json:"revenue_code,omitempty"`
	PaymentAmount float64 `json:"payment_amount,omitempty"`
}

// HospiceEolaPayment is one end-of-life add-on payment row. Index refers
// to the claim line that earned the add-on.
type HospiceEolaPayment struct {
	Index         int     `json:"index,omitempty"`
	PaymentAmount float64 `json:"payment_amount,omitempty"`
}

// HospiceOutput is the hospice payment report.
type HospiceOutput struct {
	ClaimID                 string                       `json:"claim_id"`
	CalculationVersion      string                       `json:"calculation_version,omitempty"`
	ReturnCode              ReturnCode                   `json:"return_code,omitempty"`
	HighRoutineHomeCareDays int                          `json:"high_routine_home_care_days,omitempty"`
	LowRoutineHomeCareDays  int                          `json:"low_routine_home_care_days,omitempty"`
	PatientWageIndex        float64                      `json:"patient_wage_index,omitempty"`
	ProviderWageIndex       float64                      `json:"provider_wage_index,omitempty"`
	BillingGroupPayments    []HospiceBillingGroupPayment `json:"billing_group_payments,omitempty"`
	EolaPayments            []HospiceEolaPayment         `json:"eola_payments,omitempty"`
	TotalPayment            float64                      `json:"total_payment,omitempty"`
}

// =========================== ESRD ===========================

// EsrdAdditionalPayment carries the dialysis rate-setting factors.
type EsrdAdditionalPayment struct {
	AgeAdjustmentFactor     float64 `json:"age_adjustment_factor,omitempty"`
	BodyMassIndexFactor     float64 `json:"body_mass_index_factor,omitempty"`
	BodySurfaceAreaFactor   float64 `json:"body_surface_area_factor,omitempty"`
	BudgetNeutralityRate    float64 `json:"budget_neutrality_rate,omitempty"`
	NationalLaborPercent    float64 `json:"national_labor_percent,omitempty"`
	NationalNonLaborPercent float64 `json:"national_non_labor_percent,omitempty"`
	WageAdjustmentRate      float64 `json:"wage_adjustment_rate,omitempty"`
}

// EsrdBundledPayment carries the bundled composite rates.
type EsrdBundledPayment struct {
	BlendedCompositeRate   float64 `json:"blended_composite_rate,omitempty"`
	BlendedOutlierRate     float64 `json:"blended_outlier_rate,omitempty"`
	BlendedPaymentRate     float64 `json:"blended_payment_rate,omitempty"`
	ComorbidityPaymentCode string  `json:"comorbidity_payment_code,omitempty"`
	FullCompositeRate      float64 `json:"full_composite_rate,omitempty"`
	FullOutlierRate        float64 `json:"full_outlier_rate,omitempty"`
	FullPaymentRate        float64 `json:"full_payment_rate,omitempty"`
}

// EsrdOutput is the end-stage renal disease payment report.
type EsrdOutput struct {
	ClaimID                   string                 `json:"claim_id"`
	ReturnCode                ReturnCode             `json:"return_code,omitempty"`
	CalculationVersion        string                 `json:"calculation_version,omitempty"`
	TotalPayment              float64                `json:"total_payment,omitempty"`
	AdjBaseWageBeforeEtc      float64                `json:"adj_base_wage_before_etc,omitempty"`
	LowVolumeAmount           float64                `json:"low_volume_amount,omitempty"`
	NetworkReductionAmount    float64                `json:"network_reduction_amount,omitempty"`
	OutlierNonPerDiemPayment  float64                `json:"outlier_non_per_diem_payment,omitempty"`
	PpaAdjustmentAmount       float64                `json:"ppa_adjustment_amount,omitempty"`
	PrePpaAdjustmentAmount    float64                `json:"pre_ppa_adjustment_amount,omitempty"`
	PostPpaAdjustmentAmount   float64                `json:"post_ppa_adjustment_amount,omitempty"`
	TdapaAdjustmentAmount     float64                `json:"tdapa_adjustment_amount,omitempty"`
	TpniescraAdjustmentAmount float64                `json:"tpniescra_adjustment_amount,omitempty"`
	TpniesAdjustmentAmount    float64                `json:"tpnies_adjustment_amount,omitempty"`
	HdpaAdjustmentAmount      float64                `json:"hdpa_adjustment_amount,omitempty"`
	FinalWageIndex            float64                `json:"final_wage_index,omitempty"`
	AdditionalPaymentData     *EsrdAdditionalPayment `json:"additional_payment_data,omitempty"`
	BundledPaymentData        *EsrdBundledPayment    `json:"bundled_payment_data,omitempty"`
}

// =========================== FQHC ===========================

// FqhcLineOutput is the priced state of one federally qualified health
// center service line.
type FqhcLineOutput struct {
	ReturnCode           ReturnCode `json:"return_code,omitempty"`
	AddonPayment         float64    `json:"addon_payment,omitempty"`
	CoinsuranceAmount    float64    `json:"coinsurance_amount,omitempty"`
	LineNumber           int        `json:"line_number,omitempty"`
	MdpcpReductionAmount float64    `json:"mdpcp_reduction_amount,omitempty"`
	Payment              float64    `json:"payment,omitempty"`
}

// FqhcOutput is the federally qualified health center payment report.
type FqhcOutput struct {
	ClaimID                    string           `json:"claim_id"`
	CalculationVersion         string           `json:"calculation_version,omitempty"`
	ReturnCode                 ReturnCode       `json:"return_code,omitempty"`
	TotalPayment               float64          `json:"total_payment,omitempty"`
	GeographicAdjustmentFactor float64          `json:"geographic_adjustment_factor,omitempty"`
	CoinsuranceAmount          float64          `json:"coinsurance_amount,omitempty"`
	LinePaymentData            []FqhcLineOutput `json:"line_payment_data,omitempty"`
}
