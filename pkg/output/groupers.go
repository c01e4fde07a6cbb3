package output

// =========================== MS-DRG ===========================

// MsdrgHac is one hospital-acquired-condition slot on a code.
type MsdrgHac struct {
	HacNumber int    `json:"hac_number,omitempty"`
	HacStatus string `json:"hac_status,omitempty"`
	HacList   string `json:"hac_list,omitempty"`
}

// MsdrgDxOutput is the grouper's view of one diagnosis code. Entries
// follow claim order: principal first, then secondaries.
type MsdrgDxOutput struct {
	GroupingImpact      string     `json:"grouping_impact,omitempty"`
	FinalSeverityFlag   string     `json:"final_severity_flag,omitempty"`
	InitialSeverityFlag string     `json:"initial_severity_flag,omitempty"`
	HacList             []MsdrgHac `json:"hac_list,omitempty"`
	PoaErrorCode        string     `json:"poa_error_code,omitempty"`
	RecognizedByGrouper bool       `json:"recognized_by_grouper,omitempty"`
}

// MsdrgPxOutput is the grouper's view of one inpatient procedure code.
type MsdrgPxOutput struct {
	GroupingImpact      string     `json:"grouping_impact,omitempty"`
	IsOrProcedure       bool       `json:"is_or_procedure,omitempty"`
	RecognizedByGrouper bool       `json:"recognized_by_grouper,omitempty"`
	HacUsage            []MsdrgHac `json:"hac_usage,omitempty"`
}

// MsdrgGrouperFlags carries the claim-level grouper flag block.
type MsdrgGrouperFlags struct {
	AdmitDxGrouperFlag          string `json:"admit_dx_grouper_flag,omitempty"`
	FinalSecondaryDxCcMccFlag   string `json:"final_secondary_dx_cc_mcc_flag,omitempty"`
	InitialSecondaryDxCcMccFlag string `json:"initial_secondary_dx_cc_mcc_flag,omitempty"`
	NumHacCategoriesSatisfied   int    `json:"num_hac_categories_satisfied,omitempty"`
	HacStatusValue              string `json:"hac_status_value,omitempty"`
}

// MsdrgOutput is the MS-DRG grouping report for one claim. Initial values
// reflect grouping before HAC processing, final values after.
type MsdrgOutput struct {
	ClaimID      string            `json:"claim_id"`
	DrgVersion   string            `json:"drg_version,omitempty"`
	GrouperFlags MsdrgGrouperFlags `json:"grouper_flags,omitempty"`

	InitialGrc string `json:"initial_grc,omitempty"`
	FinalGrc   string `json:"final_grc,omitempty"`

	InitialMdcValue       string `json:"initial_mdc_value,omitempty"`
	InitialMdcDescription string `json:"initial_mdc_description,omitempty"`
	FinalMdcValue         string `json:"final_mdc_value,omitempty"`
	FinalMdcDescription   string `json:"final_mdc_description,omitempty"`

	InitialDrgValue       string `json:"initial_drg_value,omitempty"`
	InitialDrgDescription string `json:"initial_drg_description,omitempty"`
	FinalDrgValue         string `json:"final_drg_value,omitempty"`
	FinalDrgDescription   string `json:"final_drg_description,omitempty"`

	InitialBaseDrgValue       string `json:"initial_base_drg_value,omitempty"`
	InitialBaseDrgDescription string `json:"initial_base_drg_description,omitempty"`
	FinalBaseDrgValue         string `json:"final_base_drg_value,omitempty"`
	FinalBaseDrgDescription   string `json:"final_base_drg_description,omitempty"`

	InitialMedSurgType string `json:"initial_med_surg_type,omitempty"`
	FinalMedSurgType   string `json:"final_med_surg_type,omitempty"`

	InitialSeverity string `json:"initial_severity,omitempty"`
	FinalSeverity   string `json:"final_severity,omitempty"`

	InitialDrgSdxSeverity string `json:"initial_drg_sdx_severity,omitempty"`
	FinalDrgSdxSeverity   string `json:"final_drg_sdx_severity,omitempty"`

	HacStatus                 string `json:"hac_status,omitempty"`
	NumHacCategoriesSatisfied int    `json:"num_hac_categories_satisfied,omitempty"`

	PrincipalDxOutput  MsdrgDxOutput   `json:"principal_dx_output,omitempty"`
	SecondaryDxOutputs []MsdrgDxOutput `json:"secondary_dx_outputs,omitempty"`
	ProcedureOutputs   []MsdrgPxOutput `json:"procedure_outputs,omitempty"`

	IcdConversionOutput *IcdConversion `json:"icd10_conversion_output,omitempty"`
}

// =========================== HHAG ===========================

// HhagEdit is one HIPPS grouper edit.
type HhagEdit struct {
	EditID      int    `json:"edit_id,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

// HhagOutput is the home health grouping report for one claim.
type HhagOutput struct {
	ClaimID      string     `json:"claim_id"`
	HippsCode    string     `json:"hipps_code,omitempty"`
	ReturnCode   ReturnCode `json:"return_code,omitempty"`
	ValidityFlag string     `json:"validity_flag,omitempty"`
	Edits        []HhagEdit `json:"edits,omitempty"`
}

// =========================== CMG ===========================

// CmgOutput is the inpatient rehabilitation case-mix grouping report.
type CmgOutput struct {
	ClaimID          string  `json:"claim_id"`
	IrfVersion       string  `json:"irf_version,omitempty"`
	MotorScore       float64 `json:"motor_score,omitempty"`
	Ric              int     `json:"ric,omitempty"`
	CmgGroup         string  `json:"cmg_group,omitempty"`
	ErrorCode        int     `json:"error_code,omitempty"`
	ErrorDescription string  `json:"error_description,omitempty"`
}
