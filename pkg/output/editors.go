package output

import "github.com/librepps/gopps/pkg/claim"

// =========================== MCE ===========================

// mceDxFlagNames indexes the per-character diagnosis edit string. Position
// 11 is the age-conflict slot whose character selects from mceAgeConflicts
// instead of naming a flag directly.
var mceDxFlagNames = map[int]string{
	0:  "INVALID_DIAGNOSIS",
	1:  "SEX_CONFLICT",
	2:  "AGE_CONFLICT",
	3:  "QUESTIONABLE_ADMISSION",
	4:  "MANIFESTATION_AS_PRINCIPAL_DX",
	5:  "NONSPECIFIC_PRINCIPAL_DX",
	6:  "E_CODE_AS_PRINCIPAL_DX",
	7:  "UNACCEPTABLE_PRINCIPAL_DX",
	8:  "DUPLICATE_OF_PRINCIPAL_DX",
	9:  "MEDICARE_SECONDARY_PAYER_ALERT",
	10: "SECONDARY_DX_REQUIRED",
	12: "INVALID_POA",
	13: "WRONG_PROCEDURE",
	14: "UNSPECIFIED_CODE",
}

const mceAgeConflictIndex = 11

// mceAgeConflicts decodes the character found at the age-conflict slot.
var mceAgeConflicts = map[int]string{
	1: "NEWBORN_AGE_CONFLICT",
	2: "PEDIATRIC_AGE_CONFLICT",
	3: "MATERNITY_AGE_CONFLICT",
	4: "ADULT_AGE_CONFLICT",
}

// mcePxFlagNames indexes the per-character procedure edit string.
var mcePxFlagNames = map[int]string{
	0:  "INVALID_PROCEDURE",
	1:  "SEX_CONFLICT",
	2:  "NONSPECIFIC_OR_PROCEDURE",
	3:  "OPEN_BIOPSY_CHECK",
	4:  "NON_COVERED_PROCEDURE",
	5:  "BILATERAL_PROCEDURE",
	6:  "LIMITED_COVERAGE_LUNG_VOLUME_REDUCTION",
	7:  "LIMITED_COVERAGE_LUNG_TRANSPLANT",
	8:  "LIMITED_COVERAGE_HEART_LUNG_TRANSPLANT",
	9:  "LIMITED_COVERAGE_HEART_TRANSPLANT",
	10: "LIMITED_COVERAGE_HEART_ASSIST_IMPLANT",
	11: "LIMITED_COVERAGE_INTESTINAL_TRANSPLANT",
	12: "LIMITED_COVERAGE_LIVER_TRANSPLANT",
	13: "LIMITED_COVERAGE_KIDNEY_TRANSPLANT",
	14: "LIMITED_COVERAGE_PANCREAS_TRANSPLANT",
	15: "LIMITED_COVERAGE_ARTIFICIAL_HEART",
	16: "PROCEDURE_INCONSISTENT_WITH_LOS",
}

// MceDxCode is the decoded edit state of one diagnosis code.
type MceDxCode struct {
	Code            string   `json:"code"`
	EditFlags       []string `json:"edit_flags,omitempty"`
	AgeConflictType string   `json:"age_conflict_type,omitempty"`
}

// McePxCode is the decoded edit state of one procedure code.
type McePxCode struct {
	Code      string   `json:"code"`
	EditFlags []string `json:"edit_flags,omitempty"`
}

// MceOutput is the Medicare Code Editor report for one claim.
type MceOutput struct {
	VersionUsed    int            `json:"version_used,omitempty"`
	EditType       string         `json:"edit_type,omitempty"`
	EditCounters   map[string]int `json:"edit_counters,omitempty"`
	DiagnosisCodes []MceDxCode    `json:"diagnosis_codes,omitempty"`
	ProcedureCodes []McePxCode    `json:"procedure_codes,omitempty"`
}

// DecodeMceDx expands a diagnosis edit string into flag names. Each
// character position maps to one edit; any character other than '0' at
// the age-conflict slot selects the conflict type.
func DecodeMceDx(code, edits string) MceDxCode {
	out := MceDxCode{Code: code}
	for i, ch := range edits {
		if i == mceAgeConflictIndex {
			if conflict, ok := mceAgeConflicts[int(ch-'0')]; ok {
				out.AgeConflictType = conflict
			}
			continue
		}
		if ch != '1' {
			continue
		}
		if name, ok := mceDxFlagNames[i]; ok {
			out.EditFlags = append(out.EditFlags, name)
		}
	}
	return out
}

// DecodeMcePx expands a procedure edit string into flag names.
func DecodeMcePx(code, edits string) McePxCode {
	out := McePxCode{Code: code}
	for i, ch := range edits {
		if ch != '1' {
			continue
		}
		if name, ok := mcePxFlagNames[i]; ok {
			out.EditFlags = append(out.EditFlags, name)
		}
	}
	return out
}

// =========================== IOCE ===========================

// IoceEdit is one edit number with its published description.
type IoceEdit struct {
	Edit        string `json:"edit,omitempty"`
	Description string `json:"description,omitempty"`
}

// IoceFlag is a coded flag with its published description.
type IoceFlag struct {
	Flag        string `json:"flag,omitempty"`
	Description string `json:"description,omitempty"`
}

// IoceReturnCode is the numeric claim-level disposition.
type IoceReturnCode struct {
	Code        int    `json:"code"`
	Description string `json:"description,omitempty"`
}

// IoceProcessingInfo carries the run metadata the editor prints ahead of
// the claim body.
type IoceProcessingInfo struct {
	ClaimID         string         `json:"claim_id,omitempty"`
	ReturnCode      IoceReturnCode `json:"return_code"`
	LinesProcessed  int            `json:"lines_processed,omitempty"`
	InternalVersion int            `json:"internal_version,omitempty"`
	Version         string         `json:"version,omitempty"`
	TimeStarted     int64          `json:"time_started,omitempty"`
	TimeEnded       int64          `json:"time_ended,omitempty"`
	DebugFlag       string         `json:"debug_flag,omitempty"`
	CommentData     string         `json:"comment_data,omitempty"`
}

// IoceDiagnosis is one diagnosis code with its edits.
type IoceDiagnosis struct {
	Diagnosis          string     `json:"diagnosis,omitempty"`
	Description        string     `json:"description,omitempty"`
	PresentOnAdmission string     `json:"present_on_admission,omitempty"`
	EditList           []IoceEdit `json:"edit_list,omitempty"`
}

// IoceModifier is one HCPCS modifier with its edits.
type IoceModifier struct {
	HcpcsModifier string     `json:"hcpcs_modifier,omitempty"`
	EditList      []IoceEdit `json:"edit_list,omitempty"`
}

// IoceValueCode is a value code echoed or produced by the editor.
type IoceValueCode struct {
	Code  string `json:"code,omitempty"`
	Value string `json:"value,omitempty"`
}

// IoceLine is the edited state of one service line.
type IoceLine struct {
	ServiceDate                *claim.Date    `json:"service_date,omitempty"`
	RevenueCode                string         `json:"revenue_code,omitempty"`
	Hcpcs                      string         `json:"hcpcs,omitempty"`
	HcpcsDescription           string         `json:"hcpcs_description,omitempty"`
	UnitsInput                 *int           `json:"units_input,omitempty"`
	Charge                     *float64       `json:"charge,omitempty"`
	ActionFlagInput            string         `json:"action_flag_input,omitempty"`
	ActionFlagOutput           string         `json:"action_flag_output,omitempty"`
	RejectionDenialFlag        string         `json:"rejection_denial_flag,omitempty"`
	PaymentMethodFlag          string         `json:"payment_method_flag,omitempty"`
	HcpcsApc                   string         `json:"hcpcs_apc,omitempty"`
	HcpcsApcDescription        string         `json:"hcpcs_apc_description,omitempty"`
	PaymentApc                 string         `json:"payment_apc,omitempty"`
	PaymentApcDescription      string         `json:"payment_apc_description,omitempty"`
	UnitsOutput                *int           `json:"units_output,omitempty"`
	StatusIndicator            string         `json:"status_indicator,omitempty"`
	StatusIndicatorDescription string         `json:"status_indicator_description,omitempty"`
	PaymentIndicator           string         `json:"payment_indicator,omitempty"`
	PackagingFlag              IoceFlag       `json:"packaging_flag,omitempty"`
	PaymentAdjustmentFlag01    IoceFlag       `json:"payment_adjustment_flag01,omitempty"`
	PaymentAdjustmentFlag02    IoceFlag       `json:"payment_adjustment_flag02,omitempty"`
	DiscountingFormula         *int           `json:"discounting_formula,omitempty"`
	CompositeAdjustmentFlag    string         `json:"composite_adjustment_flag,omitempty"`
	HcpcsModifierInputList     []IoceModifier `json:"hcpcs_modifier_input_list,omitempty"`
	HcpcsModifierOutputList    []IoceModifier `json:"hcpcs_modifier_output_list,omitempty"`
	HcpcsEditList              []IoceEdit     `json:"hcpcs_edit_list,omitempty"`
	RevenueEditList            []IoceEdit     `json:"revenue_edit_list,omitempty"`
	ServiceDateEditList        []IoceEdit     `json:"service_date_edit_list,omitempty"`
}

// IoceOutput is the Integrated Outpatient Code Editor report for one claim.
type IoceOutput struct {
	ProcessingInformation IoceProcessingInfo `json:"processing_information"`
	Version               string             `json:"version,omitempty"`

	ClaimProcessedFlag            string `json:"claim_processed_flag,omitempty"`
	ClaimProcessedFlagDescription string `json:"claim_processed_flag_description,omitempty"`
	ApcReturnBufferFlag           string `json:"apc_return_buffer_flag,omitempty"`
	NoppsBillFlag                 string `json:"nopps_bill_flag,omitempty"`

	ClaimDisposition                 string `json:"claim_disposition,omitempty"`
	ClaimDispositionDescription      string `json:"claim_disposition_description,omitempty"`
	ClaimDispositionValueDescription string `json:"claim_disposition_value_description,omitempty"`

	ClaimRejectionDisposition                 string     `json:"claim_rejection_disposition,omitempty"`
	ClaimRejectionDispositionDescription      string     `json:"claim_rejection_disposition_description,omitempty"`
	ClaimRejectionDispositionValueDescription string     `json:"claim_rejection_disposition_value_description,omitempty"`
	ClaimRejectionEditList                    []IoceEdit `json:"claim_rejection_edit_list,omitempty"`

	ClaimDenialDisposition                 string     `json:"claim_denial_disposition,omitempty"`
	ClaimDenialDispositionDescription      string     `json:"claim_denial_disposition_description,omitempty"`
	ClaimDenialDispositionValueDescription string     `json:"claim_denial_disposition_value_description,omitempty"`
	ClaimDenialEditList                    []IoceEdit `json:"claim_denial_edit_list,omitempty"`

	ClaimReturnToProviderDisposition                 string     `json:"claim_return_to_provider_disposition,omitempty"`
	ClaimReturnToProviderDispositionDescription      string     `json:"claim_return_to_provider_disposition_description,omitempty"`
	ClaimReturnToProviderDispositionValueDescription string     `json:"claim_return_to_provider_disposition_value_description,omitempty"`
	ClaimReturnToProviderEditList                    []IoceEdit `json:"claim_return_to_provider_edit_list,omitempty"`

	ClaimSuspensionDisposition                 string     `json:"claim_suspension_disposition,omitempty"`
	ClaimSuspensionDispositionDescription      string     `json:"claim_suspension_disposition_description,omitempty"`
	ClaimSuspensionDispositionValueDescription string     `json:"claim_suspension_disposition_value_description,omitempty"`
	ClaimSuspensionEditList                    []IoceEdit `json:"claim_suspension_edit_list,omitempty"`

	LineRejectionDisposition                 string     `json:"line_rejection_disposition,omitempty"`
	LineRejectionDispositionDescription      string     `json:"line_rejection_disposition_description,omitempty"`
	LineRejectionDispositionValueDescription string     `json:"line_rejection_disposition_value_description,omitempty"`
	LineRejectionEditList                    []IoceEdit `json:"line_rejection_edit_list,omitempty"`

	LineDenialDisposition                 string     `json:"line_denial_disposition,omitempty"`
	LineDenialDispositionDescription      string     `json:"line_denial_disposition_description,omitempty"`
	LineDenialDispositionValueDescription string     `json:"line_denial_disposition_value_description,omitempty"`
	LineDenialEditList                    []IoceEdit `json:"line_denial_edit_list,omitempty"`

	ConditionCodeOutputList []string        `json:"condition_code_output_list,omitempty"`
	ValueCodeOutputList     []IoceValueCode `json:"value_code_output_list,omitempty"`

	PrincipalDiagnosisCode          IoceDiagnosis   `json:"principal_diagnosis_code,omitempty"`
	ReasonForVisitDiagnosisCodeList []IoceDiagnosis `json:"reason_for_visit_diagnosis_code_list,omitempty"`
	SecondaryDiagnosisCodeList      []IoceDiagnosis `json:"secondary_diagnosis_code_list,omitempty"`

	LineItemList []IoceLine `json:"line_item_list,omitempty"`
}
