package ioce

import (
	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/output"
)

func extractOutput(reply map[string]interface{}) *output.IoceOutput {
	out := &output.IoceOutput{
		Version:             engine.Str(reply, "version"),
		ClaimProcessedFlag:  engine.Str(reply, "claim_processed_flag"),
		ApcReturnBufferFlag: engine.Str(reply, "apc_return_buffer_flag"),
		NoppsBillFlag:       engine.Str(reply, "nopps_bill_flag"),

		ClaimDisposition:                 engine.Str(reply, "claim_disposition"),
		ClaimRejectionDisposition:        engine.Str(reply, "claim_rejection_disposition"),
		ClaimDenialDisposition:           engine.Str(reply, "claim_denial_disposition"),
		ClaimReturnToProviderDisposition: engine.Str(reply, "claim_return_to_provider_disposition"),
		ClaimSuspensionDisposition:       engine.Str(reply, "claim_suspension_disposition"),
		LineRejectionDisposition:         engine.Str(reply, "line_rejection_disposition"),
		LineDenialDisposition:            engine.Str(reply, "line_denial_disposition"),

		ClaimRejectionEditList:        editList(reply, "claim_rejection_edit_list"),
		ClaimDenialEditList:           editList(reply, "claim_denial_edit_list"),
		ClaimReturnToProviderEditList: editList(reply, "claim_return_to_provider_edit_list"),
		ClaimSuspensionEditList:       editList(reply, "claim_suspension_edit_list"),
		LineRejectionEditList:         editList(reply, "line_rejection_edit_list"),
		LineDenialEditList:            editList(reply, "line_denial_edit_list"),

		ConditionCodeOutputList: engine.Strings(reply, "condition_code_output_list"),
	}
	if pi := engine.SubMap(reply, "processing_information"); pi != nil {
		out.ProcessingInformation = processingInfo(pi)
	}
	for _, m := range engine.Maps(reply, "value_code_output_list") {
		vc := output.IoceValueCode{
			Code:  engine.Str(m, "code"),
			Value: engine.Str(m, "value"),
		}
		if vc.Code == "" && vc.Value == "" {
			continue
		}
		out.ValueCodeOutputList = append(out.ValueCodeOutputList, vc)
	}
	if m := engine.SubMap(reply, "principal_diagnosis_code"); m != nil {
		out.PrincipalDiagnosisCode = diagnosis(m)
	}
	for _, m := range engine.Maps(reply, "reason_for_visit_diagnosis_code_list") {
		out.ReasonForVisitDiagnosisCodeList = append(out.ReasonForVisitDiagnosisCodeList, diagnosis(m))
	}
	for _, m := range engine.Maps(reply, "secondary_diagnosis_code_list") {
		out.SecondaryDiagnosisCodeList = append(out.SecondaryDiagnosisCodeList, diagnosis(m))
	}
	for _, m := range engine.Maps(reply, "line_item_list") {
		out.LineItemList = append(out.LineItemList, lineItem(m))
	}
	return out
}

func processingInfo(m map[string]interface{}) output.IoceProcessingInfo {
	return output.IoceProcessingInfo{
		ClaimID:         engine.Str(m, "claim_id"),
		ReturnCode:      output.IoceReturnCode{Code: engine.Int(m, "return_code")},
		LinesProcessed:  engine.Int(m, "lines_processed"),
		InternalVersion: engine.Int(m, "internal_version"),
		Version:         engine.Str(m, "version"),
		TimeStarted:     int64(engine.Int(m, "time_started")),
		TimeEnded:       int64(engine.Int(m, "time_ended")),
		DebugFlag:       engine.Str(m, "debug_flag"),
		CommentData:     engine.Str(m, "comment_data"),
	}
}

func editList(m map[string]interface{}, key string) []output.IoceEdit {
	var edits []output.IoceEdit
	for _, e := range engine.Strings(m, key) {
		edits = append(edits, output.IoceEdit{Edit: e})
	}
	return edits
}

func diagnosis(m map[string]interface{}) output.IoceDiagnosis {
	return output.IoceDiagnosis{
		Diagnosis:          engine.Str(m, "diagnosis"),
		PresentOnAdmission: engine.Str(m, "present_on_admission"),
		EditList:           editList(m, "edit_list"),
	}
}

func modifier(m map[string]interface{}) output.IoceModifier {
	return output.IoceModifier{
		HcpcsModifier: engine.Str(m, "hcpcs_modifier"),
		EditList:      editList(m, "edit_list"),
	}
}

func lineItem(m map[string]interface{}) output.IoceLine {
	li := output.IoceLine{
		RevenueCode:             engine.Str(m, "revenue_code"),
		Hcpcs:                   engine.Str(m, "hcpcs"),
		UnitsInput:              engine.IntPtr(m, "units_input"),
		Charge:                  engine.FloatPtr(m, "charge"),
		ActionFlagInput:         engine.Str(m, "action_flag_input"),
		ActionFlagOutput:        engine.Str(m, "action_flag_output"),
		RejectionDenialFlag:     engine.Str(m, "rejection_denial_flag"),
		PaymentMethodFlag:       engine.Str(m, "payment_method_flag"),
		HcpcsApc:                engine.Str(m, "hcpcs_apc"),
		PaymentApc:              engine.Str(m, "payment_apc"),
		UnitsOutput:             engine.IntPtr(m, "units_output"),
		StatusIndicator:         engine.Str(m, "status_indicator"),
		PaymentIndicator:        engine.Str(m, "payment_indicator"),
		DiscountingFormula:      engine.IntPtr(m, "discounting_formula"),
		CompositeAdjustmentFlag: engine.Str(m, "composite_adjustment_flag"),
		HcpcsEditList:           editList(m, "hcpcs_edit_list"),
		RevenueEditList:         editList(m, "revenue_edit_list"),
		ServiceDateEditList:     editList(m, "service_date_edit_list"),
	}
	if s := engine.Str(m, "service_date"); s != "" {
		if d, err := claim.ParseDate(s); err == nil {
			li.ServiceDate = &d
		}
	}
	if flag := engine.Str(m, "packaging_flag"); flag != "" {
		li.PackagingFlag = output.IoceFlag{Flag: flag}
	}
	if flag := engine.Str(m, "payment_adjustment_flag01"); flag != "" {
		li.PaymentAdjustmentFlag01 = output.IoceFlag{Flag: flag}
	}
	if flag := engine.Str(m, "payment_adjustment_flag02"); flag != "" {
		li.PaymentAdjustmentFlag02 = output.IoceFlag{Flag: flag}
	}
	for _, mod := range engine.Maps(m, "hcpcs_modifier_input_list") {
		li.HcpcsModifierInputList = append(li.HcpcsModifierInputList, modifier(mod))
	}
	for _, mod := range engine.Maps(m, "hcpcs_modifier_output_list") {
		li.HcpcsModifierOutputList = append(li.HcpcsModifierOutputList, modifier(mod))
	}
	return li
}
