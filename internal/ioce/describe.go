package ioce

import (
	"context"
	"strconv"
	"strings"

	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/pkg/output"
)

// descriptor answers description lookups against the editor component.
// Lookups are best-effort: the first bridge failure turns every later
// lookup into a no-op and the report ships without descriptions.
type descriptor struct {
	runner   engine.Runner
	instance string
	version  int
	err      error
}

func (d *descriptor) lookup(ctx context.Context, method string, args ...interface{}) string {
	if d.err != nil {
		return ""
	}
	res, err := d.runner.Invoke(ctx, engine.Request{
		Op:       engine.OpDescribe,
		Instance: d.instance,
		Method:   method,
		Payload:  map[string]interface{}{"args": args},
	})
	if err != nil {
		d.err = err
		return ""
	}
	return engine.Str(res, "value")
}

func (d *descriptor) editDescriptions(ctx context.Context, edits []output.IoceEdit) {
	for i := range edits {
		if edits[i].Edit == "" {
			continue
		}
		edits[i].Description = d.lookup(ctx, "getEditDescription", editNumber(edits[i].Edit), d.version)
	}
}

func (d *descriptor) diagnosisDescriptions(ctx context.Context, dx *output.IoceDiagnosis) {
	if dx.Diagnosis != "" {
		dx.Description = d.lookup(ctx, "getDiagnosisDescription", dx.Diagnosis, d.version)
	}
	d.editDescriptions(ctx, dx.EditList)
}

func (d *descriptor) lineDescriptions(ctx context.Context, line *output.IoceLine) {
	if line.Hcpcs != "" {
		line.HcpcsDescription = d.lookup(ctx, "getHcpcsDescription", line.Hcpcs, d.version)
	}
	if line.HcpcsApc != "" {
		line.HcpcsApcDescription = d.lookup(ctx, "getApcDescription", line.HcpcsApc, d.version)
	}
	if line.PaymentApc != "" {
		line.PaymentApcDescription = d.lookup(ctx, "getApcDescription", line.PaymentApc, d.version)
	}
	if line.StatusIndicator != "" {
		line.StatusIndicatorDescription = d.lookup(ctx, "getStatusIndicatorDescription", line.StatusIndicator, d.version)
	}
	d.editDescriptions(ctx, line.HcpcsEditList)
	d.editDescriptions(ctx, line.RevenueEditList)
	d.editDescriptions(ctx, line.ServiceDateEditList)
	for i := range line.HcpcsModifierInputList {
		d.editDescriptions(ctx, line.HcpcsModifierInputList[i].EditList)
	}
	for i := range line.HcpcsModifierOutputList {
		d.editDescriptions(ctx, line.HcpcsModifierOutputList[i].EditList)
	}
	if line.PackagingFlag.Flag != "" {
		line.PackagingFlag.Description = d.lookup(ctx, "getPackagingFlagDescription", line.PackagingFlag.Flag, d.version)
	}
	if line.PaymentAdjustmentFlag01.Flag != "" {
		line.PaymentAdjustmentFlag01.Description = d.lookup(ctx, "getPaymentAdjustmentFlagDescription", line.PaymentAdjustmentFlag01.Flag, d.version)
	}
	if line.PaymentAdjustmentFlag02.Flag != "" {
		line.PaymentAdjustmentFlag02.Description = d.lookup(ctx, "getPaymentAdjustmentFlagDescription", line.PaymentAdjustmentFlag02.Flag, d.version)
	}
}

// appendDescriptions walks the whole report and fills every description
// field from the component's lookup tables, keyed by the internal version
// the claim was edited under.
func (c *Client) appendDescriptions(ctx context.Context, out *output.IoceOutput) error {
	d := &descriptor{
		runner:   c.runner,
		instance: c.instance,
		version:  out.ProcessingInformation.InternalVersion,
	}

	out.ProcessingInformation.ReturnCode.Description = d.lookup(ctx,
		"getLatestErrorDescription", strconv.Itoa(out.ProcessingInformation.ReturnCode.Code))
	if out.ClaimProcessedFlag != "" {
		out.ClaimProcessedFlagDescription = d.lookup(ctx,
			"getClaimProcessedFlagDescription", out.ClaimProcessedFlag, d.version)
	}

	// Disposition type ids 1..7 follow the component's lookup convention.
	// Type 1 reports against the rejection edit list.
	groups := []struct {
		typeID string
		value  string
		desc   *string
		vdesc  *string
		edits  []output.IoceEdit
	}{
		{"1", out.ClaimDisposition, &out.ClaimDispositionDescription, &out.ClaimDispositionValueDescription, out.ClaimRejectionEditList},
		{"2", out.ClaimRejectionDisposition, &out.ClaimRejectionDispositionDescription, &out.ClaimRejectionDispositionValueDescription, out.ClaimRejectionEditList},
		{"3", out.ClaimDenialDisposition, &out.ClaimDenialDispositionDescription, &out.ClaimDenialDispositionValueDescription, out.ClaimDenialEditList},
		{"4", out.ClaimReturnToProviderDisposition, &out.ClaimReturnToProviderDispositionDescription, &out.ClaimReturnToProviderDispositionValueDescription, out.ClaimReturnToProviderEditList},
		{"5", out.ClaimSuspensionDisposition, &out.ClaimSuspensionDispositionDescription, &out.ClaimSuspensionDispositionValueDescription, out.ClaimSuspensionEditList},
		{"6", out.LineRejectionDisposition, &out.LineRejectionDispositionDescription, &out.LineRejectionDispositionValueDescription, out.LineRejectionEditList},
		{"7", out.LineDenialDisposition, &out.LineDenialDispositionDescription, &out.LineDenialDispositionValueDescription, out.LineDenialEditList},
	}
	for _, g := range groups {
		if g.value == "" {
			continue
		}
		*g.desc = d.lookup(ctx, "getClaimDispositionDescription", g.typeID, d.version)
		*g.vdesc = d.lookup(ctx, "getClaimDispositionValueDescription", g.typeID, g.value, d.version)
		d.editDescriptions(ctx, g.edits)
	}

	for i := range out.ReasonForVisitDiagnosisCodeList {
		d.diagnosisDescriptions(ctx, &out.ReasonForVisitDiagnosisCodeList[i])
	}
	for i := range out.LineItemList {
		d.lineDescriptions(ctx, &out.LineItemList[i])
	}
	if out.PrincipalDiagnosisCode.Diagnosis != "" {
		d.diagnosisDescriptions(ctx, &out.PrincipalDiagnosisCode)
	}
	for i := range out.SecondaryDiagnosisCodeList {
		d.diagnosisDescriptions(ctx, &out.SecondaryDiagnosisCodeList[i])
	}
	return d.err
}

// editNumber strips the zero padding the editor puts on edit numbers;
// lookups key on the bare number.
func editNumber(edit string) string {
	if n, err := strconv.Atoi(strings.TrimSpace(edit)); err == nil {
		return strconv.Itoa(n)
	}
	return edit
}
