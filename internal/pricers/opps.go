package pricers

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/internal/refdata"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/errdefs"
	"github.com/librepps/gopps/pkg/output"
)

const oppsClass = "gov.cms.fiss.pricers.opps.core.OppsPricerDispatch"

// Opps prices outpatient claims under the APC schedule. Service lines go
// to the pricer exactly as the IOCE editor returned them, joined back to
// the claim's lines by position for charges, dates and revenue codes.
type Opps struct {
	pricer
	opsf refdata.OpsfRepo
}

// NewOpps starts the outpatient dispatch for the given fiscal years.
func NewOpps(ctx context.Context, runner engine.Runner, opsf refdata.OpsfRepo, years []int, log zerolog.Logger) (*Opps, error) {
	p, err := newPricer(ctx, runner, "opps", oppsClass, years, log)
	if err != nil {
		return nil, err
	}
	return &Opps{pricer: p, opsf: opsf}, nil
}

func (c *Opps) Name() claim.Module           { return claim.OPPS }
func (c *Opps) Dependencies() []claim.Module { return []claim.Module{claim.IOCE} }

// Validate checks the claim fields outpatient pricing cannot run without.
func (c *Opps) Validate(cl *claim.Claim) error {
	if cl.FromDate == nil {
		return errdefs.Validation("opps requires a claim from_date")
	}
	if cl.ThruDate == nil {
		return errdefs.Validation("opps requires a claim thru_date")
	}
	_, err := pricingProvider(cl)
	return err
}

// Process prices the edited claim and records the payment report.
func (c *Opps) Process(ctx context.Context, cl *claim.Claim, res *output.Result) error {
	if err := c.checkYear(cl); err != nil {
		return err
	}
	if res.Ioce == nil {
		return errdefs.Validation("opps requires ioce editor output")
	}
	input, err := c.buildInput(ctx, cl, res.Ioce)
	if err != nil {
		return err
	}
	reply, err := c.price(ctx, input)
	if err != nil {
		return err
	}
	out := &output.OppsOutput{}
	if err := engine.Decode(reply, out); err != nil {
		return err
	}
	out.ClaimID = cl.ClaimID
	res.Opps = out
	return nil
}

func (c *Opps) buildInput(ctx context.Context, cl *claim.Claim, ioce *output.IoceOutput) (map[string]interface{}, error) {
	if len(ioce.LineItemList) > len(cl.Lines) {
		return nil, errdefs.Validation("ioce returned %d lines for a claim with %d",
			len(ioce.LineItemList), len(cl.Lines))
	}

	lines := make([]map[string]interface{}, 0, len(ioce.LineItemList))
	for i, el := range ioce.LineItemList {
		if el.DiscountingFormula == nil {
			return nil, errdefs.Validation("ioce line %d carries no discounting formula", i+1)
		}
		src := cl.Lines[i]
		line := map[string]interface{}{
			"line_number":               i + 1,
			"action_flag":               el.ActionFlagOutput,
			"payment_method_flag":       el.PaymentMethodFlag,
			"composite_adjustment_flag": el.CompositeAdjustmentFlag,
			"covered_charges":           src.Charges,
			"deny_or_reject_flag":       el.RejectionDenialFlag,
			"hcpcs_code":                el.Hcpcs,
			"hcpcs_apc":                 el.HcpcsApc,
			"payment_apc":               el.PaymentApc,
			"revenue_code":              src.RevenueCode,
			"status_indicator":          el.StatusIndicator,
			"payment_indicator":         el.PaymentIndicator,
			"package_flag":              el.PackagingFlag.Flag,
			"apc_service_units":         intVal(el.UnitsOutput),
			"discounting_formula":       *el.DiscountingFormula,
			"date_of_service":           engine.CompactDate(src.ServiceDate),
			"payment_adjustment_flags": []string{
				el.PaymentAdjustmentFlag01.Flag,
				el.PaymentAdjustmentFlag02.Flag,
			},
		}
		if len(src.Modifiers) > 0 {
			line["hcpcs_modifiers"] = src.Modifiers
		}
		lines = append(lines, line)
	}

	in := map[string]interface{}{
		"type_of_bill":       cl.BillType,
		"service_from_date":  engine.CompactDate(cl.FromDate),
		"ioce_service_lines": lines,
	}
	prov, err := opsfRow(ctx, c.opsf, cl)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"claim": in, "provider": prov}, nil
}
