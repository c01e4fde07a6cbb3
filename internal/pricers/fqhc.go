package pricers

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/internal/refdata"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/errdefs"
	"github.com/librepps/gopps/pkg/output"
)

const fqhcClass = "gov.cms.fiss.pricers.fqhc.core.FqhcPricerDispatch"

// Fqhc prices federally qualified health center claims. Instead of a
// provider file row the engine wants the Part B carrier and pricing
// locality, carried on the provider or resolved from its zip code.
type Fqhc struct {
	pricer
	zip9 refdata.Zip9Repo
}

// NewFqhc starts the health center dispatch for the given fiscal years.
func NewFqhc(ctx context.Context, runner engine.Runner, zip9 refdata.Zip9Repo, years []int, log zerolog.Logger) (*Fqhc, error) {
	p, err := newPricer(ctx, runner, "fqhc", fqhcClass, years, log)
	if err != nil {
		return nil, err
	}
	return &Fqhc{pricer: p, zip9: zip9}, nil
}

func (c *Fqhc) Name() claim.Module           { return claim.FQHC }
func (c *Fqhc) Dependencies() []claim.Module { return []claim.Module{claim.IOCE} }

// Validate checks the fields health center pricing cannot run without.
func (c *Fqhc) Validate(cl *claim.Claim) error {
	if cl.FromDate == nil {
		return errdefs.Validation("fqhc requires a claim from_date")
	}
	if cl.ThruDate == nil {
		return errdefs.Validation("fqhc requires a claim thru_date")
	}
	if cl.BillingProvider == nil && cl.ServicingProvider == nil {
		return errdefs.Validation("a billing or servicing provider with a carrier and locality is required")
	}
	return nil
}

// Process prices the claim and records the payment report.
func (c *Fqhc) Process(ctx context.Context, cl *claim.Claim, res *output.Result) error {
	if err := c.checkYear(cl); err != nil {
		return err
	}
	if res.Ioce == nil {
		return errdefs.Validation("fqhc requires ioce editor output")
	}
	input, err := c.buildInput(ctx, cl, res.Ioce)
	if err != nil {
		return err
	}
	reply, err := c.price(ctx, input)
	if err != nil {
		return err
	}
	out := &output.FqhcOutput{}
	if err := engine.Decode(reply, out); err != nil {
		return err
	}
	out.ClaimID = cl.ClaimID
	res.Fqhc = out
	return nil
}

func (c *Fqhc) buildInput(ctx context.Context, cl *claim.Claim, ioce *output.IoceOutput) (map[string]interface{}, error) {
	in := map[string]interface{}{
		"service_from_date":    engine.CompactDate(cl.FromDate),
		"service_through_date": engine.CompactDate(cl.ThruDate),
		"demo_codes":           cl.DemoCodes,
		"ioce_service_lines":   fqhcServiceLines(ioce),
	}
	if err := c.setLocality(ctx, cl, in); err != nil {
		return nil, err
	}

	data := cl.ModuleData("fqhc")
	if pct := engine.FloatPtr(data, "mdpcp_reduction_percentage"); pct != nil {
		in["mdpcp_reduction_percent"] = *pct
	}
	if amt := engine.FloatPtr(data, "med_advantage_plan_amount"); amt != nil {
		in["medicare_advantage_plan_amount"] = *amt
	}
	return map[string]interface{}{"claim": in}, nil
}

// setLocality fills in who prices the claim. A provider carrying an
// explicit carrier and locality wins; otherwise its zip code resolves
// through the carrier locality file, under the code key pair.
func (c *Fqhc) setLocality(ctx context.Context, cl *claim.Claim, in map[string]interface{}) error {
	prov := cl.BillingProvider
	if prov == nil {
		prov = cl.ServicingProvider
	}
	if prov == nil {
		return errdefs.Validation("a billing or servicing provider with a carrier and locality is required")
	}
	if strings.TrimSpace(prov.Carrier) != "" && strings.TrimSpace(prov.Locality) != "" {
		in["carrier"] = prov.Carrier
		in["locality"] = prov.Locality
		return nil
	}
	zip5 := strings.TrimSpace(prov.Address.Zip)
	if zip5 == "" {
		return errdefs.Validation("a billing or servicing provider with a carrier and locality is required")
	}
	loc, err := c.zip9.LookupCarrierLocality(ctx, zip5, strings.TrimSpace(prov.Address.Zip4), cl.FromDate.String(), cl.ThruDate.String())
	if err != nil {
		return err
	}
	in["carrier_code"] = loc.Carrier
	in["locality_code"] = loc.Locality
	return nil
}

// fqhcServiceLines replays the editor's adjudicated lines in the
// pricer's wire shape, numbering them from one.
func fqhcServiceLines(ioce *output.IoceOutput) []map[string]interface{} {
	lines := make([]map[string]interface{}, 0, len(ioce.LineItemList))
	for i := range ioce.LineItemList {
		el := &ioce.LineItemList[i]
		mods := make([]string, 0, len(el.HcpcsModifierOutputList))
		for _, mod := range el.HcpcsModifierOutputList {
			mods = append(mods, mod.HcpcsModifier)
		}
		var adjFlags []string
		if strings.TrimSpace(el.PaymentAdjustmentFlag01.Flag) != "" {
			adjFlags = append(adjFlags, el.PaymentAdjustmentFlag01.Flag)
		}
		if strings.TrimSpace(el.PaymentAdjustmentFlag02.Flag) != "" {
			adjFlags = append(adjFlags, el.PaymentAdjustmentFlag02.Flag)
		}
		lines = append(lines, map[string]interface{}{
			"line_number":               i + 1,
			"action_flag":               el.ActionFlagOutput,
			"billed_units":              intVal(el.UnitsInput),
			"composite_adjustment_flag": el.CompositeAdjustmentFlag,
			"covered_charges":           floatVal(el.Charge),
			"date_of_service":           engine.CompactDate(el.ServiceDate),
			"deny_or_reject_flag":       el.RejectionDenialFlag,
			"discounting_formula":       intVal(el.DiscountingFormula),
			"hcpcs_code":                el.Hcpcs,
			"hcpcs_modifiers":           mods,
			"payment_adjustment_flags":  adjFlags,
			"package_flag":              el.PackagingFlag.Flag,
			"payment_indicator":         el.PaymentIndicator,
			"payment_method_flag":       el.PaymentMethodFlag,
			"revenue_code":              el.RevenueCode,
			"service_units":             intVal(el.UnitsOutput),
			"status_indicator":          el.StatusIndicator,
		})
	}
	return lines
}
