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

const ltchClass = "gov.cms.fiss.pricers.ltch.core.LtchPricerDispatch"

// Provider types a long-term care hospital may bill under.
var ltchProviderTypes = map[string]bool{"02": true, "2": true, "52": true}

// Ltch prices long-term care hospital stays. The DRG comes from the
// grouper; a billed provider must carry an LTCH provider type in the
// inpatient provider file.
type Ltch struct {
	pricer
	ipsf refdata.IpsfRepo
}

// NewLtch starts the long-term care dispatch for the given fiscal years.
func NewLtch(ctx context.Context, runner engine.Runner, ipsf refdata.IpsfRepo, years []int, log zerolog.Logger) (*Ltch, error) {
	p, err := newPricer(ctx, runner, "ltch", ltchClass, years, log)
	if err != nil {
		return nil, err
	}
	return &Ltch{pricer: p, ipsf: ipsf}, nil
}

func (c *Ltch) Name() claim.Module           { return claim.LTCH }
func (c *Ltch) Dependencies() []claim.Module { return []claim.Module{claim.MSDRG} }

// Validate checks the stay fields long-term care pricing cannot run
// without.
func (c *Ltch) Validate(cl *claim.Claim) error {
	if cl.ThruDate == nil {
		return errdefs.Validation("ltch requires a claim thru_date")
	}
	if cl.LOS < cl.NonCoveredDays {
		return errdefs.Validation("length of stay cannot be less than non-covered days")
	}
	if cl.PrincipalDx == nil || cl.PrincipalDx.Code == "" {
		return errdefs.Validation("ltch requires a principal diagnosis")
	}
	_, err := pricingProvider(cl)
	return err
}

// Process prices the stay and records the payment report.
func (c *Ltch) Process(ctx context.Context, cl *claim.Claim, res *output.Result) error {
	if err := c.checkYear(cl); err != nil {
		return err
	}
	if res.Msdrg == nil || res.Msdrg.FinalDrgValue == "" {
		return errdefs.Validation("ltch requires ms-drg grouper output")
	}
	input, err := c.buildInput(ctx, cl, res.Msdrg)
	if err != nil {
		return err
	}
	reply, err := c.price(ctx, input)
	if err != nil {
		return err
	}
	out := &output.LtchOutput{}
	if err := engine.Decode(reply, out); err != nil {
		return err
	}
	out.ClaimID = cl.ClaimID
	res.Ltch = out
	return nil
}

func (c *Ltch) buildInput(ctx context.Context, cl *claim.Claim, drg *output.MsdrgOutput) (map[string]interface{}, error) {
	in := map[string]interface{}{
		"covered_charges":                   cl.TotalCharges,
		"covered_days":                      cl.LOS - cl.NonCoveredDays,
		"discharge_date":                    engine.CompactDate(cl.ThruDate),
		"length_of_stay":                    cl.LOS,
		"patient_status":                    cl.PatientStatus,
		"outlier_special_payment_indicator": "0",
		"lifetime_reserve_days":             0,
		"review_code":                       "00",
		"diagnosis_related_group":           drg.FinalDrgValue,
		"diagnosis_related_group_severity":  drg.FinalSeverity,
		"diagnosis_codes":                   claimDxs(cl),
	}
	if pxs := claimPxs(cl); len(pxs) > 0 {
		in["procedure_codes"] = pxs
	}

	prov, err := ipsfRow(ctx, c.ipsf, cl)
	if err != nil {
		return nil, err
	}
	// The provider-type gate applies only when the billing provider was
	// the one resolved; a servicing-provider fallback prices as-is.
	if cl.BillingProvider != nil {
		if pt := engine.Str(prov, "provider_type"); !ltchProviderTypes[pt] {
			return nil, errdefs.Validation("billed provider type %q is not payable as long-term care", pt)
		}
	}
	in["provider_ccn"] = engine.Str(prov, "provider_ccn")
	return map[string]interface{}{"claim": in, "provider": prov}, nil
}
