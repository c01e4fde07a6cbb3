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

const ippsClass = "gov.cms.fiss.pricers.ipps.core.IppsPricerDispatch"

// Ipps prices acute inpatient stays under the operating and capital PPS.
// It pays the DRG the grouper assigned; a claim priced without grouping
// must carry a drg code in additional data instead.
type Ipps struct {
	pricer
	ipsf refdata.IpsfRepo
}

// NewIpps starts the inpatient dispatch for the given fiscal years.
func NewIpps(ctx context.Context, runner engine.Runner, ipsf refdata.IpsfRepo, years []int, log zerolog.Logger) (*Ipps, error) {
	p, err := newPricer(ctx, runner, "ipps", ippsClass, years, log)
	if err != nil {
		return nil, err
	}
	return &Ipps{pricer: p, ipsf: ipsf}, nil
}

func (c *Ipps) Name() claim.Module           { return claim.IPPS }
func (c *Ipps) Dependencies() []claim.Module { return []claim.Module{claim.MSDRG} }

// Validate checks the stay fields inpatient pricing cannot run without.
func (c *Ipps) Validate(cl *claim.Claim) error {
	if cl.ThruDate == nil {
		return errdefs.Validation("ipps requires a claim thru_date")
	}
	if cl.LOS < cl.NonCoveredDays {
		return errdefs.Validation("length of stay cannot be less than non-covered days")
	}
	if cl.PrincipalDx == nil || cl.PrincipalDx.Code == "" {
		return errdefs.Validation("ipps requires a principal diagnosis")
	}
	_, err := pricingProvider(cl)
	return err
}

// Process prices the stay and records the payment report.
func (c *Ipps) Process(ctx context.Context, cl *claim.Claim, res *output.Result) error {
	if err := c.checkYear(cl); err != nil {
		return err
	}
	input, err := c.buildInput(ctx, cl, res.Msdrg)
	if err != nil {
		return err
	}
	reply, err := c.price(ctx, input)
	if err != nil {
		return err
	}
	out := &output.IppsOutput{}
	if err := engine.Decode(reply, out); err != nil {
		return err
	}
	out.ClaimID = cl.ClaimID
	res.Ipps = out
	return nil
}

func (c *Ipps) buildInput(ctx context.Context, cl *claim.Claim, drg *output.MsdrgOutput) (map[string]interface{}, error) {
	data := cl.ModuleData("ipps")
	review := engine.Str(data, "review_code")
	if review == "" {
		review = "00"
	}

	in := map[string]interface{}{
		"review_code":                     review,
		"lifetime_reserve_days":           engine.Int(data, "lifetime_reserve_days"),
		"midnight_adjustment_geolocation": engine.Str(data, "midnight_adjustment_geolocation"),
		"covered_charges":                 cl.TotalCharges,
		"covered_days":                    cl.LOS - cl.NonCoveredDays,
		"length_of_stay":                  cl.LOS,
		"discharge_date":                  engine.CompactDate(cl.ThruDate),
		"diagnosis_codes":                 claimDxs(cl),
	}
	if pxs := claimPxs(cl); len(pxs) > 0 {
		in["procedure_codes"] = pxs
	}
	var ndcs []string
	for _, line := range cl.Lines {
		if line.NDC != "" {
			ndcs = append(ndcs, line.NDC)
		}
	}
	if len(ndcs) > 0 {
		in["national_drug_codes"] = ndcs
	}
	if len(cl.CondCodes) > 0 {
		in["condition_codes"] = cl.CondCodes
	}
	if len(cl.DemoCodes) > 0 {
		in["demo_codes"] = cl.DemoCodes
	}

	switch {
	case drg != nil && drg.FinalDrgValue != "":
		in["diagnosis_related_group"] = drg.FinalDrgValue
		in["diagnosis_related_group_severity"] = drg.FinalSeverity
	case engine.Str(cl.AdditionalData, "drg") != "":
		in["diagnosis_related_group"] = engine.Str(cl.AdditionalData, "drg")
	default:
		return nil, errdefs.Validation("ipps requires grouper output or a drg code in additional data")
	}
	if cl.BillingProvider != nil {
		in["provider_ccn"] = cl.BillingProvider.OtherID
	}

	prov, err := ipsfRow(ctx, c.ipsf, cl)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"claim":     in,
		"provider":  prov,
		"hmo_claim": cl.HMO,
	}, nil
}
