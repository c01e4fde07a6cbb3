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

const irfClass = "gov.cms.fiss.pricers.irf.core.IrfPricerDispatch"

// Irf prices inpatient rehabilitation stays. The case-mix group comes
// from the CMG grouper when it ran, otherwise from the claim's revenue
// 0024 line.
type Irf struct {
	pricer
	ipsf refdata.IpsfRepo
}

// NewIrf starts the rehabilitation dispatch for the given fiscal years.
func NewIrf(ctx context.Context, runner engine.Runner, ipsf refdata.IpsfRepo, years []int, log zerolog.Logger) (*Irf, error) {
	p, err := newPricer(ctx, runner, "irf", irfClass, years, log)
	if err != nil {
		return nil, err
	}
	return &Irf{pricer: p, ipsf: ipsf}, nil
}

func (c *Irf) Name() claim.Module           { return claim.IRF }
func (c *Irf) Dependencies() []claim.Module { return []claim.Module{claim.CMG} }

// Validate checks the stay fields rehabilitation pricing cannot run
// without.
func (c *Irf) Validate(cl *claim.Claim) error {
	if cl.ThruDate == nil {
		return errdefs.Validation("irf requires a claim thru_date")
	}
	if cl.LOS < cl.NonCoveredDays {
		return errdefs.Validation("length of stay cannot be less than non-covered days")
	}
	_, err := pricingProvider(cl)
	return err
}

// Process prices the stay and records the payment report.
func (c *Irf) Process(ctx context.Context, cl *claim.Claim, res *output.Result) error {
	if err := c.checkYear(cl); err != nil {
		return err
	}
	input, err := c.buildInput(ctx, cl, res.Cmg)
	if err != nil {
		return err
	}
	reply, err := c.price(ctx, input)
	if err != nil {
		return err
	}
	out := &output.IrfOutput{}
	if err := engine.Decode(reply, out); err != nil {
		return err
	}
	out.ClaimID = cl.ClaimID
	res.Irf = out
	return nil
}

func (c *Irf) buildInput(ctx context.Context, cl *claim.Claim, grouped *output.CmgOutput) (map[string]interface{}, error) {
	cmg, err := caseMixGroup(cl, grouped)
	if err != nil {
		return nil, err
	}

	outlier := "0"
	for _, cond := range cl.CondCodes {
		if cond == "66" {
			outlier = "1"
		}
	}

	in := map[string]interface{}{
		"case_mix_group":                    cmg,
		"covered_charges":                   cl.TotalCharges,
		"covered_days":                      cl.LOS - cl.NonCoveredDays,
		"discharge_date":                    engine.CompactDate(cl.ThruDate),
		"length_of_stay":                    cl.LOS,
		"patient_status":                    cl.PatientStatus,
		"outlier_special_payment_indicator": outlier,
	}
	if n := engine.IntPtr(cl.ModuleData("irf"), "lifetime_reserve_days"); n != nil {
		in["lifetime_reserve_days"] = *n
	}

	prov, err := ipsfRow(ctx, c.ipsf, cl)
	if err != nil {
		return nil, err
	}
	in["provider_ccn"] = engine.Str(prov, "provider_ccn")
	return map[string]interface{}{"claim": in, "provider": prov}, nil
}

// caseMixGroup resolves the CMG input: grouper output first, then the
// claim's revenue 0024 line. A 0024 line with a blank code is a billing
// error rather than an absence.
func caseMixGroup(cl *claim.Claim, grouped *output.CmgOutput) (string, error) {
	if grouped != nil {
		if grouped.CmgGroup == "" {
			return "", errdefs.Validation("cmg code is required for irf claims")
		}
		return grouped.CmgGroup, nil
	}
	code := ""
	for _, line := range cl.Lines {
		if line.RevenueCode != "0024" {
			continue
		}
		if strings.TrimSpace(line.Hcpcs) == "" {
			return "", errdefs.Validation("cmg code is required for irf claims")
		}
		code = strings.TrimSpace(line.Hcpcs)
	}
	if code == "" {
		return "", errdefs.Validation("cmg code is required for irf claims")
	}
	return code, nil
}
