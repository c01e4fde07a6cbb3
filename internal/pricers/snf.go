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

const snfClass = "gov.cms.fiss.pricers.snf.core.SnfPricerDispatch"

// Snf prices skilled nursing stays under PDPM. The payment group rides
// the claim's revenue 0022 assessment line as a HIPPS code.
type Snf struct {
	pricer
	ipsf refdata.IpsfRepo
}

// NewSnf starts the skilled nursing dispatch for the given fiscal years.
func NewSnf(ctx context.Context, runner engine.Runner, ipsf refdata.IpsfRepo, years []int, log zerolog.Logger) (*Snf, error) {
	p, err := newPricer(ctx, runner, "snf", snfClass, years, log)
	if err != nil {
		return nil, err
	}
	return &Snf{pricer: p, ipsf: ipsf}, nil
}

func (c *Snf) Name() claim.Module           { return claim.SNF }
func (c *Snf) Dependencies() []claim.Module { return nil }

// Validate checks the stay fields skilled nursing pricing cannot run
// without.
func (c *Snf) Validate(cl *claim.Claim) error {
	if cl.FromDate == nil {
		return errdefs.Validation("snf requires a claim from_date")
	}
	if cl.ThruDate == nil {
		return errdefs.Validation("snf requires a claim thru_date")
	}
	if _, err := assessmentLine(cl); err != nil {
		return err
	}
	_, err := pricingProvider(cl)
	return err
}

// Process prices the stay and records the payment report.
func (c *Snf) Process(ctx context.Context, cl *claim.Claim, res *output.Result) error {
	if err := c.checkYear(cl); err != nil {
		return err
	}
	input, err := c.buildInput(ctx, cl)
	if err != nil {
		return err
	}
	reply, err := c.price(ctx, input)
	if err != nil {
		return err
	}
	out := &output.SnfOutput{}
	if err := engine.Decode(reply, out); err != nil {
		return err
	}
	out.ClaimID = cl.ClaimID
	res.Snf = out
	return nil
}

// assessmentLine finds the earliest dated revenue 0022 line, the MDS
// assessment the stay is grouped under.
func assessmentLine(cl *claim.Claim) (*claim.LineItem, error) {
	var best *claim.LineItem
	for i := range cl.Lines {
		line := &cl.Lines[i]
		if line.RevenueCode != "0022" || line.ServiceDate == nil {
			continue
		}
		if best == nil || line.ServiceDate.Before(*best.ServiceDate) {
			best = line
		}
	}
	if best == nil || strings.TrimSpace(best.Hcpcs) == "" || best.Units <= 0 {
		return nil, errdefs.Validation("snf requires a revenue 0022 line with a hipps code, units, and a service date")
	}
	return best, nil
}

func (c *Snf) buildInput(ctx context.Context, cl *claim.Claim) (map[string]interface{}, error) {
	line, err := assessmentLine(cl)
	if err != nil {
		return nil, err
	}
	data := cl.ModuleData("snf")
	in := map[string]interface{}{
		"hipps_code":           line.Hcpcs,
		"service_units":        line.Units,
		"service_from_date":    engine.CompactDate(cl.FromDate),
		"service_through_date": engine.CompactDate(cl.ThruDate),
		"pdpm_prior_days":      engine.Int(data, "prior_pdpm_days"),
		"diagnosis_codes":      claimDxs(cl),
	}

	prov, err := ipsfRow(ctx, c.ipsf, cl)
	if err != nil {
		return nil, err
	}
	in["provider_ccn"] = engine.Str(prov, "provider_ccn")
	return map[string]interface{}{"claim": in, "provider": prov}, nil
}
