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

const hhaClass = "gov.cms.fiss.pricers.hha.core.HhaPricerDispatch"

// revenueBucket aggregates one revenue code's lines for home health
// pricing: earliest dated service, visit count, and summed units.
type revenueBucket struct {
	code     string
	earliest *claim.Date
	count    int
	units    int
}

// Hha prices home health periods under PDGM. The period's HIPPS code
// comes from the grouper when it ran, otherwise from the claim's
// revenue 0023 line.
type Hha struct {
	pricer
	ipsf refdata.IpsfRepo
}

// NewHha starts the home health dispatch for the given fiscal years.
func NewHha(ctx context.Context, runner engine.Runner, ipsf refdata.IpsfRepo, years []int, log zerolog.Logger) (*Hha, error) {
	p, err := newPricer(ctx, runner, "hha", hhaClass, years, log)
	if err != nil {
		return nil, err
	}
	return &Hha{pricer: p, ipsf: ipsf}, nil
}

func (c *Hha) Name() claim.Module           { return claim.HHA }
func (c *Hha) Dependencies() []claim.Module { return []claim.Module{claim.HHAG} }

// Validate checks the period fields home health pricing cannot run
// without.
func (c *Hha) Validate(cl *claim.Claim) error {
	if cl.FromDate == nil {
		return errdefs.Validation("hha requires a claim from_date")
	}
	if cl.ThruDate == nil {
		return errdefs.Validation("hha requires a claim thru_date")
	}
	_, err := pricingProvider(cl)
	return err
}

// Process prices the period and records the payment report. The report
// carries the HIPPS code that was actually priced so callers can see
// which input the payment answers.
func (c *Hha) Process(ctx context.Context, cl *claim.Claim, res *output.Result) error {
	if err := c.checkYear(cl); err != nil {
		return err
	}
	input, hipps, err := c.buildInput(ctx, cl, res.Hhag)
	if err != nil {
		return err
	}
	reply, err := c.price(ctx, input)
	if err != nil {
		return err
	}
	out := &output.HhaOutput{}
	if err := engine.Decode(reply, out); err != nil {
		return err
	}
	out.ClaimID = cl.ClaimID
	out.HhrgCode = hipps
	res.Hha = out
	return nil
}

func (c *Hha) buildInput(ctx context.Context, cl *claim.Claim, grouped *output.HhagOutput) (map[string]interface{}, string, error) {
	hipps, err := hippsCode(cl, grouped)
	if err != nil {
		return nil, "", err
	}

	admit := cl.AdmitDate
	if admit == nil {
		admit = cl.FromDate
	}
	// A missing notice receipt date prices as received on time.
	receipt := "18000101"
	if cl.ReceiptDate != nil {
		receipt = cl.ReceiptDate.Compact()
	}
	lupa := "1"
	for _, code := range cl.CondCodes {
		if code == "47" {
			lupa = "B"
		}
	}
	pep := "0"
	if cl.PatientStatus == "06" {
		pep = "1"
	}

	in := map[string]interface{}{
		"admission_date":                    engine.CompactDate(admit),
		"service_from_date":                 engine.CompactDate(cl.FromDate),
		"service_through_date":              engine.CompactDate(cl.ThruDate),
		"notice_receipt_date":               receipt,
		"hhrg_number_of_days":               hhrgDays(cl),
		"hhrg_input_code":                   hipps,
		"type_of_bill":                      cl.BillType,
		"lupa_source_admission_indicator":   lupa,
		"partial_episode_payment_indicator": pep,
		"revenue_lines":                     revenueLines(cl),
	}
	data := cl.ModuleData("hha")
	in["adjustment_indicator"] = strOr(data, "adjustment_indicator", "0")
	in["initial_payment_quality_reporting_program_indicator"] = strOr(data, "initial_payment_quality_reporting_program_indicator", "0")
	in["late_filing_penalty_waiver_indicator"] = strOr(data, "late_filing_penalty_waiver_indicator", "0")
	in["prior_payment_total"] = engine.Float(data, "prior_payment_total")
	in["prior_outlier_total"] = engine.Float(data, "prior_outlier_total")

	prov, err := ipsfRow(ctx, c.ipsf, cl)
	if err != nil {
		return nil, "", err
	}
	in["provider_ccn"] = engine.Str(prov, "provider_ccn")

	// The special provider update factor doubles as the value-based
	// purchasing adjustment when the file carries no explicit one.
	if f := engine.Float(prov, "special_provider_update_factor"); f > 0 && engine.Float(prov, "vbp_adjustment") == 0 {
		prov["vbp_adjustment"] = f
	}
	// Home health pays on the beneficiary's locale, not the agency's.
	if cl.Patient != nil && cl.Patient.Address != (claim.Address{}) {
		if zip := cl.Patient.Address.Zip; zip != "" {
			if len(zip) > 5 {
				zip = zip[:5]
			}
			prov["county_code"] = zip
			prov["cbsa_actual_geographic_location"] = zip
		}
	}
	return map[string]interface{}{"claim": in, "provider": prov}, hipps, nil
}

// hippsCode resolves the payment group input: grouper output first, then
// the last revenue 0023 line that carries one.
func hippsCode(cl *claim.Claim, grouped *output.HhagOutput) (string, error) {
	if grouped != nil && grouped.HippsCode != "" {
		return grouped.HippsCode, nil
	}
	code := ""
	for _, line := range cl.Lines {
		if line.RevenueCode == "0023" && line.Hcpcs != "" {
			code = line.Hcpcs
		}
	}
	if code == "" {
		return "", errdefs.Validation("hha requires hhag output or a hipps code on a revenue 0023 line")
	}
	return code, nil
}

// hhrgDays measures the span of the revenue 0023 lines in days, zero
// when the claim has no dated 0023 line.
func hhrgDays(cl *claim.Claim) int {
	var earliest, latest *claim.Date
	for i := range cl.Lines {
		line := &cl.Lines[i]
		if line.RevenueCode != "0023" || line.ServiceDate == nil {
			continue
		}
		if earliest == nil || line.ServiceDate.Before(*earliest) {
			earliest = line.ServiceDate
		}
		if latest == nil || line.ServiceDate.After(*latest) {
			latest = line.ServiceDate
		}
	}
	if earliest == nil || latest == nil {
		return 0
	}
	return claim.DaysBetween(*earliest, *latest) + 1
}

// revenueLines folds the claim lines into per-revenue-code visit
// aggregates, in first-billed order. Header lines ("0000") and the
// HIPPS line ("0023") never price as visits.
func revenueLines(cl *claim.Claim) []map[string]interface{} {
	var order []*revenueBucket
	byCode := map[string]*revenueBucket{}
	for i := range cl.Lines {
		line := &cl.Lines[i]
		code := strings.TrimSpace(line.RevenueCode)
		if code == "" || code == "0000" || code == "0023" {
			continue
		}
		b := byCode[code]
		if b == nil {
			b = &revenueBucket{code: code}
			byCode[code] = b
			order = append(order, b)
		}
		if line.ServiceDate != nil {
			if b.earliest == nil || line.ServiceDate.Before(*b.earliest) {
				b.earliest = line.ServiceDate
			}
		}
		b.count++
		b.units += line.Units
	}

	lines := make([]map[string]interface{}, 0, len(order))
	for _, b := range order {
		lines = append(lines, map[string]interface{}{
			"earliest_line_item_date":    engine.CompactDate(b.earliest),
			"revenue_code":               b.code,
			"quantity_of_covered_visits": b.count,
			"quantity_of_outlier_units":  b.units,
		})
	}
	return lines
}
