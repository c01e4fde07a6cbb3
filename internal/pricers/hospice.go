package pricers

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/errdefs"
	"github.com/librepps/gopps/pkg/output"
)

const hospiceClass = "gov.cms.fiss.pricers.hospice.core.HospicePricerDispatch"

// careRevCodes are the four hospice levels of care. Lines under any
// other revenue code never form a billing group.
var careRevCodes = map[string]bool{
	"0651": true, // routine home care
	"0652": true, // continuous home care
	"0655": true, // inpatient respite care
	"0656": true, // general inpatient care
}

// expiredStatuses are the discharge statuses meaning the beneficiary
// died during the billing period.
var expiredStatuses = map[string]bool{"40": true, "41": true, "42": true}

// dateRange is an inclusive span of service dates.
type dateRange struct {
	start claim.Date
	end   claim.Date
}

func (r dateRange) contains(d claim.Date) bool {
	return !d.Before(r.start) && !d.After(r.end)
}

func inRanges(ranges []dateRange, d claim.Date) bool {
	for _, r := range ranges {
		if r.contains(d) {
			return true
		}
	}
	return false
}

// billingGroup folds one level of care into a single priced unit: the
// first covered line's date and HCPCS, with units pooled across lines.
type billingGroup struct {
	serviceDate *claim.Date
	hcpcs       string
	revenueCode string
	units       int
}

// Hospice prices hospice benefit periods. It is the one pricer with no
// provider file input: both localities ride the claim's value codes.
type Hospice struct {
	pricer
}

// NewHospice starts the hospice dispatch for the given fiscal years.
func NewHospice(ctx context.Context, runner engine.Runner, years []int, log zerolog.Logger) (*Hospice, error) {
	p, err := newPricer(ctx, runner, "hospice", hospiceClass, years, log)
	if err != nil {
		return nil, err
	}
	return &Hospice{pricer: p}, nil
}

func (c *Hospice) Name() claim.Module           { return claim.HOSPICE }
func (c *Hospice) Dependencies() []claim.Module { return nil }

// Validate checks that a death on the claim carries its date.
func (c *Hospice) Validate(cl *claim.Claim) error {
	if expiredStatuses[cl.PatientStatus] && cl.ThruDate == nil {
		return errdefs.Validation("claim has expired discharge status but no thru_date is set")
	}
	return nil
}

// Process prices the period and records the payment report.
func (c *Hospice) Process(ctx context.Context, cl *claim.Claim, res *output.Result) error {
	if err := c.checkYear(cl); err != nil {
		return err
	}
	input, err := c.buildInput(cl)
	if err != nil {
		return err
	}
	reply, err := c.price(ctx, input)
	if err != nil {
		return err
	}
	out := &output.HospiceOutput{}
	if err := engine.Decode(reply, out); err != nil {
		return err
	}
	out.ClaimID = cl.ClaimID
	res.Hospice = out
	return nil
}

func (c *Hospice) buildInput(cl *claim.Claim) (map[string]interface{}, error) {
	nonCovered := nonCoveredRanges(cl)
	groups, err := billingGroups(cl, nonCovered)
	if err != nil {
		return nil, err
	}
	eola, err := eolaUnits(cl, nonCovered)
	if err != nil {
		return nil, err
	}

	groupList := make([]map[string]interface{}, 0, len(groups))
	for _, g := range groups {
		groupList = append(groupList, map[string]interface{}{
			"date_of_service": engine.CompactDate(g.serviceDate),
			"hcpcs_code":      g.hcpcs,
			"revenue_code":    g.revenueCode,
			"units":           g.units,
		})
	}

	data := cl.ModuleData("hospice")
	in := map[string]interface{}{
		"prior_benefit_day_units":       engine.Int(data, "prior_benefit_day_units"),
		"reporting_quality_data":        strOr(data, "reporting_quality_data", "0"),
		"patient_cbsa":                  valueCbsa(cl, "61"),
		"provider_cbsa":                 valueCbsa(cl, "G8"),
		"billing_groups":                groupList,
		"end_of_life_add_on_days_units": eola[:],
	}
	if cl.FromDate != nil {
		in["service_from_date"] = cl.FromDate.Compact()
	}
	if cl.AdmitDate != nil {
		in["admission_date"] = cl.AdmitDate.Compact()
	}
	return map[string]interface{}{"claim": in}, nil
}

// nonCoveredRanges collects the occurrence span 77 date ranges, the
// days the benefit does not cover.
func nonCoveredRanges(cl *claim.Claim) []dateRange {
	var ranges []dateRange
	for _, span := range cl.SpanCodes {
		if span.Code == "77" && span.StartDate != nil && span.EndDate != nil {
			ranges = append(ranges, dateRange{start: *span.StartDate, end: *span.EndDate})
		}
	}
	return ranges
}

// routineCareRanges derives the routine home care windows from the
// revenue 0651 lines, each spanning its billed units in days.
func routineCareRanges(cl *claim.Claim) []dateRange {
	var ranges []dateRange
	for _, line := range cl.Lines {
		if line.RevenueCode != "0651" || line.ServiceDate == nil {
			continue
		}
		ranges = append(ranges, dateRange{
			start: *line.ServiceDate,
			end:   line.ServiceDate.AddDays(line.Units),
		})
	}
	return ranges
}

// billingGroups pools the care lines by revenue code, in first-billed
// order, dropping undated lines and lines inside non-covered spans.
// Units that exceed the covered days are a billing error.
func billingGroups(cl *claim.Claim, nonCovered []dateRange) ([]*billingGroup, error) {
	covered := cl.LOS
	for _, r := range nonCovered {
		days := claim.DaysBetween(r.start, r.end) + 1
		if days <= covered {
			covered -= days
		}
	}

	var order []*billingGroup
	byCode := map[string]*billingGroup{}
	for i := range cl.Lines {
		line := &cl.Lines[i]
		if !careRevCodes[line.RevenueCode] {
			continue
		}
		if line.ServiceDate == nil || inRanges(nonCovered, *line.ServiceDate) {
			continue
		}
		if g := byCode[line.RevenueCode]; g != nil {
			g.units += line.Units
			continue
		}
		g := &billingGroup{
			serviceDate: line.ServiceDate,
			hcpcs:       line.Hcpcs,
			revenueCode: line.RevenueCode,
			units:       line.Units,
		}
		byCode[line.RevenueCode] = g
		order = append(order, g)
	}

	for _, g := range order {
		days := g.units
		if g.revenueCode == "0652" {
			// Continuous home care bills in 15-minute increments.
			days = g.units / 96
		}
		if days > covered {
			return nil, errdefs.Validation("invalid billing for revenue code %s as units %d exceed covered days %d",
				g.revenueCode, g.units, covered)
		}
	}
	return order, nil
}

// deathDate is the claim thru date when the discharge status says the
// beneficiary died, nil otherwise.
func deathDate(cl *claim.Claim) (*claim.Date, error) {
	if !expiredStatuses[cl.PatientStatus] {
		return nil, nil
	}
	if cl.ThruDate == nil {
		return nil, errdefs.Validation("claim has expired discharge status but no thru_date is set")
	}
	return cl.ThruDate, nil
}

// eolaUnits counts the skilled visit units in each of the last seven
// days of life, index zero being the day of death. All zeros when the
// beneficiary did not die.
func eolaUnits(cl *claim.Claim, nonCovered []dateRange) ([7]int, error) {
	var units [7]int
	death, err := deathDate(cl)
	if err != nil {
		return units, err
	}
	if death == nil {
		return units, nil
	}
	routine := routineCareRanges(cl)
	for i := range cl.Lines {
		line := &cl.Lines[i]
		if !eolaVisit(line) || line.ServiceDate == nil {
			continue
		}
		if inRanges(nonCovered, *line.ServiceDate) || !inRanges(routine, *line.ServiceDate) {
			continue
		}
		days := claim.DaysBetween(*line.ServiceDate, *death)
		if days < 0 || days >= len(units) {
			continue
		}
		units[days] += line.Units
	}
	return units, nil
}

// eolaVisit reports whether a line is a nursing or social worker visit
// that can earn the end-of-life add-on.
func eolaVisit(line *claim.LineItem) bool {
	if strings.HasPrefix(line.RevenueCode, "055") && line.Hcpcs == "G0299" {
		return true
	}
	return strings.HasPrefix(line.RevenueCode, "056") && line.RevenueCode != "0569"
}

// valueCbsa reads a CBSA riding a value code amount.
func valueCbsa(cl *claim.Claim, code string) string {
	for _, vc := range cl.ValueCodes {
		if vc.Code == code {
			return strconv.Itoa(int(vc.Amount))
		}
	}
	return ""
}
