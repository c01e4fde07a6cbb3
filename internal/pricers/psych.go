package pricers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/internal/refdata"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/errdefs"
	"github.com/librepps/gopps/pkg/output"
)

const ipfClass = "gov.cms.fiss.pricers.ipf.core.IpfPricerDispatch"

// Electroconvulsive therapy procedure codes and the window they are
// payable in. The IPF rule pays a per-session add-on, one unit per coded
// treatment.
var (
	ectFrom  = claim.NewDate(2015, time.October, 1)
	ectThru  = claim.NewDate(2100, time.January, 1)
	ectCodes = map[string]bool{
		"GZB0ZZZ": true,
		"GZB1ZZZ": true,
		"GZB2ZZZ": true,
		"GZB3ZZZ": true,
		"GZB4ZZZ": true,
	}
)

// Occurrence codes that flag the stay for outlier special payment.
var ipfOutlierOccurrences = map[string]bool{"31": true, "A3": true, "B3": true, "C3": true}

// Psych prices inpatient psychiatric stays under the IPF per-diem system.
type Psych struct {
	pricer
	ipsf refdata.IpsfRepo
}

// NewPsych starts the psychiatric dispatch for the given fiscal years.
func NewPsych(ctx context.Context, runner engine.Runner, ipsf refdata.IpsfRepo, years []int, log zerolog.Logger) (*Psych, error) {
	p, err := newPricer(ctx, runner, "ipf", ipfClass, years, log)
	if err != nil {
		return nil, err
	}
	return &Psych{pricer: p, ipsf: ipsf}, nil
}

func (c *Psych) Name() claim.Module           { return claim.PSYCH }
func (c *Psych) Dependencies() []claim.Module { return []claim.Module{claim.MSDRG} }

// Validate checks the stay fields psychiatric pricing cannot run without.
func (c *Psych) Validate(cl *claim.Claim) error {
	if cl.ThruDate == nil {
		return errdefs.Validation("psych requires a claim thru_date")
	}
	if cl.LOS < cl.NonCoveredDays {
		return errdefs.Validation("length of stay cannot be less than non-covered days")
	}
	if cl.PrincipalDx == nil || cl.PrincipalDx.Code == "" {
		return errdefs.Validation("psych requires a principal diagnosis")
	}
	_, err := pricingProvider(cl)
	return err
}

// Process prices the stay and records the payment report.
func (c *Psych) Process(ctx context.Context, cl *claim.Claim, res *output.Result) error {
	if err := c.checkYear(cl); err != nil {
		return err
	}
	if res.Msdrg == nil || res.Msdrg.FinalDrgValue == "" {
		return errdefs.Validation("psych requires ms-drg grouper output")
	}
	input, err := c.buildInput(ctx, cl, res.Msdrg)
	if err != nil {
		return err
	}
	reply, err := c.price(ctx, input)
	if err != nil {
		return err
	}
	out := &output.IpfOutput{}
	if err := engine.Decode(reply, out); err != nil {
		return err
	}
	out.ClaimID = cl.ClaimID
	res.Psych = out
	return nil
}

func (c *Psych) buildInput(ctx context.Context, cl *claim.Claim, drg *output.MsdrgOutput) (map[string]interface{}, error) {
	in := map[string]interface{}{
		"covered_charges":                  cl.TotalCharges,
		"discharge_date":                   engine.CompactDate(cl.ThruDate),
		"length_of_stay":                   cl.LOS,
		"patient_status":                   cl.PatientStatus,
		"source_of_admission":              cl.AdmissionSource,
		"diagnosis_related_group":          drg.FinalDrgValue,
		"diagnosis_related_group_severity": drg.FinalSeverity,
		"diagnosis_codes":                  claimDxs(cl),
	}
	if units := ectUnits(cl); units > 0 {
		in["service_units"] = units
	}
	if cl.Patient != nil {
		in["patient_age"] = cl.Patient.Age
	}
	if pxs := claimPxs(cl); len(pxs) > 0 {
		in["procedure_codes"] = pxs
	}
	for _, oc := range cl.OccurrenceCodes {
		if ipfOutlierOccurrences[oc.Code] {
			in["outlier_special_payment_indicator"] = "Y"
			break
		}
	}

	prov, err := ipsfRow(ctx, c.ipsf, cl)
	if err != nil {
		return nil, err
	}
	in["provider_ccn"] = engine.Str(prov, "provider_ccn")
	return map[string]interface{}{"claim": in, "provider": prov}, nil
}

// ectUnits counts payable electroconvulsive sessions. Undated procedures
// fall back to the claim from date.
func ectUnits(cl *claim.Claim) int {
	units := 0
	for _, px := range cl.InpatientPxs {
		if !ectCodes[engine.StripPeriods(px.Code)] {
			continue
		}
		when := px.Date
		if when == nil {
			when = cl.FromDate
		}
		if when == nil || when.Before(ectFrom) || when.After(ectThru) {
			continue
		}
		units++
	}
	return units
}
