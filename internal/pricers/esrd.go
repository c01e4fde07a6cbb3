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

const esrdClass = "gov.cms.fiss.pricers.esrd.core.EsrdPricerDispatch"

// dialysisRevCodes identify the dialysis modality; the first claim line
// under any of them decides the claim's revenue code.
var dialysisRevCodes = map[string]bool{
	"0821": true, // hemodialysis
	"0831": true, // peritoneal dialysis
	"0841": true, // CAPD
	"0851": true, // CCPD
	"0881": true, // ultrafiltration
}

// comorbidityWindow bounds the span in which CMS recognizes the current
// comorbidity categories; the list and bounds track the annual ESRD
// final rule.
var comorbidityWindow = dateRange{
	start: claim.NewDate(2020, time.January, 1),
	end:   claim.NewDate(2050, time.January, 1),
}

// comorbidityCategories maps ICD-10-CM codes (periods stripped) to the
// ESRD comorbidity payment category they earn.
var comorbidityCategories = map[string]string{
	// MA: gastrointestinal tract bleeding
	"K2211": "MA", "K250": "MA", "K252": "MA", "K254": "MA", "K256": "MA",
	"K260": "MA", "K262": "MA", "K264": "MA", "K266": "MA", "K270": "MA",
	"K272": "MA", "K274": "MA", "K276": "MA", "K280": "MA", "K282": "MA",
	"K284": "MA", "K286": "MA", "K31811": "MA", "K5521": "MA", "K5701": "MA",
	"K5711": "MA", "K5713": "MA", "K5721": "MA", "K5731": "MA", "K5733": "MA",
	"K5741": "MA", "K5751": "MA", "K5753": "MA", "K5781": "MA", "K5791": "MA",
	"K5793": "MA",
	// MC: pericarditis
	"A1884": "MC", "I300": "MC", "I301": "MC", "I308": "MC", "I309": "MC",
	"I32": "MC", "M3212": "MC",
	// MD: hereditary hemolytic or sickle cell anemia
	"D550": "MD", "D551": "MD", "D552": "MD", "D553": "MD", "D558": "MD",
	"D559": "MD", "D560": "MD", "D561": "MD", "D562": "MD", "D563": "MD",
	"D565": "MD", "D568": "MD", "D5700": "MD", "D5701": "MD", "D5702": "MD",
	"D5703": "MD", "D5709": "MD", "D571": "MD", "D5720": "MD", "D57211": "MD",
	"D57212": "MD", "D57213": "MD", "D57218": "MD", "D57219": "MD", "D5740": "MD",
	"D57411": "MD", "D57412": "MD", "D57413": "MD", "D57418": "MD", "D57419": "MD",
	"D5742": "MD", "D57431": "MD", "D57432": "MD", "D57433": "MD", "D57438": "MD",
	"D57439": "MD", "D5744": "MD", "D57451": "MD", "D57452": "MD", "D57453": "MD",
	"D57458": "MD", "D57459": "MD", "D5780": "MD", "D57811": "MD", "D57812": "MD",
	"D57813": "MD", "D57818": "MD", "D57819": "MD", "D580": "MD", "D581": "MD",
	// ME: myelodysplastic syndrome
	"D460": "ME", "D461": "ME", "D4620": "ME", "D4621": "ME", "D4622": "ME",
	"D464": "ME", "D469": "ME", "D46A": "ME", "D46B": "ME", "D46C": "ME",
	"D46Z": "ME", "D471": "ME", "D473": "ME",
}

// Esrd prices dialysis claims under the ESRD prospective payment
// system. Patient height and weight ride the claim's value codes.
type Esrd struct {
	pricer
	opsf refdata.OpsfRepo
}

// NewEsrd starts the dialysis dispatch for the given fiscal years.
func NewEsrd(ctx context.Context, runner engine.Runner, opsf refdata.OpsfRepo, years []int, log zerolog.Logger) (*Esrd, error) {
	p, err := newPricer(ctx, runner, "esrd", esrdClass, years, log)
	if err != nil {
		return nil, err
	}
	return &Esrd{pricer: p, opsf: opsf}, nil
}

func (c *Esrd) Name() claim.Module { return claim.ESRD }

// Dependencies orders the editor ahead of pricing; the payload itself
// carries the claim lines rather than editor output.
func (c *Esrd) Dependencies() []claim.Module { return []claim.Module{claim.IOCE} }

// Validate checks the fields dialysis pricing cannot run without.
func (c *Esrd) Validate(cl *claim.Claim) error {
	if cl.EsrdInitialDate == nil {
		return errdefs.Validation("esrd requires the claim esrd_initial_date")
	}
	if cl.FromDate == nil {
		return errdefs.Validation("esrd requires a claim from_date")
	}
	if cl.ThruDate == nil {
		return errdefs.Validation("esrd requires a claim thru_date")
	}
	if cl.Patient == nil || cl.Patient.DateOfBirth == nil {
		return errdefs.Validation("a patient date of birth is required for esrd pricing")
	}
	_, err := pricingProvider(cl)
	return err
}

// Process prices the claim and records the payment report.
func (c *Esrd) Process(ctx context.Context, cl *claim.Claim, res *output.Result) error {
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
	out := &output.EsrdOutput{}
	if err := engine.Decode(reply, out); err != nil {
		return err
	}
	out.ClaimID = cl.ClaimID
	res.Esrd = out
	return nil
}

func (c *Esrd) buildInput(ctx context.Context, cl *claim.Claim) (map[string]interface{}, error) {
	rev, err := dialysisRevenue(cl)
	if err != nil {
		return nil, err
	}
	sessions := dialysisSessions(cl, rev)
	if sessions == 0 {
		return nil, errdefs.Validation("no dialysis sessions found in claim")
	}

	in := map[string]interface{}{
		"dialysis_start_date":    engine.CompactDate(cl.EsrdInitialDate),
		"condition_codes":        cl.CondCodes,
		"dialysis_session_count": sessions,
		"revenue_code":           rev,
		"patient_date_of_birth":  engine.CompactDate(cl.Patient.DateOfBirth),
		"service_date":           engine.CompactDate(cl.FromDate),
		"service_through_date":   engine.CompactDate(cl.ThruDate),
		"demo_codes":             cl.DemoCodes,
	}

	var heightSet, weightSet bool
	for _, vc := range cl.ValueCodes {
		switch vc.Code {
		case "A8":
			in["patient_weight"] = vc.Amount
			weightSet = true
		case "A9":
			in["patient_height"] = vc.Amount
			heightSet = true
		case "Q8":
			in["total_tdapa_amount_q8"] = vc.Amount
		case "QG":
			in["total_tpnies_amount_qg"] = vc.Amount
		case "QH":
			in["total_tpnies_cra_amount_qh"] = vc.Amount
		}
	}
	if !heightSet {
		return nil, errdefs.Validation("a patient height value code (A9) is required for esrd pricing")
	}
	if !weightSet {
		return nil, errdefs.Validation("a patient weight value code (A8) is required for esrd pricing")
	}

	data := cl.ModuleData("esrd")
	choice := ""
	if _, ok := data["ect_choice"]; ok {
		choice = engine.Str(data, "ect_choice")
		switch choice {
		case "", "H", "P", "B":
		default:
			return nil, errdefs.Validation("ect_choice must be 'H', 'P', 'B', or empty")
		}
		if _, ok := data["ppa_adjustment"]; !ok && (choice == "P" || choice == "B") {
			return nil, errdefs.Validation("ppa_adjustment must be provided when ect_choice is 'P' or 'B'")
		}
		if ppa := engine.FloatPtr(data, "ppa_adjustment"); ppa != nil {
			in["ppa_adjustment_percent"] = *ppa
		}
	}
	in["treatment_choices_indicator"] = choice
	in["comorbidities"] = map[string]interface{}{"comorbidity_codes": comorbidityCodes(cl)}

	prov, err := opsfRow(ctx, c.opsf, cl)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"claim": in, "provider": prov}, nil
}

// dialysisRevenue picks the claim's dialysis modality from its lines.
func dialysisRevenue(cl *claim.Claim) (string, error) {
	for _, line := range cl.Lines {
		if dialysisRevCodes[line.RevenueCode] {
			return line.RevenueCode, nil
		}
	}
	return "", errdefs.Validation("no dialysis revenue code found in claim lines")
}

// dialysisSessions counts the distinct dated services under the
// modality's revenue code.
func dialysisSessions(cl *claim.Claim, rev string) int {
	dates := map[int]bool{}
	for _, line := range cl.Lines {
		if line.RevenueCode == rev && line.ServiceDate != nil {
			dates[line.ServiceDate.Int()] = true
		}
	}
	return len(dates)
}

// comorbidityCodes collects the payment categories earned by the
// claim's secondary diagnoses. Categories count only when the whole
// billing period falls inside the recognition window.
func comorbidityCodes(cl *claim.Claim) []string {
	if !comorbidityWindow.contains(*cl.FromDate) || !comorbidityWindow.contains(*cl.ThruDate) {
		return nil
	}
	var cats []string
	for _, dx := range cl.SecondaryDxs {
		if cat := comorbidityCategories[engine.StripPeriods(dx.Code)]; cat != "" {
			cats = append(cats, cat)
		}
	}
	return cats
}
