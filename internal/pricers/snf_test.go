package pricers

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/internal/platform/engine/enginetest"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/errdefs"
	"github.com/librepps/gopps/pkg/output"
)

func newTestSnf(t *testing.T, reply map[string]interface{}) (*Snf, *fakeIpsf, *enginetest.Fake) {
	t.Helper()
	fake := newFakeRunner(reply)
	repo := &fakeIpsf{row: ipsfFixture()}
	c, err := NewSnf(context.Background(), fake, repo, years2025, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSnf: %v", err)
	}
	return c, repo, fake
}

// snfClaim is a March 2025 stay with two assessment lines; the earlier
// one carries the HIPPS code that should price.
func snfClaim() *claim.Claim {
	from := claim.NewDate(2025, time.March, 1)
	thru := claim.NewDate(2025, time.March, 31)
	assessed := claim.NewDate(2025, time.March, 3)
	reassessed := claim.NewDate(2025, time.March, 10)
	return &claim.Claim{
		ClaimID:         "snf-0001",
		FromDate:        &from,
		ThruDate:        &thru,
		BillingProvider: &claim.Provider{OtherID: "015001", NPI: "1234567893"},
		PrincipalDx:     &claim.DiagnosisCode{Code: "I50.9"},
		SecondaryDxs:    []claim.DiagnosisCode{{Code: "E11.9"}},
		Lines: []claim.LineItem{
			{RevenueCode: "0120", Units: 31},
			{RevenueCode: "0022", Hcpcs: "KBHD1", Units: 9, ServiceDate: &reassessed},
			{RevenueCode: "0022", Hcpcs: "KAGC1", Units: 21, ServiceDate: &assessed},
		},
	}
}

func TestSnfBuildsPricingRequest(t *testing.T) {
	c, repo, fake := newTestSnf(t, map[string]interface{}{"return_code": map[string]interface{}{"code": "00"}})

	cl := snfClaim()
	cl.AdditionalData = map[string]interface{}{
		"snf": map[string]interface{}{"prior_pdpm_days": 14},
	}
	var res output.Result
	if err := c.Process(context.Background(), cl, &res); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if repo.key.CCN != "015001" || repo.asOf != 20250331 {
		t.Errorf("lookup key = %+v at %d", repo.key, repo.asOf)
	}

	in, prov := payloadParts(t, fake)
	if got := engine.Str(in, "hipps_code"); got != "KAGC1" {
		t.Errorf("hipps_code = %q, want the earliest assessment line", got)
	}
	if got := engine.Int(in, "service_units"); got != 21 {
		t.Errorf("service_units = %d, want 21", got)
	}
	if got := engine.Str(in, "service_from_date"); got != "20250301" {
		t.Errorf("service_from_date = %q", got)
	}
	if got := engine.Str(in, "service_through_date"); got != "20250331" {
		t.Errorf("service_through_date = %q", got)
	}
	if got := engine.Int(in, "pdpm_prior_days"); got != 14 {
		t.Errorf("pdpm_prior_days = %d, want 14", got)
	}
	dxs, _ := in["diagnosis_codes"].([]string)
	if len(dxs) != 2 || dxs[0] != "I509" || dxs[1] != "E119" {
		t.Errorf("diagnosis_codes = %v", dxs)
	}
	if got := engine.Str(in, "provider_ccn"); got != "010001" {
		t.Errorf("provider_ccn = %q", got)
	}
	if prov == nil || engine.Str(prov, "provider_ccn") != "010001" {
		t.Errorf("provider block = %v", prov)
	}
}

func TestSnfRequiresAssessmentLine(t *testing.T) {
	c, _, fake := newTestSnf(t, nil)

	cases := []func(cl *claim.Claim){
		func(cl *claim.Claim) { cl.Lines = cl.Lines[:1] },
		func(cl *claim.Claim) { cl.Lines[2].ServiceDate = nil; cl.Lines[1].ServiceDate = nil },
		func(cl *claim.Claim) { cl.Lines[2].Hcpcs = " "; cl.Lines[1].Hcpcs = "" },
		func(cl *claim.Claim) { cl.Lines[2].Units = 0; cl.Lines[1].Units = 0 },
	}
	for i, mutate := range cases {
		cl := snfClaim()
		mutate(cl)
		err := c.Process(context.Background(), cl, &output.Result{})
		if !errdefs.IsValidation(err) {
			t.Errorf("case %d: err = %v, want Validation", i, err)
		}
	}
	for _, call := range fake.Calls() {
		if call.Op == engine.OpInvoke {
			t.Fatal("a claim without an assessment line must not reach the engine")
		}
	}
}

func TestSnfZeroPriorDaysByDefault(t *testing.T) {
	c, _, fake := newTestSnf(t, map[string]interface{}{"return_code": map[string]interface{}{"code": "00"}})

	if err := c.Process(context.Background(), snfClaim(), &output.Result{}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	in, _ := payloadParts(t, fake)
	if got := engine.Int(in, "pdpm_prior_days"); got != 0 {
		t.Errorf("pdpm_prior_days = %d, want 0 when no module data is set", got)
	}
}

func TestSnfDecodesPaymentReport(t *testing.T) {
	c, _, _ := newTestSnf(t, map[string]interface{}{
		"return_code":                 map[string]interface{}{"code": "00"},
		"aids_indicator":              "N",
		"quality_reporting_indicator": "1",
		"cbsa":                        "35620",
		"wage_index":                  1.0213,
		"vbp_payment_difference":      -12.34,
		"total_payment":               18234.77,
	})

	var res output.Result
	if err := c.Process(context.Background(), snfClaim(), &res); err != nil {
		t.Fatalf("Process: %v", err)
	}
	out := res.Snf
	if out == nil {
		t.Fatal("no snf output recorded")
	}
	if out.ClaimID != "snf-0001" || out.ReturnCode.Code != "00" {
		t.Errorf("claim %q return %q", out.ClaimID, out.ReturnCode.Code)
	}
	if out.TotalPayment != 18234.77 || out.WageIndex != 1.0213 {
		t.Errorf("payment = %v, wage index = %v", out.TotalPayment, out.WageIndex)
	}
	if out.Cbsa != "35620" || out.VbpPaymentDifference != -12.34 {
		t.Errorf("cbsa = %q, vbp difference = %v", out.Cbsa, out.VbpPaymentDifference)
	}
}
