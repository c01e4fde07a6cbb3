package pricers

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/internal/platform/engine/enginetest"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/errdefs"
	"github.com/librepps/gopps/pkg/output"
)

func newTestIpps(t *testing.T, reply map[string]interface{}) (*Ipps, *fakeIpsf, *enginetest.Fake) {
	t.Helper()
	fake := newFakeRunner(reply)
	repo := &fakeIpsf{row: ipsfFixture()}
	c, err := NewIpps(context.Background(), fake, repo, years2025, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return c, repo, fake
}

func groupedResult(cl *claim.Claim) *output.Result {
	res := output.NewResult(cl.ClaimID)
	res.Msdrg = &output.MsdrgOutput{FinalDrgValue: "291", FinalSeverity: "MCC"}
	return res
}

func TestIppsBuildsPricingRequest(t *testing.T) {
	cl := inpatientClaim()
	cl.HMO = true
	cl.CondCodes = []string{"C1"}
	cl.Lines = []claim.LineItem{{NDC: "00002143380"}, {NDC: ""}}
	c, repo, fake := newTestIpps(t, nil)

	if err := c.Validate(cl); err != nil {
		t.Fatal(err)
	}
	if err := c.Process(context.Background(), cl, groupedResult(cl)); err != nil {
		t.Fatal(err)
	}

	if repo.key.CCN != "010001" || repo.asOf != 20250606 {
		t.Errorf("ipsf lookup key = %+v asOf %d", repo.key, repo.asOf)
	}

	in, prov := payloadParts(t, fake)
	fields := map[string]string{
		"review_code":                      "00",
		"discharge_date":                   "20250606",
		"diagnosis_related_group":          "291",
		"diagnosis_related_group_severity": "MCC",
		"provider_ccn":                     "010001",
	}
	for key, want := range fields {
		if got := engine.Str(in, key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	if got := engine.Int(in, "covered_days"); got != 4 {
		t.Errorf("covered_days = %d, want 4", got)
	}
	if got := engine.Int(in, "length_of_stay"); got != 5 {
		t.Errorf("length_of_stay = %d, want 5", got)
	}
	if got := engine.Float(in, "covered_charges"); got != 25000.50 {
		t.Errorf("covered_charges = %v", got)
	}

	wantDxs := []string{"I509", "R079", "E119"}
	if got, _ := in["diagnosis_codes"].([]string); !reflect.DeepEqual(got, wantDxs) {
		t.Errorf("diagnosis_codes = %v, want %v", got, wantDxs)
	}
	if got, _ := in["procedure_codes"].([]string); !reflect.DeepEqual(got, []string{"02HV33Z"}) {
		t.Errorf("procedure_codes = %v", got)
	}
	if got, _ := in["national_drug_codes"].([]string); !reflect.DeepEqual(got, []string{"00002143380"}) {
		t.Errorf("national_drug_codes = %v, want the blank dropped", got)
	}

	payload := fake.LastPayload(engine.OpInvoke)
	if hmo, _ := payload["hmo_claim"].(bool); !hmo {
		t.Error("hmo_claim not set on the request")
	}
	if engine.Str(prov, "provider_ccn") != "010001" {
		t.Errorf("provider row ccn = %q", engine.Str(prov, "provider_ccn"))
	}
}

func TestIppsDrgFallbackFromAdditionalData(t *testing.T) {
	cl := inpatientClaim()
	cl.AdditionalData = map[string]interface{}{"drg": "470"}
	c, _, fake := newTestIpps(t, nil)

	if err := c.Process(context.Background(), cl, output.NewResult(cl.ClaimID)); err != nil {
		t.Fatal(err)
	}
	in, _ := payloadParts(t, fake)
	if got := engine.Str(in, "diagnosis_related_group"); got != "470" {
		t.Errorf("diagnosis_related_group = %q, want the additional-data code", got)
	}
	if _, ok := in["diagnosis_related_group_severity"]; ok {
		t.Error("severity should be absent without grouper output")
	}
}

func TestIppsRequiresDrg(t *testing.T) {
	cl := inpatientClaim()
	c, _, _ := newTestIpps(t, nil)

	err := c.Process(context.Background(), cl, output.NewResult(cl.ClaimID))
	if !errdefs.IsValidation(err) {
		t.Fatalf("err = %v, want Validation", err)
	}
}

func TestIppsRejectsUnsupportedYear(t *testing.T) {
	cl := inpatientClaim()
	thru := claim.NewDate(2012, time.June, 6)
	cl.ThruDate = &thru
	c, _, fake := newTestIpps(t, nil)

	err := c.Process(context.Background(), cl, groupedResult(cl))
	if !errdefs.IsVersionUnavailable(err) {
		t.Fatalf("err = %v, want VersionUnavailable", err)
	}
	for _, call := range fake.Calls() {
		if call.Op == engine.OpInvoke {
			t.Fatal("engine was invoked for an unsupported year")
		}
	}
}

func TestIppsAppliesProviderOverrides(t *testing.T) {
	cl := inpatientClaim()
	cl.AdditionalData = map[string]interface{}{
		"ipsf": map[string]interface{}{"provider_type": "02", "bogus": "x"},
	}
	c, _, fake := newTestIpps(t, nil)

	if err := c.Process(context.Background(), cl, groupedResult(cl)); err != nil {
		t.Fatal(err)
	}
	_, prov := payloadParts(t, fake)
	if got := engine.Str(prov, "provider_type"); got != "02" {
		t.Errorf("provider_type = %q, want the claim override", got)
	}
	if _, ok := prov["bogus"]; ok {
		t.Error("override added a column the row never had")
	}
}

func TestIppsDecodesPaymentReport(t *testing.T) {
	reply := map[string]interface{}{
		"return_code": map[string]interface{}{
			"code":        "00",
			"description": "OK",
		},
		"calculation_version": "2025.2",
		"total_payment":       9876.54,
		"final_wage_index":    1.0213,
		"additional_calculation_variables": map[string]interface{}{
			"drg_relative_weight": 1.8631,
		},
	}
	cl := inpatientClaim()
	c, _, _ := newTestIpps(t, reply)

	res := groupedResult(cl)
	if err := c.Process(context.Background(), cl, res); err != nil {
		t.Fatal(err)
	}
	out := res.Ipps
	if out == nil {
		t.Fatal("no ipps output recorded")
	}
	if out.ClaimID != "ip-0001" {
		t.Errorf("ClaimID = %q", out.ClaimID)
	}
	if out.ReturnCode.Code != "00" {
		t.Errorf("ReturnCode = %+v", out.ReturnCode)
	}
	if out.TotalPayment != 9876.54 || out.FinalWageIndex != 1.0213 {
		t.Errorf("payment fields = %+v", out)
	}
	if out.AdditionalCalculationVariables.DrgRelativeWeight != 1.8631 {
		t.Errorf("calculation variables = %+v", out.AdditionalCalculationVariables)
	}
}

func TestIppsValidate(t *testing.T) {
	c, _, _ := newTestIpps(t, nil)

	cl := inpatientClaim()
	cl.NonCoveredDays = 9
	if err := c.Validate(cl); !errdefs.IsValidation(err) {
		t.Errorf("short stay err = %v, want Validation", err)
	}

	cl = inpatientClaim()
	cl.ThruDate = nil
	if err := c.Validate(cl); !errdefs.IsValidation(err) {
		t.Errorf("missing thru err = %v, want Validation", err)
	}

	cl = inpatientClaim()
	cl.BillingProvider, cl.ServicingProvider = nil, nil
	if err := c.Validate(cl); !errdefs.IsValidation(err) {
		t.Errorf("missing provider err = %v, want Validation", err)
	}
}
