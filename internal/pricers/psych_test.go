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

func newTestPsych(t *testing.T, reply map[string]interface{}) (*Psych, *enginetest.Fake) {
	t.Helper()
	fake := newFakeRunner(reply)
	c, err := NewPsych(context.Background(), fake, &fakeIpsf{row: ipsfFixture()}, years2025, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return c, fake
}

func TestPsychBuildsPricingRequest(t *testing.T) {
	cl := inpatientClaim()
	cl.AdmissionSource = "1"
	when := claim.NewDate(2025, time.June, 2)
	cl.InpatientPxs = []claim.ProcedureCode{
		{Code: "GZB0ZZZ", Date: &when},
		{Code: "GZB1ZZZ"},
		{Code: "02HV33Z", Date: &when},
	}
	cl.OccurrenceCodes = []claim.OccurrenceCode{{Code: "A3"}}
	c, fake := newTestPsych(t, nil)

	res := output.NewResult(cl.ClaimID)
	res.Msdrg = &output.MsdrgOutput{FinalDrgValue: "885", FinalSeverity: "NONCC"}
	if err := c.Process(context.Background(), cl, res); err != nil {
		t.Fatal(err)
	}

	in, prov := payloadParts(t, fake)
	fields := map[string]string{
		"discharge_date":                    "20250606",
		"patient_status":                    "01",
		"source_of_admission":               "1",
		"diagnosis_related_group":           "885",
		"diagnosis_related_group_severity":  "NONCC",
		"outlier_special_payment_indicator": "Y",
		"provider_ccn":                      "010001",
	}
	for key, want := range fields {
		if got := engine.Str(in, key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	if got := engine.Int(in, "service_units"); got != 2 {
		t.Errorf("service_units = %d, want both ect sessions", got)
	}
	if got := engine.Int(in, "patient_age"); got != 67 {
		t.Errorf("patient_age = %d", got)
	}
	if prov == nil {
		t.Fatal("no provider block on the request")
	}
}

func TestPsychRequiresGrouperOutput(t *testing.T) {
	cl := inpatientClaim()
	c, _ := newTestPsych(t, nil)

	err := c.Process(context.Background(), cl, output.NewResult(cl.ClaimID))
	if !errdefs.IsValidation(err) {
		t.Fatalf("err = %v, want Validation", err)
	}
}

func TestPsychOmitsOutlierIndicatorByDefault(t *testing.T) {
	cl := inpatientClaim()
	c, fake := newTestPsych(t, nil)

	if err := c.Process(context.Background(), cl, groupedResult(cl)); err != nil {
		t.Fatal(err)
	}
	in, _ := payloadParts(t, fake)
	if _, ok := in["outlier_special_payment_indicator"]; ok {
		t.Error("outlier indicator set without a qualifying occurrence code")
	}
	if _, ok := in["service_units"]; ok {
		t.Error("service_units set without ect procedures")
	}
}

func TestEctUnits(t *testing.T) {
	from := claim.NewDate(2025, time.June, 1)
	early := claim.NewDate(2014, time.January, 1)
	cl := &claim.Claim{
		FromDate: &from,
		InpatientPxs: []claim.ProcedureCode{
			{Code: "GZB4ZZZ"},
			{Code: "GZB0ZZZ", Date: &early},
			{Code: "0W9G3ZZ"},
		},
	}
	if got := ectUnits(cl); got != 1 {
		t.Errorf("ectUnits = %d, want 1: undated falls back to from_date, 2014 is before the window", got)
	}
}

func TestPsychDecodesPaymentReport(t *testing.T) {
	reply := map[string]interface{}{
		"return_code":   map[string]interface{}{"code": "00"},
		"total_payment": 15210.11,
		"drg_factor":    1.02,
		"additional_variables": map[string]interface{}{
			"electro_convulsive_therapy_payment": 661.52,
		},
	}
	cl := inpatientClaim()
	c, _ := newTestPsych(t, reply)

	res := groupedResult(cl)
	if err := c.Process(context.Background(), cl, res); err != nil {
		t.Fatal(err)
	}
	out := res.Psych
	if out == nil || out.ClaimID != "ip-0001" {
		t.Fatalf("psych output = %+v", out)
	}
	if out.TotalPayment != 15210.11 || out.DrgFactor != 1.02 {
		t.Errorf("payment fields = %+v", out)
	}
	if out.AdditionalVariables == nil || out.AdditionalVariables.ElectroConvulsiveTherapyPayment != 661.52 {
		t.Errorf("additional variables = %+v", out.AdditionalVariables)
	}
}
