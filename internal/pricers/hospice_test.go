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

func newTestHospice(t *testing.T, reply map[string]interface{}) (*Hospice, *enginetest.Fake) {
	t.Helper()
	fake := newFakeRunner(reply)
	c, err := NewHospice(context.Background(), fake, years2025, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHospice: %v", err)
	}
	return c, fake
}

// hospiceClaim is a January benefit period with routine and continuous
// home care. The beneficiary survives the period.
func hospiceClaim() *claim.Claim {
	from := claim.NewDate(2025, time.January, 1)
	thru := claim.NewDate(2025, time.January, 31)
	admit := claim.NewDate(2024, time.December, 20)
	routine := claim.NewDate(2025, time.January, 1)
	continuous := claim.NewDate(2025, time.January, 22)
	return &claim.Claim{
		ClaimID:       "hos-0001",
		FromDate:      &from,
		ThruDate:      &thru,
		AdmitDate:     &admit,
		LOS:           31,
		PatientStatus: "30",
		ValueCodes: []claim.ValueCode{
			{Code: "61", Amount: 35620},
			{Code: "G8", Amount: 13820},
		},
		Lines: []claim.LineItem{
			{RevenueCode: "0651", Units: 20, ServiceDate: &routine},
			{RevenueCode: "0652", Units: 192, ServiceDate: &continuous},
		},
	}
}

func TestHospiceBuildsPricingRequest(t *testing.T) {
	c, fake := newTestHospice(t, map[string]interface{}{"return_code": map[string]interface{}{"code": "00"}})

	if err := c.Process(context.Background(), hospiceClaim(), &output.Result{}); err != nil {
		t.Fatalf("Process: %v", err)
	}

	payload := fake.LastPayload(engine.OpInvoke)
	if _, ok := payload["provider"]; ok {
		t.Error("hospice must not send a provider block")
	}
	in, _ := payload["claim"].(map[string]interface{})
	if in == nil {
		t.Fatalf("payload has no claim block: %v", payload)
	}

	want := map[string]string{
		"service_from_date":      "20250101",
		"admission_date":         "20241220",
		"reporting_quality_data": "0",
		"patient_cbsa":           "35620",
		"provider_cbsa":          "13820",
	}
	for key, val := range want {
		if got := engine.Str(in, key); got != val {
			t.Errorf("%s = %q, want %q", key, got, val)
		}
	}
	if got := engine.Int(in, "prior_benefit_day_units"); got != 0 {
		t.Errorf("prior_benefit_day_units = %d, want 0", got)
	}

	groups, _ := in["billing_groups"].([]map[string]interface{})
	if len(groups) != 2 {
		t.Fatalf("billing_groups = %v, want two", groups)
	}
	if engine.Str(groups[0], "revenue_code") != "0651" ||
		engine.Str(groups[0], "date_of_service") != "20250101" ||
		engine.Int(groups[0], "units") != 20 {
		t.Errorf("routine group = %v", groups[0])
	}
	if engine.Str(groups[1], "revenue_code") != "0652" || engine.Int(groups[1], "units") != 192 {
		t.Errorf("continuous group = %v", groups[1])
	}

	eola, _ := in["end_of_life_add_on_days_units"].([]int)
	if len(eola) != 7 {
		t.Fatalf("eola units = %v, want seven days", eola)
	}
	for day, units := range eola {
		if units != 0 {
			t.Errorf("day %d = %d units, want 0 for a surviving beneficiary", day, units)
		}
	}
}

func TestHospicePoolsCareLines(t *testing.T) {
	c, fake := newTestHospice(t, map[string]interface{}{"return_code": map[string]interface{}{"code": "00"}})

	cl := hospiceClaim()
	skipStart := claim.NewDate(2025, time.January, 5)
	skipEnd := claim.NewDate(2025, time.January, 6)
	cl.SpanCodes = []claim.SpanCode{{Code: "77", StartDate: &skipStart, EndDate: &skipEnd}}
	routineStart := claim.NewDate(2025, time.January, 1)
	inSpan := claim.NewDate(2025, time.January, 5)
	later := claim.NewDate(2025, time.January, 10)
	respite := claim.NewDate(2025, time.January, 20)
	cl.Lines = []claim.LineItem{
		{RevenueCode: "0651", Units: 10, ServiceDate: &routineStart},
		{RevenueCode: "0651", Units: 99, ServiceDate: &inSpan},
		{RevenueCode: "0651", Units: 50},
		{RevenueCode: "0651", Units: 5, ServiceDate: &later},
		{RevenueCode: "0655", Units: 3, ServiceDate: &respite},
	}

	if err := c.Process(context.Background(), cl, &output.Result{}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	in, _ := payloadParts(t, fake)
	groups, _ := in["billing_groups"].([]map[string]interface{})
	if len(groups) != 2 {
		t.Fatalf("billing_groups = %v, want two", groups)
	}
	if engine.Int(groups[0], "units") != 15 || engine.Str(groups[0], "date_of_service") != "20250101" {
		t.Errorf("routine group = %v, non-covered and undated lines must not pool", groups[0])
	}
	if engine.Str(groups[1], "revenue_code") != "0655" {
		t.Errorf("second group = %v", groups[1])
	}
}

func TestHospiceRejectsUnitsBeyondCoveredDays(t *testing.T) {
	c, fake := newTestHospice(t, nil)

	cl := hospiceClaim()
	cl.Lines[0].Units = 40
	err := c.Process(context.Background(), cl, &output.Result{})
	if !errdefs.IsValidation(err) {
		t.Fatalf("err = %v, want Validation", err)
	}

	cl = hospiceClaim()
	cl.Lines[1].Units = 96 * 32
	err = c.Process(context.Background(), cl, &output.Result{})
	if !errdefs.IsValidation(err) {
		t.Fatalf("err = %v, want Validation for continuous care over the period", err)
	}
	for _, call := range fake.Calls() {
		if call.Op == engine.OpInvoke {
			t.Fatal("overbilled units must not reach the engine")
		}
	}
}

func TestHospiceEndOfLifeAddOn(t *testing.T) {
	c, fake := newTestHospice(t, map[string]interface{}{"return_code": map[string]interface{}{"code": "00"}})

	cl := hospiceClaim()
	cl.PatientStatus = "40"
	cl.Lines[0].Units = 30
	nurse := claim.NewDate(2025, time.January, 29)
	social := claim.NewDate(2025, time.January, 31)
	excluded := claim.NewDate(2025, time.January, 30)
	early := claim.NewDate(2025, time.January, 20)
	cl.Lines = append(cl.Lines,
		claim.LineItem{RevenueCode: "0551", Hcpcs: "G0299", Units: 2, ServiceDate: &nurse},
		claim.LineItem{RevenueCode: "0561", Units: 1, ServiceDate: &social},
		claim.LineItem{RevenueCode: "0569", Units: 9, ServiceDate: &excluded},
		claim.LineItem{RevenueCode: "0551", Hcpcs: "G0155", Units: 9, ServiceDate: &excluded},
		claim.LineItem{RevenueCode: "0561", Units: 4, ServiceDate: &early},
	)

	if err := c.Process(context.Background(), cl, &output.Result{}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	in, _ := payloadParts(t, fake)
	eola, _ := in["end_of_life_add_on_days_units"].([]int)
	want := []int{1, 0, 2, 0, 0, 0, 0}
	for day := range want {
		if eola[day] != want[day] {
			t.Errorf("day %d = %d units, want %d", day, eola[day], want[day])
		}
	}
}

func TestHospiceExpiredStatusNeedsThruDate(t *testing.T) {
	c, _ := newTestHospice(t, nil)

	cl := hospiceClaim()
	cl.PatientStatus = "41"
	cl.ThruDate = nil
	if err := c.Validate(cl); !errdefs.IsValidation(err) {
		t.Fatalf("Validate err = %v, want Validation", err)
	}
	err := c.Process(context.Background(), cl, &output.Result{})
	if !errdefs.IsValidation(err) {
		t.Fatalf("Process err = %v, want Validation", err)
	}
}

func TestHospiceDecodesPaymentReport(t *testing.T) {
	c, _ := newTestHospice(t, map[string]interface{}{
		"return_code":                 map[string]interface{}{"code": "00"},
		"calculation_version":         "2025.2",
		"high_routine_home_care_days": 20.0,
		"low_routine_home_care_days":  11.0,
		"patient_wage_index":          1.0213,
		"provider_wage_index":         0.9876,
		"total_payment":               6543.21,
		"billing_group_payments": []interface{}{
			map[string]interface{}{"revenue_code": "0651", "payment_amount": 5000.10},
		},
		"eola_payments": []interface{}{
			map[string]interface{}{"index": 2.0, "payment_amount": 120.00},
		},
	})

	var res output.Result
	if err := c.Process(context.Background(), hospiceClaim(), &res); err != nil {
		t.Fatalf("Process: %v", err)
	}
	out := res.Hospice
	if out == nil {
		t.Fatal("no hospice output recorded")
	}
	if out.ClaimID != "hos-0001" || out.CalculationVersion != "2025.2" {
		t.Errorf("claim %q version %q", out.ClaimID, out.CalculationVersion)
	}
	if out.HighRoutineHomeCareDays != 20 || out.LowRoutineHomeCareDays != 11 {
		t.Errorf("routine days = %d / %d", out.HighRoutineHomeCareDays, out.LowRoutineHomeCareDays)
	}
	if out.TotalPayment != 6543.21 || out.PatientWageIndex != 1.0213 {
		t.Errorf("payment = %v, wage index = %v", out.TotalPayment, out.PatientWageIndex)
	}
	if len(out.BillingGroupPayments) != 1 || out.BillingGroupPayments[0].PaymentAmount != 5000.10 {
		t.Errorf("billing group payments = %v", out.BillingGroupPayments)
	}
	if len(out.EolaPayments) != 1 || out.EolaPayments[0].Index != 2 {
		t.Errorf("eola payments = %v", out.EolaPayments)
	}
}
