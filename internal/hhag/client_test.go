package hhag

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

func periodClaim() *claim.Claim {
	admit := claim.NewDate(2025, time.March, 1)
	from := claim.NewDate(2025, time.March, 1)
	thru := claim.NewDate(2025, time.March, 30)
	return &claim.Claim{
		ClaimID:         "hh-0001",
		AdmitDate:       &admit,
		FromDate:        &from,
		ThruDate:        &thru,
		OccurrenceCodes: []claim.OccurrenceCode{{Code: "61"}},
		PrincipalDx:     &claim.DiagnosisCode{Code: "I50.9", Poa: claim.PoaY},
		SecondaryDxs: []claim.DiagnosisCode{
			{Code: "E11.9", Poa: claim.PoaN},
			{Code: "", Poa: claim.PoaY},
		},
		Oasis: &claim.OasisAssessment{
			FallRisk:       1,
			FiveOrMoreMeds: 1,
			Grooming:       "01",
			Ambulation:     "02",
		},
		Modules: []claim.Module{claim.HHAG},
	}
}

func newTestClient(t *testing.T, reply map[string]interface{}) (*Client, *enginetest.Fake) {
	t.Helper()
	fake := &enginetest.Fake{Results: map[string]map[string]interface{}{
		engine.OpNewInstance: {"instance": "hh-1"},
		engine.OpInvoke:      reply,
	}}
	c, err := NewClient(context.Background(), fake, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return c, fake
}

func TestClientBuildsGrouperClaim(t *testing.T) {
	cl := periodClaim()
	c, fake := newTestClient(t, nil)

	if err := c.Process(context.Background(), cl, output.NewResult(cl.ClaimID)); err != nil {
		t.Fatal(err)
	}
	in := fake.LastPayload(engine.OpInvoke)

	fields := map[string]string{
		"claim_id":        "hh-0001",
		"period_timing":   "1",
		"from_date":       "20250301",
		"thru_date":       "20250330",
		"referral_source": "61",
	}
	for key, want := range fields {
		if got := engine.Str(in, key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}

	principal, _ := in["principal_dx"].(map[string]interface{})
	if engine.Str(principal, "diagnosis") != "I509" || engine.Str(principal, "poa") != "Y" {
		t.Errorf("principal_dx = %v", principal)
	}
	secondaries, _ := in["secondary_dxs"].([]map[string]interface{})
	if len(secondaries) != 1 || engine.Str(secondaries[0], "diagnosis") != "E119" {
		t.Errorf("secondary_dxs = %v, want the blank code dropped", secondaries)
	}

	oasis, _ := in["oasis"].(map[string]interface{})
	items := map[string]string{
		"hosp_risk_history_falls":  "1",
		"hosp_risk_five_more_meds": "1",
		"hosp_risk_weight_loss":    "0",
		"hosp_risk_none_above":     "0",
		"grooming":                 "01",
		"ambulation":               "02",
		"bathing":                  "00",
	}
	for key, want := range items {
		if got := engine.Str(oasis, key); got != want {
			t.Errorf("oasis %s = %q, want %q", key, got, want)
		}
	}
}

func TestClientPeriodTiming(t *testing.T) {
	later := claim.NewDate(2025, time.February, 1)
	cases := map[string]struct {
		admit *claim.Date
		want  string
	}{
		"admitted on period start": {nil, "2"},
		"earlier admission":        {&later, "2"},
	}
	cl := periodClaim()
	if got := periodTiming(cl); got != "1" {
		t.Errorf("periodTiming = %q, want 1 when the period starts the admission", got)
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cl := periodClaim()
			cl.AdmitDate = tc.admit
			if got := periodTiming(cl); got != tc.want {
				t.Errorf("periodTiming = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClientReferralSource(t *testing.T) {
	cl := periodClaim()
	cl.OccurrenceCodes = []claim.OccurrenceCode{{Code: "42"}}
	c, fake := newTestClient(t, nil)
	if err := c.Process(context.Background(), cl, output.NewResult(cl.ClaimID)); err != nil {
		t.Fatal(err)
	}
	if _, ok := fake.LastPayload(engine.OpInvoke)["referral_source"]; ok {
		t.Error("referral_source should be omitted without an occurrence 61 or 62")
	}

	cl.OccurrenceCodes = []claim.OccurrenceCode{{Code: "61"}, {Code: "62"}}
	if err := c.Process(context.Background(), cl, output.NewResult(cl.ClaimID)); err != nil {
		t.Fatal(err)
	}
	if got := engine.Str(fake.LastPayload(engine.OpInvoke), "referral_source"); got != "62" {
		t.Errorf("referral_source = %q, want the last qualifying code", got)
	}
}

func TestClientOasisDefaults(t *testing.T) {
	cl := periodClaim()
	cl.Oasis = nil
	c, fake := newTestClient(t, nil)

	if err := c.Process(context.Background(), cl, output.NewResult(cl.ClaimID)); err != nil {
		t.Fatal(err)
	}
	oasis, _ := fake.LastPayload(engine.OpInvoke)["oasis"].(map[string]interface{})
	if len(oasis) != 17 {
		t.Fatalf("oasis = %v, want all 17 items", oasis)
	}
	if got := engine.Str(oasis, "hosp_risk_none_above"); got != "1" {
		t.Errorf("hosp_risk_none_above = %q, want 1 when no assessment is carried", got)
	}
	for _, key := range []string{"hosp_risk_history_falls", "hosp_risk_other_risk"} {
		if got := engine.Str(oasis, key); got != "0" {
			t.Errorf("%s = %q, want 0", key, got)
		}
	}
	for _, key := range []string{"grooming", "dress_upper", "dress_lower", "bathing", "toileting", "transferring", "ambulation"} {
		if got := engine.Str(oasis, key); got != "00" {
			t.Errorf("%s = %q, want 00", key, got)
		}
	}
}

func TestClientValidate(t *testing.T) {
	c, _ := newTestClient(t, nil)

	cl := periodClaim()
	cl.FromDate = nil
	if err := c.Validate(cl); !errdefs.IsValidation(err) {
		t.Errorf("missing from_date: got %v", err)
	}

	cl = periodClaim()
	cl.ThruDate = nil
	if err := c.Validate(cl); !errdefs.IsValidation(err) {
		t.Errorf("missing thru_date: got %v", err)
	}

	if err := c.Validate(periodClaim()); err != nil {
		t.Errorf("complete claim: got %v", err)
	}
}

func TestClientDecodesGroupingReport(t *testing.T) {
	reply := map[string]interface{}{
		"hipps_code":    "1CGK1",
		"validity_flag": "1",
		"return_code": map[string]interface{}{
			"code":        "00",
			"description": "valid HIPPS code returned",
		},
		"edits": []interface{}{
			map[string]interface{}{
				"edit_id":     30,
				"severity":    "WARNING",
				"description": "secondary diagnosis not used by the model",
				"type":        "DX",
			},
		},
	}
	cl := periodClaim()
	c, _ := newTestClient(t, reply)

	res := output.NewResult(cl.ClaimID)
	if err := c.Process(context.Background(), cl, res); err != nil {
		t.Fatal(err)
	}
	out := res.Hhag
	if out == nil || out.ClaimID != "hh-0001" {
		t.Fatalf("report = %+v", out)
	}
	if out.HippsCode != "1CGK1" || out.ValidityFlag != "1" {
		t.Errorf("hipps = %q validity = %q", out.HippsCode, out.ValidityFlag)
	}
	if out.ReturnCode.Code != "00" || out.ReturnCode.Description == "" {
		t.Errorf("return code = %+v", out.ReturnCode)
	}
	if len(out.Edits) != 1 {
		t.Fatalf("edits = %+v", out.Edits)
	}
	edit := out.Edits[0]
	if edit.EditID != 30 || edit.Severity != "WARNING" || edit.Type != "DX" {
		t.Errorf("edit = %+v", edit)
	}
}
