// Package hhag runs home health claims through the CMS home health grouper,
// which scores the claim's diagnoses and OASIS assessment items into the
// HIPPS code the billing period pays under.
package hhag

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/errdefs"
	"github.com/librepps/gopps/pkg/output"
)

const (
	engineName     = "hhag"
	componentClass = "gov.cms.hh.grouper.GrouperFactory"

	defaultAdl = "00"
)

// Client is the home health grouping module.
type Client struct {
	runner   engine.Runner
	instance string
	log      zerolog.Logger
}

// NewClient starts one grouper on the engine host. The grouper selects its
// model year from each claim's dates.
func NewClient(ctx context.Context, runner engine.Runner, log zerolog.Logger) (*Client, error) {
	res, err := runner.Invoke(ctx, engine.Request{
		Op:      engine.OpNewInstance,
		Payload: map[string]interface{}{"class": componentClass},
	})
	if err != nil {
		return nil, err
	}
	handle := engine.Str(res, "instance")
	if handle == "" {
		return nil, fmt.Errorf("hhag: bridge returned no instance handle")
	}
	log.Info().Str("engine", engineName).Msg("home health grouper ready")
	return &Client{runner: runner, instance: handle, log: log}, nil
}

func (c *Client) Name() claim.Module           { return claim.HHAG }
func (c *Client) Dependencies() []claim.Module { return nil }

// Validate checks the period dates the grouper cannot run without.
func (c *Client) Validate(cl *claim.Claim) error {
	if cl.FromDate == nil {
		return errdefs.Validation("hhag requires a claim from_date")
	}
	if cl.ThruDate == nil {
		return errdefs.Validation("hhag requires a claim thru_date")
	}
	return nil
}

// Process groups the billing period and records the HIPPS report.
func (c *Client) Process(ctx context.Context, cl *claim.Claim, res *output.Result) error {
	reply, err := c.runner.Invoke(ctx, engine.Request{
		Op:       engine.OpInvoke,
		Instance: c.instance,
		Method:   "group",
		Payload:  buildInput(cl),
	})
	if err != nil {
		return err
	}
	out := extractOutput(reply)
	out.ClaimID = cl.ClaimID
	res.Hhag = out
	return nil
}

func buildInput(cl *claim.Claim) map[string]interface{} {
	input := map[string]interface{}{
		"claim_id":      cl.ClaimID,
		"period_timing": periodTiming(cl),
		"from_date":     cl.FromDate.Compact(),
		"thru_date":     cl.ThruDate.Compact(),
		"oasis":         oasisEntries(cl.Oasis),
	}
	if src := referralSource(cl); src != "" {
		input["referral_source"] = src
	}
	if cl.PrincipalDx != nil && cl.PrincipalDx.Code != "" {
		input["principal_dx"] = dxEntry(*cl.PrincipalDx)
	}
	var secondaries []map[string]interface{}
	for _, dx := range cl.SecondaryDxs {
		if dx.Code == "" {
			continue
		}
		secondaries = append(secondaries, dxEntry(dx))
	}
	if len(secondaries) > 0 {
		input["secondary_dxs"] = secondaries
	}
	return input
}

// periodTiming distinguishes the first billing period of a home health
// admission ("1") from a later one ("2"). Only a period that starts on the
// admission date can be first.
func periodTiming(cl *claim.Claim) string {
	if cl.AdmitDate != nil && cl.FromDate != nil && cl.AdmitDate.Equal(*cl.FromDate) {
		return "1"
	}
	return "2"
}

// referralSource reports the institutional-discharge occurrence code the
// grouper reads (61 hospital, 62 SNF); the last one on the claim wins.
func referralSource(cl *claim.Claim) string {
	src := ""
	for _, oc := range cl.OccurrenceCodes {
		if oc.Code == "61" || oc.Code == "62" {
			src = oc.Code
		}
	}
	return src
}

// oasisEntries marshals the assessment items the grouper scores. A claim
// with no assessment gets the neutral set: no hospitalization risks,
// none-of-above checked, every ADL coded "00".
func oasisEntries(oa *claim.OasisAssessment) map[string]interface{} {
	if oa == nil {
		oa = &claim.OasisAssessment{NoneOfAbove: 1}
	}
	return map[string]interface{}{
		"hosp_risk_history_falls":     strconv.Itoa(oa.FallRisk),
		"hosp_risk_weight_loss":       strconv.Itoa(oa.WeightLoss),
		"hosp_risk_multi_hospital":    strconv.Itoa(oa.MultipleHospitalStays),
		"hosp_risk_multi_ed_visit":    strconv.Itoa(oa.MultipleEDVisits),
		"hosp_risk_mental_behav_decl": strconv.Itoa(oa.MentalBehaviorRisk),
		"hosp_risk_compliance":        strconv.Itoa(oa.ComplianceRisk),
		"hosp_risk_five_more_meds":    strconv.Itoa(oa.FiveOrMoreMeds),
		"hosp_risk_exhaustion":        strconv.Itoa(oa.Exhaustion),
		"hosp_risk_other_risk":        strconv.Itoa(oa.OtherRisk),
		"hosp_risk_none_above":        strconv.Itoa(oa.NoneOfAbove),
		"grooming":                    adl(oa.Grooming),
		"dress_upper":                 adl(oa.DressUpper),
		"dress_lower":                 adl(oa.DressLower),
		"bathing":                     adl(oa.Bathing),
		"toileting":                   adl(oa.Toileting),
		"transferring":                adl(oa.Transferring),
		"ambulation":                  adl(oa.Ambulation),
	}
}

func adl(code string) string {
	if code == "" {
		return defaultAdl
	}
	return code
}

func dxEntry(dx claim.DiagnosisCode) map[string]interface{} {
	return map[string]interface{}{
		"diagnosis": engine.StripPeriods(dx.Code),
		"poa":       dx.Poa.Name(),
	}
}

func extractOutput(m map[string]interface{}) *output.HhagOutput {
	out := &output.HhagOutput{
		HippsCode:    engine.Str(m, "hipps_code"),
		ValidityFlag: engine.Str(m, "validity_flag"),
	}
	if rc := engine.SubMap(m, "return_code"); rc != nil {
		out.ReturnCode = output.ReturnCode{
			Code:        engine.Str(rc, "code"),
			Description: engine.Str(rc, "description"),
		}
	}
	for _, e := range engine.Maps(m, "edits") {
		out.Edits = append(out.Edits, output.HhagEdit{
			EditID:      engine.Int(e, "edit_id"),
			Severity:    engine.Str(e, "severity"),
			Description: engine.Str(e, "description"),
			Type:        engine.Str(e, "type"),
		})
	}
	return out
}
