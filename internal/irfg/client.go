// Package irfg runs inpatient rehabilitation claims through the CMS CMG
// grouper, which scores IRF-PAI assessment items and diagnoses into the
// case-mix group an IRF stay pays under.
package irfg

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/errdefs"
	"github.com/librepps/gopps/pkg/output"
)

const (
	engineName     = "irfg"
	componentClass = "gov.cms.grouper.irf.app.Cmg"

	defaultSystem      = "IRF-PAI"
	defaultTransaction = 1
	maxDxCodes         = 25
	dxWidth            = 8
)

// assessmentTags pairs each IRF-PAI item with its form-location tag from
// the grouper documentation; the grouper keys on the tag.
var assessmentTags = []struct {
	tag   string
	value func(*claim.IrfPai) string
}{
	{"GG0130A1", func(p *claim.IrfPai) string { return p.EatingSelfAdmsnCd }},
	{"GG0130B1", func(p *claim.IrfPai) string { return p.OralHygneAdmsnCd }},
	{"GG0130C1", func(p *claim.IrfPai) string { return p.ToiletingHygneAdmsnCd }},
	{"GG0130E1", func(p *claim.IrfPai) string { return p.BathingHygneAdmsnCd }},
	{"GG0130F1", func(p *claim.IrfPai) string { return p.UpperBodyDressingCd }},
	{"GG0130G1", func(p *claim.IrfPai) string { return p.LowerBodyDressingCd }},
	{"GG0130H1", func(p *claim.IrfPai) string { return p.FootwearDressingCd }},
	{"GG0170B1", func(p *claim.IrfPai) string { return p.SitToLyingCd }},
	{"GG0170C1", func(p *claim.IrfPai) string { return p.LyingToSitCd }},
	{"GG0170D1", func(p *claim.IrfPai) string { return p.SitToStandCd }},
	{"GG0170E1", func(p *claim.IrfPai) string { return p.ChairBedTransferCd }},
	{"GG0170F1", func(p *claim.IrfPai) string { return p.ToiletTransferCd }},
	{"GG0170G1", func(p *claim.IrfPai) string { return p.Walk10FeetCd }},
	{"GG0170H1", func(p *claim.IrfPai) string { return p.Walk50FeetCd }},
	{"GG0170I1", func(p *claim.IrfPai) string { return p.Walk150FeetCd }},
	{"GG0170M1", func(p *claim.IrfPai) string { return p.Step1Cd }},
	{"H0350", func(p *claim.IrfPai) string { return p.UrinaryContinenceCd }},
	{"H0400", func(p *claim.IrfPai) string { return p.BowelContinenceCd }},
}

// Client is the CMG grouping module.
type Client struct {
	runner   engine.Runner
	instance string
	log      zerolog.Logger
}

// NewClient starts one grouper on the engine host.
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
		return nil, fmt.Errorf("irfg: bridge returned no instance handle")
	}
	log.Info().Str("engine", engineName).Msg("cmg grouper ready")
	return &Client{runner: runner, instance: handle, log: log}, nil
}

func (c *Client) Name() claim.Module           { return claim.CMG }
func (c *Client) Dependencies() []claim.Module { return nil }

// Validate checks for the assessment and the birth date the grouper's age
// arithmetic needs.
func (c *Client) Validate(cl *claim.Claim) error {
	if cl.IrfPai == nil {
		return errdefs.Validation("cmg grouping requires irf_pai assessment data")
	}
	if cl.Patient == nil || cl.Patient.DateOfBirth == nil {
		return errdefs.Validation("cmg grouping requires the patient date of birth")
	}
	return nil
}

// Process groups the stay and records the case-mix report.
func (c *Client) Process(ctx context.Context, cl *claim.Claim, res *output.Result) error {
	reply, err := c.runner.Invoke(ctx, engine.Request{
		Op:       engine.OpInvoke,
		Instance: c.instance,
		Method:   "process",
		Payload:  buildInput(cl),
	})
	if err != nil {
		return err
	}
	out := extractOutput(reply)
	out.ClaimID = cl.ClaimID
	res.Cmg = out
	return nil
}

func buildInput(cl *claim.Claim) map[string]interface{} {
	pai := cl.IrfPai
	input := map[string]interface{}{
		"assessment_system": assessmentSystem(pai),
		"transaction_type":  transactionType(pai),
		"birth_date":        engine.CompactDate(cl.Patient.DateOfBirth),
	}
	if pai.ImpairmentAdmitGroupCode != "" {
		input["impairment_group"] = pai.ImpairmentAdmitGroupCode
	}
	if d := engine.CompactDate(cl.AdmitDate); d != "" {
		input["admission_date"] = d
	}
	if d := engine.CompactDate(cl.ThruDate); d != "" {
		input["discharge_date"] = d
	}
	if codes := dxCodes(cl); len(codes) > 0 {
		input["dx_codes"] = codes
	}
	if items := assessments(pai); len(items) > 0 {
		input["assessments"] = items
	}
	return input
}

func assessmentSystem(pai *claim.IrfPai) string {
	if pai.AssessmentSystem == "" {
		return defaultSystem
	}
	return pai.AssessmentSystem
}

func transactionType(pai *claim.IrfPai) int {
	if pai.TransactionType == 0 {
		return defaultTransaction
	}
	return pai.TransactionType
}

// dxCodes lists the claim's diagnoses padded to the grouper's fixed width,
// principal first. Codes keep their periods: the grouper validates the
// ICD-10 pattern, dots included.
func dxCodes(cl *claim.Claim) []string {
	var codes []string
	if cl.PrincipalDx != nil && cl.PrincipalDx.Code != "" {
		codes = append(codes, padDx(cl.PrincipalDx.Code))
	}
	for _, dx := range cl.SecondaryDxs {
		if len(codes) == maxDxCodes {
			break
		}
		if dx.Code == "" {
			continue
		}
		codes = append(codes, padDx(dx.Code))
	}
	return codes
}

func padDx(code string) string {
	if len(code) >= dxWidth {
		return code
	}
	return code + strings.Repeat("^", dxWidth-len(code))
}

func assessments(pai *claim.IrfPai) []map[string]interface{} {
	var items []map[string]interface{}
	for _, t := range assessmentTags {
		if v := t.value(pai); v != "" {
			items = append(items, map[string]interface{}{"item": t.tag, "value": v})
		}
	}
	return items
}

func extractOutput(m map[string]interface{}) *output.CmgOutput {
	return &output.CmgOutput{
		IrfVersion:       engine.Str(m, "irf_version"),
		MotorScore:       engine.Float(m, "motor_score"),
		Ric:              engine.Int(m, "ric"),
		CmgGroup:         engine.Str(m, "cmg_group"),
		ErrorCode:        engine.Int(m, "error_code"),
		ErrorDescription: engine.Str(m, "error_description"),
	}
}
