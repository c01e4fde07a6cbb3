// Package ioce runs outpatient claims through the CMS Integrated Outpatient
// Code Editor and post-processes its report with the editor's own
// description lookups.
package ioce

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/output"
)

const (
	engineName     = "ioce"
	componentClass = "gov.cms.oce.IoceComponent"

	defaultClaimID    = "DEFAULT_CLAIM_ID"
	defaultOppsFlag   = "1"
	defaultActionFlag = "0"
	maxLineModifiers  = 5
)

// Client is the Integrated Outpatient Code Editor module.
type Client struct {
	runner   engine.Runner
	instance string
	log      zerolog.Logger
}

// NewClient starts one editor component on the engine host. The component
// selects its internal quarterly version from each claim's dates, so a
// single instance serves every claim.
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
		return nil, fmt.Errorf("ioce: bridge returned no instance handle")
	}
	log.Info().Str("engine", engineName).Msg("outpatient editor ready")
	return &Client{runner: runner, instance: handle, log: log}, nil
}

func (c *Client) Name() claim.Module           { return claim.IOCE }
func (c *Client) Dependencies() []claim.Module { return nil }

// Validate always passes: every editor input field carries a default.
func (c *Client) Validate(*claim.Claim) error { return nil }

// Process edits the claim and enriches the report with the editor's
// published descriptions. A failed description lookup never fails the
// claim; the report then ships without descriptions.
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
	if err := c.appendDescriptions(ctx, out); err != nil {
		c.log.Warn().Err(err).Str("claimid", cl.ClaimID).Msg("ioce description lookups incomplete")
	}
	res.Ioce = out
	return nil
}

func buildInput(cl *claim.Claim) map[string]interface{} {
	input := map[string]interface{}{
		"claim_id":       claimID(cl),
		"age":            engine.Age(cl.Patient),
		"sex":            engine.SexCode(cl.Patient),
		"bill_type":      engine.BillType(cl.BillType),
		"patient_status": engine.PatientStatus(cl.PatientStatus),
		"opps_flag":      oppsFlag(cl),
		"ccn":            certNumber(cl),
	}
	if d := engine.CompactDate(cl.FromDate); d != "" {
		input["date_started"] = d
	}
	if d := engine.CompactDate(cl.ThruDate); d != "" {
		input["date_ended"] = d
	}
	if d := engine.CompactDate(cl.ReceiptDate); d != "" {
		input["receipt_date"] = d
	}
	if cl.BillingProvider != nil && cl.BillingProvider.NPI != "" {
		input["npi"] = engine.NPI(cl.BillingProvider.NPI)
	}

	var occurrences []string
	for _, oc := range cl.OccurrenceCodes {
		if oc.Code != "" {
			occurrences = append(occurrences, oc.Code)
		}
	}
	if len(occurrences) > 0 {
		input["occurrence_codes"] = occurrences
	}
	if len(cl.CondCodes) > 0 {
		input["condition_codes"] = cl.CondCodes
	}

	var values []map[string]interface{}
	for _, vc := range cl.ValueCodes {
		if vc.Code == "" {
			continue
		}
		values = append(values, map[string]interface{}{
			"code":   vc.Code,
			"amount": engine.CentsAmount(vc.Amount),
		})
	}
	if len(values) > 0 {
		input["value_codes"] = values
	}

	if cl.PrincipalDx != nil && cl.PrincipalDx.Code != "" {
		input["principal_dx"] = dxEntry(*cl.PrincipalDx)
	}
	if rfv := rfvEntries(cl); len(rfv) > 0 {
		input["reason_for_visit_dxs"] = rfv
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

	var lines []map[string]interface{}
	for _, line := range cl.Lines {
		lines = append(lines, lineEntry(line))
	}
	if len(lines) > 0 {
		input["lines"] = lines
	}
	return input
}

func claimID(cl *claim.Claim) string {
	if cl.ClaimID != "" {
		return cl.ClaimID
	}
	return defaultClaimID
}

func oppsFlag(cl *claim.Claim) string {
	if cl.OppsFlag == 0 {
		return defaultOppsFlag
	}
	return strconv.Itoa(cl.OppsFlag)
}

func certNumber(cl *claim.Claim) string {
	if cl.BillingProvider != nil {
		return engine.CCN(cl.BillingProvider.OtherID)
	}
	return engine.CCN("")
}

// rfvEntries is the reason-for-visit list: the principal diagnosis first
// (outpatient convention), then any codes the claim carries, skipping
// repeats of the principal.
func rfvEntries(cl *claim.Claim) []map[string]interface{} {
	var entries []map[string]interface{}
	principal := ""
	if cl.PrincipalDx != nil && cl.PrincipalDx.Code != "" {
		principal = engine.StripPeriods(cl.PrincipalDx.Code)
		entries = append(entries, dxEntry(*cl.PrincipalDx))
	}
	for _, code := range cl.RfvDxs {
		if code == "" || engine.StripPeriods(code) == principal {
			continue
		}
		entries = append(entries, dxEntry(claim.DiagnosisCode{Code: code, Poa: claim.PoaU}))
	}
	return entries
}

func dxEntry(dx claim.DiagnosisCode) map[string]interface{} {
	return map[string]interface{}{
		"diagnosis": engine.StripPeriods(dx.Code),
		"poa":       poaOrU(dx.Poa),
	}
}

// poaOrU narrows a POA indicator to the editor's four-value set; anything
// else reports unknown.
func poaOrU(p claim.POA) string {
	switch p {
	case claim.PoaY, claim.PoaN, claim.PoaW, claim.PoaU:
		return string(p)
	default:
		return "U"
	}
}

func lineEntry(line claim.LineItem) map[string]interface{} {
	entry := map[string]interface{}{
		"units":       engine.Units(line.Units),
		"action_flag": defaultActionFlag,
	}
	if d := engine.CompactDate(line.ServiceDate); d != "" {
		entry["service_date"] = d
	}
	if line.RevenueCode != "" {
		entry["revenue_code"] = line.RevenueCode
	}
	if line.Hcpcs != "" {
		entry["hcpcs"] = line.Hcpcs
	}
	var modifiers []string
	for _, m := range line.Modifiers {
		if m != "" {
			modifiers = append(modifiers, m)
		}
	}
	if len(modifiers) > maxLineModifiers {
		modifiers = modifiers[:maxLineModifiers]
	}
	if len(modifiers) > 0 {
		entry["modifiers"] = modifiers
	}
	if line.Charges > 0 {
		entry["charge"] = engine.Charges(line.Charges)
	}
	return entry
}
