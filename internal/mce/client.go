// Package mce runs inpatient claims through the CMS Medicare Code Editor,
// which screens diagnosis and procedure codes for coding errors before the
// claim reaches a grouper.
package mce

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/errdefs"
	"github.com/librepps/gopps/pkg/output"
)

const (
	engineName     = "mce"
	componentClass = "gov.cms.editor.mce.MceComponent"
	icdVersion     = "ICD_10"
)

// Client is the Medicare Code Editor module.
type Client struct {
	runner   engine.Runner
	instance string
	log      zerolog.Logger
}

// NewClient starts one editor component on the engine host. The editor takes
// no construction options and keeps no per-claim state, so a single instance
// serves every claim.
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
		return nil, fmt.Errorf("mce: bridge returned no instance handle")
	}
	log.Info().Str("engine", engineName).Msg("code editor ready")
	return &Client{runner: runner, instance: handle, log: log}, nil
}

func (c *Client) Name() claim.Module           { return claim.MCE }
func (c *Client) Dependencies() []claim.Module { return nil }

// Validate checks the fields editing cannot proceed without.
func (c *Client) Validate(cl *claim.Claim) error {
	if cl.ThruDate == nil {
		return errdefs.Validation("mce requires a claim thru_date")
	}
	if cl.LOS <= 0 && cl.FromDate == nil {
		return errdefs.Validation("mce requires a from_date to derive length of stay")
	}
	return nil
}

// Process edits the claim's codes and decodes the per-code edit strings.
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
	res.Mce = extractOutput(reply)
	return nil
}

func buildInput(cl *claim.Claim) map[string]interface{} {
	input := map[string]interface{}{
		"icd_version":    icdVersion,
		"discharge_date": cl.ThruDate.Compact(),
		"los":            lengthOfStay(cl),
	}
	// Discharge status is optional and rides only when numeric.
	if n, err := strconv.Atoi(cl.PatientStatus); err == nil {
		input["discharge_status"] = n
	}
	if p := cl.Patient; p != nil {
		input["age_in_years"] = p.Age
		input["sex"] = sexCode(p.Sex)
	}
	if cl.AdmitDx != nil && cl.AdmitDx.Code != "" {
		input["admit_dx"] = engine.StripPeriods(cl.AdmitDx.Code)
	}

	var diagnoses []string
	if cl.PrincipalDx != nil && cl.PrincipalDx.Code != "" {
		diagnoses = append(diagnoses, engine.StripPeriods(cl.PrincipalDx.Code))
	}
	for _, dx := range cl.SecondaryDxs {
		if dx.Code == "" {
			continue
		}
		diagnoses = append(diagnoses, engine.StripPeriods(dx.Code))
	}
	if len(diagnoses) > 0 {
		input["diagnoses"] = diagnoses
	}

	var procedures []string
	for _, px := range cl.InpatientPxs {
		if px.Code == "" {
			continue
		}
		procedures = append(procedures, engine.StripPeriods(px.Code))
	}
	if len(procedures) > 0 {
		input["procedures"] = procedures
	}
	return input
}

// lengthOfStay falls back to the claim's date span when no stay is carried.
// The editor wants at least one day.
func lengthOfStay(cl *claim.Claim) int {
	if cl.LOS > 0 {
		return cl.LOS
	}
	if days := claim.DaysBetween(*cl.FromDate, *cl.ThruDate); days >= 0 {
		return days + 1
	}
	return 1
}

// sexCode is the editor's two-value field: 1 for male, 2 for everyone else.
func sexCode(sex string) int {
	if strings.HasPrefix(strings.ToUpper(sex), "M") {
		return 1
	}
	return 2
}

func extractOutput(reply map[string]interface{}) *output.MceOutput {
	out := &output.MceOutput{
		VersionUsed: engine.Int(reply, "version_used"),
		EditType:    engine.Str(reply, "edit_type"),
	}
	if counters := engine.SubMap(reply, "edit_counters"); len(counters) > 0 {
		out.EditCounters = make(map[string]int, len(counters))
		for name := range counters {
			out.EditCounters[name] = engine.Int(counters, name)
		}
	}
	for _, m := range engine.Maps(reply, "diagnosis_codes") {
		dx := output.DecodeMceDx(engine.Str(m, "code"), engine.Str(m, "edits"))
		// The record's own conflict enum wins over the edit-string slot.
		if conflict := engine.Str(m, "age_conflict_type"); conflict != "" {
			dx.AgeConflictType = conflict
		}
		out.DiagnosisCodes = append(out.DiagnosisCodes, dx)
	}
	for _, m := range engine.Maps(reply, "procedure_codes") {
		px := output.DecodeMcePx(engine.Str(m, "code"), engine.Str(m, "edits"))
		out.ProcedureCodes = append(out.ProcedureCodes, px)
	}
	return out
}
