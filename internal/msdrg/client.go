package msdrg

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/fiscal"
	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/errdefs"
	"github.com/librepps/gopps/pkg/output"
)

// CodeMapper generates the ICD-10 code remapping applied before grouping.
type CodeMapper interface {
	GenerateClaimMappings(ctx context.Context, cl *claim.Claim, targetVersion string) (*output.IcdConversion, error)
}

// Client is the MS-DRG grouping module.
type Client struct {
	disp   *Dispatcher
	mapper CodeMapper
	log    zerolog.Logger
}

// NewClient builds the module. mapper may be nil when no conversion tables
// are loaded; claims that request conversion then fail validation.
func NewClient(disp *Dispatcher, mapper CodeMapper, log zerolog.Logger) *Client {
	return &Client{disp: disp, mapper: mapper, log: log}
}

func (c *Client) Name() claim.Module           { return claim.MSDRG }
func (c *Client) Dependencies() []claim.Module { return nil }

// Validate checks the fields grouping cannot proceed without.
func (c *Client) Validate(cl *claim.Claim) error {
	if cl.ThruDate == nil {
		return errdefs.Validation("msdrg requires a claim thru_date")
	}
	if cl.PrincipalDx == nil || cl.PrincipalDx.Code == "" {
		return errdefs.Validation("msdrg requires a principal diagnosis")
	}
	if cl.Patient == nil || (cl.Patient.Age <= 0 && cl.Patient.DateOfBirth == nil) {
		return errdefs.Validation("patient age or date of birth must be provided")
	}
	if cl.Patient.Age <= 0 && cl.FromDate == nil {
		return errdefs.Validation("msdrg requires a from_date to derive age from date of birth")
	}
	if cl.PatientStatus != "" {
		if _, err := strconv.Atoi(cl.PatientStatus); err != nil {
			return errdefs.Validation("patient status %q is not numeric", cl.PatientStatus)
		}
	}
	_, err := optionsFrom(cl)
	return err
}

// Process groups the claim under the version selected by its options or, by
// default, its thru date.
func (c *Client) Process(ctx context.Context, cl *claim.Claim, res *output.Result) error {
	opts, err := optionsFrom(cl)
	if err != nil {
		return err
	}
	version := opts.Version
	if version == "" {
		version = fiscal.VersionForDate(cl.ThruDate.Time)
	}

	var conv *output.IcdConversion
	if cl.ICDConvert != nil && cl.ICDConvert.Option != claim.ConvertNone {
		if c.mapper == nil {
			return errdefs.Validation("icd conversion requested but no conversion tables are loaded")
		}
		conv, err = c.mapper.GenerateClaimMappings(ctx, cl, version)
		if err != nil {
			return err
		}
	}

	input, err := buildInput(cl, conv)
	if err != nil {
		return err
	}
	raw, err := c.disp.Process(ctx, version, opts, input)
	if err != nil {
		return err
	}

	out := extractOutput(raw)
	out.ClaimID = cl.ClaimID
	out.DrgVersion = version
	out.IcdConversionOutput = conv
	res.Msdrg = out
	return nil
}

// optionsFrom reads the claim's msdrg additional-data block; the shorter
// drg key is accepted too.
func optionsFrom(cl *claim.Claim) (Options, error) {
	var opts Options
	data := cl.ModuleData("msdrg")
	if data == nil {
		data = cl.ModuleData("drg")
	}
	if data == nil {
		return opts, nil
	}
	opts.Version = engine.Str(data, "drg_version")
	opts.PoaExempt = engine.Bool(data, "poa_exempt")
	switch v := AffectDrg(engine.Str(data, "affect_drg")); v {
	case "", AffectDrgCompute, AffectDrgSkip:
		opts.AffectDrg = v
	default:
		return opts, errdefs.Validation("unknown affect_drg option %q", string(v))
	}
	switch v := TieBreaker(engine.Str(data, "tie_breaker")); v {
	case "", TieBreakerClinicalSignificance, TieBreakerCodeOrder:
		opts.TieBreaker = v
	default:
		return opts, errdefs.Validation("unknown tie_breaker option %q", string(v))
	}
	return opts, nil
}

func buildInput(cl *claim.Claim, conv *output.IcdConversion) (map[string]interface{}, error) {
	input := map[string]interface{}{
		"sex": engine.SexName(cl.Patient),
	}

	p := cl.Patient
	switch {
	case p.Age > 0:
		input["age_in_years"] = p.Age
	case p.DateOfBirth != nil:
		days := claim.DaysBetween(*p.DateOfBirth, *cl.FromDate)
		if days < 0 {
			days = 0
		}
		input["age_in_years"] = 0
		input["age_days_admit"] = days
		input["age_days_discharge"] = days + cl.LOS
	default:
		return nil, errdefs.Validation("patient age or date of birth must be provided")
	}

	status := 1
	if cl.PatientStatus != "" {
		n, err := strconv.Atoi(cl.PatientStatus)
		if err != nil {
			return nil, errdefs.Validation("patient status %q is not numeric", cl.PatientStatus)
		}
		status = n
	}
	input["discharge_status"] = status

	// Admit and principal codes always report present on admission.
	input["principal_dx"] = dxEntry(mappedCode(cl.PrincipalDx.Code, conv), claim.PoaY)
	if cl.AdmitDx != nil && cl.AdmitDx.Code != "" {
		input["admit_dx"] = dxEntry(mappedCode(cl.AdmitDx.Code, conv), claim.PoaY)
	}

	var secondaries []map[string]interface{}
	for _, dx := range cl.SecondaryDxs {
		if dx.Code == "" {
			continue
		}
		secondaries = append(secondaries, dxEntry(mappedCode(dx.Code, conv), dx.Poa))
	}
	if len(secondaries) > 0 {
		input["secondary_dxs"] = secondaries
	}

	var procedures []string
	for _, px := range cl.InpatientPxs {
		if px.Code == "" {
			continue
		}
		procedures = append(procedures, mappedCode(px.Code, conv))
	}
	if len(procedures) > 0 {
		input["procedures"] = procedures
	}
	return input, nil
}

func dxEntry(code string, poa claim.POA) map[string]interface{} {
	return map[string]interface{}{"code": code, "poa": poa.Name()}
}

// mappedCode swaps a claim code for its conversion target when one exists.
// Mappings are keyed by the code exactly as billed; periods come off only
// on the way to the engine.
func mappedCode(code string, conv *output.IcdConversion) string {
	if conv != nil {
		if m, ok := conv.Mappings[code]; ok && m.Target != "" {
			code = m.Target
		}
	}
	return engine.StripPeriods(code)
}

func extractOutput(raw map[string]interface{}) *output.MsdrgOutput {
	out := &output.MsdrgOutput{
		InitialGrc: engine.Str(raw, "initial_grc"),
		FinalGrc:   engine.Str(raw, "final_grc"),

		InitialMdcValue:       engine.Str(raw, "initial_mdc_value"),
		InitialMdcDescription: engine.Str(raw, "initial_mdc_description"),
		FinalMdcValue:         engine.Str(raw, "final_mdc_value"),
		FinalMdcDescription:   engine.Str(raw, "final_mdc_description"),

		InitialDrgValue:       engine.Str(raw, "initial_drg_value"),
		InitialDrgDescription: engine.Str(raw, "initial_drg_description"),
		FinalDrgValue:         engine.Str(raw, "final_drg_value"),
		FinalDrgDescription:   engine.Str(raw, "final_drg_description"),

		InitialBaseDrgValue:       engine.Str(raw, "initial_base_drg_value"),
		InitialBaseDrgDescription: engine.Str(raw, "initial_base_drg_description"),
		FinalBaseDrgValue:         engine.Str(raw, "final_base_drg_value"),
		FinalBaseDrgDescription:   engine.Str(raw, "final_base_drg_description"),

		InitialMedSurgType: engine.Str(raw, "initial_med_surg_type"),
		FinalMedSurgType:   engine.Str(raw, "final_med_surg_type"),

		InitialSeverity: engine.Str(raw, "initial_severity"),
		FinalSeverity:   engine.Str(raw, "final_severity"),

		InitialDrgSdxSeverity: engine.Str(raw, "initial_drg_sdx_severity"),
		FinalDrgSdxSeverity:   engine.Str(raw, "final_drg_sdx_severity"),

		HacStatus:                 engine.Str(raw, "hac_status"),
		NumHacCategoriesSatisfied: engine.Int(raw, "num_hac_categories_satisfied"),
	}
	if gf := engine.SubMap(raw, "grouper_flags"); gf != nil {
		out.GrouperFlags = output.MsdrgGrouperFlags{
			AdmitDxGrouperFlag:          engine.Str(gf, "admit_dx_grouper_flag"),
			FinalSecondaryDxCcMccFlag:   engine.Str(gf, "final_secondary_dx_cc_mcc_flag"),
			InitialSecondaryDxCcMccFlag: engine.Str(gf, "initial_secondary_dx_cc_mcc_flag"),
			NumHacCategoriesSatisfied:   engine.Int(gf, "num_hac_categories_satisfied"),
			HacStatusValue:              engine.Str(gf, "hac_status_value"),
		}
	}
	if m := engine.SubMap(raw, "principal_dx_output"); m != nil {
		out.PrincipalDxOutput = dxOutput(m)
	}
	for _, m := range engine.Maps(raw, "secondary_dx_outputs") {
		out.SecondaryDxOutputs = append(out.SecondaryDxOutputs, dxOutput(m))
	}
	for _, m := range engine.Maps(raw, "procedure_outputs") {
		out.ProcedureOutputs = append(out.ProcedureOutputs, pxOutput(m))
	}
	return out
}

func dxOutput(m map[string]interface{}) output.MsdrgDxOutput {
	out := output.MsdrgDxOutput{
		GroupingImpact:      engine.Str(m, "grouping_impact"),
		FinalSeverityFlag:   engine.Str(m, "final_severity_flag"),
		InitialSeverityFlag: engine.Str(m, "initial_severity_flag"),
		PoaErrorCode:        engine.Str(m, "poa_error_code"),
		RecognizedByGrouper: engine.Bool(m, "recognized_by_grouper"),
	}
	for _, h := range engine.Maps(m, "hac_list") {
		out.HacList = append(out.HacList, hacSlot(h))
	}
	return out
}

func pxOutput(m map[string]interface{}) output.MsdrgPxOutput {
	out := output.MsdrgPxOutput{
		GroupingImpact:      engine.Str(m, "grouping_impact"),
		IsOrProcedure:       engine.Bool(m, "is_or_procedure"),
		RecognizedByGrouper: engine.Bool(m, "recognized_by_grouper"),
	}
	for _, h := range engine.Maps(m, "hac_usage") {
		out.HacUsage = append(out.HacUsage, hacSlot(h))
	}
	return out
}

func hacSlot(m map[string]interface{}) output.MsdrgHac {
	return output.MsdrgHac{
		HacNumber: engine.Int(m, "hac_number"),
		HacStatus: engine.Str(m, "hac_status"),
		HacList:   engine.Str(m, "hac_list"),
	}
}
