package claim

// Module identifies one processing module. The string values are the names
// accepted on the claim's modules list.
type Module string

const (
	MCE     Module = "MCE"
	IOCE    Module = "IOCE"
	MSDRG   Module = "MSDRG"
	HHAG    Module = "HHAG"
	CMG     Module = "CMG"
	IPPS    Module = "IPPS"
	OPPS    Module = "OPPS"
	IRF     Module = "IRF"
	HHA     Module = "HHA"
	SNF     Module = "SNF"
	LTCH    Module = "LTCH"
	PSYCH   Module = "PSYCH"
	ESRD    Module = "ESRD"
	HOSPICE Module = "HOSPICE"
	FQHC    Module = "FQHC"
)

// AllModules lists every known module.
var AllModules = []Module{
	MCE, IOCE, MSDRG, HHAG, CMG,
	IPPS, OPPS, IRF, HHA, SNF, LTCH, PSYCH, ESRD, HOSPICE, FQHC,
}

var knownModules = func() map[Module]bool {
	m := make(map[Module]bool, len(AllModules))
	for _, mod := range AllModules {
		m[mod] = true
	}
	return m
}()

// Valid reports whether m names a known module.
func (m Module) Valid() bool { return knownModules[m] }

// POA is a present-on-admission indicator.
type POA string

const (
	PoaY     POA = "Y"
	PoaN     POA = "N"
	PoaW     POA = "W"
	PoaU     POA = "U"
	PoaOne   POA = "1"
	PoaE     POA = "E"
	PoaBlank POA = ""
)

// Valid reports whether p is in the closed indicator set.
func (p POA) Valid() bool {
	switch p {
	case PoaY, PoaN, PoaW, PoaU, PoaOne, PoaE, PoaBlank:
		return true
	}
	return false
}

// Name returns the symbolic name groupers expect: letters map to themselves,
// "1" to ONE and blank to BLANK.
func (p POA) Name() string {
	switch p {
	case PoaOne:
		return "ONE"
	case PoaBlank:
		return "BLANK"
	default:
		return string(p)
	}
}

// DxType distinguishes principal from secondary diagnoses.
type DxType int

const (
	DxUnknown DxType = iota
	DxPrincipal
	DxSecondary
)

// ConvertOption selects how ICD-10 code conversion is driven for a claim.
type ConvertOption string

const (
	ConvertNone   ConvertOption = "NONE"
	ConvertAuto   ConvertOption = "AUTO"
	ConvertManual ConvertOption = "MANUAL"
)
