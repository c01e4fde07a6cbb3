// Package claim defines the canonical institutional claim accepted by every
// processing module, its JSON codec and its validation rules. Modules never
// read payer-specific formats; translation from X12 or flat files into this
// model happens upstream of this library.
package claim

// ValueCode is a value code with its dollar amount.
type ValueCode struct {
	Code   string  `json:"code"`
	Amount float64 `json:"amount"`
}

// OccurrenceCode is an occurrence code with its date.
type OccurrenceCode struct {
	Code string `json:"code"`
	Date *Date  `json:"date,omitempty"`
}

// SpanCode is an occurrence span code with its date range.
type SpanCode struct {
	Code      string `json:"code"`
	StartDate *Date  `json:"start_date,omitempty"`
	EndDate   *Date  `json:"end_date,omitempty"`
}

// DiagnosisCode is an ICD-10-CM code with its POA indicator. Codes keep
// their periods in the canonical model; engine boundaries strip them.
type DiagnosisCode struct {
	Code   string `json:"code"`
	Poa    POA    `json:"poa,omitempty"`
	DxType DxType `json:"dx_type,omitempty"`
}

// ProcedureCode is an ICD-10-PCS inpatient procedure.
type ProcedureCode struct {
	Code     string `json:"code"`
	Modifier string `json:"modifier,omitempty"`
	Date     *Date  `json:"date,omitempty"`
}

// Address is a postal address; Zip4 carries the +4 extension separately so
// locality lookups can prefer nine-digit matches.
type Address struct {
	Address1 string `json:"address1,omitempty"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Zip      string `json:"zip,omitempty"`
	Zip4     string `json:"zip4,omitempty"`
	Country  string `json:"country,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Fax      string `json:"fax,omitempty"`
}

// Provider identifies a billing or servicing provider. OtherID carries the
// CCN; reference lookups try it before the NPI.
type Provider struct {
	NPI          string  `json:"npi,omitempty"`
	OtherID      string  `json:"other_id,omitempty"`
	FacilityName string  `json:"facility_name,omitempty"`
	FirstName    string  `json:"first_name,omitempty"`
	LastName     string  `json:"last_name,omitempty"`
	ContractID   string  `json:"contract_id,omitempty"`
	Address      Address `json:"address,omitempty"`
	Carrier      string  `json:"carrier,omitempty"`
	Locality     string  `json:"locality,omitempty"`
}

// Patient carries the demographics modules need. Age of zero means unset;
// clients fall back to date-of-birth arithmetic.
type Patient struct {
	PatientID           string   `json:"patient_id,omitempty"`
	Names               []string `json:"names,omitempty"`
	DateOfBirth         *Date    `json:"date_of_birth,omitempty"`
	MedicalRecordNumber string   `json:"medical_record_number,omitempty"`
	Address             Address  `json:"address,omitempty"`
	Age                 int      `json:"age,omitempty" validate:"gte=0"`
	Sex                 string   `json:"sex,omitempty"`
}

// LineItem is one service line.
type LineItem struct {
	ServiceDate       *Date     `json:"service_date,omitempty"`
	RevenueCode       string    `json:"revenue_code,omitempty"`
	Hcpcs             string    `json:"hcpcs,omitempty"`
	Modifiers         []string  `json:"modifiers,omitempty"`
	Units             int       `json:"units,omitempty" validate:"gte=0"`
	Charges           float64   `json:"charges,omitempty" validate:"gte=0"`
	NDC               string    `json:"ndc,omitempty"`
	NDCUnits          float64   `json:"ndc_units,omitempty"`
	POS               string    `json:"pos,omitempty"`
	ServicingProvider *Provider `json:"servicing_provider,omitempty"`
}

// ICDConvert drives optional ICD-10 version conversion before grouping.
// Versions are fiscal grouper versions ("420"), not calendar years.
type ICDConvert struct {
	Option        ConvertOption `json:"option,omitempty"`
	TargetVersion string        `json:"target_version,omitempty"`
	BilledVersion string        `json:"billed_version,omitempty"`
}

// OasisAssessment carries the OASIS items the home-health grouper reads:
// hospitalization-risk flags (0/1) and ADL severity codes.
type OasisAssessment struct {
	FallRisk              int    `json:"fall_risk,omitempty"`
	WeightLoss            int    `json:"weight_loss,omitempty"`
	MultipleHospitalStays int    `json:"multiple_hospital_stays,omitempty"`
	MultipleEDVisits      int    `json:"multiple_ed_visits,omitempty"`
	MentalBehaviorRisk    int    `json:"mental_behavior_risk,omitempty"`
	ComplianceRisk        int    `json:"compliance_risk,omitempty"`
	FiveOrMoreMeds        int    `json:"five_or_more_meds,omitempty"`
	Exhaustion            int    `json:"exhaustion,omitempty"`
	OtherRisk             int    `json:"other_risk,omitempty"`
	NoneOfAbove           int    `json:"none_of_above,omitempty"`
	Grooming              string `json:"grooming,omitempty"`
	DressUpper            string `json:"dress_upper,omitempty"`
	DressLower            string `json:"dress_lower,omitempty"`
	Bathing               string `json:"bathing,omitempty"`
	Toileting             string `json:"toileting,omitempty"`
	Transferring          string `json:"transferring,omitempty"`
	Ambulation            string `json:"ambulation,omitempty"`
}

// IrfPai carries the IRF-PAI assessment items the CMG grouper reads. Item
// names follow the grouper documentation's variable names.
type IrfPai struct {
	AssessmentSystem         string `json:"assessment_system,omitempty"`
	TransactionType          int    `json:"transaction_type,omitempty"`
	ImpairmentAdmitGroupCode string `json:"impairment_admit_group_code,omitempty"`
	EatingSelfAdmsnCd        string `json:"eating_self_admsn_cd,omitempty"`
	OralHygneAdmsnCd         string `json:"oral_hygne_admsn_cd,omitempty"`
	ToiletingHygneAdmsnCd    string `json:"toileting_hygne_admsn_cd,omitempty"`
	BathingHygneAdmsnCd      string `json:"bathing_hygne_admsn_cd,omitempty"`
	UpperBodyDressingCd      string `json:"upper_body_dressing_cd,omitempty"`
	LowerBodyDressingCd      string `json:"lower_body_dressing_cd,omitempty"`
	FootwearDressingCd       string `json:"footwear_dressing_cd,omitempty"`
	SitToLyingCd             string `json:"sit_to_lying_cd,omitempty"`
	LyingToSitCd             string `json:"lying_to_sit_cd,omitempty"`
	SitToStandCd             string `json:"sit_to_stand_cd,omitempty"`
	ChairBedTransferCd       string `json:"chair_bed_transfer_cd,omitempty"`
	ToiletTransferCd         string `json:"toilet_transfer_cd,omitempty"`
	Walk10FeetCd             string `json:"walk_10_feet_cd,omitempty"`
	Walk50FeetCd             string `json:"walk_50_feet_cd,omitempty"`
	Walk150FeetCd            string `json:"walk_150_feet_cd,omitempty"`
	Step1Cd                  string `json:"step_1_cd,omitempty"`
	UrinaryContinenceCd      string `json:"urinary_continence_cd,omitempty"`
	BowelContinenceCd        string `json:"bowel_continence_cd,omitempty"`
}

// Claim is the canonical claim. One claim instance is read-only while a
// pipeline runs; modules must not mutate it.
type Claim struct {
	ClaimID         string  `json:"claimid"`
	FromDate        *Date   `json:"from_date,omitempty"`
	ThruDate        *Date   `json:"thru_date,omitempty"`
	AdmitDate       *Date   `json:"admit_date,omitempty"`
	ReceiptDate     *Date   `json:"receipt_date,omitempty"`
	EsrdInitialDate *Date   `json:"esrd_initial_date,omitempty"`
	LOS             int     `json:"los" validate:"gte=0"`
	NonCoveredDays  int     `json:"non_covered_days,omitempty" validate:"gte=0"`
	BillType        string  `json:"bill_type,omitempty"`
	PatientStatus   string  `json:"patient_status,omitempty"`
	AdmissionSource string  `json:"admission_source,omitempty"`
	TotalCharges    float64 `json:"total_charges" validate:"gte=0"`
	HMO             bool    `json:"hmo,omitempty"`

	// OppsFlag is 1 for OPPS claims and 2 for non-OPPS; zero means unset
	// and is treated as 1.
	OppsFlag int `json:"opps_flag,omitempty" validate:"omitempty,oneof=1 2"`

	CondCodes       []string         `json:"cond_codes,omitempty"`
	ValueCodes      []ValueCode      `json:"value_codes,omitempty"`
	OccurrenceCodes []OccurrenceCode `json:"occurrence_codes,omitempty"`
	SpanCodes       []SpanCode       `json:"span_codes,omitempty"`
	DemoCodes       []string         `json:"demo_codes,omitempty"`

	RfvDxs       []string        `json:"rfvdx,omitempty"`
	PrincipalDx  *DiagnosisCode  `json:"principal_dx,omitempty"`
	AdmitDx      *DiagnosisCode  `json:"admit_dx,omitempty"`
	SecondaryDxs []DiagnosisCode `json:"secondary_dxs,omitempty"`
	InpatientPxs []ProcedureCode `json:"inpatient_pxs,omitempty"`
	Lines        []LineItem      `json:"lines,omitempty"`

	BillingProvider   *Provider `json:"billing_provider,omitempty"`
	ServicingProvider *Provider `json:"servicing_provider,omitempty"`
	Patient           *Patient  `json:"patient,omitempty"`

	ICDConvert *ICDConvert      `json:"icd_convert,omitempty"`
	Oasis      *OasisAssessment `json:"oasis_assessment,omitempty"`
	IrfPai     *IrfPai          `json:"irf_pai,omitempty"`

	Modules []Module `json:"modules,omitempty"`

	// AdditionalData carries per-module extras keyed by lowercase module
	// name ("ipps", "esrd", ...) plus the reference-override keys "ipsf"
	// and "opsf", and the inline "drg" fallback. Values are either nested
	// objects or scalars.
	AdditionalData map[string]interface{} `json:"additional_data,omitempty"`
}

// ModuleData returns the claim's additional data object for one key, or nil
// when the key is absent or not an object.
func (c *Claim) ModuleData(key string) map[string]interface{} {
	if c.AdditionalData == nil {
		return nil
	}
	m, _ := c.AdditionalData[key].(map[string]interface{})
	return m
}
