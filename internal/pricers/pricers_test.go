package pricers

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/platform/engine"
	"github.com/librepps/gopps/internal/platform/engine/enginetest"
	"github.com/librepps/gopps/internal/refdata"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/errdefs"
)

// fakeIpsf serves one inpatient provider row and records the lookup key.
type fakeIpsf struct {
	row  *refdata.IpsfProvider
	err  error
	key  refdata.ProviderKey
	asOf int
}

func (f *fakeIpsf) FindProvider(ctx context.Context, key refdata.ProviderKey, asOf int) (*refdata.IpsfProvider, error) {
	f.key, f.asOf = key, asOf
	if f.err != nil {
		return nil, f.err
	}
	return f.row, nil
}

func (f *fakeIpsf) LoadCSV(ctx context.Context, src io.Reader) (refdata.LoadStats, error) {
	return refdata.LoadStats{}, nil
}

func (f *fakeIpsf) Truncate(ctx context.Context) error     { return nil }
func (f *fakeIpsf) Count(ctx context.Context) (int, error) { return 0, nil }

// fakeOpsf serves one outpatient provider row.
type fakeOpsf struct {
	row  *refdata.OpsfProvider
	err  error
	key  refdata.ProviderKey
	asOf int
}

func (f *fakeOpsf) FindProvider(ctx context.Context, key refdata.ProviderKey, asOf int) (*refdata.OpsfProvider, error) {
	f.key, f.asOf = key, asOf
	if f.err != nil {
		return nil, f.err
	}
	return f.row, nil
}

func (f *fakeOpsf) LoadCSV(ctx context.Context, src io.Reader) (refdata.LoadStats, error) {
	return refdata.LoadStats{}, nil
}

func (f *fakeOpsf) Truncate(ctx context.Context) error     { return nil }
func (f *fakeOpsf) Count(ctx context.Context) (int, error) { return 0, nil }

// fakeZip9 serves one carrier/locality pair.
type fakeZip9 struct {
	loc  *refdata.CarrierLocality
	err  error
	zip5 string
	zip4 string
}

func (f *fakeZip9) LookupCarrierLocality(ctx context.Context, zip5, plus4, fromDate, thruDate string) (*refdata.CarrierLocality, error) {
	f.zip5, f.zip4 = zip5, plus4
	if f.err != nil {
		return nil, f.err
	}
	return f.loc, nil
}

func (f *fakeZip9) LoadShards(ctx context.Context, root string) (refdata.LoadStats, error) {
	return refdata.LoadStats{}, nil
}

func (f *fakeZip9) Truncate(ctx context.Context) error     { return nil }
func (f *fakeZip9) Count(ctx context.Context) (int, error) { return 0, nil }

// years2025 covers the fixtures below, which all end in calendar 2025.
var years2025 = []int{2025, 2024, 2023, 2022}

func newFakeRunner(reply map[string]interface{}) *enginetest.Fake {
	return &enginetest.Fake{Results: map[string]map[string]interface{}{
		engine.OpNewInstance: {"instance": "px-1"},
		engine.OpInvoke:      reply,
	}}
}

// payloadParts splits the last pricing request into its claim and provider
// blocks.
func payloadParts(t *testing.T, fake *enginetest.Fake) (map[string]interface{}, map[string]interface{}) {
	t.Helper()
	payload := fake.LastPayload(engine.OpInvoke)
	cl, _ := payload["claim"].(map[string]interface{})
	if cl == nil {
		t.Fatalf("payload has no claim block: %v", payload)
	}
	prov, _ := payload["provider"].(map[string]interface{})
	return cl, prov
}

func ipsfFixture() *refdata.IpsfProvider {
	return &refdata.IpsfProvider{
		ProviderCCN:                  "010001",
		NationalProviderIdentifier:   "1234567893",
		EffectiveDate:                20240101,
		TerminationDate:              refdata.TerminationOpen,
		ProviderType:                 "00",
		CountyCode:                   "36061",
		CbsaActualGeographicLocation: "35620",
	}
}

func opsfFixture() *refdata.OpsfProvider {
	return &refdata.OpsfProvider{
		ProviderCCN:     "010001",
		EffectiveDate:   20240101,
		TerminationDate: refdata.TerminationOpen,
		ProviderType:    "00",
	}
}

// inpatientClaim is a five-day acute stay ending 2025-06-06.
func inpatientClaim() *claim.Claim {
	admit := claim.NewDate(2025, time.June, 1)
	from := claim.NewDate(2025, time.June, 1)
	thru := claim.NewDate(2025, time.June, 6)
	return &claim.Claim{
		ClaimID:         "ip-0001",
		AdmitDate:       &admit,
		FromDate:        &from,
		ThruDate:        &thru,
		LOS:             5,
		NonCoveredDays:  1,
		TotalCharges:    25000.50,
		PatientStatus:   "01",
		BillingProvider: &claim.Provider{OtherID: "010001", NPI: "1234567893"},
		Patient:         &claim.Patient{Age: 67, Sex: "M"},
		PrincipalDx:     &claim.DiagnosisCode{Code: "I50.9", Poa: claim.PoaY},
		AdmitDx:         &claim.DiagnosisCode{Code: "R07.9", Poa: claim.PoaY},
		SecondaryDxs: []claim.DiagnosisCode{
			{Code: "E11.9", Poa: claim.PoaN},
			{Code: ""},
		},
		InpatientPxs: []claim.ProcedureCode{{Code: "02HV33Z"}},
	}
}

func TestCheckYear(t *testing.T) {
	p := pricer{name: "ipps", years: []int{2024, 2025}, log: zerolog.Nop()}

	cl := inpatientClaim()
	if err := p.checkYear(cl); err != nil {
		t.Fatalf("2025 should be supported: %v", err)
	}

	old := claim.NewDate(2019, time.June, 6)
	cl.ThruDate = &old
	err := p.checkYear(cl)
	if !errdefs.IsVersionUnavailable(err) {
		t.Fatalf("err = %v, want VersionUnavailable", err)
	}

	cl.ThruDate = nil
	if err := p.checkYear(cl); err != nil {
		t.Fatalf("nil thru date should pass the year gate: %v", err)
	}
}

func TestApplyOverrides(t *testing.T) {
	row := map[string]interface{}{"provider_type": "00", "county_code": "36061"}
	applyOverrides(row, map[string]interface{}{
		"provider_type": "02",
		"not_a_column":  "x",
	})
	if row["provider_type"] != "02" {
		t.Errorf("provider_type = %v, want the override", row["provider_type"])
	}
	if _, ok := row["not_a_column"]; ok {
		t.Error("override invented a column the row never had")
	}
}

func TestPricingProviderFallsBackToServicing(t *testing.T) {
	cl := &claim.Claim{ServicingProvider: &claim.Provider{NPI: "1234567893"}}
	prov, err := pricingProvider(cl)
	if err != nil || prov.NPI != "1234567893" {
		t.Fatalf("prov = %v, err = %v", prov, err)
	}
	if _, err := pricingProvider(&claim.Claim{}); err == nil {
		t.Fatal("want an error when no provider is set")
	}
}
