package icd

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/platform/db"
	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/errdefs"
)

const cmTableText = `Conversion table of ICD-10-CM codes

FY 2025 update

Current code assignment	Effective date	Previous Code(s) Assignment
A04.71	2017	A04.7
B96.21	10/01/16	B96.2
C44.131	2018	C44.13 and C44.19
H02.881	2019	H02.79-H02.81; K13.0
J44.19	2020	J44.10-19
E11.10	2021	"E11.1, E11.2"
M97.01XA	2017	None (new code)
T07.XXXA	2019	Categories T07-T34
`

const pcsTableText = `Current code(s) assignment	Code title	Effective year	Previous code(s) assignment	Predecessor code title	Change type	Comment	Effective month/day [MM.DD]
0JH60MZ	Insertion device	2023	0JH63MZ	Old insertion	Revised	note	04.01
X2A7358	New technology	2024	X2A7312,X2A7313	Old technology	Revised	note	10
NoPCS	Deleted code	2023	0ABC123	Old	Deleted	note	10.01
0XYZ123	Added code	2023	NoPCS	None	Added	note	10.01
0SAME12	Unchanged	2023	0SAME12	Unchanged	None	note	10.01
0EMPTY1	No predecessor	2023		Old	Revised	note	10.01
0BADYR1	Bad year	23	0OLD123	Old	Revised	note	10.01
short	row
`

func newTestConverter(t *testing.T) *Converter {
	t.Helper()
	ctx := context.Background()

	d, err := db.Open(ctx, "sqlite", ":memory:", 1, 1)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	c := NewConverter(d, zerolog.Nop())
	if _, err := c.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return c
}

func seedConversion(t *testing.T, c *Converter, kind Kind, prev, cur, eff string) {
	t.Helper()
	q := c.db.Rebind(`INSERT INTO ` + kind.table() + ` (previous_code, current_code, effective_date) VALUES (?, ?, ?)`)
	if _, err := c.db.ExecContext(context.Background(), q, prev, cur, eff); err != nil {
		t.Fatalf("seed %s: %v", kind.table(), err)
	}
}

func TestParseCMTable(t *testing.T) {
	entries, err := ParseCMTable(strings.NewReader(cmTableText))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 6 {
		t.Fatalf("entries = %d, want 6", len(entries))
	}

	first := entries[0]
	if first.CurrentCode != "A04.71" || first.EffectiveDate != "2017-10-01" {
		t.Errorf("first entry = %+v, want A04.71 effective 2017-10-01", first)
	}
	if len(first.PreviousCodes) != 1 || first.PreviousCodes[0] != "A04.7" {
		t.Errorf("first previous codes = %v", first.PreviousCodes)
	}

	if entries[1].EffectiveDate != "2016-10-01" {
		t.Errorf("mm/dd/yy effective = %q, want 2016-10-01", entries[1].EffectiveDate)
	}

	if got := entries[2].PreviousCodes; len(got) != 2 || got[0] != "C44.13" || got[1] != "C44.19" {
		t.Errorf("and-separated codes = %v", got)
	}

	want := []string{"H02.79", "H02.80", "H02.81", "K13.0"}
	if got := entries[3].PreviousCodes; len(got) != len(want) {
		t.Errorf("range codes = %v, want %v", got, want)
	} else {
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("range code[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	}

	// Suffix-only range ends complete against the start code.
	if got := entries[4].PreviousCodes; len(got) != 10 || got[0] != "J44.10" || got[9] != "J44.19" {
		t.Errorf("suffix range codes = %v", got)
	}

	if got := entries[5].PreviousCodes; len(got) != 2 || got[0] != "E11.1" || got[1] != "E11.2" {
		t.Errorf("quoted codes = %v", got)
	}
}

func TestParseCMTableRequiresHeader(t *testing.T) {
	_, err := ParseCMTable(strings.NewReader("no table here\nA04.71\t2017\tA04.7\n"))
	if err == nil {
		t.Fatal("expected an error for a file without the header row")
	}
}

func TestExpandCodeRange(t *testing.T) {
	tests := []struct {
		start, end  string
		want        int
		first, last string
	}{
		{"H02.101", "H02.106", 6, "H02.101", "H02.106"},
		{"A001", "A010", 10, "A001", "A010"},
		{"C4A.0", "C4A.9", 10, "C4A.0", "C4A.9"},
	}
	for _, tt := range tests {
		got := expandCodeRange(tt.start, tt.end)
		if len(got) != tt.want || got[0] != tt.first || got[len(got)-1] != tt.last {
			t.Errorf("expandCodeRange(%q, %q) = %v", tt.start, tt.end, got)
		}
	}

	if got := expandCodeRange("A10X", "B20Y"); len(got) != 2 || got[0] != "A10X" || got[1] != "B20Y" {
		t.Errorf("non-numeric range = %v, want both endpoints", got)
	}
}

func TestLoadCMStoresStrippedCodes(t *testing.T) {
	c := newTestConverter(t)
	ctx := context.Background()

	n, err := c.LoadCM(ctx, strings.NewReader(cmTableText))
	if err != nil {
		t.Fatalf("load cm: %v", err)
	}
	if n != 20 {
		t.Fatalf("inserted = %d, want 20", n)
	}

	choices, err := c.ConvertBackward(ctx, "A04.71", time.Date(2017, time.September, 30, 0, 0, 0, 0, time.UTC), CM)
	if err != nil {
		t.Fatalf("convert backward: %v", err)
	}
	if len(choices) != 1 || choices[0] != "A047" {
		t.Errorf("choices = %v, want [A047]", choices)
	}
}

func TestLoadPCSSkipsUnusableRows(t *testing.T) {
	c := newTestConverter(t)
	ctx := context.Background()

	n, err := c.LoadPCS(ctx, strings.NewReader(pcsTableText))
	if err != nil {
		t.Fatalf("load pcs: %v", err)
	}
	// One single-predecessor row plus one with two predecessors survive.
	if n != 3 {
		t.Fatalf("inserted = %d, want 3", n)
	}

	choices, err := c.ConvertForward(ctx, "0JH63MZ", time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC), PCS)
	if err != nil {
		t.Fatalf("convert forward: %v", err)
	}
	if len(choices) != 1 || choices[0] != "0JH60MZ" {
		t.Errorf("choices = %v, want [0JH60MZ]", choices)
	}

	// A missing MM.DD column means January 1 of the effective year.
	choices, err = c.ConvertForward(ctx, "X2A7312", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), PCS)
	if err != nil {
		t.Fatalf("convert forward: %v", err)
	}
	if len(choices) != 1 || choices[0] != "X2A7358" {
		t.Errorf("choices = %v, want [X2A7358]", choices)
	}
}

func TestConvertBackwardUsesEntriesStrictlyAfterDate(t *testing.T) {
	c := newTestConverter(t)
	ctx := context.Background()
	seedConversion(t, c, CM, "A40", "A41", "2019-10-01")

	choices, err := c.ConvertBackward(ctx, "A41", time.Date(2019, time.September, 30, 0, 0, 0, 0, time.UTC), CM)
	if err != nil {
		t.Fatalf("convert backward: %v", err)
	}
	if len(choices) != 1 || choices[0] != "A40" {
		t.Errorf("choices = %v, want [A40]", choices)
	}

	// An entry effective exactly on the date is not a later code set.
	choices, err = c.ConvertBackward(ctx, "A41", time.Date(2019, time.October, 1, 0, 0, 0, 0, time.UTC), CM)
	if err != nil {
		t.Fatalf("convert backward: %v", err)
	}
	if choices != nil {
		t.Errorf("choices = %v, want none", choices)
	}

	// With several later entries the newest one wins.
	seedConversion(t, c, CM, "A39", "A41", "2021-10-01")
	choices, err = c.ConvertBackward(ctx, "A41", time.Date(2019, time.September, 30, 0, 0, 0, 0, time.UTC), CM)
	if err != nil {
		t.Fatalf("convert backward: %v", err)
	}
	if len(choices) != 1 || choices[0] != "A39" {
		t.Errorf("choices = %v, want [A39]", choices)
	}
}

func TestConvertForwardReturnsEffectiveChoicesInOrder(t *testing.T) {
	c := newTestConverter(t)
	ctx := context.Background()
	seedConversion(t, c, CM, "B95", "B951", "2018-10-01")
	seedConversion(t, c, CM, "B95", "B952", "2017-10-01")

	choices, err := c.ConvertForward(ctx, "B95", time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC), CM)
	if err != nil {
		t.Fatalf("convert forward: %v", err)
	}
	if len(choices) != 2 || choices[0] != "B952" || choices[1] != "B951" {
		t.Errorf("choices = %v, want [B952 B951]", choices)
	}

	choices, err = c.ConvertForward(ctx, "B95", time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC), CM)
	if err != nil {
		t.Fatalf("convert forward: %v", err)
	}
	if len(choices) != 1 || choices[0] != "B952" {
		t.Errorf("choices = %v, want [B952]", choices)
	}
}

func TestGenerateClaimMappingsAutoBackward(t *testing.T) {
	c := newTestConverter(t)
	ctx := context.Background()
	seedConversion(t, c, CM, "A047", "A0472", "2025-10-01")
	seedConversion(t, c, PCS, "0JH63MZ", "0JH60MZ", "2025-10-01")

	thru := claim.NewDate(2025, time.November, 15)
	cl := &claim.Claim{
		ThruDate:    &thru,
		PrincipalDx: &claim.DiagnosisCode{Code: "A04.72"},
		SecondaryDxs: []claim.DiagnosisCode{
			{Code: "A04.72"},
			{Code: "E11.9"},
		},
		InpatientPxs: []claim.ProcedureCode{{Code: "0JH60MZ"}},
	}

	out, err := c.GenerateClaimMappings(ctx, cl, "420")
	if err != nil {
		t.Fatalf("generate mappings: %v", err)
	}
	if out.BilledVersion != "430" || out.TargetVersion != "420" {
		t.Errorf("versions = %s/%s, want 430/420", out.BilledVersion, out.TargetVersion)
	}
	if len(out.Mappings) != 2 {
		t.Fatalf("mappings = %v, want entries for A04.72 and 0JH60MZ only", out.Mappings)
	}

	dx, ok := out.Mappings["A04.72"]
	if !ok || dx.Target != "A047" {
		t.Errorf("principal mapping = %+v", dx)
	}
	px, ok := out.Mappings["0JH60MZ"]
	if !ok || px.Target != "0JH63MZ" {
		t.Errorf("procedure mapping = %+v", px)
	}
	if _, ok := out.Mappings["E11.9"]; ok {
		t.Error("unmapped secondary diagnosis should not appear")
	}
}

func TestGenerateClaimMappingsManualForward(t *testing.T) {
	c := newTestConverter(t)
	ctx := context.Background()
	seedConversion(t, c, CM, "R69", "R6900", "2024-10-01")
	seedConversion(t, c, CM, "R69", "R6901", "2025-10-01")

	thru := claim.NewDate(2024, time.December, 1)
	cl := &claim.Claim{
		ThruDate:    &thru,
		PrincipalDx: &claim.DiagnosisCode{Code: "R69"},
		ICDConvert: &claim.ICDConvert{
			Option:        claim.ConvertManual,
			TargetVersion: "430",
			BilledVersion: "420",
		},
	}

	out, err := c.GenerateClaimMappings(ctx, cl, "")
	if err != nil {
		t.Fatalf("generate mappings: %v", err)
	}
	if out.BilledVersion != "420" || out.TargetVersion != "430" {
		t.Errorf("versions = %s/%s, want 420/430", out.BilledVersion, out.TargetVersion)
	}

	m, ok := out.Mappings["R69"]
	if !ok {
		t.Fatalf("mappings = %v, want an R69 entry", out.Mappings)
	}
	if len(m.Choices) != 2 || m.Choices[0] != "R6900" || m.Choices[1] != "R6901" {
		t.Errorf("choices = %v, want [R6900 R6901]", m.Choices)
	}
	if m.Target != "R6900" {
		t.Errorf("target = %q, want the first listed choice", m.Target)
	}
}

func TestGenerateClaimMappingsEqualVersionsIsEmpty(t *testing.T) {
	c := newTestConverter(t)

	thru := claim.NewDate(2024, time.December, 1)
	cl := &claim.Claim{
		ThruDate:    &thru,
		PrincipalDx: &claim.DiagnosisCode{Code: "A04.72"},
		ICDConvert: &claim.ICDConvert{
			Option:        claim.ConvertManual,
			TargetVersion: "411",
			BilledVersion: "410",
		},
	}

	out, err := c.GenerateClaimMappings(context.Background(), cl, "")
	if err != nil {
		t.Fatalf("generate mappings: %v", err)
	}
	// A mid-year update shares its predecessor's code set.
	if len(out.Mappings) != 0 {
		t.Errorf("mappings = %v, want none", out.Mappings)
	}
	if out.BilledVersion != "410" || out.TargetVersion != "411" {
		t.Errorf("versions = %s/%s, want 410/411", out.BilledVersion, out.TargetVersion)
	}
}

func TestGenerateClaimMappingsNoneIsNoOp(t *testing.T) {
	c := newTestConverter(t)

	thru := claim.NewDate(2024, time.December, 1)
	cl := &claim.Claim{
		ThruDate:    &thru,
		PrincipalDx: &claim.DiagnosisCode{Code: "A04.72"},
		ICDConvert:  &claim.ICDConvert{Option: claim.ConvertNone},
	}

	out, err := c.GenerateClaimMappings(context.Background(), cl, "430")
	if err != nil {
		t.Fatalf("generate mappings: %v", err)
	}
	if out != nil {
		t.Errorf("out = %+v, want nil", out)
	}
}

func TestGenerateClaimMappingsValidation(t *testing.T) {
	c := newTestConverter(t)
	ctx := context.Background()
	thru := claim.NewDate(2024, time.December, 1)

	tests := []struct {
		name   string
		cl     *claim.Claim
		target string
	}{
		{"missing thru date", &claim.Claim{PrincipalDx: &claim.DiagnosisCode{Code: "A04.72"}}, "430"},
		{"missing principal dx", &claim.Claim{ThruDate: &thru}, "430"},
		{"auto without target", &claim.Claim{ThruDate: &thru, PrincipalDx: &claim.DiagnosisCode{Code: "A04.72"}}, ""},
		{"manual without versions", &claim.Claim{
			ThruDate:    &thru,
			PrincipalDx: &claim.DiagnosisCode{Code: "A04.72"},
			ICDConvert:  &claim.ICDConvert{Option: claim.ConvertManual, TargetVersion: "430"},
		}, ""},
		{"non-numeric version", &claim.Claim{
			ThruDate:    &thru,
			PrincipalDx: &claim.DiagnosisCode{Code: "A04.72"},
			ICDConvert:  &claim.ICDConvert{Option: claim.ConvertManual, TargetVersion: "abc", BilledVersion: "420"},
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.GenerateClaimMappings(ctx, tt.cl, tt.target)
			if !errdefs.IsValidation(err) {
				t.Errorf("err = %v, want a validation error", err)
			}
		})
	}
}

func zipWithTxt(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	other, err := zw.Create("readme.pdf")
	if err != nil {
		t.Fatalf("create zip member: %v", err)
	}
	if _, err := other.Write([]byte("not the table")); err != nil {
		t.Fatalf("write zip member: %v", err)
	}

	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("create zip member: %v", err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("write zip member: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func conversionServer(t *testing.T, years ...int) *httptest.Server {
	t.Helper()
	cmZip := zipWithTxt(t, "conversion_table.txt", cmTableText)
	pcsZip := zipWithTxt(t, "pcs_table.txt", pcsTableText)

	mux := http.NewServeMux()
	for _, year := range years {
		y := year
		mux.HandleFunc(fmt.Sprintf("/%d-cm.zip", y), func(w http.ResponseWriter, r *http.Request) {
			w.Write(cmZip)
		})
		mux.HandleFunc(fmt.Sprintf("/%d-pcs.zip", y), func(w http.ResponseWriter, r *http.Request) {
			w.Write(pcsZip)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func fetchConverter(t *testing.T, srv *httptest.Server) *Converter {
	t.Helper()
	c := newTestConverter(t)
	c.SetHTTPClient(srv.Client())
	c.SetSourceURLs(srv.URL+"/%d-cm.zip", srv.URL+"/%d-pcs.zip")
	c.now = func() time.Time { return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC) }
	return c
}

func TestFetchLoadsBothTablesAndCleansUp(t *testing.T) {
	srv := conversionServer(t, 2026)
	c := fetchConverter(t, srv)

	workDir := t.TempDir()
	if err := c.Fetch(context.Background(), workDir); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	ctx := context.Background()
	cm, err := c.Count(ctx, CM)
	if err != nil {
		t.Fatalf("count cm: %v", err)
	}
	if cm != 20 {
		t.Errorf("cm rows = %d, want 20", cm)
	}
	pcs, err := c.Count(ctx, PCS)
	if err != nil {
		t.Fatalf("count pcs: %v", err)
	}
	if pcs != 3 {
		t.Errorf("pcs rows = %d, want 3", pcs)
	}

	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("work dir not cleaned up: %v", entries)
	}
}

func TestFetchFallsBackToCurrentYear(t *testing.T) {
	srv := conversionServer(t, 2025)
	c := fetchConverter(t, srv)

	if err := c.Fetch(context.Background(), t.TempDir()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	cm, err := c.Count(context.Background(), CM)
	if err != nil {
		t.Fatalf("count cm: %v", err)
	}
	if cm == 0 {
		t.Error("expected rows loaded from the current-year tables")
	}
}

func TestFetchRejectsPartialPublication(t *testing.T) {
	cmZip := zipWithTxt(t, "conversion_table.txt", cmTableText)
	mux := http.NewServeMux()
	mux.HandleFunc("/2026-cm.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write(cmZip)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := fetchConverter(t, srv)
	err := c.Fetch(context.Background(), t.TempDir())
	if !errdefs.IsAcquisition(err) {
		t.Fatalf("err = %v, want an acquisition error", err)
	}
}

func TestFetchFailsWhenNothingPublished(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	c := fetchConverter(t, srv)
	err := c.Fetch(context.Background(), t.TempDir())
	if !errdefs.IsAcquisition(err) {
		t.Fatalf("err = %v, want an acquisition error", err)
	}
}
