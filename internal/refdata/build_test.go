package refdata

import (
	"archive/zip"
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/internal/icd"
)

const buildCMTable = `Conversion table of ICD-10-CM codes

FY 2025 update

Current code assignment	Effective date	Previous Code(s) Assignment
A04.71	2017	A04.7
B96.21	10/01/16	B96.2
`

const buildPCSTable = `Current code(s) assignment	Code title	Effective year	Previous code(s) assignment	Predecessor code title	Change type	Comment	Effective month/day [MM.DD]
0JH60MZ	Insertion device	2023	0JH63MZ	Old insertion	Revised	note	04.01
`

func zipWithMember(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
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

// buildServer serves provider exports and conversion tables for whichever
// year the converter probes.
func buildServer(t *testing.T) *httptest.Server {
	t.Helper()
	cmZip := zipWithMember(t, "conversion_table.txt", buildCMTable)
	pcsZip := zipWithMember(t, "pcs_table.txt", buildPCSTable)

	mux := http.NewServeMux()
	mux.HandleFunc("/ipsf", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ipsfCSV(map[int]string{0: "010001", 1: "20240101", 4: "0"}))
	})
	mux.HandleFunc("/opsf", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, opsfCSV(map[int]string{0: "670001", 1: "20240101", 5: "0", 31: "07102", 32: "01"}))
	})
	for _, year := range []int{time.Now().Year(), time.Now().Year() + 1} {
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

func TestBuildRefreshesAllTables(t *testing.T) {
	store, ctx := newTestStore(t)
	srv := buildServer(t)

	store.SetExportURLs(srv.URL+"/ipsf", srv.URL+"/opsf")
	store.SetHTTPClient(srv.Client())

	conv := icd.NewConverter(store.DB, zerolog.Nop())
	if _, err := conv.Migrate(ctx); err != nil {
		t.Fatalf("migrate conversion tables: %v", err)
	}
	conv.SetHTTPClient(srv.Client())
	conv.SetSourceURLs(srv.URL+"/%d-cm.zip", srv.URL+"/%d-pcs.zip")

	zipRoot := writeZipDataset(t, []string{"36301\t\t2023\t9999\t0\t0"})

	report, err := Build(ctx, store, conv, t.TempDir(), zipRoot)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if report.Ipsf.Inserted != 1 {
		t.Errorf("ipsf inserted = %d, want 1", report.Ipsf.Inserted)
	}
	if report.Opsf.Inserted != 1 {
		t.Errorf("opsf inserted = %d, want 1", report.Opsf.Inserted)
	}
	if report.Zip9.Inserted != 1 {
		t.Errorf("zip9 inserted = %d, want 1", report.Zip9.Inserted)
	}

	cm, err := conv.Count(ctx, icd.CM)
	if err != nil {
		t.Fatalf("count cm: %v", err)
	}
	if cm == 0 {
		t.Error("expected conversion rows after build")
	}
}

func TestBuildSkipsMissingZipDirectory(t *testing.T) {
	store, ctx := newTestStore(t)
	srv := buildServer(t)

	store.SetExportURLs(srv.URL+"/ipsf", srv.URL+"/opsf")
	store.SetHTTPClient(srv.Client())

	conv := icd.NewConverter(store.DB, zerolog.Nop())
	if _, err := conv.Migrate(ctx); err != nil {
		t.Fatalf("migrate conversion tables: %v", err)
	}
	conv.SetHTTPClient(srv.Client())
	conv.SetSourceURLs(srv.URL+"/%d-cm.zip", srv.URL+"/%d-pcs.zip")

	report, err := Build(ctx, store, conv, t.TempDir(), filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if report.Zip9.Inserted != 0 {
		t.Errorf("zip9 inserted = %d, want 0 for a missing shard directory", report.Zip9.Inserted)
	}
	if report.Ipsf.Inserted != 1 || report.Opsf.Inserted != 1 {
		t.Errorf("provider loads should still run: %+v", report)
	}
}
