package acquire

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/librepps/gopps/pkg/errdefs"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	root := t.TempDir()
	return New(filepath.Join(root, "jars"), filepath.Join(root, "downloads"), zerolog.Nop())
}

func touchJar(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("jar"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func seedLibraryJars(t *testing.T, m *Manager) {
	t.Helper()
	for _, name := range []string{
		"slf4j-simple-2.0.9.jar", "slf4j-api-2.0.9.jar",
		"gfc-base-api-3.4.9.jar",
		"protobuf-java-3.22.2.jar", "protobuf-java-3.21.7.jar",
	} {
		touchJar(t, m.jarsDir, name)
	}
}

func buildZip(t *testing.T, members map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestInventoryReportsMissingComponents(t *testing.T) {
	m := newTestManager(t)
	touchJar(t, m.jarsDir, "slf4j-simple-2.0.9.jar")
	touchJar(t, m.jarsDir, "slf4j-api-2.0.9.jar")
	touchJar(t, m.jarsDir, "msdrg-v43-1.0.0.jar")
	touchJar(t, m.pricersDir(), "ipps-pricer-application-2.11.0.jar")

	byName := map[string]Status{}
	for _, st := range m.Inventory() {
		byName[st.Component] = st
	}

	if st := byName["slf4j"]; !st.Complete || len(st.Found) != 2 {
		t.Errorf("slf4j status = %+v, want complete with both jars", st)
	}
	if st := byName["msdrg"]; st.Complete || len(st.Found) != 1 || len(st.Missing) != 5 {
		t.Errorf("msdrg status = %+v, want one match and five open patterns", st)
	}
	if st := byName["pricers"]; st.Complete || len(st.Missing) != 9 {
		t.Errorf("pricers status = %+v, want nine open patterns", st)
	}

	missing := m.Missing()
	if _, ok := missing["slf4j"]; ok {
		t.Error("slf4j listed missing despite both jars present")
	}
	if got := missing["gfc"]; len(got) != 1 || got[0] != "gfc-base-api-3.4.9.jar" {
		t.Errorf("gfc missing = %v", got)
	}
	if m.Complete() {
		t.Error("environment reported complete")
	}
}

func TestPricerJarNameMapping(t *testing.T) {
	cases := []struct {
		zip  string
		want string
	}{
		{"ipps-pricer-2026-0-v2-11-0-executable-jar.zip", "ipps-pricer-application-2.11.0.jar"},
		{"snf-pricer-2025-4-v1-0-1-executable.zip", "snf-pricer-application-1.0.1.jar"},
		{"hospice-pricer-2025-0-v3-2-executable-jar.zip", "hospice-pricer-application-3.2.jar"},
		{"legacy-pc-pricer.zip", ""},
		{"pricer-manuals.zip", ""},
	}
	for _, tc := range cases {
		if got := pricerJarName(tc.zip); got != tc.want {
			t.Errorf("pricerJarName(%s) = %q, want %q", tc.zip, got, tc.want)
		}
	}
}

func TestMsdrgSourceLinkPicksNewest(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html><body>
<a href="/files/zip/ms-drg-mce-v42-standalone-jars.zip"><strong>Version 42 Java Source Code</strong></a>
<a href="/files/zip/ms-drg-mce-v43-standalone-jars.zip-11"><strong>Version 43 Java Source Code</strong></a>
<a href="/files/zip/ms-drg-v43-manual.zip"><strong>Version 43 Manuals</strong></a>
</body></html>`))
	if err != nil {
		t.Fatal(err)
	}

	href, version := msdrgSourceLink(doc)
	if href != "/files/zip/ms-drg-mce-v43-standalone-jars.zip-11" || version != 43 {
		t.Errorf("selected %q version %v, want the v43 source bundle", href, version)
	}
	if got := stripZipSuffix(path.Base(href)); got != "ms-drg-mce-v43-standalone-jars.zip" {
		t.Errorf("stripZipSuffix = %q", got)
	}
}

func TestLicenseFormCollectsHiddenFields(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html><body>
<form action="/apps/license.asp">
<input type="hidden" name="file" value="/files/zip/ioce-standalone-v26.zip">
<input type="hidden" name="token" value="abc123">
<input type="submit" name="agree" value="Yes">
</form></body></html>`))
	if err != nil {
		t.Fatal(err)
	}

	action, fields := licenseForm(doc)
	if action != "/apps/license.asp" {
		t.Errorf("action = %q", action)
	}
	if fields.Get("file") != "/files/zip/ioce-standalone-v26.zip" || fields.Get("token") != "abc123" {
		t.Errorf("hidden fields not collected: %v", fields)
	}
}

func TestPricerLinksStopAtNextSection(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html><body>
<h2>PC Pricers</h2><p><a href="/files/zip/legacy-pc-pricer.zip">legacy</a></p>
<h2>Software (Executable JAR Files)</h2>
<ul>
<li><a href="/files/zip/ipps-pricer-2025-0-v1-0-0-executable-jar.zip">IPPS</a></li>
<li><a href="/files/zip/snf-pricer-2025-0-v1-0-0-executable-jar.zip">SNF</a></li>
</ul>
<h2>Manuals</h2><p><a href="/files/zip/pricer-manuals.zip">manuals</a></p>
</body></html>`))
	if err != nil {
		t.Fatal(err)
	}

	links := pricerLinks(doc)
	if len(links) != 2 {
		t.Fatalf("links = %v, want the two executable bundles", links)
	}
	for _, l := range links {
		if strings.Contains(l, "legacy") || strings.Contains(l, "manuals") {
			t.Errorf("link outside the executable section collected: %s", l)
		}
	}
}

func TestInstallFromArchiveNestedZips(t *testing.T) {
	m := newTestManager(t)
	if err := os.MkdirAll(m.downloadDir, 0o755); err != nil {
		t.Fatal(err)
	}

	inner := buildZip(t, map[string][]byte{
		"lib/CMG_550.jar":         []byte("cmg"),
		"lib/irf-proto-1.2.0.jar": []byte("proto"),
	})
	outer := buildZip(t, map[string][]byte{
		"JAR.zip":      inner,
		"readme.txt":   []byte("docs"),
		"GUI/demo.jar": []byte("gui"),
	})
	archive := filepath.Join(m.downloadDir, "cmg-version-550-final.zip")
	if err := os.WriteFile(archive, outer, 0o644); err != nil {
		t.Fatal(err)
	}

	keep := componentMatcher("cmg", false, m.Missing()["cmg"])
	n, err := m.installFromArchive(archive, keep, m.jarsDir, false)
	if err != nil {
		t.Fatalf("installFromArchive: %v", err)
	}
	if n != 2 {
		t.Errorf("installed %d jars, want 2", n)
	}
	for _, want := range []string{"CMG_550.jar", "irf-proto-1.2.0.jar"} {
		if _, err := os.Stat(filepath.Join(m.jarsDir, want)); err != nil {
			t.Errorf("%s not installed: %v", want, err)
		}
	}
	if _, err := os.Stat(filepath.Join(m.jarsDir, "demo.jar")); err == nil {
		t.Error("unrequired jar installed")
	}
}

func TestInstallKeepsExistingUnlessForced(t *testing.T) {
	m := newTestManager(t)
	if err := os.MkdirAll(m.downloadDir, 0o755); err != nil {
		t.Fatal(err)
	}
	touchJar(t, m.jarsDir, "HomeHealth.jar")

	archive := filepath.Join(m.downloadDir, "hhgs-2025.zip")
	payload := buildZip(t, map[string][]byte{"HH_PPS/HomeHealth.jar": []byte("new build")})
	if err := os.WriteFile(archive, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	keep := componentMatcher("hhag", true, nil)
	if _, err := m.installFromArchive(archive, keep, m.jarsDir, false); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(filepath.Join(m.jarsDir, "HomeHealth.jar"))
	if string(data) != "jar" {
		t.Error("existing jar overwritten without force")
	}

	if _, err := m.installFromArchive(archive, keep, m.jarsDir, true); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(filepath.Join(m.jarsDir, "HomeHealth.jar"))
	if string(data) != "new build" {
		t.Error("force did not refresh the jar")
	}
}

func TestAcquireFillsJarEnvironment(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page := func(pattern, body string) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
	}
	serve := func(pattern string, body []byte) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			w.Write(body)
		})
	}

	page("/msdrg", `<html><body>
<a href="/files/zip/ms-drg-mce-v42-standalone-jars.zip"><strong>Version 42 Java Source Code</strong></a>
<a href="/files/zip/ms-drg-mce-v43-standalone-jars.zip-11"><strong>Version 43 Java Source Code</strong></a>
</body></html>`)
	serve("/files/zip/ms-drg-mce-v43-standalone-jars.zip-11", buildZip(t, map[string][]byte{
		"standalone/msdrg-binary-access-1.0.3.jar": []byte("a"),
		"standalone/msdrg-model-v2-2.1.0.jar":      []byte("b"),
		"standalone/msdrg-v43-1.0.0.jar":           []byte("c"),
		"standalone/MCE-43.0.jar":                  []byte("d"),
		"standalone/mce-proto-1.4.0.jar":           []byte("e"),
		"standalone/Utility-3.1.0.jar":             []byte("f"),
	}))

	page("/ioce", `<html><body><a href="/ioce/java-standalone-v26">Java Standalone V26.0</a></body></html>`)
	page("/ioce/java-standalone-v26", `<html><body>
<form action="/ioce/download" method="post">
<input type="hidden" name="file" value="ioce-standalone-v26.zip">
<input type="submit" name="agree" value="Yes">
</form></body></html>`)
	ioceZip := buildZip(t, map[string][]byte{"ioce-standalone-26.0.jar": []byte("ioce")})
	mux.HandleFunc("/ioce/download", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.FormValue("agree") != "Yes" {
			http.Error(w, "license not accepted", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="ioce-java-standalone-v26.zip"`)
		w.Write(ioceZip)
	})

	page("/hhag", `<html><body>
<a href="/files/zip/hh-pps-grouper-software-gui.zip">GUI build</a>
<a href="/files/zip/hh-pps-grouper-software.zip">CLI build</a>
</body></html>`)
	serve("/files/zip/hh-pps-grouper-software.zip", buildZip(t, map[string][]byte{
		"HH_PPS/HomeHealth.jar": []byte("hhag"),
	}))

	jarZip := buildZip(t, map[string][]byte{"CMG_550.jar": []byte("cmg")})
	libZip := buildZip(t, map[string][]byte{
		"lib/irf-proto-1.2.0.jar":        []byte("proto"),
		"lib/gfc-base-factory-3.4.9.jar": []byte("factory"),
	})
	page("/cmg", `<html><body><a href="/files/zip/cmg-version-550-final.zip">CMG Version 550</a></body></html>`)
	serve("/files/zip/cmg-version-550-final.zip", buildZip(t, map[string][]byte{
		"JAR.zip":          jarZip,
		"CMG_v550_LIB.zip": libZip,
	}))

	var pricerPage strings.Builder
	pricerPage.WriteString(`<html><body><h2>PC Pricers</h2><p><a href="/files/zip/legacy-pc-pricer.zip">legacy</a></p>`)
	pricerPage.WriteString(`<h2>Software (Executable JAR Files)</h2><ul>`)
	for _, typ := range pricerTypes {
		zipName := typ + "-pricer-2025-0-v1-0-0-executable-jar.zip"
		fmt.Fprintf(&pricerPage, `<li><a href="/files/zip/%s">%s</a></li>`, zipName, strings.ToUpper(typ))
		serve("/files/zip/"+zipName, buildZip(t, map[string][]byte{
			typ + "-pricer-application-1.0.0.jar": []byte(typ),
		}))
	}
	pricerPage.WriteString(`</ul><h2>Manuals</h2><p><a href="/files/zip/pricer-manuals.zip">manuals</a></p></body></html>`)
	page("/pricers", pricerPage.String())

	m := newTestManager(t)
	seedLibraryJars(t, m)
	touchJar(t, m.jarsDir, "grouper-source.jar")
	m.msdrgPage = srv.URL + "/msdrg"
	m.iocePage = srv.URL + "/ioce"
	m.hhagPage = srv.URL + "/hhag"
	m.cmgPage = srv.URL + "/cmg"
	m.pricerPage = srv.URL + "/pricers"

	if err := m.Acquire(context.Background(), false); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !m.Complete() {
		t.Fatalf("still missing: %v", m.Missing())
	}

	for _, want := range []string{
		"msdrg-v43-1.0.0.jar", "MCE-43.0.jar", "ioce-standalone-26.0.jar",
		"HomeHealth.jar", "CMG_550.jar", "gfc-base-factory-3.4.9.jar",
	} {
		if _, err := os.Stat(filepath.Join(m.jarsDir, want)); err != nil {
			t.Errorf("%s not installed: %v", want, err)
		}
	}
	for _, typ := range pricerTypes {
		want := typ + "-pricer-application-1.0.0.jar"
		if _, err := os.Stat(filepath.Join(m.pricersDir(), want)); err != nil {
			t.Errorf("%s not installed: %v", want, err)
		}
	}
	if _, err := os.Stat(filepath.Join(m.jarsDir, "grouper-source.jar")); err == nil {
		t.Error("source jar kept after the run")
	}
	if _, err := os.Stat(m.downloadDir); !os.IsNotExist(err) {
		t.Error("staging directory kept after the run")
	}
}

func TestAcquireReportsRemainingMissing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	m := newTestManager(t)
	seedLibraryJars(t, m)
	m.msdrgPage = srv.URL + "/msdrg"
	m.iocePage = srv.URL + "/ioce"
	m.hhagPage = srv.URL + "/hhag"
	m.cmgPage = srv.URL + "/cmg"
	m.pricerPage = srv.URL + "/pricers"

	err := m.Acquire(context.Background(), false)
	if !errdefs.IsAcquisition(err) {
		t.Fatalf("err = %v, want Acquisition", err)
	}
	if m.Complete() {
		t.Error("environment reported complete despite failed downloads")
	}
}
